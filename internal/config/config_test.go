package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/persist"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_ValidAndHasBuiltinLayouts(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if _, ok := cfg.Layouts[DefaultBuiltinLayout]; !ok {
		t.Fatalf("expected builtin %q to exist in layouts", DefaultBuiltinLayout)
	}
	for _, name := range cfg.LayoutNames() {
		n := 0
		root, err := cfg.Layouts[name].Build(func() string { n++; return name + string(rune('a'+n)) })
		if err != nil {
			t.Fatalf("builtin %q: %v", name, err)
		}
		if err := layout.New(root).Validate(); err != nil {
			t.Fatalf("builtin %q builds an invalid tree: %v", name, err)
		}
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.DefaultLayout != DefaultBuiltinLayout {
		t.Fatalf("expected default_layout %q, got %q", DefaultBuiltinLayout, res.Config.DefaultLayout)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_OverridesAndSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"log_level: debug",
		"drag:",
		"  edge_band: 0.25",
		"storage:",
		"  backend: sqlite",
		"  codec: cbor",
		"  debounce_ms: 100",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.LogLevel != "debug" || cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
	if cfg.Drag.EdgeBand != 0.25 {
		t.Fatalf("edge_band = %v", cfg.Drag.EdgeBand)
	}
	if cfg.Storage.Backend != persist.BackendSQLite || cfg.Storage.Codec != persist.CodecCBOR {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Key != persist.DefaultKey {
		t.Fatalf("storage.key = %q, want default", cfg.Storage.Key)
	}
	if cfg.Debounce() != 100*time.Millisecond {
		t.Fatalf("debounce = %v", cfg.Debounce())
	}

	val, src, err := Explain(res, "drag.edge_band")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val.(float64) != 0.25 || src.Kind != SourceFile || src.Line != 3 {
		t.Fatalf("explain = %v from %+v", val, src)
	}
	_, src, err = Explain(res, "mcp.name")
	if err != nil || src.Kind != SourceDefault {
		t.Fatalf("explain mcp.name = %+v, %v", src, err)
	}
	_, src, err = Explain(res, "layouts.browse")
	if err != nil || src.Kind != SourceBuiltin || src.Name != "browse" {
		t.Fatalf("explain layouts.browse = %+v, %v", src, err)
	}
	if _, _, err := Explain(res, "storage.nope"); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestLoadFromPath_CustomLayoutAndViews(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
default_layout: review
views:
  - id: compare
    name: Compare
    handle: compare-view
  - id: viewer
    name: Big viewer
    handle: viewer
layouts:
  review:
    split: vertical
    children:
      - views: [viewer, compare]
        active: compare
        size: 60
      - views: [queue]
        locked: true
        size: 40
`)
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	reg, err := res.Config.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if d, ok := reg.Lookup("viewer"); !ok || d.Name != "Big viewer" {
		t.Fatalf("viewer = %+v, want overridden name", d)
	}
	if !reg.Has("compare") || !reg.Has("library") {
		t.Fatal("expected custom view added next to builtins")
	}

	n := 0
	root, err := res.Config.DefaultTree(func() string { n++; return "id" + string(rune('0'+n)) })
	if err != nil {
		t.Fatalf("default tree: %v", err)
	}
	ws := layout.New(root)
	if len(ws.Groups()) != 2 || ws.GroupOf("compare").ActiveViewID != "compare" {
		t.Fatalf("default tree = %+v", ws.Snapshot())
	}
	_, src, err := Explain(res, "views.compare")
	if err != nil || src.Kind != SourceFile {
		t.Fatalf("explain views.compare = %+v, %v", src, err)
	}
	_, src, err = Explain(res, "views.library")
	if err != nil || src.Kind != SourceBuiltin {
		t.Fatalf("explain views.library = %+v, %v", src, err)
	}
}

func TestLoadFromPath_Includes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "conf.d", "10-drag.yaml"), "drag:\n  edge_band: 0.3\n")
	writeFile(t, filepath.Join(dir, "conf.d", "20-storage.yaml"), "storage:\n  backend: memory\n  key: base\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: conf.d\nstorage:\n  key: main\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Drag.EdgeBand != 0.3 {
		t.Fatalf("edge_band = %v, want value from include", res.Config.Drag.EdgeBand)
	}
	if res.Config.Storage.Backend != persist.BackendMemory || res.Config.Storage.Key != "main" {
		t.Fatalf("storage = %+v, want include backend and main file key", res.Config.Storage)
	}
	if len(res.Files) != 3 {
		t.Fatalf("files = %v, want 3", res.Files)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")
	if _, err := LoadFromPath(filepath.Join(dir, "a.yaml")); err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("err = %v, want include cycle", err)
	}
}

func TestLoadFromPath_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		path string
	}{
		{"unknown key", "bogus: 1\n", ""},
		{"bad log level", "log_level: loud\n", "log_level"},
		{"edge band too wide", "drag:\n  edge_band: 0.7\n", "drag.edge_band"},
		{"bad backend", "storage:\n  backend: s3\n", "storage.backend"},
		{"bad codec", "storage:\n  codec: xml\n", "storage.codec"},
		{"bad key", "storage:\n  key: ../escape\n", "storage.key"},
		{"missing default layout", "default_layout: nope\n", "default_layout"},
		{"unknown view in layout", "layouts:\n  x:\n    views: [ghost]\n", "layouts.x"},
		{"empty view id", "views:\n  - name: nameless\n", "views"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.yaml)
			_, err := LoadFromPath(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.path == "" {
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("err = %v, want ValidationError at %q", err, tt.path)
			}
		})
	}
}

func TestValidationErrorCarriesSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "mcp:\n  name: ok\nlog_level: loud\n")
	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), path+":3:") {
		t.Fatalf("err = %v, want file:line prefix", err)
	}
}

func TestStoragePathDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg := DefaultConfig()
	got, err := cfg.StoragePath()
	if err != nil || got != "/data/docktile/layouts" {
		t.Fatalf("file path = %q, %v", got, err)
	}
	cfg.Storage.Backend = persist.BackendSQLite
	if got, _ := cfg.StoragePath(); got != "/data/docktile/layouts.db" {
		t.Fatalf("sqlite path = %q", got)
	}
	cfg.Storage.Path = "/elsewhere/x.db"
	if got, _ := cfg.StoragePath(); got != "/elsewhere/x.db" {
		t.Fatalf("explicit path = %q", got)
	}
}

func TestMarshalRoundTrips(t *testing.T) {
	data, err := DefaultConfig().Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, string(data))
	if _, err := LoadFromPath(path); err != nil {
		t.Fatalf("printed config does not load back: %v", err)
	}
}
