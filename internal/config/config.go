package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/docktile/internal/drag"
	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/persist"
	"github.com/1broseidon/docktile/internal/registry"
)

// DragConfig tunes the drag coordinator.
type DragConfig struct {
	EdgeBand float64 `yaml:"edge_band"`
}

// StorageConfig selects where layouts are persisted.
type StorageConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	Key        string `yaml:"key"`
	Codec      string `yaml:"codec"`
	DebounceMS int    `yaml:"debounce_ms"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	Name string `yaml:"name"`
}

// Config is the effective configuration.
type Config struct {
	LogLevel      string                     `yaml:"log_level"`
	DefaultLayout string                     `yaml:"default_layout"`
	Layouts       map[string]layout.Template `yaml:"layouts"`
	Views         []registry.Descriptor      `yaml:"views"`
	Drag          DragConfig                 `yaml:"drag"`
	Storage       StorageConfig              `yaml:"storage"`
	MCP           MCPConfig                  `yaml:"mcp"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		DefaultLayout: DefaultBuiltinLayout,
		Layouts:       BuiltinLayouts(),
		Views:         registry.Builtin(),
		Drag: DragConfig{
			EdgeBand: drag.DefaultEdgeBand,
		},
		Storage: StorageConfig{
			Backend:    persist.BackendFile,
			Key:        persist.DefaultKey,
			Codec:      persist.CodecJSON,
			DebounceMS: int(persist.DefaultDebounce / time.Millisecond),
		},
		MCP: MCPConfig{
			Name: "docktile",
		},
	}
}

// Registry builds the view registry from the configured views.
func (c *Config) Registry() (*registry.Registry, error) {
	return registry.New(c.Views...)
}

// GetLayout returns the named layout template.
func (c *Config) GetLayout(name string) (layout.Template, error) {
	tmpl, ok := c.Layouts[name]
	if !ok {
		return layout.Template{}, fmt.Errorf("layout %q not found (available: %s)", name, strings.Join(c.LayoutNames(), ", "))
	}
	return tmpl, nil
}

// LayoutNames returns the configured layout names, sorted.
func (c *Config) LayoutNames() []string {
	return sortedKeys(c.Layouts)
}

// DefaultTree builds a fresh tree from the default layout.
func (c *Config) DefaultTree(newID func() string) (layout.Node, error) {
	tmpl, err := c.GetLayout(c.DefaultLayout)
	if err != nil {
		return nil, err
	}
	return tmpl.Build(newID)
}

// Debounce returns the persistence debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Storage.DebounceMS) * time.Millisecond
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning", "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StoragePath returns the configured storage path, or the default under
// the user's data directory for the backend.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == persist.BackendSQLite {
		return filepath.Join(dir, "layouts.db"), nil
	}
	return filepath.Join(dir, "layouts"), nil
}

// DataDir returns $XDG_DATA_HOME/docktile or ~/.local/share/docktile.
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "docktile"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "docktile"), nil
}

// OpenStore opens the configured persistence adapter.
func (c *Config) OpenStore() (*persist.Adapter, persist.Store, error) {
	path, err := c.StoragePath()
	if err != nil {
		return nil, nil, err
	}
	store, err := persist.Open(c.Storage.Backend, path)
	if err != nil {
		return nil, nil, err
	}
	codec, err := persist.CodecByName(c.Storage.Codec)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return persist.NewAdapter(store, codec, c.Storage.Key), store, nil
}

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}

	reg, err := c.Registry()
	if err != nil {
		return &ValidationError{Path: "views", Err: err}
	}
	if len(c.Layouts) == 0 {
		return &ValidationError{Path: "layouts", Err: fmt.Errorf("layouts must not be empty")}
	}
	if c.DefaultLayout == "" {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout is required")}
	}
	if _, ok := c.Layouts[c.DefaultLayout]; !ok {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout %q not found in layouts", c.DefaultLayout)}
	}
	for _, name := range sortedKeys(c.Layouts) {
		if err := c.Layouts[name].Validate(reg.Has); err != nil {
			return &ValidationError{Path: "layouts." + name, Err: err}
		}
	}

	if c.Drag.EdgeBand <= 0 || c.Drag.EdgeBand > 0.5 {
		return &ValidationError{Path: "drag.edge_band", Err: fmt.Errorf("edge_band must be in (0, 0.5]")}
	}

	switch c.Storage.Backend {
	case persist.BackendFile, persist.BackendSQLite, persist.BackendMemory:
	default:
		return &ValidationError{Path: "storage.backend", Err: fmt.Errorf("backend must be one of: file, sqlite, memory")}
	}
	if _, err := persist.CodecByName(c.Storage.Codec); err != nil {
		return &ValidationError{Path: "storage.codec", Err: err}
	}
	if key := c.Storage.Key; strings.TrimSpace(key) == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return &ValidationError{Path: "storage.key", Err: fmt.Errorf("invalid storage key %q", key)}
	}
	if c.Storage.DebounceMS < 0 {
		return &ValidationError{Path: "storage.debounce_ms", Err: fmt.Errorf("debounce_ms must be >= 0")}
	}
	if strings.TrimSpace(c.MCP.Name) == "" {
		return &ValidationError{Path: "mcp.name", Err: fmt.Errorf("mcp.name is required")}
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
	}
	return path, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
