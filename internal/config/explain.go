package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/docktile/internal/registry"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	log_level
//	default_layout
//	drag.edge_band
//	storage.backend
//	storage.path
//	storage.key
//	storage.codec
//	storage.debounce_ms
//	mcp.name
//	views
//	views.<id>
//	layouts
//	layouts.<name>
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	parts := strings.Split(path, ".")
	switch {
	case parts[0] == "layouts" && len(parts) > 1:
		if base := res.LayoutBases[parts[1]]; base != "" {
			return value, Source{Kind: SourceBuiltin, Name: base}, nil
		}
		if src, ok := res.Sources["layouts"]; ok {
			return value, src, nil
		}
	case parts[0] == "views" && len(parts) > 1:
		if src, ok := res.Sources["views"]; ok && !isBuiltinView(parts[1], res.Config) {
			return value, src, nil
		}
		return value, Source{Kind: SourceBuiltin, Name: "views"}, nil
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func isBuiltinView(id string, cfg *Config) bool {
	for _, v := range registry.Builtin() {
		if v.ID != id {
			continue
		}
		for _, cur := range cfg.Views {
			if cur.ID == id {
				return cur == v
			}
		}
	}
	return false
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	want := func(n int) error {
		if len(parts) != n {
			return fmt.Errorf("unknown config path %q", path)
		}
		return nil
	}
	switch parts[0] {
	case "log_level":
		return cfg.LogLevel, want(1)
	case "default_layout":
		return cfg.DefaultLayout, want(1)
	case "drag":
		if err := want(2); err != nil {
			return nil, err
		}
		if parts[1] == "edge_band" {
			return cfg.Drag.EdgeBand, nil
		}
	case "storage":
		if err := want(2); err != nil {
			return nil, err
		}
		switch parts[1] {
		case "backend":
			return cfg.Storage.Backend, nil
		case "path":
			return cfg.Storage.Path, nil
		case "key":
			return cfg.Storage.Key, nil
		case "codec":
			return cfg.Storage.Codec, nil
		case "debounce_ms":
			return cfg.Storage.DebounceMS, nil
		}
	case "mcp":
		if err := want(2); err != nil {
			return nil, err
		}
		if parts[1] == "name" {
			return cfg.MCP.Name, nil
		}
	case "views":
		if len(parts) == 1 {
			return cfg.Views, nil
		}
		if err := want(2); err != nil {
			return nil, err
		}
		for _, v := range cfg.Views {
			if v.ID == parts[1] {
				return v, nil
			}
		}
		return nil, fmt.Errorf("view %q not found", parts[1])
	case "layouts":
		if len(parts) == 1 {
			return cfg.LayoutNames(), nil
		}
		if err := want(2); err != nil {
			return nil, err
		}
		return cfg.GetLayout(parts[1])
	}
	return nil, fmt.Errorf("unknown config path %q", path)
}

// Marshal renders the effective config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
