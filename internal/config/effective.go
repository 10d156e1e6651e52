package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw on top of DefaultConfig. The returned
// map names, for every layout, the builtin it came from ("" when the
// layout is defined or replaced in a file).
func BuildEffectiveConfig(raw RawConfig) (*Config, map[string]string, error) {
	cfg := DefaultConfig()
	bases := make(map[string]string, len(cfg.Layouts))
	for name := range cfg.Layouts {
		bases[name] = name
	}

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.DefaultLayout != nil {
		cfg.DefaultLayout = *raw.DefaultLayout
	}
	for _, name := range sortedKeys(raw.Layouts) {
		if name == "" {
			return nil, nil, &ValidationError{Path: "layouts", Err: fmt.Errorf("layout name must not be empty")}
		}
		cfg.Layouts[name] = raw.Layouts[name]
		bases[name] = ""
	}
	if raw.Views != nil {
		cfg.Views = mergeViews(cfg.Views, raw.Views)
	}
	if raw.Drag != nil && raw.Drag.EdgeBand != nil {
		cfg.Drag.EdgeBand = *raw.Drag.EdgeBand
	}
	if raw.Storage != nil {
		s := raw.Storage
		if s.Backend != nil {
			cfg.Storage.Backend = *s.Backend
		}
		if s.Path != nil {
			cfg.Storage.Path = *s.Path
		}
		if s.Key != nil {
			cfg.Storage.Key = *s.Key
		}
		if s.Codec != nil {
			cfg.Storage.Codec = *s.Codec
		}
		if s.DebounceMS != nil {
			cfg.Storage.DebounceMS = *s.DebounceMS
		}
	}
	if raw.MCP != nil && raw.MCP.Name != nil {
		cfg.MCP.Name = *raw.MCP.Name
	}
	return cfg, bases, nil
}
