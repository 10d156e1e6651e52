package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/registry"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawDragConfig struct {
	EdgeBand *float64 `yaml:"edge_band"`
}

type RawStorageConfig struct {
	Backend    *string `yaml:"backend"`
	Path       *string `yaml:"path"`
	Key        *string `yaml:"key"`
	Codec      *string `yaml:"codec"`
	DebounceMS *int    `yaml:"debounce_ms"`
}

type RawMCPConfig struct {
	Name *string `yaml:"name"`
}

// RawConfig is one config file as written. Nil fields were not set.
type RawConfig struct {
	Include       IncludeList                `yaml:"include"`
	LogLevel      *string                    `yaml:"log_level"`
	DefaultLayout *string                    `yaml:"default_layout"`
	Layouts       map[string]layout.Template `yaml:"layouts"`
	Views         []registry.Descriptor      `yaml:"views"`
	Drag          *RawDragConfig             `yaml:"drag"`
	Storage       *RawStorageConfig          `yaml:"storage"`
	MCP           *RawMCPConfig              `yaml:"mcp"`
}

// merge applies overlay on top of c. Layouts replace by name, views
// replace by id and otherwise append.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.DefaultLayout != nil {
		out.DefaultLayout = overlay.DefaultLayout
	}
	if overlay.Layouts != nil {
		merged := make(map[string]layout.Template, len(c.Layouts)+len(overlay.Layouts))
		for name, l := range c.Layouts {
			merged[name] = l
		}
		for name, l := range overlay.Layouts {
			merged[name] = l
		}
		out.Layouts = merged
	}
	if overlay.Views != nil {
		out.Views = mergeViews(c.Views, overlay.Views)
	}
	if overlay.Drag != nil {
		d := RawDragConfig{}
		if c.Drag != nil {
			d = *c.Drag
		}
		if overlay.Drag.EdgeBand != nil {
			d.EdgeBand = overlay.Drag.EdgeBand
		}
		out.Drag = &d
	}
	if overlay.Storage != nil {
		s := RawStorageConfig{}
		if c.Storage != nil {
			s = *c.Storage
		}
		s = mergeRawStorage(s, *overlay.Storage)
		out.Storage = &s
	}
	if overlay.MCP != nil {
		m := RawMCPConfig{}
		if c.MCP != nil {
			m = *c.MCP
		}
		if overlay.MCP.Name != nil {
			m.Name = overlay.MCP.Name
		}
		out.MCP = &m
	}
	return out
}

func mergeRawStorage(base RawStorageConfig, overlay RawStorageConfig) RawStorageConfig {
	out := base
	if overlay.Backend != nil {
		out.Backend = overlay.Backend
	}
	if overlay.Path != nil {
		out.Path = overlay.Path
	}
	if overlay.Key != nil {
		out.Key = overlay.Key
	}
	if overlay.Codec != nil {
		out.Codec = overlay.Codec
	}
	if overlay.DebounceMS != nil {
		out.DebounceMS = overlay.DebounceMS
	}
	return out
}

func mergeViews(base, overlay []registry.Descriptor) []registry.Descriptor {
	out := make([]registry.Descriptor, 0, len(base)+len(overlay))
	index := make(map[string]int, len(base)+len(overlay))
	for _, list := range [][]registry.Descriptor{base, overlay} {
		for _, v := range list {
			if i, ok := index[v.ID]; ok {
				out[i] = v
				continue
			}
			index[v.ID] = len(out)
			out = append(out, v)
		}
	}
	return out
}
