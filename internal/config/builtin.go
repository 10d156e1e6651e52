package config

import "github.com/1broseidon/docktile/internal/layout"

const (
	DefaultBuiltinLayout = "browse"
)

// BuiltinLayouts returns the built-in layout library.
//
// These are always available without defining them in YAML. A layout in the
// config file with the same name replaces the builtin.
func BuiltinLayouts() map[string]layout.Template {
	return map[string]layout.Template{
		"browse": {
			Split: layout.Horizontal,
			Children: []layout.Template{
				{Size: 25, Views: []string{"library", "albums", "tags"}},
				{Size: 75, Split: layout.Vertical, Children: []layout.Template{
					{Size: 70, Views: []string{"viewer"}},
					{Size: 30, Views: []string{"metadata", "activity"}},
				}},
			},
		},
		"focus": {
			Views: []string{"viewer", "library"},
		},
		"triage": {
			Split: layout.Horizontal,
			Children: []layout.Template{
				{Size: 40, Views: []string{"queue", "search"}},
				{Size: 60, Views: []string{"viewer", "metadata"}},
			},
		},
	}
}
