package layout

import (
	"fmt"
)

// Template describes a layout in configuration. A template with Split set
// is a split node; otherwise it is a group holding Views.
type Template struct {
	ID          string      `yaml:"id,omitempty" json:"id,omitempty"`
	Split       Orientation `yaml:"split,omitempty" json:"split,omitempty"`
	Size        float64     `yaml:"size,omitempty" json:"size,omitempty"`
	Locked      bool        `yaml:"locked,omitempty" json:"locked,omitempty"`
	Children    []Template  `yaml:"children,omitempty" json:"children,omitempty"`
	Views       []string    `yaml:"views,omitempty" json:"views,omitempty"`
	Active      string      `yaml:"active,omitempty" json:"active,omitempty"`
	LockedViews []string    `yaml:"locked_views,omitempty" json:"locked_views,omitempty"`
}

// Validate checks the template without building it. known, when non-nil,
// reports whether a view id exists.
func (t Template) Validate(known func(string) bool) error {
	return t.validate("layout", known, make(map[string]struct{}))
}

func (t Template) validate(path string, known func(string) bool, seen map[string]struct{}) error {
	if t.Size < 0 || t.Size > 100 {
		return fmt.Errorf("%s.size: %v out of range 0-100", path, t.Size)
	}
	if t.Split != "" {
		if !t.Split.Valid() {
			return fmt.Errorf("%s.split: must be %q or %q", path, Horizontal, Vertical)
		}
		if len(t.Views) > 0 {
			return fmt.Errorf("%s: a split cannot list views", path)
		}
		if len(t.Children) < 2 {
			return fmt.Errorf("%s.children: a split needs at least 2 children", path)
		}
		for i, c := range t.Children {
			if c.Split == t.Split {
				return fmt.Errorf("%s.children[%d]: nested split repeats orientation %q", path, i, t.Split)
			}
			if err := c.validate(fmt.Sprintf("%s.children[%d]", path, i), known, seen); err != nil {
				return err
			}
		}
		return nil
	}
	if len(t.Children) > 0 {
		return fmt.Errorf("%s: children require split", path)
	}
	if len(t.Views) == 0 {
		return fmt.Errorf("%s.views: a group needs at least one view", path)
	}
	for _, id := range t.Views {
		if id == "" {
			return fmt.Errorf("%s.views: empty view id", path)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%s.views: view %q used twice", path, id)
		}
		seen[id] = struct{}{}
		if known != nil && !known(id) {
			return fmt.Errorf("%s.views: unknown view %q", path, id)
		}
	}
	if t.Active != "" && !contains(t.Views, t.Active) {
		return fmt.Errorf("%s.active: %q is not one of the group's views", path, t.Active)
	}
	for _, id := range t.LockedViews {
		if !contains(t.Views, id) {
			return fmt.Errorf("%s.locked_views: %q is not one of the group's views", path, id)
		}
	}
	return nil
}

// Build turns the template into a tree. Nodes without an ID get one from
// newID.
func (t Template) Build(newID func() string) (Node, error) {
	if err := t.Validate(nil); err != nil {
		return nil, err
	}
	return t.build(newID), nil
}

func (t Template) build(newID func() string) Node {
	id := t.ID
	if id == "" {
		id = newID()
	}
	size := t.Size
	if size == 0 {
		size = DefaultSize
	}
	if t.Split != "" {
		s := &SplitNode{ID: id, Orientation: t.Split, Size: size, Locked: t.Locked}
		for _, c := range t.Children {
			s.Children = append(s.Children, c.build(newID))
		}
		return s
	}
	g := &TabGroup{ID: id, Size: size, Locked: t.Locked}
	for _, v := range t.Views {
		g.Views = append(g.Views, ViewRef{ID: v, Locked: contains(t.LockedViews, v)})
	}
	g.ActiveViewID = t.Active
	if g.ActiveViewID == "" {
		g.ActiveViewID = t.Views[0]
	}
	return g
}

// ViewIDs lists every view the template references in order.
func (t Template) ViewIDs() []string {
	var out []string
	out = append(out, t.Views...)
	for _, c := range t.Children {
		out = append(out, c.ViewIDs()...)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
