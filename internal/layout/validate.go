package layout

import (
	"errors"
	"fmt"
	"math"
)

// Validate checks every structural invariant of the tree and the group
// pointers. It returns all violations joined.
func (w *Workspace) Validate() error {
	v := validator{ids: make(map[string]struct{}), views: make(map[string]struct{})}
	if w.root != nil {
		v.node(w.root, nil)
	}
	if w.maximizedGroupID != "" && w.Group(w.maximizedGroupID) == nil {
		v.errs = append(v.errs, fmt.Errorf("maximized group %q not in tree", w.maximizedGroupID))
	}
	if w.activeGroupID != "" && w.Group(w.activeGroupID) == nil {
		v.errs = append(v.errs, fmt.Errorf("active group %q not in tree", w.activeGroupID))
	}
	if w.root != nil && w.activeGroupID == "" {
		v.errs = append(v.errs, errors.New("non-empty workspace has no active group"))
	}
	return errors.Join(v.errs...)
}

type validator struct {
	ids   map[string]struct{}
	views map[string]struct{}
	errs  []error
}

func (v *validator) fail(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) node(n Node, parent *SplitNode) {
	id := n.NodeID()
	if id == "" {
		v.fail("node without id")
	} else if _, dup := v.ids[id]; dup {
		v.fail("duplicate node id %q", id)
	}
	v.ids[id] = struct{}{}
	if wgt := n.Weight(); wgt <= 0 || math.IsNaN(wgt) || math.IsInf(wgt, 0) {
		v.fail("node %q: invalid size %v", id, wgt)
	}

	switch n := n.(type) {
	case *TabGroup:
		if len(n.Views) == 0 {
			v.fail("group %q has no views", id)
		}
		for _, ref := range n.Views {
			if _, dup := v.views[ref.ID]; dup {
				v.fail("view %q appears more than once", ref.ID)
			}
			v.views[ref.ID] = struct{}{}
		}
		if n.ActiveViewID != "" && !n.Contains(n.ActiveViewID) {
			v.fail("group %q: active view %q not in group", id, n.ActiveViewID)
		}
	case *SplitNode:
		if !n.Orientation.Valid() {
			v.fail("split %q: invalid orientation %q", id, n.Orientation)
		}
		if len(n.Children) < 2 {
			v.fail("split %q has %d children", id, len(n.Children))
		}
		if parent != nil && parent.Orientation == n.Orientation {
			v.fail("split %q repeats its parent's orientation %q", id, n.Orientation)
		}
		for _, c := range n.Children {
			if c == nil {
				v.fail("split %q has a nil child", id)
				continue
			}
			v.node(c, n)
		}
	}
}
