package layout

import (
	"errors"
	"fmt"
)

// SnapshotVersion is the current snapshot format.
const SnapshotVersion = 1

// Node kinds in a snapshot.
const (
	KindSplit = "split"
	KindGroup = "group"
)

// Snapshot is the serializable form of a Workspace. Views are stored by id
// only.
type Snapshot struct {
	Version          int           `json:"version"`
	Root             *NodeSnapshot `json:"root,omitempty"`
	MaximizedGroupID string        `json:"maximizedGroupId,omitempty"`
	ActiveGroupID    string        `json:"activeGroupId,omitempty"`
	Locked           bool          `json:"locked,omitempty"`
}

// NodeSnapshot captures one node. Children is set for splits, Views and
// ActiveViewID for groups.
type NodeSnapshot struct {
	Kind         string          `json:"kind"`
	ID           string          `json:"id"`
	Orientation  Orientation     `json:"orientation,omitempty"`
	Size         float64         `json:"size"`
	Locked       bool            `json:"locked,omitempty"`
	Children     []*NodeSnapshot `json:"children,omitempty"`
	Views        []ViewRef       `json:"views,omitempty"`
	ActiveViewID string          `json:"activeViewId,omitempty"`
}

// Snapshot captures the current state.
func (w *Workspace) Snapshot() Snapshot {
	return Snapshot{
		Version:          SnapshotVersion,
		Root:             captureNode(w.root),
		MaximizedGroupID: w.maximizedGroupID,
		ActiveGroupID:    w.activeGroupID,
		Locked:           w.locked,
	}
}

func captureNode(n Node) *NodeSnapshot {
	switch n := n.(type) {
	case *TabGroup:
		views := make([]ViewRef, len(n.Views))
		copy(views, n.Views)
		return &NodeSnapshot{
			Kind:         KindGroup,
			ID:           n.ID,
			Size:         n.Size,
			Locked:       n.Locked,
			Views:        views,
			ActiveViewID: n.ActiveViewID,
		}
	case *SplitNode:
		kids := make([]*NodeSnapshot, 0, len(n.Children))
		for _, c := range n.Children {
			kids = append(kids, captureNode(c))
		}
		return &NodeSnapshot{
			Kind:        KindSplit,
			ID:          n.ID,
			Orientation: n.Orientation,
			Size:        n.Size,
			Locked:      n.Locked,
			Children:    kids,
		}
	}
	return nil
}

// Restore rebuilds a Workspace from snap. Views for which known returns
// false are dropped and groups left empty are pruned; the number of dropped
// views is returned. A nil known keeps every view. Structural damage such
// as unknown node kinds or duplicate ids is an error.
func Restore(snap Snapshot, known func(string) bool, opts ...Option) (*Workspace, int, error) {
	if snap.Version > SnapshotVersion {
		return nil, 0, fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, SnapshotVersion)
	}
	r := restorer{known: known, ids: make(map[string]struct{}), views: make(map[string]struct{})}
	var root Node
	if snap.Root != nil {
		n, err := r.node(snap.Root, "root")
		if err != nil {
			return nil, 0, err
		}
		root = n
	}
	w := New(root, opts...)
	w.locked = snap.Locked
	if w.Group(snap.MaximizedGroupID) != nil {
		w.maximizedGroupID = snap.MaximizedGroupID
	}
	if w.Group(snap.ActiveGroupID) != nil {
		w.activeGroupID = snap.ActiveGroupID
	}
	return w, r.dropped, nil
}

type restorer struct {
	known   func(string) bool
	ids     map[string]struct{}
	views   map[string]struct{}
	dropped int
}

func (r *restorer) node(s *NodeSnapshot, path string) (Node, error) {
	if s == nil {
		return nil, fmt.Errorf("%s: nil node", path)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%s: missing id", path)
	}
	if _, dup := r.ids[s.ID]; dup {
		return nil, fmt.Errorf("%s: duplicate node id %q", path, s.ID)
	}
	r.ids[s.ID] = struct{}{}

	switch s.Kind {
	case KindGroup:
		g := &TabGroup{ID: s.ID, Size: s.Size, Locked: s.Locked}
		for _, v := range s.Views {
			if v.ID == "" {
				return nil, fmt.Errorf("%s: view with empty id", path)
			}
			if _, dup := r.views[v.ID]; dup {
				return nil, fmt.Errorf("%s: view %q appears twice", path, v.ID)
			}
			r.views[v.ID] = struct{}{}
			if r.known != nil && !r.known(v.ID) {
				r.dropped++
				continue
			}
			g.Views = append(g.Views, v)
		}
		if g.Contains(s.ActiveViewID) {
			g.ActiveViewID = s.ActiveViewID
		} else if len(g.Views) > 0 {
			g.ActiveViewID = g.Views[0].ID
		}
		return g, nil
	case KindSplit:
		if !s.Orientation.Valid() {
			return nil, fmt.Errorf("%s: invalid orientation %q", path, s.Orientation)
		}
		sp := &SplitNode{ID: s.ID, Orientation: s.Orientation, Size: s.Size, Locked: s.Locked}
		for i, c := range s.Children {
			n, err := r.node(c, fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			sp.Children = append(sp.Children, n)
		}
		return sp, nil
	case "":
		return nil, fmt.Errorf("%s: %w", path, errMissingKind)
	}
	return nil, fmt.Errorf("%s: unknown node kind %q", path, s.Kind)
}

var errMissingKind = errors.New("missing node kind")
