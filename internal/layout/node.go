package layout

// Orientation is the axis a SplitNode divides its space along.
type Orientation string

const (
	// Horizontal lays children out left to right.
	Horizontal Orientation = "horizontal"
	// Vertical lays children out top to bottom.
	Vertical Orientation = "vertical"
)

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical
}

// DefaultSize is the weight given to nodes that have none.
const DefaultSize = 50.0

// ViewRef points at an entry of the view registry. Identity is the ID.
type ViewRef struct {
	ID     string `json:"id"`
	Locked bool   `json:"locked,omitempty"`
}

// Node is either a *SplitNode or a *TabGroup.
type Node interface {
	NodeID() string
	Weight() float64
	IsLocked() bool
	setWeight(float64)
}

// TabGroup is a leaf holding an ordered set of view references.
type TabGroup struct {
	ID           string
	Views        []ViewRef
	ActiveViewID string
	Size         float64
	Locked       bool
}

func (g *TabGroup) NodeID() string      { return g.ID }
func (g *TabGroup) Weight() float64     { return g.Size }
func (g *TabGroup) IsLocked() bool      { return g.Locked }
func (g *TabGroup) setWeight(w float64) { g.Size = w }

// IndexOf returns the position of viewID in the group, or -1.
func (g *TabGroup) IndexOf(viewID string) int {
	for i, v := range g.Views {
		if v.ID == viewID {
			return i
		}
	}
	return -1
}

// Contains reports whether the group holds viewID.
func (g *TabGroup) Contains(viewID string) bool {
	return g.IndexOf(viewID) >= 0
}

// add appends the view and makes it active.
func (g *TabGroup) add(v ViewRef) {
	g.Views = append(g.Views, v)
	g.ActiveViewID = v.ID
}

// remove drops viewID from the group. When the active view goes away the
// tab that takes its slot becomes active, or the new last tab.
func (g *TabGroup) remove(viewID string) (ViewRef, bool) {
	idx := g.IndexOf(viewID)
	if idx < 0 {
		return ViewRef{}, false
	}
	ref := g.Views[idx]
	g.Views = append(g.Views[:idx], g.Views[idx+1:]...)
	if g.ActiveViewID == viewID {
		g.ActiveViewID = ""
		if len(g.Views) > 0 {
			next := idx
			if next >= len(g.Views) {
				next = len(g.Views) - 1
			}
			g.ActiveViewID = g.Views[next].ID
		}
	}
	return ref, true
}

// retain keeps only the views for which keep returns true, preserving order.
// It returns the number of views removed.
func (g *TabGroup) retain(keep func(i int, v ViewRef) bool) int {
	kept := g.Views[:0]
	removed := 0
	activeGone := false
	for i, v := range g.Views {
		if keep(i, v) {
			kept = append(kept, v)
			continue
		}
		removed++
		if v.ID == g.ActiveViewID {
			activeGone = true
		}
	}
	g.Views = kept
	if activeGone {
		g.ActiveViewID = ""
		if len(g.Views) > 0 {
			g.ActiveViewID = g.Views[len(g.Views)-1].ID
		}
	}
	return removed
}

// SplitNode divides its space among children along one orientation.
// The children's Size fields are the sibling weights.
type SplitNode struct {
	ID          string
	Orientation Orientation
	Children    []Node
	Size        float64
	Locked      bool
}

func (s *SplitNode) NodeID() string      { return s.ID }
func (s *SplitNode) Weight() float64     { return s.Size }
func (s *SplitNode) IsLocked() bool      { return s.Locked }
func (s *SplitNode) setWeight(w float64) { s.Size = w }

// Sizes returns the child weights aligned with Children.
func (s *SplitNode) Sizes() []float64 {
	out := make([]float64, len(s.Children))
	for i, c := range s.Children {
		out[i] = c.Weight()
	}
	return out
}

func (s *SplitNode) indexOf(id string) int {
	for i, c := range s.Children {
		if c.NodeID() == id {
			return i
		}
	}
	return -1
}

func (s *SplitNode) insert(idx int, n Node) {
	s.Children = append(s.Children, nil)
	copy(s.Children[idx+1:], s.Children[idx:])
	s.Children[idx] = n
}

func weightOf(n Node) float64 {
	if w := n.Weight(); w > 0 {
		return w
	}
	return DefaultSize
}

// walk visits n and its descendants depth first. Returning false from fn
// stops the walk.
func walk(n Node, fn func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	if s, ok := n.(*SplitNode); ok {
		for _, c := range s.Children {
			if !walk(c, fn) {
				return false
			}
		}
	}
	return true
}

// findParent returns the SplitNode holding id and the child index, or nil
// when id is the root or absent.
func findParent(n Node, id string) (*SplitNode, int) {
	s, ok := n.(*SplitNode)
	if !ok {
		return nil, -1
	}
	for i, c := range s.Children {
		if c.NodeID() == id {
			return s, i
		}
		if p, idx := findParent(c, id); p != nil {
			return p, idx
		}
	}
	return nil, -1
}
