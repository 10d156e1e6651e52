package layout

// Rect is an axis-aligned box in screen space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether (x, y) falls inside r. The right and bottom
// edges are exclusive so adjacent boxes never both claim a point.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Layout computes the box of every visible group inside bounds. Sibling
// weights are normalized along the split axis. While a group is maximized
// it alone is returned, covering bounds.
func (w *Workspace) Layout(bounds Rect) map[string]Rect {
	out := make(map[string]Rect)
	if w.root == nil {
		return out
	}
	if g := w.Group(w.maximizedGroupID); g != nil {
		out[g.ID] = bounds
		return out
	}
	layoutNode(w.root, bounds, out)
	return out
}

func layoutNode(n Node, r Rect, out map[string]Rect) {
	switch n := n.(type) {
	case *TabGroup:
		out[n.ID] = r
	case *SplitNode:
		var total float64
		for _, c := range n.Children {
			total += weightOf(c)
		}
		if total <= 0 {
			return
		}
		offset := 0.0
		for i, c := range n.Children {
			frac := weightOf(c) / total
			child := r
			if n.Orientation == Horizontal {
				child.X = r.X + offset
				child.Width = r.Width * frac
				// last child absorbs rounding drift
				if i == len(n.Children)-1 {
					child.Width = r.X + r.Width - child.X
				}
				offset += child.Width
			} else {
				child.Y = r.Y + offset
				child.Height = r.Height * frac
				if i == len(n.Children)-1 {
					child.Height = r.Y + r.Height - child.Y
				}
				offset += child.Height
			}
			layoutNode(c, child, out)
		}
	}
}

// GroupAt returns the id of the group whose box contains (x, y), or "".
func GroupAt(boxes map[string]Rect, x, y float64) string {
	for id, r := range boxes {
		if r.Contains(x, y) {
			return id
		}
	}
	return ""
}
