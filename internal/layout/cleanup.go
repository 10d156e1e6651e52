package layout

// normalize restores the structural invariants below n in one bottom-up
// pass and returns the node that should take n's place, or nil when the
// whole branch emptied out.
//
//   - groups without views are dropped and their weight goes to the
//     surviving siblings pro-rata
//   - a split left with one child is replaced by that child, which inherits
//     the split's weight
//   - a child split sharing its parent's orientation is spliced into the
//     parent with its children rescaled to the child's weight
func normalize(n Node) Node {
	switch n := n.(type) {
	case *TabGroup:
		if len(n.Views) == 0 {
			return nil
		}
		return n
	case *SplitNode:
		var total float64
		kids := make([]Node, 0, len(n.Children))
		for _, child := range n.Children {
			w := weightOf(child)
			total += w
			r := normalize(child)
			if r == nil {
				continue
			}
			if r != child {
				r.setWeight(w)
			}
			if s, ok := r.(*SplitNode); ok && s.Orientation == n.Orientation {
				kids = append(kids, flatten(s, w)...)
				continue
			}
			kids = append(kids, r)
		}
		redistribute(kids, total)
		n.Children = kids
		switch len(kids) {
		case 0:
			return nil
		case 1:
			return kids[0]
		}
		return n
	}
	return n
}

// flatten returns s's children rescaled so their weights sum to w.
func flatten(s *SplitNode, w float64) []Node {
	var sum float64
	for _, c := range s.Children {
		sum += weightOf(c)
	}
	for _, c := range s.Children {
		if sum > 0 {
			c.setWeight(weightOf(c) * w / sum)
		} else {
			c.setWeight(w / float64(len(s.Children)))
		}
	}
	return s.Children
}

// redistribute scales kids so their weights sum to total again.
func redistribute(kids []Node, total float64) {
	if len(kids) == 0 {
		return
	}
	var remaining float64
	for _, c := range kids {
		remaining += weightOf(c)
	}
	if remaining == total {
		// Unset weights become explicit defaults.
		for _, c := range kids {
			c.setWeight(weightOf(c))
		}
		return
	}
	for _, c := range kids {
		c.setWeight(weightOf(c) * total / remaining)
	}
}
