package layout

import (
	"math"

	"github.com/google/uuid"
)

// Position is where a view lands relative to a target group.
type Position string

const (
	Left   Position = "left"
	Right  Position = "right"
	Top    Position = "top"
	Bottom Position = "bottom"
	Center Position = "center"
)

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	switch p {
	case Left, Right, Top, Bottom, Center:
		return true
	}
	return false
}

// split returns the orientation induced by p and whether the new group goes
// before the target.
func (p Position) split() (Orientation, bool, bool) {
	switch p {
	case Left:
		return Horizontal, true, true
	case Right:
		return Horizontal, false, true
	case Top:
		return Vertical, true, true
	case Bottom:
		return Vertical, false, true
	}
	return "", false, false
}

// Op names a workspace operation in events.
type Op string

const (
	OpOpen        Op = "open"
	OpActivate    Op = "activate"
	OpSplit       Op = "split"
	OpMove        Op = "move"
	OpClose       Op = "close"
	OpCloseOthers Op = "close-others"
	OpCloseRight  Op = "close-right"
	OpCloseAll    Op = "close-all"
	OpMaximize    Op = "maximize"
	OpLockTab     Op = "lock-tab"
	OpLockGroup   Op = "lock-group"
	OpLockLayout  Op = "lock-layout"
	OpResize      Op = "resize"
	OpReset       Op = "reset"
)

// Event is delivered to subscribers after every operation.
type Event struct {
	Op      Op
	Applied bool
}

// Workspace owns the layout tree and is the only way to mutate it.
// It is not safe for concurrent use; hosts serialize access.
type Workspace struct {
	root             Node
	maximizedGroupID string
	activeGroupID    string
	locked           bool

	newID       func() string
	subscribers map[int]func(Event)
	nextSub     int
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithIDGenerator replaces the uuid generator used for new nodes.
func WithIDGenerator(fn func() string) Option {
	return func(w *Workspace) {
		if fn != nil {
			w.newID = fn
		}
	}
}

// New creates a workspace owning root. The tree is normalized first.
func New(root Node, opts ...Option) *Workspace {
	w := &Workspace{
		root:        root,
		newID:       uuid.NewString,
		subscribers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.cleanup()
	return w
}

// Root returns the root node, nil for an empty workspace.
func (w *Workspace) Root() Node { return w.root }

// MaximizedGroupID returns the maximized group, or "".
func (w *Workspace) MaximizedGroupID() string { return w.maximizedGroupID }

// ActiveGroupID returns the group that last received focus, or "".
func (w *Workspace) ActiveGroupID() string { return w.activeGroupID }

// Locked reports whether the layout lock is on.
func (w *Workspace) Locked() bool { return w.locked }

// Subscribe registers fn for events and returns a function removing it.
func (w *Workspace) Subscribe(fn func(Event)) func() {
	id := w.nextSub
	w.nextSub++
	w.subscribers[id] = fn
	return func() { delete(w.subscribers, id) }
}

func (w *Workspace) finish(op Op, applied bool) bool {
	for _, fn := range w.subscribers {
		fn(Event{Op: op, Applied: applied})
	}
	return applied
}

// FindNode returns the node with the given id, or nil.
func (w *Workspace) FindNode(id string) Node {
	if id == "" {
		return nil
	}
	var found Node
	walk(w.root, func(n Node) bool {
		if n.NodeID() == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Group returns the TabGroup with the given id, or nil.
func (w *Workspace) Group(id string) *TabGroup {
	g, _ := w.FindNode(id).(*TabGroup)
	return g
}

// Groups returns every group in depth-first order.
func (w *Workspace) Groups() []*TabGroup {
	var out []*TabGroup
	walk(w.root, func(n Node) bool {
		if g, ok := n.(*TabGroup); ok {
			out = append(out, g)
		}
		return true
	})
	return out
}

// GroupOf returns the group holding viewID, or nil.
func (w *Workspace) GroupOf(viewID string) *TabGroup {
	if viewID == "" {
		return nil
	}
	for _, g := range w.Groups() {
		if g.Contains(viewID) {
			return g
		}
	}
	return nil
}

// View returns the reference for viewID and whether it is in the tree.
func (w *Workspace) View(viewID string) (ViewRef, bool) {
	g := w.GroupOf(viewID)
	if g == nil {
		return ViewRef{}, false
	}
	return g.Views[g.IndexOf(viewID)], true
}

// OpenView adds view to groupID, or to the active group when groupID is
// empty. An empty workspace gets a new root group. A view already in the
// tree is activated instead.
func (w *Workspace) OpenView(view ViewRef, groupID string) bool {
	if w.locked || view.ID == "" {
		return w.finish(OpOpen, false)
	}
	if g := w.GroupOf(view.ID); g != nil {
		g.ActiveViewID = view.ID
		w.activeGroupID = g.ID
		return w.finish(OpOpen, true)
	}
	if w.root == nil {
		g := &TabGroup{ID: w.newID(), Size: DefaultSize}
		g.add(view)
		w.root = g
		w.activeGroupID = g.ID
		return w.finish(OpOpen, true)
	}
	if groupID == "" {
		groupID = w.activeGroupID
	}
	target := w.Group(groupID)
	if target == nil {
		if groupID != "" && groupID != w.activeGroupID {
			return w.finish(OpOpen, false)
		}
		target = w.Groups()[0]
	}
	target.add(view)
	w.activeGroupID = target.ID
	return w.finish(OpOpen, true)
}

// ActivateTab makes viewID the active tab of its group and focuses the group.
func (w *Workspace) ActivateTab(viewID string) bool {
	g := w.GroupOf(viewID)
	if g == nil {
		return w.finish(OpActivate, false)
	}
	g.ActiveViewID = viewID
	w.activeGroupID = g.ID
	return w.finish(OpActivate, true)
}

// CanSplit reports whether SplitGroup(targetGroupID, view, pos) would apply.
func (w *Workspace) CanSplit(targetGroupID, viewID string, pos Position) bool {
	if w.locked || viewID == "" || !pos.Valid() {
		return false
	}
	target := w.Group(targetGroupID)
	if target == nil {
		return false
	}
	src := w.GroupOf(viewID)
	if pos == Center {
		if src == nil {
			return true
		}
		return src != target && !src.Locked
	}
	if src == nil {
		return true
	}
	if src.Locked {
		return false
	}
	return !(src == target && len(target.Views) == 1)
}

// SplitGroup places view beside the target group on the given side, or
// inside it for Center. The view leaves its current group first.
func (w *Workspace) SplitGroup(targetGroupID string, view ViewRef, pos Position) bool {
	if !w.CanSplit(targetGroupID, view.ID, pos) {
		return w.finish(OpSplit, false)
	}
	target := w.Group(targetGroupID)
	if src := w.GroupOf(view.ID); src != nil {
		view, _ = src.remove(view.ID)
	}
	if pos == Center {
		target.add(view)
		w.activeGroupID = target.ID
		w.cleanup()
		return w.finish(OpSplit, true)
	}

	orient, before, _ := pos.split()
	group := &TabGroup{ID: w.newID()}
	group.add(view)

	parent, idx := findParent(w.root, target.ID)
	if parent != nil && parent.Orientation == orient {
		half := weightOf(target) / 2
		target.Size = half
		group.Size = half
		if !before {
			idx++
		}
		parent.insert(idx, group)
	} else {
		wrapper := &SplitNode{
			ID:          w.newID(),
			Orientation: orient,
			Size:        weightOf(target),
		}
		target.Size = DefaultSize
		group.Size = DefaultSize
		if before {
			wrapper.Children = []Node{group, target}
		} else {
			wrapper.Children = []Node{target, group}
		}
		if parent == nil {
			w.root = wrapper
		} else {
			parent.Children[idx] = wrapper
		}
	}
	w.activeGroupID = group.ID
	w.cleanup()
	return w.finish(OpSplit, true)
}

// CanMove reports whether MoveTab(viewID, targetGroupID) would apply.
func (w *Workspace) CanMove(viewID, targetGroupID string) bool {
	if w.locked {
		return false
	}
	target := w.Group(targetGroupID)
	src := w.GroupOf(viewID)
	return target != nil && src != nil && src != target && !src.Locked
}

// MoveTab moves viewID to the end of the target group and activates it.
func (w *Workspace) MoveTab(viewID, targetGroupID string) bool {
	if !w.CanMove(viewID, targetGroupID) {
		return w.finish(OpMove, false)
	}
	src := w.GroupOf(viewID)
	target := w.Group(targetGroupID)
	ref, _ := src.remove(viewID)
	target.add(ref)
	w.activeGroupID = target.ID
	w.cleanup()
	return w.finish(OpMove, true)
}

// CanCloseTab reports whether CloseTab(viewID) would apply.
func (w *Workspace) CanCloseTab(viewID string) bool {
	if w.locked {
		return false
	}
	g := w.GroupOf(viewID)
	if g == nil || g.Locked {
		return false
	}
	return !g.Views[g.IndexOf(viewID)].Locked
}

// CloseTab removes an unlocked view from its group.
func (w *Workspace) CloseTab(viewID string) bool {
	if !w.CanCloseTab(viewID) {
		return w.finish(OpClose, false)
	}
	w.GroupOf(viewID).remove(viewID)
	w.cleanup()
	return w.finish(OpClose, true)
}

func (w *Workspace) closeWhere(op Op, viewID string, drop func(i, pivot int, v ViewRef) bool) bool {
	g := w.GroupOf(viewID)
	if w.locked || g == nil || g.Locked {
		return w.finish(op, false)
	}
	pivot := g.IndexOf(viewID)
	removed := g.retain(func(i int, v ViewRef) bool {
		return v.Locked || !drop(i, pivot, v)
	})
	if removed == 0 {
		return w.finish(op, false)
	}
	w.cleanup()
	return w.finish(op, true)
}

func (w *Workspace) countWhere(viewID string, drop func(i, pivot int, v ViewRef) bool) int {
	g := w.GroupOf(viewID)
	if w.locked || g == nil || g.Locked {
		return 0
	}
	pivot := g.IndexOf(viewID)
	n := 0
	for i, v := range g.Views {
		if !v.Locked && drop(i, pivot, v) {
			n++
		}
	}
	return n
}

func othersOf(i, pivot int, _ ViewRef) bool { return i != pivot }
func rightOf(i, pivot int, _ ViewRef) bool  { return i > pivot }
func everyView(_, _ int, _ ViewRef) bool    { return true }

// CanCloseOtherTabs reports whether CloseOtherTabs(viewID) would remove anything.
func (w *Workspace) CanCloseOtherTabs(viewID string) bool {
	return w.countWhere(viewID, othersOf) > 0
}

// CloseOtherTabs removes every unlocked view of viewID's group except viewID.
func (w *Workspace) CloseOtherTabs(viewID string) bool {
	return w.closeWhere(OpCloseOthers, viewID, othersOf)
}

// CanCloseTabsToRight reports whether CloseTabsToRight(viewID) would remove anything.
func (w *Workspace) CanCloseTabsToRight(viewID string) bool {
	return w.countWhere(viewID, rightOf) > 0
}

// CloseTabsToRight removes the unlocked views right of viewID.
func (w *Workspace) CloseTabsToRight(viewID string) bool {
	return w.closeWhere(OpCloseRight, viewID, rightOf)
}

// CanCloseAllTabs reports whether CloseAllTabs(groupID) would remove anything.
func (w *Workspace) CanCloseAllTabs(groupID string) bool {
	g := w.Group(groupID)
	if g == nil || len(g.Views) == 0 {
		return false
	}
	return w.countWhere(g.Views[0].ID, everyView) > 0
}

// CloseAllTabs removes every unlocked view of the group. A locked group
// rejects the whole operation.
func (w *Workspace) CloseAllTabs(groupID string) bool {
	g := w.Group(groupID)
	if g == nil || len(g.Views) == 0 {
		return w.finish(OpCloseAll, false)
	}
	return w.closeWhere(OpCloseAll, g.Views[0].ID, everyView)
}

// ToggleMaximize marks groupID as maximized, or clears the flag when it
// already is. An empty id clears any maximized group.
func (w *Workspace) ToggleMaximize(groupID string) bool {
	switch {
	case groupID == "" && w.maximizedGroupID != "":
		w.maximizedGroupID = ""
	case groupID == "":
		return w.finish(OpMaximize, false)
	case w.maximizedGroupID == groupID:
		w.maximizedGroupID = ""
	case w.Group(groupID) != nil:
		w.maximizedGroupID = groupID
	default:
		return w.finish(OpMaximize, false)
	}
	return w.finish(OpMaximize, true)
}

// ToggleTabLock flips the lock flag of viewID.
func (w *Workspace) ToggleTabLock(viewID string) bool {
	g := w.GroupOf(viewID)
	if g == nil {
		return w.finish(OpLockTab, false)
	}
	i := g.IndexOf(viewID)
	g.Views[i].Locked = !g.Views[i].Locked
	return w.finish(OpLockTab, true)
}

// ToggleGroupLock flips the lock flag of a group or split.
func (w *Workspace) ToggleGroupLock(nodeID string) bool {
	switch n := w.FindNode(nodeID).(type) {
	case *TabGroup:
		n.Locked = !n.Locked
	case *SplitNode:
		n.Locked = !n.Locked
	default:
		return w.finish(OpLockGroup, false)
	}
	return w.finish(OpLockGroup, true)
}

// ToggleLock flips the layout-wide lock. While set, every structural
// operation is rejected.
func (w *Workspace) ToggleLock() bool {
	w.locked = !w.locked
	return w.finish(OpLockLayout, true)
}

// ResizeSplit replaces the child weights of a split.
func (w *Workspace) ResizeSplit(splitID string, sizes []float64) bool {
	s, ok := w.FindNode(splitID).(*SplitNode)
	if !ok || w.locked || s.Locked || len(sizes) != len(s.Children) {
		return w.finish(OpResize, false)
	}
	for _, v := range sizes {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return w.finish(OpResize, false)
		}
	}
	for i, c := range s.Children {
		c.setWeight(sizes[i])
	}
	return w.finish(OpResize, true)
}

// Reset replaces the whole tree, clearing the maximized group.
func (w *Workspace) Reset(root Node) bool {
	if w.locked {
		return w.finish(OpReset, false)
	}
	w.root = root
	w.maximizedGroupID = ""
	w.activeGroupID = ""
	w.cleanup()
	return w.finish(OpReset, true)
}

// cleanup runs the structural pass and repairs the group pointers.
func (w *Workspace) cleanup() {
	if w.root != nil {
		w.root = normalize(w.root)
	}
	if w.maximizedGroupID != "" && w.Group(w.maximizedGroupID) == nil {
		w.maximizedGroupID = ""
	}
	if w.activeGroupID == "" || w.Group(w.activeGroupID) == nil {
		w.activeGroupID = ""
		if groups := w.Groups(); len(groups) > 0 {
			w.activeGroupID = groups[0].ID
		}
	}
}
