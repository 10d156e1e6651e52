package layout

// Menu action identifiers. Each maps to exactly one Workspace operation.
const (
	ActionCloseTab        = "tab.close"
	ActionCloseOthers     = "tab.close-others"
	ActionCloseRight      = "tab.close-right"
	ActionToggleTabLock   = "tab.lock"
	ActionSplitRight      = "tab.split-right"
	ActionSplitDown       = "tab.split-down"
	ActionCloseAll        = "group.close-all"
	ActionMaximize        = "group.maximize"
	ActionToggleGroupLock = "group.lock"
	ActionToggleLayout    = "layout.lock"
	ActionResetLayout     = "layout.reset"
)

// MenuItem is one entry of a context menu. Target is the view or group the
// action applies to.
type MenuItem struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Action   string `json:"action"`
	Target   string `json:"target,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	Danger   bool   `json:"danger,omitempty"`
}

// TabMenu returns the context menu of a tab. Nil when the view is not in
// the tree.
func (w *Workspace) TabMenu(viewID string) []MenuItem {
	g := w.GroupOf(viewID)
	if g == nil {
		return nil
	}
	ref := g.Views[g.IndexOf(viewID)]
	lockLabel := "Lock tab"
	if ref.Locked {
		lockLabel = "Unlock tab"
	}
	return []MenuItem{
		{ID: "close", Label: "Close", Action: ActionCloseTab, Target: viewID, Disabled: !w.CanCloseTab(viewID)},
		{ID: "close-others", Label: "Close others", Action: ActionCloseOthers, Target: viewID, Disabled: !w.CanCloseOtherTabs(viewID), Danger: true},
		{ID: "close-right", Label: "Close to the right", Action: ActionCloseRight, Target: viewID, Disabled: !w.CanCloseTabsToRight(viewID), Danger: true},
		{ID: "split-right", Label: "Split right", Action: ActionSplitRight, Target: viewID, Disabled: !w.CanSplit(g.ID, viewID, Right)},
		{ID: "split-down", Label: "Split down", Action: ActionSplitDown, Target: viewID, Disabled: !w.CanSplit(g.ID, viewID, Bottom)},
		{ID: "lock", Label: lockLabel, Action: ActionToggleTabLock, Target: viewID},
	}
}

// GroupMenu returns the context menu of a group. Nil for unknown groups.
func (w *Workspace) GroupMenu(groupID string) []MenuItem {
	g := w.Group(groupID)
	if g == nil {
		return nil
	}
	maxLabel := "Maximize"
	if w.maximizedGroupID == groupID {
		maxLabel = "Restore"
	}
	lockLabel := "Lock group"
	if g.Locked {
		lockLabel = "Unlock group"
	}
	return []MenuItem{
		{ID: "maximize", Label: maxLabel, Action: ActionMaximize, Target: groupID},
		{ID: "lock", Label: lockLabel, Action: ActionToggleGroupLock, Target: groupID},
		{ID: "close-all", Label: "Close all", Action: ActionCloseAll, Target: groupID, Disabled: !w.CanCloseAllTabs(groupID), Danger: true},
	}
}

// LayoutMenu returns the workspace-level menu.
func (w *Workspace) LayoutMenu() []MenuItem {
	lockLabel := "Lock layout"
	if w.locked {
		lockLabel = "Unlock layout"
	}
	return []MenuItem{
		{ID: "lock", Label: lockLabel, Action: ActionToggleLayout},
		{ID: "reset", Label: "Reset layout", Action: ActionResetLayout, Disabled: w.locked, Danger: true},
	}
}

// Invoke runs the operation behind a menu action. reset supplies the tree
// for ActionResetLayout and may be nil otherwise. Unknown actions are not
// applied.
func (w *Workspace) Invoke(action, target string, reset func() Node) bool {
	switch action {
	case ActionCloseTab:
		return w.CloseTab(target)
	case ActionCloseOthers:
		return w.CloseOtherTabs(target)
	case ActionCloseRight:
		return w.CloseTabsToRight(target)
	case ActionToggleTabLock:
		return w.ToggleTabLock(target)
	case ActionSplitRight, ActionSplitDown:
		g := w.GroupOf(target)
		if g == nil {
			return false
		}
		pos := Right
		if action == ActionSplitDown {
			pos = Bottom
		}
		return w.SplitGroup(g.ID, ViewRef{ID: target}, pos)
	case ActionCloseAll:
		return w.CloseAllTabs(target)
	case ActionMaximize:
		return w.ToggleMaximize(target)
	case ActionToggleGroupLock:
		return w.ToggleGroupLock(target)
	case ActionToggleLayout:
		return w.ToggleLock()
	case ActionResetLayout:
		if reset == nil {
			return false
		}
		return w.Reset(reset())
	}
	return false
}
