package layout

import "testing"

func itemByID(items []MenuItem, id string) MenuItem {
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	return MenuItem{}
}

func TestTabMenuReflectsLocks(t *testing.T) {
	w := New(group("A", 50, "a", "b", "c"), WithIDGenerator(seqIDs()))
	w.ToggleTabLock("a")

	menu := w.TabMenu("a")
	if !itemByID(menu, "close").Disabled {
		t.Fatal("close should be disabled for a locked tab")
	}
	if itemByID(menu, "close-others").Disabled || itemByID(menu, "close-right").Disabled {
		t.Fatal("close-others and close-right should be enabled")
	}
	if itemByID(menu, "lock").Label != "Unlock tab" {
		t.Fatalf("lock label = %q", itemByID(menu, "lock").Label)
	}

	if !itemByID(w.TabMenu("c"), "close-right").Disabled {
		t.Fatal("close-right on the last tab has nothing to close")
	}

	w.ToggleGroupLock("A")
	for _, it := range w.TabMenu("b") {
		if it.Disabled != !w.Invoke(it.Action, it.Target, nil) && it.Action != ActionToggleTabLock {
			t.Fatalf("item %s: disabled=%v disagrees with the operation", it.ID, it.Disabled)
		}
	}
}

func TestGroupAndLayoutMenu(t *testing.T) {
	w := New(group("A", 50, "a"))
	if itemByID(w.GroupMenu("A"), "close-all").Disabled {
		t.Fatal("close-all should be enabled")
	}
	w.ToggleGroupLock("A")
	if !itemByID(w.GroupMenu("A"), "close-all").Disabled {
		t.Fatal("close-all should be disabled on a locked group")
	}
	if w.GroupMenu("missing") != nil || w.TabMenu("missing") != nil {
		t.Fatal("menus for unknown ids should be nil")
	}

	w.ToggleLock()
	reset := itemByID(w.LayoutMenu(), "reset")
	if !reset.Disabled || !reset.Danger {
		t.Fatalf("reset = %+v, want disabled danger item", reset)
	}
}

func TestInvoke(t *testing.T) {
	w := New(group("A", 50, "a", "b"), WithIDGenerator(seqIDs()))
	if !w.Invoke(ActionSplitRight, "b", nil) {
		t.Fatal("split-right not applied")
	}
	if len(w.Groups()) != 2 {
		t.Fatalf("groups = %d, want 2", len(w.Groups()))
	}
	if w.Invoke(ActionResetLayout, "", nil) {
		t.Fatal("reset without a default tree applied")
	}
	if !w.Invoke(ActionResetLayout, "", func() Node { return group("Z", 50, "z") }) {
		t.Fatal("reset not applied")
	}
	if w.Invoke("bogus", "", nil) {
		t.Fatal("unknown action applied")
	}
}
