package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/1broseidon/docktile/internal/drag"
	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/registry"
)

type fakeBackend struct {
	calls []string
	err   error
	drops []ipc.DropPayload
	snap  layout.Snapshot
	boxes map[string]layout.Rect
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		snap: layout.Snapshot{
			Version:       layout.SnapshotVersion,
			ActiveGroupID: "g1",
			Root: &layout.NodeSnapshot{
				Kind: layout.KindSplit, ID: "s1", Orientation: layout.Horizontal, Size: 50,
				Children: []*layout.NodeSnapshot{
					{Kind: layout.KindGroup, ID: "g1", Size: 40, ActiveViewID: "library",
						Views: []layout.ViewRef{{ID: "library"}, {ID: "albums", Locked: true}}},
					{Kind: layout.KindGroup, ID: "g2", Size: 60, ActiveViewID: "viewer",
						Views: []layout.ViewRef{{ID: "viewer"}}},
				},
			},
		},
		boxes: map[string]layout.Rect{
			"g1": {X: 0, Y: 0, Width: 40, Height: 100},
			"g2": {X: 40, Y: 0, Width: 60, Height: 100},
		},
	}
}

func (f *fakeBackend) record(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeBackend) last() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeBackend) GetLayout(width, height float64) (*ipc.LayoutData, error) {
	return &ipc.LayoutData{Snapshot: f.snap, Boxes: f.boxes, Canvas: ipc.DefaultCanvas}, nil
}

func (f *fakeBackend) ListViews() (*ipc.ViewsData, error) {
	return &ipc.ViewsData{Views: []registry.Descriptor{{ID: "library"}, {ID: "search"}}, Open: []string{"library"}}, nil
}

func (f *fakeBackend) OpenView(viewID, groupID string) error {
	return f.record("open %s %s", viewID, groupID)
}

func (f *fakeBackend) Split(groupID, viewID string, pos layout.Position) error {
	return f.record("split %s %s %s", groupID, viewID, pos)
}

func (f *fakeBackend) MoveTab(viewID, groupID string) error {
	return f.record("move %s %s", viewID, groupID)
}

func (f *fakeBackend) CloseTab(viewID string) error    { return f.record("close %s", viewID) }
func (f *fakeBackend) CloseOthers(viewID string) error { return f.record("close-others %s", viewID) }
func (f *fakeBackend) CloseRight(viewID string) error  { return f.record("close-right %s", viewID) }
func (f *fakeBackend) CloseAll(groupID string) error   { return f.record("close-all %s", groupID) }

func (f *fakeBackend) ToggleMaximize(groupID string) error {
	return f.record("maximize %s", groupID)
}

func (f *fakeBackend) ToggleTabLock(viewID string) error { return f.record("lock-tab %s", viewID) }
func (f *fakeBackend) ToggleGroupLock(nodeID string) error {
	return f.record("lock-group %s", nodeID)
}
func (f *fakeBackend) ToggleLayoutLock() error { return f.record("lock-layout") }

func (f *fakeBackend) Drop(p ipc.DropPayload) (drag.Result, error) {
	f.drops = append(f.drops, p)
	zone := drag.ComputeDropZone(f.boxes[p.GroupID], p.X, p.Y)
	return drag.Result{Applied: f.err == nil, ViewID: p.ViewID, TargetGroupID: p.GroupID, Zone: zone}, nil
}

func TestMutationToolsForwardToBackend(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	s := NewServer("", fb, nil)

	tests := []struct {
		name string
		run  func() (MutationOutput, error)
		want string
	}{
		{"open", func() (MutationOutput, error) {
			_, out, err := s.handleOpenView(ctx, nil, OpenViewInput{ViewID: "search"})
			return out, err
		}, "open search "},
		{"split", func() (MutationOutput, error) {
			_, out, err := s.handleSplitGroup(ctx, nil, SplitGroupInput{GroupID: "g1", ViewID: "search", Position: " Right "})
			return out, err
		}, "split g1 search right"},
		{"move", func() (MutationOutput, error) {
			_, out, err := s.handleMoveTab(ctx, nil, MoveTabInput{ViewID: "library", GroupID: "g2"})
			return out, err
		}, "move library g2"},
		{"close", func() (MutationOutput, error) {
			_, out, err := s.handleCloseTab(ctx, nil, TabInput{ViewID: "library"})
			return out, err
		}, "close library"},
		{"close others", func() (MutationOutput, error) {
			_, out, err := s.handleCloseOthers(ctx, nil, TabInput{ViewID: "library"})
			return out, err
		}, "close-others library"},
		{"close right", func() (MutationOutput, error) {
			_, out, err := s.handleCloseRight(ctx, nil, TabInput{ViewID: "library"})
			return out, err
		}, "close-right library"},
		{"close all", func() (MutationOutput, error) {
			_, out, err := s.handleCloseAll(ctx, nil, GroupInput{GroupID: "g1"})
			return out, err
		}, "close-all g1"},
		{"maximize", func() (MutationOutput, error) {
			_, out, err := s.handleToggleMaximize(ctx, nil, ToggleMaximizeInput{GroupID: "g2"})
			return out, err
		}, "maximize g2"},
		{"lock tab", func() (MutationOutput, error) {
			_, out, err := s.handleToggleLock(ctx, nil, ToggleLockInput{Scope: "tab", Target: "library"})
			return out, err
		}, "lock-tab library"},
		{"lock group", func() (MutationOutput, error) {
			_, out, err := s.handleToggleLock(ctx, nil, ToggleLockInput{Scope: "GROUP", Target: "s1"})
			return out, err
		}, "lock-group s1"},
		{"lock layout", func() (MutationOutput, error) {
			_, out, err := s.handleToggleLock(ctx, nil, ToggleLockInput{Scope: "layout"})
			return out, err
		}, "lock-layout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.run()
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if !out.Applied {
				t.Fatalf("out = %+v, want applied", out)
			}
			if got := fb.last(); got != tt.want {
				t.Fatalf("backend call = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMutationToolsValidateInput(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	s := NewServer("", fb, nil)

	tests := []struct {
		name string
		run  func() error
	}{
		{"open without view", func() error { _, _, err := s.handleOpenView(ctx, nil, OpenViewInput{}); return err }},
		{"split center", func() error {
			_, _, err := s.handleSplitGroup(ctx, nil, SplitGroupInput{GroupID: "g1", ViewID: "a", Position: "center"})
			return err
		}},
		{"split without group", func() error {
			_, _, err := s.handleSplitGroup(ctx, nil, SplitGroupInput{ViewID: "a", Position: "left"})
			return err
		}},
		{"move without group", func() error {
			_, _, err := s.handleMoveTab(ctx, nil, MoveTabInput{ViewID: "a"})
			return err
		}},
		{"close blank view", func() error { _, _, err := s.handleCloseTab(ctx, nil, TabInput{ViewID: "  "}); return err }},
		{"close all without group", func() error { _, _, err := s.handleCloseAll(ctx, nil, GroupInput{}); return err }},
		{"lock bad scope", func() error {
			_, _, err := s.handleToggleLock(ctx, nil, ToggleLockInput{Scope: "window", Target: "a"})
			return err
		}},
		{"lock tab without target", func() error {
			_, _, err := s.handleToggleLock(ctx, nil, ToggleLockInput{Scope: "tab"})
			return err
		}},
		{"drop bad zone", func() error {
			_, _, err := s.handleDropTab(ctx, nil, DropTabInput{ViewID: "a", GroupID: "g1", Zone: "diagonal"})
			return err
		}},
		{"drop on hidden group", func() error {
			_, _, err := s.handleDropTab(ctx, nil, DropTabInput{ViewID: "a", GroupID: "g9"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if len(fb.calls) != 0 || len(fb.drops) != 0 {
		t.Fatalf("invalid input reached the backend: %v %v", fb.calls, fb.drops)
	}
}

func TestRejectedMutationIsNotAnError(t *testing.T) {
	fb := newFakeBackend()
	fb.err = fmt.Errorf("%s: %w", ipc.CommandCloseTab, ipc.ErrNotApplied)
	s := NewServer("", fb, nil)

	_, out, err := s.handleCloseTab(context.Background(), nil, TabInput{ViewID: "albums"})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if out.Applied || out.Reason == "" {
		t.Fatalf("out = %+v, want rejected with reason", out)
	}

	fb.err = errors.New("connection refused")
	if _, _, err := s.handleCloseTab(context.Background(), nil, TabInput{ViewID: "albums"}); err == nil {
		t.Fatal("transport failure should surface as a tool error")
	}
}

func TestDropTabTargetsZone(t *testing.T) {
	tests := []struct {
		zone string
		want layout.Position
	}{
		{"", layout.Center},
		{"center", layout.Center},
		{"left", layout.Left},
		{"right", layout.Right},
		{"Top", layout.Top},
		{"bottom", layout.Bottom},
	}
	for _, tt := range tests {
		t.Run(string(tt.want)+"/"+tt.zone, func(t *testing.T) {
			fb := newFakeBackend()
			s := NewServer("", fb, nil)
			_, out, err := s.handleDropTab(context.Background(), nil, DropTabInput{ViewID: "library", GroupID: "g2", Zone: tt.zone})
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if !out.Applied || out.Zone != string(tt.want) || out.TargetGroupID != "g2" {
				t.Fatalf("out = %+v, want applied %s on g2", out, tt.want)
			}
			p := fb.drops[0]
			if !fb.boxes["g2"].Contains(p.X, p.Y) {
				t.Fatalf("drop point (%g,%g) outside target box", p.X, p.Y)
			}
		})
	}
}

func TestQueryTools(t *testing.T) {
	fb := newFakeBackend()
	s := NewServer("workspace", fb, nil)

	_, lay, err := s.handleGetLayout(context.Background(), nil, GetLayoutInput{})
	if err != nil {
		t.Fatalf("get_layout: %v", err)
	}
	if len(lay.Boxes) != 2 || lay.Snapshot.Root == nil || lay.Outline == "" {
		t.Fatalf("layout = %+v", lay)
	}

	_, views, err := s.handleListViews(context.Background(), nil, ListViewsInput{})
	if err != nil {
		t.Fatalf("list_views: %v", err)
	}
	if len(views.Views) != 2 || len(views.Open) != 1 {
		t.Fatalf("views = %+v", views)
	}
}

func TestOutline(t *testing.T) {
	fb := newFakeBackend()
	got := Outline(fb.snap)
	for _, want := range []string{
		"split s1 horizontal",
		"group g1 40% (active)",
		"* library",
		"albums (locked)",
		"group g2 60%",
		"* viewer",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("outline missing %q:\n%s", want, got)
		}
	}

	fb.snap.Locked = true
	fb.snap.MaximizedGroupID = "g2"
	if got := Outline(fb.snap); !strings.HasPrefix(got, "layout locked, maximized g2\n") {
		t.Errorf("outline header = %q", strings.SplitN(got, "\n", 2)[0])
	}
	if got := Outline(layout.Snapshot{}); got != "(empty layout)" {
		t.Errorf("empty outline = %q", got)
	}
}
