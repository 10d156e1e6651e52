package mcp

import (
	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/registry"
)

// GetLayoutInput is the input for the get_layout tool.
type GetLayoutInput struct {
	Width  float64 `json:"width,omitempty" jsonschema:"Canvas width the group rectangles are computed against (default: 100)"`
	Height float64 `json:"height,omitempty" jsonschema:"Canvas height the group rectangles are computed against (default: 100)"`
}

// GetLayoutOutput is the output for the get_layout tool.
type GetLayoutOutput struct {
	Snapshot layout.Snapshot        `json:"snapshot"`
	Boxes    map[string]layout.Rect `json:"boxes"`
	Outline  string                 `json:"outline"`
}

// ListViewsInput is the input for the list_views tool.
type ListViewsInput struct{}

// ListViewsOutput is the output for the list_views tool.
type ListViewsOutput struct {
	Views []registry.Descriptor `json:"views"`
	Open  []string              `json:"open"`
}

// OpenViewInput is the input for the open_view tool.
type OpenViewInput struct {
	ViewID  string `json:"view_id" jsonschema:"Registered view id to open"`
	GroupID string `json:"group_id,omitempty" jsonschema:"Tab group to open the view in (default: the active group)"`
}

// SplitGroupInput is the input for the split_group tool.
type SplitGroupInput struct {
	GroupID  string `json:"group_id" jsonschema:"Tab group to split"`
	ViewID   string `json:"view_id" jsonschema:"View placed in the new group; an open tab is moved, otherwise the registered view is opened"`
	Position string `json:"position" jsonschema:"Side of the group the new half appears on: left, right, top or bottom"`
}

// MoveTabInput is the input for the move_tab tool.
type MoveTabInput struct {
	ViewID  string `json:"view_id" jsonschema:"Open view to move"`
	GroupID string `json:"group_id" jsonschema:"Destination tab group"`
}

// TabInput is the input for tools that act on one tab.
type TabInput struct {
	ViewID string `json:"view_id" jsonschema:"Open view id"`
}

// GroupInput is the input for tools that act on one tab group.
type GroupInput struct {
	GroupID string `json:"group_id" jsonschema:"Tab group id"`
}

// ToggleMaximizeInput is the input for the toggle_maximize tool.
type ToggleMaximizeInput struct {
	GroupID string `json:"group_id,omitempty" jsonschema:"Tab group to maximize; empty restores the layout"`
}

// ToggleLockInput is the input for the toggle_lock tool.
type ToggleLockInput struct {
	Scope  string `json:"scope" jsonschema:"What to lock: tab, group or layout"`
	Target string `json:"target,omitempty" jsonschema:"View id for scope tab, group or split id for scope group; ignored for scope layout"`
}

// DropTabInput is the input for the drop_tab tool.
type DropTabInput struct {
	ViewID  string `json:"view_id" jsonschema:"View to drop"`
	GroupID string `json:"group_id" jsonschema:"Tab group the view is dropped on"`
	Zone    string `json:"zone,omitempty" jsonschema:"Drop zone: center, left, right, top or bottom (default: center)"`
}

// MutationOutput reports whether a layout change took effect. Rejected
// changes leave the layout untouched.
type MutationOutput struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// DropTabOutput is the output for the drop_tab tool.
type DropTabOutput struct {
	Applied       bool   `json:"applied"`
	TargetGroupID string `json:"target_group_id,omitempty"`
	Zone          string `json:"zone,omitempty"`
	Reason        string `json:"reason,omitempty"`
}
