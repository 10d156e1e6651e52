package ipc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/1broseidon/docktile/internal/drag"
	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/registry"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload           CommandType = "RELOAD"
	CommandGetStatus        CommandType = "GET_STATUS"
	CommandGetLayout        CommandType = "GET_LAYOUT"
	CommandListViews        CommandType = "LIST_VIEWS"
	CommandOpenView         CommandType = "OPEN_VIEW"
	CommandActivateTab      CommandType = "ACTIVATE_TAB"
	CommandSplit            CommandType = "SPLIT"
	CommandMoveTab          CommandType = "MOVE_TAB"
	CommandCloseTab         CommandType = "CLOSE_TAB"
	CommandCloseOthers      CommandType = "CLOSE_OTHERS"
	CommandCloseRight       CommandType = "CLOSE_RIGHT"
	CommandCloseAll         CommandType = "CLOSE_ALL"
	CommandToggleMaximize   CommandType = "TOGGLE_MAXIMIZE"
	CommandToggleTabLock    CommandType = "TOGGLE_TAB_LOCK"
	CommandToggleGroupLock  CommandType = "TOGGLE_GROUP_LOCK"
	CommandToggleLayoutLock CommandType = "TOGGLE_LAYOUT_LOCK"
	CommandResize           CommandType = "RESIZE"
	CommandResetLayout      CommandType = "RESET_LAYOUT"
	CommandDragStart        CommandType = "DRAG_START"
	CommandDragOver         CommandType = "DRAG_OVER"
	CommandDragCancel       CommandType = "DRAG_CANCEL"
	CommandDrop             CommandType = "DROP"
	CommandMenu             CommandType = "MENU"
)

// ErrNotApplied is returned by client mutations the workspace rejected:
// dangling ids, locks, or no-op requests.
var ErrNotApplied = errors.New("operation not applied")

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Groups           int     `json:"groups"`
	Views            int     `json:"views"`
	ActiveGroupID    string  `json:"active_group_id,omitempty"`
	MaximizedGroupID string  `json:"maximized_group_id,omitempty"`
	Locked           bool    `json:"locked"`
	DragPhase        string  `json:"drag_phase"`
	EdgeBand         float64 `json:"edge_band"`
	Source           string  `json:"source"`
	DroppedViews     int     `json:"dropped_views,omitempty"`
	StorageBackend   string  `json:"storage_backend"`
	Writes           int     `json:"writes"`
	SkippedWrites    int     `json:"skipped_writes"`
	UptimeSeconds    int64   `json:"uptime_seconds"`
	DaemonRunning    bool    `json:"daemon_running"`
}

// LayoutPayload asks for the tree plus group rectangles inside a canvas.
// A zero canvas means DefaultCanvas.
type LayoutPayload struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// DefaultCanvas is the coordinate space used when a client names none:
// positions are percentages of the workspace.
var DefaultCanvas = layout.Rect{Width: 100, Height: 100}

// Canvas returns the requested bounds, or DefaultCanvas.
func (p LayoutPayload) Canvas() layout.Rect {
	if p.Width <= 0 || p.Height <= 0 {
		return DefaultCanvas
	}
	return layout.Rect{Width: p.Width, Height: p.Height}
}

// LayoutData represents the data returned by GET_LAYOUT
type LayoutData struct {
	Snapshot layout.Snapshot        `json:"snapshot"`
	Boxes    map[string]layout.Rect `json:"boxes"`
	Canvas   layout.Rect            `json:"canvas"`
}

// ViewsData represents the data returned by LIST_VIEWS
type ViewsData struct {
	Views []registry.Descriptor `json:"views"`
	Open  []string              `json:"open"`
}

// ViewPayload targets a single tab.
type ViewPayload struct {
	ViewID string `json:"view_id"`
}

// GroupPayload targets a group, or for TOGGLE_GROUP_LOCK any node.
type GroupPayload struct {
	GroupID string `json:"group_id"`
}

// OpenViewPayload opens a registry view. An empty group means the active
// group.
type OpenViewPayload struct {
	ViewID  string `json:"view_id"`
	GroupID string `json:"group_id,omitempty"`
}

type SplitPayload struct {
	GroupID  string          `json:"group_id"`
	ViewID   string          `json:"view_id"`
	Position layout.Position `json:"position"`
}

type MoveTabPayload struct {
	ViewID  string `json:"view_id"`
	GroupID string `json:"group_id"`
}

type ResizePayload struct {
	SplitID string    `json:"split_id"`
	Sizes   []float64 `json:"sizes"`
}

// ResetPayload names the configured layout to reset to; empty means the
// default layout.
type ResetPayload struct {
	Layout string `json:"layout,omitempty"`
}

// MutationData is returned by every mutating command.
type MutationData struct {
	Applied bool `json:"applied"`
}

// DragStartPayload picks up a tab. The source group is filled in by the
// daemon when empty.
type DragStartPayload struct {
	ViewID        string `json:"view_id"`
	SourceGroupID string `json:"source_group_id,omitempty"`
}

// DragOverPayload reports the pointer. GroupID pins the target; otherwise
// the group under the pointer is used.
type DragOverPayload struct {
	GroupID string  `json:"group_id,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	LayoutPayload
}

// DropPayload finishes a gesture. Either Transfer (from DRAG_START or a
// foreign drag source) or ViewID for a one-shot drop.
type DropPayload struct {
	Transfer drag.Transfer `json:"transfer,omitempty"`
	ViewID   string        `json:"view_id,omitempty"`
	GroupID  string        `json:"group_id,omitempty"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	LayoutPayload
}

// MenuScope selects which context menu to build.
type MenuScope string

const (
	MenuTab    MenuScope = "tab"
	MenuGroup  MenuScope = "group"
	MenuLayout MenuScope = "layout"
)

// MenuPayload lists a context menu, or with Action set invokes one of its
// entries.
type MenuPayload struct {
	Scope  MenuScope `json:"scope"`
	Target string    `json:"target,omitempty"`
	Action string    `json:"action,omitempty"`
}

// MenuData is returned by MENU.
type MenuData struct {
	Items   []layout.MenuItem `json:"items,omitempty"`
	Applied bool              `json:"applied,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
