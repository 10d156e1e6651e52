package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/docktile/internal/drag"
	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/layout"
)

const (
	DefaultServerName = "docktile"
	ServerVersion     = "0.1.0"
)

// Backend is the daemon surface the tools drive. *ipc.Client implements it.
type Backend interface {
	GetLayout(width, height float64) (*ipc.LayoutData, error)
	ListViews() (*ipc.ViewsData, error)
	OpenView(viewID, groupID string) error
	Split(groupID, viewID string, pos layout.Position) error
	MoveTab(viewID, groupID string) error
	CloseTab(viewID string) error
	CloseOthers(viewID string) error
	CloseRight(viewID string) error
	CloseAll(groupID string) error
	ToggleMaximize(groupID string) error
	ToggleTabLock(viewID string) error
	ToggleGroupLock(nodeID string) error
	ToggleLayoutLock() error
	Drop(p ipc.DropPayload) (drag.Result, error)
}

var _ Backend = (*ipc.Client)(nil)

// Server exposes the workspace of a running daemon as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	backend   Backend
	logger    *slog.Logger
}

// NewServer creates an MCP server named name that forwards tool calls to
// backend.
func NewServer(name string, backend Backend, logger *slog.Logger) *Server {
	if name == "" {
		name = DefaultServerName
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{backend: backend, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    name,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_layout",
		Description: "Return the current workspace layout: the node tree, the rectangle of every tab group on a canvas (default 100x100, so values are percentages) and a readable outline.",
	}, s.handleGetLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_views",
		Description: "List the registered views and which of them are currently open in the layout.",
	}, s.handleListViews)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_view",
		Description: "Open a registered view. If it is already open its tab is activated; otherwise it is added to the given group, or to the active group when group_id is empty.",
	}, s.handleOpenView)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "split_group",
		Description: "Split a tab group and place a view in the new half. position is one of left, right, top, bottom.",
	}, s.handleSplitGroup)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_tab",
		Description: "Move an open tab into another tab group. Groups left empty are removed.",
	}, s.handleMoveTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_tab",
		Description: "Close one tab. Locked tabs cannot be closed.",
	}, s.handleCloseTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_other_tabs",
		Description: "Close every unlocked tab in the group except the given one.",
	}, s.handleCloseOthers)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_tabs_to_right",
		Description: "Close the unlocked tabs to the right of the given tab in its group.",
	}, s.handleCloseRight)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_all_tabs",
		Description: "Close every unlocked tab in a group.",
	}, s.handleCloseAll)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_maximize",
		Description: "Maximize a tab group, or restore the layout when it is already maximized. An empty group_id restores.",
	}, s.handleToggleMaximize)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_lock",
		Description: "Toggle a lock. scope tab locks a tab against closing and dragging, scope group locks a group or split against structural changes, scope layout freezes the whole layout.",
	}, s.handleToggleLock)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "drop_tab",
		Description: "Drop a view onto a tab group as if dragged there. zone center adds it as a tab; left, right, top and bottom split the group. Registered views that are not open yet can be dropped on an edge zone; use open_view to add them as a tab.",
	}, s.handleDropTab)
}
