package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/docktile/internal/drag"
	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/layout"
)

// notAppliedReason is reported when the daemon rejects a change: the id does
// not exist, a lock forbids it, or it would change nothing.
const notAppliedReason = "rejected by the workspace: unknown id, locked, or no effect"

func (s *Server) handleGetLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args GetLayoutInput) (*mcpsdk.CallToolResult, GetLayoutOutput, error) {
	data, err := s.backend.GetLayout(args.Width, args.Height)
	if err != nil {
		return nil, GetLayoutOutput{}, err
	}
	return nil, GetLayoutOutput{
		Snapshot: data.Snapshot,
		Boxes:    data.Boxes,
		Outline:  Outline(data.Snapshot),
	}, nil
}

func (s *Server) handleListViews(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListViewsInput) (*mcpsdk.CallToolResult, ListViewsOutput, error) {
	data, err := s.backend.ListViews()
	if err != nil {
		return nil, ListViewsOutput{}, err
	}
	return nil, ListViewsOutput{Views: data.Views, Open: data.Open}, nil
}

func (s *Server) handleOpenView(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenViewInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	if err := require("view_id", args.ViewID); err != nil {
		return nil, MutationOutput{}, err
	}
	return s.mutation("open_view", s.backend.OpenView(args.ViewID, args.GroupID))
}

func (s *Server) handleSplitGroup(_ context.Context, _ *mcpsdk.CallToolRequest, args SplitGroupInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	if err := require("group_id", args.GroupID); err != nil {
		return nil, MutationOutput{}, err
	}
	if err := require("view_id", args.ViewID); err != nil {
		return nil, MutationOutput{}, err
	}
	pos := layout.Position(strings.ToLower(strings.TrimSpace(args.Position)))
	if !pos.Valid() || pos == layout.Center {
		return nil, MutationOutput{}, fmt.Errorf("position must be left, right, top or bottom, got %q", args.Position)
	}
	return s.mutation("split_group", s.backend.Split(args.GroupID, args.ViewID, pos))
}

func (s *Server) handleMoveTab(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveTabInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	if err := require("view_id", args.ViewID); err != nil {
		return nil, MutationOutput{}, err
	}
	if err := require("group_id", args.GroupID); err != nil {
		return nil, MutationOutput{}, err
	}
	return s.mutation("move_tab", s.backend.MoveTab(args.ViewID, args.GroupID))
}

func (s *Server) handleCloseTab(_ context.Context, _ *mcpsdk.CallToolRequest, args TabInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	if err := require("view_id", args.ViewID); err != nil {
		return nil, MutationOutput{}, err
	}
	return s.mutation("close_tab", s.backend.CloseTab(args.ViewID))
}

func (s *Server) handleCloseOthers(_ context.Context, _ *mcpsdk.CallToolRequest, args TabInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	if err := require("view_id", args.ViewID); err != nil {
		return nil, MutationOutput{}, err
	}
	return s.mutation("close_other_tabs", s.backend.CloseOthers(args.ViewID))
}

func (s *Server) handleCloseRight(_ context.Context, _ *mcpsdk.CallToolRequest, args TabInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	if err := require("view_id", args.ViewID); err != nil {
		return nil, MutationOutput{}, err
	}
	return s.mutation("close_tabs_to_right", s.backend.CloseRight(args.ViewID))
}

func (s *Server) handleCloseAll(_ context.Context, _ *mcpsdk.CallToolRequest, args GroupInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	if err := require("group_id", args.GroupID); err != nil {
		return nil, MutationOutput{}, err
	}
	return s.mutation("close_all_tabs", s.backend.CloseAll(args.GroupID))
}

func (s *Server) handleToggleMaximize(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleMaximizeInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	return s.mutation("toggle_maximize", s.backend.ToggleMaximize(args.GroupID))
}

func (s *Server) handleToggleLock(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleLockInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	switch strings.ToLower(strings.TrimSpace(args.Scope)) {
	case "tab":
		if err := require("target", args.Target); err != nil {
			return nil, MutationOutput{}, err
		}
		return s.mutation("toggle_lock", s.backend.ToggleTabLock(args.Target))
	case "group":
		if err := require("target", args.Target); err != nil {
			return nil, MutationOutput{}, err
		}
		return s.mutation("toggle_lock", s.backend.ToggleGroupLock(args.Target))
	case "layout":
		return s.mutation("toggle_lock", s.backend.ToggleLayoutLock())
	default:
		return nil, MutationOutput{}, fmt.Errorf("scope must be tab, group or layout, got %q", args.Scope)
	}
}

func (s *Server) handleDropTab(_ context.Context, _ *mcpsdk.CallToolRequest, args DropTabInput) (*mcpsdk.CallToolResult, DropTabOutput, error) {
	if err := require("view_id", args.ViewID); err != nil {
		return nil, DropTabOutput{}, err
	}
	if err := require("group_id", args.GroupID); err != nil {
		return nil, DropTabOutput{}, err
	}
	zone := layout.Center
	if z := strings.ToLower(strings.TrimSpace(args.Zone)); z != "" {
		zone = layout.Position(z)
	}
	if !zone.Valid() {
		return nil, DropTabOutput{}, fmt.Errorf("zone must be center, left, right, top or bottom, got %q", args.Zone)
	}

	data, err := s.backend.GetLayout(0, 0)
	if err != nil {
		return nil, DropTabOutput{}, err
	}
	box, ok := data.Boxes[args.GroupID]
	if !ok {
		return nil, DropTabOutput{}, fmt.Errorf("group %q is not visible in the layout", args.GroupID)
	}
	x, y := drag.ZonePoint(box, zone)
	res, err := s.backend.Drop(ipc.DropPayload{ViewID: args.ViewID, GroupID: args.GroupID, X: x, Y: y})
	if err != nil {
		return nil, DropTabOutput{}, err
	}
	s.logger.Debug("mcp drop", "view", args.ViewID, "group", args.GroupID, "zone", res.Zone, "applied", res.Applied)
	out := DropTabOutput{
		Applied:       res.Applied,
		TargetGroupID: res.TargetGroupID,
		Zone:          string(res.Zone),
		Reason:        res.Reason,
	}
	if !res.Applied && out.Reason == "" {
		out.Reason = notAppliedReason
	}
	return nil, out, nil
}

// mutation turns the outcome of a client call into tool output. A rejected
// change is a normal result, not a tool error.
func (s *Server) mutation(tool string, err error) (*mcpsdk.CallToolResult, MutationOutput, error) {
	switch {
	case err == nil:
		s.logger.Debug("mcp tool applied", "tool", tool)
		return nil, MutationOutput{Applied: true}, nil
	case errors.Is(err, ipc.ErrNotApplied):
		s.logger.Debug("mcp tool rejected", "tool", tool)
		return nil, MutationOutput{Applied: false, Reason: notAppliedReason}, nil
	default:
		s.logger.Warn("mcp tool failed", "tool", tool, "error", err)
		return nil, MutationOutput{}, err
	}
}

func require(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// Outline renders a snapshot as an indented tree, one line per node and tab.
func Outline(snap layout.Snapshot) string {
	if snap.Root == nil {
		return "(empty layout)"
	}
	t := outlineNode(snap.Root, snap)
	var header []string
	if snap.Locked {
		header = append(header, "layout locked")
	}
	if snap.MaximizedGroupID != "" {
		header = append(header, "maximized "+snap.MaximizedGroupID)
	}
	if len(header) == 0 {
		return t.String()
	}
	return strings.Join(header, ", ") + "\n" + t.String()
}

func outlineNode(n *layout.NodeSnapshot, snap layout.Snapshot) *tree.Tree {
	label := n.Kind + " " + n.ID
	if n.Kind == layout.KindSplit {
		label += " " + string(n.Orientation)
	}
	label += fmt.Sprintf(" %g%%", n.Size)
	if n.ID == snap.ActiveGroupID {
		label += " (active)"
	}
	if n.Locked {
		label += " (locked)"
	}
	t := tree.Root(label)
	for _, c := range n.Children {
		t.Child(outlineNode(c, snap))
	}
	for _, v := range n.Views {
		line := v.ID
		if v.ID == n.ActiveViewID {
			line = "* " + line
		}
		if v.Locked {
			line += " (locked)"
		}
		t.Child(line)
	}
	return t
}
