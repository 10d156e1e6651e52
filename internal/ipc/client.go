package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/docktile/internal/drag"
	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends cmd with payload and decodes the reply data into out when
// out is non-nil.
func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// mutate runs a mutating command and maps applied=false to ErrNotApplied.
func (c *Client) mutate(cmd CommandType, payload any) error {
	var data MutationData
	if err := c.call(cmd, payload, &data); err != nil {
		return err
	}
	if !data.Applied {
		return fmt.Errorf("%s: %w", cmd, ErrNotApplied)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetLayout returns the tree and the group rectangles inside a
// width x height canvas. Zero sizes use DefaultCanvas.
func (c *Client) GetLayout(width, height float64) (*LayoutData, error) {
	var data LayoutData
	if err := c.call(CommandGetLayout, LayoutPayload{Width: width, Height: height}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListViews returns the registry and the ids currently open.
func (c *Client) ListViews() (*ViewsData, error) {
	var data ViewsData
	if err := c.call(CommandListViews, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// OpenView opens a registry view in groupID, or the active group.
func (c *Client) OpenView(viewID, groupID string) error {
	return c.mutate(CommandOpenView, OpenViewPayload{ViewID: viewID, GroupID: groupID})
}

func (c *Client) ActivateTab(viewID string) error {
	return c.mutate(CommandActivateTab, ViewPayload{ViewID: viewID})
}

// Split places viewID beside groupID at pos.
func (c *Client) Split(groupID, viewID string, pos layout.Position) error {
	return c.mutate(CommandSplit, SplitPayload{GroupID: groupID, ViewID: viewID, Position: pos})
}

func (c *Client) MoveTab(viewID, groupID string) error {
	return c.mutate(CommandMoveTab, MoveTabPayload{ViewID: viewID, GroupID: groupID})
}

func (c *Client) CloseTab(viewID string) error {
	return c.mutate(CommandCloseTab, ViewPayload{ViewID: viewID})
}

func (c *Client) CloseOthers(viewID string) error {
	return c.mutate(CommandCloseOthers, ViewPayload{ViewID: viewID})
}

func (c *Client) CloseRight(viewID string) error {
	return c.mutate(CommandCloseRight, ViewPayload{ViewID: viewID})
}

func (c *Client) CloseAll(groupID string) error {
	return c.mutate(CommandCloseAll, GroupPayload{GroupID: groupID})
}

// ToggleMaximize maximizes groupID or restores it. An empty id restores.
func (c *Client) ToggleMaximize(groupID string) error {
	return c.mutate(CommandToggleMaximize, GroupPayload{GroupID: groupID})
}

func (c *Client) ToggleTabLock(viewID string) error {
	return c.mutate(CommandToggleTabLock, ViewPayload{ViewID: viewID})
}

// ToggleGroupLock toggles the lock of a group or split node.
func (c *Client) ToggleGroupLock(nodeID string) error {
	return c.mutate(CommandToggleGroupLock, GroupPayload{GroupID: nodeID})
}

func (c *Client) ToggleLayoutLock() error {
	return c.mutate(CommandToggleLayoutLock, nil)
}

// Resize sets the child weights of a split.
func (c *Client) Resize(splitID string, sizes []float64) error {
	return c.mutate(CommandResize, ResizePayload{SplitID: splitID, Sizes: sizes})
}

// ResetLayout replaces the tree with a configured layout; empty means the
// default layout.
func (c *Client) ResetLayout(name string) error {
	return c.mutate(CommandResetLayout, ResetPayload{Layout: name})
}

// DragStart picks up viewID and returns the transfer to hand back on drop.
func (c *Client) DragStart(viewID, sourceGroupID string) (drag.Transfer, error) {
	var t drag.Transfer
	err := c.call(CommandDragStart, DragStartPayload{ViewID: viewID, SourceGroupID: sourceGroupID}, &t)
	return t, err
}

// DragOver reports the pointer and returns the drop hint.
func (c *Client) DragOver(p DragOverPayload) (drag.Hint, error) {
	var h drag.Hint
	err := c.call(CommandDragOver, p, &h)
	return h, err
}

func (c *Client) DragCancel() error {
	return c.call(CommandDragCancel, nil, nil)
}

// Drop finishes a gesture. Unlike the other mutations a rejected drop is
// reported in the result, not as an error.
func (c *Client) Drop(p DropPayload) (drag.Result, error) {
	var res drag.Result
	err := c.call(CommandDrop, p, &res)
	return res, err
}

// Menu lists the context menu for scope and target.
func (c *Client) Menu(scope MenuScope, target string) ([]layout.MenuItem, error) {
	var data MenuData
	if err := c.call(CommandMenu, MenuPayload{Scope: scope, Target: target}, &data); err != nil {
		return nil, err
	}
	return data.Items, nil
}

// InvokeMenu runs a menu action against target.
func (c *Client) InvokeMenu(scope MenuScope, target, action string) error {
	var data MenuData
	if err := c.call(CommandMenu, MenuPayload{Scope: scope, Target: target, Action: action}, &data); err != nil {
		return err
	}
	if !data.Applied {
		return fmt.Errorf("%s: %w", action, ErrNotApplied)
	}
	return nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
