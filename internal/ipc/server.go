package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/docktile/internal/drag"
	"github.com/1broseidon/docktile/internal/layout"
)

// Backend is the daemon state the server exposes. Every method is called
// from a connection goroutine; implementations serialize access.
type Backend interface {
	Status() StatusData
	Layout(canvas layout.Rect) LayoutData
	Views() ViewsData
	// Mutate runs one workspace operation. The payload type matches cmd.
	Mutate(cmd CommandType, payload any) (bool, error)
	DragStart(p DragStartPayload) (drag.Transfer, error)
	DragOver(p DragOverPayload) drag.Hint
	DragCancel()
	Drop(p DropPayload) (drag.Result, error)
	Menu(p MenuPayload) (MenuData, error)
	Reload(ctx context.Context) error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	backend      Backend
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server bound to socketPath.
func NewServer(socketPath string, backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		socketPath: socketPath,
		backend:    backend,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Uptime returns the time since the server was created.
func (s *Server) Uptime() time.Duration { return time.Since(s.startTime) }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// A stale socket from a crashed daemon blocks Listen.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isShuttingDown() {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) isShuttingDown() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(30 * time.Second))

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.send(conn, s.handleCommand(req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)

	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetLayout:
		return s.handleGetLayout(req.Payload)
	case CommandListViews:
		return ok(s.backend.Views())
	case CommandOpenView:
		return mutate[OpenViewPayload](s, req, func(p OpenViewPayload) error {
			return required("view_id", p.ViewID)
		})
	case CommandActivateTab, CommandCloseTab, CommandCloseOthers, CommandCloseRight, CommandToggleTabLock:
		return mutate[ViewPayload](s, req, func(p ViewPayload) error {
			return required("view_id", p.ViewID)
		})
	case CommandCloseAll, CommandToggleGroupLock:
		return mutate[GroupPayload](s, req, func(p GroupPayload) error {
			return required("group_id", p.GroupID)
		})
	case CommandToggleMaximize:
		// An empty group restores a maximized workspace.
		return mutate[GroupPayload](s, req, nil)
	case CommandSplit:
		return mutate[SplitPayload](s, req, func(p SplitPayload) error {
			if err := required("group_id", p.GroupID); err != nil {
				return err
			}
			if err := required("view_id", p.ViewID); err != nil {
				return err
			}
			if !p.Position.Valid() {
				return fmt.Errorf("invalid position %q", p.Position)
			}
			return nil
		})
	case CommandMoveTab:
		return mutate[MoveTabPayload](s, req, func(p MoveTabPayload) error {
			if err := required("view_id", p.ViewID); err != nil {
				return err
			}
			return required("group_id", p.GroupID)
		})
	case CommandResize:
		return mutate[ResizePayload](s, req, func(p ResizePayload) error {
			return required("split_id", p.SplitID)
		})
	case CommandToggleLayoutLock:
		return mutate[struct{}](s, req, nil)
	case CommandResetLayout:
		return mutate[ResetPayload](s, req, nil)
	case CommandDragStart:
		return s.handleDragStart(req.Payload)
	case CommandDragOver:
		return s.handleDragOver(req.Payload)
	case CommandDragCancel:
		s.backend.DragCancel()
		return ok(nil)
	case CommandDrop:
		return s.handleDrop(req.Payload)
	case CommandMenu:
		return s.handleMenu(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

func decode[T any](raw json.RawMessage, cmd CommandType) (T, error) {
	var p T
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", cmd, err)
	}
	return p, nil
}

// mutate decodes the payload, checks it and hands it to the backend.
func mutate[T any](s *Server, req *Request, check func(T) error) *Response {
	p, err := decode[T](req.Payload, req.Command)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if check != nil {
		if err := check(p); err != nil {
			return NewErrorResponse(err.Error())
		}
	}
	applied, err := s.backend.Mutate(req.Command, p)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if !applied {
		s.logger.Debug("IPC mutation not applied", "command", req.Command)
	}
	return ok(MutationData{Applied: applied})
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	s.logger.Info("IPC: received RELOAD command")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.backend.Reload(ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return ok(nil)
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	status := s.backend.Status()
	status.UptimeSeconds = int64(s.Uptime().Seconds())
	status.DaemonRunning = true
	return ok(status)
}

func (s *Server) handleGetLayout(payload json.RawMessage) *Response {
	p, err := decode[LayoutPayload](payload, CommandGetLayout)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(s.backend.Layout(p.Canvas()))
}

func (s *Server) handleDragStart(payload json.RawMessage) *Response {
	p, err := decode[DragStartPayload](payload, CommandDragStart)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if err := required("view_id", p.ViewID); err != nil {
		return NewErrorResponse(err.Error())
	}
	t, err := s.backend.DragStart(p)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to start drag: %v", err))
	}
	return ok(t)
}

func (s *Server) handleDragOver(payload json.RawMessage) *Response {
	p, err := decode[DragOverPayload](payload, CommandDragOver)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(s.backend.DragOver(p))
}

func (s *Server) handleDrop(payload json.RawMessage) *Response {
	p, err := decode[DropPayload](payload, CommandDrop)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if p.ViewID == "" && p.Transfer.Token == "" && len(p.Transfer.Data) == 0 {
		return NewErrorResponse("view_id or transfer is required")
	}
	res, err := s.backend.Drop(p)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to drop: %v", err))
	}
	return ok(res)
}

func (s *Server) handleMenu(payload json.RawMessage) *Response {
	p, err := decode[MenuPayload](payload, CommandMenu)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	switch p.Scope {
	case MenuTab, MenuGroup:
		if err := required("target", p.Target); err != nil {
			return NewErrorResponse(err.Error())
		}
	case MenuLayout:
	default:
		return NewErrorResponse(fmt.Sprintf("unknown menu scope %q", p.Scope))
	}
	data, err := s.backend.Menu(p)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(data)
}

// Stop gracefully shuts down the IPC server and waits for in-flight
// connections.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
