package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/docktile/internal/config"
	"github.com/1broseidon/docktile/internal/drag"
	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/persist"
	"github.com/1broseidon/docktile/internal/registry"
)

// SessionConfig holds what a session is built from.
type SessionConfig struct {
	Config    *config.Config
	Registry  *registry.Registry
	Workspace *layout.Workspace
	Report    persist.Report
	// Saver receives a snapshot after every applied mutation. May be nil.
	Saver *persist.Saver
	// Level is adjusted on reload when set.
	Level  *slog.LevelVar
	Logger *slog.Logger
	// Load re-reads the configuration for RELOAD.
	Load func() (*config.Config, error)
}

// Session owns the live workspace and serializes every request against
// it. It implements ipc.Backend.
type Session struct {
	mu     sync.Mutex
	cfg    *config.Config
	reg    *registry.Registry
	ws     *layout.Workspace
	drag   *drag.Coordinator
	saver  *persist.Saver
	report persist.Report
	level  *slog.LevelVar
	logger *slog.Logger
	load   func() (*config.Config, error)
	unsub  func()
}

var _ ipc.Backend = (*Session)(nil)

// NewSession wires the workspace to the drag coordinator and the saver.
func NewSession(sc SessionConfig) *Session {
	logger := sc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		cfg:    sc.Config,
		reg:    sc.Registry,
		ws:     sc.Workspace,
		saver:  sc.Saver,
		report: sc.Report,
		level:  sc.Level,
		logger: logger,
		load:   sc.Load,
	}
	s.drag = drag.NewCoordinator(s.ws)
	s.drag.SetEdgeBand(s.cfg.Drag.EdgeBand)
	s.unsub = s.ws.Subscribe(s.onEvent)
	return s
}

// onEvent runs synchronously inside a mutation, with s.mu held.
func (s *Session) onEvent(ev layout.Event) {
	if !ev.Applied {
		s.logger.Debug("operation not applied", "op", ev.Op)
		return
	}
	s.logger.Debug("operation applied", "op", ev.Op, "groups", len(s.ws.Groups()))
	if s.saver != nil {
		s.saver.Schedule(s.ws.Snapshot())
	}
}

// Workspace returns the live workspace. Callers outside the session must
// not mutate it.
func (s *Session) Workspace() *layout.Workspace { return s.ws }

// Coordinator returns the session's drag coordinator.
func (s *Session) Coordinator() *drag.Coordinator { return s.drag }

// Status implements ipc.Backend.
func (s *Session) Status() ipc.StatusData {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := 0
	for _, g := range s.ws.Groups() {
		views += len(g.Views)
	}
	st := ipc.StatusData{
		Groups:           len(s.ws.Groups()),
		Views:            views,
		ActiveGroupID:    s.ws.ActiveGroupID(),
		MaximizedGroupID: s.ws.MaximizedGroupID(),
		Locked:           s.ws.Locked(),
		DragPhase:        s.drag.Phase().String(),
		EdgeBand:         s.drag.EdgeBand(),
		Source:           string(s.report.Source),
		DroppedViews:     s.report.Dropped,
		StorageBackend:   s.cfg.Storage.Backend,
	}
	if s.saver != nil {
		st.Writes, st.SkippedWrites = s.saver.Stats()
	}
	return st
}

// Layout implements ipc.Backend.
func (s *Session) Layout(canvas layout.Rect) ipc.LayoutData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ipc.LayoutData{
		Snapshot: s.ws.Snapshot(),
		Boxes:    s.ws.Layout(canvas),
		Canvas:   canvas,
	}
}

// Views implements ipc.Backend.
func (s *Session) Views() ipc.ViewsData {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := []string{}
	for _, g := range s.ws.Groups() {
		for _, v := range g.Views {
			open = append(open, v.ID)
		}
	}
	return ipc.ViewsData{Views: s.reg.All(), Open: open}
}

// Mutate implements ipc.Backend.
func (s *Session) Mutate(cmd ipc.CommandType, payload any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch p := payload.(type) {
	case ipc.OpenViewPayload:
		d, err := s.reg.Resolve(p.ViewID)
		if err != nil {
			return false, err
		}
		return s.ws.OpenView(layout.ViewRef{ID: d.ID}, p.GroupID), nil
	case ipc.ViewPayload:
		switch cmd {
		case ipc.CommandActivateTab:
			return s.ws.ActivateTab(p.ViewID), nil
		case ipc.CommandCloseTab:
			return s.ws.CloseTab(p.ViewID), nil
		case ipc.CommandCloseOthers:
			return s.ws.CloseOtherTabs(p.ViewID), nil
		case ipc.CommandCloseRight:
			return s.ws.CloseTabsToRight(p.ViewID), nil
		case ipc.CommandToggleTabLock:
			return s.ws.ToggleTabLock(p.ViewID), nil
		}
	case ipc.GroupPayload:
		switch cmd {
		case ipc.CommandCloseAll:
			return s.ws.CloseAllTabs(p.GroupID), nil
		case ipc.CommandToggleMaximize:
			return s.ws.ToggleMaximize(p.GroupID), nil
		case ipc.CommandToggleGroupLock:
			return s.ws.ToggleGroupLock(p.GroupID), nil
		}
	case ipc.SplitPayload:
		ref, err := s.viewRef(p.ViewID)
		if err != nil {
			return false, err
		}
		return s.ws.SplitGroup(p.GroupID, ref, p.Position), nil
	case ipc.MoveTabPayload:
		return s.ws.MoveTab(p.ViewID, p.GroupID), nil
	case ipc.ResizePayload:
		return s.ws.ResizeSplit(p.SplitID, p.Sizes), nil
	case ipc.ResetPayload:
		root, err := s.tree(p.Layout)
		if err != nil {
			return false, err
		}
		return s.ws.Reset(root), nil
	case struct{}:
		if cmd == ipc.CommandToggleLayoutLock {
			return s.ws.ToggleLock(), nil
		}
	}
	return false, fmt.Errorf("unsupported command %s with %T", cmd, payload)
}

// viewRef returns the reference for a view already in the tree, or
// resolves a new one through the registry.
func (s *Session) viewRef(viewID string) (layout.ViewRef, error) {
	if ref, ok := s.ws.View(viewID); ok {
		return ref, nil
	}
	d, err := s.reg.Resolve(viewID)
	if err != nil {
		return layout.ViewRef{}, err
	}
	return layout.ViewRef{ID: d.ID}, nil
}

// tree builds a configured layout, or the default one for an empty name.
func (s *Session) tree(name string) (layout.Node, error) {
	if name == "" {
		return s.cfg.DefaultTree(uuid.NewString)
	}
	tmpl, err := s.cfg.GetLayout(name)
	if err != nil {
		return nil, err
	}
	return tmpl.Build(uuid.NewString)
}

// syncTargets registers every group box in canvas as a drop target.
func (s *Session) syncTargets(canvas layout.Rect) {
	s.drag.SyncTargets(s.ws.Layout(canvas))
}

// DragStart implements ipc.Backend.
func (s *Session) DragStart(p ipc.DragStartPayload) (drag.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start(p.ViewID, p.SourceGroupID)
}

func (s *Session) start(viewID, sourceGroupID string) (drag.Transfer, error) {
	if _, ok := s.ws.View(viewID); !ok {
		if _, err := s.reg.Resolve(viewID); err != nil {
			return drag.Transfer{}, err
		}
	}
	if sourceGroupID == "" {
		if g := s.ws.GroupOf(viewID); g != nil {
			sourceGroupID = g.ID
		}
	}
	return s.drag.Start(drag.Payload{ViewID: viewID, SourceGroupID: sourceGroupID})
}

// DragOver implements ipc.Backend.
func (s *Session) DragOver(p ipc.DragOverPayload) drag.Hint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncTargets(p.Canvas())
	if p.GroupID != "" {
		return s.drag.Over(p.GroupID, p.X, p.Y)
	}
	return s.drag.OverAt(p.X, p.Y)
}

// DragCancel implements ipc.Backend.
func (s *Session) DragCancel() {
	s.drag.Cancel()
}

// Drop implements ipc.Backend. A payload naming ViewID starts and finishes
// the gesture in one request.
func (s *Session) Drop(p ipc.DropPayload) (drag.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := p.Transfer
	switch {
	case p.ViewID != "":
		started, err := s.start(p.ViewID, "")
		if err != nil {
			return drag.Result{}, err
		}
		t = started
	case len(t.Data) > 0 && t.Type == drag.MIMEType:
		// Foreign drags carry only wire data; the view must still be known.
		if pl, err := drag.DecodePayload(t.Data); err == nil {
			if _, ok := s.ws.View(pl.ViewID); !ok && !s.reg.Has(pl.ViewID) {
				s.drag.Cancel()
				return drag.Result{Canceled: true, ViewID: pl.ViewID, Reason: "unknown view"}, nil
			}
		}
	}

	s.syncTargets(p.Canvas())
	var res drag.Result
	if p.GroupID != "" {
		res = s.drag.Drop(t, p.GroupID, p.X, p.Y)
	} else {
		res = s.drag.DropAt(t, p.X, p.Y)
	}
	s.logger.Debug("drop", "view", res.ViewID, "target", res.TargetGroupID, "zone", res.Zone,
		"applied", res.Applied, "canceled", res.Canceled, "reason", res.Reason)
	return res, nil
}

// Menu implements ipc.Backend.
func (s *Session) Menu(p ipc.MenuPayload) (ipc.MenuData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []layout.MenuItem
	switch p.Scope {
	case ipc.MenuTab:
		items = s.ws.TabMenu(p.Target)
	case ipc.MenuGroup:
		items = s.ws.GroupMenu(p.Target)
	case ipc.MenuLayout:
		items = s.ws.LayoutMenu()
	default:
		return ipc.MenuData{}, fmt.Errorf("unknown menu scope %q", p.Scope)
	}
	if items == nil {
		return ipc.MenuData{}, fmt.Errorf("no %s %q in the layout", p.Scope, p.Target)
	}
	if p.Action == "" {
		return ipc.MenuData{Items: items}, nil
	}

	found := false
	for _, it := range items {
		if it.Action == p.Action {
			found = true
			break
		}
	}
	if !found {
		return ipc.MenuData{}, fmt.Errorf("action %q is not in the %s menu", p.Action, p.Scope)
	}
	var reset func() layout.Node
	if p.Action == layout.ActionResetLayout {
		root, err := s.tree("")
		if err != nil {
			return ipc.MenuData{}, err
		}
		reset = func() layout.Node { return root }
	}
	return ipc.MenuData{Applied: s.ws.Invoke(p.Action, p.Target, reset)}, nil
}

// Reload implements ipc.Backend.
func (s *Session) Reload(_ context.Context) error {
	if s.load == nil {
		return fmt.Errorf("reload is not configured")
	}
	cfg, err := s.load()
	if err != nil {
		return err
	}
	s.Apply(cfg)
	return nil
}

// Apply swaps in a new configuration. Tunables take effect immediately;
// storage and view registry changes need a restart.
func (s *Session) Apply(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.cfg
	s.cfg = cfg
	s.drag.SetEdgeBand(cfg.Drag.EdgeBand)
	if s.saver != nil {
		s.saver.SetDelay(cfg.Debounce())
	}
	if s.level != nil {
		s.level.Set(cfg.SlogLevel())
	}
	oldStore, newStore := old.Storage, cfg.Storage
	oldStore.DebounceMS, newStore.DebounceMS = 0, 0
	if oldStore != newStore {
		s.logger.Warn("storage settings changed; restart the daemon to apply them")
	}
	if len(old.Views) != len(cfg.Views) {
		s.logger.Warn("view registry changed; restart the daemon to apply it")
	}
	s.logger.Info("config applied",
		"edge_band", s.drag.EdgeBand(),
		"debounce", cfg.Debounce(),
		"log_level", cfg.LogLevel)
}

// Config returns the active configuration.
func (s *Session) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Close stops publishing events and flushes the pending snapshot.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.mu.Unlock()
	if s.saver == nil {
		return nil
	}
	return s.saver.Close(ctx)
}
