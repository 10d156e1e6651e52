package daemon

import (
	"context"
	"log/slog"
	"time"
)

// DefaultReconcileInterval is the pause between reconciliation passes.
const DefaultReconcileInterval = 10 * time.Second

// Reconciler periodically checks the live layout against its invariants and
// the store, and corrects drift where it can.
type Reconciler struct {
	interval time.Duration
	session  *Session
	logger   *slog.Logger
}

// NewReconciler returns a reconciler for session. A zero interval means
// DefaultReconcileInterval.
func NewReconciler(session *Session, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{interval: interval, session: session, logger: logger}
}

// Run reconciles on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug("reconciler started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("reconciler stopped")
			return
		case <-ticker.C:
			r.ReconcileNow()
		}
	}
}

// ReconcileNow performs a single pass and reports what it found.
func (r *Reconciler) ReconcileNow() Drift {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	d := r.session.reconcile()
	if d.Invalid != nil {
		r.logger.Error("layout invariants violated", "error", d.Invalid)
	}
	if d.Resaved {
		r.logger.Info("reconciler: store behind live layout, saving again")
	}
	return d
}

// Drift is the outcome of one reconciliation pass.
type Drift struct {
	// Invalid holds the invariant violations of the live tree.
	Invalid error
	// Resaved is set when a failed write was rescheduled.
	Resaved bool
}

// reconcile validates the tree and requeues the live snapshot when the
// last write failed.
func (s *Session) reconcile() Drift {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := Drift{Invalid: s.ws.Validate()}
	if s.saver != nil && s.saver.Behind() {
		s.saver.Schedule(s.ws.Snapshot())
		d.Resaved = true
	}
	return d
}
