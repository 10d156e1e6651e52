package drag

import (
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/docktile/internal/layout"
)

// Workspace is the subset of layout operations a drop can trigger.
type Workspace interface {
	SplitGroup(targetGroupID string, view layout.ViewRef, pos layout.Position) bool
	MoveTab(viewID, targetGroupID string) bool
	GroupOf(viewID string) *layout.TabGroup
}

// Phase is the state of the current gesture.
type Phase int

const (
	// PhaseIdle means no drag is in progress.
	PhaseIdle Phase = iota
	// PhaseDragging means a tab has been picked up.
	PhaseDragging
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Hint is the transient highlight shown while hovering a target.
type Hint struct {
	TargetGroupID string `json:"targetGroupId,omitempty"`
	Zone          Zone   `json:"zone,omitempty"`
}

// Transfer is what a drop delivers: the fast-path token and, when the drag
// crossed a process boundary, the encoded payload.
type Transfer struct {
	Token string `json:"token,omitempty"`
	Type  string `json:"type,omitempty"`
	Data  []byte `json:"data,omitempty"`
}

// Result describes the outcome of a drop.
type Result struct {
	Applied       bool   `json:"applied"`
	Canceled      bool   `json:"canceled,omitempty"`
	ViewID        string `json:"viewId,omitempty"`
	TargetGroupID string `json:"targetGroupId,omitempty"`
	Zone          Zone   `json:"zone,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Coordinator turns drag events into workspace operations. Only Drop
// mutates the workspace; the other events touch hint state alone.
type Coordinator struct {
	mu      sync.Mutex
	ws      Workspace
	band    float64
	phase   Phase
	current Payload
	hint    Hint
	pending map[string]Payload
	targets map[string]layout.Rect
}

// NewCoordinator creates an idle coordinator acting on ws.
func NewCoordinator(ws Workspace) *Coordinator {
	return &Coordinator{
		ws:      ws,
		band:    DefaultEdgeBand,
		pending: make(map[string]Payload),
		targets: make(map[string]layout.Rect),
	}
}

// SetEdgeBand changes the edge band used for new zone computations.
func (c *Coordinator) SetEdgeBand(band float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.band = ClampBand(band)
}

// EdgeBand returns the current edge band.
func (c *Coordinator) EdgeBand() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.band
}

// RegisterTarget records the box of a drop target group.
func (c *Coordinator) RegisterTarget(groupID string, box layout.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets[groupID] = box
}

// UnregisterTarget forgets a drop target.
func (c *Coordinator) UnregisterTarget(groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.targets, groupID)
}

// SyncTargets replaces every registered target with boxes, typically the
// output of Workspace.Layout.
func (c *Coordinator) SyncTargets(boxes map[string]layout.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = make(map[string]layout.Rect, len(boxes))
	for id, r := range boxes {
		c.targets[id] = r
	}
}

// Phase returns the current gesture phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Hint returns the current hover hint.
func (c *Coordinator) Hint() Hint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hint
}

// Start begins a drag of p. It returns the one-time fast-path token and the
// encoded payload to attach under MIMEType.
func (c *Coordinator) Start(p Payload) (Transfer, error) {
	data, err := p.Encode()
	if err != nil {
		return Transfer{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseDragging {
		c.resetLocked()
	}
	token := uuid.NewString()
	c.pending[token] = p
	c.current = p
	c.phase = PhaseDragging
	c.hint = Hint{}
	return Transfer{Token: token, Type: MIMEType, Data: data}, nil
}

// Over updates the hint for a pointer hovering targetGroupID. Unknown
// targets clear the hint.
func (c *Coordinator) Over(targetGroupID string, x, y float64) Hint {
	c.mu.Lock()
	defer c.mu.Unlock()
	box, ok := c.targets[targetGroupID]
	if !ok || c.phase != PhaseDragging {
		c.hint = Hint{}
		return c.hint
	}
	c.hint = Hint{TargetGroupID: targetGroupID, Zone: ComputeDropZoneBand(box, x, y, c.band)}
	return c.hint
}

// OverAt is Over with the target found by hit-testing the registered boxes.
func (c *Coordinator) OverAt(x, y float64) Hint {
	c.mu.Lock()
	target := layout.GroupAt(c.targets, x, y)
	c.mu.Unlock()
	return c.Over(target, x, y)
}

// Leave clears the hint when the pointer leaves targetGroupID.
func (c *Coordinator) Leave(targetGroupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hint.TargetGroupID == targetGroupID {
		c.hint = Hint{}
	}
}

// Cancel ends the gesture without a drop.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Coordinator) resetLocked() {
	c.phase = PhaseIdle
	c.hint = Hint{}
	c.current = Payload{}
	c.pending = make(map[string]Payload)
}

// Drop finishes the gesture over targetGroupID at (x, y). The payload comes
// from the fast-path token when known, else from the encoded data. A drop
// outside every registered target cancels; a drop onto the tab's own group
// does nothing.
func (c *Coordinator) Drop(t Transfer, targetGroupID string, x, y float64) Result {
	c.mu.Lock()
	p, ok := c.pending[t.Token]
	if !ok {
		if t.Type != "" && t.Type != MIMEType {
			c.resetLocked()
			c.mu.Unlock()
			return Result{Canceled: true, Reason: "unsupported drag type " + t.Type}
		}
		decoded, err := DecodePayload(t.Data)
		if err != nil {
			c.resetLocked()
			c.mu.Unlock()
			return Result{Canceled: true, Reason: err.Error()}
		}
		p = decoded
	}
	box, registered := c.targets[targetGroupID]
	band := c.band
	c.resetLocked()
	c.mu.Unlock()

	res := Result{ViewID: p.ViewID, TargetGroupID: targetGroupID}
	if !registered {
		res.Canceled = true
		res.Reason = "no drop target"
		return res
	}
	res.Zone = ComputeDropZoneBand(box, x, y, band)

	source := p.SourceGroupID
	if g := c.ws.GroupOf(p.ViewID); g != nil {
		source = g.ID
	}
	if source == targetGroupID {
		res.Reason = "dropped on own group"
		return res
	}
	if res.Zone == layout.Center {
		res.Applied = c.ws.MoveTab(p.ViewID, targetGroupID)
	} else {
		res.Applied = c.ws.SplitGroup(targetGroupID, layout.ViewRef{ID: p.ViewID}, res.Zone)
	}
	if !res.Applied {
		res.Reason = "rejected by workspace"
	}
	return res
}

// DropAt is Drop with the target found by hit-testing the registered boxes.
func (c *Coordinator) DropAt(t Transfer, x, y float64) Result {
	c.mu.Lock()
	target := layout.GroupAt(c.targets, x, y)
	c.mu.Unlock()
	return c.Drop(t, target, x, y)
}
