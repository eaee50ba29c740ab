// Package renderpass models the per-frame render graph as a small state
// machine over five fixed passes: geometry, opaque shading, transparent,
// composite, and display. Each pass is either uninitialized, ready, or
// marked needs-recreate with a reason; a frame refuses to run while any
// pass is not ready, and a needs-recreate reason dispatches to the
// handler registered for that pass rather than to a generic rebuild.
package renderpass

import (
	"fmt"
	"sync"

	"github.com/gogpu/vbrenderer/rendererror"
)

// PassKind identifies one of the five fixed passes, in execution order.
type PassKind uint8

const (
	PassGeometry PassKind = iota
	PassOpaqueShade
	PassTransparent
	PassComposite
	PassDisplay
)

// Order is the fixed execution order of the render graph.
var Order = [5]PassKind{PassGeometry, PassOpaqueShade, PassTransparent, PassComposite, PassDisplay}

func (k PassKind) String() string {
	switch k {
	case PassGeometry:
		return "geometry"
	case PassOpaqueShade:
		return "opaque_shade"
	case PassTransparent:
		return "transparent"
	case PassComposite:
		return "composite"
	case PassDisplay:
		return "display"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Status is a pass's position in its state machine.
type Status uint8

const (
	StatusUninitialized Status = iota
	StatusReady
	StatusNeedsRecreate
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusReady:
		return "ready"
	case StatusNeedsRecreate:
		return "needs-recreate"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// RecreateReason names why a pass was marked needs-recreate, so its
// handler can do exactly the rebuild work required instead of a full
// teardown.
type RecreateReason uint8

const (
	// ReasonNone is the zero value: the reason held by a ready or
	// uninitialized pass, and the one a handler receives on first setup.
	ReasonNone RecreateReason = iota
	// ReasonResize is set when the frame's target dimensions changed.
	ReasonResize
	// ReasonTexturePoolGrown is set when MegaTexture atlas growth
	// invalidated bind groups that reference the pool.
	ReasonTexturePoolGrown
	// ReasonBindGroupInvalidated is set when a dynamic buffer resize
	// invalidated a bind group the pass depends on.
	ReasonBindGroupInvalidated
	// ReasonDeviceLost is set after a device-lost event; every pass is
	// marked with this reason and rebuilt from scratch.
	ReasonDeviceLost
)

func (r RecreateReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonResize:
		return "resize"
	case ReasonTexturePoolGrown:
		return "texture-pool-grown"
	case ReasonBindGroupInvalidated:
		return "bind-group-invalidated"
	case ReasonDeviceLost:
		return "device-lost"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// RecreateHandler rebuilds whatever pipeline/bind-group/texture state a
// pass needs given why it was invalidated. It runs with the pass's lock
// held; keep it focused on the resources that reason actually touches.
type RecreateHandler func(reason RecreateReason) error

// Pass tracks one render-graph stage's readiness.
type Pass struct {
	kind     PassKind
	mu       sync.Mutex
	status   Status
	reason   RecreateReason
	recreate RecreateHandler
}

func newPass(kind PassKind) *Pass {
	return &Pass{kind: kind, status: StatusUninitialized, reason: ReasonNone}
}

// Kind returns the pass's position in the graph.
func (p *Pass) Kind() PassKind {
	return p.kind
}

// Status returns the pass's current state.
func (p *Pass) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SetRecreateHandler installs the function that rebuilds this pass's
// GPU-side state when it is marked needs-recreate.
func (p *Pass) SetRecreateHandler(handler RecreateHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recreate = handler
}

// MarkNeedsRecreate transitions the pass to needs-recreate with reason.
// A later call before Reconcile runs replaces the earlier reason, except
// that ReasonDeviceLost, once set, is kept, since it supersedes any
// narrower rebuild.
func (p *Pass) MarkNeedsRecreate(reason RecreateReason) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusNeedsRecreate && p.reason == ReasonDeviceLost {
		return
	}
	p.status = StatusNeedsRecreate
	p.reason = reason
}

// Reconcile runs the pass's recreate handler if it is marked
// needs-recreate, transitioning it to ready on success. It is a no-op
// if the pass is already ready. A pass with no handler installed cannot
// leave needs-recreate and Reconcile returns an error.
func (p *Pass) Reconcile() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status == StatusReady {
		return nil
	}
	if p.recreate == nil {
		return fmt.Errorf("renderpass: pass %s has no recreate handler installed", p.kind)
	}
	reason := p.reason
	if p.status == StatusUninitialized {
		reason = ReasonNone
	}
	if err := p.recreate(reason); err != nil {
		return fmt.Errorf("renderpass: pass %s failed to recreate (reason %s): %w", p.kind, reason, err)
	}
	p.status = StatusReady
	p.reason = ReasonNone
	return nil
}

// Graph holds the five fixed passes and drives their combined readiness.
type Graph struct {
	passes [5]*Pass
}

// NewGraph creates a graph with all five passes uninitialized.
func NewGraph() *Graph {
	g := &Graph{}
	for i, kind := range Order {
		g.passes[i] = newPass(kind)
	}
	return g
}

// Pass returns the pass for kind.
func (g *Graph) Pass(kind PassKind) *Pass {
	return g.passes[kind]
}

// MarkNeedsRecreate marks a single pass needs-recreate.
func (g *Graph) MarkNeedsRecreate(kind PassKind, reason RecreateReason) {
	g.passes[kind].MarkNeedsRecreate(reason)
}

// MarkAllNeedsRecreate marks every pass needs-recreate with the same
// reason, used for device-lost recovery and full-graph resize.
func (g *Graph) MarkAllNeedsRecreate(reason RecreateReason) {
	for _, p := range g.passes {
		p.MarkNeedsRecreate(reason)
	}
}

// ReconcileAll reconciles every pass in execution order, stopping at the
// first failure so later passes are not rebuilt against a dependency
// that never finished recreating.
func (g *Graph) ReconcileAll() error {
	for _, p := range g.passes {
		if err := p.Reconcile(); err != nil {
			return err
		}
	}
	return nil
}

// AllReady reports whether every pass is ready to execute.
func (g *Graph) AllReady() bool {
	for _, p := range g.passes {
		if p.Status() != StatusReady {
			return false
		}
	}
	return true
}

// Execute runs run once per pass in fixed order, refusing to start at
// all if any pass is not ready.
func (g *Graph) Execute(run func(kind PassKind) error) error {
	if !g.AllReady() {
		return rendererror.ErrPassNotReady
	}
	for _, p := range g.passes {
		if err := run(p.kind); err != nil {
			return fmt.Errorf("renderpass: pass %s failed: %w", p.kind, err)
		}
	}
	return nil
}
