// Package evaluator implements Pine's streaming evaluator: it steps a
// resolved program once per input row, maintaining per-node history and
// per-call local state across rows with stable value identities across
// branches.
//
// Contexts form a tree whose edges are owned parent to child; each child
// also stores a pointer to its parent, which ancestor() follows for
// VarIndex.Depth lookups.
package evaluator

import (
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/symbols"
)

// EvalContext is one live instance of a scope: the program root, one
// if-branch, one for-body, or one function call. Sub-contexts are created
// lazily on first entry and retained for the life of their parent so their
// series and call state survive across rows.
type EvalContext struct {
	parent *EvalContext

	slots     []library.Value
	slotRings []*Ring

	subctx map[int]*EvalContext

	callRings map[int]*Ring
	steppers  map[int]library.Stepper

	retention int
}

// NewEvalContext allocates a context with room for slotCount slots,
// parented on parent (nil for the program root).
func NewEvalContext(parent *EvalContext, slotCount, retention int) *EvalContext {
	return &EvalContext{
		parent:    parent,
		slots:     make([]library.Value, slotCount),
		slotRings: make([]*Ring, slotCount),
		subctx:    make(map[int]*EvalContext),
		callRings: make(map[int]*Ring),
		steppers:  make(map[int]library.Stepper),
		retention: retention,
	}
}

// ancestor walks up depth parents, per VarIndex.Depth.
func (c *EvalContext) ancestor(depth int) *EvalContext {
	cur := c
	for i := 0; i < depth; i++ {
		cur = cur.parent
	}
	return cur
}

// Get reads the current value of a resolved variable reference.
func (c *EvalContext) Get(vi symbols.VarIndex) library.Value {
	return c.ancestor(vi.Depth).slots[vi.Slot]
}

// Set writes slot in the scope vi resolves to, without growing its history
// (callers that need the ring pushed to call PushSlotHistory as well).
func (c *EvalContext) Set(vi symbols.VarIndex, v library.Value) {
	c.ancestor(vi.Depth).slots[vi.Slot] = v
}

// PushSlotHistory records v as this row's entry in the named slot's ring,
// creating the ring on first use.
func (c *EvalContext) PushSlotHistory(vi symbols.VarIndex, v library.Value) {
	owner := c.ancestor(vi.Depth)
	r := owner.slotRings[vi.Slot]
	if r == nil {
		r = NewRing(owner.retention)
		owner.slotRings[vi.Slot] = r
	}
	r.Push(v)
}

// SlotHistory returns the ring backing a slot, or nil if the slot has
// never held a Series-typed value.
func (c *EvalContext) SlotHistory(vi symbols.VarIndex) *Ring {
	return c.ancestor(vi.Depth).slotRings[vi.Slot]
}

// SubContext returns the child context owned by ctxid, creating one sized
// for slotCount slots on first entry.
func (c *EvalContext) SubContext(ctxid, slotCount int) *EvalContext {
	if sub, ok := c.subctx[ctxid]; ok {
		return sub
	}
	sub := NewEvalContext(c, slotCount, c.retention)
	c.subctx[ctxid] = sub
	return sub
}

// CallRing returns (creating if absent) the history ring for a stateful
// call site's result, identified by its ctxid and owned by the context
// active when the call is reached. The ctxid was fixed at analysis time,
// so the ring's identity never depends on evaluation order.
func (c *EvalContext) CallRing(ctxid int) *Ring {
	r, ok := c.callRings[ctxid]
	if !ok {
		r = NewRing(c.retention)
		c.callRings[ctxid] = r
	}
	return r
}

// Stepper returns the stateful built-in instance for ctxid, invoking
// factory the first time the built-in is referenced inside that ctxid.
func (c *EvalContext) Stepper(ctxid int, factory library.Factory) library.Stepper {
	s, ok := c.steppers[ctxid]
	if !ok {
		s = factory()
		c.steppers[ctxid] = s
	}
	return s
}
