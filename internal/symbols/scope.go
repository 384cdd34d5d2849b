// Package symbols implements the analyser's binding infrastructure: a
// scope stack with dense per-scope slot allocation, a monotonic ctxid
// allocator, and the Resolution bag the analyser hands to the evaluator
// in place of the AST's bare identifiers.
package symbols

import "github.com/kaigouthro/pine-lang/internal/types"

// VarIndex is a stable reference to a binding: Slot is the offset into the
// target scope's value table, Depth is the number of enclosing scopes to
// climb from the point of use to reach it.
type VarIndex struct {
	Slot  int
	Depth int
}

// Scope owns a dense name -> slot map for one nesting level (program,
// function body, if-branch, for-body). Scopes stack via Parent; Resolve
// walks outward counting Depth as it goes.
type Scope struct {
	Parent *Scope
	names  map[string]int
	types  map[int]types.Type
	next   int
}

// NewScope creates a scope nested inside parent (nil for the program's
// depth-0 scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, names: make(map[string]int), types: make(map[int]types.Type)}
}

// SetType records the type a slot acquired on its first write: for a
// declaration without a declared type this is the rhs's inferred type; for
// one with a declared type, the declared type itself. Subsequent reads of
// the same name reuse this type.
func (s *Scope) SetType(slot int, t types.Type) { s.types[slot] = t }

// TypeOf returns the type most recently recorded for slot in this exact
// scope (not climbing outward — callers resolve the owning scope first).
func (s *Scope) TypeOf(slot int) (types.Type, bool) {
	t, ok := s.types[slot]
	return t, ok
}

// Declare creates a new slot for name in this scope. It fails (ok=false)
// if name is already declared in this exact scope: shadowing is only
// permitted across scope boundaries, never by redeclaring within one.
func (s *Scope) Declare(name string) (slot int, ok bool) {
	if _, exists := s.names[name]; exists {
		return 0, false
	}
	slot = s.next
	s.names[name] = slot
	s.next++
	return slot, true
}

// SlotCount is the number of slots declared directly in this scope —
// the size the evaluator must allocate for one instance of this scope's
// value table.
func (s *Scope) SlotCount() int { return s.next }

// Resolve looks up name starting in this scope and climbing outward,
// returning the VarIndex of the nearest enclosing declaration. Used for
// both reading a name and for reassignment's "find the existing slot"
// requirement — the walk is identical in both cases.
func (s *Scope) Resolve(name string) (VarIndex, bool) {
	vi, _, ok := s.ResolveScope(name)
	return vi, ok
}

// ResolveScope is Resolve, additionally returning the *Scope owning the
// binding so a caller can query or update its declared type.
func (s *Scope) ResolveScope(name string) (VarIndex, *Scope, bool) {
	depth := 0
	for cur := s; cur != nil; cur = cur.Parent {
		if slot, ok := cur.names[name]; ok {
			return VarIndex{Slot: slot, Depth: depth}, cur, true
		}
		depth++
	}
	return VarIndex{}, nil, false
}

// CtxIDAllocator hands out the monotonically increasing ctxids that
// identify a dynamic sub-context (if-branch, for-body, stateful call) so
// its series and state persist across rows.
type CtxIDAllocator struct {
	next int
}

// Next returns a fresh ctxid, starting at 1 so the zero value stays
// available as "no ctxid assigned."
func (a *CtxIDAllocator) Next() int {
	a.next++
	return a.next
}
