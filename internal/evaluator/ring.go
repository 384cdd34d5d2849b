package evaluator

import (
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// Ring is an append-only per-identity history buffer: index 0 is always
// the most recently pushed row, higher indices walk backward in time.
// Once len exceeds retention, the oldest entry is dropped so the buffer
// never grows past the configured bound.
type Ring struct {
	values    []library.Value
	retention int
}

// NewRing creates a ring bounded to retention entries. retention <= 0
// means unbounded; LibInfo.Retention supplies the configured bound in
// practice.
func NewRing(retention int) *Ring {
	return &Ring{retention: retention}
}

// Push appends the current row's value. Called exactly once per logical
// "tick" of this ring's owning context — once per program row for a
// root/if-branch-owned ring, once per loop iteration for a for-body-owned
// one — since the evaluator's single tree walk naturally visits each at
// that cadence.
func (r *Ring) Push(v library.Value) {
	r.values = append(r.values, v)
	if r.retention > 0 && len(r.values) > r.retention {
		r.values = r.values[len(r.values)-r.retention:]
	}
}

// At returns history[current-k] (k=0 is the just-pushed value), or Na of
// kind k if the index reaches past what retention kept or past the start
// of history.
func (r *Ring) At(k int, kind types.Kind) library.Value {
	if k < 0 || k >= len(r.values) {
		return library.Na(kind)
	}
	return r.values[len(r.values)-1-k]
}

// Len reports how many rows of history are currently retained.
func (r *Ring) Len() int { return len(r.values) }
