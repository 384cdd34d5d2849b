package library

import "github.com/kaigouthro/pine-lang/internal/types"

// Adapter names the implicit-conversion the evaluator applies to one call
// argument before handing it to a Stepper, recorded as data at analysis
// time rather than re-derived during evaluation.
type Adapter int

const (
	AdapterIdentity Adapter = iota
	AdapterIntToFloat
	AdapterScalarToSeries
	AdapterNaBroadcast
)

// Apply runs the adapter against a single row's argument value. ScalarToSeries
// is a no-op at the Value level: Pine represents "the current row of a
// series" the same way it represents a scalar — lifting only changes which
// ring buffer the evaluator later reads history from, not the shape of the
// per-row Value itself.
func (a Adapter) Apply(v Value, paramKind types.Kind) Value {
	switch a {
	case AdapterIntToFloat:
		return ConvertTo(v, types.KindFloat)
	case AdapterNaBroadcast:
		return Na(paramKind)
	default: // AdapterIdentity, AdapterScalarToSeries
		return v
	}
}

// StepContext is the slice of evaluator state a Stepper is allowed to
// observe: which row is being computed. Steppers never see the full
// EvalContext — they own their state privately and are handed only the
// current row's arguments, keeping built-ins decoupled from the evaluator's
// internals.
type StepContext interface {
	Row() int
}

// Stepper is the state-bearing object a Builtin's Factory produces. It is
// invoked once per row for the call site it was created for.
type Stepper interface {
	// Step computes this row's output given the (already adapter-converted)
	// argument values and the selected signature.
	Step(ctx StepContext, args []Value, sig types.Signature) (Value, error)
	// Clone produces an independent copy of the stepper's internal state,
	// used when a call site's ctxid is duplicated across parallel branch
	// instances that must not share history (e.g. the same call appearing
	// once per iteration of an unrolled construct is not duplicated this
	// way — only explicit structural duplication is).
	Clone() Stepper
}

// Factory builds a fresh Stepper the first time its built-in is referenced
// inside a given ctxid.
type Factory func() Stepper

// Builtin is one entry in the built-in library: a name, an ordered set of
// signatures (selected first-match, in declaration order), and the
// factory that produces its per-call-site state.
type Builtin struct {
	Name       string
	Signatures []types.Signature
	Factory    Factory
}

// FunctionType returns the types.Function value describing every overload,
// for use as the inferred type of a bare reference to the builtin's name.
func (b *Builtin) FunctionType() types.Function {
	return types.Function{Overloads: b.Signatures}
}

// Registry is an ordered, name-indexed table of built-ins, the shape
// LibInfo hands to the analyser.
type Registry struct {
	order []string
	byName map[string]*Builtin
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Builtin)}
}

// Register adds (or replaces) a builtin. Re-registering an existing name
// keeps its original position in iteration order.
func (r *Registry) Register(b *Builtin) {
	if _, exists := r.byName[b.Name]; !exists {
		r.order = append(r.order, b.Name)
	}
	r.byName[b.Name] = b
}

func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// All returns every registered builtin in registration order.
func (r *Registry) All() []*Builtin {
	out := make([]*Builtin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
