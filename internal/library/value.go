// Package library defines the built-in function contract: the shape of a
// built-in's signature set, the per-ctxid stateful Stepper its Factory
// produces, and the runtime Value every stepper consumes and returns. It
// sits below package evaluator so both evaluator and analyzer can depend
// on it without a cycle.
package library

import (
	"fmt"

	"github.com/kaigouthro/pine-lang/internal/types"
)

// Value is the tagged runtime representation of one scalar in the value
// domain: Na, Bool, Int, Float, Color, String. A series is
// never represented directly as a Value — it is a history of Values owned
// by the evaluator's per-identity ring buffers; a Value is always a single
// row's scalar.
type Value struct {
	Kind types.Kind
	Na   bool
	Bool bool
	Int  int64
	Flt  float64
	Str  string // used for both String and Color kinds
}

// Na constructs the absent value of the given kind. Na carries a Kind so
// that an Na produced at a Series(k) call site still prints and converts
// sensibly, but Kind is otherwise ignored by every Na-aware operation.
func Na(k types.Kind) Value { return Value{Kind: k, Na: true} }

func Bool(b bool) Value   { return Value{Kind: types.KindBool, Bool: b} }
func Int(i int64) Value   { return Value{Kind: types.KindInt, Int: i} }
func Float(f float64) Value { return Value{Kind: types.KindFloat, Flt: f} }
func String(s string) Value { return Value{Kind: types.KindString, Str: s} }
func Color(s string) Value  { return Value{Kind: types.KindColor, Str: s} }

// IsNa reports whether v is the absent value.
func (v Value) IsNa() bool { return v.Na }

// AsFloat widens v to a float64, treating Int and Bool as numeric. Returns
// (0, false) for Na, String, and Color.
func (v Value) AsFloat() (float64, bool) {
	if v.Na {
		return 0, false
	}
	switch v.Kind {
	case types.KindFloat:
		return v.Flt, true
	case types.KindInt:
		return float64(v.Int), true
	case types.KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsInt narrows v to an int64. Returns (0, false) for Na, Float, String,
// and Color: Float never implicitly narrows to Int.
func (v Value) AsInt() (int64, bool) {
	if v.Na {
		return 0, false
	}
	switch v.Kind {
	case types.KindInt:
		return v.Int, true
	case types.KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsBool truthifies v. Na is false, the same absorption comparisons
// apply, extended to truthiness.
func (v Value) AsBool() bool {
	if v.Na {
		return false
	}
	switch v.Kind {
	case types.KindBool:
		return v.Bool
	case types.KindInt:
		return v.Int != 0
	case types.KindFloat:
		return v.Flt != 0
	default:
		return true
	}
}

func (v Value) String() string {
	if v.Na {
		return "na"
	}
	switch v.Kind {
	case types.KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case types.KindInt:
		return fmt.Sprintf("%d", v.Int)
	case types.KindFloat:
		return fmt.Sprintf("%g", v.Flt)
	case types.KindColor, types.KindString:
		return v.Str
	default:
		return "na"
	}
}

// ConvertTo converts v to kind to, yielding the value as it appears once
// bound to a parameter of that kind. This is the only place Value-level
// implicit conversion happens; the analyser decides *whether* a conversion
// is needed (types.ConvertibleTo) and Adapter.Apply calls this
// per-argument.
func ConvertTo(v Value, to types.Kind) Value {
	if v.Na {
		return Na(to)
	}
	if v.Kind == to {
		return v
	}
	switch to {
	case types.KindFloat:
		if f, ok := v.AsFloat(); ok {
			return Float(f)
		}
	case types.KindBool:
		return Bool(v.AsBool())
	}
	return v
}
