// Package types implements the Pine type lattice: a small, closed set of
// scalar kinds, their Simple/Series forms, and the strictly one-way
// implicit-conversion rules the analyser uses to check assignments and
// select overloads. The lattice is closed and finite, so ConvertibleTo/
// CommonType/SimilarType are plain table lookups, not substitution-based
// unification.
package types

import (
	"fmt"
	"strings"
)

// Kind is one of the six scalar categories the value domain defines.
type Kind int

const (
	KindNa Kind = iota
	KindBool
	KindInt
	KindFloat
	KindColor
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNa:
		return "na"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindColor:
		return "color"
	case KindString:
		return "string"
	default:
		return "<invalid kind>"
	}
}

// Type is the interface every composite form in the lattice implements.
type Type interface {
	String() string
	// isType is unexported so Type can only be implemented within this
	// package — the set of composite forms is closed.
	isType()
}

// Simple is a scalar value category: Na, Bool, Int, Float, Color, String.
type Simple struct{ K Kind }

func (Simple) isType()        {}
func (s Simple) String() string { return s.K.String() }

// Series is a restartable, append-only history of Option<Kind> values.
type Series struct{ K Kind }

func (Series) isType()        {}
func (s Series) String() string { return "series<" + s.K.String() + ">" }

// Tuple is the type of a parenthesised or destructured multi-value.
type Tuple struct{ Elems []Type }

func (Tuple) isType() {}
func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Signature is one entry in a Function's overload set: a list of
// parameter types and a return type. Overload selection is
// "first signature, in declaration order, whose parameters every argument
// converts to."
type Signature struct {
	Name    string
	Params  []Type
	Return  Type
	// Variadic, when true, means the last entry of Params may repeat zero
	// or more times. None of the built-ins in this repo use it, but the
	// contract supports it.
	Variadic bool
}

func (s Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + s.Return.String()
}

// Function is the type of a built-in or user-defined callable: a closed,
// ordered set of signatures.
type Function struct {
	Overloads []Signature
}

func (Function) isType() {}
func (f Function) String() string {
	parts := make([]string, len(f.Overloads))
	for i, o := range f.Overloads {
		parts[i] = o.String()
	}
	return "fn" + "{" + strings.Join(parts, " | ") + "}"
}

// ObjectNamespace is a dotted-access namespace such as a prefix chain's
// root (`a.b.c` walks a's ObjectNamespace looking up "b", then "c").
type ObjectNamespace struct {
	Fields map[string]Type
}

func (ObjectNamespace) isType() {}
func (o ObjectNamespace) String() string {
	return fmt.Sprintf("namespace{%d fields}", len(o.Fields))
}

// Any is the top type used only transiently during propagation (e.g. the
// type of an expression whose branches haven't all been visited yet). A
// fully analysed program never has an Any type remaining on any node.
type Any struct{}

func (Any) isType()        {}
func (Any) String() string { return "any" }

// Convenience constructors mirroring common literals.
var (
	NaSimple     = Simple{K: KindNa}
	BoolSimple   = Simple{K: KindBool}
	IntSimple    = Simple{K: KindInt}
	FloatSimple  = Simple{K: KindFloat}
	ColorSimple  = Simple{K: KindColor}
	StringSimple = Simple{K: KindString}

	NaSeries     = Series{K: KindNa}
	BoolSeries   = Series{K: KindBool}
	IntSeries    = Series{K: KindInt}
	FloatSeries  = Series{K: KindFloat}
	ColorSeries  = Series{K: KindColor}
	StringSeries = Series{K: KindString}
)

// IsSeries reports whether t is any Series(k).
func IsSeries(t Type) bool {
	_, ok := t.(Series)
	return ok
}

// IsSimple reports whether t is any Simple(k).
func IsSimple(t Type) bool {
	_, ok := t.(Simple)
	return ok
}

// ScalarKind returns the underlying Kind of a Simple or Series type, and
// false for any other form.
func ScalarKind(t Type) (Kind, bool) {
	switch v := t.(type) {
	case Simple:
		return v.K, true
	case Series:
		return v.K, true
	default:
		return 0, false
	}
}

// AsSeries returns the Series form of a Simple(k)/Series(k) type.
func AsSeries(t Type) (Series, bool) {
	if k, ok := ScalarKind(t); ok {
		return Series{K: k}, true
	}
	return Series{}, false
}

// Equal reports structural equality of two types (not convertibility).
func Equal(a, b Type) bool {
	switch av := a.(type) {
	case Simple:
		bv, ok := b.(Simple)
		return ok && av.K == bv.K
	case Series:
		bv, ok := b.(Series)
		return ok && av.K == bv.K
	case Any:
		_, ok := b.(Any)
		return ok
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
