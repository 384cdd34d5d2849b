package types

import "reflect"

// ConvertibleTo implements the implicit-conversion lattice.
// It is intentionally one-way: ConvertibleTo(a, b) does not imply
// ConvertibleTo(b, a).
func ConvertibleTo(from, to Type) bool {
	if Equal(from, to) {
		return true
	}

	switch f := from.(type) {
	case Simple:
		if f.K == KindNa {
			switch to.(type) {
			case Simple, Series:
				return true
			default:
				return false
			}
		}
		switch t := to.(type) {
		case Simple:
			switch f.K {
			case KindInt:
				return t.K == KindBool || t.K == KindFloat
			case KindFloat:
				return t.K == KindBool
			default:
				return false
			}
		case Series:
			if f.K == t.K {
				return true
			}
			switch f.K {
			case KindInt:
				return t.K == KindBool || t.K == KindFloat
			case KindFloat:
				return t.K == KindBool
			default:
				return false
			}
		default:
			return false
		}

	case Series:
		if f.K == KindNa {
			_, ok := to.(Series)
			return ok
		}
		t, ok := to.(Series)
		if !ok {
			return false
		}
		if f.K == t.K {
			return true
		}
		switch f.K {
		case KindInt:
			return t.K == KindBool || t.K == KindFloat
		case KindFloat:
			return t.K == KindBool
		default:
			return false
		}

	case Tuple:
		t, ok := to.(Tuple)
		if !ok || len(f.Elems) != len(t.Elems) {
			return false
		}
		for i := range f.Elems {
			if !ConvertibleTo(f.Elems[i], t.Elems[i]) {
				return false
			}
		}
		return true

	case Any:
		// Any is only used transiently during propagation; treat it as
		// convertible to anything so a not-yet-resolved branch never
		// blocks unification of its siblings.
		return true

	default:
		return reflect.DeepEqual(from, to)
	}
}

// CommonType returns the least upper bound of a and b in the lattice, used
// by the ternary operator, `if`-as-expression, and tuple merges. Returns
// false when neither converts to the other (a type error at the call
// site).
func CommonType(a, b Type) (Type, bool) {
	if Equal(a, b) {
		return a, true
	}
	if ConvertibleTo(a, b) {
		return b, true
	}
	if ConvertibleTo(b, a) {
		return a, true
	}
	return nil, false
}

// SimilarType unifies two operand types for arithmetic/comparison: equal
// up to Int/Float widening, with Na absorbing into the other operand's
// kind and Series lifting taking priority over Simple whenever either
// operand is a Series.
func SimilarType(a, b Type) (Type, bool) {
	ak, aok := ScalarKind(a)
	bk, bok := ScalarKind(b)
	if !aok || !bok {
		return nil, false
	}

	series := IsSeries(a) || IsSeries(b)

	var resultKind Kind
	switch {
	case ak == KindNa && bk == KindNa:
		resultKind = KindNa
	case ak == KindNa:
		resultKind = bk
	case bk == KindNa:
		resultKind = ak
	case ak == bk:
		resultKind = ak
	case ak == KindInt && bk == KindFloat, ak == KindFloat && bk == KindInt:
		resultKind = KindFloat
	default:
		return nil, false
	}

	if series {
		return Series{K: resultKind}, true
	}
	return Simple{K: resultKind}, true
}
