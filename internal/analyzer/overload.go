package analyzer

import (
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// selectOverload picks the first signature, in declaration order, whose
// parameters every argument type converts to; ties go to the earliest
// match. It also derives the per-argument adapter the
// evaluator must apply at runtime to turn the argument value into the
// parameter's declared kind.
func selectOverload(sigs []types.Signature, argTypes []types.Type) (types.Signature, []library.Adapter, bool) {
	for _, sig := range sigs {
		if !arityMatches(sig, len(argTypes)) {
			continue
		}
		adapters := make([]library.Adapter, len(argTypes))
		ok := true
		for i, at := range argTypes {
			pt := paramTypeAt(sig, i)
			if !types.ConvertibleTo(at, pt) {
				ok = false
				break
			}
			adapters[i] = adapterFor(at, pt)
		}
		if ok {
			return sig, adapters, true
		}
	}
	return types.Signature{}, nil, false
}

func arityMatches(sig types.Signature, n int) bool {
	if sig.Variadic {
		return n >= len(sig.Params)-1
	}
	return n == len(sig.Params)
}

func paramTypeAt(sig types.Signature, i int) types.Type {
	if sig.Variadic && i >= len(sig.Params)-1 {
		return sig.Params[len(sig.Params)-1]
	}
	return sig.Params[i]
}

// adapterFor derives the implicit conversion the evaluator must apply to an
// argument already known (by ConvertibleTo) to be acceptable for pt.
func adapterFor(at, pt types.Type) library.Adapter {
	if types.Equal(at, pt) {
		return library.AdapterIdentity
	}

	ak, aIsScalar := types.ScalarKind(at)
	pk, pIsScalar := types.ScalarKind(pt)

	if aIsScalar && ak == types.KindNa {
		return library.AdapterNaBroadcast
	}

	if types.IsSimple(at) && types.IsSeries(pt) {
		if pIsScalar && ak != pk {
			return library.AdapterIntToFloat
		}
		return library.AdapterScalarToSeries
	}

	if aIsScalar && pIsScalar && ak != pk {
		return library.AdapterIntToFloat
	}

	return library.AdapterIdentity
}
