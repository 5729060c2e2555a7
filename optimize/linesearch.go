// Package optimize implements the line search and outer gradient-descent
// loop, operating entirely on already-JIT-compiled functions; it builds no
// expressions of its own.
package optimize

import (
	"math"

	"github.com/fncas-lang/fncas/conf"
	"github.com/fncas-lang/fncas/jit"
)

// IntermediatePoint is one probed point of a line search: the step tried,
// the directional value there, and its derivative.
type IntermediatePoint struct {
	Step float64
	F    float64
	Df   float64
}

// SearchResult is a line search's outcome: the best step found and the
// full probe trace.
type SearchResult struct {
	BestStep float64
	Path     []IntermediatePoint
}

// isNormal accepts finite values only (NaN and +-Inf are rejected); zero
// and subnormals pass.
func isNormal(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Search runs a simple Newton-style line search along the
// 1-D functions l = ℓ(λ), ld = ℓ'(λ), ldd = ℓ''(λ), all already JIT-compiled
// and sharing cc and the caller-held point x. When opts.Elaborated is set,
// an undershoot (ℓ'(λ1) > 0) extends the bracket exponentially and
// refines by secant instead of returning λ1 directly.
func Search(cc *jit.CallContext, l, ld, ldd *jit.FunctionWithArgument, x []float64, opts Options) (SearchResult, error) {
	v0 := l.Call(cc, x, 0)
	d0 := ld.Call(cc, x, 0)
	path := []IntermediatePoint{{Step: 0, F: v0, Df: d0}}

	if !isNormal(v0) || !isNormal(d0) {
		return SearchResult{}, ErrNonNormalStart
	}
	if d0 < 0 {
		return SearchResult{}, ErrNegativeStartDerivative
	}
	if d0 == 0 {
		return SearchResult{BestStep: 0, Path: path}, nil
	}

	d0dd := ldd.Call(cc, x, 0)
	if !isNormal(d0dd) || d0dd == 0 {
		return SearchResult{}, ErrDegenerateCurvature
	}

	lambda1 := -d0 / d0dd
	v1 := l.Call(cc, x, lambda1)
	d1 := ld.Call(cc, x, lambda1)
	path = append(path, IntermediatePoint{Step: lambda1, F: v1, Df: d1})

	switch {
	case math.Abs(d1) < conf.LineSearchTolerance:
		return SearchResult{BestStep: lambda1, Path: path}, nil
	case d1 < 0:
		return newtonBisect(cc, l, ld, x, 0, d0, lambda1, d1, path)
	default:
		if opts.Elaborated {
			return elaboratedExtend(cc, l, ld, x, lambda1, d1, path)
		}
		return SearchResult{BestStep: lambda1, Path: path}, nil
	}
}

// newtonBisect narrows the bracket [a,b], whose derivatives va >= 0 and
// vb < 0 straddle zero, by secant interpolation on the derivative values,
// for up to conf.MaxNewtonRefinements iterations or until the derivative
// falls below tolerance.
func newtonBisect(cc *jit.CallContext, l, ld *jit.FunctionWithArgument, x []float64, a, va, b, vb float64, path []IntermediatePoint) (SearchResult, error) {
	best := b
	for i := 0; i < conf.MaxNewtonRefinements; i++ {
		if vb == va {
			return SearchResult{}, ErrDegenerateCurvature
		}
		c := a - va*(b-a)/(vb-va)
		fc := l.Call(cc, x, c)
		vc := ld.Call(cc, x, c)
		path = append(path, IntermediatePoint{Step: c, F: fc, Df: vc})
		best = c
		if math.Abs(vc) < conf.LineSearchTolerance {
			break
		}
		if vc < 0 {
			b, vb = c, vc
		} else {
			a, va = c, vc
		}
	}
	return SearchResult{BestStep: best, Path: path}, nil
}

// elaboratedExtend is the opt-in undershoot handling: double the step until
// the derivative goes negative (bracketing a zero-crossing further out than
// lambda1), then hand the bracket to the same secant refinement newtonBisect
// uses.
func elaboratedExtend(cc *jit.CallContext, l, ld *jit.FunctionWithArgument, x []float64, a, va float64, path []IntermediatePoint) (SearchResult, error) {
	b, vb := a, va
	for i := 0; i < conf.MaxNewtonRefinements && vb > 0; i++ {
		b *= 2
		fb := l.Call(cc, x, b)
		vb = ld.Call(cc, x, b)
		path = append(path, IntermediatePoint{Step: b, F: fb, Df: vb})
	}
	if vb > 0 {
		return SearchResult{BestStep: b, Path: path}, nil
	}
	return newtonBisect(cc, l, ld, x, a, va, b, vb, path)
}
