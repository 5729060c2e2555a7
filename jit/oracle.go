package jit

import (
	"github.com/fncas-lang/fncas/conf"
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

// InterpretScalar evaluates root directly against x, without compiling
// anything: the reference oracle a native-JIT result is cross-checked
// against in tests. Not on the optimizer's hot path.
func InterpretScalar(ctx *vars.Context, totalNodes int, root node.Ref, x []float64) float64 {
	cache := make([]float64, totalNodes)
	computed := make([]bool, totalNodes)
	return evalRef(ctx, cache, computed, x, 0, root)
}

// InterpretWithArgument is InterpretScalar plus a free scalar bound to the
// lambda sentinel, for cross-checking a compiled FunctionWithArgument.
func InterpretWithArgument(ctx *vars.Context, totalNodes int, root node.Ref, x []float64, lambda float64) float64 {
	cache := make([]float64, totalNodes)
	computed := make([]bool, totalNodes)
	return evalRef(ctx, cache, computed, x, lambda, root)
}

// InterpretGradient evaluates several roots against one x, sharing common
// subexpression caching across them the way a compiled FunctionVector would.
func InterpretGradient(ctx *vars.Context, totalNodes int, roots []node.Ref, x []float64) []float64 {
	out := make([]float64, len(roots))
	cache := make([]float64, totalNodes)
	computed := make([]bool, totalNodes)
	for i, r := range roots {
		out[i] = evalRef(ctx, cache, computed, x, 0, r)
	}
	return out
}

// NumericGradient computes the central-difference numeric gradient of root
// at x with step conf.FiniteDifferenceDelta, a reference for diff's analytic
// Gradient.
func NumericGradient(ctx *vars.Context, totalNodes int, root node.Ref, x []float64) []float64 {
	out := make([]float64, len(x))
	xp := append([]float64(nil), x...)
	xm := append([]float64(nil), x...)
	for i := range x {
		xp[i] += conf.FiniteDifferenceDelta
		xm[i] -= conf.FiniteDifferenceDelta
		fp := InterpretScalar(ctx, totalNodes, root, xp)
		fm := InterpretScalar(ctx, totalNodes, root, xm)
		out[i] = (fp - fm) / (2 * conf.FiniteDifferenceDelta)
		xp[i] = x[i]
		xm[i] = x[i]
	}
	return out
}
