// Package builtin implements the fourteen unary math intrinsics
// (`exp, log, sin, cos, tan, sqr, sqrt, asin, acos, atan,
// unit_step, ramp, sigmoid, log_sigmoid`) plus the indirect-call table the
// JIT-compiled code dispatches through. Funcs is the portable, pure-Go table
// used by the reference oracles (jit.InterpretScalar, jit.NumericGradient)
// and by any build without native codegen; NativeTable (pointers_amd64.go)
// is the real extern-"C" function-pointer table the JIT's indirect calls
// require.
package builtin

import (
	"math"

	"github.com/fncas-lang/fncas/node"
)

func sqr(x float64) float64 { return x * x }

func unitStep(x float64) float64 {
	if x >= 0 {
		return 1
	}
	return 0
}

func ramp(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// logSigmoid is computed as -softplus(-x) rather than math.Log(sigmoid(x))
// to avoid underflow to -Inf for large positive x.
func logSigmoid(x float64) float64 { return -softplus(-x) }

func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// Funcs holds one float64->float64 implementation per entry of node.Functions,
// in the same order, so Funcs[node.FuncIndex(tag)] evaluates tag.
var Funcs = [...]func(float64) float64{
	math.Exp, math.Log, math.Sin, math.Cos, math.Tan,
	sqr, math.Sqrt, math.Asin, math.Acos, math.Atan,
	unitStep, ramp, sigmoid, logSigmoid,
}

// Eval evaluates the named unary function tag at x using the portable table.
func Eval(tag node.Tag, x float64) float64 {
	return Funcs[node.FuncIndex(tag)](x)
}
