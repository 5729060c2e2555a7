package jit

import (
	"github.com/fncas-lang/fncas/builtin"
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

// evalRef is a recursive, memoizing tree-walking evaluator: the reference
// semantics every other evaluation strategy (native JIT, the non-amd64
// fallback Compiler) is checked against. Recursive and unbounded in stack
// depth, so it is only appropriate for already-balanced expressions or
// small test fixtures.
func evalRef(ctx *vars.Context, cache []float64, computed []bool, x []float64, lambda float64, ref node.Ref) float64 {
	switch {
	case ref.IsInlineDouble():
		return ref.AsDouble()
	case ref.IsVar():
		return x[ref.AsVarIndex()]
	case ref.IsLambda():
		return lambda
	default:
		idx := ref.AsNodeIndex()
		if computed[idx] {
			return cache[idx]
		}
		rec := ctx.Node(idx)
		tag := rec.Tag()
		var v float64
		if tag.IsOp() {
			lhs, rhs := rec.Operands()
			a := evalRef(ctx, cache, computed, x, lambda, lhs)
			b := evalRef(ctx, cache, computed, x, lambda, rhs)
			switch tag {
			case node.Add:
				v = a + b
			case node.Sub:
				v = a - b
			case node.Mul:
				v = a * b
			case node.Div:
				v = a / b
			}
		} else {
			arg := evalRef(ctx, cache, computed, x, lambda, rec.Primary())
			v = builtin.Eval(tag, arg)
		}
		cache[idx] = v
		computed[idx] = true
		return v
	}
}
