package diff

import (
	"github.com/fncas-lang/fncas/builder"
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

// combine builds a `tag` b the way builder.Value's binary operators do,
// except it never hands the builder two already-inlined-double operands.
// The derivative rules below are seeded from literal 0s (a non-matching
// variable's derivative, a constant-marked one's), so terms like "1 + 0" or
// "0 - 1" are the ordinary case here, not a user mistake, unlike
// builder.Value.Add/Sub/Mul/Div, which panic (ErrBothConstants) on a
// genuinely hand-written two-constant expression. combine folds the
// both-constant case arithmetically, and additionally collapses the zero
// identities (x*0, 0*x, x+0, 0+x, x-0, 0-x, 0/x) that a zero-seeded
// derivative produces on nearly every node it passes through, so that a
// derivative that is structurally zero collapses all the way to an inlined
// zero instead of surviving as a live but-always-zero subtree.
// Multiplying or dividing by a literal one is never folded:
// differentiation rules like exp's (dx*f) rely on the "dx*" factor staying
// structurally present even when dx is 1.
func combine(ctx *vars.Context, tag node.Tag, a, b node.Ref) node.Ref {
	aInline, bInline := a.IsInlineDouble(), b.IsInlineDouble()
	if aInline && bInline {
		return constRef(ctx, foldConstants(tag, a.AsDouble(), b.AsDouble()))
	}
	switch tag {
	case node.Add:
		if aInline && a.AsDouble() == 0 {
			return b
		}
		if bInline && b.AsDouble() == 0 {
			return a
		}
	case node.Sub:
		if bInline && b.AsDouble() == 0 {
			return a
		}
		if aInline && a.AsDouble() == 0 {
			return negate(ctx, b)
		}
	case node.Mul:
		if (aInline && a.AsDouble() == 0) || (bInline && b.AsDouble() == 0) {
			return constRef(ctx, 0)
		}
	case node.Div:
		if aInline && a.AsDouble() == 0 {
			return constRef(ctx, 0)
		}
	}
	A, B := builder.FromRef(ctx, a), builder.FromRef(ctx, b)
	switch tag {
	case node.Add:
		return A.Add(B).Ref()
	case node.Sub:
		return A.Sub(B).Ref()
	case node.Mul:
		return A.Mul(B).Ref()
	case node.Div:
		return A.Div(B).Ref()
	default:
		panic("diff: combine called with a non-operator tag")
	}
}

func foldConstants(tag node.Tag, x, y float64) float64 {
	switch tag {
	case node.Add:
		return x + y
	case node.Sub:
		return x - y
	case node.Mul:
		return x * y
	case node.Div:
		return x / y
	default:
		panic("diff: foldConstants called with a non-operator tag")
	}
}

// negate builds -a, the way builder.Value.Neg (0 - a) does, except it folds
// immediately when a is already an inlined double rather than routing
// through a 0-minus-constant builder call.
func negate(ctx *vars.Context, a node.Ref) node.Ref {
	if a.IsInlineDouble() {
		return constRef(ctx, -a.AsDouble())
	}
	return builder.FromRef(ctx, a).Neg().Ref()
}

func constRef(ctx *vars.Context, v float64) node.Ref { return builder.Const(ctx, v).Ref() }

func add(ctx *vars.Context, a, b node.Ref) node.Ref { return combine(ctx, node.Add, a, b) }
func sub(ctx *vars.Context, a, b node.Ref) node.Ref { return combine(ctx, node.Sub, a, b) }
func mul(ctx *vars.Context, a, b node.Ref) node.Ref { return combine(ctx, node.Mul, a, b) }
func div(ctx *vars.Context, a, b node.Ref) node.Ref { return combine(ctx, node.Div, a, b) }

func sin(ctx *vars.Context, a node.Ref) node.Ref { return builder.Sin(builder.FromRef(ctx, a)).Ref() }
func cos(ctx *vars.Context, a node.Ref) node.Ref { return builder.Cos(builder.FromRef(ctx, a)).Ref() }
func sqr(ctx *vars.Context, a node.Ref) node.Ref { return builder.Sqr(builder.FromRef(ctx, a)).Ref() }
func sqrt(ctx *vars.Context, a node.Ref) node.Ref {
	return builder.Sqrt(builder.FromRef(ctx, a)).Ref()
}
func unitStep(ctx *vars.Context, a node.Ref) node.Ref {
	return builder.UnitStep(builder.FromRef(ctx, a)).Ref()
}
func sigmoid(ctx *vars.Context, a node.Ref) node.Ref {
	return builder.Sigmoid(builder.FromRef(ctx, a)).Ref()
}

// differentiateOperation applies the sum/product/quotient rules to one
// binary node, given its own operands (a, b) and their already-computed
// derivatives (da, db).
func differentiateOperation(ctx *vars.Context, tag node.Tag, a, b, da, db node.Ref) node.Ref {
	switch tag {
	case node.Add:
		return add(ctx, da, db)
	case node.Sub:
		return sub(ctx, da, db)
	case node.Mul:
		return add(ctx, mul(ctx, a, db), mul(ctx, b, da))
	case node.Div:
		num := sub(ctx, mul(ctx, b, da), mul(ctx, a, db))
		den := mul(ctx, b, b)
		return div(ctx, num, den)
	default:
		panic("diff: internal error, unknown operation tag")
	}
}

// differentiateFunction applies the chain rule for one of the fourteen unary
// functions. f is the node computing fn(x) itself (needed by exp and sqrt,
// whose derivative is expressed in terms of their own value); x is the
// argument; dx is the argument's already-computed derivative.
func differentiateFunction(ctx *vars.Context, tag node.Tag, f, x, dx node.Ref) node.Ref {
	switch tag {
	case node.Exp:
		return mul(ctx, dx, f)
	case node.Log:
		return div(ctx, dx, x)
	case node.Sin:
		return mul(ctx, dx, cos(ctx, x))
	case node.Cos:
		return mul(ctx, negate(ctx, dx), sin(ctx, x))
	case node.Tan:
		return div(ctx, dx, sqr(ctx, cos(ctx, x)))
	case node.Sqr:
		return mul(ctx, mul(ctx, dx, constRef(ctx, 2)), x)
	case node.Sqrt:
		return div(ctx, dx, mul(ctx, constRef(ctx, 2), f))
	case node.Asin:
		return div(ctx, dx, sqrt(ctx, sub(ctx, constRef(ctx, 1), sqr(ctx, x))))
	case node.Acos:
		return div(ctx, negate(ctx, dx), sqrt(ctx, sub(ctx, constRef(ctx, 1), sqr(ctx, x))))
	case node.Atan:
		return div(ctx, dx, add(ctx, constRef(ctx, 1), sqr(ctx, x)))
	case node.UnitStep:
		panic(ErrNonDifferentiable)
	case node.Ramp:
		return mul(ctx, dx, unitStep(ctx, x))
	case node.Sigmoid:
		panic(ErrNonDifferentiable)
	case node.LogSigmoid:
		return mul(ctx, dx, sigmoid(ctx, negate(ctx, x)))
	default:
		panic("diff: internal error, unknown function tag")
	}
}
