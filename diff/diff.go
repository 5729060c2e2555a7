package diff

import (
	"github.com/fncas-lang/fncas/builder"
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

// singleVarImpl differentiates with respect to one declared, non-constant
// variable; every other variable contributes zero.
type singleVarImpl struct {
	ctx      *vars.Context
	varIndex int
}

func (s singleVarImpl) zero() node.Ref { return builder.Const(s.ctx, 0).Ref() }
func (s singleVarImpl) varDerivative(i int) node.Ref {
	if i == s.varIndex && !s.ctx.IsConstant(i) {
		return builder.Const(s.ctx, 1).Ref()
	}
	return builder.Const(s.ctx, 0).Ref()
}
func (s singleVarImpl) lambdaDerivative() node.Ref { panic(ErrLambdaUnexpected) }
func (s singleVarImpl) operation(tag node.Tag, a, b, da, db node.Ref) node.Ref {
	return differentiateOperation(s.ctx, tag, a, b, da, db)
}
func (s singleVarImpl) function(tag node.Tag, f, x, dx node.Ref) node.Ref {
	return differentiateFunction(s.ctx, tag, f, x, dx)
}

// Differentiate returns df/dx[varIndex]. Panics with ErrNonDifferentiable if f depends on
// unit_step or sigmoid, and with ErrNeedsBalancedTree if the explicit stack
// exceeds conf.MaxDifferentiatorStackDepth.
func Differentiate(ctx *vars.Context, f node.Ref, varIndex int) node.Ref {
	return differentiate[node.Ref](ctx, f, singleVarImpl{ctx: ctx, varIndex: varIndex})
}

// byLambdaImpl differentiates with respect to the lambda sentinel; every
// variable contributes zero since lambda is the only free parameter.
type byLambdaImpl struct{ ctx *vars.Context }

func (b byLambdaImpl) zero() node.Ref              { return builder.Const(b.ctx, 0).Ref() }
func (b byLambdaImpl) varDerivative(int) node.Ref  { return builder.Const(b.ctx, 0).Ref() }
func (b byLambdaImpl) lambdaDerivative() node.Ref  { return builder.Const(b.ctx, 1).Ref() }
func (b byLambdaImpl) operation(tag node.Tag, a, bb, da, db node.Ref) node.Ref {
	return differentiateOperation(b.ctx, tag, a, bb, da, db)
}
func (b byLambdaImpl) function(tag node.Tag, f, x, dx node.Ref) node.Ref {
	return differentiateFunction(b.ctx, tag, f, x, dx)
}

// ByLambda returns dl/dlambda for a 1-D expression built by Directional.
func ByLambda(ctx *vars.Context, l node.Ref) node.Ref {
	return differentiate[node.Ref](ctx, l, byLambdaImpl{ctx: ctx})
}

// allVarsImpl computes the full gradient in one pass, tracking only the
// sparse set of variables with a non-zero partial so far.
type allVarsImpl struct{ ctx *vars.Context }

func (g allVarsImpl) zero() map[int]node.Ref { return nil }
func (g allVarsImpl) varDerivative(i int) map[int]node.Ref {
	if g.ctx.IsConstant(i) {
		return nil
	}
	return map[int]node.Ref{i: builder.Const(g.ctx, 1).Ref()}
}
func (g allVarsImpl) lambdaDerivative() map[int]node.Ref { panic(ErrLambdaUnexpected) }

func (g allVarsImpl) at(m map[int]node.Ref, i int) node.Ref {
	if v, ok := m[i]; ok {
		return v
	}
	return builder.Const(g.ctx, 0).Ref()
}

func (g allVarsImpl) operation(tag node.Tag, a, b node.Ref, da, db map[int]node.Ref) map[int]node.Ref {
	out := map[int]node.Ref{}
	seen := map[int]bool{}
	for i := range da {
		seen[i] = true
	}
	for i := range db {
		seen[i] = true
	}
	for i := range seen {
		out[i] = differentiateOperation(g.ctx, tag, a, b, g.at(da, i), g.at(db, i))
	}
	return out
}

func (g allVarsImpl) function(tag node.Tag, f, x node.Ref, dx map[int]node.Ref) map[int]node.Ref {
	out := make(map[int]node.Ref, len(dx))
	for i, d := range dx {
		out[i] = differentiateFunction(g.ctx, tag, f, x, d)
	}
	return out
}

// Gradient computes the partial derivative of f with respect to every
// declared variable in a single pass.
// The result has length ctx.NumVars(); constant variables and
// variables f does not depend on get an explicit zero constant.
func Gradient(ctx *vars.Context, f node.Ref) []node.Ref {
	sparse := differentiate[map[int]node.Ref](ctx, f, allVarsImpl{ctx: ctx})
	out := make([]node.Ref, ctx.NumVars())
	for i := range out {
		if v, ok := sparse[i]; ok {
			out[i] = v
		} else {
			out[i] = builder.Const(ctx, 0).Ref()
		}
	}
	return out
}
