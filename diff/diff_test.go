package diff

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fncas-lang/fncas/balance"
	"github.com/fncas-lang/fncas/builder"
	"github.com/fncas-lang/fncas/conf"
	"github.com/fncas-lang/fncas/jit"
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

func newVar(ctx *vars.Context, i int, start float64) builder.Value {
	leaf := ctx.Vars().Index(i)
	leaf.Assign(start)
	return builder.V(leaf)
}

// eval interprets ref at x against a still-open ctx, without requiring a
// Freeze; the differentiator may still want to append further nodes in
// the same test, so tests that need to evaluate mid-construction use the
// context's live node count directly.
func eval(ctx *vars.Context, ref node.Ref, x []float64) float64 {
	return jit.InterpretScalar(ctx, ctx.NodeCount(), ref, x)
}

func TestSumDerivativeIsOne(t *testing.T) {
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 2)
	x1 := newVar(ctx, 1, 3)
	f := x0.Add(x1)
	d := Differentiate(ctx, f.Ref(), 0)
	require.True(t, d.IsInlineDouble())
	assert.Equal(t, 1.0, d.AsDouble())
}

func TestProductDerivativeAgreesWithOtherOperand(t *testing.T) {
	// f = x0*x1; df/dx0 evaluates to x1's value everywhere: the x0*0 term the
	// product rule introduces folds to zero, and the remaining product of x1
	// and 1 is left unfolded.
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 2)
	x1 := newVar(ctx, 1, 3)
	f := x0.Mul(x1)
	d := Differentiate(ctx, f.Ref(), 0)
	got := eval(ctx, d, []float64{2, 3})
	assert.InDelta(t, 3.0, got, 1e-12)
}

func TestExpDerivativeIsSelfStructurally(t *testing.T) {
	// f = exp(x0); df/dx0 = x0' * f = 1 * f, a single Mul node, checkable
	// structurally since the chain rule here introduces no further terms.
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 1)
	f := builder.Exp(x0)
	d := Differentiate(ctx, f.Ref(), 0)
	require.True(t, d.IsNodeIndex())
	rec := ctx.Node(d.AsNodeIndex())
	assert.Equal(t, node.Mul, rec.Tag())
	lhs, rhs := rec.Operands()
	require.True(t, lhs.IsInlineDouble())
	assert.Equal(t, 1.0, lhs.AsDouble())
	assert.Equal(t, f.Ref(), rhs)
}

func TestUnitStepNotDifferentiable(t *testing.T) {
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 1)
	f := builder.UnitStep(x0)
	require.PanicsWithValue(t, ErrNonDifferentiable, func() { Differentiate(ctx, f.Ref(), 0) })
}

func TestSigmoidNotDifferentiable(t *testing.T) {
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 1)
	f := builder.Sigmoid(x0)
	require.PanicsWithValue(t, ErrNonDifferentiable, func() { Differentiate(ctx, f.Ref(), 0) })
}

func TestLogSigmoidDerivativeUsesSigmoidOfNegation(t *testing.T) {
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 0.5)
	f := builder.LogSigmoid(x0)
	d := Differentiate(ctx, f.Ref(), 0)
	got := eval(ctx, d, []float64{0.5})
	want := 1 / (1 + math.Exp(0.5))
	assert.InDelta(t, want, got, 1e-12)
}

func TestConstantVariableHasZeroDerivativeForEveryFunction(t *testing.T) {
	ctx := vars.NewContext()
	c := ctx.Vars().Index(0)
	c.SetConstant(5)
	cv := builder.V(c)
	x1 := newVar(ctx, 1, 2)

	for _, f := range []builder.Value{
		cv.Add(x1), cv.Mul(x1), builder.Exp(cv), builder.Sin(cv).Mul(x1),
	} {
		d := Differentiate(ctx, f.Ref(), 0)
		require.True(t, d.IsInlineDouble())
		assert.Equal(t, 0.0, d.AsDouble())
	}
}

func TestGradientOfSumOfSquares(t *testing.T) {
	// Gradient of sqr(x0) + 2*sqr(x1) is structurally [2*x0, 2*(2*x1)];
	// checked numerically since the builder performs no folding.
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 3)
	x1 := newVar(ctx, 1, 5)
	f := builder.Sqr(x0).Add(builder.Const(ctx, 2).Mul(builder.Sqr(x1)))
	g := Gradient(ctx, f.Ref())
	require.Len(t, g, 2)
	x := []float64{3, 5}
	assert.InDelta(t, 2*3.0, eval(ctx, g[0], x), 1e-9)
	assert.InDelta(t, 2*2*5.0, eval(ctx, g[1], x), 1e-9)
}

func TestDeepUnbalancedChainNeedsBalanceFirst(t *testing.T) {
	// A chain deeper than the explicit stack budget must fail with the
	// dedicated error pointing at the balancer; the same expression
	// differentiates fine once balanced.
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 1)
	terms := conf.MaxDifferentiatorStackDepth + 16
	sum := x0
	for i := 1; i < terms; i++ {
		sum = sum.Add(x0)
	}
	require.PanicsWithValue(t, ErrNeedsBalancedTree, func() { Differentiate(ctx, sum.Ref(), 0) })

	balance.Balance(ctx, sum.Ref())
	d := Differentiate(ctx, sum.Ref(), 0)
	require.True(t, d.IsInlineDouble())
	assert.Equal(t, float64(terms), d.AsDouble())
}

func TestDirectionalReusesVariableFreeSubtrees(t *testing.T) {
	// f = x0 * sqrt(sin(2)): the nested constant subtree contains no
	// variable reference, so substitution must hand back the original
	// nodes rather than identical copies.
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 1)
	konst := builder.Sqrt(builder.Sin(builder.Const(ctx, 2)))
	f := x0.Mul(konst)
	g := Gradient(ctx, f.Ref())
	l := Directional(ctx, f.Ref(), g)

	require.True(t, l.IsNodeIndex())
	seen := map[uint64]bool{}
	stack := []node.Ref{l}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !r.IsNodeIndex() {
			continue
		}
		idx := r.AsNodeIndex()
		if seen[idx] {
			continue
		}
		seen[idx] = true
		rec := ctx.Node(idx)
		if rec.Tag().IsOp() {
			lhs, rhs := rec.Operands()
			stack = append(stack, lhs, rhs)
		} else {
			stack = append(stack, rec.Primary())
		}
	}
	assert.True(t, seen[konst.Ref().AsNodeIndex()],
		"l must reference the original constant subtree, not a rebuilt copy")
}

func TestByLambdaOfDirectional(t *testing.T) {
	ctx := vars.NewContext()
	x0 := newVar(ctx, 0, 0)
	f := builder.Sqr(x0.Sub(builder.Const(ctx, 3)))
	g := Gradient(ctx, f.Ref())
	l := Directional(ctx, f.Ref(), g)
	ld := ByLambda(ctx, l)

	cfg := ctx.Freeze()
	total := cfg.TotalNodes()
	// l(lambda) = (x0 + lambda*g0 - 3)^2 with x0=0, g0 = 2*(x0-3) = -6.
	got0 := jit.InterpretWithArgument(ctx, total, l, cfg.X0, 0)
	assert.InDelta(t, 9.0, got0, 1e-9)
	gotD0 := jit.InterpretWithArgument(ctx, total, ld, cfg.X0, 0)
	// l'(0) should equal 2*(x0-3)*g0 = 2*(-3)*(-6) = 36.
	assert.InDelta(t, 36.0, gotD0, 1e-6)
}

// TestNumericAgreement checks the analytic derivative of every unary
// function and every binary operator against the central difference at a
// fixed grid of non-pathological points.
func TestNumericAgreement(t *testing.T) {
	delta := 1e-5

	unary := []struct {
		name string
		fn   func(builder.Value) builder.Value
		pts  []float64
	}{
		{"exp", builder.Exp, []float64{-1, 0, 1, 2}},
		{"log", builder.Log, []float64{0.5, 1, 2, 5}},
		{"sin", builder.Sin, []float64{-1, 0, 0.5, 2}},
		{"cos", builder.Cos, []float64{-1, 0, 0.5, 2}},
		{"tan", builder.Tan, []float64{-0.5, 0, 0.5}},
		{"sqr", builder.Sqr, []float64{-2, 0.3, 1, 3}},
		{"sqrt", builder.Sqrt, []float64{0.2, 1, 4, 9}},
		{"asin", builder.Asin, []float64{-0.5, 0, 0.5}},
		{"acos", builder.Acos, []float64{-0.5, 0, 0.5}},
		{"atan", builder.Atan, []float64{-2, 0, 2}},
		{"ramp", builder.Ramp, []float64{-1, 1, 2}},
		{"logSigmoid", builder.LogSigmoid, []float64{-2, 0, 2}},
	}

	for _, tc := range unary {
		for _, p := range tc.pts {
			ctx := vars.NewContext()
			x0 := newVar(ctx, 0, p)
			f := tc.fn(x0)
			d := Differentiate(ctx, f.Ref(), 0)
			analytic := eval(ctx, d, []float64{p})
			numeric := (eval(ctx, f.Ref(), []float64{p + delta}) - eval(ctx, f.Ref(), []float64{p - delta})) / (2 * delta)
			assert.InDeltaf(t, numeric, analytic, 1e-5, "%s at %v", tc.name, p)
		}
	}
}

func TestNumericAgreementBinaryOps(t *testing.T) {
	delta := 1e-5
	ops := []func(builder.Value, builder.Value) builder.Value{
		func(a, b builder.Value) builder.Value { return a.Add(b) },
		func(a, b builder.Value) builder.Value { return a.Sub(b) },
		func(a, b builder.Value) builder.Value { return a.Mul(b) },
		func(a, b builder.Value) builder.Value { return a.Div(b) },
	}
	for _, op := range ops {
		ctx := vars.NewContext()
		x0 := newVar(ctx, 0, 1.7)
		x1 := newVar(ctx, 1, -0.4)
		f := op(x0, x1)
		d := Differentiate(ctx, f.Ref(), 0)
		x := []float64{1.7, -0.4}
		analytic := eval(ctx, d, x)
		fwd := eval(ctx, f.Ref(), []float64{x[0] + delta, x[1]})
		bwd := eval(ctx, f.Ref(), []float64{x[0] - delta, x[1]})
		numeric := (fwd - bwd) / (2 * delta)
		assert.InDelta(t, numeric, analytic, 1e-5)
	}
}
