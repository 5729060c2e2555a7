package fncas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fncas-lang/fncas/builder"
	"github.com/fncas-lang/fncas/optimize"
)

// TestObjectiveOptimizeQuadratic exercises the full host-facing facade end
// to end: declare variables, build an expression, freeze, JIT-compile, and
// run gradient descent on a shifted quadratic bowl.
func TestObjectiveOptimizeQuadratic(t *testing.T) {
	ctx := NewContext()
	x0 := ctx.Vars().Index(0)
	x0.Assign(0)
	x1 := ctx.Vars().Index(1)
	x1.Assign(0)
	v0, v1 := builder.V(x0), builder.V(x1)

	f := builder.Sqr(v0.Sub(builder.Const(ctx, 3))).Add(builder.Sqr(v1.Sub(builder.Const(ctx, 5))))

	obj := Prepare(ctx, f.Ref())
	result, err := obj.Optimize(obj.Config().X0, optimize.DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, 3.0, result.FinalPoint[0], 1e-8)
	assert.InDelta(t, 5.0, result.FinalPoint[1], 1e-8)
	assert.InDelta(t, 0.0, result.FinalValue, 1e-8)
}

func TestPrepareFreezesContext(t *testing.T) {
	ctx := NewContext()
	x0 := ctx.Vars().Index(0)
	x0.Assign(1)
	f := builder.Sqr(builder.V(x0))

	require.False(t, ctx.Frozen())
	Prepare(ctx, f.Ref())
	assert.True(t, ctx.Frozen())
	assert.Panics(t, func() { ctx.Vars().Index(1).Assign(2) })
}
