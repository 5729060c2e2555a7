package builtin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fncas-lang/fncas/node"
)

func TestEvalMatchesMathLib(t *testing.T) {
	cases := []struct {
		tag  node.Tag
		x    float64
		want float64
	}{
		{node.Exp, 1, math.Exp(1)},
		{node.Log, 2, math.Log(2)},
		{node.Sin, 0.5, math.Sin(0.5)},
		{node.Cos, 0.5, math.Cos(0.5)},
		{node.Tan, 0.5, math.Tan(0.5)},
		{node.Sqr, 3, 9},
		{node.Sqrt, 9, 3},
		{node.Asin, 0.5, math.Asin(0.5)},
		{node.Acos, 0.5, math.Acos(0.5)},
		{node.Atan, 0.5, math.Atan(0.5)},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, Eval(c.tag, c.x), 1e-12)
	}
}

func TestUnitStepAndRamp(t *testing.T) {
	assert.Equal(t, 1.0, Eval(node.UnitStep, 0))
	assert.Equal(t, 1.0, Eval(node.UnitStep, 3))
	assert.Equal(t, 0.0, Eval(node.UnitStep, -3))

	assert.Equal(t, 0.0, Eval(node.Ramp, -3))
	assert.Equal(t, 0.0, Eval(node.Ramp, 0))
	assert.Equal(t, 3.0, Eval(node.Ramp, 3))
}

func TestSigmoidBounds(t *testing.T) {
	assert.InDelta(t, 0.5, Eval(node.Sigmoid, 0), 1e-12)
	assert.Greater(t, Eval(node.Sigmoid, 10), 0.999)
	assert.Less(t, Eval(node.Sigmoid, -10), 0.001)
}

func TestLogSigmoidAvoidsUnderflow(t *testing.T) {
	// log(sigmoid(x)) would naively underflow to -Inf for large x; the
	// softplus-based implementation must stay finite and match the
	// mathematical identity for moderate x.
	got := Eval(node.LogSigmoid, 40)
	assert.False(t, math.IsInf(got, 0))
	assert.Less(t, got, 0.0)

	x := 0.3
	want := math.Log(Eval(node.Sigmoid, x))
	assert.InDelta(t, want, Eval(node.LogSigmoid, x), 1e-9)
}

func TestFuncsTableOrderMatchesFuncIndex(t *testing.T) {
	for _, tag := range node.Functions {
		idx := node.FuncIndex(tag)
		assert.NotPanics(t, func() { _ = Funcs[idx] })
	}
}
