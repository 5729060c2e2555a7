package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenseVectorOutOfBoundsPanics(t *testing.T) {
	ctx := NewContext()
	x := ctx.Vars()
	x.DenseDoubleVector(3)
	assert.Panics(t, func() { x.Index(3) })
	assert.NotPanics(t, func() { x.Index(2) })
}

func TestMixingAccessorKindsPanics(t *testing.T) {
	ctx := NewContext()
	x := ctx.Vars()
	x.Index(0).Key("s")
	assert.Panics(t, func() { x.Index(0).Index(1) })
}

func TestReassignSameValueIsNoop(t *testing.T) {
	ctx := NewContext()
	leaf := ctx.Vars().Index(0)
	leaf.Assign(5)
	assert.NotPanics(t, func() { leaf.Assign(5) })
	assert.Equal(t, 5.0, leaf.value)
}

func TestReassignDifferentValuePanics(t *testing.T) {
	ctx := NewContext()
	leaf := ctx.Vars().Index(0)
	leaf.Assign(5)
	assert.Panics(t, func() { leaf.Assign(6) })
}

func TestFreezeThenMutatePanics(t *testing.T) {
	ctx := NewContext()
	ctx.Vars().Index(0).Assign(1)
	ctx.Freeze()
	assert.Panics(t, func() { ctx.Vars().Index(1).Assign(2) })
}

func TestDeclarationOrderAssignsDenseIndices(t *testing.T) {
	ctx := NewContext()
	b := ctx.Vars().Key("b")
	a := ctx.Vars().Key("a")
	b.Assign(1)
	a.Assign(2)
	assert.Equal(t, 0, b.VarIndex())
	assert.Equal(t, 1, a.VarIndex())
}

func TestCanonicalTraversalOrder(t *testing.T) {
	ctx := NewContext()
	x := ctx.Vars()
	x.Key("b").Index(5).Assign(3)
	x.Key("b").Index(1).Assign(4)
	x.Key("a").Key("zeta").Assign(1)
	x.Key("a").Key("alpha").Assign(2)

	var order []string
	x.walkCanonical(func(n *TreeNode) { order = append(order, n.Path()) })
	require.Equal(t, []string{`x["a"]["alpha"]`, `x["a"]["zeta"]`, `x["b"][1]`, `x["b"][5]`}, order)
}

func TestConstantLeafStillGetsIndex(t *testing.T) {
	ctx := NewContext()
	c := ctx.Vars().Index(0)
	c.SetConstant(7)
	assert.True(t, c.IsConstant())
	assert.Equal(t, 0, c.VarIndex())
	cfg := ctx.Freeze()
	assert.Equal(t, []float64{7}, cfg.X0)
	assert.Equal(t, []bool{true}, cfg.Constant)
}

func TestPathReconstruction(t *testing.T) {
	ctx := NewContext()
	leaf := ctx.Vars().Index(2).Key("foo")
	assert.Equal(t, `x[2]["foo"]`, leaf.Path())
}
