package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fncas-lang/fncas/vars"
)

func TestRoundTripVectorIntStringMix(t *testing.T) {
	ctx := vars.NewContext()
	ctx.Vars().Index(0).DenseDoubleVector(2)
	ctx.Vars().Index(0).Index(0).Assign(1.5)
	ctx.Vars().Index(0).Index(1).Assign(-2.5)
	ctx.Vars().Index(1).Key("alpha").Assign(3)
	ctx.Vars().Index(1).Key("beta").SetConstant(7)
	ctx.Vars().Index(2).Assign(0).SetConstant()

	cfg := ctx.Freeze()
	data, err := Write(cfg)
	require.NoError(t, err)

	got, err := Read(data)
	require.NoError(t, err)

	assert.Equal(t, cfg.N, got.N)
	assert.Equal(t, cfg.X0, got.X0)
	assert.Equal(t, cfg.Names, got.Names)
	assert.Equal(t, cfg.Constant, got.Constant)
	assert.Equal(t, cfg.Tree, got.Tree)
}

func TestRoundTripEmptyContext(t *testing.T) {
	ctx := vars.NewContext()
	cfg := ctx.Freeze()

	data, err := Write(cfg)
	require.NoError(t, err)

	got, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, 0, got.N)
	assert.Equal(t, vars.DumpUnset, got.Tree.Kind)
}

func TestStringKeysStayLexicographic(t *testing.T) {
	ctx := vars.NewContext()
	ctx.Vars().Key("zeta").Assign(1)
	ctx.Vars().Key("alpha").Assign(2)
	ctx.Vars().Key("mid").Assign(3)
	cfg := ctx.Freeze()

	data, err := Write(cfg)
	require.NoError(t, err)
	got, err := Read(data)
	require.NoError(t, err)

	require.Equal(t, vars.DumpStringMap, got.Tree.Kind)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, got.Tree.StringKeys)
}
