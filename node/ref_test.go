package node

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 3.5, 1e-70, -1e-70, 1e70, -1e70, 2.5e10, 7.5e-10, 123456.789}
	for _, v := range values {
		if !IsRegularDouble(v) {
			continue
		}
		packed := PackDouble(v)
		require.True(t, packed.IsInlineDouble())
		got := packed.AsDouble()
		assert.Equal(t, v, got, "round-trip for %v", v)
	}
}

func TestIsPackedDoubleRequiresBit61(t *testing.T) {
	for _, u := range []uint64{0, 1, 1 << 54, 1 << 55} {
		r := Ref(u)
		assert.False(t, r.IsInlineDouble())
	}
}

func TestRegularDoubleBitLevelDefinition(t *testing.T) {
	for _, v := range []float64{0, 1, -5, 1e200, 1e-200, math.Inf(1), math.NaN()} {
		u := math.Float64bits(v)
		want := ((u ^ (u >> 1)) & (1 << 60)) == 0
		assert.Equal(t, want, IsRegularDouble(v), "mismatch for %v", v)
	}
}

func TestVarRefRoundTrip(t *testing.T) {
	for _, idx := range []uint64{0, 1, 42, 1 << 30} {
		r := VarRef(idx)
		require.True(t, r.IsVar())
		assert.Equal(t, idx, r.AsVarIndex())
		assert.False(t, r.IsNodeIndex())
		assert.False(t, r.IsInlineDouble())
	}
}

func TestIndexRefRoundTrip(t *testing.T) {
	for _, idx := range []uint64{0, 1, 7, 99999} {
		r := IndexRef(idx)
		require.True(t, r.IsNodeIndex())
		assert.Equal(t, idx, r.AsNodeIndex())
		assert.False(t, r.IsVar())
	}
}

func TestLambdaSentinel(t *testing.T) {
	assert.True(t, Lambda.IsLambda())
	assert.False(t, Lambda.IsVar())
	assert.False(t, Lambda.IsNodeIndex())
	assert.False(t, Lambda.IsInlineDouble())
}

func TestSpecialBitsClearedBeforeInterpretation(t *testing.T) {
	r := VarRef(5)
	tainted := r.WithSpecialBit(0, true).WithSpecialBit(1, true)
	assert.True(t, tainted.SpecialBit(0))
	assert.True(t, tainted.SpecialBit(1))
	cleared := tainted.ClearSpecialBits()
	assert.Equal(t, r, cleared)
	assert.True(t, cleared.IsVar())
	assert.Equal(t, uint64(5), cleared.AsVarIndex())
}

func TestUninitializedTraps(t *testing.T) {
	assert.Panics(t, func() { _ = Uninitialized.AsVarIndex() })
	assert.Panics(t, func() { _ = Uninitialized.AsNodeIndex() })
	assert.False(t, Uninitialized.IsNodeIndex())
}
