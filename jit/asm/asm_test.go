package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOneByteForms(t *testing.T) {
	assert.Equal(t, []byte{0x53}, PushRBX(nil))
	assert.Equal(t, []byte{0x5b}, PopRBX(nil))
	assert.Equal(t, []byte{0x57}, PushRDI(nil))
	assert.Equal(t, []byte{0x5f}, PopRDI(nil))
	assert.Equal(t, []byte{0x52}, PushRDX(nil))
	assert.Equal(t, []byte{0x5a}, PopRDX(nil))
	assert.Equal(t, []byte{0xc3}, Ret(nil))
	assert.Equal(t, []byte{0x48, 0x89, 0xf3}, MovRSIRBX(nil))
}

func TestMovSDLoadStoreUseFourByteDisplacement(t *testing.T) {
	code := MovSDLoad(nil, RBX, 0)
	require.Len(t, code, 8)
	assert.Equal(t, []byte{0xf2, 0x0f, 0x10, byte(RBX)}, code[:4])

	code = MovSDStore(nil, RDI, 5)
	require.Len(t, code, 8)
	assert.Equal(t, []byte{0xf2, 0x0f, 0x11, byte(RDI)}, code[:4])
}

func TestArithmeticOpcodesDiffer(t *testing.T) {
	add := AddSD(nil, RBX, 0)
	sub := SubSD(nil, RBX, 0)
	mul := MulSD(nil, RBX, 0)
	div := DivSD(nil, RBX, 0)
	assert.Equal(t, byte(0x58), add[2])
	assert.Equal(t, byte(0x5c), sub[2])
	assert.Equal(t, byte(0x59), mul[2])
	assert.Equal(t, byte(0x5e), div[2])
}

func TestOffsetBytesUniformDisplacementLength(t *testing.T) {
	// Every index from 0 up to a few thousand must produce a 4-byte
	// displacement so emitted instructions have uniform length; the
	// +16-doubles shift guarantees the displacement never fits a byte.
	for _, idx := range []int64{0, 1, 100, 100000} {
		code := MovSDLoad(nil, RBX, idx)
		assert.Len(t, code, 8)
	}
}

func TestMovAbsStoreEncodesRawBits(t *testing.T) {
	bits := MovAbsBits(3.5)
	code := MovAbsStore(nil, RBX, 0, bits)
	require.Len(t, code, 2+8+3+4)
	assert.Equal(t, []byte{0x48, 0xb8}, code[:2])
	for i := 0; i < 8; i++ {
		assert.Equal(t, byte(bits), code[2+i])
		bits >>= 8
	}
}

func TestCallIndirectSingleByteDisplacement(t *testing.T) {
	code := CallIndirect(nil, 0)
	assert.Equal(t, []byte{0xff, 0x52, 0x08}, code)
}

func TestCallIndirectRejectsOutOfRangeIndex(t *testing.T) {
	assert.Panics(t, func() { CallIndirect(nil, 31) })
}
