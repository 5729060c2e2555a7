// Package asm emits the small vocabulary of x86-64 System V opcodes the JIT
// code generator needs: push/pop of the few registers it touches, scalar
// double load/store/arithmetic through a register-plus-32-bit-displacement
// operand, and an indirect call through a pointer table. It has no
// dependency on node or vars; the opcode vocabulary is reusable independent
// of who drives it.
package asm

import "math"

// Reg identifies one of the three base registers code here addresses memory
// through, via its ModRM reg/mem encoding byte for a [reg+disp32] operand.
type Reg byte

const (
	RDI Reg = 0x87
	RSI Reg = 0x86
	RBX Reg = 0x83
)

// offsetBytes converts a node/element index into the byte displacement the
// JIT uses, pre-shifted by 16 doubles so every access, regardless of index,
// encodes with a 4-byte (not 1-byte) displacement, keeping every emitted
// instruction the same length. The caller shifts the base pointers down by
// the same 16 doubles before the call.
func offsetBytes(index int64) int32 {
	o := (index + 16) * 8
	if o < 0x80 || o > 0x7fffffff {
		panic("asm: displacement out of the range the uniform-length encoding assumes")
	}
	return int32(o)
}

func le32(v int32) [4]byte {
	u := uint32(v)
	return [4]byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}

// PushRBX, PopRBX, PushRDI, PopRDI, PushRDX, PopRDX, PushRSI, PopRSI emit
// the one-byte push/pop forms.
func PushRBX(code []byte) []byte { return append(code, 0x53) }
func PopRBX(code []byte) []byte  { return append(code, 0x5b) }
func PushRDI(code []byte) []byte { return append(code, 0x57) }
func PopRDI(code []byte) []byte  { return append(code, 0x5f) }
func PushRDX(code []byte) []byte { return append(code, 0x52) }
func PopRDX(code []byte) []byte  { return append(code, 0x5a) }
func PushRSI(code []byte) []byte { return append(code, 0x56) }
func PopRSI(code []byte) []byte  { return append(code, 0x5e) }

// Ret emits a bare `ret`.
func Ret(code []byte) []byte { return append(code, 0xc3) }

// MovRSIRBX emits `mov rsi, rbx`, the 3-byte form the calling sequence uses
// to free rsi (the scratch-array argument) into rbx once the function body
// starts using it as the node-cache base.
func MovRSIRBX(code []byte) []byte { return append(code, 0x48, 0x89, 0xf3) }

// MovAbsStore emits `movabs v, rax` followed by `mov [reg+disp], rax`,
// writing a 64-bit pattern (an inlined double's raw bits) directly into a
// node's scratch slot without round-tripping through an xmm register.
func MovAbsStore(code []byte, reg Reg, index int64, bits uint64) []byte {
	code = append(code, 0x48, 0xb8)
	for i := 0; i < 8; i++ {
		code = append(code, byte(bits))
		bits >>= 8
	}
	code = append(code, 0x48, 0x89, byte(reg))
	d := le32(offsetBytes(index))
	return append(code, d[0], d[1], d[2], d[3])
}

// MovAbsBits packs a float64 into its raw bit pattern, for MovAbsStore
// callers that hold a value rather than already-extracted bits.
func MovAbsBits(v float64) uint64 { return math.Float64bits(v) }

// MovSDLoad emits `movsd xmm0, [reg+disp]`.
func MovSDLoad(code []byte, reg Reg, index int64) []byte {
	code = append(code, 0xf2, 0x0f, 0x10, byte(reg))
	d := le32(offsetBytes(index))
	return append(code, d[0], d[1], d[2], d[3])
}

// MovSDStore emits `movsd [reg+disp], xmm0`.
func MovSDStore(code []byte, reg Reg, index int64) []byte {
	code = append(code, 0xf2, 0x0f, 0x11, byte(reg))
	d := le32(offsetBytes(index))
	return append(code, d[0], d[1], d[2], d[3])
}

func opFromMemory(code []byte, opcode byte, reg Reg, index int64) []byte {
	code = append(code, 0xf2, 0x0f, opcode, byte(reg))
	d := le32(offsetBytes(index))
	return append(code, d[0], d[1], d[2], d[3])
}

// AddSD, SubSD, MulSD, DivSD emit `{add,sub,mul,div}sd [reg+disp], xmm0`:
// xmm0 op= memory operand, result left in xmm0.
func AddSD(code []byte, reg Reg, index int64) []byte { return opFromMemory(code, 0x58, reg, index) }
func SubSD(code []byte, reg Reg, index int64) []byte { return opFromMemory(code, 0x5c, reg, index) }
func MulSD(code []byte, reg Reg, index int64) []byte { return opFromMemory(code, 0x59, reg, index) }
func DivSD(code []byte, reg Reg, index int64) []byte { return opFromMemory(code, 0x5e, reg, index) }

// CallIndirect emits an indirect call through [rdx + 8*(1+index)]: the
// function-pointer table is shifted by one slot so the displacement stays
// single-byte-index-addressable.
func CallIndirect(code []byte, index uint8) []byte {
	if index >= 31 {
		panic("asm: function index does not fit the single-byte displacement scheme")
	}
	value := (index + 1) * 8
	code = append(code, 0xff)
	if value < 0x80 {
		return append(code, 0x52, value)
	}
	return append(code, 0x92, value, 0x00, 0x00, 0x00)
}
