//go:build amd64 && (linux || darwin) && cgo

package jit

import (
	"sync"

	"github.com/fncas-lang/fncas/builtin"
	"github.com/fncas-lang/fncas/jit/asm"
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

var (
	nativeFnsOnce sync.Once
	nativeFns     []uintptr
)

func getNativeFns() []uintptr {
	nativeFnsOnce.Do(func() { nativeFns = builtin.NativeTable() })
	return nativeFns
}

// Compiler turns expression roots into native machine code, reusing one
// per-node "already computed" bitmap across every Compile* call made from
// it, so a gradient's components compiled one at a time still only
// compute their shared subexpressions once at runtime, as long as they all
// share this Compiler and its CallContext.
type Compiler struct {
	cc         *CallContext
	computed   []bool
	totalNodes int
}

// NewCompiler builds a Compiler bound to cc and reading node records from
// ctx, which must be frozen and open.
func NewCompiler(cc *CallContext, ctx *vars.Context) *Compiler {
	requireContextReady(ctx, cc)
	return &Compiler{
		cc:         cc,
		computed:   make([]bool, cc.cfg.TotalNodes()),
		totalNodes: cc.cfg.TotalNodes(),
	}
}

// ensureOperand recurses into ref if it is a plain node reference; variable,
// inlined-double and lambda refs have nothing to precompute, only to load.
func (c *Compiler) ensureOperand(code []byte, ctx *vars.Context, ref node.Ref) []byte {
	if ref.IsNodeIndex() {
		return c.ensureComputed(code, ctx, ref.AsNodeIndex())
	}
	return code
}

// materializeLeaf writes an inlined double or the lambda sentinel into
// ownIdx's scratch slot, so it can then be read back as an ordinary memory
// operand. Only ever called for an operand with no node index of its own.
// Both operands of one operator can need it (the lambda sentinel and an
// inlined double, say); the first is loaded into xmm0 before the second
// overwrites the slot.
func (c *Compiler) materializeLeaf(code []byte, ref node.Ref, ownIdx uint64) []byte {
	switch {
	case ref.IsInlineDouble():
		return asm.MovAbsStore(code, asm.RBX, int64(ownIdx), asm.MovAbsBits(ref.AsDouble()))
	case ref.IsLambda():
		code = asm.MovSDLoad(code, asm.RBX, int64(c.totalNodes))
		return asm.MovSDStore(code, asm.RBX, int64(ownIdx))
	default:
		panic(ErrNodeIndexOutOfRange)
	}
}

// loadToXMM0 loads ref's value into xmm0, materializing it into ownIdx
// first if it is a leaf with no memory location of its own yet.
func (c *Compiler) loadToXMM0(code []byte, ref node.Ref, ownIdx uint64) []byte {
	switch {
	case ref.IsVar():
		return asm.MovSDLoad(code, asm.RDI, int64(ref.AsVarIndex()))
	case ref.IsNodeIndex():
		return asm.MovSDLoad(code, asm.RBX, int64(ref.AsNodeIndex()))
	default:
		code = c.materializeLeaf(code, ref, ownIdx)
		return asm.MovSDLoad(code, asm.RBX, int64(ownIdx))
	}
}

// applyFromMemory applies opFn with ref's value as the memory operand,
// materializing a leaf operand into ownIdx first if necessary.
func (c *Compiler) applyFromMemory(code []byte, opFn func([]byte, asm.Reg, int64) []byte, ref node.Ref, ownIdx uint64) []byte {
	switch {
	case ref.IsVar():
		return opFn(code, asm.RDI, int64(ref.AsVarIndex()))
	case ref.IsNodeIndex():
		return opFn(code, asm.RBX, int64(ref.AsNodeIndex()))
	default:
		code = c.materializeLeaf(code, ref, ownIdx)
		return opFn(code, asm.RBX, int64(ownIdx))
	}
}

func opcodeFor(tag node.Tag) func([]byte, asm.Reg, int64) []byte {
	switch tag {
	case node.Add:
		return asm.AddSD
	case node.Sub:
		return asm.SubSD
	case node.Mul:
		return asm.MulSD
	case node.Div:
		return asm.DivSD
	default:
		panic("jit: not an operator tag")
	}
}

func (c *Compiler) emitOperator(code []byte, ctx *vars.Context, idx uint64, rec node.Record, tag node.Tag) []byte {
	lhs, rhs := rec.Operands()
	code = c.ensureOperand(code, ctx, lhs)
	code = c.loadToXMM0(code, lhs, idx)
	code = c.ensureOperand(code, ctx, rhs)
	code = c.applyFromMemory(code, opcodeFor(tag), rhs, idx)
	return asm.MovSDStore(code, asm.RBX, int64(idx))
}

func (c *Compiler) emitFunction(code []byte, ctx *vars.Context, idx uint64, rec node.Record, tag node.Tag) []byte {
	arg := rec.Primary()
	code = c.ensureOperand(code, ctx, arg)
	code = c.loadToXMM0(code, arg, idx)
	code = asm.PushRDI(code)
	code = asm.PushRDX(code)
	code = asm.CallIndirect(code, uint8(node.FuncIndex(tag)))
	code = asm.PopRDX(code)
	code = asm.PopRDI(code)
	return asm.MovSDStore(code, asm.RBX, int64(idx))
}

// ensureComputed emits the code to compute node idx into its scratch slot,
// first recursing into its operands, unless idx is already marked computed
// by an earlier call sharing this Compiler. Native-recursive: safe because
// every root this is handed has already passed through balance.Balance,
// bounding depth to O(log n).
func (c *Compiler) ensureComputed(code []byte, ctx *vars.Context, idx uint64) []byte {
	if idx >= uint64(len(c.computed)) {
		panic(ErrNodeIndexOutOfRange)
	}
	if c.computed[idx] {
		return code
	}
	c.computed[idx] = true
	rec := ctx.Node(idx)
	tag := rec.Tag()
	if tag.IsOp() {
		return c.emitOperator(code, ctx, idx, rec, tag)
	}
	return c.emitFunction(code, ctx, idx, rec, tag)
}

// compileBody emits the full calling sequence for a non-degenerate root: the
// node-cache prologue, the recursive computation, loading the result into
// xmm0, and the epilogue.
func (c *Compiler) compileBody(ctx *vars.Context, root node.Ref) []byte {
	if root.IsVar() {
		code := asm.MovSDLoad(nil, asm.RDI, int64(root.AsVarIndex()))
		return asm.Ret(code)
	}
	code := asm.PushRBX(nil)
	code = asm.MovRSIRBX(code)
	idx := root.AsNodeIndex()
	code = c.ensureComputed(code, ctx, idx)
	code = asm.MovSDLoad(code, asm.RBX, int64(idx))
	code = asm.PopRBX(code)
	return asm.Ret(code)
}

func degenerateScalar(root node.Ref) (func([]float64) float64, bool) {
	if root.IsInlineDouble() {
		v := root.AsDouble()
		return func([]float64) float64 { return v }, true
	}
	return nil, false
}

// CompileScalar compiles root into a native Function. root need not be
// balanced itself if it is a leaf (var or inlined double); anything with
// internal structure is expected to have already been through
// balance.Balance so native code generation's recursion terminates.
func (c *Compiler) CompileScalar(ctx *vars.Context, root node.Ref) *Function {
	ordinal := c.cc.nextOrdinal()
	if eval, ok := degenerateScalar(root); ok {
		return &Function{cc: c.cc, ordinal: ordinal, eval: eval}
	}
	code := c.compileBody(ctx, root)
	page, err := newCodePage(code)
	if err != nil {
		panic(err)
	}
	fns := getNativeFns()
	cc := c.cc
	return &Function{cc: cc, ordinal: ordinal, eval: func(x []float64) float64 {
		return page.call(x, cc.scratch, fns)
	}}
}

// CompileWithArgument compiles root (expected to reference the lambda
// sentinel somewhere within it) into a native FunctionWithArgument. Roots
// that folded all the way down to a leaf, an inlined double (a linear
// objective's l'' is the constant 0) or the bare sentinel, need no code.
func (c *Compiler) CompileWithArgument(ctx *vars.Context, root node.Ref) *FunctionWithArgument {
	ordinal := c.cc.nextOrdinal()
	switch {
	case root.IsInlineDouble():
		v := root.AsDouble()
		return &FunctionWithArgument{cc: c.cc, ordinal: ordinal, eval: func([]float64, float64) float64 { return v }}
	case root.IsLambda():
		return &FunctionWithArgument{cc: c.cc, ordinal: ordinal, eval: func(_ []float64, lambda float64) float64 { return lambda }}
	}
	code := c.compileBody(ctx, root)
	page, err := newCodePage(code)
	if err != nil {
		panic(err)
	}
	fns := getNativeFns()
	cc := c.cc
	return &FunctionWithArgument{cc: cc, ordinal: ordinal, eval: func(x []float64, lambda float64) float64 {
		return page.call(x, cc.scratch, fns)
	}}
}

// CompileVector compiles several roots together: the generated code ensures
// every output is computed into scratch (sharing subexpression caching
// across them via the one computed bitmap), and the Go wrapper then reads
// each output's value back out of wherever it actually lives: scratch for
// a plain node, x directly for a variable, or the literal bits for an
// inlined double, since the native code's own return register carries
// only whichever output happened to be computed last.
func (c *Compiler) CompileVector(ctx *vars.Context, roots []node.Ref) *FunctionVector {
	ordinal := c.cc.nextOrdinal()
	code := asm.PushRBX(nil)
	code = asm.MovRSIRBX(code)
	for _, r := range roots {
		code = c.ensureOperand(code, ctx, r)
	}
	code = asm.PopRBX(code)
	code = asm.Ret(code)
	page, err := newCodePage(code)
	if err != nil {
		panic(err)
	}
	fns := getNativeFns()
	cc := c.cc
	outs := append([]node.Ref(nil), roots...)
	return &FunctionVector{cc: cc, ordinal: ordinal, eval: func(x []float64) []float64 {
		page.call(x, cc.scratch, fns)
		out := make([]float64, len(outs))
		for i, r := range outs {
			switch {
			case r.IsVar():
				out[i] = x[r.AsVarIndex()]
			case r.IsInlineDouble():
				out[i] = r.AsDouble()
			default:
				out[i] = cc.scratch[r.AsNodeIndex()]
			}
		}
		return out
	}}
}
