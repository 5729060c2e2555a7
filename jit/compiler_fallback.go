//go:build !(amd64 && (linux || darwin) && cgo)

package jit

import (
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

// Compiler is the portable fallback used on platforms without a native code
// generator: it exposes the same CompileScalar /
// CompileVector / CompileWithArgument surface as the amd64 backend, but
// evaluates via the recursive tree-walker (evalRef) instead of emitting
// machine code. It preserves the CallContext ordinal gating so optimizer
// code written against jit.Compiler behaves identically either way; the one
// difference is performance, and depth safety on pathologically unbalanced
// trees (recursive, not explicit-stack; acceptable because balance.Balance
// is expected to run first).
type Compiler struct {
	cc    *CallContext
	ctx   *vars.Context
	total int
}

// NewCompiler builds a Compiler bound to cc and ctx, which must be frozen
// and open.
func NewCompiler(cc *CallContext, ctx *vars.Context) *Compiler {
	requireContextReady(ctx, cc)
	return &Compiler{cc: cc, ctx: ctx, total: cc.cfg.TotalNodes()}
}

// CompileScalar returns a Function that evaluates root via InterpretScalar.
func (c *Compiler) CompileScalar(ctx *vars.Context, root node.Ref) *Function {
	ordinal := c.cc.nextOrdinal()
	total := c.total
	return &Function{cc: c.cc, ordinal: ordinal, eval: func(x []float64) float64 {
		return InterpretScalar(ctx, total, root, x)
	}}
}

// CompileVector returns a FunctionVector that evaluates roots via
// InterpretGradient, sharing one cache across them just as the native
// backend shares one computed bitmap.
func (c *Compiler) CompileVector(ctx *vars.Context, roots []node.Ref) *FunctionVector {
	ordinal := c.cc.nextOrdinal()
	total := c.total
	outs := append([]node.Ref(nil), roots...)
	return &FunctionVector{cc: c.cc, ordinal: ordinal, eval: func(x []float64) []float64 {
		return InterpretGradient(ctx, total, outs, x)
	}}
}

// CompileWithArgument returns a FunctionWithArgument that evaluates root via
// InterpretWithArgument.
func (c *Compiler) CompileWithArgument(ctx *vars.Context, root node.Ref) *FunctionWithArgument {
	ordinal := c.cc.nextOrdinal()
	total := c.total
	return &FunctionWithArgument{cc: c.cc, ordinal: ordinal, eval: func(x []float64, lambda float64) float64 {
		return InterpretWithArgument(ctx, total, root, x, lambda)
	}}
}
