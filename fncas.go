// Package fncas is the host-facing facade wiring node, vars, builder,
// balance, diff, jit and optimize into the one API a caller actually uses.
// None of the component packages import this one; it only composes them.
package fncas

import (
	"github.com/fncas-lang/fncas/diff"
	"github.com/fncas-lang/fncas/jit"
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/optimize"
	"github.com/fncas-lang/fncas/vars"
)

// NewContext opens a fresh expression context. Equivalent to vars.NewContext,
// re-exported so callers need not import vars directly for the common case.
func NewContext() *vars.Context { return vars.NewContext() }

// Objective bundles a frozen configuration with everything the optimizer
// needs to run: the objective f, its gradient's node refs, and the
// directional-derivative family l, l', l'' built from them.
type Objective struct {
	ctx    *vars.Context
	cfg    *vars.Config
	f      node.Ref
	grad   []node.Ref
	l      node.Ref
	lPrime node.Ref
	lPP    node.Ref
}

// Prepare freezes ctx and builds the full function/gradient/directional-
// derivative family for f, ready for JIT compilation. f must already have
// been balanced (balance.Balance) if it has any long associative chains.
func Prepare(ctx *vars.Context, f node.Ref) *Objective {
	grad := diff.Gradient(ctx, f)
	l := diff.Directional(ctx, f, grad)
	lPrime := diff.ByLambda(ctx, l)
	lPP := diff.ByLambda(ctx, lPrime)
	cfg := ctx.Freeze()
	return &Objective{ctx: ctx, cfg: cfg, f: f, grad: grad, l: l, lPrime: lPrime, lPP: lPP}
}

// Config returns the frozen variables configuration.
func (o *Objective) Config() *vars.Config { return o.cfg }

// compiled holds one Objective's compiled native functions plus the call
// context they share.
type compiled struct {
	cc  *jit.CallContext
	f   *jit.Function
	g   *jit.FunctionVector
	l   *jit.FunctionWithArgument
	ld  *jit.FunctionWithArgument
	ldd *jit.FunctionWithArgument
}

// compile builds one CallContext and Compiler for o and compiles f, g, l,
// l', l'' in that order, the order the call-context's ordinal gating
// requires.
func (o *Objective) compile() *compiled {
	cc := jit.NewCallContext(o.cfg)
	compiler := jit.NewCompiler(cc, o.ctx)
	f := compiler.CompileScalar(o.ctx, o.f)
	g := compiler.CompileVector(o.ctx, o.grad)
	l := compiler.CompileWithArgument(o.ctx, o.l)
	ld := compiler.CompileWithArgument(o.ctx, o.lPrime)
	ldd := compiler.CompileWithArgument(o.ctx, o.lPP)
	return &compiled{cc: cc, f: f, g: g, l: l, ld: ld, ldd: ldd}
}

// Optimize JIT-compiles o's function family and runs gradient descent from
// x0, returning the outer optimizer's full result.
func (o *Objective) Optimize(x0 []float64, opts optimize.Options) (optimize.Result, error) {
	c := o.compile()
	return optimize.GradientDescent(c.cc, c.f, c.g, c.l, c.ld, c.ldd, x0, opts)
}
