package jit

import "github.com/fncas-lang/fncas/vars"

// requireContextReady is the shared precondition both Compiler
// implementations (native and fallback) check before compiling anything:
// the vars.Context must be frozen and still open, and must match the
// CallContext's Config in size.
func requireContextReady(ctx *vars.Context, cc *CallContext) {
	if !ctx.Frozen() || !ctx.Opened() {
		panic(ErrContextNotReady)
	}
	if ctx.NodeCount() != cc.cfg.TotalNodes() {
		panic(ErrCallContextMismatch)
	}
}
