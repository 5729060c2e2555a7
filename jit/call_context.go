package jit

import "github.com/fncas-lang/fncas/vars"

// CallContext holds the scratch RAM a compiled function family reads and
// writes node values through, plus the ordinal bookkeeping that enforces
// call order at one point. One CallContext is shared by every Function,
// FunctionVector and FunctionWithArgument compiled from the same Compiler:
// compiled code itself never allocates or owns memory, it only ever writes
// into the RAM array the context supplies.
type CallContext struct {
	cfg     *vars.Config
	scratch []float64

	declared    int // number of Compile* calls made so far against this context
	nextAllowed int // ordinal of the next function allowed to be called
}

// NewCallContext allocates scratch space sized to cfg's node count plus one
// extra slot reserved for a FunctionWithArgument's free scalar.
func NewCallContext(cfg *vars.Config) *CallContext {
	return &CallContext{
		cfg:     cfg,
		scratch: make([]float64, cfg.TotalNodes()+1),
	}
}

// Config returns the configuration this call context was built against.
func (cc *CallContext) Config() *vars.Config { return cc.cfg }

// MarkNewPoint resets the ordinal gate: every compiled function becomes
// callable again, in declaration order, for a fresh evaluation point. Call
// this once per x before calling any compiled function against it; line
// search calls l, l' and l'' at several lambdas for one x without calling
// it in between.
func (cc *CallContext) MarkNewPoint() { cc.nextAllowed = 0 }

// nextOrdinal stamps the next compiled function with its call-order
// position and advances the counter. Called once per Compile* invocation.
func (cc *CallContext) nextOrdinal() int {
	o := cc.declared
	cc.declared++
	return o
}

// checkAndMark enforces that ordinal is not called before every function
// declared ahead of it (in this round, since the last MarkNewPoint) has
// been called at least once: the dependency order the optimizer's f/g/l/ds
// chain inherently respects, and any misuse violates.
func (cc *CallContext) checkAndMark(ordinal int) {
	if ordinal > cc.nextAllowed {
		panic(ErrPrerequisitesNotMet)
	}
	if ordinal+1 > cc.nextAllowed {
		cc.nextAllowed = ordinal + 1
	}
}
