// Package diff implements the differentiator: an explicit-stack (never
// natively recursive) synthesizer of partial-derivative expressions,
// generalized over three modes (single-variable, all-variables, by-lambda)
// via the impl strategy interface.
package diff

import (
	"github.com/fncas-lang/fncas/conf"
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

// impl is the per-mode strategy the engine drives: how to seed a leaf's
// derivative and how to combine an operator/function's operand derivatives
// into its own. T is node.Ref for single-var/by-lambda mode and
// map[int]node.Ref (sparse, non-constant vars only) for all-vars mode.
type impl[T any] interface {
	zero() T
	varDerivative(varIndex int) T
	lambdaDerivative() T
	operation(tag node.Tag, a, b node.Ref, da, db T) T
	function(tag node.Tag, f, x node.Ref, dx T) T
}

// entry holds the two child results of one in-flight operator/function
// frame, addressed by the frame's ownSlot.
type entry[T any] struct {
	lhs, rhs T
}

// frame is one explicit work-stack element. A frame is pushed once per
// "descend" and, for operator/function nodes, pushed again with its ref's
// scratch bit 0 set, beneath the frames queued for its children, so the
// second pop applies the combine rule with both children already resolved. The scratch
// bit is cleared before the ref is interpreted.
type frame struct {
	ref       node.Ref // special bit 0 set marks the ascending (second) visit
	writeSlot int      // -1 means "write the final answer"
	writeSide int      // 0 = lhs, 1 = rhs; ignored when writeSlot == -1
	ownSlot   int      // allocated on descent, read back on ascent
}

type engine[T any] struct {
	ctx     *vars.Context
	it      impl[T]
	stack   []frame
	results []entry[T]
	final   T
}

func (e *engine[T]) store(writeSlot, writeSide int, v T) {
	if writeSlot < 0 {
		e.final = v
		return
	}
	if writeSide == 0 {
		e.results[writeSlot].lhs = v
	} else {
		e.results[writeSlot].rhs = v
	}
}

// push resolves leaves (inline double, variable, lambda) immediately without
// growing the stack, and defers node refs to the explicit work stack.
func (e *engine[T]) push(ref node.Ref, writeSlot, writeSide int) {
	switch {
	case ref.IsInlineDouble():
		e.store(writeSlot, writeSide, e.it.zero())
	case ref.IsVar():
		e.store(writeSlot, writeSide, e.it.varDerivative(int(ref.AsVarIndex())))
	case ref.IsLambda():
		e.store(writeSlot, writeSide, e.it.lambdaDerivative())
	default:
		e.stack = append(e.stack, frame{ref: ref, writeSlot: writeSlot, writeSide: writeSide})
	}
}

// run drives the whole traversal and returns the derivative of root.
func (e *engine[T]) run(root node.Ref) T {
	e.push(root, -1, 0)
	for len(e.stack) > 0 {
		if len(e.stack) > conf.MaxDifferentiatorStackDepth {
			panic(ErrNeedsBalancedTree)
		}
		f := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]

		ascending := f.ref.SpecialBit(0)
		ref := f.ref.ClearSpecialBits()
		rec := e.ctx.Node(ref.AsNodeIndex())
		tag := rec.Tag()

		if !ascending {
			ownSlot := len(e.results)
			e.results = append(e.results, entry[T]{})
			up := frame{ref: ref.WithSpecialBit(0, true), writeSlot: f.writeSlot, writeSide: f.writeSide, ownSlot: ownSlot}
			switch {
			case tag.IsOp():
				lhs, rhs := rec.Operands()
				e.stack = append(e.stack, up)
				e.push(rhs, ownSlot, 1)
				e.push(lhs, ownSlot, 0)
			case tag.IsFn():
				e.stack = append(e.stack, up)
				e.push(rec.Primary(), ownSlot, 0)
			default:
				panic("diff: internal error, unreachable tag")
			}
			continue
		}

		children := e.results[f.ownSlot]
		var v T
		if tag.IsOp() {
			lhs, rhs := rec.Operands()
			v = e.it.operation(tag, lhs, rhs, children.lhs, children.rhs)
		} else {
			v = e.it.function(tag, ref, rec.Primary(), children.lhs)
		}
		e.store(f.writeSlot, f.writeSide, v)
	}
	return e.final
}

func differentiate[T any](ctx *vars.Context, root node.Ref, it impl[T]) T {
	e := &engine[T]{ctx: ctx, it: it}
	return e.run(root)
}
