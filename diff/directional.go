package diff

import (
	"github.com/fncas-lang/fncas/builder"
	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

// Directional builds l(lambda) = f(x0 + lambda*g0, ..., xN-1 + lambda*gN-1)
// by structural substitution: every reference to
// variable i is replaced by var_i + lambda*g_i, and every node on the path to
// such a reference is rebuilt over the substituted children. Subtrees that
// don't depend on any variable (pure constant expressions) are reused
// unchanged rather than rebuilt. Panics with ErrGradientDimension if g's
// length doesn't match the context's declared variable count.
func Directional(ctx *vars.Context, f node.Ref, g []node.Ref) node.Ref {
	if len(g) != ctx.NumVars() {
		panic(ErrGradientDimension)
	}
	lambda := builder.LambdaValue(ctx)
	substitute := make([]node.Ref, len(g))
	for i, gi := range g {
		varI := builder.FromRef(ctx, node.VarRef(uint64(i)))
		substitute[i] = varI.Add(lambda.Mul(builder.FromRef(ctx, gi))).Ref()
	}
	s := &substituter{ctx: ctx, substitute: substitute, memo: map[uint64]node.Ref{}}
	return s.run(f)
}

type substFrame struct {
	ref       node.Ref // special bit 0 set marks the ascending (second) visit
	writeSlot int
	writeSide int
	ownSlot   int
}

type substituter struct {
	ctx        *vars.Context
	substitute []node.Ref
	memo       map[uint64]node.Ref
	stack      []substFrame
	results    []entry[node.Ref]
	final      node.Ref
}

func (s *substituter) store(writeSlot, writeSide int, v node.Ref) {
	if writeSlot < 0 {
		s.final = v
		return
	}
	if writeSide == 0 {
		s.results[writeSlot].lhs = v
	} else {
		s.results[writeSlot].rhs = v
	}
}

func (s *substituter) push(ref node.Ref, writeSlot, writeSide int) {
	switch {
	case ref.IsInlineDouble():
		s.store(writeSlot, writeSide, ref)
	case ref.IsVar():
		s.store(writeSlot, writeSide, s.substitute[ref.AsVarIndex()])
	case ref.IsLambda():
		s.store(writeSlot, writeSide, ref)
	default:
		idx := ref.AsNodeIndex()
		if v, ok := s.memo[idx]; ok {
			s.store(writeSlot, writeSide, v)
			return
		}
		s.stack = append(s.stack, substFrame{ref: ref, writeSlot: writeSlot, writeSide: writeSide})
	}
}

func (s *substituter) run(root node.Ref) node.Ref {
	s.push(root, -1, 0)
	for len(s.stack) > 0 {
		f := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]

		ascending := f.ref.SpecialBit(0)
		ref := f.ref.ClearSpecialBits()
		idx := ref.AsNodeIndex()
		rec := s.ctx.Node(idx)
		tag := rec.Tag()

		if !ascending {
			if v, ok := s.memo[idx]; ok {
				s.store(f.writeSlot, f.writeSide, v)
				continue
			}
			ownSlot := len(s.results)
			s.results = append(s.results, entry[node.Ref]{})
			s.stack = append(s.stack, substFrame{ref: ref.WithSpecialBit(0, true), writeSlot: f.writeSlot, writeSide: f.writeSide, ownSlot: ownSlot})
			if tag.IsOp() {
				lhs, rhs := rec.Operands()
				s.push(rhs, ownSlot, 1)
				s.push(lhs, ownSlot, 0)
			} else {
				s.push(rec.Primary(), ownSlot, 0)
			}
			continue
		}

		// A node whose children came back unchanged has no variable anywhere
		// beneath it; reuse it rather than allocating an identical copy.
		children := s.results[f.ownSlot]
		var rebuilt node.Ref
		if tag.IsOp() {
			origL, origR := rec.Operands()
			if children.lhs == origL && children.rhs == origR {
				rebuilt = ref
			} else {
				lhs, rhs := builder.FromRef(s.ctx, children.lhs), builder.FromRef(s.ctx, children.rhs)
				switch tag {
				case node.Add:
					rebuilt = lhs.Add(rhs).Ref()
				case node.Sub:
					rebuilt = lhs.Sub(rhs).Ref()
				case node.Mul:
					rebuilt = lhs.Mul(rhs).Ref()
				case node.Div:
					rebuilt = lhs.Div(rhs).Ref()
				}
			}
		} else if children.lhs == rec.Primary() {
			rebuilt = ref
		} else {
			rebuilt = builder.Unary(tag, builder.FromRef(s.ctx, children.lhs)).Ref()
		}
		s.memo[idx] = rebuilt
		s.store(f.writeSlot, f.writeSide, rebuilt)
	}
	return s.final
}
