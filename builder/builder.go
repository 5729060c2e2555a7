// Package builder exposes the arithmetic-operator and unary-math-function
// surface used to assemble an expression graph. Go has no operator
// overloading, so "+"/"-"/"*"/"/" are methods on Value rather than
// operators; each one appends a single node to the owning context.
package builder

import (
	"errors"

	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

// ErrMixedContexts is raised when two Values from different Contexts are
// combined.
var ErrMixedContexts = errors.New("builder: operands belong to different contexts")

// ErrBothConstants is raised when both operands of a binary operation are
// inlined doubles; the builder does not fold constants; the caller is
// expected to compute the result in Go and pass one Const.
var ErrBothConstants = errors.New("builder: both operands are constants; fold them in Go")

// ErrNonRegularConstant is raised by Const for a double whose magnitude
// falls outside the inlinable range (see node.IsRegularDouble). The node
// record format has no tag for a standalone constant node, so such values
// cannot be represented.
var ErrNonRegularConstant = errors.New("builder: value is not a regular double and cannot be inlined")

// Value is either a variable reference or a node reference, tied to the
// Context that owns it.
type Value struct {
	ctx *vars.Context
	ref node.Ref
}

// V wraps an assigned leaf variable as a Value.
func V(leaf *vars.TreeNode) Value {
	return Value{ctx: leaf.Context(), ref: node.VarRef(uint64(leaf.VarIndex()))}
}

// Const builds an inlined-double Value bound to ctx.
func Const(ctx *vars.Context, x float64) Value {
	if !node.IsRegularDouble(x) {
		panic(ErrNonRegularConstant)
	}
	return Value{ctx: ctx, ref: node.PackDouble(x)}
}

// LambdaValue wraps the lambda sentinel as a Value bound to ctx, for
// constructing 1-D directional-derivative functions.
func LambdaValue(ctx *vars.Context) Value {
	return Value{ctx: ctx, ref: node.Lambda}
}

// FromRef wraps an existing node.Ref (e.g. one produced by diff or a
// structural rebuild) as a Value bound to ctx.
func FromRef(ctx *vars.Context, ref node.Ref) Value {
	return Value{ctx: ctx, ref: ref}
}

// Ref exposes the underlying packed reference, used by balance/diff/jit.
func (v Value) Ref() node.Ref { return v.ref }

// Context returns the owning Context.
func (v Value) Context() *vars.Context { return v.ctx }

func (v Value) requireSameContext(other Value) {
	if v.ctx != other.ctx {
		panic(ErrMixedContexts)
	}
}

// binary allocates one operator node: the operand that is an
// inlined double (if any) goes in the primary slot, and flipped records
// whether the operands were swapped to get it there.
func (v Value) binary(tag node.Tag, rhs Value) Value {
	v.requireSameContext(rhs)

	lhsInline := v.ref.IsInlineDouble()
	rhsInline := rhs.ref.IsInlineDouble()
	if lhsInline && rhsInline {
		panic(ErrBothConstants)
	}

	var secondary, primary node.Ref
	var flipped bool
	if lhsInline && !rhsInline {
		primary, secondary = v.ref, rhs.ref
		flipped = true
	} else {
		secondary, primary = v.ref, rhs.ref
		flipped = false
	}

	ref := v.ctx.AppendNode(node.NewRecord(tag, flipped, secondary, primary))
	return Value{ctx: v.ctx, ref: ref}
}

// Add returns v + rhs.
func (v Value) Add(rhs Value) Value { return v.binary(node.Add, rhs) }

// Sub returns v - rhs.
func (v Value) Sub(rhs Value) Value { return v.binary(node.Sub, rhs) }

// Mul returns v * rhs.
func (v Value) Mul(rhs Value) Value { return v.binary(node.Mul, rhs) }

// Div returns v / rhs.
func (v Value) Div(rhs Value) Value { return v.binary(node.Div, rhs) }

// Neg returns -v, encoded as 0 - v.
func (v Value) Neg() Value { return Const(v.ctx, 0).Sub(v) }

func unary(fn node.Tag, v Value) Value {
	ref := v.ctx.AppendNode(node.NewUnaryRecord(fn, v.ref))
	return Value{ctx: v.ctx, ref: ref}
}

// Unary applies an arbitrary function tag, for callers (diff's substitution
// rebuild) that determine the tag dynamically rather than at a call site.
func Unary(fn node.Tag, v Value) Value { return unary(fn, v) }

func Exp(v Value) Value        { return unary(node.Exp, v) }
func Log(v Value) Value        { return unary(node.Log, v) }
func Sin(v Value) Value        { return unary(node.Sin, v) }
func Cos(v Value) Value        { return unary(node.Cos, v) }
func Tan(v Value) Value        { return unary(node.Tan, v) }
func Sqr(v Value) Value        { return unary(node.Sqr, v) }
func Sqrt(v Value) Value       { return unary(node.Sqrt, v) }
func Asin(v Value) Value       { return unary(node.Asin, v) }
func Acos(v Value) Value       { return unary(node.Acos, v) }
func Atan(v Value) Value       { return unary(node.Atan, v) }
func UnitStep(v Value) Value   { return unary(node.UnitStep, v) }
func Ramp(v Value) Value       { return unary(node.Ramp, v) }
func Sigmoid(v Value) Value    { return unary(node.Sigmoid, v) }
func LogSigmoid(v Value) Value { return unary(node.LogSigmoid, v) }
