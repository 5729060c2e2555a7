package optimize

import (
	"math"

	"github.com/fncas-lang/fncas/conf"
	"github.com/fncas-lang/fncas/jit"
)

// Step is one point of the outer optimizer's trace: the point reached, its
// value, and the step taken to get there (zero for the initial point).
type Step struct {
	Point []float64
	Value float64
	Delta float64
}

// Result is the outer optimizer's outcome: the final point and value plus
// the full per-iteration trace.
type Result struct {
	FinalPoint []float64
	FinalValue float64
	Trace      []Step
}

// GradientDescent iterates evaluate-f-and-g, line-search along g, move the
// point, stopping on a tiny step or negligible improvement. A step that does
// not lower f is not taken: the point is restored and the loop stops, so the
// trace's values strictly decrease.
// f, g, l, ld, ldd must already be compiled against cc, in that declaration
// order (f, g, l, l', l''), matching the call-context's ordinal gating;
// x0 is copied, never mutated in place.
func GradientDescent(cc *jit.CallContext, f *jit.Function, g *jit.FunctionVector, l, ld, ldd *jit.FunctionWithArgument, x0 []float64, opts Options) (Result, error) {
	x := append([]float64(nil), x0...)

	cc.MarkNewPoint()
	v := f.Call(cc, x)
	trace := []Step{{Point: append([]float64(nil), x...), Value: v}}

	for iter := 0; iter < conf.MaxOptimizerIterations; iter++ {
		gv := g.Call(cc, x)

		ls, err := Search(cc, l, ld, ldd, x, opts)
		if err != nil {
			return Result{}, err
		}
		step := ls.BestStep
		if math.Abs(step) < conf.MinStep {
			break
		}

		prev := append([]float64(nil), x...)
		for i := range x {
			x[i] += step * gv[i]
		}
		// The new point invalidates every cached scratch value; resetting
		// the gate before re-evaluating f keeps the improvement check from
		// reading stale node values.
		cc.MarkNewPoint()

		newV := f.Call(cc, x)
		if !(newV < v) {
			copy(x, prev)
			break
		}
		trace = append(trace, Step{Point: append([]float64(nil), x...), Value: newV, Delta: step})

		improvement := v - newV
		v = newV
		if improvement < conf.MinImprovement {
			break
		}
	}

	return Result{FinalPoint: x, FinalValue: v, Trace: trace}, nil
}
