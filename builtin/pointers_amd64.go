//go:build amd64 && (linux || darwin) && cgo

package builtin

// The JIT's indirect-call table must hold real extern
// "C" function pointers: the generated machine code `call`s through them
// directly, with none of the goroutine-stack bookkeeping (g register,
// morestack prologue) a compiled Go function relies on. A Go func value's
// entry point is not safe to jump into from hand-emitted asm for that
// reason, so this table is built from a tiny C shim instead of from
// builtin.Funcs; it is the one place in this module cgo is load-bearing rather
// than a convenience.

/*
#include <math.h>

static double fncas_sqr(double x) { return x * x; }
static double fncas_unit_step(double x) { return x >= 0.0 ? 1.0 : 0.0; }
static double fncas_ramp(double x) { return x > 0.0 ? x : 0.0; }
static double fncas_sigmoid(double x) { return 1.0 / (1.0 + exp(-x)); }
static double fncas_log_sigmoid(double x) {
	if (x > 0) {
		return -(x + log1p(exp(-x)));
	}
	return -log1p(exp(x));
}

typedef double (*fncas_fn_t)(double);

static fncas_fn_t fncas_table[14] = {
	exp, log, sin, cos, tan,
	fncas_sqr, sqrt, asin, acos, atan,
	fncas_unit_step, fncas_ramp, fncas_sigmoid, fncas_log_sigmoid,
};

static fncas_fn_t fncas_table_entry(int i) { return fncas_table[i]; }
*/
import "C"
import "unsafe"

// NativeTable returns the fourteen extern-"C" function pointers, in
// node.Functions order, as raw addresses suitable for the JIT's indirect
// call table.
func NativeTable() []uintptr {
	out := make([]uintptr, 14)
	for i := range out {
		out[i] = uintptr(unsafe.Pointer(C.fncas_table_entry(C.int(i))))
	}
	return out
}
