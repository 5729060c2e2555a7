// Package conf holds the tunable constants shared across the differentiator,
// balancer, JIT and optimizer, grouping them behind one importable package
// rather than scattering them as inline literals.
package conf

const (
	// LineSearchTolerance is the |derivative| threshold below which a line
	// search step is accepted.
	LineSearchTolerance = 1e-6

	// MaxNewtonRefinements bounds the Newton-bisection loop inside line
	// search.
	MaxNewtonRefinements = 10

	// MaxOptimizerIterations bounds the outer gradient-descent loop.
	MaxOptimizerIterations = 10

	// MinStep is the |step| threshold below which the optimizer stops.
	MinStep = 1e-6

	// MinImprovement is the per-iteration value-improvement threshold below
	// which the optimizer stops.
	MinImprovement = 1e-6

	// FiniteDifferenceDelta is the central-difference step used by the
	// numeric-gradient reference oracle.
	FiniteDifferenceDelta = 1e-5

	// MaxDifferentiatorStackDepth bounds the explicit work stack used by the
	// differentiator. It is a sanity ceiling, not a native recursion limit;
	// the differentiator is heap-stack-driven and would otherwise happily
	// churn through an unbalanced chain one frame at a time; past this depth
	// the caller almost certainly forgot to balance the tree first, so the
	// differentiator fails fast and says so. The tree balancer does not
	// check it.
	MaxDifferentiatorStackDepth = 1 << 20

	// JITPageSize is the nominal page size new executable mappings are
	// rounded up to.
	JITPageSize = 4096
)
