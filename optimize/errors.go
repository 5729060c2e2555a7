package optimize

import "errors"

var (
	// ErrNonNormalStart is raised when l(0) or l'(0) is NaN or infinite:
	// the line search has nothing sound to start from.
	ErrNonNormalStart = errors.New("optimize: non-normal value or derivative at the line search's starting point")

	// ErrNegativeStartDerivative is raised when l'(0) < 0: the gradient
	// direction does not point toward increasing f, which the line search
	// requires to search "downhill" along -g.
	ErrNegativeStartDerivative = errors.New("optimize: line search starting derivative is negative")

	// ErrDegenerateCurvature is raised when l''(0) is zero or non-normal
	// (the initial Newton step divides by it), or when a bisection
	// iteration's bracket derivatives coincide.
	ErrDegenerateCurvature = errors.New("optimize: degenerate curvature in line search")
)
