package optimize

// Options controls the optional behaviors of line search and the outer
// optimizer loop. The zero value is the documented default path.
type Options struct {
	// Elaborated selects the exponential-bracket-extension line search
	// variant for the undershoot case instead of returning the Newton
	// step's first probe as a fallback.
	Elaborated bool
}

// DefaultOptions returns the simple-Newton-line-search default.
func DefaultOptions() Options { return Options{} }
