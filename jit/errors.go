package jit

import "errors"

var (
	// ErrContextNotReady is raised by NewCompiler when the vars.Context it is
	// handed is not both frozen and open; compilation against a context
	// mid-construction, or one that was Close()d, is not meaningful.
	ErrContextNotReady = errors.New("jit: context must be frozen and open to compile against")

	// ErrCallContextMismatch is raised when a compiled function is called
	// with a CallContext other than the one it was compiled against, or when
	// NewCompiler's Context has a node count other than its CallContext's
	// Config.
	ErrCallContextMismatch = errors.New("jit: call context does not match this compiled object's configuration")

	// ErrPrerequisitesNotMet is raised by CallContext when a compiled
	// function is called out of the order it was declared in, so its cached
	// inputs in scratch may be stale for the current point.
	ErrPrerequisitesNotMet = errors.New("jit: function called before its prerequisites were computed for this point")

	// ErrNodeIndexOutOfRange is raised internally if code generation ever
	// addresses a node index outside the configuration's total node count.
	ErrNodeIndexOutOfRange = errors.New("jit: node index out of range")
)
