package vars

import "errors"

// Structural errors: lifecycle misuse and variable-tree shape mismatches.
var (
	ErrContextRequired    = errors.New("vars: context required")
	ErrContextNotOpen     = errors.New("vars: context is not open")
	ErrContextAlreadyOpen = errors.New("vars: context already open (no nesting)")
	ErrFrozen             = errors.New("vars: context already frozen")
	ErrNotFrozen          = errors.New("vars: context is not frozen")
	ErrKindMismatch       = errors.New("vars: accessor kind does not match node's established kind")
	ErrNotLeaf            = errors.New("vars: node is not a leaf variable")
	ErrReassignDifferent  = errors.New("vars: cannot reassign a variable to a different value")
	ErrIndexOutOfRange    = errors.New("vars: vector index out of range")
	ErrDenseVectorSize    = errors.New("vars: invalid DenseDoubleVector size")
)
