package diff

import "errors"

// Computational and depth errors raised during derivative synthesis.
var (
	ErrNonDifferentiable = errors.New("diff: function is not differentiable (unit_step or sigmoid)")
	ErrLambdaUnexpected  = errors.New("diff: lambda encountered while not differentiating by lambda")
	ErrGradientDimension = errors.New("diff: gradient dimension does not match the number of declared variables")
	ErrNeedsBalancedTree = errors.New("diff: expression tree too deep; run balance.Balance first")
)
