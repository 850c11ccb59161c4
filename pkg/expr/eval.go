package expr

import "math"

// eval.go implements point evaluation of an expression tree under a
// host-supplied variable assignment, gated by a solution tag the same way
// forward interval propagation is gated by a box tag (§3 "current
// floating-point evaluation value plus a solution tag").

// Eval computes root's value at point, reusing any child value already
// cached under tag and writing the computed value back under tag so a
// later call sharing the tag (e.g. a sibling constraint's violation check
// against the same candidate solution) is a cache hit. A math.NaN() result
// anywhere in the subtree signals ErrDomain was hit by some operator
// (log of a non-positive number, etc.) and propagates upward as NaN rather
// than as a Go error, per the Eval contract in handler.go.
func Eval(root *Node, point EvalPoint, tag Tag) float64 {
	if v, ok := root.Value(tag); ok {
		return v
	}
	childValues := make([]float64, root.Arity())
	for i, c := range root.children {
		childValues[i] = Eval(c, point, tag)
	}
	if root.handler == nil || root.handler.Eval == nil {
		return math.NaN()
	}
	v := root.handler.Eval(root, childValues, point)
	root.SetValue(v, tag)
	return v
}
