package ophandlers

import (
	"fmt"
	"math"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// ValueHandlerName identifies a constant-value leaf node.
const ValueHandlerName = "value"

// NewValueHandler returns the handler for a constant leaf; its Data is a
// plain float64.
func NewValueHandler() *expr.ExprHandler {
	return &expr.ExprHandler{
		Name:  ValueHandlerName,
		Class: expr.ClassValue,
		Eval: func(node *expr.Node, childValues []float64, point expr.EvalPoint) float64 {
			return node.Data().(float64)
		},
		IntEval: func(node *expr.Node, childIntervals []expr.Interval) expr.Interval {
			return expr.Point(node.Data().(float64))
		},
		Hash: func(node *expr.Node, childHashes []uint64) uint64 {
			v := node.Data().(float64)
			return math.Float64bits(v) * 1099511628211
		},
		Compare: func(a, b *expr.Node) int {
			av, bv := a.Data().(float64), b.Data().(float64)
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		},
		Print: func(node *expr.Node, childStrings []string) string {
			return fmt.Sprintf("%g", node.Data().(float64))
		},
		Curvature: func(node *expr.Node, childCurvatures []expr.Curvature) expr.Curvature {
			return expr.CurvatureLinear
		},
		Integrality: func(node *expr.Node, childIntegral []bool) bool {
			v := node.Data().(float64)
			return v == math.Trunc(v)
		},
	}
}

// NewValue constructs a retained constant-value node.
func NewValue(h *expr.ExprHandler, v float64) *expr.Node {
	return expr.NewNode(h, v)
}
