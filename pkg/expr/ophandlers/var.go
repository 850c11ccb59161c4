// Package ophandlers provides the concrete per-operator expression
// handlers (var, value, sum, product, pow, exp, log, sin, cos, abs,
// entropy) left unspecified by the expr package itself, grounded on the
// teacher's concrete global-constraint implementations (sum.go, scale.go,
// modulo.go, minmax.go, nvalue.go in gitrdm/gokando's pkg/minikanren):
// each handler here plays the role one of those files played for a single
// finite-domain relation, but generalized to a shared expression DAG
// operator rather than a standalone solver constraint.
package ophandlers

import (
	"math"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// VarHandlerName is the well-known operator name identifying a
// variable-leaf node. expr's own internals (forwardprop.go, locks.go)
// compare against this same literal without importing this package, to
// avoid an import cycle; keep the two in sync.
const VarHandlerName = "var"

// NewVarHandler returns the handler for a variable-leaf node. Its Data is
// the expr.HostVar handle itself (not wrapped), matching the type
// assertions expr's own propagation and lock code performs directly on
// Node.Data().
func NewVarHandler() *expr.ExprHandler {
	return &expr.ExprHandler{
		Name:  VarHandlerName,
		Class: expr.ClassVariable,
		Eval: func(node *expr.Node, childValues []float64, point expr.EvalPoint) float64 {
			hv := node.Data()
			if v, ok := point[hv]; ok {
				return v
			}
			return math.NaN()
		},
		IntEval: func(node *expr.Node, childIntervals []expr.Interval) expr.Interval {
			// Variable leaves get their interval from the active
			// VarIntervalFunc in forwardprop.go, not from IntEval; this
			// exists only so a var node is never silently treated as
			// Unbounded if ever evaluated outside that path.
			return expr.Unbounded
		},
		Hash: func(node *expr.Node, childHashes []uint64) uint64 {
			return varHash(node.Data())
		},
		Compare: func(a, b *expr.Node) int {
			return varKey(a.Data()) - varKey(b.Data())
		},
		Print: func(node *expr.Node, childStrings []string) string {
			return varName(node.Data())
		},
		Monotonicity: func(node *expr.Node, childIndex int) expr.Monotonicity {
			return expr.MonotoneIncreasing
		},
	}
}

// varNamer lets a host variable optionally supply a display name for
// Print, without the core depending on any concrete host variable type.
type varNamer interface{ Name() string }

func varName(hv interface{}) string {
	if n, ok := hv.(varNamer); ok {
		return n.Name()
	}
	return "var"
}

// varIdentifier lets a host variable optionally supply a stable integer
// identity for Compare/Hash; without it, Compare treats all such
// variables as equal and Hash gives them one shared value, so CSE merges
// any two of them into one node, even when they wrap different host
// variables.
type varIdentifier interface{ ID() int }

func varKey(hv interface{}) int {
	if id, ok := hv.(varIdentifier); ok {
		return id.ID()
	}
	return 0
}

func varHash(hv interface{}) uint64 {
	if id, ok := hv.(varIdentifier); ok {
		return uint64(id.ID())*2654435761 + 0x9e3779b97f4a7c15
	}
	return 0x9e3779b97f4a7c15
}
