// Package nlhandlers provides the concrete nonlinear (per-structure)
// handlers the expr core's detection/enforcement loop dispatches to
// (spec §4.8): convex/concave outer approximation and a quadratic-form
// specialization, grounded on the interval-arithmetic bound tightening
// and constraint-manager registration/dispatch patterns in gitrdm/gokando
// (interval_arithmetic.go, constraint_manager.go), generalized from a
// fixed-function finite-domain relation to a plug-in keyed by a node's
// reported curvature.
package nlhandlers

import (
	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// ConvexHandlerName identifies the generic curvature-based outer
// approximation handler: any node the expression handler itself reports
// as convex or concave is enforceable from the corresponding side via a
// supporting hyperplane (gradient cut) at the current auxvar-consistent
// point.
const ConvexHandlerName = "convex"

// ConvexPriority is lower than QuadraticPriority: the quadratic handler is
// more specific and should claim a node first when both could.
const ConvexPriority = 10

type convexData struct {
	curvature expr.Curvature
}

// NewConvexHandler returns the generic curvature-based nonlinear handler.
func NewConvexHandler() *expr.NonlinearHandler {
	return &expr.NonlinearHandler{
		Name:     ConvexHandlerName,
		Priority: ConvexPriority,
		Detect: func(ctx *expr.Context, node *expr.Node, isRoot bool) (expr.EnforceSides, expr.Methods, interface{}, bool) {
			if node.Arity() == 0 {
				return expr.EnforceNone, 0, nil, false
			}
			cur := node.Curvature()
			switch cur {
			case expr.CurvatureConvex:
				return expr.EnforceAbove, expr.MethodSepa | expr.MethodInterval, &convexData{curvature: cur}, true
			case expr.CurvatureConcave:
				return expr.EnforceBelow, expr.MethodSepa | expr.MethodInterval, &convexData{curvature: cur}, true
			default:
				return expr.EnforceNone, 0, nil, false
			}
		},
		EvalAux: func(node *expr.Node, rec *expr.EnforcementRecord) float64 {
			return pointValue(node, rec)
		},
		IntEval: func(ctx *expr.Context, node *expr.Node, rec *expr.EnforcementRecord) expr.Interval {
			return node.RawInterval()
		},
		// Sepa has no direct path to submit a cut to the host (the
		// NonlinearHandler contract does not thread Host through it,
		// unlike ReverseProp's ctx.TightenChild); tangent construction is
		// left to Estimate below, which enforce.go's enforcement loop
		// does submit via Host.SubmitCut.
		Sepa: func(ctx *expr.Context, node *expr.Node, rec *expr.EnforcementRecord) (expr.CutResult, error) {
			return expr.CutNone, nil
		},
		// Estimate builds a first-order Taylor linearization of node's
		// value at the point its children are currently evaluated at,
		// valid globally for a convex function (a tangent underestimates)
		// or concave function (a tangent overestimates) — the same
		// tangent/secant relaxation the teacher's interval arithmetic
		// uses for bound propagation, here repurposed as a cutting plane.
		Estimate: func(node *expr.Node, rec *expr.EnforcementRecord, overestimate bool) (expr.LinearExpr, error) {
			d := rec.Data.(*convexData)
			wantsTangent := (d.curvature == expr.CurvatureConvex && !overestimate) ||
				(d.curvature == expr.CurvatureConcave && overestimate)
			row := expr.NewLinearExpr()
			if !wantsTangent || node.Handler().BwDiff == nil {
				iv := node.RawInterval()
				if overestimate {
					row.Constant = iv.Hi
				} else {
					row.Constant = iv.Lo
				}
				return row, nil
			}
			childValues := make([]float64, node.Arity())
			for i, c := range node.Children() {
				childValues[i] = pointValue(c, rec)
			}
			base := node.Handler().Eval(node, childValues, nil)
			row.Constant = base
			for i, c := range node.Children() {
				slope := node.Handler().BwDiff(node, i, childValues)
				row.AddTerm(c, slope)
				row.Constant -= slope * childValues[i]
			}
			return row, nil
		},
		BranchScore: func(node *expr.Node, rec *expr.EnforcementRecord, violation float64) float64 {
			return violation
		},
	}
}
