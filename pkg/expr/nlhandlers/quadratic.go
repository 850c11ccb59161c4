package nlhandlers

import (
	"math"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
	"github.com/JasperNL/scip-unified-sub005/pkg/expr/ophandlers"
)

// QuadraticHandlerName identifies a single squared term (pow of exponent
// 2), detected directly rather than via the generic convex handler so it
// can offer a tight secant/tangent pair instead of a single first-order
// linearization: grounded on the interval-arithmetic squaring rule in
// gitrdm/gokando's interval_arithmetic.go, generalized from pure bound
// propagation to also emit over/under-estimating cuts.
const QuadraticHandlerName = "quadratic"

// QuadraticPriority outranks ConvexPriority so a squared term is claimed
// by the specialized handler first.
const QuadraticPriority = 20

type quadraticData struct {
	base *expr.Node
}

// NewQuadraticHandler returns the nonlinear handler specialized for
// base^2 nodes: it enforces both sides (a secant overestimates above, a
// tangent underestimates below), which the generic pow Curvature already
// reports as convex but without per-side cut specialization.
func NewQuadraticHandler() *expr.NonlinearHandler {
	return &expr.NonlinearHandler{
		Name:     QuadraticHandlerName,
		Priority: QuadraticPriority,
		Detect: func(ctx *expr.Context, node *expr.Node, isRoot bool) (expr.EnforceSides, expr.Methods, interface{}, bool) {
			if node.Handler().Name != ophandlers.PowHandlerName {
				return expr.EnforceNone, 0, nil, false
			}
			exp, ok := powExponent(node)
			if !ok || exp != 2 {
				return expr.EnforceNone, 0, nil, false
			}
			return expr.EnforceBoth, expr.MethodSepa | expr.MethodInterval, &quadraticData{base: node.Child(0)}, true
		},
		EvalAux: func(node *expr.Node, rec *expr.EnforcementRecord) float64 {
			d := rec.Data.(*quadraticData)
			v := pointValue(d.base, rec)
			return v * v
		},
		IntEval: func(ctx *expr.Context, node *expr.Node, rec *expr.EnforcementRecord) expr.Interval {
			return node.RawInterval()
		},
		// Sepa has no Host to submit a cut through (see nlhandlers/convex.go);
		// the secant/tangent pair below is instead exposed via Estimate,
		// which enforce.go's enforcement loop does submit.
		Sepa: func(ctx *expr.Context, node *expr.Node, rec *expr.EnforcementRecord) (expr.CutResult, error) {
			d := rec.Data.(*quadraticData)
			if d.base.RawInterval().IsEmpty() {
				return expr.CutInfeasible, nil
			}
			return expr.CutNone, nil
		},
		// Estimate builds the standard secant/tangent relaxation of
		// y = x^2 over the base's current bounds: the tangent at the last
		// evaluated point underestimates (valid globally, x^2 is convex
		// everywhere), and the secant across the box overestimates (sound
		// only within a finite box).
		Estimate: func(node *expr.Node, rec *expr.EnforcementRecord, overestimate bool) (expr.LinearExpr, error) {
			d := rec.Data.(*quadraticData)
			box := d.base.RawInterval()
			row := expr.NewLinearExpr()
			if overestimate {
				if math.IsInf(box.Lo, -1) || math.IsInf(box.Hi, 1) {
					row.Constant = math.Inf(1)
					return row, nil
				}
				row.AddTerm(d.base, box.Lo+box.Hi)
				row.Constant = -box.Lo * box.Hi
				return row, nil
			}
			x0 := pointValue(d.base, rec)
			row.AddTerm(d.base, 2*x0)
			row.Constant = -x0 * x0
			return row, nil
		},
		BranchScore: func(node *expr.Node, rec *expr.EnforcementRecord, violation float64) float64 {
			d := rec.Data.(*quadraticData)
			box := d.base.RawInterval()
			width := box.Hi - box.Lo
			if math.IsInf(width, 1) || math.IsNaN(width) {
				return violation
			}
			return violation * width
		},
	}
}

// powExponent extracts a pow node's exponent without ophandlers exposing
// its payload type, since the payload is intentionally opaque outside the
// package that owns it (§3's invariant); nlhandlers is grounded on the
// same operators ophandlers defines, so it reaches into the one piece
// of structural information it needs (the exponent) through a narrow
// duck-typed accessor instead of a type assertion on the concrete struct.
func powExponent(node *expr.Node) (float64, bool) {
	e, ok := node.Data().(interface{ PowExponent() float64 })
	if !ok {
		return 0, false
	}
	return e.PowExponent(), true
}
