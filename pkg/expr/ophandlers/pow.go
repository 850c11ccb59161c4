package ophandlers

import (
	"fmt"
	"math"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// PowHandlerName identifies a power node: base^exponent, unary (the
// exponent is a constant carried in the payload, not a child, since
// variable exponents are out of this system's scope per the DOMAIN
// STACK's operator list).
const PowHandlerName = "pow"

type powData struct {
	Exponent float64
}

// PowExponent exposes the exponent to callers outside this package (the
// nlhandlers quadratic specialization) without requiring a type assertion
// on the concrete payload struct itself.
func (d *powData) PowExponent() float64 { return d.Exponent }

// NewPow constructs a retained power node.
func NewPow(h *expr.ExprHandler, base *expr.Node, exponent float64) *expr.Node {
	return expr.NewNode(h, &powData{Exponent: exponent}, base)
}

// NewPowHandler returns the handler for power nodes.
func NewPowHandler() *expr.ExprHandler {
	valueH := NewValueHandler() // builds the constants Simplify folds to
	return &expr.ExprHandler{
		Name:  PowHandlerName,
		Class: expr.ClassPower,
		Eval: func(node *expr.Node, childValues []float64, point expr.EvalPoint) float64 {
			d := node.Data().(*powData)
			base := childValues[0]
			if base < 0 && d.Exponent != math.Trunc(d.Exponent) {
				return math.NaN() // ErrDomain: fractional power of a negative base
			}
			return math.Pow(base, d.Exponent)
		},
		IntEval: func(node *expr.Node, childIntervals []expr.Interval) expr.Interval {
			d := node.Data().(*powData)
			return powInterval(childIntervals[0], d.Exponent)
		},
		// Simplify enforces the power half of the normal-form rules in
		// §4.3: an exponent of 0 or 1 collapses, a constant base folds,
		// and squaring a sum is left to the product/sum rules rather
		// than attempted here (no automatic binomial expansion).
		Simplify: func(ctx *expr.Context, node *expr.Node) *expr.Node {
			d := node.Data().(*powData)
			base := node.Child(0)
			if d.Exponent == 1 {
				return base
			}
			if d.Exponent == 0 {
				return NewValue(valueH, 1)
			}
			if base.Handler().Name == ValueHandlerName {
				v := base.Data().(float64)
				return NewValue(valueH, math.Pow(v, d.Exponent))
			}
			return nil
		},
		Hash: func(node *expr.Node, childHashes []uint64) uint64 {
			d := node.Data().(*powData)
			return (childHashes[0] ^ math.Float64bits(d.Exponent)) * 1099511628211
		},
		Compare: func(a, b *expr.Node) int {
			ad, bd := a.Data().(*powData), b.Data().(*powData)
			if ad.Exponent != bd.Exponent {
				if ad.Exponent < bd.Exponent {
					return -1
				}
				return 1
			}
			cmp, err := expr.CompareNodes(a.Child(0), b.Child(0))
			if err != nil {
				return 0
			}
			return cmp
		},
		Print: func(node *expr.Node, childStrings []string) string {
			d := node.Data().(*powData)
			return fmt.Sprintf("(%s)^%g", childStrings[0], d.Exponent)
		},
		Curvature: func(node *expr.Node, childCurvatures []expr.Curvature) expr.Curvature {
			d := node.Data().(*powData)
			if d.Exponent == math.Trunc(d.Exponent) && int64(d.Exponent)%2 == 0 {
				return expr.CurvatureConvex
			}
			return expr.CurvatureUnknown
		},
		Monotonicity: func(node *expr.Node, childIndex int) expr.Monotonicity {
			d := node.Data().(*powData)
			if d.Exponent > 0 {
				return expr.MonotoneIncreasing
			}
			if d.Exponent < 0 {
				return expr.MonotoneDecreasing
			}
			return expr.MonotoneConstant
		},
		Integrality: func(node *expr.Node, childIntegral []bool) bool {
			d := node.Data().(*powData)
			return childIntegral[0] && d.Exponent == math.Trunc(d.Exponent) && d.Exponent >= 0
		},
		BwDiff: func(node *expr.Node, childIndex int, childValues []float64) float64 {
			d := node.Data().(*powData)
			return d.Exponent * math.Pow(childValues[0], d.Exponent-1)
		},
	}
}

// powInterval computes a sound enclosure of [lo,hi]^p.
func powInterval(base expr.Interval, p float64) expr.Interval {
	if base.IsEmpty() {
		return expr.Empty
	}
	isEvenInt := p == math.Trunc(p) && int64(p)%2 == 0
	isOddInt := p == math.Trunc(p) && int64(p)%2 != 0
	switch {
	case isEvenInt:
		if base.Contains(0) {
			hi := math.Max(math.Pow(math.Abs(base.Lo), p), math.Pow(math.Abs(base.Hi), p))
			return expr.Interval{Lo: 0, Hi: hi}
		}
		a, b := math.Pow(base.Lo, p), math.Pow(base.Hi, p)
		return expr.Interval{Lo: math.Min(a, b), Hi: math.Max(a, b)}
	case isOddInt:
		return expr.Interval{Lo: math.Pow(base.Lo, p), Hi: math.Pow(base.Hi, p)}
	default:
		// Fractional exponent: defined only for a nonnegative base.
		lo := base.Lo
		if lo < 0 {
			lo = 0
		}
		if lo > base.Hi {
			return expr.Empty
		}
		return expr.Interval{Lo: math.Pow(lo, p), Hi: math.Pow(base.Hi, p)}
	}
}
