package ophandlers

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// SumHandlerName identifies a weighted-sum node: constant + Σ coeff*child.
const SumHandlerName = "sum"

// sumData is a weighted sum's payload: one coefficient per child, plus a
// constant term. It implements expr.SumShape (side scaling, §4.3 step 4)
// and expr.RepairTerms (solution repair, §4.10) so the core can act on a
// sum's linear structure without knowing this concrete type.
type sumData struct {
	Coeffs   []float64
	Constant float64
}

func (d *sumData) CoeffSigns() (pos, neg int) {
	for _, c := range d.Coeffs {
		if c > 0 {
			pos++
		} else if c < 0 {
			neg++
		}
	}
	return pos, neg
}

func (d *sumData) Negate() {
	for i := range d.Coeffs {
		d.Coeffs[i] = -d.Coeffs[i]
	}
	d.Constant = -d.Constant
}

func (d *sumData) Terms(children []*expr.Node) []expr.LinearTerm {
	out := make([]expr.LinearTerm, 0, len(children))
	for i, c := range children {
		if i >= len(d.Coeffs) {
			break
		}
		out = append(out, expr.LinearTerm{Leaf: c, Coeff: d.Coeffs[i]})
	}
	return out
}

// NewSum constructs a retained sum node: constant + Σ coeffs[i]*children[i].
func NewSum(h *expr.ExprHandler, coeffs []float64, constant float64, children ...*expr.Node) *expr.Node {
	cp := make([]float64, len(coeffs))
	copy(cp, coeffs)
	return expr.NewNode(h, &sumData{Coeffs: cp, Constant: constant}, children...)
}

// NewSumHandler returns the handler for weighted-sum nodes.
func NewSumHandler() *expr.ExprHandler {
	return &expr.ExprHandler{
		Name:  SumHandlerName,
		Class: expr.ClassSum,
		Eval: func(node *expr.Node, childValues []float64, point expr.EvalPoint) float64 {
			d := node.Data().(*sumData)
			v := d.Constant
			for i, cv := range childValues {
				v += d.Coeffs[i] * cv
			}
			return v
		},
		IntEval: func(node *expr.Node, childIntervals []expr.Interval) expr.Interval {
			d := node.Data().(*sumData)
			acc := expr.Point(d.Constant)
			for i, iv := range childIntervals {
				acc = acc.Add(iv.Scale(d.Coeffs[i]))
			}
			return acc
		},
		// Simplify enforces the sum half of the normal-form rules in
		// §4.3: flatten nested sums, fold value children into the
		// constant, merge duplicate children by summing their
		// coefficients, drop zero-coefficient children, sort the
		// remainder, and collapse a single-child unit-coefficient
		// zero-constant sum into its child.
		Simplify: func(ctx *expr.Context, node *expr.Node) *expr.Node {
			d := node.Data().(*sumData)
			constant := d.Constant
			merged := make(map[*expr.Node]float64)
			order := make([]*expr.Node, 0, len(node.Children()))

			var flatten func(children []*expr.Node, coeffs []float64, scale float64)
			flatten = func(children []*expr.Node, coeffs []float64, scale float64) {
				for i, c := range children {
					coeff := coeffs[i] * scale
					if coeff == 0 {
						continue
					}
					if c.Handler().Name == ValueHandlerName {
						constant += coeff * c.Data().(float64)
						continue
					}
					if c.Handler().Name == SumHandlerName {
						cd := c.Data().(*sumData)
						constant += coeff * cd.Constant
						flatten(c.Children(), cd.Coeffs, coeff)
						continue
					}
					if _, seen := merged[c]; !seen {
						order = append(order, c)
					}
					merged[c] += coeff
				}
			}
			flatten(node.Children(), d.Coeffs, 1)

			var finalChildren []*expr.Node
			var finalCoeffs []float64
			for _, c := range order {
				coeff := merged[c]
				if coeff == 0 {
					continue
				}
				finalChildren = append(finalChildren, c)
				finalCoeffs = append(finalCoeffs, coeff)
			}
			sort.Stable(sumByOrder{finalChildren, finalCoeffs})

			if len(finalChildren) == 1 && finalCoeffs[0] == 1 && constant == 0 {
				return finalChildren[0]
			}
			return NewSum(node.Handler(), finalCoeffs, constant, finalChildren...)
		},
		Hash: func(node *expr.Node, childHashes []uint64) uint64 {
			d := node.Data().(*sumData)
			h := math.Float64bits(d.Constant) ^ 0x2545F4914F6CDD1D
			for i, ch := range childHashes {
				h = (h ^ ch ^ math.Float64bits(d.Coeffs[i])) * 1099511628211
			}
			return h
		},
		Compare: func(a, b *expr.Node) int {
			if la, lb := a.Arity(), b.Arity(); la != lb {
				if la < lb {
					return -1
				}
				return 1
			}
			ac, bc := a.Children(), b.Children()
			for i := range ac {
				cmp, err := expr.CompareNodes(ac[i], bc[i])
				if err != nil || cmp != 0 {
					return cmp
				}
			}
			return 0
		},
		Print: func(node *expr.Node, childStrings []string) string {
			d := node.Data().(*sumData)
			var sb strings.Builder
			if d.Constant != 0 || len(childStrings) == 0 {
				fmt.Fprintf(&sb, "%g", d.Constant)
			}
			for i, s := range childStrings {
				fmt.Fprintf(&sb, " + %g*%s", d.Coeffs[i], s)
			}
			return sb.String()
		},
		Curvature: func(node *expr.Node, childCurvatures []expr.Curvature) expr.Curvature {
			d := node.Data().(*sumData)
			cur := expr.CurvatureLinear
			for i, cc := range childCurvatures {
				term := cc
				if d.Coeffs[i] < 0 {
					term = flipCurvature(cc)
				}
				cur = combineCurvature(cur, term)
			}
			return cur
		},
		Monotonicity: func(node *expr.Node, childIndex int) expr.Monotonicity {
			d := node.Data().(*sumData)
			if d.Coeffs[childIndex] > 0 {
				return expr.MonotoneIncreasing
			}
			if d.Coeffs[childIndex] < 0 {
				return expr.MonotoneDecreasing
			}
			return expr.MonotoneConstant
		},
		Integrality: func(node *expr.Node, childIntegral []bool) bool {
			d := node.Data().(*sumData)
			if d.Constant != math.Trunc(d.Constant) {
				return false
			}
			for i, integral := range childIntegral {
				if !integral || d.Coeffs[i] != math.Trunc(d.Coeffs[i]) {
					return false
				}
			}
			return true
		},
	}
}

type sumByOrder struct {
	children []*expr.Node
	coeffs   []float64
}

func (s sumByOrder) Len() int { return len(s.children) }
func (s sumByOrder) Swap(i, j int) {
	s.children[i], s.children[j] = s.children[j], s.children[i]
	s.coeffs[i], s.coeffs[j] = s.coeffs[j], s.coeffs[i]
}
func (s sumByOrder) Less(i, j int) bool {
	cmp, err := expr.CompareNodes(s.children[i], s.children[j])
	if err != nil {
		return false
	}
	return cmp < 0
}

func flipCurvature(c expr.Curvature) expr.Curvature {
	switch c {
	case expr.CurvatureConvex:
		return expr.CurvatureConcave
	case expr.CurvatureConcave:
		return expr.CurvatureConvex
	default:
		return c
	}
}

// combineCurvature is the curvature of a sum of two terms: a known
// curvature combines with itself or with linear to stay the same; convex
// and concave terms together make the sum's curvature unknown.
func combineCurvature(a, b expr.Curvature) expr.Curvature {
	if a == expr.CurvatureLinear {
		return b
	}
	if b == expr.CurvatureLinear {
		return a
	}
	if a == b {
		return a
	}
	return expr.CurvatureUnknown
}
