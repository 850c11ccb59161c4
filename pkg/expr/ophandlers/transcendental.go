package ophandlers

import (
	"fmt"
	"math"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// Names of the remaining unary operators (spec §1's operator list).
const (
	ExpHandlerName     = "exp"
	LogHandlerName     = "log"
	SinHandlerName     = "sin"
	CosHandlerName     = "cos"
	AbsHandlerName      = "abs"
	EntropyHandlerName = "entropy" // x*log(x)
)

// newUnary builds the shared shape of every unary transcendental
// operator: a scalar function, its interval enclosure, and (where it
// exists in closed form) curvature/monotonicity classification. Reusing
// one constructor across exp/log/sin/cos/abs/entropy keeps each operator's
// own constructor to its mathematical content, the same role the teacher's
// per-file global constraints (scale.go, modulo.go) each play for a single
// relation.
func newUnary(name string, class expr.Class, f func(float64) float64, inteval func(expr.Interval) expr.Interval, curvature func(expr.Curvature) expr.Curvature, mono expr.Monotonicity, integral func([]bool) bool, deriv func(float64) float64) *expr.ExprHandler {
	h := &expr.ExprHandler{
		Name:  name,
		Class: class,
		Eval: func(node *expr.Node, childValues []float64, point expr.EvalPoint) float64 {
			return f(childValues[0])
		},
		IntEval: func(node *expr.Node, childIntervals []expr.Interval) expr.Interval {
			return inteval(childIntervals[0])
		},
		Hash: func(node *expr.Node, childHashes []uint64) uint64 {
			h := uint64(0)
			for _, r := range name {
				h = (h ^ uint64(r)) * 1099511628211
			}
			return (h ^ childHashes[0]) * 1099511628211
		},
		Compare: func(a, b *expr.Node) int {
			cmp, err := expr.CompareNodes(a.Child(0), b.Child(0))
			if err != nil {
				return 0
			}
			return cmp
		},
		Print: func(node *expr.Node, childStrings []string) string {
			return fmt.Sprintf("%s(%s)", name, childStrings[0])
		},
		Curvature: func(node *expr.Node, childCurvatures []expr.Curvature) expr.Curvature {
			return curvature(childCurvatures[0])
		},
		Monotonicity: func(node *expr.Node, childIndex int) expr.Monotonicity {
			return mono
		},
		Integrality: func(node *expr.Node, childIntegral []bool) bool {
			return integral(childIntegral)
		},
	}
	if deriv != nil {
		h.BwDiff = func(node *expr.Node, childIndex int, childValues []float64) float64 {
			return deriv(childValues[0])
		}
	}
	return h
}

// NewUnary constructs a retained unary node.
func NewUnary(h *expr.ExprHandler, child *expr.Node) *expr.Node {
	return expr.NewNode(h, nil, child)
}

func neverIntegral([]bool) bool { return false }

// NewExpHandler returns the handler for exp(x), convex and increasing
// everywhere.
func NewExpHandler() *expr.ExprHandler {
	return newUnary(ExpHandlerName, expr.ClassFunction, math.Exp,
		func(iv expr.Interval) expr.Interval {
			if iv.IsEmpty() {
				return expr.Empty
			}
			return expr.Interval{Lo: math.Exp(iv.Lo), Hi: math.Exp(iv.Hi)}
		},
		func(expr.Curvature) expr.Curvature { return expr.CurvatureConvex },
		expr.MonotoneIncreasing, neverIntegral, math.Exp)
}

// NewLogHandler returns the handler for log(x), concave and increasing on
// its domain x>0; evaluating at x<=0 yields ErrDomain (NaN).
func NewLogHandler() *expr.ExprHandler {
	return newUnary(LogHandlerName, expr.ClassFunction,
		func(x float64) float64 {
			if x <= 0 {
				return math.NaN()
			}
			return math.Log(x)
		},
		func(iv expr.Interval) expr.Interval {
			lo := iv.Lo
			if lo <= 0 {
				lo = math.SmallestNonzeroFloat64
			}
			if lo > iv.Hi {
				return expr.Empty
			}
			return expr.Interval{Lo: math.Log(lo), Hi: math.Log(iv.Hi)}
		},
		func(expr.Curvature) expr.Curvature { return expr.CurvatureConcave },
		expr.MonotoneIncreasing, neverIntegral,
		func(x float64) float64 {
			if x <= 0 {
				return math.NaN()
			}
			return 1 / x
		})
}

// NewSinHandler returns the handler for sin(x). Curvature is
// bounds-dependent in general (unknown without knowing which branch of
// the period the current interval falls in).
func NewSinHandler() *expr.ExprHandler {
	return newUnary(SinHandlerName, expr.ClassFunction, math.Sin,
		func(iv expr.Interval) expr.Interval { return trigEnclosure(iv, math.Sin) },
		func(expr.Curvature) expr.Curvature { return expr.CurvatureUnknown },
		expr.MonotoneUnknown, neverIntegral, nil)
}

// NewCosHandler returns the handler for cos(x).
func NewCosHandler() *expr.ExprHandler {
	return newUnary(CosHandlerName, expr.ClassFunction, math.Cos,
		func(iv expr.Interval) expr.Interval { return trigEnclosure(iv, math.Cos) },
		func(expr.Curvature) expr.Curvature { return expr.CurvatureUnknown },
		expr.MonotoneUnknown, neverIntegral, nil)
}

// trigEnclosure computes an enclosure of f over iv from f at both endpoints
// and at every multiple of pi/2 inside iv (where sin and cos take their
// extrema); an interval at least one full period wide always yields the
// full range [-1, 1].
func trigEnclosure(iv expr.Interval, f func(float64) float64) expr.Interval {
	if iv.IsEmpty() {
		return expr.Empty
	}
	if iv.Hi-iv.Lo >= 2*math.Pi {
		return expr.Interval{Lo: -1, Hi: 1}
	}
	a, b := f(iv.Lo), f(iv.Hi)
	lo, hi := math.Min(a, b), math.Max(a, b)
	// Walk quarter-period extrema within the interval; a tight
	// closed-form enclosure would track the periodic argument, left as a
	// possible refinement (see DESIGN.md).
	for k := math.Ceil(iv.Lo / (math.Pi / 2)); k*(math.Pi/2) <= iv.Hi; k++ {
		x := k * (math.Pi / 2)
		if x < iv.Lo {
			continue
		}
		v := f(x)
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return expr.Interval{Lo: lo, Hi: hi}
}

// NewAbsHandler returns the handler for |x|: convex everywhere, monotone
// only piecewise (so lock propagation treats it conservatively as
// unknown).
func NewAbsHandler() *expr.ExprHandler {
	return newUnary(AbsHandlerName, expr.ClassFunction, math.Abs,
		func(iv expr.Interval) expr.Interval {
			if iv.IsEmpty() {
				return expr.Empty
			}
			if iv.Contains(0) {
				return expr.Interval{Lo: 0, Hi: math.Max(math.Abs(iv.Lo), math.Abs(iv.Hi))}
			}
			a, b := math.Abs(iv.Lo), math.Abs(iv.Hi)
			return expr.Interval{Lo: math.Min(a, b), Hi: math.Max(a, b)}
		},
		func(expr.Curvature) expr.Curvature { return expr.CurvatureConvex },
		expr.MonotoneUnknown,
		func(childIntegral []bool) bool { return childIntegral[0] }, nil)
}

// NewEntropyHandler returns the handler for the negative-entropy term
// x*log(x) (extended by continuity to 0 at x=0), convex on x>=0. Nodes of
// this operator come from an explicit `entropy(...)` call in parsed input;
// the product Simplify does not rewrite `expr * log(expr)` into it.
func NewEntropyHandler() *expr.ExprHandler {
	return newUnary(EntropyHandlerName, expr.ClassFunction,
		func(x float64) float64 {
			if x < 0 {
				return math.NaN()
			}
			if x == 0 {
				return 0
			}
			return x * math.Log(x)
		},
		func(iv expr.Interval) expr.Interval {
			lo := iv.Lo
			if lo < 0 {
				return expr.Empty
			}
			// x*log(x) has its minimum at x=1/e; account for it when the
			// interval straddles that point.
			const xmin = 1 / math.E
			const vmin = -xmin // x*log(x) at x=1/e
			vals := []float64{entropyAt(iv.Lo), entropyAt(iv.Hi)}
			lo2, hi2 := vals[0], vals[0]
			for _, v := range vals[1:] {
				lo2, hi2 = math.Min(lo2, v), math.Max(hi2, v)
			}
			if iv.Contains(xmin) {
				lo2 = math.Min(lo2, vmin)
			}
			return expr.Interval{Lo: lo2, Hi: hi2}
		},
		func(expr.Curvature) expr.Curvature { return expr.CurvatureConvex },
		expr.MonotoneUnknown, neverIntegral,
		func(x float64) float64 {
			if x <= 0 {
				return math.Inf(-1)
			}
			return math.Log(x) + 1
		})
}

func entropyAt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return x * math.Log(x)
}
