package expr

import (
	"fmt"
	"math"
)

// Interval is a closed real interval [Lo, Hi], used as the unit of forward
// and reverse domain propagation over the expression DAG. An empty interval
// (Lo > Hi) signals infeasibility of the enclosing node; it is never stored
// as [NaN, NaN].
//
// This is the floating-point analogue of the teacher's BitSetDomain
// (domain.go): both are immutable value types with Intersect/Union/Empty
// operations, but an Interval is an unbounded continuous range rather than
// an enumerable finite set, so it carries no Count/IterateValues.
type Interval struct {
	Lo, Hi float64
}

// Unbounded is (-inf, +inf), the starting point for a from-scratch forward
// evaluation.
var Unbounded = Interval{Lo: math.Inf(-1), Hi: math.Inf(1)}

// Empty is the canonical empty interval.
var Empty = Interval{Lo: math.Inf(1), Hi: math.Inf(-1)}

// Point returns the degenerate interval [v, v].
func Point(v float64) Interval { return Interval{Lo: v, Hi: v} }

// IsEmpty reports whether the interval contains no points.
func (iv Interval) IsEmpty() bool {
	return iv.Lo > iv.Hi
}

// IsSingleton reports whether the interval contains exactly one point.
func (iv Interval) IsSingleton() bool {
	return !iv.IsEmpty() && iv.Lo == iv.Hi
}

// Contains reports whether v lies within the interval.
func (iv Interval) Contains(v float64) bool {
	return !iv.IsEmpty() && iv.Lo <= v && v <= iv.Hi
}

// Intersect returns the set intersection of two intervals. The result is
// Empty when the intervals are disjoint — this is the primary operation
// used by forward propagation (§4.5) and tighten-interval (§4.6).
func (iv Interval) Intersect(other Interval) Interval {
	lo := math.Max(iv.Lo, other.Lo)
	hi := math.Min(iv.Hi, other.Hi)
	if lo > hi {
		return Empty
	}
	return Interval{Lo: lo, Hi: hi}
}

// Union returns the convex hull of two intervals (interval arithmetic has
// no exact union; constraint propagation only ever needs the hull).
func (iv Interval) Union(other Interval) Interval {
	if iv.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return iv
	}
	return Interval{Lo: math.Min(iv.Lo, other.Lo), Hi: math.Max(iv.Hi, other.Hi)}
}

// Add implements [a,b] + [c,d] = [a+c, b+d].
func (iv Interval) Add(other Interval) Interval {
	if iv.IsEmpty() || other.IsEmpty() {
		return Empty
	}
	return Interval{Lo: iv.Lo + other.Lo, Hi: iv.Hi + other.Hi}
}

// Sub implements [a,b] - [c,d] = [a-d, b-c].
func (iv Interval) Sub(other Interval) Interval {
	if iv.IsEmpty() || other.IsEmpty() {
		return Empty
	}
	return Interval{Lo: iv.Lo - other.Hi, Hi: iv.Hi - other.Lo}
}

// Scale multiplies an interval by a scalar, swapping endpoints for
// negative scalars.
func (iv Interval) Scale(c float64) Interval {
	if iv.IsEmpty() {
		return Empty
	}
	if c >= 0 {
		return Interval{Lo: iv.Lo * c, Hi: iv.Hi * c}
	}
	return Interval{Lo: iv.Hi * c, Hi: iv.Lo * c}
}

// Mul implements interval multiplication by taking the min/max of the four
// endpoint products, correctly handling infinities and mixed signs.
func (iv Interval) Mul(other Interval) Interval {
	if iv.IsEmpty() || other.IsEmpty() {
		return Empty
	}
	candidates := [4]float64{
		mulInf(iv.Lo, other.Lo),
		mulInf(iv.Lo, other.Hi),
		mulInf(iv.Hi, other.Lo),
		mulInf(iv.Hi, other.Hi),
	}
	lo, hi := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	return Interval{Lo: lo, Hi: hi}
}

// mulInf multiplies two floats, defining 0 * +-Inf as 0 (the convention
// used throughout interval-arithmetic bound tightening, where an operand
// known to be exactly zero annihilates an otherwise-unbounded factor).
func mulInf(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a * b
}

// Widen grows the interval by eps on both sides, used by
// consside_relax_amount (§6) and the bound-tightening variable provider
// (§4.5).
func (iv Interval) Widen(eps float64) Interval {
	if iv.IsEmpty() {
		return iv
	}
	return Interval{Lo: iv.Lo - eps, Hi: iv.Hi + eps}
}

// String renders the interval for diagnostics and .dot export.
func (iv Interval) String() string {
	if iv.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("[%g, %g]", iv.Lo, iv.Hi)
}
