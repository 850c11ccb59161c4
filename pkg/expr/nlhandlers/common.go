package nlhandlers

import (
	"math"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// pointValue returns the value node should be linearized/evaluated at for
// enforcement purposes: the value cached under rec's own tag if one is
// available (set by whatever pass last drove this EnforcementRecord's
// auxiliary-variable bookkeeping), or the midpoint of node's current
// interval as a sound fallback when no cached evaluation exists yet. A
// literal tag of zero always means "recompute" per Tag's own contract
// (tag.go), so it is never treated as a usable cache key here.
func pointValue(node *expr.Node, rec *expr.EnforcementRecord) float64 {
	if rec.CachedValueTag != 0 {
		if v, ok := node.Value(rec.CachedValueTag); ok {
			return v
		}
	}
	return midpoint(node.RawInterval())
}

func midpoint(iv expr.Interval) float64 {
	if iv.IsEmpty() {
		return 0
	}
	lo, hi := iv.Lo, iv.Hi
	switch {
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		return 0
	case math.IsInf(lo, -1):
		return hi
	case math.IsInf(hi, 1):
		return lo
	default:
		return (lo + hi) / 2
	}
}
