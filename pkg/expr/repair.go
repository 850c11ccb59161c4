package expr

import "math"

// repair.go implements solution repair (spec §4.10): for a sum-rooted
// constraint, find at most one linear variable that may safely be
// decreased and one that may safely be increased without endangering any
// other constraint, then use them to erase a nearly-feasible candidate
// solution's violation of this constraint.

// LinearTerm is one coefficient*variable term of a sum-rooted constraint,
// the shape ScanRepairCandidates needs to evaluate repair safety; it is
// produced by a sum payload's Terms accessor (see RepairTerms, the repair
// counterpart of SumShape).
type LinearTerm struct {
	Leaf  *Node
	Coeff float64
}

// RepairTerms is the narrow interface a sum operator's payload exposes so
// repair scanning can enumerate its linear terms without assuming the
// payload's concrete shape (mirrors SumShape in simplify.go). children is
// the owning node's current child slice, passed in rather than cached
// inside the payload itself: CSE and simplification retarget child edges
// in place (Node.ReplaceChild) without necessarily going through the
// payload, so the payload alone cannot be trusted to stay in sync with
// node identity.
type RepairTerms interface {
	Terms(children []*Node) []LinearTerm
}

// ScanRepairCandidates identifies, for constraint c, at most one safely
// decreasable and one safely increasable linear variable leaf, per §4.10:
// a candidate is safe in a direction when moving it that way cannot make
// any other constraint infeasible (checked against the host's external
// lock counts — a variable with an external down-lock cannot safely be
// decreased, and symmetrically for up-locks), and among safe candidates in
// a direction the one with the smallest objective-per-coefficient is
// preferred.
func ScanRepairCandidates(host Host, c *Constraint) {
	terms, ok := c.Root.Data().(RepairTerms)
	if !ok {
		return
	}

	var bestDec, bestInc *Node
	var bestDecRatio, bestIncRatio float64
	haveDec, haveInc := false, false

	for _, t := range terms.Terms(c.Root.Children()) {
		hv, ok := t.Leaf.Data().(HostVar)
		if !ok || t.Coeff == 0 {
			continue
		}
		down, up := host.ExternalLocks(hv)
		ratio := host.ObjectiveCoeff(hv) / t.Coeff

		// Decreasing this term's contribution means decreasing the
		// variable when its coefficient is positive, or increasing it
		// when negative.
		safeToDecreaseContribution := (t.Coeff > 0 && down == 0) || (t.Coeff < 0 && up == 0)
		if safeToDecreaseContribution && (!haveDec || ratio < bestDecRatio) {
			bestDec, bestDecRatio, haveDec = t.Leaf, ratio, true
		}
		safeToIncreaseContribution := (t.Coeff > 0 && up == 0) || (t.Coeff < 0 && down == 0)
		if safeToIncreaseContribution && (!haveInc || ratio < bestIncRatio) {
			bestInc, bestIncRatio, haveInc = t.Leaf, ratio, true
		}
	}
	c.SetRepairCandidates(bestDec, bestInc)
}

// RepairViolation adjusts c's decreasable/increasable repair candidates
// (if any were found by ScanRepairCandidates) to erase c's violation of
// point, capped by the candidate variable's host bounds and rounded
// toward feasibility when the variable is integer-typed. It mutates point
// in place and returns whether the violation was fully erased.
func RepairViolation(ctx *Context, host Host, c *Constraint, point EvalPoint, solTag Tag) bool {
	terms, ok := c.Root.Data().(RepairTerms)
	if !ok {
		return false
	}
	lhsViol, rhsViol := c.Violation(ctx, point, solTag)

	dec, inc := c.RepairCandidates()

	// Violation above rhs (rhsViol > 0): need to decrease the sum's value.
	if rhsViol > ctx.Config.FeasTol {
		return repairOneDirection(host, terms, c.Root.Children(), dec, point, rhsViol, true)
	}
	// Violation below lhs (lhsViol > 0): need to increase the sum's value.
	if lhsViol > ctx.Config.FeasTol {
		return repairOneDirection(host, terms, c.Root.Children(), inc, point, lhsViol, false)
	}
	return true
}

// RepairSolution runs solution repair (§4.10) over every constraint in
// cons against point, then submits the result to the host if every
// violation was erased. point is mutated in place by each constraint's
// repair pass, so constraints sharing a variable see each other's
// adjustments in registration order. Returns whether the repaired point
// was accepted by the host (false either because a violation could not
// be erased, or because Host.ProposeSolution rejected it).
func RepairSolution(ctx *Context, host Host, cons []*Constraint, point EvalPoint, solTag Tag) (bool, error) {
	for _, c := range cons {
		ScanRepairCandidates(host, c)
		if !RepairViolation(ctx, host, c, point, solTag) {
			return false, nil
		}
	}
	if err := host.ProposeSolution(toHostVarMap(point)); err != nil {
		return false, err
	}
	return true, nil
}

// toHostVarMap copies an EvalPoint into the map[HostVar]float64 shape
// Host.ProposeSolution expects; EvalPoint and map[HostVar]float64 are
// distinct named map types even though HostVar's underlying type is the
// same empty interface EvalPoint keys on, so Go requires an explicit copy
// rather than a conversion.
func toHostVarMap(point EvalPoint) map[HostVar]float64 {
	out := make(map[HostVar]float64, len(point))
	for k, v := range point {
		out[k] = v
	}
	return out
}

// repairOneDirection moves candidate by the amount needed to close
// amount worth of sum-value violation, given candidate's coefficient
// within terms, capped by its host bounds and rounded for integrality.
func repairOneDirection(host Host, terms RepairTerms, children []*Node, candidate *Node, point EvalPoint, amount float64, decreaseCandidate bool) bool {
	if candidate == nil {
		return false
	}
	var coeff float64
	for _, t := range terms.Terms(children) {
		if t.Leaf == candidate {
			coeff = t.Coeff
			break
		}
	}
	if coeff == 0 {
		return false
	}

	hv, ok := candidate.Data().(HostVar)
	if !ok {
		return false
	}
	bounds := host.Bounds(hv)
	cur, hasCur := point[hv]
	if !hasCur {
		cur = bounds.Lo
	}

	// delta in the variable's own value that removes `amount` of
	// violation from the sum, given the term contributes coeff*value.
	delta := amount / coeff
	if decreaseCandidate {
		delta = -delta
	}
	target := cur + delta

	if host.IsIntegerVar(hv) {
		if delta > 0 {
			target = math.Ceil(target)
		} else {
			target = math.Floor(target)
		}
	}
	if target < bounds.Lo {
		target = bounds.Lo
	}
	if target > bounds.Hi {
		target = bounds.Hi
	}
	point[hv] = target
	return true
}
