package expr

import "math"

// Constraint is the record of spec §3: lhs <= f(x) <= rhs over a captured
// root expression, plus the bookkeeping the propagation and enforcement
// loops need to avoid redoing work.
type Constraint struct {
	Name string
	Root *Node
	Lhs  float64 // may be -Inf
	Rhs  float64 // may be +Inf

	varLeaves []*Node // variable-expression leaves, for event subscriptions

	lhsViolation float64
	rhsViolation float64
	violationTag Tag

	propagated bool
	simplified bool
	redundant  bool

	linearRow LinearExpr
	hasLinearRow bool

	posLocks int
	negLocks int

	decreasable *Node // "may be decreased without harm" linear variable leaf
	increasable *Node // "may be increased without harm" linear variable leaf
}

// NewConstraint creates a constraint owning one reference to root.
func NewConstraint(name string, root *Node, lhs, rhs float64) *Constraint {
	root.retain()
	return &Constraint{Name: name, Root: root, Lhs: lhs, Rhs: rhs}
}

func (c *Constraint) name() string {
	if c.Name != "" {
		return c.Name
	}
	return "<unnamed>"
}

// Capture retains an additional reference to the constraint's root, used
// when the same root is also installed elsewhere (e.g. a transformed copy
// sharing the DAG, §6 "transform/copy").
func (c *Constraint) Capture() { c.Root.retain() }

// Release drops the constraint's reference to its root.
func (c *Constraint) Release() { c.Root.Release() }

// Sides returns (lhs, rhs).
func (c *Constraint) Sides() (float64, float64) { return c.Lhs, c.Rhs }

// sidesInterval returns the constraint's sides widened by
// Config.ConssideRelaxAmount, the interval forward propagation intersects
// the root's computed interval against (§4.5, §4.7).
func (c *Constraint) sidesInterval(ctx *Context) Interval {
	return Interval{Lo: c.Lhs, Hi: c.Rhs}.Widen(ctx.Config.ConssideRelaxAmount)
}

// IsPropagated / SetPropagated track the per-round re-examination flag
// (§4.7); a variable bound-change event on any of the constraint's leaves
// should call SetPropagated(false).
func (c *Constraint) IsPropagated() bool   { return c.propagated }
func (c *Constraint) SetPropagated(b bool) { c.propagated = b }

// IsSimplified / SetSimplified track whether canonicalization has already
// run on this constraint's root.
func (c *Constraint) IsSimplified() bool   { return c.simplified }
func (c *Constraint) SetSimplified(b bool) { c.simplified = b }

// IsRedundant reports whether propagation proved the constraint's feasible
// projection is a superset of the current box (§4.7).
func (c *Constraint) IsRedundant() bool { return c.redundant }

// VarLeaves returns the variable-expression leaves currently subscribed
// for bound-change events.
func (c *Constraint) VarLeaves() []*Node { return c.varLeaves }

// SetVarLeaves replaces the subscribed leaf set, called after
// canonicalization's "reconstruct variable leaves" step (§4.3 step 6)
// since CSE may have changed which nodes are reachable.
func (c *Constraint) SetVarLeaves(leaves []*Node) { c.varLeaves = leaves }

// Violation computes (lhs-violation, rhs-violation) of the constraint
// under the current solution, using eval with the given point and
// caching the result under solTag. A violation is positive when the
// corresponding side is breached, zero or negative when satisfied, per
// spec §3 "cached lhs/rhs violation scalars".
func (c *Constraint) Violation(ctx *Context, point EvalPoint, solTag Tag) (lhs, rhs float64) {
	if solTag != 0 && c.violationTag == solTag {
		return c.lhsViolation, c.rhsViolation
	}
	val := Eval(c.Root, point, solTag)
	if math.IsNaN(val) {
		// An invalid value is treated as maximally violated (§7 DomainError).
		c.lhsViolation = math.Inf(1)
		c.rhsViolation = math.Inf(1)
	} else {
		c.lhsViolation = c.Lhs - val
		c.rhsViolation = val - c.Rhs
	}
	c.violationTag = solTag
	return c.lhsViolation, c.rhsViolation
}

// MaxViolation returns the larger of the two side violations (negative
// when the constraint is fully satisfied).
func (c *Constraint) MaxViolation(ctx *Context, point EvalPoint, solTag Tag) float64 {
	lhs, rhs := c.Violation(ctx, point, solTag)
	if lhs > rhs {
		return lhs
	}
	return rhs
}

// LinearRow returns the cached NLP-relaxation linear row, if one has been
// computed (§3 "cached linear-row snapshot").
func (c *Constraint) LinearRow() (LinearExpr, bool) { return c.linearRow, c.hasLinearRow }

// SetLinearRow stores the NLP-relaxation linear row snapshot.
func (c *Constraint) SetLinearRow(row LinearExpr) {
	c.linearRow = row
	c.hasLinearRow = true
}

// Locks returns the constraint's contributed (positive, negative) lock
// counts (§3).
func (c *Constraint) Locks() (pos, neg int) { return c.posLocks, c.negLocks }

// ApplyLocks computes this constraint's lock contribution from its sides
// and pushes nLocks worth of them into the DAG via AddLocks, recording the
// totals on the constraint itself for later symmetric removal.
func (c *Constraint) ApplyLocks(host Host, varHandlerName string, nLocks int) {
	pos, neg := sidesToLocks(!math.IsInf(c.Lhs, -1), !math.IsInf(c.Rhs, 1))
	pos *= nLocks
	neg *= nLocks
	AddLocks(host, varHandlerName, c.Root, pos, neg)
	c.posLocks += pos
	c.negLocks += neg
}

// RemoveAllLocks removes every lock this constraint has applied so far,
// used at the start of canonicalization (§4.3 step 2: "temporarily remove
// all locks") and restored afterward via ApplyLocks with the saved count.
func (c *Constraint) RemoveAllLocks(host Host, varHandlerName string) {
	RemoveLocks(host, varHandlerName, c.Root, c.posLocks, c.negLocks)
	c.posLocks = 0
	c.negLocks = 0
}

// RepairCandidates returns the linear variables solution repair may adjust
// (§4.10), or nil if none have been identified yet.
func (c *Constraint) RepairCandidates() (decreasable, increasable *Node) {
	return c.decreasable, c.increasable
}

// SetRepairCandidates records the decreasable/increasable linear variables
// found by the repair scan.
func (c *Constraint) SetRepairCandidates(decreasable, increasable *Node) {
	c.decreasable = decreasable
	c.increasable = increasable
}
