package expr

import "sort"

// enforce.go implements nonlinear-handler detection and the enforcement
// loop driven by a candidate infeasible solution (spec §4.8).

// requiredSides derives the enforcement coverage a node must have from its
// current lock counts: a positive lock means the feasible set must not be
// relaxed upward, which requires an "enforce above" capability (and
// symmetrically for negative locks / "enforce below"). A node with no
// locks needs no coverage at all (it cannot appear unrelaxed in any active
// constraint's root chain).
func requiredSides(n *Node) EnforceSides {
	pos, neg := n.Locks()
	var sides EnforceSides
	if pos > 0 {
		sides |= EnforceAbove
	}
	if neg > 0 {
		sides |= EnforceBelow
	}
	return sides
}

// Detect runs the structural-pattern detection DFS of §4.8 step 4 over
// root: each not-yet-detected non-leaf node is offered to every registered
// nonlinear handler in descending-priority order until its required
// enforcement sides (derived from its locks) are covered or handlers are
// exhausted. requireCoverage distinguishes the two calling contexts: a
// presolving pass (called from Canonicalize) tolerates partial coverage,
// while detection entered from actual solving (PrepareEnforcement) must
// fully cover every node or fail per §4.8's "programming error" clause.
func Detect(ctx *Context, root *Node, requireCoverage bool) error {
	it, err := ctx.NewIterator(root, TraversalDFS, StageEnterBit, false)
	if err != nil {
		return err
	}
	defer it.Close()

	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		if len(n.enforcements) > 0 {
			it.Skip()
			continue
		}
		required := requiredSides(n)
		if required == EnforceNone || len(n.children) == 0 {
			// Leaves (variables, constants) need no enforcement record.
			continue
		}
		isRoot := n == root
		var covered EnforceSides
		for _, h := range ctx.NLHandlers.Ordered() {
			if covered&required == required {
				break
			}
			sides, methods, data, ok := h.Detect(ctx, n, isRoot)
			ctx.NLHandlers.recordDetect(h.Name, ok)
			if !ok {
				continue
			}
			n.AddEnforcement(&EnforcementRecord{Handler: h, Data: data, Sides: sides, Methods: methods})
			covered |= sides
		}
		if requireCoverage && covered&required != required {
			return ErrEnforcementIncomplete.New(n.handler.Name)
		}
	}
	return nil
}

// PrepareEnforcement runs the full per-constraint setup of §4.8 steps 1-5:
// forward-propagate to seed intervals, compute integrality, ensure an
// auxiliary variable on the root tightened to [lhs, rhs], run structural
// detection requiring full coverage, and finish with a full
// reverse-propagation sweep over every expression (not just tightened
// ones) so every auxiliary variable inherits a tight domain.
func PrepareEnforcement(ctx *Context, host Host, c *Constraint, varHandlerName string) error {
	boxTag := ctx.NewBoxTag()
	if _, err := ForwardPropagate(ctx, host, c.Root, BoundTighteningProvider(ctx, host, varHandlerName), boxTag, false); err != nil {
		return err
	}
	computeIntegrality(ctx, c.Root)

	if c.Root.AuxVar() == nil {
		av, err := NewAuxVar(host, c.Root.RawInterval(), c.Root.Integral())
		if err != nil {
			return err
		}
		c.Root.SetAuxVar(av)
	}
	if _, err := c.Root.AuxVar().Tighten(c.sidesInterval(ctx)); err != nil {
		return err
	}

	if err := Detect(ctx, c.Root, true); err != nil {
		return err
	}

	allNodes := collectAllDFS(ctx, c.Root)
	q := &reverseQueue{}
	for _, n := range allNodes {
		if n.handler.ReverseProp != nil || hasReversePropEnforcement(n) {
			q.push(n)
		}
	}
	return drainReverseQueue(ctx, host, q, boxTag)
}

func hasReversePropEnforcement(n *Node) bool {
	for _, rec := range n.enforcements {
		if rec.Methods&MethodReverseProp != 0 && rec.Handler.ReverseProp != nil {
			return true
		}
	}
	return false
}

func computeIntegrality(ctx *Context, root *Node) {
	it, err := ctx.NewIterator(root, TraversalDFS, StageLeaveBit, false)
	if err != nil {
		return
	}
	defer it.Close()
	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		if n.handler.Integrality == nil {
			continue
		}
		childIntegral := make([]bool, n.Arity())
		for i, c := range n.children {
			childIntegral[i] = c.Integral()
		}
		n.SetIntegral(n.handler.Integrality(n, childIntegral))
	}
}

func collectAllDFS(ctx *Context, root *Node) []*Node {
	it, err := ctx.NewIterator(root, TraversalDFS, StageLeaveBit, false)
	if err != nil {
		return nil
	}
	defer it.Close()
	var out []*Node
	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		out = append(out, n)
	}
	return out
}

// violationThresholds is the progressively-relaxed violation floor ladder
// of §4.8 step 5 ("dividing by 10 until a floor near 1/∞"): starting at a
// normal tolerance and descending toward (but never reaching) zero, so a
// constraint only barely above feasibility is still considered on the
// final rung.
var violationThresholds = []float64{1e-1, 1e-2, 1e-3, 1e-4, 1e-5, 1e-6, 1e-9, 1e-12}

// EnforceOutcome reports what EnforceSolution accomplished for a single
// candidate solution.
type EnforceOutcome int

const (
	EnforceNothing EnforceOutcome = iota
	EnforceCutAdded
	EnforceBranchCandidate
	EnforceCutoffFound
)

// EnforceSolution implements the "enforcement per candidate infeasible
// solution" procedure of §4.8, called by the host after an LP solve.
func EnforceSolution(ctx *Context, host Host, cons []*Constraint, point EvalPoint, solTag Tag) (EnforceOutcome, error) {
	type violated struct {
		c   *Constraint
		mv  float64
	}
	var vs []violated
	for _, c := range cons {
		mv := c.MaxViolation(ctx, point, solTag)
		if mv > ctx.Config.FeasTol {
			vs = append(vs, violated{c: c, mv: mv})
		}
	}
	if len(vs) == 0 {
		return EnforceNothing, nil
	}

	outcome, err := Propagate(ctx, host, cons)
	if err != nil {
		return EnforceCutoffFound, err
	}
	if outcome == OutcomeCutoff {
		return EnforceCutoffFound, nil
	}

	sort.SliceStable(vs, func(i, j int) bool { return vs[i].mv > vs[j].mv })

	for _, v := range vs {
		if ctx.aborted() {
			return EnforceNothing, nil
		}
		if cut, err := trySepaEstimate(ctx, host, v.c.Root); err != nil {
			return EnforceCutoffFound, err
		} else if cut {
			return EnforceCutAdded, nil
		}
	}

	scoreTag := ctx.NewScoreTag()
	for _, v := range vs {
		PropagateBranchScores(ctx, v.c.Root, point, v.mv, scoreTag)
	}
	for _, threshold := range violationThresholds {
		if registerScoredCandidates(ctx, host, cons, scoreTag, threshold) {
			return EnforceBranchCandidate, nil
		}
	}

	// Final fallback: register any unfixed variable appearing in a
	// violated constraint.
	for _, v := range vs {
		for _, leaf := range v.c.VarLeaves() {
			hv, ok := leaf.Data().(HostVar)
			if !ok {
				continue
			}
			b := host.Bounds(hv)
			if b.IsSingleton() {
				continue
			}
			if err := host.RegisterBranchCandidate(hv, v.mv); err == nil {
				return EnforceBranchCandidate, nil
			}
		}
	}
	return EnforceNothing, nil
}

// trySepaEstimate calls every enforcement record's Sepa (preferred) or
// Estimate callback on root's DFS, returning true on the first cut
// produced.
func trySepaEstimate(ctx *Context, host Host, root *Node) (bool, error) {
	nodes := collectAllDFS(ctx, root)
	for _, n := range nodes {
		if n.AuxVar() == nil {
			continue
		}
		for _, rec := range n.enforcements {
			if rec.Methods&MethodSepa != 0 && rec.Handler.Sepa != nil {
				res, err := rec.Handler.Sepa(ctx, n, rec)
				if err != nil {
					return false, err
				}
				if res == CutInfeasible {
					return false, ErrInfeasible.New(n.handler.Name)
				}
				if res == CutSeparated {
					return true, nil
				}
			}
			if rec.Handler.Estimate != nil {
				row, err := rec.Handler.Estimate(n, rec, true)
				if err != nil {
					continue
				}
				if _, err := host.SubmitCut(row, n.RawInterval().Lo, n.RawInterval().Hi); err == nil {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// registerScoredCandidates registers every variable leaf whose forwarded
// branching score exceeds threshold as a host branching candidate,
// returning true if at least one was registered.
func registerScoredCandidates(ctx *Context, host Host, cons []*Constraint, scoreTag Tag, threshold float64) bool {
	any := false
	for _, c := range cons {
		for _, leaf := range c.VarLeaves() {
			score, ok := leaf.Score(scoreTag)
			if !ok || score < threshold {
				continue
			}
			hv, ok := leaf.Data().(HostVar)
			if !ok {
				continue
			}
			if err := host.RegisterBranchCandidate(hv, score); err == nil {
				any = true
			}
		}
	}
	return any
}
