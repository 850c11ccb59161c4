package expr

import "math"

// simplify.go implements canonicalization (spec §4.3): the fixed
// eight-step pipeline that tears down stale enforcement state, rewrites
// every constraint's root to normal form bottom-up, restores locks, and
// (during presolving) re-detects nonlinear handlers.

// Canonicalize runs the full eight-step pipeline of §4.3 over cons in
// place. varHandlerName identifies the "var" operator for lock
// propagation (see locks.go); presolving selects whether nonlinear-handler
// detection (step 8, see enforce.go's Detect) runs at the end.
func Canonicalize(ctx *Context, host Host, cons []*Constraint, varHandlerName string, presolving bool) error {
	// Step 1: tear down enforcement records (they will be stale once the
	// DAG is rewritten).
	for _, c := range cons {
		clearEnforcementsDFS(ctx, c.Root)
	}

	// Step 2: temporarily remove all locks.
	savedPos := make([]int, len(cons))
	savedNeg := make([]int, len(cons))
	for i, c := range cons {
		savedPos[i], savedNeg[i] = c.Locks()
		c.RemoveAllLocks(host, varHandlerName)
	}

	// Step 3: per-handler bottom-up rewriting.
	for _, c := range cons {
		simplified, err := simplifySubtree(ctx, c.Root)
		if err != nil {
			return err
		}
		if simplified != c.Root {
			simplified.retain()
			c.Root.Release()
			c.Root = simplified
		}
	}

	// Step 4: side scaling.
	for _, c := range cons {
		scaleSides(ctx, c)
	}

	// Step 5: CSE pass over the whole constraint set.
	roots := make([]*Node, len(cons))
	for i, c := range cons {
		roots[i] = c.Root
	}
	canon, err := CSE(ctx, roots)
	if err != nil {
		return err
	}
	for i, c := range cons {
		c.Root = canon[i]
	}

	// Step 6: reconstruct variable leaves and event subscriptions.
	for _, c := range cons {
		c.SetVarLeaves(collectVarLeaves(ctx, c.Root, varHandlerName))
	}

	// Step 7: restore locks using the saved pre-canonicalization counts.
	for i, c := range cons {
		c.ApplyLocks(host, varHandlerName, 1)
		// ApplyLocks derives its own lock contribution from the sides;
		// if the saved count differs (e.g. a constraint is enforced more
		// than once), push the remainder directly.
		pos, neg := c.Locks()
		if extraPos := savedPos[i] - pos; extraPos != 0 || savedNeg[i]-neg != 0 {
			extraNeg := savedNeg[i] - neg
			AddLocks(host, varHandlerName, c.Root, extraPos, extraNeg)
			c.posLocks += extraPos
			c.negLocks += extraNeg
		}
		c.SetSimplified(true)
		c.SetPropagated(false)
	}

	// Step 8: presolving-time nonlinear-handler detection.
	if presolving {
		for _, c := range cons {
			if err := Detect(ctx, c.Root, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func clearEnforcementsDFS(ctx *Context, root *Node) {
	it, err := ctx.NewIterator(root, TraversalDFS, StageLeaveBit, false)
	if err != nil {
		return
	}
	defer it.Close()
	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		n.ClearEnforcements()
	}
}

// simplifySubtree rewrites root bottom-up, returning a retained
// replacement node (which may be root itself, still only holding the
// caller's original reference — the caller decides whether to
// retain/release around the swap, matching ReplaceChild's contract).
func simplifySubtree(ctx *Context, root *Node) (*Node, error) {
	it, err := ctx.NewIterator(root, TraversalDFS, StageVisitedChildBit|StageLeaveBit, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	replacement := make(map[*Node]*Node)
	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		switch it.CurrentStage() {
		case StageVisitedChild:
			child := it.ChildNode()
			if rep, ok := replacement[child]; ok && rep != child {
				it.Current().ReplaceChild(it.ChildIndex(), rep)
			}
		case StageLeave:
			if _, done := replacement[n]; done {
				continue
			}
			if n.handler.Simplify == nil {
				replacement[n] = n
				continue
			}
			rep := n.handler.Simplify(ctx, n)
			if rep == nil {
				replacement[n] = n
				continue
			}
			replacement[n] = rep
		}
	}
	if rep, ok := replacement[root]; ok {
		return rep, nil
	}
	return root, nil
}

// SumShape is the small interface a sum operator's payload must implement
// to participate in side scaling (§4.3 step 4). Keeping this interface
// narrow, rather than having simplify.go reach into a concrete sum-payload
// struct, preserves the "operator-specific opaque payload" invariant of
// §3: the core never assumes a payload's concrete shape beyond what it
// explicitly opts into exposing.
type SumShape interface {
	CoeffSigns() (pos, neg int)
	Negate() // negates every coefficient and the constant in place
}

// scaleSides implements §4.3 step 4: if the root is a sum with more
// negative than positive coefficients (ties broken toward scaling when
// the right side is +∞), negate every coefficient and the constant, and
// swap the sides.
func scaleSides(ctx *Context, c *Constraint) {
	lin, ok := c.Root.Data().(SumShape)
	if !ok {
		return
	}
	pos, neg := lin.CoeffSigns()
	shouldScale := neg > pos || (neg == pos && math.IsInf(c.Rhs, 1))
	if !shouldScale {
		return
	}
	lin.Negate()
	c.Lhs, c.Rhs = -c.Rhs, -c.Lhs
}

// collectVarLeaves walks root and returns every reachable leaf whose
// handler is the variable operator, deduplicated by pointer identity.
func collectVarLeaves(ctx *Context, root *Node, varHandlerName string) []*Node {
	it, err := ctx.NewIterator(root, TraversalDFS, StageEnterBit, false)
	if err != nil {
		return nil
	}
	defer it.Close()
	var leaves []*Node
	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		if n.handler.Name == varHandlerName {
			leaves = append(leaves, n)
		}
	}
	return leaves
}
