package expr

// branchscore.go implements branching-score propagation (spec §4.9): a
// non-leaf node's score (produced during enforcement by a nonlinear
// handler's BranchScore callback, or the expression handler as fallback)
// is additively forwarded down to its children across a second DFS, so
// that by the time the walk reaches the variable leaves each leaf's score
// reflects every ancestor's contribution.

// PropagateBranchScores seeds root's own score under scoreTag (computed
// from its enforcement records' BranchScore callbacks, falling back to
// the expression handler's BranchScore if no enforcement record supplies
// one) and forwards it down to every reachable variable leaf.
func PropagateBranchScores(ctx *Context, root *Node, point EvalPoint, violation float64, scoreTag Tag) {
	seedScore(root, point, violation, scoreTag)

	it, err := ctx.NewIterator(root, TraversalDFS, StageVisitingChildBit|StageLeaveBit, true)
	if err != nil {
		return
	}
	defer it.Close()

	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		switch it.CurrentStage() {
		case StageVisitingChild:
			parent := it.Current()
			score, ok := parent.Score(scoreTag)
			if !ok || score == 0 {
				continue
			}
			child := it.ChildNode()
			seedScore(child, point, violation, scoreTag)
			child.AddScore(score, scoreTag)
		case StageLeave:
			// Clear the node's own score now that it has been forwarded
			// to every child, so a revisit (the same node reached again
			// through another parent) does not double-count it.
			n.SetScore(0, scoreTag)
		}
	}
}

// seedScore ensures n has a score recorded under scoreTag, computing one
// from its enforcement records' BranchScore (in registration order,
// summed) or, absent any, the expression handler's own BranchScore.
func seedScore(n *Node, point EvalPoint, violation float64, scoreTag Tag) {
	if _, ok := n.Score(scoreTag); ok {
		return
	}
	if len(n.enforcements) == 0 {
		if n.handler.BranchScore == nil {
			return
		}
		childValues := make([]float64, n.Arity())
		for i, c := range n.children {
			childValues[i] = Eval(c, point, scoreTag)
		}
		n.SetScore(n.handler.BranchScore(n, childValues, violation), scoreTag)
		return
	}
	var total float64
	any := false
	for _, rec := range n.enforcements {
		if rec.Handler.BranchScore == nil {
			continue
		}
		total += rec.Handler.BranchScore(n, rec, violation)
		any = true
	}
	if any {
		n.SetScore(total, scoreTag)
	}
}
