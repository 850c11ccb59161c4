package expr

// forwardprop.go implements forward interval evaluation (spec §4.5): a
// DFS that intersects each node's interval with handler-supplied ranges
// (or enforcement-record ranges, once detection has run) and, optionally,
// with its auxiliary variable's host bounds.

// VarIntervalFunc supplies the interval for a variable-leaf node. Two
// concrete providers are described in §4.5: bound-tightening (relaxed by
// Config.VarboundRelax) and redundancy-check (relaxed by FeasTol).
type VarIntervalFunc func(node *Node) Interval

// BoundTighteningProvider returns a VarIntervalFunc that relaxes a host
// variable's bounds by Config.VarboundRelaxAmount, never crossing the next
// integer for an integer-typed variable.
func BoundTighteningProvider(ctx *Context, host Host, varHandlerName string) VarIntervalFunc {
	return func(node *Node) Interval {
		hv, ok := node.data.(HostVar)
		if !ok {
			return Unbounded
		}
		iv := host.Bounds(hv)
		if ctx.Config.VarboundRelax == RelaxNone {
			return iv
		}
		amt := ctx.Config.VarboundRelaxAmount
		if ctx.Config.VarboundRelax == RelaxRelative {
			amt *= maxAbs(iv.Lo, iv.Hi)
		}
		relaxed := iv.Widen(amt)
		if host.IsIntegerVar(hv) {
			relaxed = clampToIntegerSafe(iv, relaxed)
		}
		return relaxed
	}
}

// RedundancyCheckProvider returns a VarIntervalFunc that relaxes bounds by
// Config.FeasTol, used to prove a constraint redundant against any
// feasible point (§4.5).
func RedundancyCheckProvider(ctx *Context, host Host) VarIntervalFunc {
	return func(node *Node) Interval {
		hv, ok := node.data.(HostVar)
		if !ok {
			return Unbounded
		}
		return host.Bounds(hv).Widen(ctx.Config.FeasTol)
	}
}

func maxAbs(a, b float64) float64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}

// clampToIntegerSafe caps the relaxation of an integer variable's bounds
// at one unit beyond each original bound, so an integral bound is never
// widened past the next integer. A non-integral original bound is capped
// at that bound plus (or minus) one, which can lie past the next integer.
func clampToIntegerSafe(orig, relaxed Interval) Interval {
	lo := relaxed.Lo
	if lo < orig.Lo-1 {
		lo = orig.Lo - 1
	}
	hi := relaxed.Hi
	if hi > orig.Hi+1 {
		hi = orig.Hi + 1
	}
	return Interval{Lo: lo, Hi: hi}
}

// ForwardPropagate walks root's DAG computing each node's interval,
// intersecting handler/enforcement-supplied ranges and (when
// tightenAuxvarBounds is set) pushing the result out to each node's
// auxiliary variable. It returns the root's resulting interval, or an
// error if any node's interval becomes empty (infeasibility, §4.5).
func ForwardPropagate(ctx *Context, host Host, root *Node, varIv VarIntervalFunc, boxTag Tag, tightenAuxvarBounds bool) (Interval, error) {
	it, err := ctx.NewIterator(root, TraversalDFS, StageVisitingChildBit|StageLeaveBit, true)
	if err != nil {
		return Interval{}, err
	}
	defer it.Close()

	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		switch it.CurrentStage() {
		case StageVisitingChild:
			child := it.ChildNode()
			if _, ok := child.Interval(boxTag); ok {
				// Cached interval under this box tag is still trusted
				// (not tightened since last visit): skip recomputing the
				// whole subtree.
				it.Skip()
			}
		case StageLeave:
			iv, err := evalNodeInterval(ctx, host, n, varIv, boxTag)
			if err != nil {
				return Interval{}, err
			}
			if iv.IsEmpty() {
				n.SetInterval(Empty, boxTag)
				return Empty, ErrInfeasible.New(n.handler.Name)
			}
			if tightenAuxvarBounds && n.auxVar != nil {
				if _, err := n.auxVar.Tighten(iv); err != nil {
					return Interval{}, err
				}
			}
			n.SetInterval(iv, boxTag)
		}
	}
	return root.RawInterval(), nil
}

// evalNodeInterval computes node's new interval given its children's
// already-propagated intervals, intersected with the stored interval
// (rather than recomputed wholesale) and with the auxiliary variable's
// host bounds if one exists.
func evalNodeInterval(ctx *Context, host Host, n *Node, varIv VarIntervalFunc, boxTag Tag) (Interval, error) {
	if n.handler.Name == varNodeHandlerMarker {
		return varIv(n), nil
	}

	childIvs := make([]Interval, len(n.children))
	for i, c := range n.children {
		childIvs[i] = c.RawInterval()
	}

	var computed Interval
	if len(n.enforcements) > 0 {
		computed = Unbounded
		for _, rec := range n.enforcements {
			if rec.Methods&MethodInterval == 0 || rec.Handler.IntEval == nil {
				continue
			}
			computed = computed.Intersect(rec.Handler.IntEval(ctx, n, rec))
		}
	} else if n.handler.IntEval != nil {
		computed = n.handler.IntEval(n, childIvs)
	} else {
		computed = Unbounded
	}

	start := Unbounded
	if n.boxTag != 0 {
		start = n.RawInterval()
	}
	result := start.Intersect(computed)

	if n.auxVar != nil {
		result = result.Intersect(n.auxVar.Bounds().Widen(ctx.Config.FeasTol))
	}
	return result, nil
}

// varNodeHandlerMarker is the well-known handler name used to identify
// variable-leaf nodes without importing the ophandlers package (which
// would create an import cycle, since ophandlers registers handlers
// against this package's types). See ophandlers.VarHandlerName.
const varNodeHandlerMarker = "var"
