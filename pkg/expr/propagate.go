package expr

// propagate.go implements the overall propagation loop of spec §4.7:
// alternating rounds of forward propagation (against the bound-tightening
// variable provider) and reverse propagation over tightened roots, until a
// round makes no further progress or Config.MaxPropRounds is exhausted.

// PropagationOutcome reports what a call to Propagate concluded about a
// single constraint set.
type PropagationOutcome int

const (
	OutcomeUnchanged PropagationOutcome = iota
	OutcomeReduced
	OutcomeRedundant
	OutcomeCutoff
)

// Propagate runs the bounded forward/reverse alternation over cons, the
// active constraints to propagate this call. Variable bound-change events
// from the host should have already flipped IsPropagated back to false on
// any affected constraint before this is called (§4.7's "is_propagated").
func Propagate(ctx *Context, host Host, cons []*Constraint) (PropagationOutcome, error) {
	boxTag := ctx.NewBoxTag()
	worst := OutcomeUnchanged
	for round := 0; round < ctx.Config.MaxPropRounds; round++ {
		var tightenedRoots []*Node
		anyTightened := false

		for _, c := range cons {
			if c.IsPropagated() {
				continue
			}
			if ctx.aborted() {
				return worst, nil
			}
			iv, err := ForwardPropagate(ctx, host, c.Root, BoundTighteningProvider(ctx, host, varNodeHandlerMarker), boxTag, true)
			if err != nil {
				return OutcomeCutoff, err
			}
			sides := c.sidesInterval(ctx)
			intersected := iv.Intersect(sides)
			if intersected.IsEmpty() {
				return OutcomeCutoff, ErrInfeasible.New("constraint " + c.name())
			}
			if intersected != iv {
				c.Root.SetInterval(intersected, boxTag)
				c.Root.MarkTightened()
			}
			if sides.Contains(iv.Lo) && sides.Contains(iv.Hi) && !iv.IsEmpty() {
				c.redundant = true
				if worst < OutcomeRedundant {
					worst = OutcomeRedundant
				}
			}
			c.SetPropagated(true)
			if c.Root.Tightened() {
				tightenedRoots = append(tightenedRoots, c.Root)
				anyTightened = true
			}
		}

		if len(tightenedRoots) > 0 {
			if err := ReversePropagate(ctx, host, tightenedRoots, boxTag); err != nil {
				return OutcomeCutoff, err
			}
		}

		if !anyTightened {
			break
		}
		if worst < OutcomeReduced {
			worst = OutcomeReduced
		}
		// Any node whose interval changed during reverse propagation may
		// have affected a constraint whose forward pass already ran this
		// round; re-examine on the next round by clearing IsPropagated on
		// constraints whose root was (re)marked tightened.
		for _, c := range cons {
			if c.Root.Tightened() {
				c.SetPropagated(false)
			}
		}
	}
	return worst, nil
}

// aborted reports whether the host has asked the current operation to
// stop (time/memory/node limit, per spec §5's cancellation model). The
// zero Context never aborts; a host wires this up via SetAbortSignal.
func (ctx *Context) aborted() bool {
	if ctx.abortSignal == nil {
		return false
	}
	return ctx.abortSignal()
}

// SetAbortSignal installs a callback the long-running loops (propagation,
// enforcement, detection) poll between constraints/rounds, per spec §5.
func (ctx *Context) SetAbortSignal(f func() bool) { ctx.abortSignal = f }
