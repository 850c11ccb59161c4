package expr

// reverseprop.go implements reverse propagation (spec §4.6): a queue
// seeded with every root whose forward pass produced a change, draining by
// invoking each node's handler reverseprop callbacks and tightening
// children through the shared tighten-interval routine.
//
// Queue order: FIFO among equal priority (spec §5 ordering rule (c), and
// the explicit tie-break in §4.6). The open question in spec §9 about
// height-aware ordering is left unresolved by the source system itself,
// so this implementation takes the one ordering the spec commits to
// (FIFO) rather than inventing an untested height heuristic — see
// DESIGN.md.
type reverseQueue struct {
	items []*Node
	head  int
}

func (q *reverseQueue) push(n *Node) {
	if n.InQueue() {
		return
	}
	n.setInQueue(true)
	q.items = append(q.items, n)
}

func (q *reverseQueue) pop() *Node {
	if q.head >= len(q.items) {
		return nil
	}
	n := q.items[q.head]
	q.head++
	n.setInQueue(false)
	return n
}

func (q *reverseQueue) empty() bool { return q.head >= len(q.items) }

// drain clears the in-queue flag of every remaining item without
// processing it, used when the loop stops early on infeasibility (§4.6
// step 5).
func (q *reverseQueue) drain() {
	for !q.empty() {
		q.pop()
	}
}

// ReversePropagate runs the reverse-propagation loop seeded with roots,
// returning an error (wrapping ErrInfeasible) if any tightening empties an
// interval.
func ReversePropagate(ctx *Context, host Host, roots []*Node, boxTag Tag) error {
	q := &reverseQueue{}
	for _, r := range roots {
		q.push(r)
	}
	return drainReverseQueue(ctx, host, q, boxTag)
}

func drainReverseQueue(ctx *Context, host Host, q *reverseQueue, boxTag Tag) error {
	ctx.revProp.host = host
	ctx.revProp.q = q
	ctx.revProp.boxTag = boxTag
	defer func() {
		ctx.revProp.host = nil
		ctx.revProp.q = nil
		ctx.revProp.boxTag = 0
	}()
	for !q.empty() {
		n := q.pop()
		var err error
		if len(n.enforcements) > 0 {
			for _, rec := range n.enforcements {
				if rec.Methods&MethodReverseProp == 0 || rec.Handler.ReverseProp == nil {
					continue
				}
				if err = rec.Handler.ReverseProp(ctx, n, rec); err != nil {
					break
				}
			}
		} else if n.handler.ReverseProp != nil {
			err = n.handler.ReverseProp(ctx, n)
		}
		if err != nil {
			q.drain()
			return err
		}
	}
	return nil
}

// TightenChild implements the tighten-interval contract of §4.6: intersect
// child's stored interval with proposed, empty it on contradiction
// (signalling infeasibility upward), push the corresponding auxiliary
// variable bound change to the host, and enqueue the child for further
// reverse propagation if it has reverseprop capability and is not already
// queued.
//
// force widens the intersection check: when true, the routine still
// performs the host auxvar tightening push even if the interval itself is
// unchanged (used when a handler knows a downstream effect requires
// re-propagation regardless of interval equality).
func TightenChild(ctx *Context, host Host, q *reverseQueue, child *Node, proposed Interval, boxTag Tag, force bool) (changed bool, err error) {
	cur := child.RawInterval()
	tightened := cur.Intersect(proposed)
	if tightened.IsEmpty() {
		child.SetInterval(Empty, boxTag)
		return false, ErrInfeasible.New(child.handler.Name)
	}
	isChange := tightened != cur
	if !isChange && !force {
		return false, nil
	}
	child.SetInterval(tightened, boxTag)
	if isChange {
		child.MarkTightened()
	}
	if child.auxVar != nil {
		res, err := child.auxVar.Tighten(tightened)
		if err != nil {
			return false, err
		}
		if res == TightenInfeasible {
			child.SetInterval(Empty, boxTag)
			return false, ErrInfeasible.New(child.handler.Name)
		}
	}
	canReverseProp := child.handler.ReverseProp != nil
	for _, rec := range child.enforcements {
		if rec.Methods&MethodReverseProp != 0 && rec.Handler.ReverseProp != nil {
			canReverseProp = true
		}
	}
	if canReverseProp && q != nil {
		q.push(child)
	}
	return isChange, nil
}
