package expr

// Stage identifies which event of a traversal the iterator is currently
// stopped at (spec §4.1).
type Stage int

const (
	// StageEnter fires once per node, before any of its children are
	// visited (DFS only).
	StageEnter Stage = iota
	// StageVisitingChild fires once per child edge, before descending
	// into it (DFS only); Skip() here skips that child's subtree.
	StageVisitingChild
	// StageVisitedChild fires once per child edge, after returning from
	// it (DFS only).
	StageVisitedChild
	// StageLeave fires once per node, after all children have been
	// visited (DFS only).
	StageLeave
	// StageDequeue fires once per node for a BFS traversal.
	StageDequeue
	// StageEnd is the sentinel stage reported once the walk is exhausted.
	StageEnd
)

// Traversal selects DFS or BFS order.
type Traversal int

const (
	TraversalDFS Traversal = iota
	TraversalBFS
)

// StageSet is a bitmask of the Stages an Iterator should stop at; stages
// the caller did not opt into are passed through silently.
type StageSet uint8

const (
	StageEnterBit        StageSet = 1 << StageEnter
	StageVisitingChildBit StageSet = 1 << StageVisitingChild
	StageVisitedChildBit StageSet = 1 << StageVisitedChild
	StageLeaveBit        StageSet = 1 << StageLeave
	StageDequeueBit      StageSet = 1 << StageDequeue

	StageAllDFS = StageEnterBit | StageVisitingChildBit | StageVisitedChildBit | StageLeaveBit
)

func (s StageSet) has(stage Stage) bool { return s&(1<<stage) != 0 }

// dfsFrame is one stack entry of the hand-rolled DFS state machine (design
// note §9: "Implement as a hand-rolled stack of frames, not with
// host-language coroutines, because control must interleave with caller
// logic").
type dfsFrame struct {
	node       *Node
	childIndex int
	entered    bool
}

// Iterator is the reentrant DFS/BFS walker of spec §4.1. It is bound to a
// single root for its lifetime and occupies one active-iterator index for
// as long as it is open (see Context.checkoutIterator).
type Iterator struct {
	ctx    *Context
	idx    int
	stages StageSet
	traversal Traversal
	allowRevisit bool

	visited map[*Node]bool // used only when !allowRevisit

	// DFS state
	stack []dfsFrame

	// BFS state
	queue []*Node
	qhead int

	current      *Node
	stage        Stage
	stagingChild int
	closed       bool
}

// newIterator is called by Context.NewIterator, which owns pool checkout.
func newIterator(ctx *Context, idx int, root *Node, traversal Traversal, stages StageSet, allowRevisit bool) *Iterator {
	it := &Iterator{
		ctx:          ctx,
		idx:          idx,
		stages:       stages,
		traversal:    traversal,
		allowRevisit: allowRevisit,
	}
	if !allowRevisit {
		it.visited = make(map[*Node]bool)
	}
	if root != nil {
		if traversal == TraversalBFS {
			it.queue = append(it.queue, root)
		} else {
			it.stack = append(it.stack, dfsFrame{node: root})
		}
	} else {
		it.stage = StageEnd
	}
	return it
}

// Close releases the iterator's active-iterator index back to the pool and
// drops any per-node scratch slots it wrote. After Close the iterator must
// not be used again.
func (it *Iterator) Close() {
	if it.closed {
		return
	}
	it.closed = true
	for n := range it.visited {
		n.iterClear(it.idx)
	}
	for _, f := range it.stack {
		f.node.iterClear(it.idx)
	}
	for _, n := range it.queue {
		n.iterClear(it.idx)
	}
	it.ctx.releaseIterator(it.idx)
}

// IsEnd reports whether the traversal has been exhausted.
func (it *Iterator) IsEnd() bool { return it.stage == StageEnd }

// Current returns the node the iterator is currently stopped at.
func (it *Iterator) Current() *Node { return it.current }

// CurrentStage returns the stage the iterator is currently stopped at.
func (it *Iterator) CurrentStage() Stage { return it.stage }

// Next advances to the next event consistent with the selected stages,
// returning the new current node (or nil at end).
func (it *Iterator) Next() *Node {
	if it.traversal == TraversalBFS {
		return it.nextBFS()
	}
	return it.nextDFS()
}

func (it *Iterator) nextBFS() *Node {
	for it.qhead < len(it.queue) {
		n := it.queue[it.qhead]
		it.qhead++
		if !it.allowRevisit {
			if it.visited[n] {
				continue
			}
			it.visited[n] = true
		}
		for _, c := range n.children {
			it.queue = append(it.queue, c)
		}
		it.current = n
		it.stage = StageDequeue
		if it.stages.has(StageDequeue) {
			return n
		}
	}
	it.current = nil
	it.stage = StageEnd
	return nil
}

// nextDFS drives the hand-rolled frame stack. It loops internally past
// stages the caller didn't opt into, only returning control at a stage
// the caller will observe.
func (it *Iterator) nextDFS() *Node {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if !top.entered {
			top.entered = true
			if !it.allowRevisit && it.visited[top.node] {
				// Already visited through another parent: pop without
				// entering again.
				it.stack = it.stack[:len(it.stack)-1]
				continue
			}
			if !it.allowRevisit {
				it.visited[top.node] = true
			}
			it.current = top.node
			it.stage = StageEnter
			if it.stages.has(StageEnter) {
				return top.node
			}
		}

		if top.childIndex < len(top.node.children) {
			ci := top.childIndex
			child := top.node.children[ci]
			if it.stage == StageVisitingChild && it.current == top.node && it.stagingChild == ci {
				// Resuming after a reported, unskipped VisitingChild: descend.
				top.childIndex++
				it.stack = append(it.stack, dfsFrame{node: child})
				continue
			}
			it.current = top.node
			it.stage = StageVisitingChild
			// record the child index being visited so ChildIndex()/ChildNode()
			// are meaningful if the caller stops here.
			it.stagingChild = ci
			if it.stages.has(StageVisitingChild) {
				top.childIndex = ci // don't advance yet; Skip() relies on this
				return top.node
			}
			top.childIndex++
			it.stack = append(it.stack, dfsFrame{node: child})
			continue
		}

		// All children visited (or skipped): leave, then pop.
		n := top.node
		if it.stage != StageLeave || it.current != n {
			it.current = n
			it.stage = StageLeave
			if it.stages.has(StageLeave) {
				return n
			}
		}
		it.stack = it.stack[:len(it.stack)-1]
		if len(it.stack) > 0 {
			parent := &it.stack[len(it.stack)-1]
			it.current = parent.node
			it.stage = StageVisitedChild
			it.stagingChild = parent.childIndex - 1
			if it.stages.has(StageVisitedChild) {
				return parent.node
			}
		}
	}
	it.current = nil
	it.stage = StageEnd
	return nil
}

// ChildIndex returns the child index associated with the current
// StageVisitingChild/StageVisitedChild event.
func (it *Iterator) ChildIndex() int { return it.stagingChild }

// ChildNode returns the child node associated with the current
// StageVisitingChild/StageVisitedChild event.
func (it *Iterator) ChildNode() *Node {
	if it.current == nil || it.stagingChild >= len(it.current.children) {
		return nil
	}
	return it.current.children[it.stagingChild]
}

// Skip abandons the remainder of the subtree rooted at the node currently
// being entered or visited-as-child, per spec §4.1. It is only valid while
// stopped at StageEnter or StageVisitingChild.
func (it *Iterator) Skip() {
	if len(it.stack) == 0 {
		return
	}
	switch it.stage {
	case StageEnter:
		// Pop the just-entered frame without visiting its children.
		it.stack = it.stack[:len(it.stack)-1]
	case StageVisitingChild:
		top := &it.stack[len(it.stack)-1]
		top.childIndex++
	}
}

// UserData returns the iterator-local scratch value attached to node under
// this iterator's active index.
func (it *Iterator) UserData(node *Node) (ptr interface{}, i int, ok bool) {
	s, found := node.iterGet(it.idx)
	return s.ptr, s.i, found
}

// SetUserData attaches iterator-local scratch to node under this
// iterator's active index.
func (it *Iterator) SetUserData(node *Node, ptr interface{}, i int) {
	node.iterSet(it.idx, iterSlot{ptr: ptr, i: i})
}
