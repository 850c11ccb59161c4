package expr

// Node is a vertex of the shared expression DAG: an immutable-shape,
// mutable-payload record (spec §3). Its shape (handler, data, children) is
// fixed at construction; everything else is bookkeeping reset per analysis
// pass and gated by a Tag.
//
// Node corresponds to the teacher's FDVariable/Term pairing (variable.go,
// core.go) generalized from "a single decision variable" to "a vertex in a
// DAG of operators over decision variables", with the per-pass caches
// (value, interval, derivative, score) the teacher keeps on SolverState
// instead folded directly onto the node and gated by Tag rather than
// threaded through a separate copy-on-write state chain — appropriate here
// because, per spec §5, propagation and simplification run in mutually
// exclusive phases on a single thread, so there is no concurrent-state
// problem for Tag gating to solve.
type Node struct {
	handler *ExprHandler
	data    interface{}
	kind    classOrder

	children []*Node
	refs     int

	// --- forward evaluation ---
	value    float64
	valueTag Tag

	// --- forward interval propagation (§4.5) ---
	interval  Interval
	boxTag    Tag
	tightened bool

	// --- reverse-mode derivative (§4.9's BwDiff consumers) ---
	deriv   float64
	diffTag Tag

	// --- branching score propagation (§4.9) ---
	score    float64
	scoreTag Tag

	curvature  Curvature
	integral   bool

	// monotonicity is allocated lazily the first time the node is locked
	// (§4.4) and freed when both lock counters return to zero.
	monotonicity []Monotonicity
	posLocks     int
	negLocks     int

	auxVar       *AuxVar
	enforcements []*EnforcementRecord

	inQueue bool // present in the reverse-propagation priority queue

	// iterData holds per-active-iterator scratch state, keyed by the
	// active-iterator index an Iterator was handed out at Init time. It is
	// allocated lazily and grows to whatever index is actually used,
	// resolving the open question in spec §9 about a fixed iterator-pool
	// depth by never committing to one.
	iterData map[int]iterSlot
}

// iterSlot is the per-node, per-iterator scratch cell: either a pointer or
// a small integer, mirroring the teacher's single-word per-node
// iterator-local storage used during hashing and CSE walks.
type iterSlot struct {
	ptr interface{}
	i   int
}

// NewNode constructs a fresh node with the given handler, opaque payload,
// and children. Children are captured (Retain'd); the new node starts with
// zero references — the caller is responsible for Retain'ing it (directly,
// or by making it a child of another node, which retains it automatically
// via AddChild/SetChildren).
func NewNode(h *ExprHandler, data interface{}, children ...*Node) *Node {
	n := &Node{handler: h, data: data, kind: h.Class}
	n.children = append(n.children, children...)
	for _, c := range children {
		c.retain()
	}
	return n
}

// Handler returns the node's operator vtable.
func (n *Node) Handler() *ExprHandler { return n.handler }

// Data returns the node's opaque operator-specific payload.
func (n *Node) Data() interface{} { return n.data }

// SetData replaces the node's payload in place (used by simplification
// rules that rewrite coefficients without changing node identity, e.g.
// merging a duplicate sum child into an existing one's coefficient).
func (n *Node) SetData(data interface{}) { n.data = data }

// Arity returns the number of children.
func (n *Node) Arity() int { return len(n.children) }

// Child returns the i'th child edge.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns the child slice. Callers must not mutate it directly;
// use ReplaceChild so reference counts stay consistent.
func (n *Node) Children() []*Node { return n.children }

// RefCount returns the current reference count: the number of parent edges
// plus live iterator holds (invariant 2 in spec §3).
func (n *Node) RefCount() int { return n.refs }

func (n *Node) retain() { n.refs++ }

// Release drops one reference. When the count reaches zero the node
// recursively releases its children (invariant 2); a node must never be
// touched again after its last Release.
func (n *Node) Release() {
	n.refs--
	if n.refs > 0 {
		return
	}
	if n.auxVar != nil {
		n.auxVar.release()
		n.auxVar = nil
	}
	for _, c := range n.children {
		c.Release()
	}
	n.children = nil
}

// ReplaceChild retargets child edge i to newChild, releasing the old
// target and retaining the new one. Used by CSE (§4.2) and simplification
// (§4.3) to rewrite the DAG bottom-up without disturbing node identity
// anywhere else in the tree.
func (n *Node) ReplaceChild(i int, newChild *Node) {
	old := n.children[i]
	if old == newChild {
		return
	}
	newChild.retain()
	n.children[i] = newChild
	old.Release()
}

// --- Tag-gated caches ---

// Value returns the cached evaluation value if it was computed under tag,
// else (0, false).
func (n *Node) Value(tag Tag) (float64, bool) {
	if tag != 0 && n.valueTag == tag {
		return n.value, true
	}
	return 0, false
}

// SetValue stores v as the node's evaluation under tag.
func (n *Node) SetValue(v float64, tag Tag) {
	n.value = v
	n.valueTag = tag
}

// Interval returns the cached interval if boxTag matches tag and the node
// has not been marked tightened-since-last-visit; otherwise ok is false and
// the caller must recompute (§4.5).
func (n *Node) Interval(tag Tag) (iv Interval, ok bool) {
	if tag != 0 && n.boxTag == tag && !n.tightened {
		return n.interval, true
	}
	return Interval{}, false
}

// RawInterval returns the stored interval regardless of tag validity, used
// when a caller wants to intersect into the existing bound rather than
// start from Unbounded.
func (n *Node) RawInterval() Interval { return n.interval }

// SetInterval stores iv as the node's interval under tag and clears the
// tightened-since-last-visit flag (the node has now been visited under the
// new box).
func (n *Node) SetInterval(iv Interval, tag Tag) {
	n.interval = iv
	n.boxTag = tag
	n.tightened = false
}

// MarkTightened flags the node as changed since its last visit, forcing
// the next forward pass to revisit its subtree even if the box tag still
// matches.
func (n *Node) MarkTightened() { n.tightened = true }

// Tightened reports the tightened-since-last-visit flag.
func (n *Node) Tightened() bool { return n.tightened }

// Score returns the cached branching score if scoreTag matches tag.
func (n *Node) Score(tag Tag) (float64, bool) {
	if tag != 0 && n.scoreTag == tag {
		return n.score, true
	}
	return 0, false
}

// SetScore stores a branching score under tag.
func (n *Node) SetScore(s float64, tag Tag) {
	n.score = s
	n.scoreTag = tag
}

// AddScore accumulates an additional contribution into the score already
// stored under tag (or starts from zero if the stored score is stale),
// used by branch-score forwarding (§4.9).
func (n *Node) AddScore(delta float64, tag Tag) {
	cur, ok := n.Score(tag)
	if !ok {
		cur = 0
	}
	n.SetScore(cur+delta, tag)
}

// Curvature / Integral

func (n *Node) Curvature() Curvature    { return n.curvature }
func (n *Node) SetCurvature(c Curvature) { n.curvature = c }
func (n *Node) Integral() bool           { return n.integral }
func (n *Node) SetIntegral(b bool)       { n.integral = b }

// AuxVar returns the node's auxiliary variable, or nil if none exists yet.
func (n *Node) AuxVar() *AuxVar { return n.auxVar }

// SetAuxVar attaches an auxiliary variable to the node (invariant 5: its
// interval must be kept a subset of the auxvar's host bounds).
func (n *Node) SetAuxVar(v *AuxVar) { n.auxVar = v }

// Enforcements returns the per-handler enforcement records created during
// detection (§4.8).
func (n *Node) Enforcements() []*EnforcementRecord { return n.enforcements }

// AddEnforcement appends a new enforcement record.
func (n *Node) AddEnforcement(rec *EnforcementRecord) {
	n.enforcements = append(n.enforcements, rec)
}

// ClearEnforcements tears down all enforcement records, called at the top
// of canonicalization (§4.3 step 1) since nonlinear handlers will be
// re-detected afterward.
func (n *Node) ClearEnforcements() { n.enforcements = nil }

// InQueue reports whether the node is currently present in the
// reverse-propagation priority queue.
func (n *Node) InQueue() bool    { return n.inQueue }
func (n *Node) setInQueue(b bool) { n.inQueue = b }

// --- locks (§4.4) ---

// Locks returns the current (positive, negative) lock counts.
func (n *Node) Locks() (pos, neg int) { return n.posLocks, n.negLocks }

// Monotonicity returns the per-child monotonicity array, allocating it
// (all MonotoneUnknown) on first use.
func (n *Node) Monotonicity() []Monotonicity {
	if n.monotonicity == nil && len(n.children) > 0 {
		n.monotonicity = make([]Monotonicity, len(n.children))
	}
	return n.monotonicity
}

// addLocks adjusts the node's own lock counters and frees the
// monotonicity array once both counters return to zero, per §4.4: "when a
// node becomes unlocked... the array is freed, allowing later
// re-computation under possibly different bounds."
func (n *Node) addLocks(dpos, dneg int) {
	n.posLocks += dpos
	n.negLocks += dneg
	if n.posLocks == 0 && n.negLocks == 0 {
		n.monotonicity = nil
	}
}

// --- iterator scratch ---

func (n *Node) iterGet(idx int) (iterSlot, bool) {
	if n.iterData == nil {
		return iterSlot{}, false
	}
	s, ok := n.iterData[idx]
	return s, ok
}

func (n *Node) iterSet(idx int, s iterSlot) {
	if n.iterData == nil {
		n.iterData = make(map[int]iterSlot)
	}
	n.iterData[idx] = s
}

func (n *Node) iterClear(idx int) {
	delete(n.iterData, idx)
}
