package expr

// hash.go implements structural hashing and common-subexpression
// elimination (spec §4.2): a single leaf-first DFS computes each node's
// structural hash via its handler's Hash callback, then a second DFS
// retargets child edges (and constraint roots) to the canonical
// representative of each equivalence class found via a hash-bucketed
// multimap, using each handler's Compare to break collisions.
//
// No third-party hashing library is wired in here (see DESIGN.md): the
// combinator is handler-supplied per node, so there is nothing generic for
// an off-the-shelf hash library to do beyond what a single uint64 mixing
// step already provides.

// ComputeHashes performs the leaf-first hashing DFS and returns each
// visited node's structural hash.
func ComputeHashes(ctx *Context, root *Node) (map[*Node]uint64, error) {
	hashes := make(map[*Node]uint64)
	it, err := ctx.NewIterator(root, TraversalDFS, StageLeaveBit, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		if _, ok := hashes[n]; ok {
			continue
		}
		if n.handler.Hash == nil {
			// Fall back to a structural mix of the children's hashes and
			// the handler name when a handler declines to supply its own
			// combinator (e.g. during early development of a new
			// operator); correctness only requires that equal nodes
			// collide, not that this fallback be collision-free.
			hashes[n] = fallbackHash(n, hashes)
			continue
		}
		childHashes := make([]uint64, len(n.children))
		for i, c := range n.children {
			childHashes[i] = hashes[c]
		}
		hashes[n] = n.handler.Hash(n, childHashes)
	}
	return hashes, nil
}

func fallbackHash(n *Node, hashes map[*Node]uint64) uint64 {
	h := fnvOffset
	for _, r := range n.handler.Name {
		h = (h ^ uint64(r)) * fnvPrime
	}
	for _, c := range n.children {
		h = (h ^ hashes[c]) * fnvPrime
	}
	return h
}

const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

// cseMultimap buckets nodes by structural hash for equivalence lookup.
type cseMultimap struct {
	buckets map[uint64][]*Node
}

func newCSEMultimap() *cseMultimap {
	return &cseMultimap{buckets: make(map[uint64][]*Node)}
}

// find returns the canonical representative equivalent to n (per the
// compare chain), or nil if none has been seen yet.
func (m *cseMultimap) find(n *Node, h uint64) (*Node, error) {
	for _, cand := range m.buckets[h] {
		cmp, err := CompareNodes(cand, n)
		if err != nil {
			return nil, err
		}
		if cmp == 0 {
			return cand, nil
		}
	}
	return nil, nil
}

func (m *cseMultimap) insert(n *Node, h uint64) {
	m.buckets[h] = append(m.buckets[h], n)
}

// CompareNodes implements the ordering rules of §4.2: value < variable <
// sum < product < power < function, and within a class each handler's own
// Compare gives a total order. Exported so a handler's own Compare
// callback (e.g. a sum or product comparing children pairwise) can reuse
// the same total order CSE and the simplifier's child-sorting pass use,
// rather than duplicating the class-ordering logic per operator package.
func CompareNodes(a, b *Node) (int, error) {
	if a == b {
		return 0, nil
	}
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1, nil
		}
		return 1, nil
	}
	if a.handler.Name != b.handler.Name {
		if a.handler.Name < b.handler.Name {
			return -1, nil
		}
		return 1, nil
	}
	if a.handler.Compare == nil {
		return 0, ErrHandlerMissingCompare.New(a.handler.Name)
	}
	return a.handler.Compare(a, b), nil
}

// CSE runs common-subexpression elimination over roots in place: each
// root's subtree is rewritten bottom-up to share identical nodes, and the
// returned slice gives each root's (possibly replaced) canonical node.
func CSE(ctx *Context, roots []*Node) ([]*Node, error) {
	mm := newCSEMultimap()
	out := make([]*Node, len(roots))
	for i, root := range roots {
		canon, err := cseSubtree(ctx, mm, root)
		if err != nil {
			return nil, err
		}
		out[i] = canon
	}
	return out, nil
}

// cseSubtree rewrites root's subtree bottom-up and returns its canonical
// representative, retaining the returned node on the caller's behalf (the
// caller is expected to Release the original root once it installs the
// replacement, exactly like Node.ReplaceChild).
func cseSubtree(ctx *Context, mm *cseMultimap, root *Node) (*Node, error) {
	hashes, err := ComputeHashes(ctx, root)
	if err != nil {
		return nil, err
	}

	it, err := ctx.NewIterator(root, TraversalDFS, StageLeaveBit, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	canon := make(map[*Node]*Node)
	for n := it.Next(); !it.IsEnd(); n = it.Next() {
		if _, done := canon[n]; done {
			continue
		}
		// Retarget children to their canonical forms first.
		for i, c := range n.children {
			if rep, ok := canon[c]; ok && rep != c {
				n.ReplaceChild(i, rep)
			}
		}
		h := hashes[n]
		rep, err := mm.find(n, h)
		if err != nil {
			return nil, err
		}
		if rep != nil {
			canon[n] = rep
			continue
		}
		mm.insert(n, h)
		canon[n] = n
	}

	rep := canon[root]
	if rep != root {
		rep.retain()
		root.Release()
		return rep, nil
	}
	return root, nil
}
