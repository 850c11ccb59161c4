package expr

import "sync/atomic"

// Tag is an opaque, monotonically increasing identifier minted by the
// surrounding solver context. A node's cached value (evaluation, interval,
// derivative, branching score) is trusted only while its stored tag equals
// the tag the query is running under; a zero Tag always means "recompute
// unconditionally". This lets every pass invalidate its caches without
// sweeping the DAG to clear them.
type Tag uint64

// TagMinter hands out fresh, always-nonzero Tags. One exists per
// solver-wide Context (see context.go), analogous to the teacher's
// atomic solver-instance counters (constraint_types.go's
// constraintIDCounter, solver.go's SolverState generation counter).
type TagMinter struct {
	counter uint64
}

// Next returns a new Tag, guaranteed distinct from every Tag returned
// previously by this minter and never zero.
func (m *TagMinter) Next() Tag {
	return Tag(atomic.AddUint64(&m.counter, 1))
}
