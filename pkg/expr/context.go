package expr

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Context is the per-solver-instance state threaded through every entry
// point in this package: handler registries, tag minters, the
// active-iterator index pool, configuration, and a logger. It replaces
// the "global mutable state" the design notes (§9) forbid: there is
// exactly one Context per host solver instance, created once and passed
// explicitly, the same way the teacher threads a *Model/*Solver pair
// through every propagation and search call instead of relying on package
// globals.
type Context struct {
	Handlers   *Registry
	NLHandlers *NLRegistry

	BoxTags   TagMinter
	ScoreTags TagMinter
	DiffTags  TagMinter
	SolTags   TagMinter

	Config *Config
	Log    *logrus.Entry

	abortSignal func() bool

	// iterator pool: a LIFO free list of indices, growing on demand
	// (spec §9 open question: "allocate the slot dynamically rather than
	// at a fixed depth"). maxIterators bounds runaway leaks (a caller that
	// never Closes its iterators) rather than real concurrent usage.
	freeIterators []int
	nextIterator  int
	openIterators int
	maxIterators  int

	// revProp is the transient state a handler's ReverseProp callback
	// needs to tighten a child through TightenChild; it is only valid
	// while a reverse-propagation pass is draining the queue (single
	// active pass at a time, per spec §5's strictly single-threaded
	// cooperative model).
	revProp struct {
		host   Host
		q      *reverseQueue
		boxTag Tag
	}
}

// TightenChild lets a handler's ReverseProp callback tighten one of its
// children to proposed, using the host/queue/box-tag of the
// reverse-propagation pass currently in progress. It must only be called
// from within a ReverseProp callback.
func (ctx *Context) TightenChild(child *Node, proposed Interval, force bool) (changed bool, err error) {
	return TightenChild(ctx, ctx.revProp.host, ctx.revProp.q, child, proposed, ctx.revProp.boxTag, force)
}

// NewContext creates a Context with fresh registries and the given
// configuration. If cfg is nil, DefaultConfig() is used.
func NewContext(cfg *Config) *Context {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Context{
		Handlers:     NewRegistry(),
		NLHandlers:   NewNLRegistry(),
		Config:       cfg,
		Log:          logrus.NewEntry(logrus.StandardLogger()),
		maxIterators: cfg.MaxActiveIterators,
	}
}

// checkoutIterator hands out the next free active-iterator index,
// preferring the most recently released index (LIFO), as spec §9 requires
// ("checkout is last-in-first-out").
func (ctx *Context) checkoutIterator() (int, error) {
	if ctx.openIterators >= ctx.maxIterators {
		return 0, ErrTooManyIterators.New(ctx.maxIterators)
	}
	ctx.openIterators++
	if n := len(ctx.freeIterators); n > 0 {
		idx := ctx.freeIterators[n-1]
		ctx.freeIterators = ctx.freeIterators[:n-1]
		return idx, nil
	}
	idx := ctx.nextIterator
	ctx.nextIterator++
	return idx, nil
}

func (ctx *Context) releaseIterator(idx int) {
	ctx.openIterators--
	ctx.freeIterators = append(ctx.freeIterators, idx)
}

// NewIterator creates an Iterator bound to root, consuming one
// active-iterator slot. The caller must Close it.
func (ctx *Context) NewIterator(root *Node, traversal Traversal, stages StageSet, allowRevisit bool) (*Iterator, error) {
	idx, err := ctx.checkoutIterator()
	if err != nil {
		return nil, err
	}
	return newIterator(ctx, idx, root, traversal, stages, allowRevisit), nil
}

// NewBoxTag mints a fresh tag for a forward-propagation pass.
func (ctx *Context) NewBoxTag() Tag { return ctx.BoxTags.Next() }

// NewScoreTag mints a fresh tag for a branch-score propagation pass.
func (ctx *Context) NewScoreTag() Tag { return ctx.ScoreTags.Next() }

// NewSolutionTag mints a fresh tag gating a host-originated solution's
// cached evaluation values (§6 "Solution tag minting").
func (ctx *Context) NewSolutionTag() Tag { return ctx.SolTags.Next() }

func (ctx *Context) logf(level logrus.Level, format string, args ...interface{}) {
	if ctx.Log == nil {
		return
	}
	ctx.Log.Logf(level, format, args...)
}

// String is a small debugging aid reporting live registry sizes.
func (ctx *Context) String() string {
	return fmt.Sprintf("Context{handlers=%d, nlhandlers=%d, openIterators=%d}",
		len(ctx.Handlers.Names()), len(ctx.NLHandlers.Names()), ctx.openIterators)
}
