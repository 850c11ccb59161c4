package expr

import (
	"sort"
	"sync"
)

// EnforceSides is a bitmask of which side(s) of lhs <= f(x) <= rhs a
// nonlinear handler takes responsibility for enforcing at a node.
type EnforceSides int

const (
	EnforceNone  EnforceSides = 0
	EnforceBelow EnforceSides = 1 << iota
	EnforceAbove
	EnforceBoth = EnforceBelow | EnforceAbove
)

// Methods is a bitmask of the enforcement methods a nonlinear handler
// advertises for a node after Detect succeeds.
type Methods int

const (
	MethodSepa Methods = 1 << iota
	MethodInterval
	MethodReverseProp
)

// NonlinearHandler is the per-structure plug-in contract of spec §6. Each
// handler recognizes a structural pattern in a subtree (quadratic, convex,
// bilinear, ...) during detection and, once it has claimed a node, owns
// separation/estimation/branch-scoring for it via the node's
// EnforcementRecord.
type NonlinearHandler struct {
	Name     string
	Priority int

	// Detect inspects node (isRoot indicates whether it is a constraint
	// root, which changes which handlers are interested per §9's open
	// question) and, on success, returns the sides it can enforce, the
	// methods it offers, and opaque per-node data to stash in the
	// resulting EnforcementRecord.
	Detect func(ctx *Context, node *Node, isRoot bool) (sides EnforceSides, methods Methods, data interface{}, ok bool)

	// EvalAux computes the auxiliary-variable-consistent value of node
	// (as opposed to ExprHandler.Eval, which computes the exact
	// expression value).
	EvalAux func(node *Node, rec *EnforcementRecord) float64

	IntEval     func(ctx *Context, node *Node, rec *EnforcementRecord) Interval
	ReverseProp func(ctx *Context, node *Node, rec *EnforcementRecord) error
	InitSepa    func(ctx *Context, node *Node, rec *EnforcementRecord) error
	Sepa        func(ctx *Context, node *Node, rec *EnforcementRecord) (CutResult, error)
	Estimate    func(node *Node, rec *EnforcementRecord, overestimate bool) (LinearExpr, error)
	ExitSepa    func(ctx *Context, node *Node, rec *EnforcementRecord) error
	BranchScore func(node *Node, rec *EnforcementRecord, violation float64) float64

	Init          func(ctx *Context) error
	Exit          func(ctx *Context) error
	FreeHandlerData func()
	FreeExprData  func(data interface{})
}

// CutResult reports the outcome of a Sepa call (§4.8).
type CutResult int

const (
	CutNone CutResult = iota
	CutSeparated
	CutInfeasible
)

// EnforcementRecord is the per-node, per-nonlinear-handler record created
// in the detect phase (spec §3). It is destroyed when leaving solving or
// when canonicalization invalidates it (Node.ClearEnforcements).
type EnforcementRecord struct {
	Handler         *NonlinearHandler
	Data            interface{}
	Sides           EnforceSides
	Methods         Methods
	InitSepaCalled  bool
	CachedAuxValue  float64
	CachedValueTag  Tag
}

// nlStats mirrors handlerStats but keyed by NonlinearHandler, tracking
// detection attempts/successes in addition to timing.
type nlStats struct {
	mu       sync.Mutex
	detects  int64
	successes int64
}

func (s *nlStats) recordDetect(success bool) {
	s.mu.Lock()
	s.detects++
	if success {
		s.successes++
	}
	s.mu.Unlock()
}

// Snapshot returns (detect attempts, successes).
func (s *nlStats) Snapshot() (int64, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detects, s.successes
}

type registeredNLHandler struct {
	handler *NonlinearHandler
	enabled bool
	stats   *nlStats
}

// NLRegistry is the priority-ordered nonlinear-handler collection of spec
// §3. Handlers are tried in descending-priority order during detection
// (§4.8); within a single node they "fire in... priority-descending
// order" (§5).
type NLRegistry struct {
	mu       sync.RWMutex
	byName   map[string]*registeredNLHandler
	ordered  []*NonlinearHandler // kept sorted by descending priority
}

// NewNLRegistry creates an empty nonlinear-handler registry.
func NewNLRegistry() *NLRegistry {
	return &NLRegistry{byName: make(map[string]*registeredNLHandler)}
}

// Register adds a nonlinear handler, re-sorting the priority order.
func (r *NLRegistry) Register(h *NonlinearHandler) error {
	if h == nil || h.Name == "" {
		return ErrPluginLookup.New("<empty>")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[h.Name]; exists {
		return ErrHandlerExists.New(h.Name, false)
	}
	r.byName[h.Name] = &registeredNLHandler{handler: h, enabled: true, stats: &nlStats{}}
	r.ordered = append(r.ordered, h)
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Priority > r.ordered[j].Priority
	})
	return nil
}

// Ordered returns the enabled nonlinear handlers in descending-priority
// order, a fresh slice safe for the caller to range over while detection
// mutates node state.
func (r *NLRegistry) Ordered() []*NonlinearHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*NonlinearHandler, 0, len(r.ordered))
	for _, h := range r.ordered {
		if r.byName[h.Name].enabled {
			out = append(out, h)
		}
	}
	return out
}

// Lookup returns the handler registered under name, or nil.
func (r *NLRegistry) Lookup(name string) *NonlinearHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rh, ok := r.byName[name]
	if !ok {
		return nil
	}
	return rh.handler
}

// SetEnabled toggles whether a handler participates in detection.
func (r *NLRegistry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rh, ok := r.byName[name]
	if !ok {
		return ErrPluginLookup.New(name)
	}
	rh.enabled = enabled
	return nil
}

// Names returns registered handler names in descending-priority order.
func (r *NLRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.ordered))
	for i, h := range r.ordered {
		out[i] = h.Name
	}
	return out
}

func (r *NLRegistry) recordDetect(name string, success bool) {
	r.mu.RLock()
	rh, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		rh.stats.recordDetect(success)
	}
}

// Stats returns (detect attempts, successes) for a handler name.
func (r *NLRegistry) Stats(name string) (attempts, successes int64, ok bool) {
	r.mu.RLock()
	rh, found := r.byName[name]
	r.mu.RUnlock()
	if !found {
		return 0, 0, false
	}
	a, s := rh.stats.Snapshot()
	return a, s, true
}
