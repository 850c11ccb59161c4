package expr

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Curvature classifies a node's known shape under its current domain.
type Curvature int

const (
	CurvatureUnknown Curvature = iota
	CurvatureLinear
	CurvatureConvex
	CurvatureConcave
)

func (c Curvature) String() string {
	switch c {
	case CurvatureLinear:
		return "linear"
	case CurvatureConvex:
		return "convex"
	case CurvatureConcave:
		return "concave"
	default:
		return "unknown"
	}
}

// Monotonicity classifies how a node varies with one of its children.
type Monotonicity int

const (
	MonotoneUnknown Monotonicity = iota
	MonotoneIncreasing
	MonotoneDecreasing
	MonotoneConstant
)

// EvalPoint supplies the per-variable assignment an Eval callback needs to
// compute a node's value; it is indexed by the host variable reference
// carried in var-kind node payloads.
type EvalPoint map[interface{}]float64

// ExprHandler is the per-operator vtable described in spec §6. All fields
// are optional except Name and Eval, mirroring the teacher's
// interface-per-concern split (ModelConstraint / PropagationConstraint in
// propagation.go) but expressed as a function-pointer table rather than a
// Go interface, per the design note favoring one load of indirection on
// the eval/inteval hot path over per-operator monomorphization.
type ExprHandler struct {
	Name       string
	Precedence int
	Class      Class

	// Eval computes the node's value given its children's already-computed
	// values and (for leaves) the evaluation point. Returns math.NaN() to
	// signal ErrDomain (e.g. log of a non-positive number): callers must
	// treat a NaN value as the "invalid" sentinel, never as an error return.
	Eval func(node *Node, childValues []float64, point EvalPoint) float64

	// IntEval computes a sound enclosure of the node's value given its
	// children's current intervals.
	IntEval func(node *Node, childIntervals []Interval) Interval

	// Simplify returns a (possibly new) equivalent simplified node, or nil
	// if the node given is already in normal form and should be captured
	// unchanged. Children of the input are already simplified.
	Simplify func(ctx *Context, node *Node) *Node

	// ReverseProp tightens children's intervals given the node's own
	// tightened interval, calling ctx.TightenChild for each child it
	// wants to narrow (see reverseprop.go).
	ReverseProp func(ctx *Context, node *Node) error

	// Estimate produces a linear under/over-estimator of the node as a
	// function of its children's auxiliary variables.
	Estimate func(node *Node, overestimate bool) (LinearExpr, error)

	Sepa     func(ctx *Context, node *Node) (bool, error)
	InitSepa func(ctx *Context, node *Node) error
	ExitSepa func(ctx *Context, node *Node) error

	// Hash combines the already-computed hashes of this node's children
	// into this node's structural hash.
	Hash func(node *Node, childHashes []uint64) uint64

	// Compare provides the total order used by both CSE's hash-collision
	// resolution and the simplifier's child-sorting pass (§4.2). It
	// returns <0, 0, >0 the way sort.Interface comparators do.
	Compare func(a, b *Node) int

	Print func(node *Node, childStrings []string) string
	Curvature func(node *Node, childCurvatures []Curvature) Curvature
	Monotonicity func(node *Node, childIndex int) Monotonicity
	Integrality func(node *Node, childIntegral []bool) bool
	BwDiff func(node *Node, childIndex int, childValues []float64) float64

	CopyData func(data interface{}) interface{}
	FreeData func(data interface{})

	BranchScore func(node *Node, childValues []float64, violation float64) float64
}

// classOrder is the total order over expression classes used by Compare
// ties and by the normal-form child-sorting pass (§4.2, §4.3):
// value < variable < sum < product < power < function. Exported (unlike
// most of this file's internals) because a concrete operator package
// outside expr must be able to declare which class its handler belongs
// in; see ExprHandler.Class.
type classOrder = Class

// Class is the exported name for classOrder, used in ExprHandler's field
// declaration; operator packages assign one of the ClassXxx constants.
type Class int

const (
	ClassValue Class = iota
	ClassVariable
	ClassSum
	ClassProduct
	ClassPower
	ClassFunction
)

// handlerStats accumulates per-handler counters and timers, mirroring the
// teacher's SolverStats (constraint_manager.go).
type handlerStats struct {
	mu          sync.Mutex
	evalCount   int64
	evalElapsed time.Duration
}

func (s *handlerStats) recordEval(d time.Duration) {
	s.mu.Lock()
	s.evalCount++
	s.evalElapsed += d
	s.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the accumulated statistics.
func (s *handlerStats) Snapshot() (count int64, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evalCount, s.evalElapsed
}

type registeredHandler struct {
	handler    *ExprHandler
	enabled    bool
	deprecated bool
	stats      *handlerStats
}

// Registry is the flat, name-keyed collection of expression handlers
// described in spec §3 ("two flat ordered collections"). It is the
// expression-handler half; NLRegistry (nlhandler.go) is the
// priority-ordered nonlinear-handler half. Both follow the same
// registration/routing/statistics shape as the teacher's
// ConstraintManager (constraint_manager.go), generalized from
// string-keyed solver routing to operator-name-keyed handler dispatch.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*registeredHandler
	order    []string // insertion order, for deterministic iteration/printing
}

// NewRegistry creates an empty expression-handler registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*registeredHandler)}
}

// Register adds a handler under its Name. Re-registering under a name
// already held by an enabled (non-deprecated) handler is an error;
// re-registering under a name held by a deprecated handler succeeds and
// replaces it, matching the versioning model in api_stability.go-derived
// SUPPLEMENTED FEATURES (SPEC_FULL.md §12).
func (r *Registry) Register(h *ExprHandler) error {
	if h == nil || h.Name == "" {
		return fmt.Errorf("expr: handler must have a non-empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[h.Name]; ok && !existing.deprecated {
		return ErrHandlerExists.New(h.Name, existing.deprecated)
	}
	if _, ok := r.byName[h.Name]; !ok {
		r.order = append(r.order, h.Name)
	}
	r.byName[h.Name] = &registeredHandler{handler: h, enabled: true, stats: &handlerStats{}}
	return nil
}

// Deprecate marks a registered handler's name as superseded without
// removing it, so a later Register under the same name is accepted.
func (r *Registry) Deprecate(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rh, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("expr: cannot deprecate unknown handler %q", name)
	}
	rh.deprecated = true
	return nil
}

// Lookup returns the handler registered under name, or nil if none exists
// or it has been disabled.
func (r *Registry) Lookup(name string) *ExprHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rh, ok := r.byName[name]
	if !ok || !rh.enabled {
		return nil
	}
	return rh.handler
}

// SetEnabled toggles whether a handler participates in detection/parsing.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rh, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("expr: unknown handler %q", name)
	}
	rh.enabled = enabled
	return nil
}

// Names returns registered handler names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// recordEval looks up and updates a handler's accumulated eval statistics;
// a no-op if the handler isn't registered under this registry (e.g. a
// handler used ad hoc in tests).
func (r *Registry) recordEval(name string, d time.Duration) {
	r.mu.RLock()
	rh, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		rh.stats.recordEval(d)
	}
}

// Stats returns the accumulated (count, elapsed) eval statistics for a
// handler name.
func (r *Registry) Stats(name string) (count int64, elapsed time.Duration, ok bool) {
	r.mu.RLock()
	rh, found := r.byName[name]
	r.mu.RUnlock()
	if !found {
		return 0, 0, false
	}
	c, d := rh.stats.Snapshot()
	return c, d, true
}

// SortedNames returns registered names ordered the way the simplifier's
// child-sorting pass needs class-tied handlers resolved: alphabetically,
// which is deterministic and stable across runs (used only for
// diagnostics/printing, never to decide Compare order of actual nodes).
func (r *Registry) SortedNames() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}

// LinearExpr is the sparse linear-row shape used by Estimate/Sepa results
// and by the constraint record's cached NLP relaxation row (§3).
type LinearExpr struct {
	Coeffs   map[*Node]float64
	Constant float64
}

// NewLinearExpr returns an empty linear expression (constant 0).
func NewLinearExpr() LinearExpr {
	return LinearExpr{Coeffs: make(map[*Node]float64)}
}

// AddTerm accumulates coeff*auxVarNode into the expression.
func (l *LinearExpr) AddTerm(node *Node, coeff float64) {
	if l.Coeffs == nil {
		l.Coeffs = make(map[*Node]float64)
	}
	l.Coeffs[node] += coeff
}
