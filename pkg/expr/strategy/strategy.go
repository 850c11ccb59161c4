// Package strategy ranks branching candidates the expr core's enforcement
// pass has already scored (spec §4.9), picking one variable to branch on
// the way the teacher's pkg/minikanren picks a finite-domain variable to
// label. Grounded on gitrdm/gokando's strategy.go/labeling.go
// (LabelingStrategy, StrategyRegistry, CompositeLabeling): the same
// registry-of-named-pluggable-heuristics shape, generalized from
// "domain size / constraint degree" to "forwarded branch score" as the
// ranking signal, since the expression core has no notion of a finite
// domain to measure.
package strategy

import (
	"math/rand"
	"sort"
)

// Candidate is one branching candidate as registered via
// Host.RegisterBranchCandidate: an opaque host variable and the score
// PropagateBranchScores (or a fallback) assigned it.
type Candidate struct {
	Var   interface{}
	Score float64
}

// LabelingStrategy picks one candidate to branch on from the set the
// current enforcement pass produced. Returning ok=false means the
// strategy found nothing to select (an empty candidate list).
type LabelingStrategy interface {
	Select(candidates []Candidate) (Candidate, bool)
	Name() string
	Description() string
}

// HighestScoreLabeling selects the candidate with the largest forwarded
// branch score, breaking ties by the order candidates were registered
// (stable), mirroring FirstFailLabeling's role as the default
// general-purpose heuristic.
type HighestScoreLabeling struct{}

func NewHighestScoreLabeling() *HighestScoreLabeling { return &HighestScoreLabeling{} }

func (s *HighestScoreLabeling) Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}

func (s *HighestScoreLabeling) Name() string { return "highest-score" }
func (s *HighestScoreLabeling) Description() string {
	return "selects the branching candidate with the largest forwarded branch score"
}

// LexicographicLabeling selects the first candidate in registration
// order, ignoring score; deterministic and cheap, useful as a tie-break
// fallback or for reproducing a fixed search order in tests.
type LexicographicLabeling struct{}

func NewLexicographicLabeling() *LexicographicLabeling { return &LexicographicLabeling{} }

func (s *LexicographicLabeling) Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return candidates[0], true
}

func (s *LexicographicLabeling) Name() string { return "lexicographic" }
func (s *LexicographicLabeling) Description() string {
	return "selects the first registered branching candidate, ignoring score"
}

// RandomLabeling selects a uniformly random candidate, seeded for
// reproducible test runs.
type RandomLabeling struct {
	rng *rand.Rand
}

func NewRandomLabeling(seed int64) *RandomLabeling {
	return &RandomLabeling{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomLabeling) Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return candidates[s.rng.Intn(len(candidates))], true
}

func (s *RandomLabeling) Name() string { return "random" }
func (s *RandomLabeling) Description() string {
	return "selects a uniformly random branching candidate, reproducible via its seed"
}

// TopKLabeling selects among the k highest-scoring candidates uniformly
// at random, trading the determinism of HighestScoreLabeling for some
// diversification while still favoring high-score candidates.
type TopKLabeling struct {
	k   int
	rng *rand.Rand
}

func NewTopKLabeling(k int, seed int64) *TopKLabeling {
	if k < 1 {
		k = 1
	}
	return &TopKLabeling{k: k, rng: rand.New(rand.NewSource(seed))}
}

func (s *TopKLabeling) Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	k := s.k
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[s.rng.Intn(k)], true
}

func (s *TopKLabeling) Name() string { return "top-k" }
func (s *TopKLabeling) Description() string {
	return "selects uniformly at random among the k highest-scoring branching candidates"
}

// CompositeLabeling tries each strategy in order until one selects a
// candidate; useful for layering a deterministic fallback behind a
// randomized primary strategy.
type CompositeLabeling struct {
	name       string
	strategies []LabelingStrategy
}

func NewCompositeLabeling(name string, strategies ...LabelingStrategy) *CompositeLabeling {
	return &CompositeLabeling{name: name, strategies: strategies}
}

func (s *CompositeLabeling) Select(candidates []Candidate) (Candidate, bool) {
	for _, strat := range s.strategies {
		if c, ok := strat.Select(candidates); ok {
			return c, true
		}
	}
	return Candidate{}, false
}

func (s *CompositeLabeling) Name() string { return s.name }
func (s *CompositeLabeling) Description() string {
	desc := "composite strategy combining: "
	for i, strat := range s.strategies {
		if i > 0 {
			desc += ", "
		}
		desc += strat.Name()
	}
	return desc
}

// Registry is a named lookup of labeling strategies, mirroring the
// teacher's StrategyRegistry but scoped to labeling alone: this package
// has no counterpart to the teacher's SearchStrategy, since search over
// the branch-and-bound tree belongs to the host, not the constraint
// handler core.
type Registry struct {
	byName map[string]LabelingStrategy
}

// NewRegistry creates a registry pre-populated with the built-in
// strategies, the same "construct with defaults already registered"
// pattern as NewStrategyRegistry.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]LabelingStrategy)}
	r.Register(NewHighestScoreLabeling())
	r.Register(NewLexicographicLabeling())
	r.Register(NewRandomLabeling(42))
	r.Register(NewTopKLabeling(3, 42))
	return r
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s LabelingStrategy) {
	r.byName[s.Name()] = s
}

// Get retrieves a strategy by name.
func (r *Registry) Get(name string) (LabelingStrategy, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Names lists every registered strategy name.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default returns the registry's recommended general-purpose strategy.
func (r *Registry) Default() LabelingStrategy {
	return NewHighestScoreLabeling()
}
