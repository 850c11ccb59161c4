package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates() []Candidate {
	return []Candidate{
		{Var: "a", Score: 1},
		{Var: "b", Score: 5},
		{Var: "c", Score: 3},
	}
}

func TestHighestScoreLabelingPicksMax(t *testing.T) {
	s := NewHighestScoreLabeling()
	c, ok := s.Select(candidates())
	require.True(t, ok)
	assert.Equal(t, "b", c.Var)
}

func TestHighestScoreLabelingEmpty(t *testing.T) {
	s := NewHighestScoreLabeling()
	_, ok := s.Select(nil)
	assert.False(t, ok)
}

func TestLexicographicLabelingPicksFirst(t *testing.T) {
	s := NewLexicographicLabeling()
	c, ok := s.Select(candidates())
	require.True(t, ok)
	assert.Equal(t, "a", c.Var)
}

func TestRandomLabelingIsReproducibleForAGivenSeed(t *testing.T) {
	a := NewRandomLabeling(7)
	b := NewRandomLabeling(7)

	ca, okA := a.Select(candidates())
	cb, okB := b.Select(candidates())
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, ca, cb)
}

func TestRandomLabelingEmpty(t *testing.T) {
	s := NewRandomLabeling(1)
	_, ok := s.Select(nil)
	assert.False(t, ok)
}

func TestTopKLabelingOnlyPicksAmongTopK(t *testing.T) {
	s := NewTopKLabeling(2, 1)
	for i := 0; i < 20; i++ {
		c, ok := s.Select(candidates())
		require.True(t, ok)
		assert.Contains(t, []string{"b", "c"}, c.Var)
	}
}

func TestTopKLabelingClampsKToCandidateCount(t *testing.T) {
	s := NewTopKLabeling(100, 1)
	c, ok := s.Select(candidates())
	require.True(t, ok)
	assert.Contains(t, []string{"a", "b", "c"}, c.Var)
}

func TestTopKLabelingClampsKBelowOne(t *testing.T) {
	s := NewTopKLabeling(0, 1)
	c, ok := s.Select(candidates())
	require.True(t, ok)
	assert.Equal(t, "b", c.Var) // k clamped to 1 -> always the top scorer
}

func TestCompositeLabelingTriesInOrder(t *testing.T) {
	empty := NewLexicographicLabeling()
	fallback := NewHighestScoreLabeling()
	composite := NewCompositeLabeling("custom", empty, fallback)

	c, ok := composite.Select(candidates())
	require.True(t, ok)
	// LexicographicLabeling never returns ok=false on a nonempty slice, so
	// it always wins first.
	assert.Equal(t, "a", c.Var)

	c, ok = composite.Select(nil)
	assert.False(t, ok)
}

func TestCompositeLabelingDescriptionListsStrategies(t *testing.T) {
	composite := NewCompositeLabeling("custom", NewRandomLabeling(1), NewHighestScoreLabeling())
	assert.Equal(t, "composite strategy combining: random, highest-score", composite.Description())
	assert.Equal(t, "custom", composite.Name())
}

func TestRegistryPrePopulatedWithBuiltins(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	assert.Equal(t, []string{"highest-score", "lexicographic", "random", "top-k"}, names)

	s, ok := r.Get("highest-score")
	require.True(t, ok)
	assert.Equal(t, "highest-score", s.Name())

	_, ok = r.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistryDefaultIsHighestScore(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "highest-score", r.Default().Name())
}

func TestRegistryRegisterOverwritesByName(t *testing.T) {
	r := &Registry{byName: make(map[string]LabelingStrategy)}
	r.Register(NewLexicographicLabeling())
	require.Len(t, r.Names(), 1)

	r.Register(NewLexicographicLabeling())
	assert.Len(t, r.Names(), 1)
}
