package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr/ophandlers"
)

// repairFixture builds x - y <= 5 (sum coeffs [1, -1], constant 0) with the
// two var leaves as fakeHostVars, matching the review's concrete failure
// scenario for repairOneDirection's sign flip.
func repairFixture(t *testing.T) (*Context, *fakeHost, *Constraint, *fakeHostVar, *fakeHostVar) {
	t.Helper()
	ctx := NewContext(DefaultConfig())
	varH := ophandlers.NewVarHandler()

	xv := &fakeHostVar{id: 1, name: "x", lo: -10, hi: 10, objCoeff: 10}
	yv := &fakeHostVar{id: 2, name: "y", lo: -10, hi: 10, objCoeff: -1}
	x := NewNode(varH, xv)
	y := NewNode(varH, yv)
	root := ophandlers.NewSum(ophandlers.NewSumHandler(), []float64{1, -1}, 0, x, y)

	c := NewConstraint("x-y<=5", root, math.Inf(-1), 5)
	host := newFakeHost()
	return ctx, host, c, xv, yv
}

func TestRepairOneDirectionNegativeCoefficientSignFlip(t *testing.T) {
	_, host, c, _, yv := repairFixture(t)

	// y has coefficient -1 and is the chosen decreasable candidate: the
	// sum's value must go down by 5 (rhsViol), which for a negative
	// coefficient means increasing y, not flipping delta's sign based on
	// the coefficient's own sign.
	point := EvalPoint{yv: 0.0}

	terms := c.Root.Data().(RepairTerms)
	ok := repairOneDirection(host, terms, c.Root.Children(), c.Root.Child(1), point, 5, true)
	require.True(t, ok)
	assert.Equal(t, 5.0, point[yv])
}

func TestScanRepairCandidatesAndRepairViolationErasesRhsViolation(t *testing.T) {
	ctx, host, c, xv, yv := repairFixture(t)

	point := EvalPoint{xv: 10.0, yv: 0.0}
	solTag := ctx.NewSolutionTag()

	ScanRepairCandidates(host, c)
	dec, _ := c.RepairCandidates()
	require.NotNil(t, dec)
	assert.Same(t, c.Root.Child(1), dec, "y (ratio -1/-1=1) beats x (ratio 10/1=10) for the decreasable slot")

	ok := RepairViolation(ctx, host, c, point, solTag)
	require.True(t, ok)
	assert.Equal(t, 5.0, point[yv])

	// Re-violate the now-stale cached tag so Violation recomputes against
	// the repaired point.
	newTag := ctx.NewSolutionTag()
	lhsViol, rhsViol := c.Violation(ctx, point, newTag)
	assert.LessOrEqual(t, rhsViol, ctx.Config.FeasTol)
	assert.LessOrEqual(t, lhsViol, ctx.Config.FeasTol)
}

func TestRepairSolutionAcceptsWhenEveryConstraintIsFixed(t *testing.T) {
	ctx, host, c, xv, yv := repairFixture(t)
	point := EvalPoint{xv: 10.0, yv: 0.0}
	solTag := ctx.NewSolutionTag()

	ok, err := RepairSolution(ctx, host, []*Constraint{c}, point, solTag)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, host.proposed)
	assert.Equal(t, 5.0, host.proposed[yv])
}

func TestRepairSolutionFailsWhenNoSafeCandidateExists(t *testing.T) {
	ctx, host, c, xv, yv := repairFixture(t)
	// Lock y in both directions externally: neither direction is safe, so
	// ScanRepairCandidates finds no decreasable/increasable term at all.
	yv.downLocks = 1
	yv.upLocks = 1
	xv.downLocks = 1
	xv.upLocks = 1

	point := EvalPoint{xv: 10.0, yv: 0.0}
	solTag := ctx.NewSolutionTag()

	ok, err := RepairSolution(ctx, host, []*Constraint{c}, point, solTag)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, host.proposed)
}

func TestRepairSolutionRejectedByHostPropagatesFalse(t *testing.T) {
	ctx, host, c, xv, yv := repairFixture(t)
	host.proposeErr = assert.AnError

	point := EvalPoint{xv: 10.0, yv: 0.0}
	solTag := ctx.NewSolutionTag()

	ok, err := RepairSolution(ctx, host, []*Constraint{c}, point, solTag)
	assert.Error(t, err)
	assert.False(t, ok)
}
