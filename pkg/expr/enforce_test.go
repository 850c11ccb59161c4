package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr/nlhandlers"
	"github.com/JasperNL/scip-unified-sub005/pkg/expr/ophandlers"
)

// quadraticFixture builds <x>^2 <= 1 with x's host bounds asymmetric
// ([-2, 3]) so forward propagation and the quadratic handler's secant
// estimate both produce non-trivial, hand-checkable numbers.
func quadraticFixture(t *testing.T) (*Context, *fakeHost, *Constraint, *fakeHostVar) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.VarboundRelax = RelaxNone // keep box bounds exact for hand-checked secant arithmetic
	ctx := NewContext(cfg)
	require.NoError(t, ctx.NLHandlers.Register(nlhandlers.NewQuadraticHandler()))

	xv := &fakeHostVar{id: 1, name: "x", lo: -2, hi: 3}
	x := NewNode(ophandlers.NewVarHandler(), xv)
	root := ophandlers.NewPow(ophandlers.NewPowHandler(), x, 2)

	c := NewConstraint("x^2<=1", root, math.Inf(-1), 1)
	host := newFakeHost()
	return ctx, host, c, xv
}

func TestDetectRequiresCoverageFailsWithoutAnyHandler(t *testing.T) {
	ctx := NewContext(DefaultConfig())
	xv := &fakeHostVar{id: 1, name: "x", lo: -2, hi: 3}
	x := NewNode(ophandlers.NewVarHandler(), xv)
	root := ophandlers.NewPow(ophandlers.NewPowHandler(), x, 2)
	root.addLocks(1, 0) // require EnforceAbove with no registered nonlinear handler

	err := Detect(ctx, root, true)
	assert.Error(t, err)
}

func TestPrepareEnforcementDetectsQuadraticAndCreatesAuxVar(t *testing.T) {
	ctx, host, c, _ := quadraticFixture(t)
	c.ApplyLocks(host, ophandlers.VarHandlerName, 1)

	err := PrepareEnforcement(ctx, host, c, ophandlers.VarHandlerName)
	require.NoError(t, err)

	require.NotNil(t, c.Root.AuxVar())
	recs := c.Root.Enforcements()
	require.Len(t, recs, 1)
	assert.Equal(t, nlhandlers.QuadraticHandlerName, recs[0].Handler.Name)
	assert.Equal(t, EnforceBoth, recs[0].Sides)
}

func TestPrepareEnforcementFailsWhenCoverageIncomplete(t *testing.T) {
	ctx, host, c, _ := quadraticFixture(t)
	// Reset NLHandlers to an empty registry: nothing can cover the
	// EnforceAbove requirement this constraint's locks impose.
	ctx.NLHandlers = NewNLRegistry()
	c.ApplyLocks(host, ophandlers.VarHandlerName, 1)

	err := PrepareEnforcement(ctx, host, c, ophandlers.VarHandlerName)
	assert.Error(t, err)
}

func TestTrySepaEstimateSubmitsQuadraticSecantCut(t *testing.T) {
	ctx, host, c, _ := quadraticFixture(t)
	c.ApplyLocks(host, ophandlers.VarHandlerName, 1)
	require.NoError(t, PrepareEnforcement(ctx, host, c, ophandlers.VarHandlerName))

	cut, err := trySepaEstimate(ctx, host, c.Root)
	require.NoError(t, err)
	assert.True(t, cut)
	require.Len(t, host.cuts, 1)

	// The secant of x^2 over [-2, 3] is y = (lo+hi)*x - lo*hi = 1*x + 6.
	xNode := c.Root.Child(0)
	assert.InDelta(t, 1.0, host.cuts[0].row.Coeffs[xNode], 1e-9)
	assert.InDelta(t, 6.0, host.cuts[0].row.Constant, 1e-9)
}

func TestEnforceSolutionAddsCutForViolatedQuadratic(t *testing.T) {
	ctx, host, c, xv := quadraticFixture(t)
	c.ApplyLocks(host, ophandlers.VarHandlerName, 1)
	require.NoError(t, PrepareEnforcement(ctx, host, c, ophandlers.VarHandlerName))

	point := EvalPoint{xv: 3.0} // x^2 = 9, well above the rhs of 1
	solTag := ctx.NewSolutionTag()

	outcome, err := EnforceSolution(ctx, host, []*Constraint{c}, point, solTag)
	require.NoError(t, err)
	assert.Equal(t, EnforceCutAdded, outcome)
	assert.NotEmpty(t, host.cuts)
}

func TestEnforceSolutionReportsNothingWhenFeasible(t *testing.T) {
	ctx, host, c, xv := quadraticFixture(t)
	c.ApplyLocks(host, ophandlers.VarHandlerName, 1)
	require.NoError(t, PrepareEnforcement(ctx, host, c, ophandlers.VarHandlerName))

	point := EvalPoint{xv: 0.5} // x^2 = 0.25, within the rhs of 1
	solTag := ctx.NewSolutionTag()

	outcome, err := EnforceSolution(ctx, host, []*Constraint{c}, point, solTag)
	require.NoError(t, err)
	assert.Equal(t, EnforceNothing, outcome)
	assert.Empty(t, host.cuts)
}
