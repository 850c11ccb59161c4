package nlhandlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
	"github.com/JasperNL/scip-unified-sub005/pkg/expr/ophandlers"
)

func TestConvexHandlerDetectConvexEnforcesAbove(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	expH := ophandlers.NewExpHandler()
	ch := NewConvexHandler()

	base := ophandlers.NewValue(valueH, 1)
	n := ophandlers.NewUnary(expH, base)
	n.SetCurvature(expr.CurvatureConvex)

	sides, _, data, ok := ch.Detect(nil, n, false)
	require.True(t, ok)
	assert.Equal(t, expr.EnforceAbove, sides)
	d := data.(*convexData)
	assert.Equal(t, expr.CurvatureConvex, d.curvature)
}

func TestConvexHandlerDetectConcaveEnforcesBelow(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	logH := ophandlers.NewLogHandler()
	ch := NewConvexHandler()

	base := ophandlers.NewValue(valueH, 1)
	n := ophandlers.NewUnary(logH, base)
	n.SetCurvature(expr.CurvatureConcave)

	sides, _, _, ok := ch.Detect(nil, n, false)
	require.True(t, ok)
	assert.Equal(t, expr.EnforceBelow, sides)
}

func TestConvexHandlerDetectRejectsLeafAndUnknown(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	expH := ophandlers.NewExpHandler()
	ch := NewConvexHandler()

	leaf := ophandlers.NewValue(valueH, 1)
	_, _, _, ok := ch.Detect(nil, leaf, false)
	assert.False(t, ok)

	base := ophandlers.NewValue(valueH, 1)
	n := ophandlers.NewUnary(expH, base)
	n.SetCurvature(expr.CurvatureUnknown)
	_, _, _, ok = ch.Detect(nil, n, false)
	assert.False(t, ok)
}

func TestConvexHandlerEstimateUsesTangentWhenBwDiffPresent(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	expH := ophandlers.NewExpHandler() // BwDiff = math.Exp
	ch := NewConvexHandler()

	base := ophandlers.NewValue(valueH, 0)
	base.SetInterval(expr.Interval{Lo: 0, Hi: 0}, 0)
	n := ophandlers.NewUnary(expH, base)
	n.SetCurvature(expr.CurvatureConvex)
	rec := &expr.EnforcementRecord{Data: &convexData{curvature: expr.CurvatureConvex}}

	// Linearizing exp(x) at x=0: tangent is y = x + 1.
	row, err := ch.Estimate(n, rec, false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, row.Coeffs[base])
	assert.Equal(t, 1.0, row.Constant)
}

func TestConvexHandlerEstimateFallsBackWithoutBwDiff(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	sinH := ophandlers.NewSinHandler() // BwDiff left nil
	ch := NewConvexHandler()

	base := ophandlers.NewValue(valueH, 0)
	n := ophandlers.NewUnary(sinH, base)
	n.SetInterval(expr.Interval{Lo: -1, Hi: 1}, 0)
	n.SetCurvature(expr.CurvatureConvex)
	rec := &expr.EnforcementRecord{Data: &convexData{curvature: expr.CurvatureConvex}}

	row, err := ch.Estimate(n, rec, false)
	require.NoError(t, err)
	assert.Empty(t, row.Coeffs)
	assert.Equal(t, -1.0, row.Constant)
}

func TestConvexHandlerEstimateOverestimateUsesIntervalHi(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	expH := ophandlers.NewExpHandler()
	ch := NewConvexHandler()

	base := ophandlers.NewValue(valueH, 0)
	n := ophandlers.NewUnary(expH, base)
	n.SetInterval(expr.Interval{Lo: 0, Hi: 5}, 0)
	n.SetCurvature(expr.CurvatureConvex)
	rec := &expr.EnforcementRecord{Data: &convexData{curvature: expr.CurvatureConvex}}

	// overestimate=true on a convex node doesn't want a tangent (only the
	// underestimate side does), so it falls back to the interval high bound.
	row, err := ch.Estimate(n, rec, true)
	require.NoError(t, err)
	assert.Empty(t, row.Coeffs)
	assert.Equal(t, 5.0, row.Constant)
}
