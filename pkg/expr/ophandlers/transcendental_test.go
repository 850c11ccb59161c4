package ophandlers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

func TestExpHandlerEvalAndBwDiff(t *testing.T) {
	h := NewExpHandler()
	valueH := NewValueHandler()
	n := NewUnary(h, NewValue(valueH, 1))

	assert.InDelta(t, math.E, h.Eval(n, []float64{1}, nil), 1e-9)
	assert.Equal(t, expr.CurvatureConvex, h.Curvature(n, []expr.Curvature{expr.CurvatureLinear}))
	assert.InDelta(t, math.E, h.BwDiff(n, 0, []float64{1}), 1e-9)
}

func TestLogHandlerDomainErrorAndBwDiff(t *testing.T) {
	h := NewLogHandler()
	valueH := NewValueHandler()
	n := NewUnary(h, NewValue(valueH, 0))

	assert.True(t, math.IsNaN(h.Eval(n, []float64{-1}, nil)))
	assert.Equal(t, 0.5, h.BwDiff(n, 0, []float64{2}))
	assert.True(t, math.IsNaN(h.BwDiff(n, 0, []float64{0})))
}

func TestLogHandlerIntEvalClampsNonpositiveLowerBound(t *testing.T) {
	h := NewLogHandler()
	iv := h.IntEval(nil, []expr.Interval{{Lo: -5, Hi: 1}})
	assert.False(t, iv.IsEmpty())
	assert.Equal(t, 0.0, iv.Hi)
}

func TestSinCosHaveNoBwDiff(t *testing.T) {
	sinH := NewSinHandler()
	cosH := NewCosHandler()
	assert.Nil(t, sinH.BwDiff)
	assert.Nil(t, cosH.BwDiff)
	assert.Equal(t, expr.CurvatureUnknown, sinH.Curvature(nil, []expr.Curvature{expr.CurvatureLinear}))
}

func TestAbsHandlerEvalAndNoBwDiff(t *testing.T) {
	h := NewAbsHandler()
	valueH := NewValueHandler()
	n := NewUnary(h, NewValue(valueH, -3))

	assert.Equal(t, 3.0, h.Eval(n, []float64{-3}, nil))
	assert.Nil(t, h.BwDiff)
	assert.Equal(t, expr.CurvatureConvex, h.Curvature(n, []expr.Curvature{expr.CurvatureLinear}))
}

func TestAbsHandlerIntEvalStraddlingZero(t *testing.T) {
	h := NewAbsHandler()
	iv := h.IntEval(nil, []expr.Interval{{Lo: -2, Hi: 5}})
	assert.Equal(t, expr.Interval{Lo: 0, Hi: 5}, iv)
}

func TestEntropyHandlerEvalAndBwDiff(t *testing.T) {
	h := NewEntropyHandler()
	valueH := NewValueHandler()
	n := NewUnary(h, NewValue(valueH, 1))

	assert.Equal(t, 0.0, h.Eval(n, []float64{1}, nil))
	assert.Equal(t, expr.CurvatureConvex, h.Curvature(n, []expr.Curvature{expr.CurvatureLinear}))
	assert.Equal(t, 1.0, h.BwDiff(n, 0, []float64{1}))
	assert.True(t, math.IsInf(h.BwDiff(n, 0, []float64{0}), -1))
}

func TestEntropyHandlerEvalAtZeroIsZeroByContinuity(t *testing.T) {
	h := NewEntropyHandler()
	valueH := NewValueHandler()
	n := NewUnary(h, NewValue(valueH, 0))
	assert.Equal(t, 0.0, h.Eval(n, []float64{0}, nil))
}

func TestTrigEnclosureFullPeriodIsFullRange(t *testing.T) {
	iv := trigEnclosure(expr.Interval{Lo: 0, Hi: 10}, math.Sin)
	assert.Equal(t, -1.0, iv.Lo)
	assert.Equal(t, 1.0, iv.Hi)
}

func TestTrigEnclosureNarrowIntervalTracksExtrema(t *testing.T) {
	// [0, pi] contains sin's maximum at pi/2; endpoints alone would miss it.
	iv := trigEnclosure(expr.Interval{Lo: 0, Hi: math.Pi}, math.Sin)
	assert.InDelta(t, 0.0, iv.Lo, 1e-9)
	assert.InDelta(t, 1.0, iv.Hi, 1e-9)
}
