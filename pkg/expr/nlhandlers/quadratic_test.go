package nlhandlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
	"github.com/JasperNL/scip-unified-sub005/pkg/expr/ophandlers"
)

func TestQuadraticHandlerDetectClaimsSquare(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	powH := ophandlers.NewPowHandler()
	qh := NewQuadraticHandler()

	base := ophandlers.NewValue(valueH, 3)
	sq := ophandlers.NewPow(powH, base, 2)

	sides, methods, data, ok := qh.Detect(nil, sq, false)
	require.True(t, ok)
	assert.Equal(t, expr.EnforceBoth, sides)
	assert.NotZero(t, methods&expr.MethodSepa)
	d, ok := data.(*quadraticData)
	require.True(t, ok)
	assert.Same(t, base, d.base)
}

func TestQuadraticHandlerDetectRejectsNonSquare(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	powH := ophandlers.NewPowHandler()
	qh := NewQuadraticHandler()

	base := ophandlers.NewValue(valueH, 3)
	cube := ophandlers.NewPow(powH, base, 3)

	_, _, _, ok := qh.Detect(nil, cube, false)
	assert.False(t, ok)
}

func TestQuadraticHandlerEvalAux(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	powH := ophandlers.NewPowHandler()
	qh := NewQuadraticHandler()

	base := ophandlers.NewValue(valueH, 0)
	base.SetInterval(expr.Interval{Lo: 2, Hi: 2}, expr.Tag(1))
	base.SetValue(2, expr.Tag(1))
	sq := ophandlers.NewPow(powH, base, 2)

	rec := &expr.EnforcementRecord{Data: &quadraticData{base: base}, CachedValueTag: expr.Tag(1)}
	assert.Equal(t, 4.0, qh.EvalAux(sq, rec))
}

func TestQuadraticHandlerEstimateTangentAndSecant(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	powH := ophandlers.NewPowHandler()
	qh := NewQuadraticHandler()

	base := ophandlers.NewValue(valueH, 0)
	base.SetInterval(expr.Interval{Lo: -1, Hi: 3}, 0)
	sq := ophandlers.NewPow(powH, base, 2)
	rec := &expr.EnforcementRecord{Data: &quadraticData{base: base}}

	// Tangent at the midpoint (1): y = 2x - 1.
	under, err := qh.Estimate(sq, rec, false)
	require.NoError(t, err)
	assert.Equal(t, 2.0, under.Coeffs[base])
	assert.Equal(t, -1.0, under.Constant)

	// Secant across [-1, 3]: y = (lo+hi)x - lo*hi = 2x + 3.
	over, err := qh.Estimate(sq, rec, true)
	require.NoError(t, err)
	assert.Equal(t, 2.0, over.Coeffs[base])
	assert.Equal(t, 3.0, over.Constant)
}

func TestQuadraticHandlerSepaInfeasibleOnEmptyBase(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	powH := ophandlers.NewPowHandler()
	qh := NewQuadraticHandler()

	base := ophandlers.NewValue(valueH, 0)
	base.SetInterval(expr.Empty, 0)
	sq := ophandlers.NewPow(powH, base, 2)
	rec := &expr.EnforcementRecord{Data: &quadraticData{base: base}}

	result, err := qh.Sepa(nil, sq, rec)
	require.NoError(t, err)
	assert.Equal(t, expr.CutInfeasible, result)
}

func TestPowExponentAccessorViaNlhandlers(t *testing.T) {
	valueH := ophandlers.NewValueHandler()
	powH := ophandlers.NewPowHandler()
	base := ophandlers.NewValue(valueH, 2)
	sq := ophandlers.NewPow(powH, base, 2)

	exp, ok := powExponent(sq)
	require.True(t, ok)
	assert.Equal(t, 2.0, exp)

	_, ok = powExponent(base)
	assert.False(t, ok)
}
