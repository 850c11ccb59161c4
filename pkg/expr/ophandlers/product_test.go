package ophandlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

func newProductTestHandlers() (valueH, powH, productH *expr.ExprHandler) {
	valueH = NewValueHandler()
	powH = NewPowHandler()
	productH = NewProductHandler(powH, valueH)
	return
}

func TestProductHandlerEval(t *testing.T) {
	valueH, _, productH := newProductTestHandlers()
	x := NewValue(valueH, 2)
	y := NewValue(valueH, 3)
	p := NewProduct(productH, x, y)

	assert.Equal(t, 6.0, productH.Eval(p, []float64{2, 3}, nil))
}

func TestProductHandlerSimplifyFlattensNestedProducts(t *testing.T) {
	ctx := expr.NewContext(expr.DefaultConfig())
	_, _, productH := newProductTestHandlers()
	varH := NewVarHandler()

	x := expr.NewNode(varH, fakeVar("x"))
	y := expr.NewNode(varH, fakeVar("y"))
	inner := NewProduct(productH, x, y)
	outer := NewProduct(productH, inner, y)

	simplified := productH.Simplify(ctx, outer)
	require.NotNil(t, simplified)
	require.Equal(t, ProductHandlerName, simplified.Handler().Name)
	// y appears twice total (once directly, once via the flattened inner
	// product), so it should be merged into a y^2 factor alongside x.
	assert.Equal(t, 2, simplified.Arity())
}

func TestProductHandlerSimplifyFoldsConstantFactors(t *testing.T) {
	ctx := expr.NewContext(expr.DefaultConfig())
	valueH, _, productH := newProductTestHandlers()
	varH := NewVarHandler()

	x := expr.NewNode(varH, fakeVar("x"))
	two := NewValue(valueH, 2)
	three := NewValue(valueH, 3)
	p := NewProduct(productH, two, three, x)

	simplified := productH.Simplify(ctx, p)
	require.NotNil(t, simplified)
	// constant*x folds the 2*3=6 into a trailing value child since a
	// product node itself carries no coefficient.
	require.Equal(t, ProductHandlerName, simplified.Handler().Name)
	require.Equal(t, 2, simplified.Arity())
}

func TestProductHandlerSimplifyZeroFactorCollapses(t *testing.T) {
	ctx := expr.NewContext(expr.DefaultConfig())
	valueH, _, productH := newProductTestHandlers()
	varH := NewVarHandler()

	x := expr.NewNode(varH, fakeVar("x"))
	zero := NewValue(valueH, 0)
	p := NewProduct(productH, zero, x)

	simplified := productH.Simplify(ctx, p)
	require.NotNil(t, simplified)
	assert.Equal(t, ValueHandlerName, simplified.Handler().Name)
	assert.Equal(t, 0.0, simplified.Data().(float64))
}

func TestProductHandlerSimplifyDuplicateChildBecomesPow(t *testing.T) {
	ctx := expr.NewContext(expr.DefaultConfig())
	_, _, productH := newProductTestHandlers()
	varH := NewVarHandler()

	x := expr.NewNode(varH, fakeVar("x"))
	p := NewProduct(productH, x, x)

	simplified := productH.Simplify(ctx, p)
	require.NotNil(t, simplified)
	assert.Equal(t, PowHandlerName, simplified.Handler().Name)
}

func TestProductHandlerIntegrality(t *testing.T) {
	_, _, productH := newProductTestHandlers()

	assert.True(t, productH.Integrality(nil, []bool{true, true}))
	assert.False(t, productH.Integrality(nil, []bool{true, false}))
}
