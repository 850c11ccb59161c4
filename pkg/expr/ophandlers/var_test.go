package ophandlers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

type namedVar struct {
	id   int
	name string
}

func (v namedVar) ID() int      { return v.id }
func (v namedVar) Name() string { return v.name }

func TestVarHandlerEvalFromPoint(t *testing.T) {
	h := NewVarHandler()
	hv := namedVar{id: 1, name: "x"}
	n := expr.NewNode(h, hv)

	point := expr.EvalPoint{hv: 4.2}
	assert.Equal(t, 4.2, h.Eval(n, nil, point))
}

func TestVarHandlerEvalMissingFromPointIsNaN(t *testing.T) {
	h := NewVarHandler()
	hv := namedVar{id: 1, name: "x"}
	n := expr.NewNode(h, hv)

	assert.True(t, math.IsNaN(h.Eval(n, nil, expr.EvalPoint{})))
}

func TestVarHandlerIntEvalIsUnbounded(t *testing.T) {
	h := NewVarHandler()
	n := expr.NewNode(h, namedVar{id: 1, name: "x"})
	assert.Equal(t, expr.Unbounded, h.IntEval(n, nil))
}

func TestVarHandlerCompareOrdersByID(t *testing.T) {
	h := NewVarHandler()
	a := expr.NewNode(h, namedVar{id: 1, name: "a"})
	b := expr.NewNode(h, namedVar{id: 2, name: "b"})

	assert.Negative(t, h.Compare(a, b))
	assert.Positive(t, h.Compare(b, a))
}

func TestVarHandlerCompareFallsBackWithoutIdentifier(t *testing.T) {
	h := NewVarHandler()
	a := expr.NewNode(h, "unnamed-a")
	b := expr.NewNode(h, "unnamed-b")

	assert.Zero(t, h.Compare(a, b))
}

func TestVarHandlerPrintUsesNameWhenAvailable(t *testing.T) {
	h := NewVarHandler()
	n := expr.NewNode(h, namedVar{id: 1, name: "x"})
	assert.Equal(t, "x", h.Print(n, nil))
}

func TestVarHandlerPrintFallsBackWithoutNamer(t *testing.T) {
	h := NewVarHandler()
	n := expr.NewNode(h, 42)
	assert.Equal(t, "var", h.Print(n, nil))
}
