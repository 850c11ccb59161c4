package nlhandlers

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

func TestHandlersRegisterAll(t *testing.T) {
	reg := expr.NewNLRegistry()
	h := NewHandlers()

	require.NoError(t, h.RegisterAll(reg))
	assert.Equal(t, []string{QuadraticHandlerName, ConvexHandlerName}, reg.Names())
}

func TestHandlersRegisterAllAccumulatesConflicts(t *testing.T) {
	reg := expr.NewNLRegistry()
	require.NoError(t, reg.Register(NewQuadraticHandler()))
	require.NoError(t, reg.Register(NewConvexHandler()))

	h := NewHandlers()
	err := h.RegisterAll(reg)
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 2)
}
