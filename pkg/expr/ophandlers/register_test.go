package ophandlers

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

func TestHandlersRegisterAll(t *testing.T) {
	reg := expr.NewRegistry()
	h := NewHandlers()

	require.NoError(t, h.RegisterAll(reg))
}

func TestHandlersRegisterAllAccumulatesConflicts(t *testing.T) {
	reg := expr.NewRegistry()
	require.NoError(t, reg.Register(NewVarHandler()))
	require.NoError(t, reg.Register(NewValueHandler()))

	h := NewHandlers()
	err := h.RegisterAll(reg)
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 2)
}
