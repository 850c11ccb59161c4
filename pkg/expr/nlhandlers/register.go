package nlhandlers

import (
	"github.com/hashicorp/go-multierror"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// Handlers bundles the nonlinear structural handlers this package
// provides.
type Handlers struct {
	Quadratic *expr.NonlinearHandler
	Convex    *expr.NonlinearHandler
}

// NewHandlers constructs every nonlinear handler.
func NewHandlers() *Handlers {
	return &Handlers{
		Quadratic: NewQuadraticHandler(),
		Convex:    NewConvexHandler(),
	}
}

// RegisterAll registers every handler in h into reg in priority order
// (Quadratic first, since it outranks Convex and both are re-sorted by
// the registry regardless). Both registrations are tried regardless of
// whether the other fails, and any failures are returned together.
func (h *Handlers) RegisterAll(reg *expr.NLRegistry) error {
	var result *multierror.Error
	for _, handler := range []*expr.NonlinearHandler{h.Quadratic, h.Convex} {
		if err := reg.Register(handler); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
