package ophandlers

import (
	"github.com/hashicorp/go-multierror"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// Handlers bundles every concrete expression handler this package
// provides, constructed together because a few (product, pow) need to
// reference each other while building simplified replacement nodes.
type Handlers struct {
	Var      *expr.ExprHandler
	Value    *expr.ExprHandler
	Sum      *expr.ExprHandler
	Product  *expr.ExprHandler
	Pow      *expr.ExprHandler
	Exp      *expr.ExprHandler
	Log      *expr.ExprHandler
	Sin      *expr.ExprHandler
	Cos      *expr.ExprHandler
	Abs      *expr.ExprHandler
	Entropy  *expr.ExprHandler
}

// NewHandlers constructs every concrete handler.
func NewHandlers() *Handlers {
	valueH := NewValueHandler()
	powH := NewPowHandler()
	return &Handlers{
		Var:     NewVarHandler(),
		Value:   valueH,
		Sum:     NewSumHandler(),
		Product: NewProductHandler(powH, valueH),
		Pow:     powH,
		Exp:     NewExpHandler(),
		Log:     NewLogHandler(),
		Sin:     NewSinHandler(),
		Cos:     NewCosHandler(),
		Abs:     NewAbsHandler(),
		Entropy: NewEntropyHandler(),
	}
}

// RegisterAll registers every handler in h into reg. Registrations are
// independent of one another (each owns a distinct name), so a conflict on
// one handler does not prevent the rest from being tried; every failure is
// collected and returned together rather than stopping at the first.
func (h *Handlers) RegisterAll(reg *expr.Registry) error {
	var result *multierror.Error
	for _, handler := range []*expr.ExprHandler{
		h.Var, h.Value, h.Sum, h.Product, h.Pow,
		h.Exp, h.Log, h.Sin, h.Cos, h.Abs, h.Entropy,
	} {
		if err := reg.Register(handler); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
