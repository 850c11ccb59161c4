package ophandlers

import (
	"sort"
	"strings"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// ProductHandlerName identifies a product node: Π children, unit
// coefficient (a scaled product is expressed as an enclosing sum term per
// §4.3's product normal-form rules).
const ProductHandlerName = "product"

// NewProduct constructs a retained product node.
func NewProduct(h *expr.ExprHandler, children ...*expr.Node) *expr.Node {
	return expr.NewNode(h, nil, children...)
}

// productHandler bundles the product handler with a reference to the pow
// handler it needs for the "duplicate children merged into a power"
// normal-form rule (§4.3); the pow handler must already exist by the time
// NewProductHandler is called (see register.go's creation order).
type productHandler struct {
	pow   *expr.ExprHandler
	value *expr.ExprHandler
}

// NewProductHandler returns the handler for product nodes. pow and value
// are the already-constructed power and value handlers, used by Simplify
// to collapse duplicate factors and fold constant factors.
func NewProductHandler(pow, value *expr.ExprHandler) *expr.ExprHandler {
	ph := &productHandler{pow: pow, value: value}
	return &expr.ExprHandler{
		Name:  ProductHandlerName,
		Class: expr.ClassProduct,
		Eval: func(node *expr.Node, childValues []float64, point expr.EvalPoint) float64 {
			v := 1.0
			for _, cv := range childValues {
				v *= cv
			}
			return v
		},
		IntEval: func(node *expr.Node, childIntervals []expr.Interval) expr.Interval {
			acc := expr.Point(1)
			for _, iv := range childIntervals {
				acc = acc.Mul(iv)
			}
			return acc
		},
		Simplify: ph.simplify,
		Hash: func(node *expr.Node, childHashes []uint64) uint64 {
			h := uint64(0x100000001b3)
			for _, ch := range childHashes {
				h = (h ^ ch) * 1099511628211
			}
			return h
		},
		Compare: func(a, b *expr.Node) int {
			if la, lb := a.Arity(), b.Arity(); la != lb {
				if la < lb {
					return -1
				}
				return 1
			}
			ac, bc := a.Children(), b.Children()
			for i := range ac {
				cmp, err := expr.CompareNodes(ac[i], bc[i])
				if err != nil || cmp != 0 {
					return cmp
				}
			}
			return 0
		},
		Print: func(node *expr.Node, childStrings []string) string {
			return strings.Join(childStrings, " * ")
		},
		Monotonicity: func(node *expr.Node, childIndex int) expr.Monotonicity {
			// Sign-dependent in general; a product's monotonicity in one
			// factor flips with the sign of the others, which lock
			// propagation cannot determine without bounds. Conservative
			// answer: unknown, forcing symmetric lock propagation.
			return expr.MonotoneUnknown
		},
		Integrality: func(node *expr.Node, childIntegral []bool) bool {
			for _, integral := range childIntegral {
				if !integral {
					return false
				}
			}
			return true
		},
	}
}

// simplify enforces the product half of the normal-form rules in §4.3:
// flatten nested products, fold value children into one constant factor,
// merge duplicate children into a power, sort the remainder, and collapse
// a product left with a single factor into that factor. A constant factor
// other than 0 or 1 stays in the product as a trailing value child; it is
// not moved into an enclosing sum's coefficient.
func (ph *productHandler) simplify(ctx *expr.Context, node *expr.Node) *expr.Node {
	counts := make(map[*expr.Node]int)
	var order []*expr.Node
	constant := 1.0

	var flatten func(children []*expr.Node)
	flatten = func(children []*expr.Node) {
		for _, c := range children {
			switch c.Handler().Name {
			case ValueHandlerName:
				constant *= c.Data().(float64)
			case ProductHandlerName:
				flatten(c.Children())
			default:
				if _, seen := counts[c]; !seen {
					order = append(order, c)
				}
				counts[c]++
			}
		}
	}
	flatten(node.Children())

	var finalChildren []*expr.Node
	for _, c := range order {
		n := counts[c]
		if n == 1 {
			finalChildren = append(finalChildren, c)
			continue
		}
		finalChildren = append(finalChildren, NewPow(ph.pow, c, float64(n)))
	}
	sort.Slice(finalChildren, func(i, j int) bool {
		cmp, err := expr.CompareNodes(finalChildren[i], finalChildren[j])
		if err != nil {
			return false
		}
		return cmp < 0
	})

	if constant == 0 {
		return NewValue(ph.value, 0) // degenerate: a zero factor collapses the whole product
	}
	if len(finalChildren) == 0 {
		return NewValue(ph.value, constant)
	}
	if constant == 1 {
		if len(finalChildren) == 1 {
			return finalChildren[0]
		}
		return NewProduct(node.Handler(), finalChildren...)
	}
	// A product node carries no coefficient, so a non-unit constant factor
	// is kept as an extra value child. The sum handler's Simplify folds
	// only value and sum children, so this factor stays inside the product.
	finalChildren = append(finalChildren, NewValue(ph.value, constant))
	if len(finalChildren) == 1 {
		return finalChildren[0]
	}
	return NewProduct(node.Handler(), finalChildren...)
}
