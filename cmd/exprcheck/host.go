package main

import (
	"fmt"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
)

// cliVar is a single host-side variable: exprcheck stands in for the
// surrounding MIP solver's variable storage with this minimal struct,
// enough to exercise every Host callback without pulling in a real LP/MIP
// stack (out of scope per spec.md's own framing of the host as an
// external collaborator).
type cliVar struct {
	name    string
	id      int
	lo, hi  float64
	integer bool
	downLocks, upLocks int
	objCoeff float64
}

func (v *cliVar) Name() string { return v.name }
func (v *cliVar) ID() int      { return v.id }

// cliHost implements expr.Host over a fixed, command-line-declared
// variable table; auxiliary variables it creates are never released back
// into a pool (there is nothing to recycle for a single one-shot check),
// and cuts/branch candidates/proposed solutions are reported to stdout
// rather than acted on.
type cliHost struct {
	vars    map[string]*cliVar
	auxNext int
	auxVars map[*cliAuxVar]bool
}

type cliAuxVar struct {
	id      int
	lo, hi  float64
	integer bool
}

func (v *cliAuxVar) Name() string { return fmt.Sprintf("aux%d", v.id) }
func (v *cliAuxVar) ID() int      { return -v.id - 1 } // disjoint from declared variable ids

func newCLIHost(vars map[string]*cliVar) *cliHost {
	return &cliHost{vars: vars, auxVars: make(map[*cliAuxVar]bool)}
}

func (h *cliHost) Bounds(v expr.HostVar) expr.Interval {
	switch t := v.(type) {
	case *cliVar:
		return expr.Interval{Lo: t.lo, Hi: t.hi}
	case *cliAuxVar:
		return expr.Interval{Lo: t.lo, Hi: t.hi}
	}
	return expr.Unbounded
}

func (h *cliHost) TightenLower(v expr.HostVar, lb float64) (expr.TightenResult, error) {
	switch t := v.(type) {
	case *cliVar:
		if lb <= t.lo {
			return expr.TightenUnchanged, nil
		}
		if lb > t.hi {
			return expr.TightenInfeasible, nil
		}
		t.lo = lb
		return expr.TightenChanged, nil
	case *cliAuxVar:
		if lb <= t.lo {
			return expr.TightenUnchanged, nil
		}
		if lb > t.hi {
			return expr.TightenInfeasible, nil
		}
		t.lo = lb
		return expr.TightenChanged, nil
	}
	return expr.TightenUnchanged, nil
}

func (h *cliHost) TightenUpper(v expr.HostVar, ub float64) (expr.TightenResult, error) {
	switch t := v.(type) {
	case *cliVar:
		if ub >= t.hi {
			return expr.TightenUnchanged, nil
		}
		if ub < t.lo {
			return expr.TightenInfeasible, nil
		}
		t.hi = ub
		return expr.TightenChanged, nil
	case *cliAuxVar:
		if ub >= t.hi {
			return expr.TightenUnchanged, nil
		}
		if ub < t.lo {
			return expr.TightenInfeasible, nil
		}
		t.hi = ub
		return expr.TightenChanged, nil
	}
	return expr.TightenUnchanged, nil
}

func (h *cliHost) AddLocks(v expr.HostVar, down, up int) {
	if t, ok := v.(*cliVar); ok {
		t.downLocks += down
		t.upLocks += up
	}
}

func (h *cliHost) RemoveLocks(v expr.HostVar, down, up int) {
	if t, ok := v.(*cliVar); ok {
		t.downLocks -= down
		t.upLocks -= up
	}
}

func (h *cliHost) CreateAuxVar(lb, ub float64, integer bool) (expr.HostVar, error) {
	h.auxNext++
	av := &cliAuxVar{id: h.auxNext, lo: lb, hi: ub, integer: integer}
	h.auxVars[av] = true
	return av, nil
}

func (h *cliHost) ReleaseAuxVar(v expr.HostVar) {
	if av, ok := v.(*cliAuxVar); ok {
		delete(h.auxVars, av)
	}
}

func (h *cliHost) SubmitCut(row expr.LinearExpr, lhs, rhs float64) (expr.CutResult, error) {
	fmt.Printf("cut: %g <= %s <= %g\n", lhs, formatRow(row), rhs)
	return expr.CutSeparated, nil
}

func (h *cliHost) RegisterBranchCandidate(v expr.HostVar, score float64) error {
	fmt.Printf("branch candidate: %v (score %g)\n", v, score)
	return nil
}

func (h *cliHost) ProposeSolution(values map[expr.HostVar]float64) error {
	fmt.Println("proposed solution:")
	for v, val := range values {
		fmt.Printf("  %v = %g\n", v, val)
	}
	return nil
}

func (h *cliHost) IsIntegerVar(v expr.HostVar) bool {
	switch t := v.(type) {
	case *cliVar:
		return t.integer
	case *cliAuxVar:
		return t.integer
	}
	return false
}

func (h *cliHost) ObjectiveCoeff(v expr.HostVar) float64 {
	if t, ok := v.(*cliVar); ok {
		return t.objCoeff
	}
	return 0
}

func (h *cliHost) ExternalLocks(v expr.HostVar) (down, up int) {
	if t, ok := v.(*cliVar); ok {
		return t.downLocks, t.upLocks
	}
	return 0, 0
}

func formatRow(row expr.LinearExpr) string {
	s := fmt.Sprintf("%g", row.Constant)
	for n, coeff := range row.Coeffs {
		s += fmt.Sprintf(" + %g*%p", coeff, n)
	}
	return s
}

var _ expr.Host = (*cliHost)(nil)
