package expr

// HostVar is an opaque handle to a host-solver variable. The core never
// inspects it beyond equality and map-keying; it is produced and consumed
// entirely by the Host implementation (spec §6's "external collaborator").
type HostVar interface{}

// TightenResult reports the outcome of a bound-tightening request to the
// host, per spec §6 ("returns infeasible, tightened, or unchanged").
type TightenResult int

const (
	TightenUnchanged TightenResult = iota
	TightenChanged
	TightenInfeasible
)

// Host is the outbound half of the external interface in spec §6: the
// callback surface this package uses to act on the surrounding MIP solver.
// The core never holds host state directly; every entry point that needs
// it receives a Host alongside the Context.
type Host interface {
	// Bounds returns the host's current bounds for v.
	Bounds(v HostVar) Interval

	// TightenLower/TightenUpper request the host narrow v's bound.
	TightenLower(v HostVar, lb float64) (TightenResult, error)
	TightenUpper(v HostVar, ub float64) (TightenResult, error)

	// AddLocks/RemoveLocks adjust v's down/up rounding lock counts.
	AddLocks(v HostVar, down, up int)
	RemoveLocks(v HostVar, down, up int)

	// CreateAuxVar allocates a fresh host variable in [lb, ub], integer if
	// requested, standing in for an interior node's value.
	CreateAuxVar(lb, ub float64, integer bool) (HostVar, error)
	// ReleaseAuxVar frees a previously-created auxiliary variable.
	ReleaseAuxVar(v HostVar)

	// SubmitCut accepts a linear row lhs <= row <= rhs computed from an
	// estimator or produced directly by a handler's Sepa.
	SubmitCut(row LinearExpr, lhs, rhs float64) (CutResult, error)

	// RegisterBranchCandidate adds v as a branching candidate with the
	// given score.
	RegisterBranchCandidate(v HostVar, score float64) error

	// ProposeSolution submits a repaired candidate solution.
	ProposeSolution(values map[HostVar]float64) error

	// IsIntegerVar reports whether v is integer-typed in the host model,
	// used by the bound-tightening variable provider (§4.5) to avoid
	// crossing the next integer when relaxing bounds.
	IsIntegerVar(v HostVar) bool

	// ObjectiveCoeff returns v's objective coefficient, used by solution
	// repair's "smallest objective-per-coefficient" tie-break (§4.10).
	ObjectiveCoeff(v HostVar) float64

	// ExternalLocks returns the down/up lock counts contributed by
	// constraints other than the one currently being repaired, used by
	// solution repair to check that moving a variable cannot make another
	// constraint infeasible.
	ExternalLocks(v HostVar) (down, up int)
}
