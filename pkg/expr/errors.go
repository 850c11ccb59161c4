package expr

import (
	errors "gopkg.in/src-d/go-errors.v1"
)

// Error kinds for the expression core. These are sentinel *errors.Kind
// values, not concrete error types: callers match with Is(err) and wrap
// with New(args...) the same way dolthub-go-mysql-server's sql/expression
// package declares and matches its own error kinds.
var (
	// ErrInfeasible marks a tightening that produced an empty interval.
	// It is always propagated unchanged up the call stack; the host
	// boundary turns it into a cutoff signal.
	ErrInfeasible = errors.NewKind("expr: infeasible: %s")

	// ErrDomain marks an operator eval encountering an undefined input
	// (log of a non-positive value, 0^0, division by zero). Callers
	// convert this into the node's invalid-value sentinel rather than
	// unwinding.
	ErrDomain = errors.NewKind("expr: domain error in %s: %s")

	// ErrRead marks a parser failure, reported with a byte/rune position.
	ErrRead = errors.NewKind("expr: parse error at position %d: %s")

	// ErrTooManyIterators marks exhaustion of the active-iterator index
	// pool. This is a programmer error: the caller forgot to Close an
	// iterator.
	ErrTooManyIterators = errors.NewKind("expr: too many concurrent iterators (max %d)")

	// ErrUnsupportedOperator marks an operator lacking a conversion
	// callback required to build the NLP row representation.
	ErrUnsupportedOperator = errors.NewKind("expr: operator %q has no %s callback")

	// ErrPluginLookup marks a missing handler during parse or copy.
	ErrPluginLookup = errors.NewKind("expr: no handler registered for operator %q")

	// ErrHandlerMissingCompare marks a handler with no compare callback
	// encountered during hashing/CSE.
	ErrHandlerMissingCompare = errors.NewKind("expr: handler %q has no compare callback")

	// ErrHandlerExists marks an attempt to register a second handler
	// under a name already taken, including the case where the existing
	// registration is deprecated (see Registry.Deprecate).
	ErrHandlerExists = errors.NewKind("expr: handler %q already registered (deprecated=%t)")

	// ErrEnforcementIncomplete marks a node whose required enforcement
	// sides could not be covered by any registered nonlinear handler
	// during solving. This is a programming error (a missing handler
	// registration), not a runtime condition a caller recovers from.
	ErrEnforcementIncomplete = errors.NewKind("expr: no handler could enforce node %s from required sides")
)
