package expr

// AuxVar is the surrogate host variable introduced for a non-leaf node
// needed during enforcement (spec §4.10). It wraps the host handle plus
// the lock state this package itself took on it, so Node.Release can tear
// both down symmetrically.
type AuxVar struct {
	host   Host
	hv     HostVar
	locked bool
}

// NewAuxVar allocates a fresh host variable with domain equal to iv,
// integer-typed if integral is set, and takes a two-directional lock on it
// (spec §4.10: "Locks on this variable are taken in both directions").
func NewAuxVar(host Host, iv Interval, integral bool) (*AuxVar, error) {
	hv, err := host.CreateAuxVar(iv.Lo, iv.Hi, integral)
	if err != nil {
		return nil, err
	}
	host.AddLocks(hv, 1, 1)
	return &AuxVar{host: host, hv: hv, locked: true}, nil
}

// HostVar returns the underlying host variable handle.
func (a *AuxVar) HostVar() HostVar { return a.hv }

// Bounds returns the auxiliary variable's current host-solver bounds.
func (a *AuxVar) Bounds() Interval {
	return a.host.Bounds(a.hv)
}

// Tighten requests the host narrow the auxiliary variable's bounds to iv,
// the "tighten auxvar bounds" step of forward propagation (§4.5).
func (a *AuxVar) Tighten(iv Interval) (TightenResult, error) {
	lr, err := a.host.TightenLower(a.hv, iv.Lo)
	if err != nil {
		return TightenInfeasible, err
	}
	if lr == TightenInfeasible {
		return TightenInfeasible, nil
	}
	ur, err := a.host.TightenUpper(a.hv, iv.Hi)
	if err != nil {
		return TightenInfeasible, err
	}
	if ur == TightenInfeasible {
		return TightenInfeasible, nil
	}
	if lr == TightenChanged || ur == TightenChanged {
		return TightenChanged, nil
	}
	return TightenUnchanged, nil
}

// release removes this package's lock and frees the host variable, called
// from Node.Release once the node's last reference disappears (§4.10:
// "On final release the lock is removed and the variable is freed if no
// other plug-in retained a handle").
func (a *AuxVar) release() {
	if a.locked {
		a.host.RemoveLocks(a.hv, 1, 1)
		a.locked = false
	}
	a.host.ReleaseAuxVar(a.hv)
}
