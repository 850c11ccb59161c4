// Package expr implements the core of a constraint handler for general
// nonlinear (expression) constraints inside a branch-and-bound mixed-integer
// solver: a shared expression DAG with structural hashing, a
// simplification/canonicalization pipeline, forward/reverse domain
// propagation, and the plug-in contract for expression handlers and
// nonlinear handlers that drive detection and enforcement.
//
// Everything outside these four subsystems — the host branch-and-bound
// loop, LP solving, the cut pool, concrete operator/handler
// implementations beyond the small built-in set in ophandlers/nlhandlers,
// and the legacy-constraint upgrade paths — is an external collaborator
// reached only through the interfaces defined here.
package expr
