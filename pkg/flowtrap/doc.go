// Package flowtrap compiles a parameterized-system interaction — a family
// of replicated finite-state components synchronizing through guarded
// multi-party ports and quantified broadcasts — into a weak monadic
// second-order logic (WS1S) theory whose unsatisfiability proves a target
// property unreachable by a Petri-net style structural argument (place
// invariants, a.k.a. "flows", plus traps).
//
// The package owns the typed AST (Component, System, Term, Predicate,
// AtomicRestriction, Broadcast, Clause, Interaction), the clause normalizer
// that rewrites every clause into the canonical shape the predicate
// synthesizer expects, the synthesizer itself, the WS1S formula algebra
// used to render the theory, and the Driver that assembles a per-property
// script and classifies the external decision procedure's verdict.
//
// Out of scope, by design: the concrete input grammar and parser, the
// on-disk template engine, the decision procedure binary itself, CLI
// argument parsing, and log configuration. Those live at the edges of this
// module (internal/fixture, internal/solver, cmd/flowtrap) or outside it
// entirely.
package flowtrap
