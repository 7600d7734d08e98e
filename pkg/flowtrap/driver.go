package flowtrap

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gitrdm/flowtrap/internal/parallel"
	"github.com/gitrdm/flowtrap/internal/solver"
)

// provenMarker is the literal substring the driver looks for in the
// solver's stdout to classify a property as proven.
const provenMarker = "Formula is unsatisfiable"

// Verdict is the outcome of checking a single property.
type Verdict int

const (
	Proven Verdict = iota
	NotProven
	SolverError
)

func (v Verdict) String() string {
	switch v {
	case Proven:
		return "proven"
	case NotProven:
		return "not proven"
	case SolverError:
		return "solver error"
	default:
		return "unknown verdict"
	}
}

// VerdictResult pairs a property name with its outcome and any message the
// solver produced (a counter-example on NotProven, stderr on SolverError).
type VerdictResult struct {
	Property string
	Verdict  Verdict
	Message  string
}

// Driver wires the predicate synthesizer to the external solver boundary:
// base theory rendering, property script assembly, and check dispatch. It
// carries no mutable state of its own beyond its collaborators.
type Driver struct {
	Solver *solver.Solver
	Pool   *parallel.Pool
	Logger *zap.SugaredLogger

	// Strict, when true, makes Succeeds reject a NotProven verdict the
	// same way it already rejects SolverError: every named obligation
	// must have been proven, not merely not-refuted.
	Strict bool
}

// NewDriver constructs a Driver. logger may be nil, in which case a no-op
// logger is used.
func NewDriver(s *solver.Solver, pool *parallel.Pool, logger *zap.SugaredLogger) *Driver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Driver{Solver: s, Pool: pool, Logger: logger}
}

// Succeeds reports whether a run of results should be treated as an
// overall pass. A SolverError anywhere always fails the run. In strict
// mode a NotProven verdict fails the run too, since strict mode requires
// every obligation to have actually been proven rather than merely not
// refuted.
func (d *Driver) Succeeds(results []VerdictResult) bool {
	for _, r := range results {
		if r.Verdict == SolverError {
			return false
		}
		if d.Strict && r.Verdict != Proven {
			return false
		}
	}
	return true
}

// BaseTheory renders every predicate definition for the normalized
// interaction, followed by its assumption fragments, sorted by key for
// determinism. It is a pure function of i.
func (d *Driver) BaseTheory(i *Interaction) (string, error) {
	normalized, err := i.Normalized()
	if err != nil {
		return "", err
	}
	defs := Synthesize(normalized)

	var sb strings.Builder
	for _, def := range defs {
		sb.WriteString(def.Render())
		sb.WriteString("\n\n")
	}

	names := make([]string, 0, len(i.Assumptions))
	for name := range i.Assumptions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "%% assumption: %s\n%s\n\n", name, renderStatement(i.Assumptions[name]))
	}

	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// renderStatement ensures a raw WS1S fragment is terminated by a single
// semicolon, matching the top-level statement shape MONA expects.
func renderStatement(text string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(text), ";")
	return trimmed + ";"
}

// propertyObligation renders the top-level statement for name: the
// reserved deadlock predicate applied to the system's own state-set names
// for ReservedDeadlockProperty, or the opaque fragment supplied in
// i.Properties otherwise.
func (i *Interaction) propertyObligation(name string) (string, error) {
	if name == ReservedDeadlockProperty {
		params := toRenderTerms(stateVars(i.System))
		call := PredicateCall{Name: ReservedDeadlockProperty, Args: params}
		return renderStatement(call.Render()), nil
	}
	text, ok := i.Properties[name]
	if !ok {
		return "", newError(ErrInternalInvariantViolation, "unknown property %q", name)
	}
	return renderStatement(text), nil
}

// PropertyScript emits the base theory (cachedBaseTheory if non-empty,
// freshly rendered otherwise) followed by name's obligation, in that
// order.
func (d *Driver) PropertyScript(i *Interaction, name string, cachedBaseTheory string) (string, error) {
	base := cachedBaseTheory
	if base == "" {
		rendered, err := d.BaseTheory(i)
		if err != nil {
			return "", err
		}
		base = rendered
	}
	obligation, err := i.propertyObligation(name)
	if err != nil {
		return "", err
	}
	return base + obligation + "\n", nil
}

// Check renders name's property script and hands it to the solver,
// classifying the outcome: Proven iff the solver's stdout contains the
// literal substring "Formula is unsatisfiable"; any non-zero exit or
// subprocess error classifies as SolverError.
func (d *Driver) Check(ctx context.Context, i *Interaction, name string, cachedBaseTheory string) VerdictResult {
	script, err := d.PropertyScript(i, name, cachedBaseTheory)
	if err != nil {
		return VerdictResult{Property: name, Verdict: SolverError, Message: err.Error()}
	}
	d.Logger.Debugw("invoking solver", "property", name, "script_bytes", len(script))

	result, err := d.Solver.Run(ctx, script)
	if err != nil {
		d.Logger.Infow("solver invocation failed", "property", name, "error", err)
		return VerdictResult{Property: name, Verdict: SolverError, Message: err.Error()}
	}
	if result.ExitCode != 0 {
		msg := result.Stderr
		if msg == "" {
			msg = result.Stdout
		}
		d.Logger.Infow("solver exited non-zero", "property", name, "exit_code", result.ExitCode)
		return VerdictResult{Property: name, Verdict: SolverError, Message: msg}
	}
	if strings.Contains(result.Stdout, provenMarker) {
		d.Logger.Infow("property proven", "property", name)
		return VerdictResult{Property: name, Verdict: Proven}
	}
	d.Logger.Infow("property not proven", "property", name)
	return VerdictResult{Property: name, Verdict: NotProven, Message: result.Stdout}
}

// CheckAll checks every property named by i.PropertyNames, dispatching
// them concurrently through d.Pool as independent tasks: the base theory
// is rendered once and shared as cachedBaseTheory so every property's
// solver invocation is the only per-task work. Results are returned
// sorted by property name.
func (d *Driver) CheckAll(ctx context.Context, i *Interaction) ([]VerdictResult, error) {
	base, err := d.BaseTheory(i)
	if err != nil {
		return nil, err
	}
	names := i.PropertyNames()
	results, errs := parallel.Run(ctx, d.Pool, names, func(taskCtx context.Context, name string) (VerdictResult, error) {
		return d.Check(taskCtx, i, name, base), nil
	})
	for idx, err := range errs {
		if err != nil {
			results[idx] = VerdictResult{Property: names[idx], Verdict: SolverError, Message: err.Error()}
		}
	}
	return results, nil
}

// TrapOrFlow selects which structural family ListStructuralPredicates
// renders.
type TrapOrFlow int

const (
	TrapFamily TrapOrFlow = iota
	InvariantFamily
)

// ListStructuralPredicates renders just the trap or invariant predicate
// definitions (the per-clause numbered ones plus the system-wide
// aggregate) closed over a fixed universe size n = size, for feeding to
// the solver's model-enumeration mode rather than its
// unsatisfiability-refutation mode (original_source/main.py's
// `--list {traps,invariants} --size N`). This renders text only; it never
// invokes the external enumerator itself.
func (d *Driver) ListStructuralPredicates(i *Interaction, kind TrapOrFlow, size int) (string, error) {
	normalized, err := i.Normalized()
	if err != nil {
		return "", err
	}
	defs := Synthesize(normalized)

	aggregateName, clauseBase := "trap", "trap_transition"
	if kind == InvariantFamily {
		aggregateName, clauseBase = "invariant", "invariant_transition"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "var1 n;\nn = %d;\n\n", size)
	for _, def := range defs {
		if def.Name == aggregateName || strings.HasPrefix(def.Name, clauseBase+"_") {
			sb.WriteString(def.Render())
			sb.WriteString("\n\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// ClauseStats reports per-clause shape counts (supplemented feature,
// original_source/main.py's --statistics).
type ClauseStats struct {
	Index         int
	Ports         int
	Broadcasts    int
	FreeVariables int
}

// PropertyStats reports a property's rendered theory size.
type PropertyStats struct {
	Name           string
	PredicateCount int
	RenderedBytes  int
}

// Stats is the Driver.Statistics report (supplemented feature,
// original_source/main.py's `--statistics`/`--verbose`).
type Stats struct {
	Clauses    []ClauseStats
	Properties []PropertyStats
}

// Statistics reports per-clause shape counts and per-property theory size
// without invoking the solver (original_source/main.py's
// `Analysis.print_statistics`).
func (d *Driver) Statistics(i *Interaction) (Stats, error) {
	normalized, err := i.Normalized()
	if err != nil {
		return Stats{}, err
	}

	clauses := make([]ClauseStats, len(normalized.Clauses))
	for idx, c := range normalized.Clauses {
		clauses[idx] = ClauseStats{
			Index:         idx,
			Ports:         len(c.Ports.Predicates),
			Broadcasts:    len(c.Broadcasts),
			FreeVariables: len(c.FreeVariables()),
		}
	}

	defs := Synthesize(normalized)
	base, err := d.BaseTheory(i)
	if err != nil {
		return Stats{}, err
	}

	names := i.PropertyNames()
	properties := make([]PropertyStats, len(names))
	for idx, name := range names {
		script, err := d.PropertyScript(i, name, base)
		if err != nil {
			return Stats{}, err
		}
		properties[idx] = PropertyStats{
			Name:           name,
			PredicateCount: len(defs),
			RenderedBytes:  len(script),
		}
	}

	return Stats{Clauses: clauses, Properties: properties}, nil
}
