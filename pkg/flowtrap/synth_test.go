package flowtrap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func normalizedMutex(t *testing.T) *Interaction {
	t.Helper()
	i := mutexInteraction(t)
	normalized, err := i.Normalized()
	require.NoError(t, err)
	return normalized
}

func TestSynthesizeEmitsThreePredicatesPerClause(t *testing.T) {
	i := normalizedMutex(t)
	defs := Synthesize(i)

	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
	}
	require.True(t, names["dead_transition_1"])
	require.True(t, names["trap_transition_1"])
	require.True(t, names["invariant_transition_1"])
	require.True(t, names["dead_transition_2"])
}

func TestSynthesizeEmitsFixedSystemWideSet(t *testing.T) {
	i := normalizedMutex(t)
	defs := Synthesize(i)
	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
	}
	for _, want := range []string{
		"trap", "invariant", ReservedDeadlockProperty, "intersection",
		"unique_intersection", "intersects_initial", "uniquely_intersects_initial",
		"trap_invariant", "flow_invariant", "marking",
	} {
		require.True(t, names[want], "missing system-wide predicate %q", want)
	}
}

// TestEmptyClauseBoundaryIsConsistent checks that a clause with no ports
// and no broadcasts synthesizes trivially-true trap/invariant/dead
// predicates, consistently.
func TestEmptyClauseBoundaryIsConsistent(t *testing.T) {
	sys := mutexSystem(t)
	empty := NewClause(Guard{}, NewPredicateCollection(Conjunctive), nil)
	i, err := NewInteraction([]Clause{empty}, sys, nil, nil)
	require.NoError(t, err)
	normalized, err := i.Normalized()
	require.NoError(t, err)

	dead := deadTransitionDef(normalized.Clauses[0], sys)
	trap := trapTransitionDef(normalized.Clauses[0], sys)
	invariant := invariantTransitionDef(normalized.Clauses[0], sys)

	require.Equal(t, "true", dead.Body.Render())
	require.Equal(t, FormulaConstant{Value: true}.Render(), trap.Body.Simplify().Render())
	require.Equal(t, FormulaConstant{Value: true}.Render(), invariant.Body.Simplify().Render())
}

func TestDeadTransitionNamedByOneBasedClauseIndex(t *testing.T) {
	i := normalizedMutex(t)
	def := deadTransitionDef(i.Clauses[0], i.System)
	require.Equal(t, "dead_transition_1", def.Name)
}

func TestTrapInvariantCallsTrapAndIntersectsInitial(t *testing.T) {
	i := normalizedMutex(t)
	def := trapInvariantDef(i.System)
	rendered := def.Render()
	require.True(t, strings.Contains(rendered, "trap("))
	require.True(t, strings.Contains(rendered, "intersects_initial("))
	require.True(t, strings.Contains(rendered, "intersection("))
}

func TestFlowInvariantCallsInvariantAndUniquelyIntersectsInitial(t *testing.T) {
	i := normalizedMutex(t)
	def := flowInvariantDef(i.System)
	rendered := def.Render()
	require.True(t, strings.Contains(rendered, "invariant("))
	require.True(t, strings.Contains(rendered, "uniquely_intersects_initial("))
	require.True(t, strings.Contains(rendered, "unique_intersection("))
}

func TestMarkingCallsFlowAndTrapInvariants(t *testing.T) {
	i := normalizedMutex(t)
	def := markingDef(i.System)
	rendered := def.Render()
	require.True(t, strings.Contains(rendered, "flow_invariant("))
	require.True(t, strings.Contains(rendered, "trap_invariant("))
}

// TestSynthesizeIsDeterministic checks that synthesizing the same
// interaction twice yields byte-identical output.
func TestSynthesizeIsDeterministic(t *testing.T) {
	i := normalizedMutex(t)
	first := Synthesize(i)
	second := Synthesize(i)
	require.Equal(t, len(first), len(second))
	for idx := range first {
		require.Equal(t, first[idx].Render(), second[idx].Render())
	}
}
