package flowtrap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ringSystem(t *testing.T) *System {
	t.Helper()
	comp, err := NewComponent("Node", "wait", []Transition{
		{Source: "wait", Label: "recv", Target: "crit"},
		{Source: "crit", Label: "pass", Target: "wait"},
	})
	require.NoError(t, err)
	sys, err := NewSystem([]Component{comp})
	require.NoError(t, err)
	return sys
}

// TestBroadcastValidateRejectsUnquantifiedBodyVariable checks that a body
// predicate referencing a non-quantified variable fails validation.
func TestBroadcastValidateRejectsUnquantifiedBodyVariable(t *testing.T) {
	b := NewBroadcast(
		Variable{Name: "q"},
		NewDNFGuard(NewGuard()),
		NewPredicateCollection(Disjunctive, NewPredicate("recv", Variable{Name: "other"})),
	)
	err := b.Validate()
	require.Error(t, err)
	var flowErr *Error
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, ErrBroadcastVariableMismatch, flowErr.Kind)
}

func TestBroadcastValidateAcceptsQuantifiedBodyVariable(t *testing.T) {
	b := NewBroadcast(
		Variable{Name: "q"},
		NewDNFGuard(NewGuard()),
		NewPredicateCollection(Disjunctive, NewPredicate("recv", Variable{Name: "q"})),
	)
	require.NoError(t, b.Validate())
}

func TestBroadcastFreeVariablesExcludesQuantified(t *testing.T) {
	x, q := Variable{Name: "x"}, Variable{Name: "q"}
	b := NewBroadcast(q, NewDNFGuard(NewGuard(NewUnequal(x, q))),
		NewPredicateCollection(Disjunctive, NewPredicate("recv", q)))
	free := b.FreeVariables()
	require.True(t, free.Contains(x))
	require.False(t, free.Contains(q))
}

func TestBroadcastComponentFailsOnInconsistentTypes(t *testing.T) {
	nodeComp, err := NewComponent("Node", "wait", []Transition{{Source: "wait", Label: "recv", Target: "crit"}})
	require.NoError(t, err)
	otherComp, err := NewComponent("Other", "s0", []Transition{{Source: "s0", Label: "go", Target: "s1"}})
	require.NoError(t, err)
	sys, err := NewSystem([]Component{nodeComp, otherComp})
	require.NoError(t, err)

	q := Variable{Name: "q"}
	b := NewBroadcast(q, NewDNFGuard(NewGuard()),
		NewPredicateCollection(Disjunctive, NewPredicate("recv", q), NewPredicate("go", q)))
	bound, err := b.Bind(sys)
	require.NoError(t, err)

	_, err = bound.Component(sys)
	require.Error(t, err)
	var flowErr *Error
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, ErrInconsistentBroadcastType, flowErr.Kind)
}

func TestBroadcastStringIncludesQuantifiedVariables(t *testing.T) {
	q, r := Variable{Name: "q"}, Variable{Name: "r"}
	b := NewBroadcast(q, NewDNFGuard(NewGuard()),
		NewPredicateCollection(Disjunctive, NewPredicate("recv", q), NewPredicate("recv", r)), q, r)
	require.Contains(t, b.String(), ",r:")
}

func TestBroadcastComponentResolvesSingleComponent(t *testing.T) {
	sys := ringSystem(t)
	q := Variable{Name: "q"}
	b := NewBroadcast(q, NewDNFGuard(NewGuard()), NewPredicateCollection(Disjunctive, NewPredicate("recv", q)))
	bound, err := b.Bind(sys)
	require.NoError(t, err)
	comp, err := bound.Component(sys)
	require.NoError(t, err)
	require.Equal(t, "Node", comp.Name)
}
