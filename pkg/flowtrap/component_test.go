package flowtrap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewComponentRejectsMissingInitialTransition(t *testing.T) {
	_, err := NewComponent("P", "idle", []Transition{
		{Source: "crit", Label: "leave", Target: "idle"},
	})
	require.Error(t, err)
	var flowErr *Error
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, ErrMissingInitialTransition, flowErr.Kind)
}

func TestNewComponentRejectsReusedLabel(t *testing.T) {
	_, err := NewComponent("P", "idle", []Transition{
		{Source: "idle", Label: "enter", Target: "crit"},
		{Source: "crit", Label: "enter", Target: "idle"},
	})
	require.Error(t, err)
	var flowErr *Error
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, ErrLabelReused, flowErr.Kind)
}

func TestComponentStatesAndLabelsAreSorted(t *testing.T) {
	c, err := NewComponent("P", "idle", []Transition{
		{Source: "idle", Label: "enter", Target: "crit"},
		{Source: "crit", Label: "leave", Target: "idle"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"crit", "idle"}, c.States())
	require.Equal(t, []string{"enter", "leave"}, c.Labels())
}

func TestEdgeWithLabelMissReturnsFalse(t *testing.T) {
	c, err := NewComponent("P", "idle", []Transition{{Source: "idle", Label: "enter", Target: "crit"}})
	require.NoError(t, err)
	_, _, ok := c.EdgeWithLabel("nope")
	require.False(t, ok)
}

func TestNewSystemRejectsNonDisjointLabels(t *testing.T) {
	a, err := NewComponent("A", "s0", []Transition{{Source: "s0", Label: "go", Target: "s1"}})
	require.NoError(t, err)
	b, err := NewComponent("B", "t0", []Transition{{Source: "t0", Label: "go", Target: "t1"}})
	require.NoError(t, err)

	_, err = NewSystem([]Component{a, b})
	require.Error(t, err)
	var flowErr *Error
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, ErrNotDisjointLabels, flowErr.Kind)
}

func TestSystemEdgeWithLabelResolvesAcrossComponents(t *testing.T) {
	a, err := NewComponent("A", "s0", []Transition{{Source: "s0", Label: "go", Target: "s1"}})
	require.NoError(t, err)
	b, err := NewComponent("B", "t0", []Transition{{Source: "t0", Label: "hop", Target: "t1"}})
	require.NoError(t, err)
	sys, err := NewSystem([]Component{a, b})
	require.NoError(t, err)

	source, target, ok := sys.EdgeWithLabel("hop")
	require.True(t, ok)
	require.Equal(t, "t0", source)
	require.Equal(t, "t1", target)

	comp, ok := sys.ComponentOfLabel("go")
	require.True(t, ok)
	require.Equal(t, "A", comp.Name)
}

func TestSystemStatesUnionIsSorted(t *testing.T) {
	a, err := NewComponent("A", "idle", []Transition{{Source: "idle", Label: "enter", Target: "crit"}})
	require.NoError(t, err)
	sys, err := NewSystem([]Component{a})
	require.NoError(t, err)
	require.Equal(t, []string{"crit", "idle"}, sys.States())
}
