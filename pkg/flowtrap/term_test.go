package flowtrap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstantToVariableIsContentAddressed(t *testing.T) {
	c1 := Constant{Value: 3}
	c2 := Constant{Value: 3}
	sub := Substitution{}
	require.Equal(t, c1.ToVariable(sub), c2.ToVariable(sub))
	require.Equal(t, "c_3", c1.ToVariable(sub).Name)
}

func TestConstantNormalizingRestrictionsProducesEqual(t *testing.T) {
	c := Constant{Value: 0}
	sub := Substitution{}
	restrictions := c.NormalizingRestrictions(sub)
	require.Len(t, restrictions, 1)
	require.Equal(t, Equal, restrictions[0].Kind)
}

func TestSuccessorLiftsArgumentBeforeItself(t *testing.T) {
	s := Successor{Argument: Variable{Name: "x"}}
	sub := Substitution{"x": Variable{Name: "x_0"}}
	require.Equal(t, Variable{Name: "succ_x_0"}, s.ToVariable(sub))

	restrictions := s.NormalizingRestrictions(sub)
	require.Len(t, restrictions, 1)
	require.Equal(t, IsNext, restrictions[0].Kind)
	require.Equal(t, Variable{Name: "x_0"}, restrictions[0].Left)
	require.Equal(t, Variable{Name: "succ_x_0"}, restrictions[0].Right)
}

func TestVariableToVariableAppliesSubstitutionOrIdentity(t *testing.T) {
	v := Variable{Name: "x"}
	require.Equal(t, v, v.ToVariable(Substitution{}))

	sub := Substitution{"x": Variable{Name: "x_0"}}
	require.Equal(t, Variable{Name: "x_0"}, v.ToVariable(sub))
}

func TestIsTrivial(t *testing.T) {
	require.True(t, IsTrivial(Variable{Name: "x"}))
	require.False(t, IsTrivial(Constant{Value: 1}))
	require.False(t, IsTrivial(Successor{Argument: Variable{Name: "x"}}))
}

func TestVariableSetSortedIsLexicographic(t *testing.T) {
	s := NewVariableSet()
	s.Add(Variable{Name: "x_10"})
	s.Add(Variable{Name: "x_2"})
	s.Add(Variable{Name: "x_1"})

	names := make([]string, 0, 3)
	for _, v := range s.Sorted() {
		names = append(names, v.Name)
	}
	require.Equal(t, []string{"x_1", "x_10", "x_2"}, names)
}

func TestVariableSetMinus(t *testing.T) {
	a := NewVariableSet()
	a.Add(Variable{Name: "x"})
	a.Add(Variable{Name: "y"})
	b := NewVariableSet()
	b.Add(Variable{Name: "y"})

	diff := a.Minus(b)
	require.True(t, diff.Contains(Variable{Name: "x"}))
	require.False(t, diff.Contains(Variable{Name: "y"}))
}

func TestAllTermsIncludesSubterms(t *testing.T) {
	s := Successor{Argument: Successor{Argument: Variable{Name: "x"}}}
	terms := s.AllTerms()
	require.Len(t, terms, 3)
}
