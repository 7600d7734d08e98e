package flowtrap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSimplifyIsIdempotent checks that simplifying a formula twice gives
// the same result as simplifying it once.
func TestSimplifyIsIdempotent(t *testing.T) {
	f := Conjunction{Operands: []Formula{
		FormulaConstant{Value: true},
		Disjunction{Operands: []Formula{FormulaConstant{Value: false}, PredicateCall{Name: "p"}}},
	}}
	once := f.Simplify()
	twice := once.Simplify()
	require.Equal(t, once.Render(), twice.Render())
}

// TestNegateNegateIsIdentityUpToSimplification checks that double
// negation is the identity, once both sides are simplified.
func TestNegateNegateIsIdentityUpToSimplification(t *testing.T) {
	f := Conjunction{Operands: []Formula{PredicateCall{Name: "p"}, PredicateCall{Name: "q"}}}
	roundTrip := f.Negate().Negate().Simplify()
	require.Equal(t, f.Simplify().Render(), roundTrip.Render())
}

func TestConjunctionSimplifyAbsorbsTrueAndFlattens(t *testing.T) {
	f := Conjunction{Operands: []Formula{
		FormulaConstant{Value: true},
		Conjunction{Operands: []Formula{PredicateCall{Name: "a"}, PredicateCall{Name: "b"}}},
	}}
	simplified := f.Simplify().(Conjunction)
	require.Len(t, simplified.Operands, 2)
}

func TestConjunctionSimplifyShortCircuitsOnFalse(t *testing.T) {
	f := Conjunction{Operands: []Formula{PredicateCall{Name: "a"}, FormulaConstant{Value: false}}}
	require.Equal(t, FormulaConstant{Value: false}, f.Simplify())
}

func TestDisjunctionSimplifyUnwrapsSingleton(t *testing.T) {
	f := Disjunction{Operands: []Formula{FormulaConstant{Value: false}, PredicateCall{Name: "a"}}}
	require.Equal(t, PredicateCall{Name: "a"}, f.Simplify())
}

func TestImplicationSimplifyTrueAntecedent(t *testing.T) {
	f := Implication{Left: FormulaConstant{Value: true}, Right: PredicateCall{Name: "a"}}
	require.Equal(t, PredicateCall{Name: "a"}, f.Simplify())
}

func TestImplicationSimplifyTrueConsequent(t *testing.T) {
	f := Implication{Left: PredicateCall{Name: "a"}, Right: FormulaConstant{Value: true}}
	require.Equal(t, FormulaConstant{Value: true}, f.Simplify())
}

func TestImplicationSimplifyFalseConsequentNegatesLeft(t *testing.T) {
	f := Implication{Left: PredicateCall{Name: "a"}, Right: FormulaConstant{Value: false}}
	require.Equal(t, Negation{Inner: PredicateCall{Name: "a"}}, f.Simplify())
}

func TestImplicationSimplifyRightAssociates(t *testing.T) {
	a, b, c := PredicateCall{Name: "a"}, PredicateCall{Name: "b"}, PredicateCall{Name: "c"}
	f := Implication{Left: a, Right: Implication{Left: b, Right: c}}
	simplified := f.Simplify().(Implication)
	require.Equal(t, Conjunction{Operands: []Formula{a, b}}, simplified.Left)
	require.Equal(t, c, simplified.Right)
}

func TestDeMorganDualOnConjunctionNegate(t *testing.T) {
	a, b := PredicateCall{Name: "a"}, PredicateCall{Name: "b"}
	conj := Conjunction{Operands: []Formula{a, b}}
	negated := conj.Negate().(Disjunction)
	require.Equal(t, Negation{Inner: a}, negated.Operands[0])
	require.Equal(t, Negation{Inner: b}, negated.Operands[1])
}

func TestQuantifierDualNegation(t *testing.T) {
	v := Var("x")
	exists := ExistentialFirstOrder([]Var{v}, PredicateCall{Name: "p"})
	negated := exists.Negate().(Quantification)
	require.Equal(t, forallFirstOrder, negated.kind)
}

func TestGuardedFirstOrderQuantifierRendersRangeConstraint(t *testing.T) {
	v := Var("x")
	exists := ExistentialFirstOrder([]Var{v}, PredicateCall{Name: "p"})
	rendered := exists.Render()
	require.Contains(t, rendered, "<= x")
	require.Contains(t, rendered, "x < n")
}

func TestSecondOrderQuantifierHasNoRangeGuard(t *testing.T) {
	v := Var("X")
	exists := ExistentialSecondOrder([]Var{v}, PredicateCall{Name: "p"})
	rendered := exists.Render()
	require.NotContains(t, rendered, "< n")
}

func TestPredicateDefinitionRendersParamsInOrder(t *testing.T) {
	def := PredicateDefinition{
		Name:              "trap",
		SecondOrderParams: []Var{"idle", "crit"},
		Body:              FormulaConstant{Value: true},
	}
	rendered := def.Render()
	require.Contains(t, rendered, "pred trap(var2 idle, var2 crit)")
}

func TestRawFormulaPassesThroughVerbatim(t *testing.T) {
	raw := RawFormula{Text: "ex1 x: x = x"}
	require.Equal(t, "ex1 x: x = x", raw.Render())
	require.Equal(t, Negation{Inner: raw}, raw.Negate())
}
