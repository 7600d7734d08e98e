package flowtrap

import (
	"strconv"
	"strings"
)

// RenderTerm is a term occurrence at the WS1S rendering layer: either a
// named variable (first- or second-order) or an integer literal. It is
// deliberately distinct from Term (the normalizer's term layer): by the
// time a Formula tree is built every operand is already a bare name or
// literal, one representation per pipeline stage.
type RenderTerm interface {
	Render() string
}

// Var is a named WS1S variable occurrence, first- or second-order
// depending on context.
type Var string

// Render implements RenderTerm.
func (v Var) Render() string { return string(v) }

// IntLiteral is an integer literal occurrence in a WS1S formula.
type IntLiteral int

// Render implements RenderTerm.
func (c IntLiteral) Render() string { return strconv.Itoa(int(c)) }

// reservedN is the reserved first-order variable denoting the system
// size, used to guard first-order quantifiers.
const reservedN = Var("n")

// Formula is the WS1S formula algebra's sum type: RawFormula,
// FormulaConstant, Conjunction, Disjunction, Implication,
// Negation, term comparisons, element-of atoms, predicate calls,
// quantifiers, and predicate definitions. Simplify is total (never
// fails), negation-preserving, and idempotent; Render produces the text
// handed to the external decision procedure.
type Formula interface {
	Render() string
	Simplify() Formula
	Negate() Formula
}

func blockIndent(block string) string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// RawFormula is an opaque, pre-rendered WS1S fragment passed through
// verbatim — used for assumptions/properties supplied by the front-end.
type RawFormula struct{ Text string }

func (f RawFormula) Render() string  { return f.Text }
func (f RawFormula) Simplify() Formula { return f }
func (f RawFormula) Negate() Formula   { return Negation{Inner: f} }

// FormulaConstant is a literal true/false formula.
type FormulaConstant struct{ Value bool }

func (f FormulaConstant) Render() string {
	if f.Value {
		return "true"
	}
	return "false"
}
func (f FormulaConstant) Simplify() Formula { return f }
func (f FormulaConstant) Negate() Formula   { return FormulaConstant{Value: !f.Value} }

// Conjunction is an n-ary, associative logical AND.
type Conjunction struct{ Operands []Formula }

func (f Conjunction) Render() string { return renderChain(f.Operands, "&") }

func (f Conjunction) Simplify() Formula {
	simplified := make([]Formula, 0, len(f.Operands))
	for _, o := range f.Operands {
		s := o.Simplify()
		if c, ok := s.(FormulaConstant); ok && c.Value {
			continue // identity: drop `true`
		}
		simplified = append(simplified, s)
	}
	for _, s := range simplified {
		if c, ok := s.(FormulaConstant); ok && !c.Value {
			return FormulaConstant{Value: false} // annihilator
		}
	}
	if len(simplified) == 0 {
		return FormulaConstant{Value: true}
	}
	if len(simplified) == 1 {
		return simplified[0]
	}
	var flattened []Formula
	for _, s := range simplified {
		if inner, ok := s.(Conjunction); ok {
			flattened = append(flattened, inner.Operands...)
		} else {
			flattened = append(flattened, s)
		}
	}
	return Conjunction{Operands: flattened}
}

func (f Conjunction) Negate() Formula {
	negated := make([]Formula, len(f.Operands))
	for i, o := range f.Operands {
		negated[i] = o.Negate()
	}
	return Disjunction{Operands: negated}
}

// Disjunction is an n-ary, associative logical OR.
type Disjunction struct{ Operands []Formula }

func (f Disjunction) Render() string { return renderChain(f.Operands, "|") }

func (f Disjunction) Simplify() Formula {
	simplified := make([]Formula, 0, len(f.Operands))
	for _, o := range f.Operands {
		s := o.Simplify()
		if c, ok := s.(FormulaConstant); ok && !c.Value {
			continue // identity: drop `false`
		}
		simplified = append(simplified, s)
	}
	for _, s := range simplified {
		if c, ok := s.(FormulaConstant); ok && c.Value {
			return FormulaConstant{Value: true} // annihilator
		}
	}
	if len(simplified) == 0 {
		return FormulaConstant{Value: false}
	}
	if len(simplified) == 1 {
		return simplified[0]
	}
	var flattened []Formula
	for _, s := range simplified {
		if inner, ok := s.(Disjunction); ok {
			flattened = append(flattened, inner.Operands...)
		} else {
			flattened = append(flattened, s)
		}
	}
	return Disjunction{Operands: flattened}
}

func (f Disjunction) Negate() Formula {
	negated := make([]Formula, len(f.Operands))
	for i, o := range f.Operands {
		negated[i] = o.Negate()
	}
	return Conjunction{Operands: negated}
}

func renderChain(operands []Formula, symbol string) string {
	if len(operands) == 0 {
		return "true"
	}
	parts := make([]string, len(operands))
	for i, o := range operands {
		parts[i] = blockIndent(o.Render())
	}
	return "(\n" + strings.Join(parts, "\n) "+symbol+" (\n") + "\n)"
}

// Implication is l => r.
type Implication struct{ Left, Right Formula }

func (f Implication) Render() string {
	return "(\n" + blockIndent(f.Left.Render()) + "\n) => (\n" + blockIndent(f.Right.Render()) + "\n)"
}

func (f Implication) Simplify() Formula {
	left := f.Left.Simplify()
	right := f.Right.Simplify()
	if c, ok := left.(FormulaConstant); ok {
		if c.Value {
			return right
		}
		return FormulaConstant{Value: true}
	}
	if c, ok := right.(FormulaConstant); ok {
		if c.Value {
			return FormulaConstant{Value: true}
		}
		return left.Negate().Simplify()
	}
	if nested, ok := right.(Implication); ok {
		newLeft := Conjunction{Operands: []Formula{left, nested.Left}}.Simplify()
		newRight := nested.Right.Simplify()
		return Implication{Left: newLeft, Right: newRight}
	}
	return Implication{Left: left, Right: right}
}

func (f Implication) Negate() Formula {
	return Conjunction{Operands: []Formula{f.Left, Negation{Inner: f.Right}}}
}

// Negation is logical NOT, pushed inward by Simplify (negation-normal
// form); it can only remain in the tree wrapping an atom that cannot
// negate syntactically (e.g. PredicateCall).
type Negation struct{ Inner Formula }

func (f Negation) Render() string { return "~(\n" + blockIndent(f.Inner.Render()) + "\n)" }
func (f Negation) Simplify() Formula {
	negated := f.Inner.Negate()
	if n, ok := negated.(Negation); ok {
		return Negation{Inner: n.Inner.Simplify()}
	}
	return negated.Simplify()
}
func (f Negation) Negate() Formula   { return f.Inner }

// termComparison is the shared shape of the four WS1S term comparisons.
type termComparison struct {
	Left, Right RenderTerm
	symbol      string
}

func (c termComparison) Render() string {
	return c.Left.Render() + " " + c.symbol + " " + c.Right.Render()
}

// TermEqual is left = right.
type TermEqual struct{ Left, Right RenderTerm }

func (f TermEqual) Render() string  { return termComparison{f.Left, f.Right, "="}.Render() }
func (f TermEqual) Simplify() Formula { return f }
func (f TermEqual) Negate() Formula   { return TermUnequal{Left: f.Left, Right: f.Right} }

// TermUnequal is left ~= right.
type TermUnequal struct{ Left, Right RenderTerm }

func (f TermUnequal) Render() string  { return termComparison{f.Left, f.Right, "~="}.Render() }
func (f TermUnequal) Simplify() Formula { return f }
func (f TermUnequal) Negate() Formula   { return TermEqual{Left: f.Left, Right: f.Right} }

// TermLess is left < right.
type TermLess struct{ Left, Right RenderTerm }

func (f TermLess) Render() string  { return termComparison{f.Left, f.Right, "<"}.Render() }
func (f TermLess) Simplify() Formula { return f }
func (f TermLess) Negate() Formula   { return TermLessEqual{Left: f.Right, Right: f.Left} }

// TermLessEqual is left <= right.
type TermLessEqual struct{ Left, Right RenderTerm }

func (f TermLessEqual) Render() string  { return termComparison{f.Left, f.Right, "<="}.Render() }
func (f TermLessEqual) Simplify() Formula { return f }
func (f TermLessEqual) Negate() Formula   { return TermLess{Left: f.Right, Right: f.Left} }

// ElementIn is x in X: a first-order element participates in a
// second-order set.
type ElementIn struct {
	Element Var
	Set     Var
}

func (f ElementIn) Render() string  { return f.Element.Render() + " in " + f.Set.Render() }
func (f ElementIn) Simplify() Formula { return f }
func (f ElementIn) Negate() Formula   { return ElementNotIn{Element: f.Element, Set: f.Set} }

// ElementNotIn is x notin X.
type ElementNotIn struct {
	Element Var
	Set     Var
}

func (f ElementNotIn) Render() string  { return f.Element.Render() + " notin " + f.Set.Render() }
func (f ElementNotIn) Simplify() Formula { return f }
func (f ElementNotIn) Negate() Formula   { return ElementIn{Element: f.Element, Set: f.Set} }

// PredicateCall invokes a previously defined predicate. Its negation
// cannot be pushed syntactically, so Negate wraps it in Negation.
type PredicateCall struct {
	Name string
	Args []RenderTerm
}

func (f PredicateCall) Render() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.Render()
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ")"
}
func (f PredicateCall) Simplify() Formula { return f }
func (f PredicateCall) Negate() Formula   { return Negation{Inner: f} }

// quantKind tags which of the four quantifier variants a Quantification
// value is.
type quantKind int

const (
	existsFirstOrder quantKind = iota
	forallFirstOrder
	existsSecondOrder
	forallSecondOrder
)

// Quantification is the shared representation of ExistentialFirstOrder,
// UniversalFirstOrder, ExistentialSecondOrder and UniversalSecondOrder.
// First-order quantifiers are guarded at render time by the reserved
// range 0 <= v < n, factored into rendering once rather than duplicated
// per quantifier variant.
type Quantification struct {
	kind      quantKind
	Variables []Var
	Inner     Formula
}

// ExistentialFirstOrder builds `ex1 vars: inner`, guarded to 0 <= v < n.
func ExistentialFirstOrder(vars []Var, inner Formula) Quantification {
	return Quantification{kind: existsFirstOrder, Variables: vars, Inner: inner}
}

// UniversalFirstOrder builds `all1 vars: inner`, guarded to 0 <= v < n.
func UniversalFirstOrder(vars []Var, inner Formula) Quantification {
	return Quantification{kind: forallFirstOrder, Variables: vars, Inner: inner}
}

// ExistentialSecondOrder builds `ex2 vars: inner`.
func ExistentialSecondOrder(vars []Var, inner Formula) Quantification {
	return Quantification{kind: existsSecondOrder, Variables: vars, Inner: inner}
}

// UniversalSecondOrder builds `all2 vars: inner`.
func UniversalSecondOrder(vars []Var, inner Formula) Quantification {
	return Quantification{kind: forallSecondOrder, Variables: vars, Inner: inner}
}

func (q Quantification) keyword() string {
	switch q.kind {
	case existsFirstOrder:
		return "ex1"
	case forallFirstOrder:
		return "all1"
	case existsSecondOrder:
		return "ex2"
	case forallSecondOrder:
		return "all2"
	default:
		return "?"
	}
}

func (q Quantification) isFirstOrder() bool {
	return q.kind == existsFirstOrder || q.kind == forallFirstOrder
}

// rangeGuard returns the conjunction 0 <= v & v < n for every variable in
// vars — the single place the guard logic for first-order quantifiers
// lives.
func rangeGuard(vars []Var) Formula {
	var atoms []Formula
	for _, v := range vars {
		atoms = append(atoms, TermLessEqual{Left: IntLiteral(0), Right: v})
		atoms = append(atoms, TermLess{Left: v, Right: reservedN})
	}
	return Conjunction{Operands: atoms}
}

func (q Quantification) actualInner() Formula {
	if !q.isFirstOrder() {
		return q.Inner
	}
	guard := rangeGuard(q.Variables)
	if q.kind == existsFirstOrder {
		return Conjunction{Operands: []Formula{guard, q.Inner}}.Simplify()
	}
	return Implication{Left: guard, Right: q.Inner}.Simplify()
}

func (q Quantification) Render() string {
	names := make([]string, len(q.Variables))
	for i, v := range q.Variables {
		names[i] = v.Render()
	}
	return q.keyword() + " " + strings.Join(names, ", ") + ": (\n" + blockIndent(q.actualInner().Render()) + "\n)"
}

func (q Quantification) Simplify() Formula {
	inner := q.Inner.Simplify()
	if len(q.Variables) == 0 {
		return inner
	}
	return Quantification{kind: q.kind, Variables: q.Variables, Inner: inner}
}

func (q Quantification) Negate() Formula {
	negatedInner := q.Inner.Negate()
	switch q.kind {
	case existsFirstOrder:
		return Quantification{kind: forallFirstOrder, Variables: q.Variables, Inner: negatedInner}
	case forallFirstOrder:
		return Quantification{kind: existsFirstOrder, Variables: q.Variables, Inner: negatedInner}
	case existsSecondOrder:
		return Quantification{kind: forallSecondOrder, Variables: q.Variables, Inner: negatedInner}
	default: // forallSecondOrder
		return Quantification{kind: existsSecondOrder, Variables: q.Variables, Inner: negatedInner}
	}
}

// PredicateDefinition is a top-level `pred name(var2 ..., var1 ...) = (
// body );` definition.
type PredicateDefinition struct {
	Name             string
	SecondOrderParams []Var
	FirstOrderParams  []Var
	Body              Formula
}

func (d PredicateDefinition) Render() string {
	params := make([]string, 0, len(d.SecondOrderParams)+len(d.FirstOrderParams))
	for _, v := range d.SecondOrderParams {
		params = append(params, "var2 "+v.Render())
	}
	for _, v := range d.FirstOrderParams {
		params = append(params, "var1 "+v.Render())
	}
	return "pred " + d.Name + "(" + strings.Join(params, ", ") + ") = (\n" +
		blockIndent(d.Body.Render()) + "\n);"
}

func (d PredicateDefinition) Simplify() Formula {
	return PredicateDefinition{
		Name:              d.Name,
		SecondOrderParams: d.SecondOrderParams,
		FirstOrderParams:  d.FirstOrderParams,
		Body:              d.Body.Simplify(),
	}
}

// Negate is not meaningful for a top-level definition; it returns the
// receiver unchanged so that callers that fold Negate across a predicate
// definitions list do not panic.
func (d PredicateDefinition) Negate() Formula { return d }

// Call returns a PredicateCall invoking d with the given arguments.
func (d PredicateDefinition) Call(args ...RenderTerm) PredicateCall {
	return PredicateCall{Name: d.Name, Args: args}
}
