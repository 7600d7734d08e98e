package flowtrap

import "fmt"

// hitMissFuncs selects the pre- or post-side hit/miss formula builder for a
// port predicate, letting every dual pre/post synthesizer share one body of
// code.
type hitMissFuncs struct {
	hit  func(Predicate) Formula
	miss func(Predicate) Formula
}

var preFuncs = hitMissFuncs{hit: hitPre, miss: missPre}
var postFuncs = hitMissFuncs{hit: hitPost, miss: missPost}

func hitPre(p Predicate) Formula  { return ElementIn{Element: Var(p.Argument.String()), Set: Var(p.Pre)} }
func missPre(p Predicate) Formula { return ElementNotIn{Element: Var(p.Argument.String()), Set: Var(p.Pre)} }
func hitPost(p Predicate) Formula {
	return ElementIn{Element: Var(p.Argument.String()), Set: Var(p.Post)}
}
func missPost(p Predicate) Formula {
	return ElementNotIn{Element: Var(p.Argument.String()), Set: Var(p.Post)}
}

func toVars(vs []Variable) []Var {
	out := make([]Var, len(vs))
	for i, v := range vs {
		out[i] = Var(v.Name)
	}
	return out
}

func toRenderTerms(vs []Var) []RenderTerm {
	out := make([]RenderTerm, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func restrictionToFormula(a AtomicRestriction) Formula {
	left := Var(a.Left.String())
	switch a.Kind {
	case Equal:
		return TermEqual{Left: left, Right: Var(a.Right.String())}
	case Unequal:
		return TermUnequal{Left: left, Right: Var(a.Right.String())}
	case Less:
		return TermLess{Left: left, Right: Var(a.Right.String())}
	case LessEqual:
		return TermLessEqual{Left: left, Right: Var(a.Right.String())}
	case IsNext:
		right := Var(a.Right.String())
		return RawFormula{Text: left.Render() + " isnext " + right.Render()}
	case Last:
		return RawFormula{Text: "last(" + left.Render() + ")"}
	default:
		return FormulaConstant{Value: true}
	}
}

// guardToFormula renders a conjunctive Guard as a Formula.
func guardToFormula(g Guard) Formula {
	atoms := g.Atoms()
	if len(atoms) == 0 {
		return FormulaConstant{Value: true}
	}
	ops := make([]Formula, len(atoms))
	for i, a := range atoms {
		ops[i] = restrictionToFormula(a)
	}
	return Conjunction{Operands: ops}
}

// guardAsWS1S renders a broadcast's DNF guard as a Formula.
func guardAsWS1S(b Broadcast) Formula {
	conjuncts := b.Guard.Conjuncts()
	if len(conjuncts) == 0 {
		return FormulaConstant{Value: false}
	}
	ops := make([]Formula, len(conjuncts))
	for i, c := range conjuncts {
		ops[i] = guardToFormula(c)
	}
	return Disjunction{Operands: ops}
}

func quantifiedVars(b Broadcast) []Var { return toVars(sortedVariableSet(b.quantifiedSet())) }

func freshSubstitution(s VariableSet) Substitution {
	sub := Substitution{}
	for _, v := range s.Sorted() {
		sub[v.Name] = Variable{Name: "substitute_" + v.Name}
	}
	return sub
}

func conjunctionOrTrue(parts []Formula) Formula {
	if len(parts) == 0 {
		return FormulaConstant{Value: true}
	}
	return Conjunction{Operands: parts}
}

func disjunctionOrFalse(parts []Formula) Formula {
	if len(parts) == 0 {
		return FormulaConstant{Value: false}
	}
	return Disjunction{Operands: parts}
}

// disjointAllBroadcast is disjoint_all_pre(b)/disjoint_all_post(b),
// selected by f.
func disjointAllBroadcast(b Broadcast, f hitMissFuncs) Formula {
	var miss []Formula
	for _, p := range b.Body.Predicates {
		miss = append(miss, f.miss(p))
	}
	return UniversalFirstOrder(quantifiedVars(b), Implication{Left: guardAsWS1S(b), Right: conjunctionOrTrue(miss)})
}

// oneInBroadcast is one_in_pre(b)/one_in_post(b): a witness
// assignment satisfying the guard with every body predicate hit, unique
// among any other assignment also satisfying the guard and hitting some
// body predicate.
func oneInBroadcast(b Broadcast, f hitMissFuncs) Formula {
	var hitAll []Formula
	for _, p := range b.Body.Predicates {
		hitAll = append(hitAll, f.hit(p))
	}

	renamed := b.Rename(freshSubstitution(b.quantifiedSet()))
	var hitAny []Formula
	for _, p := range renamed.Body.Predicates {
		hitAny = append(hitAny, f.hit(p))
	}

	uniqueness := UniversalFirstOrder(quantifiedVars(renamed), Implication{
		Left:  Conjunction{Operands: []Formula{guardAsWS1S(renamed), disjunctionOrFalse(hitAny)}},
		Right: TermEqual{Left: Var(renamed.Variable.String()), Right: Var(b.Variable.String())},
	})

	witness := Conjunction{Operands: []Formula{guardAsWS1S(b), conjunctionOrTrue(hitAll), uniqueness}}
	return ExistentialFirstOrder(quantifiedVars(b), witness)
}

// onePostBroadcast is one_post(b).
func onePostBroadcast(b Broadcast) Formula {
	var hitAll []Formula
	for _, p := range b.Body.Predicates {
		hitAll = append(hitAll, hitPost(p))
	}
	return ExistentialFirstOrder(quantifiedVars(b), Conjunction{Operands: []Formula{guardAsWS1S(b), conjunctionOrTrue(hitAll)}})
}

// verticalHitBroadcast is vertical_hit(b).
func verticalHitBroadcast(b Broadcast) Formula {
	var impls []Formula
	for _, p := range b.Body.Predicates {
		impls = append(impls, Implication{Left: hitPre(p), Right: hitPost(p)})
	}
	return UniversalFirstOrder(quantifiedVars(b), Implication{Left: guardAsWS1S(b), Right: conjunctionOrTrue(impls)})
}

// isDeadBroadcast is is_dead(b).
func isDeadBroadcast(b Broadcast) Formula {
	var miss []Formula
	for _, p := range b.Body.Predicates {
		miss = append(miss, missPre(p))
	}
	return ExistentialFirstOrder(quantifiedVars(b), Conjunction{Operands: []Formula{guardAsWS1S(b), conjunctionOrTrue(miss)}})
}

// oneInFree is one_in_free_pre/one_in_free_post.
func oneInFree(ports []Predicate, f hitMissFuncs) Formula {
	if len(ports) == 0 {
		return FormulaConstant{Value: false}
	}
	var disj []Formula
	for _, p := range ports {
		conj := []Formula{f.hit(p)}
		for _, o := range ports {
			if !o.Equal(p) {
				conj = append(conj, f.miss(o))
			}
		}
		disj = append(disj, Conjunction{Operands: conj})
	}
	return Disjunction{Operands: disj}
}

// disjointAllFree is disjoint_all_free_pre/disjoint_all_free_post.
func disjointAllFree(ports []Predicate, f hitMissFuncs) Formula {
	var miss []Formula
	for _, p := range ports {
		miss = append(miss, f.miss(p))
	}
	return conjunctionOrTrue(miss)
}

// clauseDisjointAll is the clause-level disjoint_all_pre/_post.
func clauseDisjointAll(c Clause, f hitMissFuncs) Formula {
	parts := []Formula{disjointAllFree(c.Ports.Predicates, f)}
	for _, b := range c.Broadcasts {
		parts = append(parts, disjointAllBroadcast(b, f))
	}
	return Conjunction{Operands: parts}
}

// clauseOneInAllBroadcasts is one_in_all_broadcasts_pre/_post.
func clauseOneInAllBroadcasts(c Clause, f hitMissFuncs) Formula {
	if len(c.Broadcasts) == 0 {
		return FormulaConstant{Value: false}
	}
	var disj []Formula
	for i, bi := range c.Broadcasts {
		conj := []Formula{oneInBroadcast(bi, f)}
		for j, bj := range c.Broadcasts {
			if j != i {
				conj = append(conj, disjointAllBroadcast(bj, f))
			}
		}
		disj = append(disj, Conjunction{Operands: conj})
	}
	return Disjunction{Operands: disj}
}

// clauseOneIn is the clause-level one_in_pre/_post.
func clauseOneIn(c Clause, f hitMissFuncs) Formula {
	var broadcastDisjoint []Formula
	for _, b := range c.Broadcasts {
		broadcastDisjoint = append(broadcastDisjoint, disjointAllBroadcast(b, f))
	}
	left := Conjunction{Operands: []Formula{oneInFree(c.Ports.Predicates, f), conjunctionOrTrue(broadcastDisjoint)}}
	right := Conjunction{Operands: []Formula{disjointAllFree(c.Ports.Predicates, f), clauseOneInAllBroadcasts(c, f)}}
	return Disjunction{Operands: []Formula{left, right}}
}

func clausePredName(base string, index int) string { return fmt.Sprintf("%s_%d", base, index+1) }

// wrapFree universally quantifies inner over the clause's free variables,
// or returns inner unchanged if the clause has none.
func wrapFree(c Clause, inner Formula) Formula {
	free := c.FreeVariables().Sorted()
	if len(free) == 0 {
		return inner
	}
	return UniversalFirstOrder(toVars(free), inner)
}

func stateVars(sys *System) []Var {
	states := sys.States()
	out := make([]Var, len(states))
	for i, s := range states {
		out[i] = Var(s)
	}
	return out
}

func prefixedVars(prefix string, sys *System) []Var {
	states := sys.States()
	out := make([]Var, len(states))
	for i, s := range states {
		out[i] = Var(prefix + s)
	}
	return out
}

// invariantTransitionDef is invariant-transition-k.
func invariantTransitionDef(c Clause, sys *System) PredicateDefinition {
	disjPre := clauseDisjointAll(c, preFuncs)
	disjPost := clauseDisjointAll(c, postFuncs)
	oneInPre := clauseOneIn(c, preFuncs)
	oneInPost := clauseOneIn(c, postFuncs)
	body := Disjunction{Operands: []Formula{
		Conjunction{Operands: []Formula{disjPre, disjPost}},
		Conjunction{Operands: []Formula{oneInPre, oneInPost}},
		Conjunction{Operands: []Formula{Negation{Inner: disjPre}, Negation{Inner: oneInPre}}},
	}}
	inner := Implication{Left: guardToFormula(c.Guard), Right: body}
	return PredicateDefinition{
		Name:              clausePredName("invariant_transition", c.Index),
		SecondOrderParams: stateVars(sys),
		Body:              wrapFree(c, inner),
	}
}

// trapTransitionDef is trap-transition-k.
func trapTransitionDef(c Clause, sys *System) PredicateDefinition {
	ports := c.Ports.Predicates
	var freePreParts, freePostParts []Formula
	for _, p := range ports {
		freePreParts = append(freePreParts, hitPre(p))
		freePostParts = append(freePostParts, hitPost(p))
	}
	freePre := disjunctionOrFalse(freePreParts)
	freePost := disjunctionOrFalse(freePostParts)

	var onePosts, verticalHits []Formula
	for _, b := range c.Broadcasts {
		onePosts = append(onePosts, onePostBroadcast(b))
		verticalHits = append(verticalHits, verticalHitBroadcast(b))
	}

	body := Disjunction{Operands: []Formula{
		freePost,
		disjunctionOrFalse(onePosts),
		Conjunction{Operands: []Formula{Negation{Inner: freePre}, conjunctionOrTrue(verticalHits)}},
	}}
	inner := Implication{Left: guardToFormula(c.Guard), Right: body}
	return PredicateDefinition{
		Name:              clausePredName("trap_transition", c.Index),
		SecondOrderParams: stateVars(sys),
		Body:              wrapFree(c, inner),
	}
}

// deadTransitionDef is dead-transition-k. A clause with no ports and no
// broadcasts synthesizes a trivially true predicate, consistent with the
// trap/invariant predicates for the same degenerate shape.
func deadTransitionDef(c Clause, sys *System) PredicateDefinition {
	name := clausePredName("dead_transition", c.Index)
	ports := c.Ports.Predicates
	if len(ports) == 0 && len(c.Broadcasts) == 0 {
		return PredicateDefinition{Name: name, SecondOrderParams: stateVars(sys), Body: FormulaConstant{Value: true}}
	}
	var disj []Formula
	for _, p := range ports {
		disj = append(disj, missPre(p))
	}
	for _, b := range c.Broadcasts {
		disj = append(disj, isDeadBroadcast(b))
	}
	inner := Implication{Left: guardToFormula(c.Guard), Right: Disjunction{Operands: disj}}
	return PredicateDefinition{Name: name, SecondOrderParams: stateVars(sys), Body: wrapFree(c, inner)}
}

// systemWideDef conjoins every clause's numbered predicate of clauseBase
// into the single system-wide predicate name (trap, invariant, deadlock).
// Each per-clause predicate is called positionally
// with the same state-set parameters, so it can equally be invoked with a
// candidate trap/flow family wherever systemWideDef's own name is called
// with different actual arguments (see trapInvariantDef/flowInvariantDef).
func systemWideDef(name, clauseBase string, clauses []Clause, sys *System) PredicateDefinition {
	params := stateVars(sys)
	var calls []Formula
	for _, c := range clauses {
		calls = append(calls, PredicateCall{Name: clausePredName(clauseBase, c.Index), Args: toRenderTerms(params)})
	}
	return PredicateDefinition{Name: name, SecondOrderParams: params, Body: conjunctionOrTrue(calls)}
}

func intersectionDef(sys *System) PredicateDefinition {
	xs, ys := prefixedVars("X_", sys), prefixedVars("Y_", sys)
	x := Var("x")
	var disj []Formula
	for i := range xs {
		disj = append(disj, Conjunction{Operands: []Formula{
			ElementIn{Element: x, Set: xs[i]},
			ElementIn{Element: x, Set: ys[i]},
		}})
	}
	return PredicateDefinition{
		Name:              "intersection",
		SecondOrderParams: append(append([]Var{}, xs...), ys...),
		Body:              ExistentialFirstOrder([]Var{x}, disjunctionOrFalse(disj)),
	}
}

func pairHits(v Var, xs, ys []Var) []Formula {
	out := make([]Formula, len(xs))
	for i := range xs {
		out[i] = Conjunction{Operands: []Formula{ElementIn{Element: v, Set: xs[i]}, ElementIn{Element: v, Set: ys[i]}}}
	}
	return out
}

func uniqueIntersectionDef(sys *System) PredicateDefinition {
	xs, ys := prefixedVars("X_", sys), prefixedVars("Y_", sys)
	x, y := Var("x"), Var("y")
	hitsX := pairHits(x, xs, ys)
	var exactlyOne []Formula
	for i := range hitsX {
		conj := []Formula{hitsX[i]}
		for j := range hitsX {
			if j != i {
				conj = append(conj, Negation{Inner: hitsX[j]})
			}
		}
		exactlyOne = append(exactlyOne, Conjunction{Operands: conj})
	}
	uniqueness := UniversalFirstOrder([]Var{y}, Implication{
		Left:  disjunctionOrFalse(pairHits(y, xs, ys)),
		Right: TermEqual{Left: y, Right: x},
	})
	body := ExistentialFirstOrder([]Var{x}, Conjunction{Operands: []Formula{disjunctionOrFalse(exactlyOne), uniqueness}})
	return PredicateDefinition{
		Name:              "unique_intersection",
		SecondOrderParams: append(append([]Var{}, xs...), ys...),
		Body:              body,
	}
}

func intersectsInitialDef(sys *System) PredicateDefinition {
	x := Var("x")
	var disj []Formula
	for _, comp := range sys.Components {
		disj = append(disj, ElementIn{Element: x, Set: Var(comp.InitialState)})
	}
	return PredicateDefinition{
		Name:              "intersects_initial",
		SecondOrderParams: stateVars(sys),
		Body:              ExistentialFirstOrder([]Var{x}, disjunctionOrFalse(disj)),
	}
}

func uniquelyIntersectsInitialDef(sys *System) PredicateDefinition {
	x, y := Var("x"), Var("y")
	comps := sys.Components
	var exactlyOne []Formula
	for i, ci := range comps {
		conj := []Formula{ElementIn{Element: x, Set: Var(ci.InitialState)}}
		for j, cj := range comps {
			if j != i {
				conj = append(conj, ElementNotIn{Element: x, Set: Var(cj.InitialState)})
			}
		}
		exactlyOne = append(exactlyOne, Conjunction{Operands: conj})
	}
	var anyInit []Formula
	for _, c := range comps {
		anyInit = append(anyInit, ElementIn{Element: y, Set: Var(c.InitialState)})
	}
	uniqueness := UniversalFirstOrder([]Var{y}, Implication{Left: disjunctionOrFalse(anyInit), Right: TermEqual{Left: y, Right: x}})
	body := ExistentialFirstOrder([]Var{x}, Conjunction{Operands: []Formula{disjunctionOrFalse(exactlyOne), uniqueness}})
	return PredicateDefinition{Name: "uniquely_intersects_initial", SecondOrderParams: stateVars(sys), Body: body}
}

func trapInvariantDef(sys *System) PredicateDefinition {
	t, s := prefixedVars("T_", sys), stateVars(sys)
	body := UniversalSecondOrder(t, Implication{
		Left: Conjunction{Operands: []Formula{
			PredicateCall{Name: "trap", Args: toRenderTerms(t)},
			PredicateCall{Name: "intersects_initial", Args: toRenderTerms(t)},
		}},
		Right: PredicateCall{Name: "intersection", Args: toRenderTerms(append(append([]Var{}, t...), s...))},
	})
	return PredicateDefinition{Name: "trap_invariant", Body: body}
}

func flowInvariantDef(sys *System) PredicateDefinition {
	f, s := prefixedVars("F_", sys), stateVars(sys)
	body := UniversalSecondOrder(f, Implication{
		Left: Conjunction{Operands: []Formula{
			PredicateCall{Name: "invariant", Args: toRenderTerms(f)},
			PredicateCall{Name: "uniquely_intersects_initial", Args: toRenderTerms(f)},
		}},
		Right: PredicateCall{Name: "unique_intersection", Args: toRenderTerms(append(append([]Var{}, f...), s...))},
	})
	return PredicateDefinition{Name: "flow_invariant", Body: body}
}

func markingDef(sys *System) PredicateDefinition {
	m := Var("m")
	var perComponent []Formula
	for _, comp := range sys.Components {
		states := comp.States()
		var disj []Formula
		for _, pos := range states {
			conj := []Formula{ElementIn{Element: m, Set: Var(pos)}}
			for _, neg := range states {
				if neg != pos {
					conj = append(conj, ElementNotIn{Element: m, Set: Var(neg)})
				}
			}
			disj = append(disj, Conjunction{Operands: conj})
		}
		perComponent = append(perComponent, disjunctionOrFalse(disj))
	}
	partition := UniversalFirstOrder([]Var{m}, conjunctionOrTrue(perComponent))
	body := Conjunction{Operands: []Formula{
		partition,
		PredicateCall{Name: "flow_invariant"},
		PredicateCall{Name: "trap_invariant"},
	}}
	return PredicateDefinition{Name: "marking", Body: body}
}

// Synthesize builds every predicate definition for an interaction whose
// clauses are already normalized: the three numbered predicates per
// clause, then the fixed system-wide set.
func Synthesize(i *Interaction) []PredicateDefinition {
	sys := i.System
	var defs []PredicateDefinition
	for _, c := range i.Clauses {
		defs = append(defs, deadTransitionDef(c, sys))
		defs = append(defs, trapTransitionDef(c, sys))
		defs = append(defs, invariantTransitionDef(c, sys))
	}
	defs = append(defs, systemWideDef("trap", "trap_transition", i.Clauses, sys))
	defs = append(defs, systemWideDef("invariant", "invariant_transition", i.Clauses, sys))
	defs = append(defs, systemWideDef(ReservedDeadlockProperty, "dead_transition", i.Clauses, sys))
	defs = append(defs, intersectionDef(sys))
	defs = append(defs, uniqueIntersectionDef(sys))
	defs = append(defs, intersectsInitialDef(sys))
	defs = append(defs, uniquelyIntersectsInitialDef(sys))
	defs = append(defs, trapInvariantDef(sys))
	defs = append(defs, flowInvariantDef(sys))
	defs = append(defs, markingDef(sys))
	return defs
}
