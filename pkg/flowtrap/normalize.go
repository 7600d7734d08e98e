package flowtrap

import (
	"fmt"
	"sort"
)

// Normalize rewrites a clause into the canonical form required by the
// predicate synthesizer:
//
//  1. every port and broadcast-body predicate is applied to a bare
//     variable;
//  2. every complex term (constant, successor) is lifted into a fresh
//     variable constrained by added atomic restrictions;
//  3. free variables are canonically renamed x_0, x_1, … in lexicographic
//     order of their original names;
//  4. the j-th broadcast's variable is renamed b_j;
//  5. every DNF conjunct of each broadcast's guard carries the explicit
//     Unequal(free_v, q_v) atoms required by shadow-avoidance.
//
// sys resolves which component a free variable "belongs to" for the
// shadow-avoidance pass (step 5); c's ports and broadcast bodies must
// already be bound against sys (see Clause.Bind / NewInteraction).
// Normalize never mutates c; it returns a new Clause.
func Normalize(c Clause, sys *System) (Clause, error) {
	free := c.FreeVariables().Sorted()
	sub := Substitution{}
	for i, v := range free {
		sub[v.Name] = Variable{Name: fmt.Sprintf("x_%d", i)}
	}

	var restrictions []AtomicRestriction
	for _, t := range c.LocalTerms() {
		restrictions = append(restrictions, t.NormalizingRestrictions(sub)...)
	}
	for _, t := range c.ConstantTerms() {
		restrictions = append(restrictions, t.NormalizingRestrictions(sub)...)
	}

	guard := c.Guard.Rename(sub).With(restrictions...)
	ports := liftArguments(c.Ports, sub)

	freeVarComponents := ownerComponentsOfFreeVariables(c, sys)

	broadcasts := make([]Broadcast, len(c.Broadcasts))
	for j, b := range c.Broadcasts {
		normalized, err := normalizeBroadcast(b, j, sub)
		if err != nil {
			return Clause{}, err
		}
		broadcasts[j] = normalized
	}

	for j := range broadcasts {
		if err := applyShadowAvoidance(&broadcasts[j], c.Broadcasts[j], free, freeVarComponents, sys); err != nil {
			return Clause{}, err
		}
	}

	return Clause{Guard: guard, Ports: ports, Broadcasts: broadcasts, Index: c.Index}, nil
}

// normalizeBroadcast mirrors Normalize's steps 2-4, restricted to the j-th
// broadcast's own local terms, and renames the broadcast's variable to
// b_j under the combined substitution (clauseSub extended with the
// broadcast's own renaming).
func normalizeBroadcast(b Broadcast, j int, clauseSub Substitution) (Broadcast, error) {
	bsub := make(Substitution, len(clauseSub)+1+len(b.QuantifiedVariables))
	for k, v := range clauseSub {
		bsub[k] = v
	}
	bsub[b.Variable.Name] = Variable{Name: fmt.Sprintf("b_%d", j)}

	extraQuantified := sortedVariablesExcluding(b.QuantifiedVariables, b.Variable)
	for qi, qv := range extraQuantified {
		if _, already := bsub[qv.Name]; !already {
			bsub[qv.Name] = Variable{Name: fmt.Sprintf("b_%d_q_%d", j, qi)}
		}
	}

	var restrictions []AtomicRestriction
	for _, t := range b.LocalTerms() {
		restrictions = append(restrictions, t.NormalizingRestrictions(bsub)...)
	}

	newGuard := b.Guard.Rename(bsub).WithEachExtended(restrictions...)
	newBody := liftArguments(b.Body, bsub)
	newVariable := bsub.Apply(b.Variable)
	newQuantified := make([]Variable, len(b.QuantifiedVariables))
	for i, v := range b.QuantifiedVariables {
		newQuantified[i] = bsub.Apply(v)
	}

	return Broadcast{
		Variable:            newVariable,
		Guard:               newGuard,
		Body:                newBody,
		QuantifiedVariables: newQuantified,
	}, nil
}

// ownerComponentsOfFreeVariables maps each clause free variable's original
// name to the set of component names that variable's own port predicates
// (not broadcast bodies) resolve to.
func ownerComponentsOfFreeVariables(c Clause, sys *System) map[string]map[string]bool {
	owners := map[string]map[string]bool{}
	for _, p := range c.Ports.Predicates {
		v, ok := p.Variable()
		if !ok {
			continue
		}
		comp, ok := sys.ComponentOfLabel(p.Name)
		if !ok {
			continue
		}
		if owners[v.Name] == nil {
			owners[v.Name] = map[string]bool{}
		}
		owners[v.Name][comp.Name] = true
	}
	return owners
}

// applyShadowAvoidance adds the inequalities that keep a broadcast's
// quantified variable(s) distinct from free variables of the same
// component: once ANY DNF conjunct of the (already renamed) broadcast is
// found missing a required inequality, that inequality is added to EVERY
// conjunct, not just the deficient one.
func applyShadowAvoidance(normalized *Broadcast, original Broadcast, free []Variable, freeVarComponents map[string]map[string]bool, sys *System) error {
	broadcastComponent, err := original.Component(sys)
	if err != nil {
		return err
	}

	quantified := sortedVariableSet(normalized.quantifiedSet())

	var required []AtomicRestriction
	for i, origFV := range free {
		if !freeVarComponents[origFV.Name][broadcastComponent.Name] {
			continue
		}
		renamedFV := Variable{Name: fmt.Sprintf("x_%d", i)}
		for _, qv := range quantified {
			required = append(required, NewUnequal(renamedFV, qv))
		}
	}
	if len(required) == 0 {
		return nil
	}

	missingSomewhere := false
	for _, conjunct := range normalized.Guard.Conjuncts() {
		for _, atom := range required {
			if !conjunct.Contains(atom) {
				missingSomewhere = true
			}
		}
	}
	if missingSomewhere {
		normalized.Guard = normalized.Guard.WithEachExtended(required...)
	}
	return nil
}

// liftArguments replaces every predicate's argument with the variable that
// represents it under s (Term.ToVariable): variables are substituted,
// constants and successors become their lifted c_/succ_ variables.
func liftArguments(pc PredicateCollection, s Substitution) PredicateCollection {
	lifted := make([]Predicate, len(pc.Predicates))
	for i, p := range pc.Predicates {
		p.Argument = p.Argument.ToVariable(s)
		lifted[i] = p
	}
	return NewPredicateCollection(pc.Kind, lifted...)
}

func sortedVariablesExcluding(vars []Variable, exclude Variable) []Variable {
	var out []Variable
	for _, v := range vars {
		if !v.Equal(exclude) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedVariableSet(s VariableSet) []Variable { return s.Sorted() }
