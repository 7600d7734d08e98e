package flowtrap

import "strings"

// Broadcast is a universally-quantified rendezvous body: "for all Variable
// (and any other QuantifiedVariables) satisfying Guard, Body holds". Guard
// is required to be in DNF.
type Broadcast struct {
	Variable            Variable
	Guard               DNFGuard
	Body                PredicateCollection
	QuantifiedVariables []Variable
}

// NewBroadcast constructs a Broadcast. It does not itself validate that
// every body variable is quantified — callers that need that fail-fast
// behavior should call Validate.
func NewBroadcast(variable Variable, guard DNFGuard, body PredicateCollection, quantified ...Variable) Broadcast {
	return Broadcast{Variable: variable, Guard: guard, Body: body, QuantifiedVariables: quantified}
}

// quantifiedSet returns Variable together with every explicit
// QuantifiedVariable, as a set.
func (b Broadcast) quantifiedSet() VariableSet {
	s := NewVariableSet()
	s.Add(b.Variable)
	for _, v := range b.QuantifiedVariables {
		s.Add(v)
	}
	return s
}

// Validate fails with ErrBroadcastVariableMismatch if any Body predicate
// references a variable that is not quantified by this broadcast.
func (b Broadcast) Validate() error {
	quantified := b.quantifiedSet()
	for _, p := range b.Body.Predicates {
		for _, v := range p.Variables().Sorted() {
			if !quantified.Contains(v) {
				return newError(ErrBroadcastVariableMismatch,
					"broadcast over %s: body predicate %s uses variable %s which is not quantified",
					b.Variable, p, v)
			}
		}
	}
	return nil
}

// FreeVariables returns the guard's variables that are not quantified by
// this broadcast.
func (b Broadcast) FreeVariables() VariableSet {
	return b.Guard.Variables().Minus(b.quantifiedSet())
}

// Terms returns every distinct term occurrence in the broadcast: its
// variable, its guard, and its body.
func (b Broadcast) Terms() []Term {
	var terms []Term
	add := func(ts []Term) {
		for _, t := range ts {
			if !containsTerm(terms, t) {
				terms = append(terms, t)
			}
		}
	}
	add(b.Variable.AllTerms())
	add(b.Guard.Terms())
	add(b.Body.Terms())
	return terms
}

// LocalTerms returns the terms of this broadcast whose represented
// variable (under no renaming) is the broadcast's own variable.
func (b Broadcast) LocalTerms() []Term {
	var local []Term
	for _, t := range b.Terms() {
		if v, ok := t.(Variable); ok && v.Equal(b.Variable) {
			local = append(local, t)
			continue
		}
		if s, ok := t.(Successor); ok {
			if root, ok := s.Argument.(Variable); ok && root.Equal(b.Variable) {
				local = append(local, t)
			}
		}
	}
	return local
}

// Rename applies a total substitution to every part of the broadcast.
func (b Broadcast) Rename(s Substitution) Broadcast {
	quantified := make([]Variable, len(b.QuantifiedVariables))
	for i, v := range b.QuantifiedVariables {
		quantified[i] = s.Apply(v)
	}
	return Broadcast{
		Variable:            s.Apply(b.Variable),
		Guard:               b.Guard.Rename(s),
		Body:                b.Body.Rename(s),
		QuantifiedVariables: quantified,
	}
}

// Bind resolves every body predicate's label against sys.
func (b Broadcast) Bind(sys *System) (Broadcast, error) {
	bound, err := b.Body.Bind(sys)
	if err != nil {
		return b, err
	}
	b.Body = bound
	return b, nil
}

// Component returns the single component every body predicate resolves
// to, failing with ErrInconsistentBroadcastType if the body's predicates
// resolve to more than one component.
func (b Broadcast) Component(sys *System) (Component, error) {
	var found *Component
	for _, p := range b.Body.Predicates {
		c, ok := sys.ComponentOfLabel(p.Name)
		if !ok {
			return Component{}, newError(ErrUnknownLabel, "broadcast body predicate %s: no edge with this label", p)
		}
		if found == nil {
			found = &c
			continue
		}
		if found.Name != c.Name {
			return Component{}, newError(ErrInconsistentBroadcastType,
				"broadcast over %s: body predicates resolve to components %q and %q", b.Variable, found.Name, c.Name)
		}
	}
	if found == nil {
		return Component{}, newError(ErrInconsistentBroadcastType, "broadcast over %s: body has no predicates to determine a component", b.Variable)
	}
	return *found, nil
}

func (b Broadcast) String() string {
	vars := make([]string, 0, 1+len(b.QuantifiedVariables))
	vars = append(vars, b.Variable.String())
	for _, v := range b.QuantifiedVariables {
		vars = append(vars, v.String())
	}
	return "all " + strings.Join(vars, ",") + ": " + b.Guard.String() + ". " + b.Body.String()
}
