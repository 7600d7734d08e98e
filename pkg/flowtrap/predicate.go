package flowtrap

import (
	"fmt"
	"sort"
	"strings"
)

// Predicate is a port: a reference to a component transition applied to a
// first-order argument. Pre and Post name the second-order
// state-set variables for the source and target of the underlying edge;
// they are empty until Bind resolves Name against a System.
type Predicate struct {
	Name     string
	Argument Term
	Pre      string
	Post     string
}

// NewPredicate constructs an unbound predicate over the given label and
// argument term.
func NewPredicate(name string, argument Term) Predicate {
	return Predicate{Name: name, Argument: argument}
}

// Bind resolves the predicate's label against sys, setting Pre/Post to the
// source/target state names of the underlying edge. It is grounded on
// original_source/bounded.py's BoundedPort, which performs the identical
// fail-fast resolution at construction time rather than deferring it to
// first use.
func (p Predicate) Bind(sys *System) (Predicate, error) {
	source, target, ok := sys.EdgeWithLabel(p.Name)
	if !ok {
		return p, newError(ErrUnknownLabel, "predicate %q: no edge with this label in the system", p.Name)
	}
	p.Pre = source
	p.Post = target
	return p, nil
}

// IsBound reports whether Bind has resolved this predicate's Pre/Post.
func (p Predicate) IsBound() bool { return p.Pre != "" || p.Post != "" }

func (p Predicate) String() string { return fmt.Sprintf("%s(%s)", p.Name, p.Argument) }

// Equal reports structural equality.
func (p Predicate) Equal(other Predicate) bool {
	return p.Name == other.Name && p.Argument.Equal(other.Argument)
}

// Variable returns the predicate's argument variable, if its argument is a
// bare variable occurrence.
func (p Predicate) Variable() (Variable, bool) {
	v, ok := p.Argument.(Variable)
	return v, ok
}

// Variables returns the variables occurring in the predicate's argument.
func (p Predicate) Variables() VariableSet { return p.Argument.Variables() }

// Terms returns the predicate argument's term occurrences.
func (p Predicate) Terms() []Term { return p.Argument.AllTerms() }

// Rename applies a substitution to the predicate's argument.
func (p Predicate) Rename(s Substitution) Predicate {
	p.Argument = renameTerm(p.Argument, s)
	return p
}

// PredicateCollectionKind tags whether a PredicateCollection's members are
// intended conjunctively or disjunctively.
type PredicateCollectionKind int

const (
	// Conjunctive means every member predicate holds simultaneously.
	Conjunctive PredicateCollectionKind = iota
	// Disjunctive means at least one member predicate holds.
	Disjunctive
)

// PredicateCollection is a set of predicates tagged with conjunctive or
// disjunctive intent. Clause.Ports is always Conjunctive;
// Broadcast.Body may be either, per the interaction's own shape.
type PredicateCollection struct {
	Kind       PredicateCollectionKind
	Predicates []Predicate
}

// NewPredicateCollection builds a collection of the given kind, sorted
// deterministically by String for stable iteration.
func NewPredicateCollection(kind PredicateCollectionKind, predicates ...Predicate) PredicateCollection {
	sorted := append([]Predicate{}, predicates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })
	return PredicateCollection{Kind: kind, Predicates: sorted}
}

// Variables returns the union of variables across every member predicate.
func (pc PredicateCollection) Variables() VariableSet {
	s := NewVariableSet()
	for _, p := range pc.Predicates {
		s.AddAll(p.Variables())
	}
	return s
}

// Terms returns the distinct term occurrences across every member
// predicate, in first-seen order.
func (pc PredicateCollection) Terms() []Term {
	var terms []Term
	for _, p := range pc.Predicates {
		for _, t := range p.Terms() {
			if !containsTerm(terms, t) {
				terms = append(terms, t)
			}
		}
	}
	return terms
}

// Rename applies a substitution to every member predicate, re-sorting to
// keep the deterministic order invariant.
func (pc PredicateCollection) Rename(s Substitution) PredicateCollection {
	renamed := make([]Predicate, len(pc.Predicates))
	for i, p := range pc.Predicates {
		renamed[i] = p.Rename(s)
	}
	return NewPredicateCollection(pc.Kind, renamed...)
}

// Bind resolves every member predicate's label against sys.
func (pc PredicateCollection) Bind(sys *System) (PredicateCollection, error) {
	bound := make([]Predicate, len(pc.Predicates))
	for i, p := range pc.Predicates {
		b, err := p.Bind(sys)
		if err != nil {
			return pc, err
		}
		bound[i] = b
	}
	return NewPredicateCollection(pc.Kind, bound...), nil
}

func (pc PredicateCollection) String() string {
	sep := " & "
	if pc.Kind == Disjunctive {
		sep = " | "
	}
	parts := make([]string, len(pc.Predicates))
	for i, p := range pc.Predicates {
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}
