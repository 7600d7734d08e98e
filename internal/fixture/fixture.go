// Package fixture loads System/Interaction descriptions from YAML. It
// stands in for a full front-end parser in tests and demos: a textual,
// hand-writable format that builds the same typed AST a production
// parser would produce.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/flowtrap/pkg/flowtrap"
)

// File is the top-level YAML document shape.
type File struct {
	System      SystemSpec        `yaml:"system"`
	Clauses     []ClauseSpec      `yaml:"clauses"`
	Assumptions map[string]string `yaml:"assumptions,omitempty"`
	Properties  map[string]string `yaml:"properties,omitempty"`
}

// SystemSpec is a System's YAML shape.
type SystemSpec struct {
	Components []ComponentSpec `yaml:"components"`
}

// ComponentSpec is a Component's YAML shape.
type ComponentSpec struct {
	Name        string           `yaml:"name"`
	Initial     string           `yaml:"initial"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

// TransitionSpec is a Transition's YAML shape.
type TransitionSpec struct {
	Source string `yaml:"source"`
	Label  string `yaml:"label"`
	Target string `yaml:"target"`
}

// ClauseSpec is a Clause's YAML shape. Ports and broadcast bodies carry
// only a bare variable name as their argument: fixtures exercise binding,
// normalization, synthesis, and rendering end-to-end, while term-lifting
// of constants/successors is covered directly in Go by normalize_test.go.
type ClauseSpec struct {
	Guard      []RestrictionSpec `yaml:"guard,omitempty"`
	Ports      []PortSpec        `yaml:"ports,omitempty"`
	Broadcasts []BroadcastSpec   `yaml:"broadcasts,omitempty"`
}

// PortSpec is a Predicate's YAML shape.
type PortSpec struct {
	Label    string `yaml:"label"`
	Argument string `yaml:"argument"`
}

// RestrictionSpec is an AtomicRestriction's YAML shape.
type RestrictionSpec struct {
	Kind  string `yaml:"kind"`
	Left  string `yaml:"left"`
	Right string `yaml:"right,omitempty"`
}

// BroadcastSpec is a Broadcast's YAML shape. Guard is a list of conjuncts
// (each itself a list of restrictions), matching the DNF shape required
// of every broadcast guard.
type BroadcastSpec struct {
	Variable   string              `yaml:"variable"`
	Quantified []string            `yaml:"quantified,omitempty"`
	Guard      [][]RestrictionSpec `yaml:"guard,omitempty"`
	Body       []PortSpec          `yaml:"body"`
}

// Load reads and parses a fixture file from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &flowtrap.Error{Kind: flowtrap.ErrParseError, Message: fmt.Sprintf("reading fixture %q", path), Cause: err}
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &flowtrap.Error{Kind: flowtrap.ErrParseError, Message: fmt.Sprintf("parsing fixture %q", path), Cause: err}
	}
	return &f, nil
}

func restriction(r RestrictionSpec) (flowtrap.AtomicRestriction, error) {
	left := flowtrap.Variable{Name: r.Left}
	switch r.Kind {
	case "equal":
		return flowtrap.NewEqual(left, flowtrap.Variable{Name: r.Right}), nil
	case "unequal":
		return flowtrap.NewUnequal(left, flowtrap.Variable{Name: r.Right}), nil
	case "less":
		return flowtrap.NewLess(left, flowtrap.Variable{Name: r.Right}), nil
	case "lessequal":
		return flowtrap.NewLessEqual(left, flowtrap.Variable{Name: r.Right}), nil
	case "last":
		return flowtrap.NewLast(left), nil
	default:
		return flowtrap.AtomicRestriction{}, &flowtrap.Error{Kind: flowtrap.ErrParseError, Message: fmt.Sprintf("unknown restriction kind %q", r.Kind)}
	}
}

func guard(specs []RestrictionSpec) (flowtrap.Guard, error) {
	atoms := make([]flowtrap.AtomicRestriction, len(specs))
	for i, s := range specs {
		a, err := restriction(s)
		if err != nil {
			return flowtrap.Guard{}, err
		}
		atoms[i] = a
	}
	return flowtrap.NewGuard(atoms...), nil
}

func predicateCollection(kind flowtrap.PredicateCollectionKind, specs []PortSpec) flowtrap.PredicateCollection {
	preds := make([]flowtrap.Predicate, len(specs))
	for i, p := range specs {
		preds[i] = flowtrap.NewPredicate(p.Label, flowtrap.Variable{Name: p.Argument})
	}
	return flowtrap.NewPredicateCollection(kind, preds...)
}

func broadcast(spec BroadcastSpec) (flowtrap.Broadcast, error) {
	conjuncts := make([]flowtrap.Guard, len(spec.Guard))
	for i, c := range spec.Guard {
		g, err := guard(c)
		if err != nil {
			return flowtrap.Broadcast{}, err
		}
		conjuncts[i] = g
	}
	quantified := make([]flowtrap.Variable, len(spec.Quantified))
	for i, q := range spec.Quantified {
		quantified[i] = flowtrap.Variable{Name: q}
	}
	body := predicateCollection(flowtrap.Disjunctive, spec.Body)
	return flowtrap.NewBroadcast(
		flowtrap.Variable{Name: spec.Variable},
		flowtrap.NewDNFGuard(conjuncts...),
		body,
		quantified...,
	), nil
}

func clause(spec ClauseSpec) (flowtrap.Clause, error) {
	g, err := guard(spec.Guard)
	if err != nil {
		return flowtrap.Clause{}, err
	}
	ports := predicateCollection(flowtrap.Conjunctive, spec.Ports)
	broadcasts := make([]flowtrap.Broadcast, len(spec.Broadcasts))
	for i, b := range spec.Broadcasts {
		built, err := broadcast(b)
		if err != nil {
			return flowtrap.Clause{}, err
		}
		broadcasts[i] = built
	}
	return flowtrap.NewClause(g, ports, broadcasts), nil
}

// Build constructs a *flowtrap.Interaction from the parsed fixture,
// performing the same binding and validation NewInteraction always does.
func (f *File) Build() (*flowtrap.Interaction, error) {
	components := make([]flowtrap.Component, len(f.System.Components))
	for i, cs := range f.System.Components {
		transitions := make([]flowtrap.Transition, len(cs.Transitions))
		for j, ts := range cs.Transitions {
			transitions[j] = flowtrap.Transition{Source: ts.Source, Label: ts.Label, Target: ts.Target}
		}
		comp, err := flowtrap.NewComponent(cs.Name, cs.Initial, transitions)
		if err != nil {
			return nil, err
		}
		components[i] = comp
	}
	sys, err := flowtrap.NewSystem(components)
	if err != nil {
		return nil, err
	}

	clauses := make([]flowtrap.Clause, len(f.Clauses))
	for i, cs := range f.Clauses {
		c, err := clause(cs)
		if err != nil {
			return nil, err
		}
		clauses[i] = c
	}

	return flowtrap.NewInteraction(clauses, sys, f.Assumptions, f.Properties)
}
