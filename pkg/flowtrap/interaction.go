package flowtrap

import "sort"

// ReservedDeadlockProperty is the one property name the driver always
// recognizes even when absent from Interaction.Properties: the
// system-wide deadlock predicate of the predicate synthesizer.
const ReservedDeadlockProperty = "deadlock"

// Interaction is the parsed input to the whole pipeline: clauses, the
// system they synchronize over, and two maps of opaque WS1S fragments
// supplied verbatim by the front-end.
type Interaction struct {
	Clauses     []Clause
	System      *System
	Assumptions map[string]string
	Properties  map[string]string
}

// NewInteraction constructs an Interaction, assigning each clause its
// 0-based Index by position, and binding every clause's ports and
// broadcast bodies against sys.
func NewInteraction(clauses []Clause, sys *System, assumptions, properties map[string]string) (*Interaction, error) {
	if assumptions == nil {
		assumptions = map[string]string{}
	}
	if properties == nil {
		properties = map[string]string{}
	}
	bound := make([]Clause, len(clauses))
	for i, c := range clauses {
		c.Index = i
		b, err := c.Bind(sys)
		if err != nil {
			return nil, err
		}
		bound[i] = b
	}
	for _, c := range bound {
		for _, b := range c.Broadcasts {
			if err := b.Validate(); err != nil {
				return nil, err
			}
			if _, err := b.Component(sys); err != nil {
				return nil, err
			}
		}
	}
	return &Interaction{Clauses: bound, System: sys, Assumptions: assumptions, Properties: properties}, nil
}

// PropertyNames returns the sorted keys of Properties plus the reserved
// name "deadlock".
func (i *Interaction) PropertyNames() []string {
	names := make([]string, 0, len(i.Properties)+1)
	for name := range i.Properties {
		names = append(names, name)
	}
	names = append(names, ReservedDeadlockProperty)
	sort.Strings(names)
	return names
}

// Normalized returns a copy of the interaction with every clause rewritten
// into canonical form by Normalize.
func (i *Interaction) Normalized() (*Interaction, error) {
	clauses := make([]Clause, len(i.Clauses))
	for idx, c := range i.Clauses {
		normalized, err := Normalize(c, i.System)
		if err != nil {
			return nil, err
		}
		normalized.Index = idx
		clauses[idx] = normalized
	}
	return &Interaction{Clauses: clauses, System: i.System, Assumptions: i.Assumptions, Properties: i.Properties}, nil
}
