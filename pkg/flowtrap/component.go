package flowtrap

import "sort"

// Transition is a single labeled edge of a Component.
type Transition struct {
	Source string
	Label  string
	Target string
}

// Component is a finite-state machine with labeled, uniquely-named
// transitions. States are namespaced by component: two
// components may reuse the same state name without conflict, but labels
// must be unique within a component.
type Component struct {
	Name         string
	InitialState string
	Transitions  []Transition

	byLabel map[string]Transition
	states  []string
	labels  []string
}

// NewComponent validates and constructs a Component. It fails with
// ErrLabelReused if two transitions share a label, and with
// ErrMissingInitialTransition if InitialState is not the source of any
// transition — mirroring original_source/system.py's Component
// __post_init__ validation.
func NewComponent(name, initialState string, transitions []Transition) (Component, error) {
	byLabel := make(map[string]Transition, len(transitions))
	stateSet := map[string]struct{}{}
	foundInitial := false
	for _, t := range transitions {
		if _, dup := byLabel[t.Label]; dup {
			return Component{}, newError(ErrLabelReused, "component %q: label %q used by more than one transition", name, t.Label)
		}
		byLabel[t.Label] = t
		stateSet[t.Source] = struct{}{}
		stateSet[t.Target] = struct{}{}
		if t.Source == initialState {
			foundInitial = true
		}
	}
	if !foundInitial {
		return Component{}, newError(ErrMissingInitialTransition, "component %q: initial state %q has no outgoing transition", name, initialState)
	}
	states := make([]string, 0, len(stateSet))
	for s := range stateSet {
		states = append(states, s)
	}
	sort.Strings(states)
	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return Component{
		Name:         name,
		InitialState: initialState,
		Transitions:  transitions,
		byLabel:      byLabel,
		states:       states,
		labels:       labels,
	}, nil
}

// States returns the component's states in sorted order.
func (c Component) States() []string { return append([]string{}, c.states...) }

// Labels returns the component's labels in sorted order.
func (c Component) Labels() []string { return append([]string{}, c.labels...) }

// EdgeWithLabel returns the (source, target) pair for label, or ok=false
// if the component has no transition with that label.
func (c Component) EdgeWithLabel(label string) (source, target string, ok bool) {
	t, found := c.byLabel[label]
	if !found {
		return "", "", false
	}
	return t.Source, t.Target, true
}

// System is an ordered set of components whose transition labels are
// globally disjoint.
type System struct {
	Components []Component

	componentOf map[string]int // label -> index into Components
}

// NewSystem validates and constructs a System. It fails with
// ErrNotDisjointLabels if two components share a label.
func NewSystem(components []Component) (*System, error) {
	componentOf := make(map[string]int)
	total := 0
	for i, c := range components {
		for _, l := range c.Labels() {
			if _, dup := componentOf[l]; dup {
				return nil, newError(ErrNotDisjointLabels, "label %q is used by more than one component", l)
			}
			componentOf[l] = i
			total++
		}
	}
	return &System{Components: components, componentOf: componentOf}, nil
}

// EdgeWithLabel returns the (source, target) pair for label across every
// component of the system.
func (s *System) EdgeWithLabel(label string) (source, target string, ok bool) {
	idx, found := s.componentOf[label]
	if !found {
		return "", "", false
	}
	return s.Components[idx].EdgeWithLabel(label)
}

// OriginOfLabel returns the source state of label's edge.
func (s *System) OriginOfLabel(label string) (string, bool) {
	source, _, ok := s.EdgeWithLabel(label)
	return source, ok
}

// TargetOfLabel returns the target state of label's edge.
func (s *System) TargetOfLabel(label string) (string, bool) {
	_, target, ok := s.EdgeWithLabel(label)
	return target, ok
}

// ComponentOfLabel returns the component owning label.
func (s *System) ComponentOfLabel(label string) (Component, bool) {
	idx, found := s.componentOf[label]
	if !found {
		return Component{}, false
	}
	return s.Components[idx], true
}

// States returns the union of every component's states, sorted.
func (s *System) States() []string {
	set := map[string]struct{}{}
	for _, c := range s.Components {
		for _, st := range c.States() {
			set[st] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for st := range set {
		out = append(out, st)
	}
	sort.Strings(out)
	return out
}
