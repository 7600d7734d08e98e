package flowtrap

// Clause is a guarded multi-party interaction: a conjunctive Guard, a
// conjunctive collection of synchronized Ports, and an ordered list of
// Broadcasts. A clause's guard is always a flat conjunction; a broadcast's
// guard is the one place disjunction (DNF) is allowed.
type Clause struct {
	Guard      Guard
	Ports      PredicateCollection
	Broadcasts []Broadcast

	// Index is the clause's 0-based position in its Interaction's clause
	// list. Predicate names in synthesized output are numbered 1-based
	// from this field, so renumbering the input reorders the output
	// deterministically rather than by hash order.
	Index int
}

// NewClause constructs a Clause. Ports must be conjunctive; a
// disjunctive collection is a caller error and panics, since ports are
// always conjunctive.
func NewClause(guard Guard, ports PredicateCollection, broadcasts []Broadcast) Clause {
	if ports.Kind != Conjunctive {
		panic("flowtrap: clause ports must be a conjunctive PredicateCollection")
	}
	return Clause{Guard: guard, Ports: ports, Broadcasts: broadcasts}
}

// FreeVariables is the union of the ports' variables, the guard's
// variables, and every broadcast's free variables.
func (c Clause) FreeVariables() VariableSet {
	s := NewVariableSet()
	s.AddAll(c.Ports.Variables())
	s.AddAll(c.Guard.Variables())
	for _, b := range c.Broadcasts {
		s.AddAll(b.FreeVariables())
	}
	return s
}

// AllTerms returns every distinct term occurrence reachable from the
// clause's guard, ports, and broadcasts, in first-seen order.
func (c Clause) AllTerms() []Term {
	var terms []Term
	add := func(ts []Term) {
		for _, t := range ts {
			if !containsTerm(terms, t) {
				terms = append(terms, t)
			}
		}
	}
	add(c.Guard.Terms())
	add(c.Ports.Terms())
	for _, b := range c.Broadcasts {
		add(b.Terms())
	}
	return terms
}

// LocalTerms returns the terms with at least one variable, all of which
// are free variables of the clause.
func (c Clause) LocalTerms() []Term {
	free := c.FreeVariables()
	var local []Term
	for _, t := range c.AllTerms() {
		vs := t.Variables()
		if len(vs) == 0 {
			continue
		}
		if isSubsetOf(vs, free) {
			local = append(local, t)
		}
	}
	return local
}

// ConstantTerms returns the terms with no variables.
func (c Clause) ConstantTerms() []Term {
	var consts []Term
	for _, t := range c.AllTerms() {
		if len(t.Variables()) == 0 {
			consts = append(consts, t)
		}
	}
	return consts
}

func isSubsetOf(s, of VariableSet) bool {
	for name := range s {
		if _, ok := of[name]; !ok {
			return false
		}
	}
	return true
}

// AllPorts returns the clause's own ports together with every broadcast's
// body predicates, deduplicated.
func (c Clause) AllPorts() []Predicate {
	var all []Predicate
	seen := func(p Predicate) bool {
		for _, existing := range all {
			if existing.Equal(p) {
				return true
			}
		}
		return false
	}
	for _, p := range c.Ports.Predicates {
		if !seen(p) {
			all = append(all, p)
		}
	}
	for _, b := range c.Broadcasts {
		for _, p := range b.Body.Predicates {
			if !seen(p) {
				all = append(all, p)
			}
		}
	}
	return all
}

// Bind resolves the clause's own ports and every broadcast body predicate
// against sys.
func (c Clause) Bind(sys *System) (Clause, error) {
	ports, err := c.Ports.Bind(sys)
	if err != nil {
		return c, err
	}
	c.Ports = ports
	broadcasts := make([]Broadcast, len(c.Broadcasts))
	for i, b := range c.Broadcasts {
		bound, err := b.Bind(sys)
		if err != nil {
			return c, err
		}
		broadcasts[i] = bound
	}
	c.Broadcasts = broadcasts
	return c, nil
}

func (c Clause) String() string {
	out := c.Guard.String() + "." + " " + c.Ports.String()
	for _, b := range c.Broadcasts {
		out += " with " + b.String()
	}
	return out
}
