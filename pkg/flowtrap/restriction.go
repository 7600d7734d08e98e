package flowtrap

import (
	"fmt"
	"sort"
	"strings"
)

// RestrictionKind tags the shape of an AtomicRestriction.
type RestrictionKind int

const (
	// Equal holds iff Left and Right denote the same index.
	Equal RestrictionKind = iota
	// Unequal holds iff Left and Right denote different indices.
	Unequal
	// Less holds iff Left's index precedes Right's.
	Less
	// LessEqual holds iff Left's index does not exceed Right's.
	LessEqual
	// IsNext holds iff Right is the immediate successor of Left.
	IsNext
	// Last holds iff Left is the maximal index of the model.
	Last
)

func (k RestrictionKind) symbol() string {
	switch k {
	case Equal:
		return "="
	case Unequal:
		return "~="
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case IsNext:
		return "isnext"
	case Last:
		return "last"
	default:
		return "?"
	}
}

// AtomicRestriction is one atomic member of a guard: Equal, Unequal, Less,
// LessEqual, IsNext or Last over Term operands. Equal and Unequal are
// symmetric: their equality and hash treat (a,b) and (b,a) as identical,
// achieved by canonicalizing operand order at construction.
type AtomicRestriction struct {
	Kind  RestrictionKind
	Left  Term
	Right Term // unused (nil) for Last
}

func symmetric(k RestrictionKind) bool { return k == Equal || k == Unequal }

func newComparison(kind RestrictionKind, left, right Term) AtomicRestriction {
	if symmetric(kind) && left.String() > right.String() {
		left, right = right, left
	}
	return AtomicRestriction{Kind: kind, Left: left, Right: right}
}

// NewEqual builds a symmetric Equal(left, right) restriction.
func NewEqual(left, right Term) AtomicRestriction { return newComparison(Equal, left, right) }

// NewUnequal builds a symmetric Unequal(left, right) restriction.
func NewUnequal(left, right Term) AtomicRestriction { return newComparison(Unequal, left, right) }

// NewLess builds a Less(left, right) restriction.
func NewLess(left, right Term) AtomicRestriction { return newComparison(Less, left, right) }

// NewLessEqual builds a LessEqual(left, right) restriction.
func NewLessEqual(left, right Term) AtomicRestriction { return newComparison(LessEqual, left, right) }

// NewIsNext builds an IsNext(left, right) restriction: right is the
// immediate successor of left.
func NewIsNext(left, right Term) AtomicRestriction { return newComparison(IsNext, left, right) }

// NewLast builds a Last(argument) restriction.
func NewLast(argument Term) AtomicRestriction {
	return AtomicRestriction{Kind: Last, Left: argument}
}

func (r AtomicRestriction) String() string {
	if r.Kind == Last {
		return fmt.Sprintf("last(%s)", r.Left)
	}
	return fmt.Sprintf("%s %s %s", r.Left, r.Kind.symbol(), r.Right)
}

// EqualTo reports structural equality, respecting the symmetric canonical
// ordering already applied at construction for Equal/Unequal.
func (r AtomicRestriction) EqualTo(other AtomicRestriction) bool {
	if r.Kind != other.Kind {
		return false
	}
	if r.Kind == Last {
		return r.Left.Equal(other.Left)
	}
	return r.Left.Equal(other.Left) && r.Right.Equal(other.Right)
}

// Variables returns the variables occurring in the restriction.
func (r AtomicRestriction) Variables() VariableSet {
	s := r.Left.Variables()
	if r.Kind != Last {
		s.AddAll(r.Right.Variables())
	}
	return s
}

// Terms returns the distinct term occurrences of the restriction, in
// left-then-right order, deduplicated.
func (r AtomicRestriction) Terms() []Term {
	if r.Kind == Last {
		return []Term{r.Left}
	}
	if r.Left.Equal(r.Right) {
		return []Term{r.Left}
	}
	return []Term{r.Left, r.Right}
}

// Rename applies a total Variable->Variable substitution to every operand,
// preserving symmetric canonicalization where applicable.
func (r AtomicRestriction) Rename(s Substitution) AtomicRestriction {
	renamed := renameTerm(r.Left, s)
	if r.Kind == Last {
		return NewLast(renamed)
	}
	return newComparison(r.Kind, renamed, renameTerm(r.Right, s))
}

// renameTerm applies a Variable->Variable substitution through a term tree.
func renameTerm(t Term, s Substitution) Term {
	switch v := t.(type) {
	case Variable:
		return s.Apply(v)
	case Constant:
		return v
	case Successor:
		return Successor{Argument: renameTerm(v.Argument, s)}
	default:
		return t
	}
}

// Guard is a conjunctive clause of atomic restrictions: a set, but
// represented as a slice deduplicated and kept sorted by String so that
// every consumer observes a stable, deterministic order.
type Guard struct {
	atoms []AtomicRestriction
}

// NewGuard builds a Guard from a (possibly unsorted, possibly duplicate)
// list of atomic restrictions.
func NewGuard(atoms ...AtomicRestriction) Guard {
	g := Guard{}
	for _, a := range atoms {
		g.add(a)
	}
	return g
}

func (g *Guard) add(a AtomicRestriction) {
	for _, existing := range g.atoms {
		if existing.EqualTo(a) {
			return
		}
	}
	g.atoms = append(g.atoms, a)
	sort.Slice(g.atoms, func(i, j int) bool {
		return g.atoms[i].String() < g.atoms[j].String()
	})
}

// With returns a new Guard extended with the given atomic restrictions.
func (g Guard) With(atoms ...AtomicRestriction) Guard {
	result := NewGuard(g.atoms...)
	for _, a := range atoms {
		result.add(a)
	}
	return result
}

// Atoms returns the guard's atomic restrictions in deterministic order.
func (g Guard) Atoms() []AtomicRestriction { return append([]AtomicRestriction{}, g.atoms...) }

// Contains reports whether the guard already contains an atom structurally
// equal to a.
func (g Guard) Contains(a AtomicRestriction) bool {
	for _, existing := range g.atoms {
		if existing.EqualTo(a) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the guard has no atoms (i.e. is trivially true).
func (g Guard) IsEmpty() bool { return len(g.atoms) == 0 }

// Variables returns the union of variables across all atoms.
func (g Guard) Variables() VariableSet {
	s := NewVariableSet()
	for _, a := range g.atoms {
		s.AddAll(a.Variables())
	}
	return s
}

// Terms returns the distinct term occurrences across all atoms, in
// first-seen order.
func (g Guard) Terms() []Term {
	var terms []Term
	for _, a := range g.atoms {
		for _, t := range a.Terms() {
			if !containsTerm(terms, t) {
				terms = append(terms, t)
			}
		}
	}
	return terms
}

func containsTerm(terms []Term, t Term) bool {
	for _, existing := range terms {
		if existing.Equal(t) {
			return true
		}
	}
	return false
}

// Rename applies a substitution to every atom.
func (g Guard) Rename(s Substitution) Guard {
	result := Guard{}
	for _, a := range g.atoms {
		result.add(a.Rename(s))
	}
	return result
}

func (g Guard) String() string {
	if g.IsEmpty() {
		return "true"
	}
	parts := make([]string, len(g.atoms))
	for i, a := range g.atoms {
		parts[i] = a.String()
	}
	return strings.Join(parts, " & ")
}

// DNFGuard is a disjunction of conjunctive Guards — the DNF shape required
// of every Broadcast guard, chosen because a broadcast's guard is evaluated
// once per receiving participant and disjuncts let each participant satisfy
// the guard through a different case.
type DNFGuard struct {
	conjuncts []Guard
}

// NewDNFGuard builds a DNFGuard from its disjuncts.
func NewDNFGuard(conjuncts ...Guard) DNFGuard {
	return DNFGuard{conjuncts: append([]Guard{}, conjuncts...)}
}

// Conjuncts returns the guard's disjuncts in the order supplied.
func (d DNFGuard) Conjuncts() []Guard { return append([]Guard{}, d.conjuncts...) }

// WithEachExtended returns a new DNFGuard in which every disjunct has been
// extended with the given atoms — used by shadow-avoidance, which adds the
// missing inequalities to every conjunct once any one of them is found
// missing them.
func (d DNFGuard) WithEachExtended(atoms ...AtomicRestriction) DNFGuard {
	result := make([]Guard, len(d.conjuncts))
	for i, c := range d.conjuncts {
		result[i] = c.With(atoms...)
	}
	return DNFGuard{conjuncts: result}
}

// Variables returns the union of variables across every disjunct.
func (d DNFGuard) Variables() VariableSet {
	s := NewVariableSet()
	for _, c := range d.conjuncts {
		s.AddAll(c.Variables())
	}
	return s
}

// Terms returns the distinct term occurrences across every disjunct, in
// first-seen order.
func (d DNFGuard) Terms() []Term {
	var terms []Term
	for _, c := range d.conjuncts {
		for _, t := range c.Terms() {
			if !containsTerm(terms, t) {
				terms = append(terms, t)
			}
		}
	}
	return terms
}

// Rename applies a substitution to every conjunct.
func (d DNFGuard) Rename(s Substitution) DNFGuard {
	result := make([]Guard, len(d.conjuncts))
	for i, c := range d.conjuncts {
		result[i] = c.Rename(s)
	}
	return DNFGuard{conjuncts: result}
}

func (d DNFGuard) String() string {
	parts := make([]string, len(d.conjuncts))
	for i, c := range d.conjuncts {
		parts[i] = fmt.Sprintf("(%s)", c)
	}
	return strings.Join(parts, " | ")
}
