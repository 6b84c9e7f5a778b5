package lattice

import (
	"cmp"
	"slices"
	"strings"

	"github.com/cottand/qualis/qerr"
	"github.com/hashicorp/go-set/v3"
)

// Def is a qualifier definition as supplied by the embedding type system.
//
// Exactly one of Top, SubtypeOf or Polymorphic declares where the
// qualifier sits in its hierarchy.
type Def struct {
	Name string
	// HasPayload is true for qualifiers whose instances carry arguments,
	// like MinLen(3)
	HasPayload bool
	// Top declares a qualifier with no supertypes
	Top       bool
	SubtypeOf []string

	Polymorphic bool
	// PolymorphicTop names the top of the hierarchy a polymorphic qualifier
	// belongs to. It may be empty when the system has a single top.
	PolymorphicTop string
}

func (d Def) declaresSupertypes() bool {
	return d.Top || len(d.SubtypeOf) > 0
}

// Kind is the position of one qualifier definition in its hierarchy.
// Kinds are created and fully initialised by NewKindHierarchy, and
// are read-only afterwards. Kinds are compared by identity.
type Kind struct {
	name       string
	hasPayload bool
	isPoly     bool

	// the fields below are only valid once initialised is true
	top          *Kind
	bottom       *Kind
	poly         *Kind
	strictSupers *set.Set[*Kind]
	initialised  bool
}

func (k *Kind) String() string {
	return k.name
}

func (k *Kind) Name() string     { return k.name }
func (k *Kind) HasPayload() bool { return k.hasPayload }
func (k *Kind) IsPoly() bool     { return k.isPoly }

func (k *Kind) checkInitialised() {
	if !k.initialised {
		qerr.Bugf(qerr.Uninitialized, "qualifier kind %s queried before its hierarchy was built", k.name)
	}
}

// Top is the top of the hierarchy k belongs to
func (k *Kind) Top() *Kind {
	k.checkInitialised()
	return k.top
}

// Bottom is the bottom of the hierarchy k belongs to
func (k *Kind) Bottom() *Kind {
	k.checkInitialised()
	return k.bottom
}

// Poly is the polymorphic kind of the hierarchy k belongs to, or nil
// if the hierarchy has none
func (k *Kind) Poly() *Kind {
	k.checkInitialised()
	return k.poly
}

func (k *Kind) IsTop() bool {
	return k.Top() == k
}

func (k *Kind) IsBottom() bool {
	return k.Bottom() == k
}

// StrictSuperTypes returns every kind k is a strict subtype of, sorted by name
func (k *Kind) StrictSuperTypes() []*Kind {
	k.checkInitialised()
	return sortedKinds(k.strictSupers.Slice())
}

// IsSubtypeOf is reflexive
func (k *Kind) IsSubtypeOf(super *Kind) bool {
	k.checkInitialised()
	return k.isSubtypeOf(super)
}

func (k *Kind) isSubtypeOf(super *Kind) bool {
	return k == super || k.strictSupers.Contains(super)
}

func (k *Kind) IsInSameHierarchyAs(other *Kind) bool {
	return k.Top() == other.Top()
}

func compareKinds(a, b *Kind) int {
	return strings.Compare(a.name, b.name)
}

func sortedKinds(kinds []*Kind) []*Kind {
	slices.SortFunc(kinds, compareKinds)
	return kinds
}

// kindsByName implements sort.Interface for xtgo/set
type kindsByName []*Kind

func (s kindsByName) Len() int           { return len(s) }
func (s kindsByName) Less(i, j int) bool { return cmp.Less(s[i].name, s[j].name) }
func (s kindsByName) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
