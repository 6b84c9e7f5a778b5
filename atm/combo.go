package atm

import (
	"fmt"

	"github.com/cottand/qualis/qerr"
)

// Combo names an ordered pair of TypeKinds, which is what the binary
// type operations dispatch on
type Combo uint8

const (
	ArrayArray Combo = iota
	ArrayDeclared
	ArrayExecutable
	ArrayIntersection
	ArrayNone
	ArrayNull
	ArrayPrimitive
	ArrayUnion
	ArrayTypevar
	ArrayWildcard

	DeclaredArray
	DeclaredDeclared
	DeclaredExecutable
	DeclaredIntersection
	DeclaredNone
	DeclaredNull
	DeclaredPrimitive
	DeclaredUnion
	DeclaredTypevar
	DeclaredWildcard

	ExecutableArray
	ExecutableDeclared
	ExecutableExecutable
	ExecutableIntersection
	ExecutableNone
	ExecutableNull
	ExecutablePrimitive
	ExecutableUnion
	ExecutableTypevar
	ExecutableWildcard

	IntersectionArray
	IntersectionDeclared
	IntersectionExecutable
	IntersectionIntersection
	IntersectionNone
	IntersectionNull
	IntersectionPrimitive
	IntersectionUnion
	IntersectionTypevar
	IntersectionWildcard

	NoneArray
	NoneDeclared
	NoneExecutable
	NoneIntersection
	NoneNone
	NoneNull
	NonePrimitive
	NoneUnion
	NoneTypevar
	NoneWildcard

	NullArray
	NullDeclared
	NullExecutable
	NullIntersection
	NullNone
	NullNull
	NullPrimitive
	NullUnion
	NullTypevar
	NullWildcard

	PrimitiveArray
	PrimitiveDeclared
	PrimitiveExecutable
	PrimitiveIntersection
	PrimitiveNone
	PrimitiveNull
	PrimitivePrimitive
	PrimitiveUnion
	PrimitiveTypevar
	PrimitiveWildcard

	UnionArray
	UnionDeclared
	UnionExecutable
	UnionIntersection
	UnionNone
	UnionNull
	UnionPrimitive
	UnionUnion
	UnionTypevar
	UnionWildcard

	TypevarArray
	TypevarDeclared
	TypevarExecutable
	TypevarIntersection
	TypevarNone
	TypevarNull
	TypevarPrimitive
	TypevarUnion
	TypevarTypevar
	TypevarWildcard

	WildcardArray
	WildcardDeclared
	WildcardExecutable
	WildcardIntersection
	WildcardNone
	WildcardNull
	WildcardPrimitive
	WildcardUnion
	WildcardTypevar
	WildcardWildcard

	numCombos = int(iota)
)

// comboTable is indexed by the kinds of both types of a pair
var comboTable [numTypeKinds][numTypeKinds]Combo

func init() {
	for fst := range numTypeKinds {
		for snd := range numTypeKinds {
			comboTable[fst][snd] = Combo(fst*numTypeKinds + snd)
		}
	}
}

// ComboOf is the Combo of the kinds of t1 and t2
func ComboOf(t1, t2 Type) Combo {
	return ComboOfKinds(t1.Kind(), t2.Kind())
}

func ComboOfKinds(k1, k2 TypeKind) Combo {
	if int(k1) >= numTypeKinds || int(k2) >= numTypeKinds {
		qerr.Bugf(qerr.UnhandledCombo, "no combo for kinds %v and %v", k1, k2)
	}
	return comboTable[k1][k2]
}

// Kinds is the pair of kinds c stands for
func (c Combo) Kinds() (TypeKind, TypeKind) {
	return TypeKind(int(c) / numTypeKinds), TypeKind(int(c) % numTypeKinds)
}

func (c Combo) String() string {
	if int(c) >= numCombos {
		return fmt.Sprintf("Combo(%d)", c)
	}
	k1, k2 := c.Kinds()
	return k1.String() + "_" + k2.String()
}

// ComboHandler handles a pair of types of a specific Combo
type ComboHandler[P, R any] func(t1, t2 Type, p P) R

// ComboVisitor dispatches pairs of types to the handler registered for
// their Combo. P is passed through unchanged to handlers, and R is
// whatever they return. Pairs without a handler go to the fallback,
// which by default panics with a qerr.Bug naming the combo.
type ComboVisitor[P, R any] struct {
	name     string
	handlers [numCombos]ComboHandler[P, R]
	fallback func(combo Combo, t1, t2 Type, p P) R
}

func NewComboVisitor[P, R any](name string) *ComboVisitor[P, R] {
	return &ComboVisitor[P, R]{name: name}
}

// On registers h for every combo in combos
func (v *ComboVisitor[P, R]) On(h ComboHandler[P, R], combos ...Combo) *ComboVisitor[P, R] {
	for _, c := range combos {
		v.handlers[c] = h
	}
	return v
}

// Otherwise sets the handler for combos without one
func (v *ComboVisitor[P, R]) Otherwise(fallback func(combo Combo, t1, t2 Type, p P) R) *ComboVisitor[P, R] {
	v.fallback = fallback
	return v
}

// Handles reports whether a handler is registered for c
func (v *ComboVisitor[P, R]) Handles(c Combo) bool {
	return v.handlers[c] != nil
}

func (v *ComboVisitor[P, R]) Visit(t1, t2 Type, p P) R {
	combo := ComboOf(t1, t2)
	if h := v.handlers[combo]; h != nil {
		return h(t1, t2, p)
	}
	if v.fallback != nil {
		return v.fallback(combo, t1, t2, p)
	}
	qerr.Bugf(qerr.UnhandledCombo, "%s: unexpected combination %v of %v and %v", v.name, combo, t1, t2)
	panic("unreachable")
}
