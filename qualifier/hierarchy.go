package qualifier

import (
	"slices"

	"github.com/cottand/qualis/lattice"
	"github.com/cottand/qualis/qerr"
)

// Hierarchy answers subtyping, LUB and GLB questions about qualifier
// instances, delegating kind arithmetic to a lattice.KindHierarchy.
//
// Lub and Glb return false when both qualifiers are not in the same hierarchy.
type Hierarchy interface {
	Kinds() *lattice.KindHierarchy
	// Width is the number of hierarchies, so the number of qualifiers a fully annotated type carries
	Width() int
	Tops() []Qualifier
	Bottoms() []Qualifier
	// Top is the top of the hierarchy q belongs to
	Top(q Qualifier) Qualifier
	Bottom(q Qualifier) Qualifier
	// Polymorphic returns the polymorphic qualifier of top's hierarchy, if any
	Polymorphic(top Qualifier) (Qualifier, bool)
	IsPolymorphic(q Qualifier) bool
	IsSubtype(sub, super Qualifier) bool
	Lub(q1, q2 Qualifier) (Qualifier, bool)
	Glb(q1, q2 Qualifier) (Qualifier, bool)
	// ByName returns the payload-free instance of the named qualifier
	ByName(name string) (Qualifier, bool)
}

// PayloadOps defines how qualifiers with payload compare and combine,
// for use with Mixed. The lattice has already checked the kinds when
// these are called.
type PayloadOps interface {
	// IsSubtype is called when sub's kind is a subtype of super's kind and both have payload
	IsSubtype(sub, super Qualifier) bool
	// Lub is called when the lub of both kinds, lubKind, has payload
	Lub(q1, q2 Qualifier, lubKind *lattice.Kind) Qualifier
	// Glb is called when the glb of both kinds, glbKind, has payload
	Glb(q1, q2 Qualifier, glbKind *lattice.Kind) Qualifier
	// Instance is the qualifier that stands for a payload kind on its
	// own, like when the kind is the top of its hierarchy
	Instance(kind *lattice.Kind) Qualifier
}

type kindHierarchy struct {
	kinds   *lattice.KindHierarchy
	ops     PayloadOps
	tops    []Qualifier
	bottoms []Qualifier
}

func newKindHierarchy(kinds *lattice.KindHierarchy, ops PayloadOps) kindHierarchy {
	h := kindHierarchy{kinds: kinds, ops: ops}
	for _, top := range kinds.Tops() {
		h.tops = append(h.tops, h.instance(top))
	}
	for _, top := range kinds.Tops() {
		h.bottoms = append(h.bottoms, h.instance(top.Bottom()))
	}
	return h
}

func (h *kindHierarchy) instance(kind *lattice.Kind) Qualifier {
	if kind.HasPayload() && h.ops != nil {
		return h.ops.Instance(kind)
	}
	return New(kind)
}

func (h *kindHierarchy) Kinds() *lattice.KindHierarchy { return h.kinds }
func (h *kindHierarchy) Width() int                    { return len(h.tops) }
func (h *kindHierarchy) Tops() []Qualifier             { return slices.Clone(h.tops) }
func (h *kindHierarchy) Bottoms() []Qualifier          { return slices.Clone(h.bottoms) }

func (h *kindHierarchy) kindOf(q Qualifier) *lattice.Kind {
	if q.IsAbsent() {
		qerr.Bugf(qerr.EmptyQualifiers, "absent qualifier where a concrete one was expected")
	}
	return q.kind
}

func (h *kindHierarchy) Top(q Qualifier) Qualifier {
	return h.instance(h.kindOf(q).Top())
}

func (h *kindHierarchy) Bottom(q Qualifier) Qualifier {
	return h.instance(h.kindOf(q).Bottom())
}

func (h *kindHierarchy) Polymorphic(top Qualifier) (Qualifier, bool) {
	poly, ok := h.kinds.TopToPoly()[h.kindOf(top)]
	if !ok {
		return Absent, false
	}
	return h.instance(poly), true
}

func (h *kindHierarchy) IsPolymorphic(q Qualifier) bool {
	return h.kindOf(q).IsPoly()
}

func (h *kindHierarchy) ByName(name string) (Qualifier, bool) {
	kind := h.kinds.KindByName(name)
	if kind == nil {
		return Absent, false
	}
	return h.instance(kind), true
}

func (h *kindHierarchy) IsSubtype(sub, super Qualifier) bool {
	subKind, superKind := h.kindOf(sub), h.kindOf(super)
	if !subKind.IsSubtypeOf(superKind) {
		return false
	}
	if h.ops != nil && subKind.HasPayload() && superKind.HasPayload() {
		return h.ops.IsSubtype(sub, super)
	}
	return true
}

func (h *kindHierarchy) Lub(q1, q2 Qualifier) (Qualifier, bool) {
	lub, ok := h.kinds.Lub(h.kindOf(q1), h.kindOf(q2))
	if !ok {
		return Absent, false
	}
	if h.ops != nil && lub.HasPayload() {
		return h.ops.Lub(q1, q2, lub), true
	}
	return New(lub), true
}

func (h *kindHierarchy) Glb(q1, q2 Qualifier) (Qualifier, bool) {
	glb, ok := h.kinds.Glb(h.kindOf(q1), h.kindOf(q2))
	if !ok {
		return Absent, false
	}
	if h.ops != nil && glb.HasPayload() {
		return h.ops.Glb(q1, q2, glb), true
	}
	return New(glb), true
}

// NoPayload maps every qualifier instance to its kind. Payload
// arguments, if present, are ignored.
type NoPayload struct {
	kindHierarchy
}

func NewNoPayload(kinds *lattice.KindHierarchy) *NoPayload {
	return &NoPayload{kindHierarchy: newKindHierarchy(kinds, nil)}
}

// Mixed uses kind arithmetic for qualifiers without payload and
// defers to a PayloadOps for those with payload.
type Mixed struct {
	kindHierarchy
}

func NewMixed(kinds *lattice.KindHierarchy, ops PayloadOps) *Mixed {
	return &Mixed{kindHierarchy: newKindHierarchy(kinds, ops)}
}

// ElementFree is a NoPayload hierarchy that refuses kinds with payload
type ElementFree struct {
	NoPayload
}

// NewElementFree returns a qerr.TypeSystemError if any kind has payload
func NewElementFree(kinds *lattice.KindHierarchy) (*ElementFree, error) {
	for _, kind := range kinds.Kinds() {
		if kind.HasPayload() {
			return nil, qerr.NewTypeSystem(qerr.PayloadNotAllowed,
				"qualifier %s has payload, which this hierarchy does not support", kind)
		}
	}
	return &ElementFree{NoPayload: *NewNoPayload(kinds)}, nil
}

// WidenedUpperBound is the qualifier a loop-carried value widens to.
// Without a type-system-specific widening it is the lub.
func WidenedUpperBound(h Hierarchy, newQualifier, previous Qualifier) (Qualifier, error) {
	lub, ok := h.Lub(newQualifier, previous)
	if !ok {
		return Absent, qerr.NewBug(qerr.Unrelated, "cannot widen %s and %s: they are in different hierarchies", newQualifier, previous)
	}
	return lub, nil
}

var (
	_ Hierarchy = &NoPayload{}
	_ Hierarchy = &Mixed{}
	_ Hierarchy = &ElementFree{}
)
