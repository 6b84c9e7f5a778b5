package systems

import (
	"github.com/cottand/qualis/atm"
	"github.com/cottand/qualis/lattice"
	"github.com/cottand/qualis/qualifier"
)

// ResolvePolymorphic replaces, in member, every polymorphic qualifier by
// the receiver's effective qualifier in the same hierarchy. Hierarchies
// in which the receiver has no qualifier are left alone.
func ResolvePolymorphic(ctx *atm.TypeCtx, member, receiver atm.Type) atm.Type {
	h := ctx.Hierarchy()
	resolved := map[*lattice.Kind]qualifier.Qualifier{}
	for _, top := range h.Tops() {
		poly, ok := h.Polymorphic(top)
		if !ok {
			continue
		}
		q, err := ctx.EffectiveQualifierInHierarchy(receiver, top)
		if err != nil {
			continue
		}
		resolved[poly.Kind()] = q
	}
	if len(resolved) == 0 {
		return member
	}
	return atm.MapQualifiers(member, func(q qualifier.Qualifier) qualifier.Qualifier {
		if to, ok := resolved[q.Kind()]; ok {
			return to
		}
		return q
	})
}
