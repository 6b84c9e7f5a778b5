package atm

import (
	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
)

// effectiveQualifierInHierarchy walks upper bounds until it finds a type
// with a qualifier in top's hierarchy
func (ctx *TypeCtx) effectiveQualifierInHierarchy(t Type, top qualifier.Qualifier) qualifier.Qualifier {
	q, ok := ctx.findEffectiveQualifierInHierarchy(t, top)
	if !ok {
		qerr.Bugf(qerr.EmptyQualifiers, "%v has no effective qualifier in hierarchy %v", t, top)
	}
	return q
}

func (ctx *TypeCtx) findEffectiveQualifierInHierarchy(t Type, top qualifier.Qualifier) (qualifier.Qualifier, bool) {
	source := t
	for {
		if q, ok := source.QualifierInHierarchy(top); ok {
			return q, true
		}
		switch s := source.(type) {
		case *TypeVariable:
			source = s.UpperBound()
		case *WildcardType:
			source = s.extends
		case *IntersectionType:
			return ctx.glbOfBoundsInHierarchy(s, top)
		default:
			return qualifier.Absent, false
		}
	}
}

func (ctx *TypeCtx) effectiveQualifiers(t Type) []qualifier.Qualifier {
	var res []qualifier.Qualifier
	for _, top := range ctx.h.Tops() {
		if q, ok := ctx.findEffectiveQualifierInHierarchy(t, top); ok {
			res = append(res, q)
		}
	}
	return res
}

// effectiveLowerBoundQualifiers walks lower bounds down to the first
// type with a qualifier in each hierarchy. A primary qualifier on a type
// variable or wildcard stands for both of its bounds.
func (ctx *TypeCtx) effectiveLowerBoundQualifiers(t Type) []qualifier.Qualifier {
	var res []qualifier.Qualifier
	for _, top := range ctx.h.Tops() {
		if q, ok := ctx.findEffectiveLowerBoundInHierarchy(t, top); ok {
			res = append(res, q)
		}
	}
	return res
}

func (ctx *TypeCtx) findEffectiveLowerBoundInHierarchy(t Type, top qualifier.Qualifier) (qualifier.Qualifier, bool) {
	source := t
	for {
		if q, ok := source.QualifierInHierarchy(top); ok {
			return q, true
		}
		switch s := source.(type) {
		case *TypeVariable:
			source = s.LowerBound()
		case *WildcardType:
			source = s.super
		case *IntersectionType:
			return ctx.glbOfBoundsInHierarchy(s, top)
		default:
			return qualifier.Absent, false
		}
	}
}

func (ctx *TypeCtx) glbOfBounds(isect *IntersectionType) []qualifier.Qualifier {
	var res []qualifier.Qualifier
	for _, top := range ctx.h.Tops() {
		if q, ok := ctx.glbOfBoundsInHierarchy(isect, top); ok {
			res = append(res, q)
		}
	}
	return res
}

// glbOfBoundsInHierarchy is the lowest of the qualifiers of isect and its
// bounds in top's hierarchy
func (ctx *TypeCtx) glbOfBoundsInHierarchy(isect *IntersectionType, top qualifier.Qualifier) (qualifier.Qualifier, bool) {
	q, found := isect.QualifierInHierarchy(top)
	for _, bound := range isect.bounds {
		boundQ, ok := ctx.findEffectiveQualifierInHierarchy(bound, top)
		if ok && (!found || ctx.isSubtype(boundQ, q)) {
			q, found = boundQ, true
		}
	}
	return q, found
}
