package atm

import (
	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
)

func (ctx *TypeCtx) glb(t1, t2 Type) Type {
	logger := ctx.sectionLogger("lub")
	var res Type
	switch {
	case ctx.isErasedSubtype(t1, t2):
		res = ctx.glbSubtype(t1, t2)
	case ctx.isErasedSubtype(t2, t1):
		res = ctx.glbSubtype(t2, t1)
	case t1.Kind() == TypevarKind:
		res = deepCopy(t1)
	case t2.Kind() == TypevarKind:
		res = deepCopy(t2)
	default:
		var bounds []Type
		for _, t := range []Type{t1, t2} {
			if isect, ok := t.(*IntersectionType); ok {
				bounds = append(bounds, copyAll(isect.bounds)...)
			} else {
				bounds = append(bounds, deepCopy(t))
			}
		}
		isect := &IntersectionType{bounds: bounds}
		lowers := make([]qualifier.Qualifier, 0, ctx.h.Width())
		for _, top := range ctx.h.Tops() {
			q1, ok1 := ctx.findEffectiveQualifierInHierarchy(t1, top)
			q2, ok2 := ctx.findEffectiveQualifierInHierarchy(t2, top)
			if ok1 && ok2 {
				lowers = append(lowers, ctx.glbQualifier(q1, q2))
			}
		}
		isect.replaceQualifiers(lowers)
		res = isect
	}
	logger.Debug("glb", "t1", Slog(t1), "t2", Slog(t2), "result", Slog(res))
	return res
}

// glbSubtype is the glb of sub and super when sub's underlying type is a
// subtype of super's: sub with qualifiers lowered to those of super
func (ctx *TypeCtx) glbSubtype(sub, super Type) Type {
	res := deepCopy(sub)
	res.annotations().clearQualifiers()
	for _, top := range ctx.h.Tops() {
		subQ, subOk := sub.QualifierInHierarchy(top)
		superQ, superOk := super.QualifierInHierarchy(top)
		switch {
		case subOk && superOk:
			res.annotations().replaceQualifier(ctx.glbQualifier(subQ, superQ))
		case subOk:
			res.annotations().replaceQualifier(subQ)
		case !superOk:
			if sub.Kind() != TypevarKind || super.Kind() != TypevarKind {
				qerr.Bugf(qerr.EmptyQualifiers, "glb: neither %v nor %v has a qualifier in hierarchy %v", sub, super, top)
			}
		default:
			if sub.Kind() != TypevarKind {
				qerr.Bugf(qerr.EmptyQualifiers, "glb: %v has no qualifier in hierarchy %v", sub, top)
			}
			// keep the bounds of sub unless its lower bound is not below superQ
			lower, ok := qualifier.FindInHierarchy(ctx.h, ctx.effectiveLowerBoundQualifiers(sub), top)
			if ok && !ctx.isSubtype(lower, superQ) {
				res.annotations().replaceQualifier(superQ)
			}
		}
	}
	return res
}
