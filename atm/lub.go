package atm

import (
	"log/slog"
	"slices"

	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
)

// lubVisitor fills in the qualifiers of a lub shape. It is created per
// lub computation.
type lubVisitor struct {
	ctx    *TypeCtx
	logger *slog.Logger
	// visited holds the type variables and wildcards of the lub shape
	// whose bounds have been computed
	visited []Type
}

// lubStep is the lub under construction for one pair of types
type lubStep struct {
	v   *lubVisitor
	lub Type
}

var lubCombos *ComboVisitor[lubStep, struct{}]

func init() {
	lubCombos = NewComboVisitor[lubStep, struct{}]("lub").
		On(lubArrayArray, ArrayArray).
		On(lubDeclaredDeclared, DeclaredDeclared).
		On(lubIntersectionIntersection, IntersectionIntersection).
		On(lubPrimaryOnly, NullNull, PrimitivePrimitive).
		On(lubTypevarTypevar, TypevarTypevar).
		On(lubUnionUnion, UnionUnion).
		On(lubWildcardWildcard, WildcardWildcard)
}

func (ctx *TypeCtx) lub(t1, t2, shape Type) Type {
	lub := stripQualifiers(shape)
	v := &lubVisitor{ctx: ctx, logger: ctx.sectionLogger("lub")}
	var res Type
	switch {
	case t1.Kind() == NullKind:
		res = v.lubWithNull(t1.(*NullType), t2, lub)
	case t2.Kind() == NullKind:
		res = v.lubWithNull(t2.(*NullType), t1, lub)
	default:
		t1AsLub := ctx.asSuper(t1, lub)
		t2AsLub := ctx.asSuper(t2, lub)
		v.visit(t1AsLub, t2AsLub, lub)
		res = lub
	}
	v.logger.Debug("lub", "t1", Slog(t1), "t2", Slog(t2), "result", Slog(res))
	return res
}

func (v *lubVisitor) visit(t1, t2, lub Type) {
	lubCombos.Visit(t1, t2, lubStep{v: v, lub: lub})
}

func (v *lubVisitor) isVisited(t Type) bool {
	return slices.Contains(v.visited, t)
}

func (v *lubVisitor) markVisited(t Type) bool {
	if v.isVisited(t) {
		return false
	}
	v.visited = append(v.visited, t)
	return true
}

// lubWithNull is the lub of the null type and other. For type variables
// and wildcards, the null qualifier only widens the result when it is
// not already below the bounds of other.
func (v *lubVisitor) lubWithNull(null *NullType, other, lub Type) Type {
	var otherAsLub Type
	if other.Kind() == NullKind {
		otherAsLub = deepCopy(other)
	} else {
		otherAsLub = v.ctx.asSuper(other, lub)
	}
	res := deepCopy(otherAsLub)
	kind := otherAsLub.Kind()
	if kind != TypevarKind && kind != WildcardKind {
		for _, nullQ := range null.quals {
			otherQ, ok := otherAsLub.QualifierInHierarchy(nullQ)
			if !ok {
				qerr.Bugf(qerr.EmptyQualifiers, "lub: %v has no qualifier in the hierarchy of %v", otherAsLub, nullQ)
			}
			res.annotations().replaceQualifier(v.ctx.lubQualifier(nullQ, otherQ))
		}
		return res
	}

	for _, lower := range v.ctx.effectiveLowerBoundQualifiers(otherAsLub) {
		nullQ, ok := null.QualifierInHierarchy(lower)
		if !ok {
			continue
		}
		upper := v.ctx.effectiveQualifierInHierarchy(otherAsLub, v.ctx.h.Top(lower))
		switch {
		case v.ctx.isSubtype(upper, nullQ):
			res.annotations().replaceQualifier(nullQ)
		case v.ctx.isSubtype(lower, nullQ) && !v.ctx.isSubtype(nullQ, lower):
			res.annotations().replaceQualifier(upper)
		}
	}
	return res
}

// lubPrimary sets the primary qualifiers of lub. A side without
// qualifiers does not take part.
func (v *lubVisitor) lubPrimary(t1, t2, lub Type) {
	quals1, quals2 := t1.annotations().quals, t2.annotations().quals
	switch {
	case len(quals1) == 0:
		lub.annotations().replaceQualifiers(quals2)
	case len(quals2) == 0:
		lub.annotations().replaceQualifiers(quals1)
	default:
		lub.annotations().replaceQualifiers(v.ctx.lubQualifiers(quals1, quals2))
	}
}

func castLub[T Type](t1 Type, lub Type) T {
	res, ok := lub.(T)
	if !ok {
		qerr.Bugf(qerr.ShapeMismatch, "lub: shape %v (%v) does not match %v (%v)", lub, lub.Kind(), t1, t1.Kind())
	}
	return res
}

func lubPrimaryOnly(t1, t2 Type, step lubStep) struct{} {
	step.v.lubPrimary(t1, t2, step.lub)
	return struct{}{}
}

func lubArrayArray(t1, t2 Type, step lubStep) struct{} {
	lub := castLub[*ArrayType](t1, step.lub)
	step.v.lubPrimary(t1, t2, lub)
	step.v.visit(t1.(*ArrayType).component, t2.(*ArrayType).component, lub.component)
	return struct{}{}
}

func lubDeclaredDeclared(t1, t2 Type, step lubStep) struct{} {
	step.v.lubDeclared(t1.(*DeclaredType), t2.(*DeclaredType), castLub[*DeclaredType](t1, step.lub))
	return struct{}{}
}

func (v *lubVisitor) lubDeclared(t1, t2, lub *DeclaredType) {
	v.lubPrimary(t1, t2, lub)
	if lub.enclosing != nil && t1.enclosing != nil && t2.enclosing != nil {
		v.lubDeclared(t1.enclosing, t2.enclosing, lub.enclosing)
	}
	if len(lub.args) == 0 || len(t1.args) == 0 || len(t2.args) == 0 {
		return
	}
	if len(t1.args) != len(lub.args) || len(t2.args) != len(lub.args) {
		qerr.Bugf(qerr.ArgumentCount, "lub: %v and %v do not have as many type arguments as %v", t1, t2, lub)
	}
	for i := range lub.args {
		v.lubTypeArgument(t1.args[i], t2.args[i], lub.args[i])
	}
}

func (v *lubVisitor) lubTypeArgument(arg1, arg2, lubArg Type) {
	arg1AsLub := v.ctx.asSuper(arg1, lubArg)
	arg2AsLub := v.ctx.asSuper(arg2, lubArg)
	switch lub := lubArg.(type) {
	case *WildcardType:
		if !v.markVisited(lub) {
			return
		}
		w1, w2 := arg1AsLub.(*WildcardType), arg2AsLub.(*WildcardType)
		if w1.uninferred || w2.uninferred {
			lub.uninferred = true
		}
		v.lubBounds(w1.super, w1.extends, w2.super, w2.extends, lub.super, lub.extends)
	case *TypeVariable:
		if !lub.captured {
			v.visit(arg1AsLub, arg2AsLub, lubArg)
			return
		}
		if !v.markVisited(lub) {
			return
		}
		tv1, tv2 := arg1AsLub.(*TypeVariable), arg2AsLub.(*TypeVariable)
		v.lubBounds(tv1.lower, tv1.upper, tv2.lower, tv2.upper, lub.lower, lub.upper)
	default:
		v.visit(arg1AsLub, arg2AsLub, lubArg)
	}
}

// lubBounds takes the lub of the upper bounds and the glb of the lower
// bounds of two type arguments
func (v *lubVisitor) lubBounds(lower1, upper1, lower2, upper2, lubLower, lubUpper Type) {
	if upper1 != nil && upper2 != nil && lubUpper != nil {
		v.visit(upper1, upper2, lubUpper)
	}
	if lower1 == nil || lower2 == nil || lubLower == nil {
		return
	}
	v.visit(lower1, lower2, lubLower)
	for _, top := range v.ctx.h.Tops() {
		q1, ok1 := lower1.QualifierInHierarchy(top)
		q2, ok2 := lower2.QualifierInHierarchy(top)
		if ok1 && ok2 {
			lubLower.annotations().replaceQualifier(v.ctx.glbQualifier(q1, q2))
		}
	}
}

func lubTypevarTypevar(t1, t2 Type, step lubStep) struct{} {
	lub := castLub[*TypeVariable](t1, step.lub)
	if !step.v.markVisited(lub) {
		return struct{}{}
	}
	tv1, tv2 := t1.(*TypeVariable), t2.(*TypeVariable)
	if lub.upper != nil && tv1.upper != nil && tv2.upper != nil {
		step.v.visit(tv1.upper, tv2.upper, lub.upper)
		step.v.visit(tv1.lower, tv2.lower, lub.lower)
	}
	step.v.lubSharedPrimaries(t1, t2, lub)
	step.v.lubPrimaryOnBoundedType(t1, t2, lub)
	return struct{}{}
}

func lubWildcardWildcard(t1, t2 Type, step lubStep) struct{} {
	lub := castLub[*WildcardType](t1, step.lub)
	if !step.v.markVisited(lub) {
		return struct{}{}
	}
	w1, w2 := t1.(*WildcardType), t2.(*WildcardType)
	step.v.visit(w1.extends, w2.extends, lub.extends)
	step.v.visit(w1.super, w2.super, lub.super)
	step.v.lubSharedPrimaries(t1, t2, lub)
	step.v.lubPrimaryOnBoundedType(t1, t2, lub)
	return struct{}{}
}

// lubSharedPrimaries lubs the primary qualifiers of two type variables or
// wildcards in the hierarchies where both have one, since a primary
// qualifier there stands for both bounds
func (v *lubVisitor) lubSharedPrimaries(t1, t2, lub Type) {
	for _, top := range v.ctx.h.Tops() {
		q1, ok1 := t1.QualifierInHierarchy(top)
		q2, ok2 := t2.QualifierInHierarchy(top)
		if ok1 && ok2 {
			lub.annotations().replaceQualifier(v.ctx.lubQualifier(q1, q2))
		}
	}
}

// lubPrimaryOnBoundedType gives a type variable or wildcard lub a primary
// qualifier in the hierarchies where neither side's bounds contain the other's
func (v *lubVisitor) lubPrimaryOnBoundedType(t1, t2, lub Type) {
	lowers2 := v.ctx.effectiveLowerBoundQualifiers(t2)
	for _, lower1 := range v.ctx.effectiveLowerBoundQualifiers(t1) {
		top := v.ctx.h.Top(lower1)
		lower2, ok := qualifier.FindInHierarchy(v.ctx.h, lowers2, top)
		if !ok {
			continue
		}
		upper1 := v.ctx.effectiveQualifierInHierarchy(t1, top)
		upper2 := v.ctx.effectiveQualifierInHierarchy(t2, top)
		sameUpper := v.ctx.isSubtype(upper1, upper2) && v.ctx.isSubtype(upper2, upper1)
		sameLower := v.ctx.isSubtype(lower1, lower2) && v.ctx.isSubtype(lower2, lower1)
		if sameUpper && sameLower {
			continue
		}
		if !v.ctx.isSubtype(upper2, lower1) && !v.ctx.isSubtype(upper1, lower2) {
			lub.annotations().replaceQualifier(v.ctx.lubQualifier(upper1, upper2))
		}
	}
}

func lubIntersectionIntersection(t1, t2 Type, step lubStep) struct{} {
	lub := castLub[*IntersectionType](t1, step.lub)
	step.v.lubPrimary(t1, t2, lub)
	bounds1, bounds2 := t1.(*IntersectionType).bounds, t2.(*IntersectionType).bounds
	if len(bounds1) != len(lub.bounds) || len(bounds2) != len(lub.bounds) {
		qerr.Bugf(qerr.ArgumentCount, "lub: %v and %v do not have as many bounds as %v", t1, t2, lub)
	}
	for i := range lub.bounds {
		step.v.visit(bounds1[i], bounds2[i], lub.bounds[i])
	}
	return struct{}{}
}

func lubUnionUnion(t1, t2 Type, step lubStep) struct{} {
	lub := castLub[*UnionType](t1, step.lub)
	step.v.lubPrimary(t1, t2, lub)
	alts1, alts2 := t1.(*UnionType).alternatives, t2.(*UnionType).alternatives
	if len(alts1) != len(lub.alternatives) || len(alts2) != len(lub.alternatives) {
		qerr.Bugf(qerr.ArgumentCount, "lub: %v and %v do not have as many alternatives as %v", t1, t2, lub)
	}
	for i := range lub.alternatives {
		step.v.visit(alts1[i], alts2[i], lub.alternatives[i])
	}
	return struct{}{}
}
