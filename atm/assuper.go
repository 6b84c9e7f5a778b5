package atm

import (
	"log/slog"
	"slices"

	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
)

// asSuperVisitor rewrites the super shape it is given so that it carries
// the qualifiers of the visited type. Both sides are copies owned by
// the visitor, so handlers mutate and return the super side.
type asSuperVisitor struct {
	ctx    *TypeCtx
	logger *slog.Logger
	// isTypeArgumentFromRawType is set while visiting the bound of a
	// wildcard that stands for a type argument of a raw type, where
	// unrelated types are tolerated
	isTypeArgumentFromRawType bool
}

var asSuperCombos *ComboVisitor[*asSuperVisitor, Type]

func init() {
	asSuperCombos = NewComboVisitor[*asSuperVisitor, Type]("asSuper").
		On(asSuperArrayArray, ArrayArray).
		On(asSuperArrayDeclared, ArrayDeclared).
		On(asSuperArrayIntersection, ArrayIntersection).
		On(asSuperToTypevar, ArrayTypevar, DeclaredTypevar, IntersectionTypevar).
		On(asSuperToWildcard, ArrayWildcard, DeclaredWildcard, IntersectionWildcard).
		On(asSuperDeclaredDeclared, DeclaredDeclared).
		On(asSuperDeclaredIntersection, DeclaredIntersection).
		On(asSuperDeclaredPrimitive, DeclaredPrimitive).
		On(asSuperCopyPrimary, DeclaredUnion, PrimitivePrimitive).
		On(asSuperIntersectionDeclared, IntersectionDeclared).
		On(asSuperIntersectionIntersection, IntersectionIntersection).
		On(asSuperIntersectionPrimitive, IntersectionPrimitive).
		On(asSuperIntersectionUnion, IntersectionUnion).
		On(asSuperBoxed, PrimitiveArray, PrimitiveDeclared, PrimitiveIntersection, PrimitiveTypevar, PrimitiveWildcard, PrimitiveUnion).
		On(asSuperTypevarUpperBound, TypevarArray, TypevarDeclared, TypevarIntersection, TypevarPrimitive, TypevarUnion).
		On(asSuperTypevarTypevar, TypevarTypevar).
		On(asSuperTypevarWildcard, TypevarWildcard).
		On(asSuperUnionFirstAlternative, UnionArray, UnionDeclared, UnionIntersection, UnionPrimitive, UnionTypevar, UnionWildcard).
		On(asSuperUnionUnion, UnionUnion).
		On(asSuperWildcardExtendsBound, WildcardArray, WildcardDeclared, WildcardIntersection, WildcardPrimitive, WildcardUnion).
		On(asSuperWildcardTypevar, WildcardTypevar).
		On(asSuperWildcardWildcard, WildcardWildcard).
		On(asSuperCopyPrimary, NullArray, NullDeclared, NullIntersection, NullNull, NullTypevar, NullWildcard, NullUnion)
}

func (ctx *TypeCtx) asSuper(t, super Type) Type {
	if t == super {
		return deepCopy(t)
	}
	v := &asSuperVisitor{ctx: ctx, logger: ctx.sectionLogger("assuper")}
	res := v.visit(deepCopy(t), deepCopy(super))
	v.logger.Debug("asSuper", "type", Slog(t), "super", Slog(super), "result", Slog(res))
	return res
}

func (v *asSuperVisitor) visit(t, super Type) Type {
	v.ensurePrimaryIsCorrectForUnions(t)
	return asSuperCombos.Visit(t, super, v)
}

// ensurePrimaryIsCorrectForUnions sets the primary qualifiers of a union
// to the lub of those of its alternatives
func (v *asSuperVisitor) ensurePrimaryIsCorrectForUnions(t Type) {
	union, ok := t.(*UnionType)
	if !ok {
		return
	}
	var lubs []qualifier.Qualifier
	for _, alt := range union.alternatives {
		switch {
		case len(alt.quals) == 0:
			continue
		case lubs == nil:
			lubs = slices.Clone(alt.quals)
		default:
			lubs = v.ctx.lubQualifiers(lubs, alt.quals)
		}
	}
	union.replaceQualifiers(lubs)
}

// copyPrimary replaces the qualifiers of to with those of from. Union
// alternatives additionally receive the ones they lack.
func copyPrimary(from, to Type) {
	quals := from.annotations().quals
	to.annotations().replaceQualifiers(quals)
	if union, ok := to.(*UnionType); ok {
		for _, alt := range union.alternatives {
			alt.addMissingQualifiers(quals)
		}
	}
}

func (v *asSuperVisitor) errorNotErasedSubtype(t, super Type) Type {
	if declared, ok := super.(*DeclaredType); ok && declared.decl == v.ctx.universe.String {
		// anything converts to String through concatenation
		return v.visit(v.ctx.universe.StringType(t.Qualifiers()...), super)
	}
	if v.isTypeArgumentFromRawType {
		copyPrimary(t, super)
		return super
	}
	qerr.Bugf(qerr.NotASubtype, "asSuper: %v is not a subtype of %v", t, super)
	return nil
}

// asSuperLowerBound views t as the lower bound of a type variable or
// wildcard. A null lower bound takes t's effective lower bound qualifiers.
func (v *asSuperVisitor) asSuperLowerBound(t, lowerBound Type) Type {
	if lowerBound.Kind() == NullKind {
		lowerBound.annotations().replaceQualifiers(v.ctx.effectiveLowerBoundQualifiers(t))
		return lowerBound
	}
	if v.ctx.sameErasure(t, lowerBound) {
		return v.visit(t, lowerBound)
	}
	copyPrimary(t, lowerBound)
	return lowerBound
}

func asSuperCopyPrimary(t, super Type, _ *asSuperVisitor) Type {
	copyPrimary(t, super)
	return super
}

func asSuperArrayArray(t, super Type, v *asSuperVisitor) Type {
	array, superArray := t.(*ArrayType), super.(*ArrayType)
	superArray.component = v.visit(array.component, superArray.component)
	copyPrimary(t, super)
	return super
}

func asSuperArrayDeclared(t, super Type, v *asSuperVisitor) Type {
	if v.ctx.universe.isArraySupertype(super.(*DeclaredType).decl) {
		copyPrimary(t, super)
		return super
	}
	return v.errorNotErasedSubtype(t, super)
}

func asSuperArrayIntersection(t, super Type, v *asSuperVisitor) Type {
	isect := super.(*IntersectionType)
	for _, bound := range isect.bounds {
		declared, ok := bound.(*DeclaredType)
		if !ok || !v.ctx.universe.isArraySupertype(declared.decl) {
			return v.errorNotErasedSubtype(t, super)
		}
		copyPrimary(t, bound)
	}
	copyPrimary(t, super)
	return super
}

// asSuperToTypevar views t as a type variable by viewing it as both of its bounds
func asSuperToTypevar(t, super Type, v *asSuperVisitor) Type {
	tv := super.(*TypeVariable)
	tv.expand()
	tv.upper = v.visit(deepCopy(t), tv.upper)
	tv.lower = v.asSuperLowerBound(deepCopy(t), tv.lower)
	copyPrimary(t, super)
	return super
}

func asSuperToWildcard(t, super Type, v *asSuperVisitor) Type {
	wildcard := super.(*WildcardType)
	wildcard.extends = v.visit(deepCopy(t), wildcard.extends)
	wildcard.super = v.asSuperLowerBound(deepCopy(t), wildcard.super)
	copyPrimary(t, super)
	return super
}

func asSuperDeclaredDeclared(t, super Type, v *asSuperVisitor) Type {
	if v.ctx.sameErasure(t, super) {
		return t
	}
	for _, st := range v.ctx.directSupertypesOfDeclared(t.(*DeclaredType)) {
		if v.ctx.isErasedSubtype(st, super) {
			return v.visit(st, super)
		}
	}
	return v.errorNotErasedSubtype(t, super)
}

func asSuperDeclaredIntersection(t, super Type, v *asSuperVisitor) Type {
	isect := super.(*IntersectionType)
	var bounds []Type
	for _, bound := range isect.bounds {
		if v.ctx.isErasedSubtype(t, bound) {
			bounds = append(bounds, v.visit(deepCopy(t), bound))
		}
	}
	isect.bounds = bounds
	copyPrimary(t, super)
	return super
}

func asSuperDeclaredPrimitive(t, super Type, v *asSuperVisitor) Type {
	unboxed, ok := v.ctx.unboxed(t.(*DeclaredType))
	if !ok {
		return v.errorNotErasedSubtype(t, super)
	}
	copyPrimary(unboxed, super)
	return super
}

func asSuperIntersectionDeclared(t, super Type, v *asSuperVisitor) Type {
	for _, bound := range t.(*IntersectionType).bounds {
		if bound.Kind() == DeclaredKind && v.ctx.isErasedSubtype(bound, super) {
			res := v.visit(bound, super)
			copyPrimary(t, res)
			return res
		}
	}
	return v.errorNotErasedSubtype(t, super)
}

func asSuperIntersectionIntersection(t, super Type, v *asSuperVisitor) Type {
	isect, superIsect := t.(*IntersectionType), super.(*IntersectionType)
	bounds := make([]Type, 0, len(superIsect.bounds))
	for _, superBound := range superIsect.bounds {
		i := slices.IndexFunc(isect.bounds, func(bound Type) bool {
			return v.ctx.isErasedSubtype(bound, superBound)
		})
		if i < 0 {
			qerr.Bugf(qerr.NotASubtype, "asSuper: no bound of %v is a subtype of %v", t, superBound)
		}
		bounds = append(bounds, v.visit(deepCopy(isect.bounds[i]), superBound))
	}
	superIsect.bounds = bounds
	copyPrimary(t, super)
	return super
}

func asSuperIntersectionPrimitive(t, super Type, v *asSuperVisitor) Type {
	for _, bound := range t.(*IntersectionType).bounds {
		if declared, ok := bound.(*DeclaredType); ok {
			if _, ok := declared.decl.Unboxed(); ok {
				res := v.visit(bound, super)
				copyPrimary(t, res)
				return res
			}
		}
	}
	return v.errorNotErasedSubtype(t, super)
}

func asSuperIntersectionUnion(t, super Type, v *asSuperVisitor) Type {
	for _, bound := range t.(*IntersectionType).bounds {
		if v.ctx.isErasedSubtype(bound, super) {
			res := v.visit(bound, super)
			copyPrimary(t, res)
			return res
		}
	}
	return v.errorNotErasedSubtype(t, super)
}

func asSuperBoxed(t, super Type, v *asSuperVisitor) Type {
	return v.visit(v.ctx.boxed(t.(*PrimitiveType)), super)
}

func asSuperTypevarUpperBound(t, super Type, v *asSuperVisitor) Type {
	res := v.visit(deepCopy(t.(*TypeVariable).UpperBound()), super)
	copyPrimary(t, res)
	return res
}

// asSuperBoundedLower computes the lower bound of a type variable or
// wildcard super, given the visited type t and its lower bound
func (v *asSuperVisitor) asSuperBoundedLower(t, lower, superLower Type) Type {
	switch {
	case lower.Kind() == NullKind && superLower.Kind() == NullKind:
		copyPrimary(lower, superLower)
		return superLower
	case lower.Kind() == NullKind:
		return v.visit(deepCopy(t), superLower)
	}
	return v.asSuperLowerBound(deepCopy(lower), superLower)
}

func asSuperTypevarTypevar(t, super Type, v *asSuperVisitor) Type {
	tv, superTv := t.(*TypeVariable), super.(*TypeVariable)
	superTv.clearQualifiers()
	copyPrimary(t, super)
	superTv.expand()
	superTv.upper = v.visit(deepCopy(tv.UpperBound()), superTv.upper)
	superTv.lower = v.asSuperBoundedLower(t, tv.LowerBound(), superTv.lower)
	return super
}

func asSuperTypevarWildcard(t, super Type, v *asSuperVisitor) Type {
	tv, wildcard := t.(*TypeVariable), super.(*WildcardType)
	if extends, ok := wildcard.extends.(*TypeVariable); ok && extends.param == tv.param {
		wildcard.extends = v.visit(deepCopy(t), wildcard.extends)
	} else {
		wildcard.extends = v.visit(deepCopy(tv.UpperBound()), wildcard.extends)
	}
	wildcard.super = v.asSuperBoundedLower(t, tv.LowerBound(), wildcard.super)
	copyPrimary(t, super)
	return super
}

func asSuperUnionFirstAlternative(t, super Type, v *asSuperVisitor) Type {
	res := v.visit(deepCopy(t.(*UnionType).alternatives[0]), super)
	copyPrimary(t, res)
	return res
}

func asSuperUnionUnion(t, super Type, _ *asSuperVisitor) Type {
	for _, alt := range super.(*UnionType).alternatives {
		copyPrimary(t, alt)
	}
	copyPrimary(t, super)
	return super
}

func asSuperWildcardExtendsBound(t, super Type, v *asSuperVisitor) Type {
	wildcard := t.(*WildcardType)
	wasRaw := v.isTypeArgumentFromRawType
	if wildcard.typeArgOfRaw {
		v.isTypeArgumentFromRawType = true
	}
	res := v.visit(deepCopy(wildcard.extends), super)
	v.isTypeArgumentFromRawType = wasRaw
	copyPrimary(t, res)
	return res
}

func asSuperWildcardTypevar(t, super Type, v *asSuperVisitor) Type {
	wildcard, superTv := t.(*WildcardType), super.(*TypeVariable)
	superTv.clearQualifiers()
	copyPrimary(t, super)
	superTv.expand()
	superTv.upper = v.visit(deepCopy(wildcard.extends), superTv.upper)
	superTv.lower = v.asSuperBoundedLower(t, wildcard.super, superTv.lower)
	return super
}

func asSuperWildcardWildcard(t, super Type, v *asSuperVisitor) Type {
	wildcard, superWildcard := t.(*WildcardType), super.(*WildcardType)
	if wildcard.typeArgOfRaw {
		superWildcard.typeArgOfRaw = true
	}
	if v.ctx.isErasedSubtype(wildcard.extends, superWildcard.extends) {
		superWildcard.extends = v.visit(deepCopy(wildcard.extends), superWildcard.extends)
	} else {
		copyPrimary(wildcard.extends, superWildcard.extends)
	}
	if wildcard.super.Kind() == NullKind {
		copyPrimary(wildcard.super, superWildcard.super)
	} else {
		superWildcard.super = v.asSuperLowerBound(deepCopy(wildcard.super), superWildcard.super)
	}
	copyPrimary(t, super)
	return super
}

func (ctx *TypeCtx) castedAsSuper(sub, super Type) Type {
	if sub.Kind() == NullKind {
		res := deepCopy(super)
		res.annotations().replaceQualifiers(sub.annotations().quals)
		return res
	}
	if declared, ok := super.(*DeclaredType); ok && declared.decl == ctx.universe.Enum {
		return ctx.castedAsEnum(sub, declared)
	}
	res := ctx.asSuper(sub, super)
	ctx.fixUpRawTypes(sub, res, super)
	return res
}

// castedAsEnum converts sub to super, a use of Enum<E>. The result keeps
// the shape of super: sub's qualifiers go on the primary, and the
// qualifiers of sub's Enum argument go on the upper bound of E when the
// argument of super is a type variable.
func (ctx *TypeCtx) castedAsEnum(sub Type, super *DeclaredType) Type {
	// Enum<Sub> rather than Enum<E>, whose bound refers back to Enum
	shape := Type(super)
	if declared, ok := sub.(*DeclaredType); ok && declared.decl.kind == EnumDecl {
		shape = NewDeclared(nil, ctx.universe.Enum, NewDeclared(nil, declared.decl))
	}
	asEnum, ok := ctx.asSuper(sub, shape).(*DeclaredType)
	if !ok {
		qerr.Bugf(qerr.ShapeMismatch, "castedAsSuper: %v as %v is not a declared type", sub, shape)
	}

	res := DeepCopy(super)
	res.clearQualifiers()
	res.replaceQualifiers(asEnum.quals)
	if len(res.args) == 0 || len(asEnum.args) == 0 {
		return res
	}
	source := asEnum.args[0].annotations().quals
	arg := res.args[0]
	arg.annotations().clearQualifiers()
	if tv, ok := arg.(*TypeVariable); ok {
		tv.expand()
		tv.upper.annotations().replaceQualifiers(source)
	} else {
		arg.annotations().replaceQualifiers(source)
	}
	return res
}

// fixUpRawTypes restores type arguments of asSuperType that were lost
// because a supertype on the way from sub was used raw
func (ctx *TypeCtx) fixUpRawTypes(sub, asSuperType, super Type) {
	declaredSub, ok1 := sub.(*DeclaredType)
	declaredAsSuper, ok2 := asSuperType.(*DeclaredType)
	declaredSuper, ok3 := super.(*DeclaredType)
	if !ok1 || !ok2 || !ok3 {
		return
	}
	if !declaredAsSuper.raw || len(declaredAsSuper.args) > 0 || len(declaredSub.args) == 0 {
		return
	}
	indices := typeArgumentIndices(ctx, declaredSub.decl, declaredAsSuper.decl)
	if len(indices) != len(declaredSub.args) {
		return
	}
	if len(indices) != len(declaredSuper.args) {
		declaredAsSuper.args = nil
		return
	}
	slices.SortFunc(indices, func(a, b indexPair) int { return a.super - b.super })
	args := make([]Type, 0, len(indices))
	for _, pair := range indices {
		args = append(args, deepCopy(declaredSub.args[pair.sub]))
	}
	declaredAsSuper.args = args
	declaredAsSuper.raw = false
	ctx.sectionLogger("assuper").Debug("recovered type arguments of raw supertype", "sub", Slog(sub), "result", Slog(asSuperType))
}
