package atm

import (
	"github.com/benbjohnson/immutable"
	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
	"github.com/hashicorp/go-set/v3"
)

// typeMapping maps type parameters to the types that replace them
type typeMapping = *immutable.Map[*TypeParam, Type]

type paramHasher struct{}

func (paramHasher) Hash(p *TypeParam) uint32  { return uint32(p.id ^ p.id>>32) }
func (paramHasher) Equal(a, b *TypeParam) bool { return a == b }

func emptyMapping() typeMapping {
	return immutable.NewMap[*TypeParam, Type](paramHasher{})
}

// substitute replaces uses of mapped type parameters in a copy of t.
// Qualifiers on a type variable use win over those of its replacement.
func substitute(t Type, mapping typeMapping) Type {
	if mapping.Len() == 0 {
		return deepCopy(t)
	}
	return rebuild(t, func(node Type) Type {
		tv, ok := node.(*TypeVariable)
		if !ok {
			return node
		}
		arg, ok := mapping.Get(tv.param)
		if !ok {
			return node
		}
		res := deepCopy(arg)
		res.annotations().replaceQualifiers(tv.quals)
		return res
	})
}

// declaredSupertypes are the direct supertypes of decl in terms of its
// own type parameters, with the implicit ones made explicit
func (ctx *TypeCtx) declaredSupertypes(decl *Decl) []*DeclaredType {
	u := ctx.universe
	if decl == u.Object {
		return nil
	}
	var implicit *DeclaredType
	switch {
	case decl.kind == EnumDecl:
		implicit = NewDeclared(nil, u.Enum, NewDeclared(ctx.enumArgumentQualifiers(), decl))
	case len(decl.supertypes) == 0 || decl.supertypes[0].decl.kind == InterfaceDecl:
		implicit = u.ObjectType()
	}
	if implicit == nil {
		return decl.supertypes
	}
	return append([]*DeclaredType{implicit}, decl.supertypes...)
}

// enumArgumentQualifiers are the qualifiers of the argument of the
// implicit Enum<Self> supertype: the effective qualifiers of the bound of
// Enum's type parameter
func (ctx *TypeCtx) enumArgumentQualifiers() []qualifier.Qualifier {
	params := ctx.universe.Enum.params
	if len(params) == 0 {
		return nil
	}
	bound := params[0].upperBound()
	var quals []qualifier.Qualifier
	for _, top := range ctx.h.Tops() {
		if q, ok := ctx.findEffectiveQualifierInHierarchy(bound, top); ok {
			quals = append(quals, q)
		}
	}
	return quals
}

// isSubDecl is true when sub is super or transitively extends it
func (ctx *TypeCtx) isSubDecl(sub, super *Decl) bool {
	if super == ctx.universe.Object {
		return true
	}
	seen := set.New[*Decl](4)
	queue := []*Decl{sub}
	for len(queue) > 0 {
		decl := queue[0]
		queue = queue[1:]
		if decl == super {
			return true
		}
		if !seen.Insert(decl) {
			continue
		}
		for _, s := range ctx.declaredSupertypes(decl) {
			queue = append(queue, s.decl)
		}
	}
	return false
}

// mappingOf maps the type parameters of t's declaration, and of the
// declarations of its enclosing types, to t's type arguments
func mappingOf(t *DeclaredType) typeMapping {
	mapping := emptyMapping()
	for ; t != nil; t = t.enclosing {
		if t.raw || len(t.args) != len(t.decl.params) {
			continue
		}
		for i, p := range t.decl.params {
			mapping = mapping.Set(p, t.args[i])
		}
	}
	return mapping
}

func (ctx *TypeCtx) directSupertypes(t Type) []Type {
	var res []Type
	switch t := t.(type) {
	case *DeclaredType:
		for _, s := range ctx.directSupertypesOfDeclared(t) {
			res = append(res, s)
		}
	case *ArrayType:
		u := ctx.universe
		for _, decl := range []*Decl{u.Object, u.Cloneable, u.Serializable} {
			res = append(res, NewDeclared(t.quals, decl))
		}
	case *TypeVariable:
		res = []Type{deepCopy(t.UpperBound())}
	case *WildcardType:
		res = []Type{deepCopy(t.extends)}
	case *IntersectionType:
		res = copyAll(t.bounds)
	case *PrimitiveType:
		res = []Type{ctx.boxed(t)}
	}
	return res
}

// directSupertypesOfDeclared substitutes t's type arguments into its
// declared supertypes. Supertypes of a raw type are erased.
func (ctx *TypeCtx) directSupertypesOfDeclared(t *DeclaredType) []*DeclaredType {
	declared := ctx.declaredSupertypes(t.decl)
	res := make([]*DeclaredType, 0, len(declared))
	mapping := mappingOf(t)
	for _, s := range declared {
		var super *DeclaredType
		if t.raw {
			super = ctx.erased(s).(*DeclaredType)
		} else {
			super = substitute(s, mapping).(*DeclaredType)
		}
		super.clearQualifiers()
		super.replaceQualifiers(t.quals)
		res = append(res, super)
	}
	return res
}

func (ctx *TypeCtx) allSupertypes(t *DeclaredType) []*DeclaredType {
	var res []*DeclaredType
	seen := set.From([]*Decl{t.decl})
	queue := ctx.directSupertypesOfDeclared(t)
	for len(queue) > 0 {
		super := queue[0]
		queue = queue[1:]
		if !seen.Insert(super.decl) {
			continue
		}
		res = append(res, super)
		queue = append(queue, ctx.directSupertypesOfDeclared(super)...)
	}
	return res
}

func (ctx *TypeCtx) erased(t Type) Type {
	switch t := t.(type) {
	case *DeclaredType:
		res := &DeclaredType{annotated: newAnnotated(t.quals), decl: t.decl, raw: t.decl.IsGeneric()}
		if t.enclosing != nil {
			res.enclosing = ctx.erased(t.enclosing).(*DeclaredType)
		}
		return res
	case *ArrayType:
		return &ArrayType{annotated: newAnnotated(t.quals), component: ctx.erased(t.component)}
	case *TypeVariable:
		return ctx.erased(t.UpperBound())
	case *WildcardType:
		return ctx.erased(t.extends)
	case *IntersectionType:
		return ctx.erased(t.bounds[0])
	case *UnionType:
		res := ctx.erased(ctx.unionShape(t))
		res.annotations().replaceQualifiers(t.quals)
		return res
	case *ExecutableType:
		return &ExecutableType{
			annotated: newAnnotated(t.quals),
			elem:      t.elem,
			receiver:  ctx.erasedOrNil(t.receiver),
			params:    ctx.erasedAll(t.params),
			ret:       ctx.erased(t.ret),
			thrown:    ctx.erasedAll(t.thrown),
		}
	}
	return deepCopy(t)
}

func (ctx *TypeCtx) erasedOrNil(t Type) Type {
	if t == nil {
		return nil
	}
	return ctx.erased(t)
}

func (ctx *TypeCtx) erasedAll(types []Type) []Type {
	var res []Type
	for _, t := range types {
		res = append(res, ctx.erased(t))
	}
	return res
}

// unionShape is the first supertype of the first alternative that every
// alternative extends
func (ctx *TypeCtx) unionShape(t *UnionType) *DeclaredType {
	candidates := append([]*DeclaredType{t.alternatives[0]}, ctx.allSupertypes(t.alternatives[0])...)
	for _, candidate := range candidates {
		all := true
		for _, alt := range t.alternatives[1:] {
			all = all && ctx.isSubDecl(alt.decl, candidate.decl)
		}
		if all {
			return candidate
		}
	}
	return ctx.universe.ObjectType()
}

func (ctx *TypeCtx) isErasedSubtype(sub, super Type) bool {
	switch s := sub.(type) {
	case *IntersectionType:
		for _, bound := range s.bounds {
			if ctx.isErasedSubtype(bound, super) {
				return true
			}
		}
		return false
	case *TypeVariable:
		if tv, ok := super.(*TypeVariable); ok && tv.param == s.param {
			return true
		}
		return ctx.isErasedSubtype(s.UpperBound(), super)
	case *WildcardType:
		return ctx.isErasedSubtype(s.extends, super)
	case *UnionType:
		for _, alt := range s.alternatives {
			if !ctx.isErasedSubtype(alt, super) {
				return false
			}
		}
		return true
	}
	if isect, ok := super.(*IntersectionType); ok {
		for _, bound := range isect.bounds {
			if !ctx.isErasedSubtype(sub, bound) {
				return false
			}
		}
		return true
	}
	if union, ok := super.(*UnionType); ok {
		for _, alt := range union.alternatives {
			if ctx.isErasedSubtype(sub, alt) {
				return true
			}
		}
		return false
	}

	super = ctx.erased(super)
	switch super := super.(type) {
	case *DeclaredType:
		switch sub := sub.(type) {
		case *DeclaredType:
			return ctx.isSubDecl(sub.decl, super.decl)
		case *ArrayType:
			return ctx.universe.isArraySupertype(super.decl)
		case *NullType:
			return true
		}
	case *ArrayType:
		switch sub := sub.(type) {
		case *ArrayType:
			subComponent, superComponent := ctx.erased(sub.component), super.component
			subPrim, ok1 := subComponent.(*PrimitiveType)
			superPrim, ok2 := superComponent.(*PrimitiveType)
			if ok1 || ok2 {
				return ok1 && ok2 && subPrim.prim == superPrim.prim
			}
			return ctx.isErasedSubtype(subComponent, superComponent)
		case *NullType:
			return true
		}
	case *PrimitiveType:
		if sub, ok := sub.(*PrimitiveType); ok {
			return sub.prim == super.prim
		}
	case *NullType:
		return sub.Kind() == NullKind
	case *NoType:
		return sub.Kind() == NoneKind
	}
	return false
}

// sameErasure is true when t1 and t2 erase to the same type
func (ctx *TypeCtx) sameErasure(t1, t2 Type) bool {
	return sameUnderlying(ctx.erased(t1), ctx.erased(t2))
}

// sameUnderlying compares the structure of two types, ignoring qualifiers
func sameUnderlying(t1, t2 Type) bool {
	if t1 == nil || t2 == nil {
		return t1 == nil && t2 == nil
	}
	if t1.Kind() != t2.Kind() {
		return false
	}
	switch t1 := t1.(type) {
	case *DeclaredType:
		t2 := t2.(*DeclaredType)
		if t1.decl != t2.decl || len(t1.args) != len(t2.args) {
			return false
		}
		if (t1.enclosing == nil) != (t2.enclosing == nil) {
			return false
		}
		if t1.enclosing != nil && !sameUnderlying(t1.enclosing, t2.enclosing) {
			return false
		}
		return allSameUnderlying(t1.args, t2.args)
	case *ArrayType:
		return sameUnderlying(t1.component, t2.(*ArrayType).component)
	case *PrimitiveType:
		return t1.prim == t2.(*PrimitiveType).prim
	case *TypeVariable:
		return t1.param == t2.(*TypeVariable).param
	case *WildcardType:
		t2 := t2.(*WildcardType)
		return sameUnderlying(t1.extends, t2.extends) && sameUnderlying(t1.super, t2.super)
	case *IntersectionType:
		return allSameUnderlying(t1.bounds, t2.(*IntersectionType).bounds)
	case *UnionType:
		t2 := t2.(*UnionType)
		if len(t1.alternatives) != len(t2.alternatives) {
			return false
		}
		for i := range t1.alternatives {
			if !sameUnderlying(t1.alternatives[i], t2.alternatives[i]) {
				return false
			}
		}
		return true
	case *NoType:
		return t1.name == t2.(*NoType).name
	case *ExecutableType:
		t2 := t2.(*ExecutableType)
		return t1.elem == t2.elem && sameUnderlying(t1.ret, t2.ret) && allSameUnderlying(t1.params, t2.params)
	}
	return true
}

func allSameUnderlying(types1, types2 []Type) bool {
	if len(types1) != len(types2) {
		return false
	}
	for i := range types1 {
		if !sameUnderlying(types1[i], types2[i]) {
			return false
		}
	}
	return true
}

func (ctx *TypeCtx) boxed(t *PrimitiveType) *DeclaredType {
	return NewDeclared(t.quals, ctx.universe.Box(t.prim))
}

func (ctx *TypeCtx) unboxed(t *DeclaredType) (*PrimitiveType, bool) {
	prim, ok := t.decl.Unboxed()
	if !ok {
		return nil, false
	}
	return NewPrimitive(t.quals, prim), true
}

func (ctx *TypeCtx) checkDeclared(t Type, what string) *DeclaredType {
	declared, ok := t.(*DeclaredType)
	if !ok {
		qerr.Bugf(qerr.ShapeMismatch, "%s: expected a declared type but got %v (%v)", what, t, t.Kind())
	}
	return declared
}
