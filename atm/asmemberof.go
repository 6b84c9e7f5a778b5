package atm

import (
	"github.com/cottand/qualis/qerr"
)

func (ctx *TypeCtx) asMemberOf(receiver Type, elem *Element, memberType Type) Type {
	switch elem.Kind {
	case PackageElement, InstanceInitElement, StaticInitElement, OtherElement, TypeParameterElement:
		return memberType
	}
	if receiver == nil || elem.Static {
		return memberType
	}
	res := ctx.asMemberOfImpl(receiver, elem, memberType)
	if ctx.postAsMemberOf != nil {
		res = ctx.postAsMemberOf(res, receiver, elem)
	}
	ctx.sectionLogger("asmemberof").Debug("asMemberOf",
		"receiver", Slog(receiver), "element", elem.Name, "member", Slog(memberType), "result", Slog(res))
	return res
}

func (ctx *TypeCtx) asMemberOfImpl(receiver Type, elem *Element, memberType Type) Type {
	switch r := receiver.(type) {
	case *ArrayType:
		if elem.Kind == MethodElement && elem.Name == "clone" {
			// clone on an array returns the array type itself
			method, ok := memberType.(*ExecutableType)
			if !ok {
				qerr.Bugf(qerr.ShapeMismatch, "asMemberOf: clone has non-executable type %v", memberType)
			}
			res := deepCopy(method).(*ExecutableType)
			res.ret = deepCopy(r)
			return res
		}
		return memberType
	case *TypeVariable:
		return ctx.asMemberOfImpl(r.UpperBound(), elem, memberType)
	case *WildcardType:
		if r.typeArgOfRaw {
			return ctx.substituteTypeArgsFromRawTypes(elem, memberType)
		}
		return ctx.asMemberOfImpl(deepCopy(r.extends), elem, memberType)
	case *IntersectionType:
		res := memberType
		for _, bound := range r.bounds {
			if elem.Enclosing != nil && ctx.isErasedSubtype(bound, elem.Enclosing.AsType()) {
				res = ctx.substituteTypeVariables(bound, elem, res)
			}
		}
		return res
	case *UnionType:
		return ctx.substituteTypeVariables(r, elem, memberType)
	case *DeclaredType:
		if ctx.isRawCall(r, elem) {
			return ctx.erased(memberType)
		}
		return ctx.substituteTypeVariables(r, elem, memberType)
	}
	qerr.Bugf(qerr.UnhandledCombo, "asMemberOf: unexpected receiver %v of kind %v", receiver, receiver.Kind())
	return nil
}

// isRawCall is true when the member is accessed through a raw use of its
// own class, or is a constructor reached through a raw super() call
func (ctx *TypeCtx) isRawCall(receiver *DeclaredType, elem *Element) bool {
	if elem.Enclosing == nil {
		return false
	}
	if receiver.decl == elem.Enclosing && receiver.raw {
		return true
	}
	if elem.Kind != ConstructorElement {
		return false
	}
	// the first declared supertype is the one super() goes to
	for decl := receiver.decl; decl != ctx.universe.Object; {
		supers := ctx.declaredSupertypes(decl)
		if len(supers) == 0 {
			return false
		}
		super := supers[0]
		if super.decl == elem.Enclosing {
			return super.raw
		}
		decl = super.decl
	}
	return false
}

// substituteTypeVariables replaces, in memberType, the type parameters
// of the member's declaration and of its enclosing declarations by the
// type arguments receiver has for them
func (ctx *TypeCtx) substituteTypeVariables(receiver Type, elem *Element, memberType Type) Type {
	mapping := emptyMapping()
	for decl := elem.Enclosing; decl != nil; decl = decl.enclosing {
		mapping = ctx.addTypeVarMappings(receiver, decl, mapping)
	}
	if mapping.Len() == 0 {
		return memberType
	}
	return substitute(memberType, mapping)
}

func (ctx *TypeCtx) addTypeVarMappings(receiver Type, decl *Decl, mapping typeMapping) typeMapping {
	if !decl.IsGeneric() {
		return mapping
	}
	declType := decl.AsType()
	base := ctx.checkDeclared(ctx.asOuterSuper(receiver, declType), "asMemberOf")
	for _, arg := range declType.args {
		if arg.Kind() != TypevarKind {
			qerr.Bugf(qerr.ShapeMismatch, "asMemberOf: declaration %v has a type argument %v that is not one of its parameters", decl, arg)
		}
	}

	args := base.args
	switch {
	case base.raw && len(args) == 0:
		args = make([]Type, 0, len(decl.params))
		for _, p := range decl.params {
			args = append(args, ctx.erased(p.upperBound()))
		}
	case len(args) != len(decl.params):
		qerr.Bugf(qerr.ArgumentCount, "asMemberOf: %v has %d type arguments but %v declares %d parameters", base, len(args), decl, len(decl.params))
	}
	for i, p := range decl.params {
		mapping = mapping.Set(p, args[i])
	}
	return mapping
}

// asOuterSuper is asSuper, except that a declared receiver whose class
// does not extend super may be an inner class of one that does
func (ctx *TypeCtx) asOuterSuper(t, super Type) Type {
	declared, ok := t.(*DeclaredType)
	if !ok {
		return ctx.asSuper(t, super)
	}
	for outer := declared; outer != nil; outer = outer.enclosing {
		if ctx.isErasedSubtype(outer, super) {
			return ctx.asSuper(outer, super)
		}
	}
	qerr.Bugf(qerr.NotASubtype, "asMemberOf: neither %v nor its enclosing types extend %v", t, super)
	return nil
}

// substituteTypeArgsFromRawTypes is used when the receiver is a type
// argument of a raw type: the member's type parameters are unknown, so
// they become uninferred wildcards bounded by their erasure
func (ctx *TypeCtx) substituteTypeArgsFromRawTypes(elem *Element, memberType Type) Type {
	mapping := emptyMapping()
	for decl := elem.Enclosing; decl != nil; decl = decl.enclosing {
		for _, p := range decl.params {
			wildcard := NewWildcard(nil, ctx.erased(p.upperBound()), nil)
			wildcard.typeArgOfRaw = true
			wildcard.uninferred = true
			mapping = mapping.Set(p, wildcard)
		}
	}
	if mapping.Len() == 0 {
		return memberType
	}
	return substitute(memberType, mapping)
}
