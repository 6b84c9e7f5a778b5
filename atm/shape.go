package atm

import (
	"github.com/cottand/qualis/qerr"
)

// lubShape is the unqualified type that the lub of t1 and t2 has. Type
// arguments on which both sides disagree become unbounded wildcards.
func (ctx *TypeCtx) lubShape(t1, t2 Type) Type {
	switch {
	case t1.Kind() == NullKind && t2.Kind() == NullKind:
		return NewNull(nil)
	case t1.Kind() == NullKind:
		return stripQualifiers(t2)
	case t2.Kind() == NullKind:
		return stripQualifiers(t1)
	case sameUnderlying(t1, t2):
		return stripQualifiers(t1)
	}

	switch s1 := t1.(type) {
	case *TypeVariable:
		return ctx.lubShape(s1.UpperBound(), t2)
	case *WildcardType:
		return ctx.lubShape(s1.extends, t2)
	case *IntersectionType:
		return ctx.lubShape(s1.bounds[0], t2)
	case *UnionType:
		return ctx.lubShape(ctx.unionShape(s1), t2)
	case *PrimitiveType:
		if s2, ok := t2.(*PrimitiveType); ok {
			qerr.Bugf(qerr.Unrelated, "no lub for primitives %v and %v", s1.prim, s2.prim)
		}
		return ctx.lubShape(ctx.boxed(s1), t2)
	case *ArrayType:
		return ctx.lubShapeOfArray(s1, t2)
	case *DeclaredType:
		switch t2.Kind() {
		case DeclaredKind:
			return ctx.lubShapeOfDeclared(s1, t2.(*DeclaredType))
		case TypevarKind, WildcardKind, IntersectionKind, UnionKind, PrimitiveKind, ArrayKind:
			return ctx.lubShape(t2, t1)
		}
	}
	qerr.Bugf(qerr.UnhandledCombo, "cannot infer the shape of the lub of %v and %v", t1, t2)
	return nil
}

func (ctx *TypeCtx) lubShapeOfArray(array *ArrayType, other Type) Type {
	switch other := other.(type) {
	case *ArrayType:
		c1, c2 := array.component, other.component
		if c1.Kind() == PrimitiveKind || c2.Kind() == PrimitiveKind {
			return ctx.universe.ObjectType()
		}
		return NewArray(nil, ctx.lubShape(c1, c2))
	case *DeclaredType:
		if ctx.universe.isArraySupertype(other.decl) {
			return stripQualifiers(other)
		}
		return ctx.universe.ObjectType()
	}
	return ctx.lubShape(other, array)
}

// lubShapeOfDeclared is the first supertype of t1 other than Object,
// breadth first, that t2 also extends
func (ctx *TypeCtx) lubShapeOfDeclared(t1, t2 *DeclaredType) Type {
	candidates := append([]*DeclaredType{t1}, ctx.allSupertypes(t1)...)
	for _, candidate := range candidates {
		if candidate.decl == ctx.universe.Object || !ctx.isSubDecl(t2.decl, candidate.decl) {
			continue
		}
		shape := stripQualifiers(candidate).(*DeclaredType)
		other, ok := ctx.asSuper(t2, shape).(*DeclaredType)
		if !ok || other.raw || shape.raw || len(other.args) != len(shape.args) {
			shape.args = nil
			shape.raw = shape.decl.IsGeneric()
			return shape
		}
		for i := range shape.args {
			if !sameUnderlying(shape.args[i], other.args[i]) {
				shape.args[i] = NewWildcard(nil, ctx.universe.ObjectType(), nil)
			}
		}
		return shape
	}
	return ctx.universe.ObjectType()
}
