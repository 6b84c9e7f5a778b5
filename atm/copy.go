package atm

import (
	"iter"
	"slices"

	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
	"github.com/cottand/qualis/util"
)

// rebuild returns a copy of t in which every component has been rebuilt
// and then passed to f. Type variable references are copied as references.
func rebuild(t Type, f func(Type) Type) Type {
	if t == nil {
		return nil
	}
	quals := slices.Clone(t.annotations().quals)
	var res Type
	switch t := t.(type) {
	case *ArrayType:
		res = &ArrayType{annotated: annotated{quals}, component: rebuild(t.component, f)}
	case *DeclaredType:
		declared := &DeclaredType{annotated: annotated{quals}, decl: t.decl, raw: t.raw}
		for _, arg := range t.args {
			declared.args = append(declared.args, rebuild(arg, f))
		}
		if t.enclosing != nil {
			declared.enclosing = rebuild(t.enclosing, f).(*DeclaredType)
		}
		res = declared
	case *ExecutableType:
		executable := &ExecutableType{
			annotated: annotated{quals},
			elem:      t.elem,
			receiver:  rebuild(t.receiver, f),
			params:    rebuildAll(t.params, f),
			ret:       rebuild(t.ret, f),
			thrown:    rebuildAll(t.thrown, f),
		}
		for _, tv := range t.typeVars {
			rebuilt, ok := rebuild(tv, f).(*TypeVariable)
			if !ok {
				qerr.Bugf(qerr.ShapeMismatch, "method type variable %v was rebuilt as a non type variable", tv)
			}
			executable.typeVars = append(executable.typeVars, rebuilt)
		}
		res = executable
	case *IntersectionType:
		res = &IntersectionType{annotated: annotated{quals}, bounds: rebuildAll(t.bounds, f)}
	case *NoType:
		res = &NoType{annotated: annotated{quals}, name: t.name}
	case *NullType:
		res = &NullType{annotated: annotated{quals}}
	case *PrimitiveType:
		res = &PrimitiveType{annotated: annotated{quals}, prim: t.prim}
	case *UnionType:
		union := &UnionType{annotated: annotated{quals}}
		for _, alt := range t.alternatives {
			union.alternatives = append(union.alternatives, rebuild(alt, f).(*DeclaredType))
		}
		res = union
	case *TypeVariable:
		res = &TypeVariable{
			annotated: annotated{quals},
			param:     t.param,
			upper:     rebuild(t.upper, f),
			lower:     rebuild(t.lower, f),
			captured:  t.captured,
		}
	case *WildcardType:
		res = &WildcardType{
			annotated:    annotated{quals},
			extends:      rebuild(t.extends, f),
			super:        rebuild(t.super, f),
			typeArgOfRaw: t.typeArgOfRaw,
			uninferred:   t.uninferred,
		}
	default:
		qerr.Bugf(qerr.UnhandledCombo, "unknown type %T", t)
	}
	return f(res)
}

func rebuildAll(types []Type, f func(Type) Type) []Type {
	if types == nil {
		return nil
	}
	res := make([]Type, 0, len(types))
	for _, t := range types {
		res = append(res, rebuild(t, f))
	}
	return res
}

func identity(t Type) Type { return t }

func deepCopy(t Type) Type {
	return rebuild(t, identity)
}

func copyAll(types []Type) []Type {
	return rebuildAll(types, identity)
}

// DeepCopy returns a copy of t that shares no components with it
func DeepCopy[T Type](t T) T {
	return deepCopy(t).(T)
}

// Qualified returns a copy of t with quals as its primary qualifiers,
// replacing any existing qualifier in the same hierarchies
func Qualified[T Type](t T, quals ...qualifier.Qualifier) T {
	res := deepCopy(t)
	res.annotations().replaceQualifiers(quals)
	return res.(T)
}

// MapQualifiers returns a copy of t where every qualifier, in every
// component, is replaced by f of it
func MapQualifiers(t Type, f func(qualifier.Qualifier) qualifier.Qualifier) Type {
	return rebuild(t, func(node Type) Type {
		a := node.annotations()
		for i, q := range a.quals {
			a.quals[i] = f(q)
		}
		return node
	})
}

// stripQualifiers returns a copy of t without qualifiers anywhere
func stripQualifiers(t Type) Type {
	return rebuild(t, func(node Type) Type {
		node.annotations().clearQualifiers()
		return node
	})
}

// children are the direct components of t
func children(t Type) iter.Seq[Type] {
	return func(yield func(Type) bool) {
		var components []Type
		switch t := t.(type) {
		case *ArrayType:
			components = []Type{t.component}
		case *DeclaredType:
			components = slices.Clone(t.args)
			if t.enclosing != nil {
				components = append(components, t.enclosing)
			}
		case *ExecutableType:
			for _, tv := range t.typeVars {
				components = append(components, tv)
			}
			components = append(components, t.receiver, t.ret)
			components = append(components, t.params...)
			components = append(components, t.thrown...)
		case *IntersectionType:
			components = t.bounds
		case *UnionType:
			for _, alt := range t.alternatives {
				components = append(components, alt)
			}
		case *TypeVariable:
			components = []Type{t.upper, t.lower}
		case *WildcardType:
			components = []Type{t.extends, t.super}
		}
		for _, c := range components {
			if c == nil {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// Walk visits t and its components depth-first, without expanding type
// variable references
func Walk(t Type) iter.Seq[Type] {
	return func(yield func(Type) bool) {
		var pending util.Stack[Type]
		pending.Push(t)
		for next, ok := pending.Pop(); ok; next, ok = pending.Pop() {
			if !yield(next) {
				return
			}
			for c := range util.Reverse(slices.Collect(children(next))) {
				pending.Push(c)
			}
		}
	}
}
