package atm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cottand/qualis/qualifier"
)

// TypeKind is the structural kind of a Type
type TypeKind uint8

const (
	ArrayKind TypeKind = iota
	DeclaredKind
	ExecutableKind
	IntersectionKind
	NoneKind
	NullKind
	PrimitiveKind
	UnionKind
	TypevarKind
	WildcardKind

	numTypeKinds = int(iota)
)

var typeKindNames = [numTypeKinds]string{
	ArrayKind:        "Array",
	DeclaredKind:     "Declared",
	ExecutableKind:   "Executable",
	IntersectionKind: "Intersection",
	NoneKind:         "None",
	NullKind:         "Null",
	PrimitiveKind:    "Primitive",
	UnionKind:        "Union",
	TypevarKind:      "Typevar",
	WildcardKind:     "Wildcard",
}

func (k TypeKind) String() string {
	if int(k) >= numTypeKinds {
		return fmt.Sprintf("TypeKind(%d)", k)
	}
	return typeKindNames[k]
}

// Type is an annotated type: the structure of a type use together with
// its primary qualifiers, at most one per qualifier hierarchy.
//
// Each Type exclusively owns its components. Types returned by this
// package are fresh trees, and no exported operation mutates its inputs.
type Type interface {
	fmt.Stringer
	Kind() TypeKind
	// Qualifiers returns the primary qualifiers of this type
	Qualifiers() []qualifier.Qualifier
	// QualifierInHierarchy returns the primary qualifier in top's hierarchy
	QualifierInHierarchy(top qualifier.Qualifier) (qualifier.Qualifier, bool)
	annotations() *annotated
}

var (
	_ Type = (*ArrayType)(nil)
	_ Type = (*DeclaredType)(nil)
	_ Type = (*ExecutableType)(nil)
	_ Type = (*IntersectionType)(nil)
	_ Type = (*NoType)(nil)
	_ Type = (*NullType)(nil)
	_ Type = (*PrimitiveType)(nil)
	_ Type = (*UnionType)(nil)
	_ Type = (*TypeVariable)(nil)
	_ Type = (*WildcardType)(nil)
)

type annotated struct {
	quals []qualifier.Qualifier
}

func newAnnotated(quals []qualifier.Qualifier) annotated {
	a := annotated{}
	a.replaceQualifiers(quals)
	return a
}

func (a *annotated) annotations() *annotated { return a }

func (a *annotated) Qualifiers() []qualifier.Qualifier {
	return slices.Clone(a.quals)
}

func (a *annotated) QualifierInHierarchy(top qualifier.Qualifier) (qualifier.Qualifier, bool) {
	for _, q := range a.quals {
		if q.Kind().Top() == top.Kind().Top() {
			return q, true
		}
	}
	return qualifier.Absent, false
}

// replaceQualifier sets q as the qualifier in its hierarchy
func (a *annotated) replaceQualifier(q qualifier.Qualifier) {
	if q.IsAbsent() {
		return
	}
	for i, existing := range a.quals {
		if existing.Kind().Top() == q.Kind().Top() {
			a.quals[i] = q
			return
		}
	}
	a.quals = append(a.quals, q)
}

func (a *annotated) replaceQualifiers(quals []qualifier.Qualifier) {
	for _, q := range quals {
		a.replaceQualifier(q)
	}
}

// addMissingQualifiers adds the qualifiers of quals in hierarchies a has none for
func (a *annotated) addMissingQualifiers(quals []qualifier.Qualifier) {
	for _, q := range quals {
		if _, ok := a.QualifierInHierarchy(q); !ok {
			a.quals = append(a.quals, q)
		}
	}
}

func (a *annotated) clearQualifiers() {
	a.quals = nil
}

func (a *annotated) qualifierString() string {
	if len(a.quals) == 0 {
		return ""
	}
	sorted := slices.Clone(a.quals)
	slices.SortFunc(sorted, func(q1, q2 qualifier.Qualifier) int {
		return strings.Compare(q1.Kind().Name(), q2.Kind().Name())
	})
	return qualifier.Names(sorted) + " "
}

type ArrayType struct {
	annotated
	component Type
}

func NewArray(quals []qualifier.Qualifier, component Type) *ArrayType {
	return &ArrayType{annotated: newAnnotated(quals), component: deepCopy(component)}
}

func (t *ArrayType) Kind() TypeKind  { return ArrayKind }
func (t *ArrayType) Component() Type { return t.component }
func (t *ArrayType) String() string {
	return fmt.Sprintf("%v %s[]", t.component, t.qualifierString())
}

// DeclaredType is a use of a class, interface or enum declaration
type DeclaredType struct {
	annotated
	decl      *Decl
	args      []Type
	enclosing *DeclaredType
	// raw is true for uses of a generic declaration without explicit
	// type arguments. Raw types have either no arguments, or wildcards
	// marked as type arguments of a raw type.
	raw bool
}

// NewDeclared is a parameterized use of decl. A generic decl used
// without args is raw.
func NewDeclared(quals []qualifier.Qualifier, decl *Decl, args ...Type) *DeclaredType {
	t := &DeclaredType{
		annotated: newAnnotated(quals),
		decl:      decl,
		args:      copyAll(args),
		raw:       len(args) == 0 && len(decl.params) > 0,
	}
	if decl.enclosing != nil {
		t.enclosing = decl.enclosing.AsType()
	}
	return t
}

// NewInnerDeclared is a use of an inner class decl through the outer type
func NewInnerDeclared(quals []qualifier.Qualifier, outer *DeclaredType, decl *Decl, args ...Type) *DeclaredType {
	t := NewDeclared(quals, decl, args...)
	t.enclosing = deepCopy(outer).(*DeclaredType)
	return t
}

// NewRawDeclared is a raw use of decl. args, if any, should be wildcards
// marked with AsTypeArgOfRawType.
func NewRawDeclared(quals []qualifier.Qualifier, decl *Decl, args ...Type) *DeclaredType {
	t := NewDeclared(quals, decl, args...)
	t.raw = len(decl.params) > 0
	return t
}

func (t *DeclaredType) Kind() TypeKind           { return DeclaredKind }
func (t *DeclaredType) Decl() *Decl              { return t.decl }
func (t *DeclaredType) TypeArguments() []Type    { return slices.Clone(t.args) }
func (t *DeclaredType) Enclosing() *DeclaredType { return t.enclosing }
func (t *DeclaredType) IsRaw() bool              { return t.raw }

func (t *DeclaredType) String() string {
	sb := strings.Builder{}
	if t.enclosing != nil {
		sb.WriteString(t.enclosing.String())
		sb.WriteString(".")
	}
	sb.WriteString(t.qualifierString())
	sb.WriteString(t.decl.name)
	if len(t.args) > 0 {
		args := make([]string, 0, len(t.args))
		for _, arg := range t.args {
			args = append(args, arg.String())
		}
		sb.WriteString("<" + strings.Join(args, ", ") + ">")
	}
	return sb.String()
}

// ExecutableType is the type of a method or constructor
type ExecutableType struct {
	annotated
	elem     *Element
	typeVars []*TypeVariable
	receiver Type
	params   []Type
	ret      Type
	thrown   []Type
}

// NewExecutable builds the type of elem. receiver may be nil for constructors.
func NewExecutable(elem *Element, typeVars []*TypeVariable, receiver Type, ret Type, params ...Type) *ExecutableType {
	t := &ExecutableType{
		elem:   elem,
		params: copyAll(params),
		ret:    deepCopy(ret),
	}
	for _, tv := range typeVars {
		t.typeVars = append(t.typeVars, deepCopy(tv).(*TypeVariable))
	}
	if receiver != nil {
		t.receiver = deepCopy(receiver)
	}
	return t
}

// WithThrown returns a copy of t which declares thrown
func (t *ExecutableType) WithThrown(thrown ...Type) *ExecutableType {
	executable := deepCopy(t).(*ExecutableType)
	executable.thrown = copyAll(thrown)
	return executable
}

func (t *ExecutableType) Kind() TypeKind            { return ExecutableKind }
func (t *ExecutableType) Element() *Element         { return t.elem }
func (t *ExecutableType) TypeVars() []*TypeVariable { return slices.Clone(t.typeVars) }
func (t *ExecutableType) Receiver() Type            { return t.receiver }
func (t *ExecutableType) Params() []Type            { return slices.Clone(t.params) }
func (t *ExecutableType) Return() Type              { return t.ret }
func (t *ExecutableType) Thrown() []Type            { return slices.Clone(t.thrown) }

func (t *ExecutableType) String() string {
	params := make([]string, 0, len(t.params))
	for _, p := range t.params {
		params = append(params, p.String())
	}
	prefix := ""
	if len(t.typeVars) > 0 {
		vars := make([]string, 0, len(t.typeVars))
		for _, tv := range t.typeVars {
			vars = append(vars, tv.String())
		}
		prefix = "<" + strings.Join(vars, ", ") + "> "
	}
	return fmt.Sprintf("%s(%s) -> %v", prefix, strings.Join(params, ", "), t.ret)
}

type IntersectionType struct {
	annotated
	bounds []Type
}

func NewIntersection(quals []qualifier.Qualifier, bounds ...Type) *IntersectionType {
	return &IntersectionType{annotated: newAnnotated(quals), bounds: copyAll(bounds)}
}

func (t *IntersectionType) Kind() TypeKind { return IntersectionKind }
func (t *IntersectionType) Bounds() []Type { return slices.Clone(t.bounds) }
func (t *IntersectionType) String() string {
	bounds := make([]string, 0, len(t.bounds))
	for _, b := range t.bounds {
		bounds = append(bounds, b.String())
	}
	return t.qualifierString() + "(" + strings.Join(bounds, " & ") + ")"
}

// NoType stands for void, packages and the absence of a type
type NoType struct {
	annotated
	name string
}

func NewNoType(quals []qualifier.Qualifier, name string) *NoType {
	return &NoType{annotated: newAnnotated(quals), name: name}
}

func (t *NoType) Kind() TypeKind { return NoneKind }
func (t *NoType) Name() string   { return t.name }
func (t *NoType) String() string { return t.qualifierString() + t.name }

// NullType is the type of the null literal, below every reference type
type NullType struct {
	annotated
}

func NewNull(quals []qualifier.Qualifier) *NullType {
	return &NullType{annotated: newAnnotated(quals)}
}

func (t *NullType) Kind() TypeKind { return NullKind }
func (t *NullType) String() string { return t.qualifierString() + "null" }

type Primitive string

const (
	Boolean Primitive = "boolean"
	Byte    Primitive = "byte"
	Short   Primitive = "short"
	Int     Primitive = "int"
	Long    Primitive = "long"
	Char    Primitive = "char"
	Float   Primitive = "float"
	Double  Primitive = "double"
)

type PrimitiveType struct {
	annotated
	prim Primitive
}

func NewPrimitive(quals []qualifier.Qualifier, prim Primitive) *PrimitiveType {
	return &PrimitiveType{annotated: newAnnotated(quals), prim: prim}
}

func (t *PrimitiveType) Kind() TypeKind       { return PrimitiveKind }
func (t *PrimitiveType) Primitive() Primitive { return t.prim }
func (t *PrimitiveType) String() string       { return t.qualifierString() + string(t.prim) }

// UnionType is the type of a multi-catch parameter
type UnionType struct {
	annotated
	alternatives []*DeclaredType
}

func NewUnion(quals []qualifier.Qualifier, alternatives ...*DeclaredType) *UnionType {
	t := &UnionType{annotated: newAnnotated(quals)}
	for _, alt := range alternatives {
		t.alternatives = append(t.alternatives, deepCopy(alt).(*DeclaredType))
	}
	return t
}

func (t *UnionType) Kind() TypeKind                { return UnionKind }
func (t *UnionType) Alternatives() []*DeclaredType { return slices.Clone(t.alternatives) }
func (t *UnionType) String() string {
	alts := make([]string, 0, len(t.alternatives))
	for _, alt := range t.alternatives {
		alts = append(alts, alt.String())
	}
	return t.qualifierString() + "(" + strings.Join(alts, " | ") + ")"
}

// TypeVariable is a use of a type parameter.
//
// A TypeVariable that appears inside the bound of its own parameter, like
// T in T extends Comparable<T>, is a reference: its bounds are not
// stored, so that type trees stay finite. UpperBound and LowerBound
// expand references from the declaration on demand.
type TypeVariable struct {
	annotated
	param        *TypeParam
	upper, lower Type
	captured     bool
}

// NewTypeVariable is a use of param whose bounds are those declared by param
func NewTypeVariable(quals []qualifier.Qualifier, param *TypeParam) *TypeVariable {
	return &TypeVariable{
		annotated: newAnnotated(quals),
		param:     param,
		upper:     param.upperBound(),
		lower:     param.lowerBound(),
	}
}

// NewCapturedTypeVariable is a fresh type variable from capture conversion.
// A nil lower bound is the null type.
func NewCapturedTypeVariable(quals []qualifier.Qualifier, param *TypeParam, upper, lower Type) *TypeVariable {
	if lower == nil {
		lower = NewNull(nil)
	}
	return &TypeVariable{
		annotated: newAnnotated(quals),
		param:     param,
		upper:     deepCopy(upper),
		lower:     deepCopy(lower),
		captured:  true,
	}
}

func (t *TypeVariable) Kind() TypeKind    { return TypevarKind }
func (t *TypeVariable) Param() *TypeParam { return t.param }
func (t *TypeVariable) IsCaptured() bool  { return t.captured }

// IsReference is true when the bounds of t are not stored, see TypeVariable
func (t *TypeVariable) IsReference() bool { return t.upper == nil }

func (t *TypeVariable) UpperBound() Type {
	if t.upper != nil {
		return t.upper
	}
	return t.param.upperBound()
}

func (t *TypeVariable) LowerBound() Type {
	if t.lower != nil {
		return t.lower
	}
	return t.param.lowerBound()
}

// expand stores the declared bounds on a reference
func (t *TypeVariable) expand() {
	if t.upper == nil {
		t.upper = t.param.upperBound()
	}
	if t.lower == nil {
		t.lower = t.param.lowerBound()
	}
}

func (t *TypeVariable) String() string { return t.qualifierString() + t.param.name }

type WildcardType struct {
	annotated
	extends, super Type
	typeArgOfRaw   bool
	uninferred     bool
}

// NewWildcard is ? extends extends super super. A nil super is the null type.
func NewWildcard(quals []qualifier.Qualifier, extends, super Type) *WildcardType {
	if super == nil {
		super = NewNull(nil)
	}
	return &WildcardType{
		annotated: newAnnotated(quals),
		extends:   deepCopy(extends),
		super:     deepCopy(super),
	}
}

func (t *WildcardType) Kind() TypeKind           { return WildcardKind }
func (t *WildcardType) ExtendsBound() Type       { return t.extends }
func (t *WildcardType) SuperBound() Type         { return t.super }
func (t *WildcardType) IsTypeArgOfRawType() bool { return t.typeArgOfRaw }

// IsUninferredTypeArgument is true for wildcards standing for a type
// argument that inference could not determine
func (t *WildcardType) IsUninferredTypeArgument() bool { return t.uninferred }

// AsTypeArgOfRawType returns a copy of t marked as an argument of a raw type
func (t *WildcardType) AsTypeArgOfRawType() *WildcardType {
	w := deepCopy(t).(*WildcardType)
	w.typeArgOfRaw = true
	return w
}

// AsUninferred returns a copy of t marked as an uninferred type argument
func (t *WildcardType) AsUninferred() *WildcardType {
	w := deepCopy(t).(*WildcardType)
	w.uninferred = true
	return w
}

func (t *WildcardType) String() string {
	s := t.qualifierString() + "? extends " + t.extends.String()
	if t.super.Kind() != NullKind || len(t.super.Qualifiers()) > 0 {
		s += " super " + t.super.String()
	}
	return s
}

// Quals is shorthand for building qualifier lists
func Quals(quals ...qualifier.Qualifier) []qualifier.Qualifier {
	return quals
}
