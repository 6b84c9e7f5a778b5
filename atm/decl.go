package atm

import (
	"sync/atomic"

	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
)

var paramCounter atomic.Uint64

// TypeParam is a type parameter of a generic declaration or method
type TypeParam struct {
	id         uint64
	name       string
	bound      Type
	lowerQuals []qualifier.Qualifier
}

// NewTypeParam declares a type parameter. A nil bound must be set with
// SetBound before the parameter is used, which is how recursive bounds
// like T extends Comparable<T> are declared.
func NewTypeParam(name string, bound Type) *TypeParam {
	p := &TypeParam{id: paramCounter.Add(1), name: name}
	if bound != nil {
		p.bound = deepCopy(bound)
	}
	return p
}

func (p *TypeParam) Name() string { return p.name }

// Bound is the declared upper bound
func (p *TypeParam) Bound() Type { return p.bound }

func (p *TypeParam) SetBound(bound Type) *TypeParam {
	p.bound = deepCopy(bound)
	return p
}

// SetLowerQualifiers sets the qualifiers of the implicit null lower bound
func (p *TypeParam) SetLowerQualifiers(quals ...qualifier.Qualifier) *TypeParam {
	p.lowerQuals = quals
	return p
}

// Ref is a use of p inside a bound. Its bounds are expanded on demand.
func (p *TypeParam) Ref(quals ...qualifier.Qualifier) *TypeVariable {
	return &TypeVariable{annotated: newAnnotated(quals), param: p}
}

func (p *TypeParam) upperBound() Type {
	if p.bound == nil {
		qerr.Bugf(qerr.Uninitialized, "type parameter %s used before its bound was set", p.name)
	}
	return deepCopy(p.bound)
}

func (p *TypeParam) lowerBound() Type {
	return NewNull(p.lowerQuals)
}

func (p *TypeParam) String() string { return p.name }

type DeclKind uint8

const (
	ClassDecl DeclKind = iota
	InterfaceDecl
	EnumDecl
)

func (k DeclKind) String() string {
	switch k {
	case ClassDecl:
		return "class"
	case InterfaceDecl:
		return "interface"
	case EnumDecl:
		return "enum"
	}
	return "unknown"
}

// Decl is a class, interface or enum declaration
type Decl struct {
	kind       DeclKind
	name       string
	params     []*TypeParam
	supertypes []*DeclaredType
	// enclosing is set for inner classes, whose instances carry the type
	// arguments of their outer instance
	enclosing *Decl
	unboxed   Primitive
}

func newDecl(kind DeclKind, name string, params []*TypeParam) *Decl {
	return &Decl{kind: kind, name: name, params: params}
}

func NewClass(name string, params ...*TypeParam) *Decl {
	return newDecl(ClassDecl, name, params)
}

func NewInterface(name string, params ...*TypeParam) *Decl {
	return newDecl(InterfaceDecl, name, params)
}

// NewEnum declares an enum, which implicitly extends Enum of itself
func NewEnum(name string) *Decl {
	return newDecl(EnumDecl, name, nil)
}

// Extends appends the declared direct supertypes of d. Their type
// arguments may refer to the parameters of d.
func (d *Decl) Extends(supertypes ...*DeclaredType) *Decl {
	for _, super := range supertypes {
		d.supertypes = append(d.supertypes, deepCopy(super).(*DeclaredType))
	}
	return d
}

// InnerOf makes d an inner class of outer
func (d *Decl) InnerOf(outer *Decl) *Decl {
	d.enclosing = outer
	return d
}

func (d *Decl) Kind() DeclKind             { return d.kind }
func (d *Decl) Name() string               { return d.name }
func (d *Decl) Params() []*TypeParam       { return d.params }
func (d *Decl) Enclosing() *Decl           { return d.enclosing }
func (d *Decl) IsGeneric() bool            { return len(d.params) > 0 }
func (d *Decl) String() string             { return d.name }
func (d *Decl) Unboxed() (Primitive, bool) { return d.unboxed, d.unboxed != "" }

// AsType is the type of the declaration itself, parameterized by
// uses of its own type parameters
func (d *Decl) AsType() *DeclaredType {
	args := make([]Type, 0, len(d.params))
	for _, p := range d.params {
		args = append(args, NewTypeVariable(nil, p))
	}
	return NewDeclared(nil, d, args...)
}

type ElementKind uint8

const (
	FieldElement ElementKind = iota
	MethodElement
	ConstructorElement
	ParameterElement
	LocalVariableElement
	TypeParameterElement
	PackageElement
	InstanceInitElement
	StaticInitElement
	OtherElement
)

// Element is a member looked up through a receiver type
type Element struct {
	Kind   ElementKind
	Name   string
	Static bool
	// Enclosing declares the member
	Enclosing *Decl
}

// Universe holds the library declarations the type operations rely on
type Universe struct {
	Object       *Decl
	String       *Decl
	Cloneable    *Decl
	Serializable *Decl
	Comparable   *Decl
	Enum         *Decl
	Number       *Decl

	boxes map[Primitive]*Decl
}

// NewUniverse declares the library types
func NewUniverse() *Universe {
	u := &Universe{
		Object:       NewClass("Object"),
		Cloneable:    NewInterface("Cloneable"),
		Serializable: NewInterface("Serializable"),
		boxes:        map[Primitive]*Decl{},
	}
	object := u.Object.AsType()

	comparableT := NewTypeParam("T", object)
	u.Comparable = NewInterface("Comparable", comparableT)

	u.String = NewClass("String")
	u.String.Extends(u.Serializable.AsType(), NewDeclared(nil, u.Comparable, NewDeclared(nil, u.String)))

	enumE := NewTypeParam("E", nil)
	u.Enum = NewClass("Enum", enumE)
	enumE.SetBound(NewDeclared(nil, u.Enum, enumE.Ref()))
	u.Enum.Extends(NewDeclared(nil, u.Comparable, enumE.Ref()), u.Serializable.AsType())

	u.Number = NewClass("Number").Extends(u.Serializable.AsType())

	boxed := []struct {
		prim    Primitive
		name    string
		numeric bool
	}{
		{Boolean, "Boolean", false},
		{Byte, "Byte", true},
		{Short, "Short", true},
		{Int, "Integer", true},
		{Long, "Long", true},
		{Char, "Character", false},
		{Float, "Float", true},
		{Double, "Double", true},
	}
	for _, b := range boxed {
		decl := NewClass(b.name)
		decl.unboxed = b.prim
		if b.numeric {
			decl.Extends(u.Number.AsType())
		} else {
			decl.Extends(u.Serializable.AsType())
		}
		decl.Extends(NewDeclared(nil, u.Comparable, NewDeclared(nil, decl)))
		u.boxes[b.prim] = decl
	}
	return u
}

// Box is the declaration of the boxed class of prim
func (u *Universe) Box(prim Primitive) *Decl {
	decl, ok := u.boxes[prim]
	if !ok {
		qerr.Bugf(qerr.ShapeMismatch, "no boxed class for %s", prim)
	}
	return decl
}

func (u *Universe) ObjectType(quals ...qualifier.Qualifier) *DeclaredType {
	return NewDeclared(quals, u.Object)
}

func (u *Universe) StringType(quals ...qualifier.Qualifier) *DeclaredType {
	return NewDeclared(quals, u.String)
}

// isArraySupertype is true for the declarations every array type extends
func (u *Universe) isArraySupertype(decl *Decl) bool {
	return decl == u.Object || decl == u.Cloneable || decl == u.Serializable
}
