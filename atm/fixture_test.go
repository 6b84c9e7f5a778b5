package atm_test

import (
	"testing"

	"github.com/cottand/qualis/atm"
	"github.com/cottand/qualis/lattice"
	"github.com/cottand/qualis/qualifier"
	"github.com/stretchr/testify/require"
)

// fixture is a small class library qualified by a Top > Mid > Bottom hierarchy
type fixture struct {
	ctx *atm.TypeCtx
	u   *atm.Universe

	top, mid, bottom, poly qualifier.Qualifier

	collection, list, arrayList, myList *atm.Decl
	// listE is the type parameter of List
	listE *atm.TypeParam

	exception, ioException, sqlException *atm.Decl

	// tParam is bounded by @Top Object and @Bottom null
	tParam *atm.TypeParam
}

func newFixture(t *testing.T, opts ...atm.CtxOption) *fixture {
	t.Helper()
	kinds, err := lattice.NewKindHierarchy([]lattice.Def{
		{Name: "Top", Top: true},
		{Name: "Mid", SubtypeOf: []string{"Top"}},
		{Name: "Bottom", SubtypeOf: []string{"Mid"}},
		{Name: "PolyQ", Polymorphic: true, PolymorphicTop: "Top"},
	})
	require.NoError(t, err)
	h := qualifier.NewNoPayload(kinds)
	u := atm.NewUniverse()

	f := &fixture{ctx: atm.NewTypeCtx(h, u, opts...), u: u}
	for name, q := range map[string]*qualifier.Qualifier{"Top": &f.top, "Mid": &f.mid, "Bottom": &f.bottom, "PolyQ": &f.poly} {
		found, ok := h.ByName(name)
		require.True(t, ok)
		*q = found
	}

	object := u.ObjectType()
	collectionE := atm.NewTypeParam("E", object)
	f.collection = atm.NewInterface("Collection", collectionE)

	f.listE = atm.NewTypeParam("E", object)
	f.list = atm.NewInterface("List", f.listE).
		Extends(atm.NewDeclared(nil, f.collection, atm.NewTypeVariable(nil, f.listE)))

	arrayListE := atm.NewTypeParam("E", object)
	f.arrayList = atm.NewClass("ArrayList", arrayListE).
		Extends(atm.NewDeclared(nil, f.list, atm.NewTypeVariable(nil, arrayListE)))

	// class MyList<T> extends ArrayList, with ArrayList used raw
	f.myList = atm.NewClass("MyList", atm.NewTypeParam("T", object)).
		Extends(atm.NewDeclared(nil, f.arrayList))

	f.exception = atm.NewClass("Exception")
	f.ioException = atm.NewClass("IOException").Extends(f.exception.AsType())
	f.sqlException = atm.NewClass("SQLException").Extends(f.exception.AsType())

	f.tParam = atm.NewTypeParam("T", u.ObjectType(f.top)).SetLowerQualifiers(f.bottom)
	return f
}

func (f *fixture) str(quals ...qualifier.Qualifier) *atm.DeclaredType {
	return f.u.StringType(quals...)
}

func (f *fixture) integer(quals ...qualifier.Qualifier) *atm.DeclaredType {
	return atm.NewDeclared(quals, f.u.Box(atm.Int))
}

func (f *fixture) listOf(quals []qualifier.Qualifier, arg atm.Type) *atm.DeclaredType {
	return atm.NewDeclared(quals, f.list, arg)
}

func (f *fixture) arrayListOf(quals []qualifier.Qualifier, arg atm.Type) *atm.DeclaredType {
	return atm.NewDeclared(quals, f.arrayList, arg)
}

func (f *fixture) typeVar(quals ...qualifier.Qualifier) *atm.TypeVariable {
	return atm.NewTypeVariable(quals, f.tParam)
}

func strs[T atm.Type](types []T) []string {
	res := make([]string, 0, len(types))
	for _, t := range types {
		res = append(res, t.String())
	}
	return res
}
