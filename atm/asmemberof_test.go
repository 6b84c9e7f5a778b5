package atm_test

import (
	"testing"

	"github.com/cottand/qualis/atm"
	"github.com/cottand/qualis/qualifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) listGet() (*atm.Element, *atm.ExecutableType) {
	elem := &atm.Element{Kind: atm.MethodElement, Name: "get", Enclosing: f.list}
	return elem, atm.NewExecutable(elem, nil, nil, atm.NewTypeVariable(nil, f.listE), atm.NewPrimitive(nil, atm.Int))
}

func returnOf(t *testing.T, member atm.Type) atm.Type {
	t.Helper()
	method, ok := member.(*atm.ExecutableType)
	require.True(t, ok, "%v is not a method", member)
	return method.Return()
}

func TestAsMemberOf(t *testing.T) {
	f := newFixture(t)
	elem, get := f.listGet()

	t.Run("type arguments of a supertype", func(t *testing.T) {
		res, err := f.ctx.AsMemberOf(f.arrayListOf(atm.Quals(f.top), f.str(f.mid)), elem, get)
		require.NoError(t, err)
		assert.Equal(t, "@Mid String", returnOf(t, res).String())
		assert.Equal(t, "E", returnOf(t, get).String(), "member type was mutated")
	})

	t.Run("qualifiers on the use win", func(t *testing.T) {
		field := &atm.Element{Kind: atm.FieldElement, Name: "first", Enclosing: f.list}
		res, err := f.ctx.AsMemberOf(f.listOf(nil, f.str(f.mid)), field, atm.NewTypeVariable(atm.Quals(f.bottom), f.listE))
		require.NoError(t, err)
		assert.Equal(t, "@Bottom String", res.String())
	})

	t.Run("static members are unchanged", func(t *testing.T) {
		static := &atm.Element{Kind: atm.MethodElement, Name: "of", Static: true, Enclosing: f.list}
		res, err := f.ctx.AsMemberOf(f.listOf(nil, f.str(f.mid)), static, get)
		require.NoError(t, err)
		assert.Same(t, get, res)
	})

	t.Run("raw receiver erases the member", func(t *testing.T) {
		res, err := f.ctx.AsMemberOf(atm.NewDeclared(atm.Quals(f.top), f.list), elem, get)
		require.NoError(t, err)
		assert.Equal(t, "Object", returnOf(t, res).String())
	})

	t.Run("clone of an array returns the array", func(t *testing.T) {
		clone := &atm.Element{Kind: atm.MethodElement, Name: "clone", Enclosing: f.u.Object}
		array := atm.NewArray(atm.Quals(f.mid), f.str(f.top))
		res, err := f.ctx.AsMemberOf(array, clone, atm.NewExecutable(clone, nil, nil, f.u.ObjectType()))
		require.NoError(t, err)
		assert.Equal(t, "@Top String @Mid []", returnOf(t, res).String())
	})

	t.Run("type variable receiver uses its bound", func(t *testing.T) {
		u := atm.NewTypeParam("U", f.listOf(nil, f.str(f.mid)))
		res, err := f.ctx.AsMemberOf(atm.NewTypeVariable(atm.Quals(f.top), u), elem, get)
		require.NoError(t, err)
		assert.Equal(t, "@Mid String", returnOf(t, res).String())
	})

	t.Run("wildcard receiver uses its extends bound", func(t *testing.T) {
		wildcard := atm.NewWildcard(nil, f.listOf(nil, f.str(f.bottom)), nil)
		res, err := f.ctx.AsMemberOf(wildcard, elem, get)
		require.NoError(t, err)
		assert.Equal(t, "@Bottom String", returnOf(t, res).String())
	})

	t.Run("type argument of a raw type has uninferred members", func(t *testing.T) {
		wildcard := atm.NewWildcard(nil, f.listOf(nil, f.str()), nil).AsTypeArgOfRawType()
		res, err := f.ctx.AsMemberOf(wildcard, elem, get)
		require.NoError(t, err)
		ret, ok := returnOf(t, res).(*atm.WildcardType)
		require.True(t, ok)
		assert.True(t, ret.IsUninferredTypeArgument())
		assert.True(t, ret.IsTypeArgOfRawType())
		assert.Equal(t, "Object", ret.ExtendsBound().String())
	})

	t.Run("members of inner classes see the outer type arguments", func(t *testing.T) {
		outerT := atm.NewTypeParam("T", f.u.ObjectType())
		outer := atm.NewClass("Outer", outerT)
		inner := atm.NewClass("Inner").InnerOf(outer)
		field := &atm.Element{Kind: atm.FieldElement, Name: "value", Enclosing: inner}

		receiver := atm.NewInnerDeclared(atm.Quals(f.top), atm.NewDeclared(nil, outer, f.str(f.mid)), inner)
		assert.Equal(t, "Outer<@Mid String>.@Top Inner", receiver.String())

		res, err := f.ctx.AsMemberOf(receiver, field, atm.NewTypeVariable(nil, outerT))
		require.NoError(t, err)
		assert.Equal(t, "@Mid String", res.String())
	})

	t.Run("package members are unchanged", func(t *testing.T) {
		pkg := &atm.Element{Kind: atm.PackageElement, Name: "java.util"}
		member := atm.NewNoType(nil, "package")
		res, err := f.ctx.AsMemberOf(f.str(f.mid), pkg, member)
		require.NoError(t, err)
		assert.Same(t, member, res)
	})
}

func TestAsMemberOfRunsHookOnce(t *testing.T) {
	var calls []string
	hook := func(member, receiver atm.Type, elem *atm.Element) atm.Type {
		calls = append(calls, elem.Name+" via "+receiver.String())
		return member
	}
	f := newFixture(t, atm.WithPostAsMemberOf(hook))
	elem, get := f.listGet()

	u := atm.NewTypeParam("U", f.listOf(nil, f.str(f.mid)))
	_, err := f.ctx.AsMemberOf(atm.NewTypeVariable(nil, u), elem, get)
	require.NoError(t, err)
	assert.Equal(t, []string{"get via U"}, calls)

	static := &atm.Element{Kind: atm.MethodElement, Name: "of", Static: true, Enclosing: f.list}
	_, err = f.ctx.AsMemberOf(f.listOf(nil, f.str()), static, get)
	require.NoError(t, err)
	assert.Len(t, calls, 1, "hook ran for a static member")
}

func TestAsMemberOfHookAdjustsQualifiers(t *testing.T) {
	var f *fixture
	// resolve PolyQ on the member to the receiver's qualifier
	hook := func(member, receiver atm.Type, _ *atm.Element) atm.Type {
		q, ok := receiver.QualifierInHierarchy(f.top)
		if !ok {
			return member
		}
		return atm.MapQualifiers(member, func(mq qualifier.Qualifier) qualifier.Qualifier {
			if mq.Equal(f.poly) {
				return q
			}
			return mq
		})
	}
	f = newFixture(t, atm.WithPostAsMemberOf(hook))
	field := &atm.Element{Kind: atm.FieldElement, Name: "name", Enclosing: f.exception}
	res, err := f.ctx.AsMemberOf(atm.NewDeclared(atm.Quals(f.bottom), f.exception), field, f.str(f.poly))
	require.NoError(t, err)
	assert.Equal(t, "@Bottom String", res.String())
}
