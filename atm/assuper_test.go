package atm_test

import (
	"testing"

	"github.com/cottand/qualis/atm"
	"github.com/cottand/qualis/qerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsSuper(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name     string
		t, super atm.Type
		expected string
	}{
		{
			name:     "class to interface",
			t:        f.arrayListOf(atm.Quals(f.top), f.str(f.mid)),
			super:    f.listOf(nil, f.str()),
			expected: "@Top List<@Mid String>",
		},
		{
			name:     "through two supertypes",
			t:        f.arrayListOf(atm.Quals(f.mid), f.str(f.bottom)),
			super:    atm.NewDeclared(nil, f.collection, f.str()),
			expected: "@Mid Collection<@Bottom String>",
		},
		{
			name:     "boxing",
			t:        atm.NewPrimitive(atm.Quals(f.mid), atm.Int),
			super:    f.integer(),
			expected: "@Mid Integer",
		},
		{
			name:     "unboxing",
			t:        f.integer(f.mid),
			super:    atm.NewPrimitive(nil, atm.Int),
			expected: "@Mid int",
		},
		{
			name:     "string conversion",
			t:        f.integer(f.bottom),
			super:    f.str(),
			expected: "@Bottom String",
		},
		{
			name:     "array to Object",
			t:        atm.NewArray(atm.Quals(f.mid), f.str(f.top)),
			super:    f.u.ObjectType(),
			expected: "@Mid Object",
		},
		{
			name:     "covariant arrays",
			t:        atm.NewArray(atm.Quals(f.mid), f.str(f.bottom)),
			super:    atm.NewArray(nil, f.u.ObjectType()),
			expected: "@Bottom Object @Mid []",
		},
		{
			name:     "declared to type variable",
			t:        f.str(f.mid),
			super:    f.typeVar(),
			expected: "@Mid T",
		},
		{
			name:     "declared to wildcard",
			t:        f.str(f.mid),
			super:    atm.NewWildcard(nil, f.u.ObjectType(), nil),
			expected: "@Mid ? extends @Mid Object super @Mid null",
		},
		{
			name:     "type variable to its bound",
			t:        f.typeVar(f.mid),
			super:    f.u.ObjectType(),
			expected: "@Mid Object",
		},
		{
			name:     "enum to Comparable",
			t:        atm.NewDeclared(atm.Quals(f.mid), atm.NewEnum("Color")),
			super:    atm.NewDeclared(nil, f.u.Comparable, f.u.ObjectType()),
			expected: "@Mid Comparable<Color>",
		},
		{
			name: "union takes the lub of its alternatives",
			t: atm.NewUnion(nil,
				atm.NewDeclared(atm.Quals(f.bottom), f.ioException),
				atm.NewDeclared(atm.Quals(f.mid), f.sqlException)),
			super:    f.exception.AsType(),
			expected: "@Mid Exception",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before := test.t.String()
			res, err := f.ctx.AsSuper(test.t, test.super)
			require.NoError(t, err)
			assert.Equal(t, test.expected, res.String())
			assert.Equal(t, before, test.t.String(), "input was mutated")
		})
	}
}

func TestAsSuperToTypeVariableSetsBounds(t *testing.T) {
	f := newFixture(t)
	res, err := f.ctx.AsSuper(f.str(f.mid), f.typeVar())
	require.NoError(t, err)
	tv := res.(*atm.TypeVariable)
	assert.Equal(t, "@Mid Object", tv.UpperBound().String())
	assert.Equal(t, "@Mid null", tv.LowerBound().String())
}

func TestAsSuperIsIdempotent(t *testing.T) {
	f := newFixture(t)
	types := []atm.Type{
		f.listOf(atm.Quals(f.top), f.str(f.mid)),
		f.typeVar(f.bottom),
		atm.NewArray(atm.Quals(f.mid), f.integer(f.top)),
		atm.NewPrimitive(atm.Quals(f.bottom), atm.Long),
		atm.NewWildcard(atm.Quals(f.mid), f.str(f.top), nil),
	}
	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			same, err := f.ctx.AsSuper(typ, typ)
			require.NoError(t, err)
			assert.Equal(t, typ.String(), same.String())
			assert.NotSame(t, typ, same)

			again, err := f.ctx.AsSuper(typ, same)
			require.NoError(t, err)
			assert.Equal(t, typ.String(), again.String())
		})
	}
}

func TestAsSuperOfUnrelatedTypesIsABug(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctx.AsSuper(f.str(f.mid), f.listOf(nil, f.str()))
	require.Error(t, err)
	assert.True(t, qerr.IsBug(err))
	assert.Equal(t, qerr.NotASubtype, qerr.CodeOf(err))
}

func TestCastedAsSuper(t *testing.T) {
	f := newFixture(t)

	t.Run("null takes the shape of the supertype", func(t *testing.T) {
		res, err := f.ctx.CastedAsSuper(atm.NewNull(atm.Quals(f.bottom)), f.listOf(atm.Quals(f.top), f.str(f.mid)))
		require.NoError(t, err)
		assert.Equal(t, "@Bottom List<@Mid String>", res.String())
	})

	t.Run("enum values keep their qualifiers as Enum<E>", func(t *testing.T) {
		enumE := f.u.Enum.Params()[0]
		enumE.SetBound(atm.NewDeclared(atm.Quals(f.bottom), f.u.Enum, enumE.Ref()))
		color := atm.NewEnum("Color")
		// E as seen from outside Enum, with a wider bound than declared
		e := atm.NewCapturedTypeVariable(nil, enumE, atm.NewDeclared(atm.Quals(f.top), f.u.Enum, enumE.Ref()), nil)
		enumOfE := atm.NewDeclared(nil, f.u.Enum, e)

		res, err := f.ctx.CastedAsSuper(atm.NewDeclared(atm.Quals(f.mid), color), enumOfE)
		require.NoError(t, err)
		assert.Equal(t, "@Mid Enum<E>", res.String())
		arg, ok := res.(*atm.DeclaredType).TypeArguments()[0].(*atm.TypeVariable)
		require.True(t, ok)
		assert.Empty(t, arg.Qualifiers())
		assert.Equal(t, "@Bottom Enum<E>", arg.UpperBound().String())
		assert.Equal(t, "@Top Enum<E>", e.UpperBound().String(), "super was mutated")
	})

	t.Run("enum values as a declared Enum argument", func(t *testing.T) {
		enumE := f.u.Enum.Params()[0]
		enumE.SetBound(atm.NewDeclared(atm.Quals(f.bottom), f.u.Enum, enumE.Ref()))
		color := atm.NewEnum("Color")
		enumOfColor := atm.NewDeclared(atm.Quals(f.top), f.u.Enum, atm.NewDeclared(atm.Quals(f.top), color))
		res, err := f.ctx.CastedAsSuper(atm.NewDeclared(atm.Quals(f.mid), color), enumOfColor)
		require.NoError(t, err)
		assert.Equal(t, "@Mid Enum<@Bottom Color>", res.String())
	})

	t.Run("type arguments lost to a raw supertype are recovered", func(t *testing.T) {
		sub := atm.NewDeclared(atm.Quals(f.top), f.myList, f.str(f.mid))

		plain, err := f.ctx.AsSuper(sub, f.listOf(nil, f.str()))
		require.NoError(t, err)
		assert.True(t, plain.(*atm.DeclaredType).IsRaw())
		assert.Empty(t, plain.(*atm.DeclaredType).TypeArguments())

		res, err := f.ctx.CastedAsSuper(sub, f.listOf(nil, f.str()))
		require.NoError(t, err)
		declared := res.(*atm.DeclaredType)
		require.Len(t, declared.TypeArguments(), 1)
		arg, ok := declared.TypeArguments()[0].QualifierInHierarchy(f.top)
		require.True(t, ok)
		assert.Equal(t, f.mid, arg)
		assert.Equal(t, "@Top List<@Mid String>", res.String())
	})

	t.Run("unmatched raw parameters are not recovered", func(t *testing.T) {
		object := f.u.ObjectType()
		pairList := atm.NewClass("PairList", atm.NewTypeParam("A", object), atm.NewTypeParam("B", object)).
			Extends(atm.NewDeclared(nil, f.arrayList))
		sub := atm.NewDeclared(atm.Quals(f.top), pairList, f.str(f.mid), f.str(f.bottom))
		res, err := f.ctx.CastedAsSuper(sub, f.listOf(nil, f.str()))
		require.NoError(t, err)
		assert.Empty(t, res.(*atm.DeclaredType).TypeArguments())
	})
}

func TestEnumSupertypeArgumentTakesBoundQualifiers(t *testing.T) {
	f := newFixture(t)
	color := atm.NewEnum("Color")
	sub := atm.NewDeclared(atm.Quals(f.mid), color)

	res, err := f.ctx.AsSuper(sub, atm.NewDeclared(nil, f.u.Enum, atm.NewDeclared(nil, color)))
	require.NoError(t, err)
	assert.Equal(t, "@Mid Enum<Color>", res.String(), "an unqualified bound leaves the argument alone")

	enumE := f.u.Enum.Params()[0]
	enumE.SetBound(atm.NewDeclared(atm.Quals(f.top), f.u.Enum, enumE.Ref()))

	res, err = f.ctx.AsSuper(sub, atm.NewDeclared(nil, f.u.Enum, atm.NewDeclared(nil, color)))
	require.NoError(t, err)
	assert.Equal(t, "@Mid Enum<@Top Color>", res.String())
	arg, ok := res.(*atm.DeclaredType).TypeArguments()[0].QualifierInHierarchy(f.top)
	require.True(t, ok)
	assert.True(t, arg.Equal(f.top))

	supers, err := f.ctx.DirectSupertypes(sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"@Mid Enum<@Top Color>"}, strs(supers))
}
