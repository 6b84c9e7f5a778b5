package atm_test

import (
	"testing"

	"github.com/cottand/qualis/atm"
	"github.com/cottand/qualis/qualifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectSupertypes(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name     string
		t        atm.Type
		expected []string
	}{
		{
			name:     "class implementing an interface extends Object first",
			t:        f.arrayListOf(atm.Quals(f.mid), f.str(f.bottom)),
			expected: []string{"@Mid Object", "@Mid List<@Bottom String>"},
		},
		{
			name:     "supertypes of raw types are erased",
			t:        atm.NewDeclared(atm.Quals(f.mid), f.arrayList),
			expected: []string{"@Mid Object", "@Mid List"},
		},
		{
			name:     "enum",
			t:        atm.NewDeclared(atm.Quals(f.mid), atm.NewEnum("Color")),
			expected: []string{"@Mid Enum<Color>"},
		},
		{
			name:     "class extending a class",
			t:        atm.NewDeclared(atm.Quals(f.top), f.ioException),
			expected: []string{"@Top Exception"},
		},
		{
			name:     "Object",
			t:        f.u.ObjectType(f.top),
			expected: nil,
		},
		{
			name:     "array",
			t:        atm.NewArray(atm.Quals(f.bottom), f.str(f.top)),
			expected: []string{"@Bottom Object", "@Bottom Cloneable", "@Bottom Serializable"},
		},
		{
			name:     "type variable",
			t:        f.typeVar(f.mid),
			expected: []string{"@Top Object"},
		},
		{
			name:     "primitive",
			t:        atm.NewPrimitive(atm.Quals(f.mid), atm.Int),
			expected: []string{"@Mid Integer"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			supers, err := f.ctx.DirectSupertypes(test.t)
			require.NoError(t, err)
			if test.expected == nil {
				assert.Empty(t, supers)
				return
			}
			assert.Equal(t, test.expected, strs(supers))
		})
	}
}

func TestAllSupertypes(t *testing.T) {
	f := newFixture(t)
	supers, err := f.ctx.AllSupertypes(f.arrayListOf(nil, f.str(f.mid)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Object", "List<@Mid String>", "Collection<@Mid String>"}, strs(supers))

	supers, err = f.ctx.AllSupertypes(f.integer(f.top))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"@Top Number",
		"@Top Comparable<Integer>",
		"@Top Object",
		"@Top Serializable",
	}, strs(supers))
}

func TestErased(t *testing.T) {
	f := newFixture(t)

	erased, err := f.ctx.Erased(f.listOf(atm.Quals(f.mid), f.str(f.top)))
	require.NoError(t, err)
	assert.Equal(t, "@Mid List", erased.String())
	assert.True(t, erased.(*atm.DeclaredType).IsRaw())

	erased, err = f.ctx.Erased(f.typeVar(f.mid))
	require.NoError(t, err)
	assert.Equal(t, "@Top Object", erased.String())

	erased, err = f.ctx.Erased(atm.NewArray(atm.Quals(f.mid), f.listOf(nil, f.str())))
	require.NoError(t, err)
	assert.Equal(t, "List @Mid []", erased.String())
}

func TestIsErasedSubtype(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name       string
		sub, super atm.Type
		expected   bool
	}{
		{"through interfaces", f.arrayListOf(nil, f.str()), atm.NewDeclared(nil, f.collection, f.integer()), true},
		{"unrelated", f.str(), f.listOf(nil, f.str()), false},
		{"everything extends Object", f.listOf(nil, f.str()), f.u.ObjectType(), true},
		{"null", atm.NewNull(nil), f.str(), true},
		{"array of subtypes", atm.NewArray(nil, f.str()), atm.NewArray(nil, f.u.ObjectType()), true},
		{"primitive arrays are invariant", atm.NewArray(nil, atm.NewPrimitive(nil, atm.Int)), atm.NewArray(nil, atm.NewPrimitive(nil, atm.Long)), false},
		{"type variable through its bound", f.typeVar(), f.u.ObjectType(), true},
		{"union when every alternative is", atm.NewUnion(nil,
			atm.NewDeclared(nil, f.ioException), atm.NewDeclared(nil, f.sqlException)), f.exception.AsType(), true},
		{"intersection when any bound is", atm.NewIntersection(nil, f.str(), f.exception.AsType()), f.exception.AsType(), true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, err := f.ctx.IsErasedSubtype(test.sub, test.super)
			require.NoError(t, err)
			assert.Equal(t, test.expected, res)
		})
	}
}

func TestTypesAreCopiedOnConstruction(t *testing.T) {
	f := newFixture(t)
	arg := f.str(f.mid)
	list := f.listOf(atm.Quals(f.top), arg)
	assert.NotSame(t, arg, list.TypeArguments()[0])

	mapped := atm.MapQualifiers(list, func(qualifier.Qualifier) qualifier.Qualifier {
		return f.bottom
	})
	assert.Equal(t, "@Bottom List<@Bottom String>", mapped.String())
	assert.Equal(t, "@Top List<@Mid String>", list.String())

	qualified := atm.Qualified(list, f.mid)
	assert.Equal(t, "@Mid List<@Mid String>", qualified.String())
	assert.Equal(t, "@Top List<@Mid String>", list.String())
}

func TestWalk(t *testing.T) {
	f := newFixture(t)
	var visited []string
	for typ := range atm.Walk(f.listOf(atm.Quals(f.top), atm.NewArray(nil, f.str(f.mid)))) {
		visited = append(visited, typ.String())
	}
	assert.Equal(t, []string{"@Top List<@Mid String []>", "@Mid String []", "@Mid String"}, visited)
}
