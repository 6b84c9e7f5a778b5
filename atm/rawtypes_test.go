package atm

import (
	"testing"

	"github.com/cottand/qualis/lattice"
	"github.com/cottand/qualis/qualifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCtx(t *testing.T) *TypeCtx {
	t.Helper()
	kinds, err := lattice.NewKindHierarchy([]lattice.Def{
		{Name: "Top", Top: true},
		{Name: "Bottom", SubtypeOf: []string{"Top"}},
	})
	require.NoError(t, err)
	return NewTypeCtx(qualifier.NewNoPayload(kinds), NewUniverse())
}

func TestTypeArgumentIndices(t *testing.T) {
	ctx := newTestCtx(t)
	object := ctx.universe.ObjectType()

	a, b := NewTypeParam("A", object), NewTypeParam("B", object)
	pair := NewInterface("Pair", a, b)

	x, y := NewTypeParam("X", object), NewTypeParam("Y", object)
	swapped := NewClass("Swapped", x, y).Extends(NewDeclared(nil, pair, y.Ref(), x.Ref()))
	assert.Equal(t, []indexPair{{sub: 0, super: 1}, {sub: 1, super: 0}}, typeArgumentIndices(ctx, swapped, pair))

	z := NewTypeParam("Z", object)
	fixed := NewClass("Fixed", z).Extends(NewDeclared(nil, pair, ctx.universe.StringType(), z.Ref()))
	assert.Equal(t, []indexPair{{sub: 0, super: 1}}, typeArgumentIndices(ctx, fixed, pair))

	w := NewTypeParam("W", object)
	rawPair := NewClass("RawPair", w).Extends(NewDeclared(nil, pair))
	assert.Equal(t, []indexPair{{sub: 0, super: 0}}, typeArgumentIndices(ctx, rawPair, pair))

	assert.Nil(t, typeArgumentIndices(ctx, ctx.universe.String, pair))
}

func TestLubVisitsBoundsOnce(t *testing.T) {
	ctx := newTestCtx(t)
	v := &lubVisitor{ctx: ctx, logger: ctx.sectionLogger("lub")}
	wildcard := NewWildcard(nil, ctx.universe.ObjectType(), nil)
	assert.True(t, v.markVisited(wildcard))
	assert.False(t, v.markVisited(wildcard))
	assert.True(t, v.markVisited(DeepCopy(wildcard)), "visited types are compared by identity")
}

func TestSubstituteKeepsUseQualifiers(t *testing.T) {
	ctx := newTestCtx(t)
	top, _ := ctx.h.ByName("Top")
	bottom, _ := ctx.h.ByName("Bottom")
	p := NewTypeParam("P", ctx.universe.ObjectType())

	mapping := emptyMapping().Set(p, Type(ctx.universe.StringType(top)))
	res := substitute(NewArray(nil, NewTypeVariable(Quals(bottom), p)), mapping)
	assert.Equal(t, "@Bottom String []", res.String())

	res = substitute(NewArray(nil, NewTypeVariable(nil, p)), mapping)
	assert.Equal(t, "@Top String []", res.String())
}
