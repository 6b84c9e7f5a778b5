package config_test

import (
	"testing"

	"github.com/cottand/qualis/config"
	"github.com/cottand/qualis/lattice"
	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lengthOps orders qualifiers with payload by decreasing first argument
type lengthOps struct{}

func (lengthOps) IsSubtype(sub, super qualifier.Qualifier) bool {
	return sub.Arg(0).(int) >= super.Arg(0).(int)
}

func (lengthOps) Lub(q1, q2 qualifier.Qualifier, kind *lattice.Kind) qualifier.Qualifier {
	return qualifier.New(kind, min(q1.Arg(0).(int), q2.Arg(0).(int)))
}

func (lengthOps) Glb(q1, q2 qualifier.Qualifier, kind *lattice.Kind) qualifier.Qualifier {
	return qualifier.New(kind, max(q1.Arg(0).(int), q2.Arg(0).(int)))
}

func (lengthOps) Instance(kind *lattice.Kind) qualifier.Qualifier {
	return qualifier.New(kind, 0)
}

func init() {
	config.RegisterPayloadOps("test-minlen", lengthOps{})
}

func TestLoadYAML(t *testing.T) {
	f, err := config.Load("testdata/nullness.yaml")
	require.NoError(t, err)
	assert.Equal(t, "nullness", f.Name)
	assert.Equal(t, "testdata/nullness.yaml", f.Path())

	expected := []lattice.Def{
		{Name: "Nullable", Top: true},
		{Name: "NonNull", SubtypeOf: []string{"Nullable"}},
		{Name: "PolyNull", Polymorphic: true},
	}
	if diff := cmp.Diff(expected, f.Defs()); diff != "" {
		t.Errorf("unexpected defs (-want +got):\n%s", diff)
	}

	h, err := f.Build()
	require.NoError(t, err)
	require.IsType(t, &qualifier.ElementFree{}, h)
	nonNull, ok := h.ByName("NonNull")
	require.True(t, ok)
	nullable, ok := h.ByName("Nullable")
	require.True(t, ok)
	assert.True(t, h.IsSubtype(nonNull, nullable))
	poly, ok := h.Polymorphic(nullable)
	require.True(t, ok)
	assert.Equal(t, "PolyNull", poly.Kind().Name())
}

func TestLoadTOMLWithPayload(t *testing.T) {
	f, err := config.Load("testdata/minlen.toml")
	require.NoError(t, err)
	assert.Equal(t, "test-minlen", f.PayloadOps)

	h, err := f.Build()
	require.NoError(t, err)
	require.IsType(t, &qualifier.Mixed{}, h)

	minLen := h.Kinds().KindByName("MinLen")
	require.NotNil(t, minLen)
	three, five := qualifier.New(minLen, 3), qualifier.New(minLen, 5)
	assert.True(t, h.IsSubtype(five, three))
	lub, ok := h.Lub(three, five)
	require.True(t, ok)
	assert.True(t, lub.Equal(three), lub.String())
}

func TestDynamicBottom(t *testing.T) {
	f, err := config.Load("testdata/initialization.yml")
	require.NoError(t, err)
	assert.Equal(t, "initialization", f.Name, "name defaults to the file name")

	kinds, err := f.Kinds()
	require.NoError(t, err)
	require.Len(t, kinds.Bottoms(), 1)
	assert.Equal(t, "InitBottom", kinds.Bottoms()[0].Name())
	require.Len(t, kinds.Tops(), 1)
	assert.Equal(t, "UnknownInitialization", kinds.Tops()[0].Name())

	lub, ok := kinds.Lub(kinds.KindByName("UnderInitialization"), kinds.KindByName("Initialized"))
	require.True(t, ok)
	assert.Equal(t, "UnknownInitialization", lub.Name())
}

func TestCanonicalName(t *testing.T) {
	for in, expected := range map[string]string{
		"non_null":  "NonNull",
		"NonNull":   "NonNull",
		"poly-null": "PolyNull",
		"min_len":   "MinLen",
		"nullable":  "Nullable",
	} {
		assert.Equal(t, expected, config.CanonicalName(in), in)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load("testdata/nullness.json")
	assert.True(t, qerr.IsTypeSystemError(err))
	assert.Equal(t, qerr.InvalidFile, qerr.CodeOf(err))

	_, err = config.Load("testdata/missing.yaml")
	require.Error(t, err)
	assert.False(t, qerr.IsTypeSystemError(err))
	assert.Contains(t, err.Error(), "testdata/missing.yaml")
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		format config.Format
		data   string
		code   qerr.Code
	}{
		{
			name:   "unknown field",
			format: config.YAML,
			data:   "qualifiers:\n  - name: a\n    subtypes: [b]\n",
			code:   qerr.InvalidFile,
		},
		{
			name:   "unknown toml key",
			format: config.TOML,
			data:   "[[qualifiers]]\nname = \"a\"\ntop = true\n",
			code:   qerr.InvalidFile,
		},
		{
			name:   "malformed",
			format: config.YAML,
			data:   "qualifiers: [",
			code:   qerr.InvalidFile,
		},
		{
			name:   "no qualifiers",
			format: config.TOML,
			data:   "name = \"empty\"\n",
			code:   qerr.InvalidFile,
		},
		{
			name:   "cycle",
			format: config.YAML,
			data:   "qualifiers:\n  - name: top\n  - name: a\n    subtype_of: [top, b]\n  - name: b\n    subtype_of: [a]\n",
			code:   qerr.CycleInHierarchy,
		},
		{
			name:   "unknown supertype",
			format: config.YAML,
			data:   "qualifiers:\n  - name: top\n  - name: a\n    subtype_of: [nope]\n",
			code:   qerr.UnknownQualifier,
		},
		{
			name:   "payload without ops",
			format: config.YAML,
			data:   "qualifiers:\n  - name: top\n  - name: len\n    subtype_of: [top]\n    payload: true\n",
			code:   qerr.UnknownPayloadOps,
		},
		{
			name:   "unregistered ops",
			format: config.YAML,
			data:   "payload_ops: nope\nqualifiers:\n  - name: top\n  - name: len\n    subtype_of: [top]\n    payload: true\n",
			code:   qerr.UnknownPayloadOps,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, err := config.Parse([]byte(test.data), test.format)
			if err == nil {
				_, err = f.Build()
			}
			require.Error(t, err)
			assert.True(t, qerr.IsTypeSystemError(err), err.Error())
			assert.Equal(t, test.code, qerr.CodeOf(err), err.Error())
		})
	}
}
