package cmd_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/cottand/qualis/cmd"
	"github.com/cottand/qualis/qerr"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cmd.NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLattice(t *testing.T) {
	out, err := run(t, "lattice", "nullness")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "lattice_nullness", []byte(out))
}

func TestQueries(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"lub", "nullness", "non_null", "nullable"}, "@Nullable\n"},
		{[]string{"glb", "nullness", "@NonNull", "poly_null"}, "@NonNull\n"},
		{[]string{"subtype", "nullness", "non_null", "nullable"}, "true\n"},
		{[]string{"subtype", "nullness", "nullable", "non_null"}, "false\n"},
		{[]string{"lub", "minlen", "min_len(3)", "min_len(5)"}, "@MinLen(3)\n"},
		{[]string{"glb", "minlen", "min_len(3)", "MinLen(5)"}, "@MinLen(5)\n"},
		{[]string{"lub", "initialization", "initialized", "under_initialization"}, "@UnknownInitialization\n"},
	}
	for _, test := range tests {
		t.Run(test.args[0]+" "+test.args[2]+" "+test.args[3], func(t *testing.T) {
			out, err := run(t, test.args...)
			require.NoError(t, err)
			assert.Equal(t, test.expected, out)
		})
	}
}

func TestQueryErrors(t *testing.T) {
	_, err := run(t, "lub", "nullness", "non_null", "monotonic_non_null")
	assert.Equal(t, qerr.UnknownQualifier, qerr.CodeOf(err))

	_, err = run(t, "lub", "minlen", "min_len(3", "unknown_len")
	assert.ErrorContains(t, err, "malformed")

	_, err = run(t, "subtype", "units", "m", "s")
	assert.Equal(t, qerr.UnknownSystem, qerr.CodeOf(err))
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", "nullness", "../config/testdata/minlen.toml")
	require.Error(t, err, "minlen.toml needs payload ops registered only in config tests")
	assert.Equal(t, "ok nullness (nullness, 1 hierarchies)\n", out)

	out, err = run(t, "validate", "nullness", "minlen", "../config/testdata/initialization.yml")
	require.NoError(t, err)
	assert.Equal(t, "ok nullness (nullness, 1 hierarchies)\n"+
		"ok minlen (minlen, 1 hierarchies)\n"+
		"ok ../config/testdata/initialization.yml (initialization, 1 hierarchies)\n", out)

	out, err = run(t, "validate", "testdata/cycle.yaml", "nullness")
	require.Error(t, err)
	assert.Equal(t, "ok nullness (nullness, 1 hierarchies)\n", out)
	errs, ok := err.(*qerr.Errors)
	require.True(t, ok)
	require.Len(t, errs.Errors(), 1)
	assert.Equal(t, qerr.CycleInHierarchy, qerr.CodeOf(errs.Errors()[0]))
	assert.Contains(t, errs.Error(), "testdata/cycle.yaml")
}

func TestValidateReportsEveryFailure(t *testing.T) {
	out, err := run(t, "validate", "testdata/cycle.yaml", "units", "nullness")
	require.Error(t, err)
	assert.Equal(t, "ok nullness (nullness, 1 hierarchies)\n", out)

	errs, ok := err.(*qerr.Errors)
	require.True(t, ok)
	require.Len(t, errs.Errors(), 2)
	assert.Equal(t, qerr.CycleInHierarchy, qerr.CodeOf(errs.Errors()[0]))
	assert.Equal(t, qerr.UnknownSystem, qerr.CodeOf(errs.Errors()[1]))
}
