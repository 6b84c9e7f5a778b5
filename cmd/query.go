package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
	"github.com/cottand/qualis/systems"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLubCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "lub system q1 q2",
		Short:   "Print the least upper bound of two qualifiers",
		Example: "  qualis lub nullness non_null nullable\n  qualis lub minlen 'min_len(3)' 'min_len(5)'",
		Args:    cobra.ExactArgs(3),
		RunE: runQuery(func(h qualifier.Hierarchy, q1, q2 qualifier.Qualifier) (string, bool) {
			lub, ok := h.Lub(q1, q2)
			return lub.String(), ok
		}),
	}
}

func newGlbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "glb system q1 q2",
		Short: "Print the greatest lower bound of two qualifiers",
		Args:  cobra.ExactArgs(3),
		RunE: runQuery(func(h qualifier.Hierarchy, q1, q2 qualifier.Qualifier) (string, bool) {
			glb, ok := h.Glb(q1, q2)
			return glb.String(), ok
		}),
	}
}

func newSubtypeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subtype system sub super",
		Short: "Print whether sub is a subtype of super",
		Args:  cobra.ExactArgs(3),
		RunE: runQuery(func(h qualifier.Hierarchy, sub, super qualifier.Qualifier) (string, bool) {
			if h.Top(sub).Kind() != h.Top(super).Kind() {
				return "", false
			}
			return strconv.FormatBool(h.IsSubtype(sub, super)), true
		}),
	}
}

type query func(h qualifier.Hierarchy, q1, q2 qualifier.Qualifier) (string, bool)

func runQuery(q query) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := systems.Load(args[0])
		if err != nil {
			return err
		}
		q1, err := parseQualifier(s, args[1])
		if err != nil {
			return err
		}
		q2, err := parseQualifier(s, args[2])
		if err != nil {
			return err
		}
		res, ok := q(s.Hierarchy, q1, q2)
		if !ok {
			return errors.Errorf("%s and %s are in different hierarchies", q1, q2)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), res)
		return err
	}
}

// parseQualifier reads name or name(arg, ...), where integer arguments
// become ints and the rest stay strings
func parseQualifier(s *systems.System, text string) (qualifier.Qualifier, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "@")
	name, rest, hasArgs := strings.Cut(text, "(")
	var args []any
	if hasArgs {
		inner, ok := strings.CutSuffix(rest, ")")
		if !ok {
			return qualifier.Absent, errors.Errorf("malformed qualifier %q: missing )", text)
		}
		for _, arg := range strings.Split(inner, ",") {
			arg = strings.TrimSpace(arg)
			if n, err := strconv.Atoi(arg); err == nil {
				args = append(args, n)
			} else {
				args = append(args, arg)
			}
		}
	}
	q, ok := s.Qualifier(strings.TrimSpace(name), args...)
	if !ok {
		return qualifier.Absent, qerr.NewTypeSystem(qerr.UnknownQualifier, "no qualifier %s in system %s", name, s.Name)
	}
	return q, nil
}
