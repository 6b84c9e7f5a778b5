package cmd

import (
	"github.com/cottand/qualis/systems"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
)

func newLatticeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lattice system|file.yaml|file.toml",
		Short: "Print the kinds of a qualifier hierarchy and their lub and glb tables",
		Args:  cobra.ExactArgs(1),
		RunE:  runLattice,
	}
}

func runLattice(cmd *cobra.Command, args []string) error {
	s, err := systems.Load(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if *debug {
		if _, err := pretty.Fprintf(out, "%# v\n", s.File.Defs()); err != nil {
			return err
		}
	}
	return s.Hierarchy.Kinds().Dump(out)
}
