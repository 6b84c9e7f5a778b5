package cmd

import (
	"log/slog"

	"github.com/cottand/qualis/internal/log"
	"github.com/cottand/qualis/qerr"
	"github.com/spf13/cobra"
)

var (
	logLevel *int
	debug    *bool
)

// NewRootCmd returns the qualis command with every subcommand attached
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "qualis [subcommand]",
		Short:        "qualis\n inspect and query type qualifier hierarchies",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetLevel(slog.Level(*logLevel))
			qerr.PrintStacks = *debug
		},
	}
	logLevel = root.PersistentFlags().IntP("log-level", "l", int(slog.LevelError), "log level")
	debug = root.PersistentFlags().Bool("debug", false, "print internal structures and error stacks")

	root.AddCommand(newLatticeCmd())
	root.AddCommand(newLubCmd(), newGlbCmd(), newSubtypeCmd())
	root.AddCommand(newValidateCmd())
	return root
}
