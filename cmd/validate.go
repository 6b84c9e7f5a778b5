package cmd

import (
	"fmt"
	"runtime"

	"github.com/cottand/qualis/internal/log"
	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/systems"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate system|file.yaml|file.toml...",
		Short: "Check that hierarchy files describe valid qualifier systems",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	loaded := make([]*systems.System, len(args))
	failed := make([]error, len(args))

	g := errgroup.Group{}
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, arg := range args {
		g.Go(func() error {
			loaded[i], failed[i] = systems.Load(arg)
			return errors.Wrap(failed[i], arg)
		})
	}
	// Wait reports the first failure, failed keeps them all
	waitErr := g.Wait()

	var errs *qerr.Errors
	out := cmd.OutOrStdout()
	for i, arg := range args {
		if failed[i] != nil {
			errs = errs.With(errors.Wrap(failed[i], arg))
			continue
		}
		if _, err := fmt.Fprintf(out, "ok %s (%s, %d hierarchies)\n", arg, loaded[i].Name, loaded[i].Hierarchy.Width()); err != nil {
			return err
		}
	}
	if waitErr != nil {
		log.DefaultLogger.Debug("validation failed", "section", "config", "first", waitErr, "errors", errs)
		return errs
	}
	return nil
}
