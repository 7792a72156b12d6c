// Package cli implements brecherctl, the admin command line for backups,
// store statistics and scoreboards.
package cli

import (
	"context"
	"errors"

	"github.com/fatih/color"
	service "github.com/okian/brecher/internal/app"
	"github.com/okian/brecher/internal/config"
	"github.com/spf13/cobra"
)

// ErrNoEngine is returned when the command tree was built without an opener.
var ErrNoEngine = errors.New("no engine opener")

// Opener returns a started engine for the commands to use.
type Opener func(ctx context.Context) (*service.Engine, error)

// ConfigOpener loads the process configuration and opens its engine.
func ConfigOpener(ctx context.Context) (*service.Engine, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	return service.OpenEngine(ctx, cfg)
}

type app struct {
	open    Opener
	noColor bool
}

// NewRootCommand builds brecherctl with every subcommand attached.
func NewRootCommand(open Opener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:           "brecherctl",
		Short:         "Administer a Brecher league store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		a.exportCmd(),
		a.importCmd(),
		a.statsCmd(),
		a.scoreboardCmd(),
		a.initWeeksCmd(),
	)
	return root
}

type engineRunE func(cmd *cobra.Command, args []string, engine *service.Engine) error

// withEngine opens the engine for a single command run and stops it
// afterwards. Help and completion never reach it, so they never touch the
// store.
func (a *app) withEngine(run engineRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if a.open == nil {
			return ErrNoEngine
		}
		engine, err := a.open(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Stop()
		return run(cmd, args, engine)
	}
}
