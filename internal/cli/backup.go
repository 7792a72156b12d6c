package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	service "github.com/okian/brecher/internal/app"
	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every stored value as JSON.",
		Long: `Write every stored value as JSON, keyed by week label, person, day and
category. Without a file the backup goes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.withEngine(func(cmd *cobra.Command, args []string, engine *service.Engine) error {
			backup, err := engine.Export(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("create %s: %w", args[0], err)
				}
				defer f.Close()
				out = f
			}
			if err := writeBackup(out, backup); err != nil {
				return err
			}
			if len(args) == 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d weeks to %s\n", len(backup), args[0])
			}
			return nil
		}),
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a JSON backup.",
		Long: `Restore a JSON backup written by export. Unknown weeks, people, days or
categories reject the whole file before anything is written.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withEngine(func(cmd *cobra.Command, args []string, engine *service.Engine) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var backup service.Backup
			if err := json.Unmarshal(raw, &backup); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			n, err := engine.Import(cmd.Context(), backup)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %d weeks\n", n, len(backup))
			return nil
		}),
	}
}

func (a *app) initWeeksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-weeks",
		Short: "Create the blank cells of every configured season week.",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(func(cmd *cobra.Command, _ []string, engine *service.Engine) error {
			n, err := engine.InitializeWeeks(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d cells\n", n)
			return nil
		}),
	}
}

func writeBackup(w io.Writer, backup service.Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}
