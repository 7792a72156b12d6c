package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	service "github.com/okian/brecher/internal/app"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/types"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

// Score colors for the console.
var (
	winnerColor   = color.New(color.FgGreen, color.Bold)
	negativeColor = color.New(color.FgRed)
	hiddenColor   = color.New(color.FgYellow)
)

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics and the reveal status.",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(func(cmd *cobra.Command, _ []string, engine *service.Engine) error {
			st, err := engine.Stats(cmd.Context())
			if err != nil {
				return err
			}
			status := engine.Reveal()

			updated := "never"
			if !st.LastUpdated.IsZero() {
				updated = st.LastUpdated.Format(time.RFC3339)
			}
			visible := "yes"
			if !status.ScoreboardVisible {
				visible = hiddenColor.Sprint("no")
			}
			return renderTable(cmd.OutOrStdout(), []string{"Key", "Value"}, [][]string{
				{"Backend", st.Backend},
				{"Records", strconv.Itoa(st.TotalRecords)},
				{"Weeks", strconv.Itoa(st.TotalWeeks)},
				{"Persons", strconv.Itoa(st.TotalPersons)},
				{"Last updated", updated},
				{"Rules", engine.Rules().Version()},
				{"Official week", status.OfficialWeek.Label()},
				{"Scoreboard visible", visible},
			}, tw.AlignLeft)
		}),
	}
}

func (a *app) scoreboardCmd() *cobra.Command {
	var week int
	cmd := &cobra.Command{
		Use:   "scoreboard",
		Short: "Print the monthly scoreboard, or one week's with --week.",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(func(cmd *cobra.Command, _ []string, engine *service.Engine) error {
			var (
				entries []types.Entry
				title   string
				err     error
			)
			if week > 0 {
				w := model.WeekID(week)
				entries, err = engine.GetWeeklyScoreboard(cmd.Context(), w)
				title = w.Label()
			} else {
				entries, err = engine.GetMonthlyScoreboard(cmd.Context())
				title = "Revealed weeks up to " + engine.Reveal().OfficialWeek.Label()
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), title)
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rank := strconv.Itoa(e.Rank)
				if e.Hidden {
					rank = "-"
				}
				rows = append(rows, []string{rank, string(e.Person), formatScore(e)})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Rank", "Person", "Score"}, rows, tw.AlignRight)
		}),
	}
	cmd.Flags().IntVar(&week, "week", 0, "Calendar week to show instead of the monthly ranking")
	return cmd
}

func formatScore(e types.Entry) string {
	if e.Hidden {
		return hiddenColor.Sprint("hidden")
	}
	text := strconv.FormatFloat(e.Score, 'f', 2, 64)
	switch {
	case e.Score < 0:
		return negativeColor.Sprint(text)
	case e.Rank == 1 && e.Score > 0:
		return winnerColor.Sprint(text)
	default:
		return text
	}
}

func renderTable(w io.Writer, headers []string, rows [][]string, align tw.Align) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = align
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
