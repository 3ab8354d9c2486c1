package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/f3rmion/aimpact/internal/animate"
	"github.com/f3rmion/aimpact/internal/results"
	"github.com/f3rmion/aimpact/internal/store"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show predictions recorded by the service",
	Long: `Show predictions recorded by 'aimpact serve', newest first.

With an ID, print every input and result of that one prediction.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", store.DefaultLimit, "number of predictions to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := store.Open(ctx, cfg.Server.HistoryDB)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 1 {
		rec, err := st.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), recordDetail(rec))
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	recs, err := st.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No predictions recorded yet.")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), historyTable(recs))
	return nil
}

func historyTable(recs []store.Record) string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4")).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(recs))
	impacts := make([]results.Impact, 0, len(recs))
	for _, r := range recs {
		impacts = append(impacts, results.ClassifyImpact(r.Result.Impact))
		rows = append(rows, []string{
			r.ID[:8],
			r.CreatedAt.Local().Format(time.DateTime),
			r.Input.Tool,
			animate.Format(r.Input.LastExamScore, results.ScoreDecimals),
			animate.Format(r.Result.ScoreWithAI, results.ScoreDecimals),
			passMark(r.Result.Passed),
			results.ImpactPrefix(r.Result.Impact) + animate.Format(r.Result.Impact, results.ImpactDecimals),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#3d5a80"))).
		Headers("ID", "WHEN", "TOOL", "LAST EXAM", "WITH AI", "PASS", "IMPACT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 6 && row >= 0 && row < len(impacts) {
				return cellStyle.Foreground(impacts[row].Color)
			}
			return cellStyle
		})

	return t.String()
}

func recordDetail(r store.Record) string {
	in := r.Input
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	impact := results.ClassifyImpact(r.Result.Impact)

	return fmt.Sprintf(`ID:                       %s
Recorded:                 %s

AI tool used:             %s
AI usage purpose:         %s
AI dependency score:      %s
AI-generated content %%:   %s
Last exam score:          %s
AI usage hours / day:     %s
Study consistency index:  %s
Sleep hours:              %s

Predicted score with AI:  %s (%s)
AI impact:                %s%s (%s)
`,
		r.ID, r.CreatedAt.Local().Format(time.DateTime),
		in.Tool, in.Purpose, num(in.Dependency), num(in.ContentPercentage),
		num(in.LastExamScore), num(in.UsageHours), num(in.StudyConsistency), num(in.SleepHours),
		animate.Format(r.Result.ScoreWithAI, results.ScoreDecimals), passMark(r.Result.Passed),
		results.ImpactPrefix(r.Result.Impact), animate.Format(r.Result.Impact, results.ImpactDecimals),
		impact.Text(),
	)
}

func passMark(passed bool) string {
	if passed {
		return results.PassedLabel
	}
	return results.NotPassedLabel
}
