package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/aimpact/internal/animate"
	"github.com/f3rmion/aimpact/internal/client"
	"github.com/f3rmion/aimpact/internal/config"
	"github.com/f3rmion/aimpact/internal/logging"
	"github.com/f3rmion/aimpact/internal/model"
	"github.com/f3rmion/aimpact/internal/predict"
	"github.com/f3rmion/aimpact/internal/results"
	"github.com/f3rmion/aimpact/internal/tui"
	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run one prediction and animate the result in the terminal",
	Long: `Run one prediction without the interactive form.

By default the request goes to the prediction service at --endpoint.
With --model the model file is scored locally instead.

Examples:
  aimpact predict --last-exam 62 --usage-hours 2.5 --tool ChatGPT
  aimpact predict --model ~/.config/aimpact/model.yaml --plain`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

var (
	predictLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a8dadc"))
	predictValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffe66d")).Bold(true)
)

func init() {
	rootCmd.AddCommand(predictCmd)

	d := predict.DefaultInput()
	predictCmd.Flags().String("tool", d.Tool, "AI tool used")
	predictCmd.Flags().String("purpose", d.Purpose, "AI usage purpose")
	predictCmd.Flags().Float64("dependency", d.Dependency, "AI dependency score (1-10)")
	predictCmd.Flags().Float64("content", d.ContentPercentage, "AI-generated content percentage")
	predictCmd.Flags().Float64("last-exam", d.LastExamScore, "last exam score")
	predictCmd.Flags().Float64("usage-hours", d.UsageHours, "AI usage hours per day")
	predictCmd.Flags().Float64("consistency", d.StudyConsistency, "study consistency index")
	predictCmd.Flags().Float64("sleep", d.SleepHours, "sleep hours")

	predictCmd.Flags().String("model", "", "score with this model file instead of the service")
	predictCmd.Flags().Bool("plain", false, "print the final values without animating")
}

func runPredict(cmd *cobra.Command, args []string) error {
	logging.Init(os.Stderr)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in := inputFromFlags(cmd)
	ctx := cmd.Context()
	modelPath, _ := cmd.Flags().GetString("model")
	res, err := predictOnce(ctx, cfg, modelPath, in)
	if err != nil {
		return err
	}

	plain, _ := cmd.Flags().GetBool("plain")
	return showResult(ctx, cmd.OutOrStdout(), cfg, res, plain)
}

func inputFromFlags(cmd *cobra.Command) predict.Input {
	in := predict.DefaultInput()
	f := cmd.Flags()
	in.Tool, _ = f.GetString("tool")
	in.Purpose, _ = f.GetString("purpose")
	in.Dependency, _ = f.GetFloat64("dependency")
	in.ContentPercentage, _ = f.GetFloat64("content")
	in.LastExamScore, _ = f.GetFloat64("last-exam")
	in.UsageHours, _ = f.GetFloat64("usage-hours")
	in.StudyConsistency, _ = f.GetFloat64("consistency")
	in.SleepHours, _ = f.GetFloat64("sleep")
	return in
}

// predictOnce scores in locally when modelPath is set, otherwise through
// the service.
func predictOnce(ctx context.Context, cfg *config.Config, modelPath string, in predict.Input) (predict.Result, error) {
	if modelPath != "" {
		m, err := model.Load(modelPath)
		if err != nil {
			return predict.Result{}, err
		}
		p, err := predict.NewService(m).Predict(ctx, in)
		if err != nil {
			return predict.Result{}, fmt.Errorf("prediction failed: %w", err)
		}
		return p.Result(), nil
	}

	res, err := client.New(cfg.Client.Endpoint, cfg.Client.Timeout()).Predict(ctx, in)
	if err != nil {
		return predict.Result{}, errors.New(tui.AlertText(err))
	}
	return res, nil
}

// showResult counts the three numbers up on one line, then prints the pass
// and impact labels.
func showResult(ctx context.Context, w io.Writer, cfg *config.Config, res predict.Result, plain bool) error {
	panel := results.NewPanel(animate.NewDriver(), results.DefaultTiming())
	panel.Show(res)

	if plain {
		_, err := io.WriteString(w, panel.Summary())
		return err
	}

	counter := cfg.Animation.Counter()
	score := animate.NewNumber(0, res.ScoreWithAI, counter, animate.WithDecimals(results.ScoreDecimals))
	reference := animate.NewNumber(0, res.ReferenceScore, counter, animate.WithDecimals(results.ScoreDecimals))
	impact := animate.NewNumber(0, res.Impact, counter,
		animate.WithDecimals(results.ImpactDecimals),
		animate.WithPrefix(results.ImpactPrefix(res.Impact)),
	)

	err := animate.Play(ctx, cfg.Animation.Frame(), func(frame []string) {
		fmt.Fprintf(w, "\r%s %s   %s %s   %s %s",
			predictLabelStyle.Render("With AI:"), predictValueStyle.Render(frame[0]),
			predictLabelStyle.Render("Last exam:"), predictValueStyle.Render(frame[1]),
			predictLabelStyle.Render("Impact:"), predictValueStyle.Render(frame[2]),
		)
	}, score, reference, impact)
	fmt.Fprintln(w)
	if err != nil {
		return err
	}

	impactStyle := lipgloss.NewStyle().Foreground(panel.Impact().Color).Bold(true)
	fmt.Fprintln(w, panel.PassedLabel())
	fmt.Fprintln(w, impactStyle.Render(panel.ImpactLabel()))
	return nil
}
