// Package cmd contains all CLI commands for aimpact.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/f3rmion/aimpact/internal/animate"
	"github.com/f3rmion/aimpact/internal/client"
	"github.com/f3rmion/aimpact/internal/config"
	"github.com/f3rmion/aimpact/internal/logging"
	"github.com/f3rmion/aimpact/internal/results"
	"github.com/f3rmion/aimpact/internal/tui"
	"github.com/f3rmion/aimpact/internal/tui/bigchar"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aimpact",
	Short: "Predict how AI use changes a student's exam score",
	Long: `aimpact predicts a student's exam score with AI assistance and compares
it with their last exam.

  aimpact train data.csv   fit the model
  aimpact serve            run the prediction service
  aimpact predict          one-shot prediction in the terminal
  aimpact history          recent predictions served

Running 'aimpact' without arguments launches the interactive form, which
talks to the prediction service at --endpoint.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/aimpact/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output (the TUI logs to the configured log file)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("endpoint", "", "prediction service URL")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("client.endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
}

// initConfig resolves the config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.Set("config_file", cfgFile)
	} else {
		dir, err := config.GetConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}
		viper.Set("config_file", filepath.Join(dir, config.FileName))
	}

	viper.SetEnvPrefix("AIMPACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// getConfigFile returns the configuration file path.
func getConfigFile() string {
	return viper.GetString("config_file")
}

// loadConfig reads the config file and applies flag and env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigFile())
	if err != nil {
		return nil, err
	}

	override := func(key string, dst *string) {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	override("client.endpoint", &cfg.Client.Endpoint)
	override("log.level", &cfg.Log.Level)
	override("server.addr", &cfg.Server.Addr)
	override("server.model_path", &cfg.Server.ModelPath)
	override("server.history_db", &cfg.Server.HistoryDB)

	if err := logging.SetLevelString(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// panelTiming converts the configured pacing.
func panelTiming(cfg *config.Config) results.Timing {
	a := cfg.Animation
	return results.Timing{
		Counter:        a.Counter(),
		Bar:            a.Bar(),
		BarDelay:       a.BarDelay(),
		ImpactBarDelay: a.ImpactBarDelay(),
	}
}

// runTUI launches the interactive form.
func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// the terminal belongs to the TUI; logs go to a file or nowhere
	if viper.GetBool("verbose") {
		if err := config.EnsureConfigDir(filepath.Dir(cfg.Log.File)); err != nil {
			return fmt.Errorf("creating log dir: %w", err)
		}
		f, err := tea.LogToFile(cfg.Log.File, "aimpact")
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logging.Init(f)
	} else {
		logging.Init(io.Discard)
	}

	if cfg.UI.Font != "" && !bigchar.LoadFont(cfg.UI.Font) {
		logging.Named("tui").Warn(cmd.Context(), "font not usable, searching system fonts",
			logging.String("font", cfg.UI.Font))
	}

	driver := animate.NewDriver(animate.WithFrameInterval(cfg.Animation.Frame()))
	panel := results.NewPanel(driver, panelTiming(cfg))
	panel.SetBigScore(cfg.UI.BigScore)

	c := client.New(cfg.Client.Endpoint, cfg.Client.Timeout())

	p := tea.NewProgram(
		tui.NewApp(c, panel, logging.Named("tui")),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}
