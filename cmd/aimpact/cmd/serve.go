package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/f3rmion/aimpact/internal/logging"
	"github.com/f3rmion/aimpact/internal/metrics"
	"github.com/f3rmion/aimpact/internal/model"
	"github.com/f3rmion/aimpact/internal/predict"
	"github.com/f3rmion/aimpact/internal/server"
	"github.com/f3rmion/aimpact/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prediction service",
	Long: `Serve predictions over HTTP.

Endpoints:
  POST /predict   score a student (JSON in, JSON out)
  GET  /options   tools and purposes the model knows
  GET  /healthz   liveness and model status
  GET  /metrics   Prometheus metrics

The service starts even when the model file is missing; /predict then
answers 500 until the model is trained and the service restarted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config, 127.0.0.1:5000)")
	serveCmd.Flags().String("model", "", "model file (default from config)")
	serveCmd.Flags().String("history", "", "history database (default from config)")
	serveCmd.Flags().Bool("no-history", false, "do not record served predictions")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.model_path", serveCmd.Flags().Lookup("model"))
	viper.BindPFlag("server.history_db", serveCmd.Flags().Lookup("history"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logging.Init(os.Stderr)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.Named("serve")
	mgr := metrics.NewManager()

	svc := predict.NewService(nil)
	if m, err := model.Load(cfg.Server.ModelPath); err != nil {
		log.Warn(ctx, "model not loaded, predictions will fail until it is trained",
			logging.String("path", cfg.Server.ModelPath), logging.Err(err))
	} else {
		svc = predict.NewService(m)
		log.Info(ctx, "model loaded",
			logging.String("path", cfg.Server.ModelPath),
			logging.Float64("r2", m.Metrics.R2),
			logging.Float64("mae", m.Metrics.MAE),
		)
	}
	mgr.SetModelLoaded(svc.Ready())

	opts := []server.Option{
		server.WithMetrics(mgr),
		server.WithLogger(logging.Named("server")),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		server.WithTimeout(cfg.Server.Timeout()),
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	if !noHistory && cfg.Server.HistoryDB != "" {
		st, err := store.Open(ctx, cfg.Server.HistoryDB)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer st.Close()
		opts = append(opts, server.WithHistory(st))
		log.Info(ctx, "recording history", logging.String("path", cfg.Server.HistoryDB))
	}

	return server.New(svc, opts...).Run(ctx, cfg.Server.Addr)
}
