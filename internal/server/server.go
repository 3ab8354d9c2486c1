// Package server exposes the prediction service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/f3rmion/aimpact/internal/logging"
	"github.com/f3rmion/aimpact/internal/metrics"
	"github.com/f3rmion/aimpact/internal/predict"
	"github.com/f3rmion/aimpact/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// MsgModelNotLoaded is the error body returned while no model is loaded.
const MsgModelNotLoaded = "Model not loaded. Please run aimpact train."

// MsgInvalidInput prefixes the error body of a request that does not decode.
const MsgInvalidInput = "Invalid input format: "

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 16
)

// History records served predictions.
type History interface {
	Add(ctx context.Context, in predict.Input, res predict.Result) (store.Record, error)
}

// Server routes HTTP requests to the prediction service.
type Server struct {
	svc     *predict.Service
	metrics *metrics.Manager
	history History
	log     logging.Logger

	origins []string
	timeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics instruments requests and serves GET /metrics.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHistory records every successful prediction.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAllowedOrigins sets the CORS origins. Empty means any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithTimeout bounds the time spent on a request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a server over svc.
func New(svc *predict.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		log:     logging.Discard(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.metrics.SetModelLoaded(svc.Ready())
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.RealIP, s.observe, middleware.Recoverer)
	mux.Use(middleware.Timeout(s.timeout))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", s.handleHealth)
	mux.Get("/options", s.wrap(s.handleOptions))
	mux.Post("/predict", s.wrap(s.handlePredict))
	if s.metrics != nil {
		mux.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return mux
}

// observe logs and measures each request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		took := time.Since(start)

		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(route, r.Method, status, took)
		}
		s.log.Debug(r.Context(), "request",
			logging.String("request_id", middleware.GetReqID(r.Context())),
			logging.String("method", r.Method),
			logging.String("route", route),
			logging.Int("status", status),
			logging.Any("took", took),
		)
	})
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap turns handler errors into {"success": false, "error": ...} bodies.
func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		var inputErr *predict.InputError
		status, msg := http.StatusBadRequest, err.Error()
		switch {
		case errors.Is(err, predict.ErrModelNotLoaded):
			status, msg = http.StatusInternalServerError, MsgModelNotLoaded
		case errors.As(err, &inputErr):
			msg = MsgInvalidInput + inputErr.Detail
		case isDecodeError(err):
			msg = MsgInvalidInput + err.Error()
		}

		s.log.Warn(r.Context(), "request failed",
			logging.String("request_id", middleware.GetReqID(r.Context())),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Err(err),
		)
		writeJSON(w, status, predict.Response{Success: false, Error: msg})
	}
}

func isDecodeError(err error) bool {
	var (
		syntax    *json.SyntaxError
		typeError *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)
	return errors.As(err, &syntax) || errors.As(err, &typeError) || errors.As(err, &tooLarge) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"model_loaded": s.svc.Ready(),
	})
}

// GET /options
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) error {
	opts, err := s.svc.Options()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, opts)
	return nil
}

// POST /predict
// Body: predict.Request; absent fields take their defaults.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) error {
	if !s.svc.Ready() {
		s.recordError(metrics.OutcomeError)
		return predict.ErrModelNotLoaded
	}

	var req predict.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.recordError(metrics.OutcomeInvalid)
		return err
	}
	in := req.Input()

	start := time.Now()
	preds, err := s.svc.Predict(r.Context(), in)
	if err != nil {
		s.recordError(metrics.OutcomeError)
		return fmt.Errorf("prediction: %w", err)
	}
	res := preds.Result()

	if s.metrics != nil {
		s.metrics.RecordPrediction(res.Passed, res.Impact, time.Since(start))
	}
	if s.history != nil {
		if _, err := s.history.Add(r.Context(), in, res); err != nil {
			s.log.Error(r.Context(), "recording prediction", logging.Err(err))
		}
	}

	s.log.Info(r.Context(), "prediction served",
		logging.String("request_id", middleware.GetReqID(r.Context())),
		logging.String("tool", in.Tool),
		logging.Float64("score_with_ai", res.ScoreWithAI),
		logging.Float64("impact", res.Impact),
		logging.String("passed", preds.PassedWithAI),
	)

	writeJSON(w, http.StatusOK, predict.Response{Success: true, Predictions: &preds})
	return nil
}

func (s *Server) recordError(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordPredictionError(outcome)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "server listening", logging.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.log.Info(context.Background(), "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
