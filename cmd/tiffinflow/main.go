package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tiffinflow/relay/internal/admin"
	"github.com/tiffinflow/relay/internal/async"
	"github.com/tiffinflow/relay/internal/bot"
	"github.com/tiffinflow/relay/internal/catalog"
	"github.com/tiffinflow/relay/internal/config"
	"github.com/tiffinflow/relay/internal/logging"
	"github.com/tiffinflow/relay/internal/metrics"
	"github.com/tiffinflow/relay/internal/whatsapp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("config")
	}

	logger := logging.New(cfg.Log)
	for _, w := range cfg.Warnings() {
		logger.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("tiffinflow: stopped with error")
	}
	logger.Info().Msg("tiffinflow: stopped")
}

// run serves until ctx is done or the listener fails, then drains
// in-flight deliveries.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	metrics.MustRegister()

	var (
		err       error
		store     catalog.Store
		boltStore *catalog.BoltStore
	)
	switch cfg.StoreDriver {
	case config.StoreBolt:
		boltStore, err = catalog.NewBoltStore(filepath.Join(cfg.DataDir, "tiffinflow.db"))
		if err != nil {
			return err
		}
		defer boltStore.Close()
		store = boltStore
	default:
		store = catalog.NewFirebaseStore(cfg.StoreBaseURL, cfg.StoreAuth)
	}

	waClient := whatsapp.NewClient(cfg.WAAPIBase, cfg.WAPhoneNumberID, cfg.WAAccessToken)
	runner := async.NewRunner()

	botHandler := bot.NewHandler(waClient, store, logger)
	webhookHandler := whatsapp.NewWebhookHandler(cfg.WAVerifyToken, cfg.WAAppSecret, botHandler, runner, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/webhook", webhookHandler.HandleVerify)
	r.Post("/webhook", webhookHandler.HandleIncoming)

	if boltStore != nil && cfg.AdminToken != "" {
		r.Mount("/api/menus", admin.NewHandler(boltStore, cfg.AdminToken, logger).Routes())
	} else if cfg.AdminToken != "" {
		logger.Warn().Msg("ADMIN_TOKEN is set but the admin API needs STORE_DRIVER=bolt")
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.StoreDriver).
			Str("verify_token", logging.Redact(cfg.WAVerifyToken)).
			Msg("tiffinflow: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("tiffinflow: shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return runner.Wait(shutdownCtx)
	})

	return g.Wait()
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
