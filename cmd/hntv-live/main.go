package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alanniew/hntv-live/handlers"
	"github.com/alanniew/hntv-live/internal/auth"
	"github.com/alanniew/hntv-live/internal/config"
	"github.com/alanniew/hntv-live/internal/epg"
	"github.com/alanniew/hntv-live/internal/hntv"
	"github.com/alanniew/hntv-live/internal/mailer"
	"github.com/alanniew/hntv-live/internal/scheduler"
	"github.com/alanniew/hntv-live/internal/snapshot"
)

func main() {
	// Initialize structured logging
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Setup slog for the packages that take an injected logger
	slogHandler := slog.NewJSONHandler(os.Stdout, nil)
	slogger := slog.New(slogHandler)
	slog.SetDefault(slogger)

	// Command-line overrides for the most common settings
	pflag.String("host", "", "listen host (overrides HOST)")
	pflag.String("port", "", "listen port (overrides PORT)")
	pflag.String("data-dir", "", "snapshot data directory (overrides DATA_DIR)")
	pflag.Parse()
	bindFlag("HOST", "host")
	bindFlag("PORT", "port")
	bindFlag("DATA_DIR", "data-dir")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Configuration error", zap.Error(err))
	}

	client := hntv.NewClient(cfg, slogger)
	builder := epg.NewBuilder(client, slogger)
	store := snapshot.NewStore(cfg.DataDir, slogger)
	store.Fallback = func(ctx context.Context) string {
		doc, err := builder.BuildSnapshot(ctx)
		if err != nil {
			slogger.Warn("On-demand snapshot degraded", "error", err)
		}
		return doc
	}

	refresh := func(ctx context.Context) error {
		return store.Refresh(ctx, builder.BuildSnapshot)
	}

	sched := scheduler.New(refresh, cfg.RefreshHour, cfg.RefreshMinute, slogger)
	if cfg.SMTP.Enabled() {
		notifier := mailer.New(cfg.SMTP, slogger)
		sched.SetNotifier(func(title, message string) {
			if err := notifier.Notify("error", title, message); err != nil {
				slogger.Error("Failed to send failure notification", "error", err)
			}
		})
		slogger.Info("Mail notifications enabled", "to", cfg.SMTP.To)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sched.Run(ctx)

	h := handlers.New(slogger, cfg, client, builder, store)
	mux := http.NewServeMux()
	h.Register(mux, auth.New(cfg.APIToken, slogger))

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}

func bindFlag(key, flag string) {
	f := pflag.Lookup(flag)
	if f != nil && f.Changed {
		viper.Set(key, f.Value.String())
	}
}
