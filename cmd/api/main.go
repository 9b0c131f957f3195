package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	appai "github.com/bryanwahyu/pyaudit/internal/application/ai"
	"github.com/bryanwahyu/pyaudit/internal/bootstrap"
	"github.com/bryanwahyu/pyaudit/internal/config"
	"github.com/bryanwahyu/pyaudit/internal/infra/httpserver"
	"github.com/bryanwahyu/pyaudit/internal/logging"
	"github.com/bryanwahyu/pyaudit/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatalf("config load error: %v", err)
	}

	log := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	ctx := context.Background()

	stack, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init error")
	}
	defer stack.Close()

	svc := stack.Service
	if avail, err := svc.CheckTools(ctx); err != nil {
		log.WithField("missing", avail.Missing).Warn("required tools not found; analysis requests will be rejected")
	}

	// advice: OpenAI kalau ada key, lalu Ollama, kalau tidak pakai rule-based lokal
	advisor, advisorName, err := bootstrap.Advisor(cfg)
	if err != nil {
		log.WithError(err).Fatal("advisor init error")
	}
	aiSvc := appai.NewService(advisor, stack.Repo)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	defer limiter.Stop()

	handler := httpserver.NewRouter(httpserver.Options{
		Analysis:       svc,
		Advice:         aiSvc,
		Metrics:        middleware.NewMetrics(),
		Log:            log,
		Health:         stack.Health,
		APIKeys:        cfg.Auth.APIKeys,
		Limiter:        limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		MaxFiles:       cfg.Server.MaxFiles,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// run server
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "probe": cfg.Probe.Mode, "history": historyName(cfg), "advisor": advisorName}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

func historyName(cfg *config.Config) string {
	if cfg.Database.Driver == "" {
		return "memory"
	}
	return cfg.Database.Driver
}
