// Package main is the entry point for the eroom-api server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmylchreest/eroom-api/internal/config"
	"github.com/jmylchreest/eroom-api/internal/http/mw"
	"github.com/jmylchreest/eroom-api/internal/httpapi"
	"github.com/jmylchreest/eroom-api/internal/llmgateway"
	"github.com/jmylchreest/eroom-api/internal/logging"
	"github.com/jmylchreest/eroom-api/internal/meshgateway"
	"github.com/jmylchreest/eroom-api/internal/pipeline"
	"github.com/jmylchreest/eroom-api/internal/queue"
	"github.com/jmylchreest/eroom-api/internal/store"
	"github.com/jmylchreest/eroom-api/internal/version"
)

const configBundlePath = "config.json"

func main() {
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting eroom-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cliPort, err := config.ParsePort(os.Args[1:])
	if err != nil {
		logger.Error("invalid command-line arguments", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(configBundlePath, cliPort, logger)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	st := store.New()
	llmClient := llmgateway.New(cfg.AnthropicKey, cfg.RequestTimeout, logger)
	meshClient := meshgateway.New(cfg.MeshyKeys, cfg.RequestTimeout, logger)

	pl := pipeline.New(llmClient, meshClient, pipeline.Prompts{
		Scenario:       cfg.Prompts.Scenario,
		UnifiedScripts: cfg.Prompts.UnifiedScripts,
	}, pipeline.ModelParams{
		Name:                cfg.Model.Name,
		MaxTokens:           cfg.Model.MaxTokens,
		ScenarioTemperature: cfg.Model.ScenarioTemperature,
		ScriptTemperature:   cfg.Model.ScriptTemperature,
	}, logger)

	q := queue.New(pl, st, queue.Config{
		WorkerCount:         cfg.WorkerCount,
		ShutdownGracePeriod: cfg.ShutdownGrace,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	handlers := httpapi.New(q, st, logger)

	var blocklist *mw.IPBlocklist
	if len(cfg.BlockedIPs) > 0 {
		blocklist = mw.NewIPBlocklist(cfg.BlockedIPs, logger)
	}

	router := httpapi.NewRouter(handlers, httpapi.RouterConfig{
		BearerToken:        cfg.BearerToken,
		Blocklist:          blocklist,
		RequestTimeout:     cfg.RequestTimeout,
		RateLimitPerMinute: 60,
		MaxBodyBytes:       1 * 1024 * 1024,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-sigCtx.Done()

		logger.Info("shutting down server")

		cancel()
		q.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
