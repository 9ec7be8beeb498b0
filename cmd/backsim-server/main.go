package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"backsim/internal/backtest"
	"backsim/internal/config"
	"backsim/internal/httpapi"
	"backsim/internal/marketdata"
	"backsim/internal/util"
)

func main() {
	cfgFlag := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfgPath := *cfgFlag
	if cfgPath == "" {
		if p := os.Getenv("BACKSIM_CONFIG"); p != "" {
			cfgPath = p
		} else if _, err := os.Stat("config/backsim.yaml"); err == nil {
			cfgPath = "config/backsim.yaml"
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	source := marketdata.Source(marketdata.NewAlpacaSource(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		cfg.Alpaca.RateLimitPerMin,
	))

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.CachePath), 0o755); err != nil {
		logger.Warn("creating cache directory", "error", err)
	}
	cache, err := marketdata.NewCache(cfg.Storage.CachePath, cfg.Backtest.CacheTTL.Std())
	if err != nil {
		logger.Warn("bar cache unavailable, fetching directly", "error", err)
	} else {
		defer cache.Close()
		source = marketdata.NewCachedSource(source, cache)
	}

	api := httpapi.NewServer(source, backtest.NewRunner(logger), cfg.Backtest, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("backsim-server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("backsim-server stopped")
}
