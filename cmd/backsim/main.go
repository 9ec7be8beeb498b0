package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"backsim/internal/backtest"
	"backsim/internal/config"
	"backsim/internal/marketdata"
	"backsim/internal/report"
	"backsim/internal/strategy"
	"backsim/internal/util"
)

func main() {
	var (
		symbol  = flag.String("symbol", "", "ticker symbol to backtest (required)")
		start   = flag.String("start", "", "start date, YYYY-MM-DD (required)")
		end     = flag.String("end", "", "end date, YYYY-MM-DD (required)")
		logic   = flag.String("logic", "", "entry rule combinator: AND or OR (default from config)")
		cash    = flag.Float64("cash", 0, "initial cash (default from config)")
		cfgFlag = flag.String("config", "", "path to YAML config file")
		export  = flag.Bool("export", false, "write equity curve and trade log as Parquet")
		verbose = flag.Bool("v", false, "print the full trade log")
	)
	flag.Parse()

	if *symbol == "" || *start == "" || *end == "" {
		flag.Usage()
		os.Exit(2)
	}

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

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("invalid start date %q: %v", *start, err)
	}
	endDate, err := time.Parse("2006-01-02", *end)
	if err != nil {
		log.Fatalf("invalid end date %q: %v", *end, err)
	}

	logicStr := *logic
	if logicStr == "" {
		logicStr = cfg.Backtest.Logic
	}
	runLogic, err := strategy.ParseLogic(logicStr)
	if err != nil {
		log.Fatalf("invalid logic: %v", err)
	}

	initialCash := *cash
	if initialCash == 0 {
		initialCash = cfg.Backtest.InitialCash
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	bars, err := source.DailyBars(ctx, *symbol, startDate, endDate)
	if err != nil {
		log.Fatalf("fetching bars for %s: %v", *symbol, err)
	}

	runner := backtest.NewRunner(logger)
	res, err := runner.Run(ctx, bars, backtest.RunConfig{
		InitialCash: initialCash,
		Logic:       runLogic,
		Params:      cfg.Backtest.Strategy,
	})
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	fmt.Print(report.RenderMetrics(*symbol, res))
	if *verbose {
		fmt.Println()
		fmt.Print(report.RenderTradeLog(res))
	}

	if *export {
		w := report.NewParquetWriter(cfg.Storage.DataDir)
		if err := w.WriteResult(*symbol, res); err != nil {
			log.Fatalf("exporting report: %v", err)
		}
		logger.Info("report exported", "symbol", *symbol, "dataDir", cfg.Storage.DataDir)
	}
}
