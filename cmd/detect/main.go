// Package main runs sandwich detection over a slot range or live against a
// slot subscription, writing attack records to the configured sinks.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"solana-sandwich-watch/internal/decoder"
	"solana-sandwich-watch/internal/emitter"
	"solana-sandwich-watch/internal/extractor"
	"solana-sandwich-watch/internal/ingest"
	"solana-sandwich-watch/internal/observability"
	"solana-sandwich-watch/internal/pipeline"
	"solana-sandwich-watch/internal/pnl"
	"solana-sandwich-watch/internal/pricing"
	"solana-sandwich-watch/internal/solana"
	"solana-sandwich-watch/internal/storage"
	chstore "solana-sandwich-watch/internal/storage/clickhouse"
	"solana-sandwich-watch/internal/storage/memory"
	"solana-sandwich-watch/internal/storage/migrations"
	pgstore "solana-sandwich-watch/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (live mode)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	fromSlot := flag.Uint64("from-slot", 0, "First slot to process (range mode)")
	toSlot := flag.Uint64("to-slot", 0, "Last slot to process, inclusive (range mode)")
	follow := flag.Bool("follow", false, "Follow confirmed slots live instead of a fixed range")
	workers := flag.Int("workers", pipeline.DefaultWorkers, "Concurrent block workers")
	reorderWindow := flag.Int("reorder-window", pipeline.DefaultReorderWindow, "Slot reorder buffer size")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	logger := newLogger(*logLevel)
	defer logger.Sync()

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *follow && *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required with --follow")
	}
	if !*follow && (*fromSlot == 0 || *toSlot == 0) {
		logger.Fatal("--from-slot and --to-slot are required without --follow")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
		cancel()

		sig = <-sigCh
		logger.Warn("received second signal, forcing exit", zap.Stringer("signal", sig))
		os.Exit(1)
	}()

	sink, cleanup, err := createSink(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatal("failed to create attack sink", zap.Error(err))
	}
	defer cleanup()

	metrics := observability.NewMetrics("")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	// Prices are SOL per raw unit: one lamport of WSOL is 1e-9 SOL.
	prices := pricing.NewCache(pricing.NewStaticSource(map[string]float64{
		decoder.WSOL: 1e-9,
	}))

	runner := pipeline.NewRunner(pipeline.RunnerOptions{
		Source:        ingest.NewRPCBlockSource(rpc),
		Detector:      pipeline.NewDetector(extractor.New(decoder.NewRegistry()), pnl.New(prices, nil)),
		Emitter:       emitter.New(sink),
		Logger:        logger,
		Metrics:       metrics,
		Workers:       *workers,
		ReorderWindow: *reorderWindow,
	})

	var stats *pipeline.RunStats
	if *follow {
		logger.Info("following confirmed slots", zap.String("ws", *wsEndpoint))
		ws, err := solana.NewWSClient(ctx, *wsEndpoint, nil)
		if err != nil {
			logger.Fatal("websocket connect failed", zap.Error(err))
		}
		defer ws.Close()
		stats, err = runner.RunLive(ctx, ingest.NewWSSlotStream(ws))
		if err != nil && err != context.Canceled {
			logger.Fatal("live run failed", zap.Error(err))
		}
	} else {
		logger.Info("processing slot range",
			zap.Uint64("from", *fromSlot),
			zap.Uint64("to", *toSlot),
		)
		stats, err = runner.RunRange(ctx, *fromSlot, *toSlot)
		if err != nil && err != context.Canceled {
			logger.Fatal("range run failed", zap.Error(err))
		}
	}

	if stats != nil {
		fmt.Printf("blocks=%d skipped=%d swaps=%d attacks=%d unknown_programs=%d decode_errors=%d\n",
			stats.Blocks, stats.SkippedSlots, stats.Swaps, stats.Attacks,
			stats.UnknownPrograms, stats.DecodeErrors)
	}
}

// createSink builds the attack store chain: memory, or postgres with an
// optional clickhouse fanout for analytics.
func createSink(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.AttackStore, func(), error) {
	if useMemory {
		return memory.NewAttackStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	primary := pgstore.NewAttackStore(pool)
	if clickhouseDSN == "" {
		return primary, pool.Close, nil
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return storage.NewFanoutAttackStore(primary, chstore.NewAttackStore(chConn)), cleanup, nil
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// loadEnvFile reads .env into the environment without overriding existing
// variables.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
