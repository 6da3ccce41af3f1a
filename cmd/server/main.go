package main

import (
	"context"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gyaneshwarpardhi/tiktr/internal/api"
	"github.com/gyaneshwarpardhi/tiktr/internal/config"
	"github.com/gyaneshwarpardhi/tiktr/internal/engine"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger/eth"
)

func main() {
	cfgPath := flag.String("config", "configs/tiktr.yaml", "Path to YAML config")
	envFile := flag.String("env", ".env", "Optional dotenv file with TIKTR_* overrides")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath, *envFile)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Ledger ────────────────────────────────────────────────────────────────
	ethCfg := eth.Config{
		RPCURL:         cfg.Ledger.RPCURL,
		Contract:       common.HexToAddress(cfg.Ledger.ContractAddress),
		PrivateKey:     cfg.Ledger.PrivateKey,
		WatchAddress:   cfg.Ledger.WalletAddress,
		CallTimeout:    cfg.Ledger.CallTimeout,
		ReceiptTimeout: cfg.Ledger.ReceiptTimeout,
	}
	if cfg.Ledger.ChainID > 0 {
		ethCfg.ChainID = big.NewInt(cfg.Ledger.ChainID)
	}
	gw, err := eth.Dial(ctx, ethCfg)
	if err != nil {
		slog.Error("failed to connect to ledger", "rpc_url", cfg.Ledger.RPCURL, "err", err)
		os.Exit(1)
	}
	defer gw.Close()

	if id, err := gw.Connect(ctx); err != nil {
		slog.Warn("no wallet configured, wallet endpoints need an address", "err", err)
	} else {
		slog.Info("ledger session", "address", id.Address.Hex(), "read_only", id.ReadOnly)
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	eng := engine.New(gw, cfg)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// Only tuning is swapped; ledger connection settings need a restart.
	loader.OnChange(func(newCfg *config.AppConfig) {
		eng.SwapConfig(newCfg)
		slog.Info("config hot-reloaded",
			"fetch_workers", newCfg.Catalog.FetchWorkers,
			"scan_workers", newCfg.Reconcile.ScanWorkers,
			"max_scan", newCfg.Reconcile.MaxScan)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.New(eng, loader),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * cfg.Server.ReadTimeout,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel()
	slog.Info("goodbye")
}
