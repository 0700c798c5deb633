package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"LeveredVault/internal/api"
	"LeveredVault/internal/collector"
	"LeveredVault/internal/config"
	"LeveredVault/internal/logger"
	"LeveredVault/internal/metrics"
	"LeveredVault/internal/notifier"
	"LeveredVault/internal/pending"
	"LeveredVault/internal/recorder"
	"LeveredVault/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, log, err := setup(cfgPath, zapcore.Lock(os.Stdout))
	if err != nil {
		_ = log.Sync()
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("LeveredVault starting", zap.String("config", cfgPath))

	if err := cfg.Validate(); err != nil {
		log.Fatal("config validation", zap.Error(err))
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init reader
	var reader collector.Reader
	if cfg.Chain.RPCURL != "" {
		evm, err := collector.NewEVMReader(ctx, cfg.Chain.RPCURL)
		if err != nil {
			log.Fatal("init evm reader", zap.Error(err))
		}
		defer evm.Close()
		reader = evm
	} else {
		log.Warn("chain.rpc_url not set, using mock reader")
		reader = &collector.MockReader{VaultToken: common.HexToAddress(cfg.Chain.Vault)}
	}
	log.Info("balance reader ready", zap.String("reader", reader.Name()))

	// Init collector
	col := collector.NewCollector(reader, collector.Tokens{
		Wrapped:         common.HexToAddress(cfg.Chain.WrappedToken),
		Vault:           common.HexToAddress(cfg.Chain.Vault),
		NativeDecimals:  cfg.Chain.NativeDecimals,
		WrappedDecimals: cfg.Chain.TokenDecimals,
		VaultDecimals:   cfg.Chain.TokenDecimals,
	}, log)
	if cfg.Chain.RPCURL != "" {
		col.LoadDecimals(ctx)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init notifier
	var sender notifier.Sender = notifier.NoopSender{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = tn
	}

	// Metrics and pending-action registry
	pendingReg := pending.NewRegistry(log)
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg, pendingReg.InFlight)

	accounts := make([]common.Address, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		accounts = append(accounts, common.HexToAddress(a))
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, pendingReg, sender, rec, m, scheduler.Options{
		Accounts:    accounts,
		SnapshotTTL: cfg.Schedule.SnapshotTTL,
		Labels: notifier.Labels{
			Native:  cfg.Chain.NativeSymbol,
			Wrapped: cfg.Chain.WrappedSymbol,
			Vault:   cfg.Chain.VaultSymbol,
			Places:  cfg.Chain.DisplayDecimals,
		},
	}, log)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.SummaryCron); err != nil {
		log.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()
	go sched.RefreshNow()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	// HTTP API
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           api.NewServer(sched, pendingReg, rec, m, promReg, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			cancel()
		}
	}()
	log.Info("LeveredVault is running", zap.String("listen", cfg.HTTP.Listen))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	cancel()
	log.Info("LeveredVault stopped")
}

// setup loads the config and builds the configured logger. Until the config
// is read, errors go to an info-level logger on the same destination.
func setup(cfgPath string, w zapcore.WriteSyncer) (*config.Config, *zap.Logger, error) {
	boot := logger.New("info", w)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot.Error("load config", zap.String("config", cfgPath), zap.Error(err))
		return nil, boot, err
	}
	return cfg, logger.New(cfg.Log.Level, w), nil
}
