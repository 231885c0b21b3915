package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"etf-arb-go/config"
	"etf-arb-go/gateway"
	"etf-arb-go/infrastructure/logger"
	"etf-arb-go/internal/engine"
	"etf-arb-go/market"
	"etf-arb-go/metrics"
	"etf-arb-go/risk"
	"etf-arb-go/strategy"
	"etf-arb-go/valuation"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	dryRun := flag.Bool("dryRun", false, "仅日志输出，不真正下单")
	pollMs := flag.Int("pollMs", 500, "决策轮间隔（毫秒）")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Outputs:    cfg.Logging.Outputs,
		OutputFile: cfg.Logging.OutputFile,
		ErrorFile:  cfg.Logging.ErrorFile,
		Format:     cfg.Logging.Format,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer appLogger.Close()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		metrics.StartMetricsServer(cfg.Metrics.Addr)
		appLogger.Info("Metrics server listening", zap.String("addr", cfg.Metrics.Addr))
	}

	client := &gateway.Client{
		BaseURL:    cfg.Gateway.BaseURL,
		APIKey:     cfg.Gateway.APIKey,
		HTTPClient: gateway.NewDefaultHTTPClient(),
		Limiter:    gateway.NewTokenBucketLimiter(cfg.Gateway.RateLimit, cfg.Gateway.RateBurst),
	}

	policy := risk.Policy{
		Limits:       limitsFromConfig(cfg.Risk.PositionLimits),
		GrossCeiling: cfg.Risk.GrossCeiling,
		MaxOrderQty:  cfg.Risk.MaxOrderQty,
	}
	quoter := strategy.Quoter{
		Params: strategy.Params{
			Commission:  cfg.Quoter.Commission,
			HedgeLegs:   cfg.Quoter.HedgeLegs,
			MaxClipSize: cfg.Quoter.MaxClipSize,
			ImproveTick: cfg.Quoter.ImproveTick,
		},
		Limits: policy.Limits,
	}
	hitter := strategy.NewHitter(policy, client, engine.Placer{Exchange: client, Collector: collector}, appLogger.Logger)
	hitter.BlockSize = cfg.Hitter.BlockSize
	if collector != nil {
		hitter.Rejects = collector.RiskRejects
	}

	eng, err := engine.New(
		engine.Config{
			PollInterval: time.Duration(*pollMs) * time.Millisecond,
			DryRun:       *dryRun,
		},
		engine.Components{
			Exchange:  client,
			Books:     &market.Service{Source: client, TraderID: cfg.Gateway.TraderID, Depth: cfg.Gateway.BookDepth},
			Estimator: valuation.NewEstimator(),
			Quoter:    quoter,
			Hitter:    hitter,
			Policy:    policy,
			Logger:    appLogger,
			Collector: collector,
		},
	)
	if err != nil {
		log.Fatalf("初始化引擎失败: %v", err)
	}

	// 配置热更新：报价参数下一轮生效，限额与网关参数重启生效
	watcher, err := config.NewWatcher(*cfgPath, 0)
	if err == nil {
		_ = watcher.Start(func(next config.AppConfig) {
			eng.UpdateQuoterParams(strategy.Params{
				Commission:  next.Quoter.Commission,
				HedgeLegs:   next.Quoter.HedgeLegs,
				MaxClipSize: next.Quoter.MaxClipSize,
				ImproveTick: next.Quoter.ImproveTick,
			})
		})
		defer watcher.Stop()
	}

	if err := eng.Start(); err != nil {
		log.Fatalf("启动引擎失败: %v", err)
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	appLogger.Info("Trader started",
		zap.String("env", cfg.Env),
		zap.String("baseURL", cfg.Gateway.BaseURL),
		zap.Bool("dryRun", *dryRun))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		eng.Wait()
		close(done)
	}()

	select {
	case sig := <-sigChan:
		appLogger.Info("Signal received, shutting down", zap.String("signal", sig.String()))
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
		if err := eng.Stop(); err != nil {
			appLogger.Error("Engine stop failed", zap.Error(err))
		}
	case <-done:
		// 停盘自然退出，挂单已在引擎内清掉
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
		appLogger.Info("Market closed, exiting")
	}
}

func limitsFromConfig(raw map[string]int) risk.Limits {
	limits := make(risk.Limits, len(raw))
	for ticker, limit := range raw {
		limits[market.Instrument(ticker)] = limit
	}
	return limits
}
