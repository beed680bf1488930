// cmd/replay runs one deterministic market replay: tick data in, minute
// bars through a strategy driver, simulated fills into the ledger and
// WAL, and a signed report out.
//
// Usage:
//
//	go run ./cmd/replay --data testdata/ticks.csv --wal out/replay.wal --rollover-mode strict
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"quant-replayv1/config"
	"quant-replayv1/internal/execution"
	"quant-replayv1/internal/logger"
	"quant-replayv1/internal/metrics"
	"quant-replayv1/internal/model"
	"quant-replayv1/internal/monitor"
	"quant-replayv1/internal/notification"
	"quant-replayv1/internal/replay"
	"quant-replayv1/internal/rollover"
	redisstore "quant-replayv1/internal/store/redis"
	"quant-replayv1/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	// Flags: everything that defines the run (and is therefore hashed
	// into the input signature) is a flag; infra endpoints come from env.
	dataPath := flag.String("data", "", "Tick data: flat CSV file or partitioned dataset directory")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = all)")
	accountID := flag.String("account", "sim-001", "Simulated account id")
	walPath := flag.String("wal", "", "WAL output path (empty = WAL disabled)")
	rollMode := flag.String("rollover-mode", "none", "Rollover mode: none|strict|carry")
	rollPolicy := flag.String("rollover-policy", "last", "Rollover reference price policy: last|bbo|mid")
	slippageBps := flag.Float64("slippage-bps", 0, "Strict rollover slippage in basis points")
	fast := flag.Int("fast", 5, "Fast SMA period")
	slow := flag.Int("slow", 20, "Slow SMA period")
	qty := flag.Int64("qty", 1, "Contracts per trade")
	outPath := flag.String("out", "", "Write the report JSON to this path (empty = stdout only)")
	perf := flag.Bool("perf", false, "Include the performance section (drawdown, status counts) in the report")
	serveMetrics := flag.Bool("metrics", false, "Serve Prometheus metrics during the run")
	serveMonitor := flag.Bool("monitor", false, "Serve the WebSocket monitor during the run")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	flag.Parse()

	logger.Init("replay", logger.ParseLevel(*logLevel))

	if *dataPath == "" {
		log.Fatal("[replay] --data is required")
	}
	if *fast <= 0 || *slow <= *fast {
		log.Fatalf("[replay] need 0 < fast < slow, got fast=%d slow=%d", *fast, *slow)
	}

	cfg := config.Load()

	runCfg := replay.Config{
		DataPath:  *dataPath,
		MaxTicks:  *maxTicks,
		AccountID: *accountID,
		WALPath:   *walPath,
		Rollover: rollover.Config{
			Mode:        model.RolloverMode(*rollMode),
			PricePolicy: model.RolloverPricePolicy(*rollPolicy),
			SlippageBps: *slippageBps,
		},
		Deterministic: *perf,
	}

	var opts replay.Options

	if cfg.JournalPath != "" {
		journal, err := execution.NewJournal(cfg.JournalPath)
		if err != nil {
			log.Fatalf("[replay] journal open failed: %v", err)
		}
		defer journal.Close()
		opts.Journal = journal
	}

	if *serveMetrics {
		m, reg := metrics.New()
		metrics.Serve(cfg.MetricsAddr, reg)
		opts.Metrics = m
	}

	if *serveMonitor {
		hub := monitor.NewHub()
		hub.Serve(cfg.MonitorAddr)
		opts.Monitor = hub
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[replay] interrupt, stopping")
		cancel()
	}()

	driver := strategy.NewSMACrossover(*fast, *slow, *qty)
	rep, err := replay.Run(ctx, runCfg, driver, opts)
	if err != nil {
		log.Fatalf("[replay] run failed: %v", err)
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, rep.JSON(), 0o644); err != nil {
			log.Fatalf("[replay] write report: %v", err)
		}
		log.Printf("[replay] report written to %s", *outPath)
	} else {
		fmt.Println(string(rep.JSON()))
	}

	if cfg.PublishReports {
		pub, err := redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			slog.Warn("report publish skipped", "err", err)
		} else {
			defer pub.Close()
			if err := pub.PublishReport(ctx, *accountID, rep); err != nil {
				slog.Warn("report publish failed", "err", err)
			}
		}
	}

	var notifiers []notification.Notifier
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if len(notifiers) > 0 {
		notification.SendAll(ctx, notifiers, notification.FromReport(*accountID, rep))
	}

	// Summary
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║           REPLAY COMPLETE                ║")
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Ticks read:        %-20d ║\n", rep.TicksRead)
	fmt.Printf("║  Bars emitted:      %-20d ║\n", rep.BarsEmitted)
	fmt.Printf("║  Intents:           %-20d ║\n", rep.IntentsProcessed)
	fmt.Printf("║  Order events:      %-20d ║\n", rep.OrderEventsEmitted)
	fmt.Printf("║  WAL records:       %-20d ║\n", rep.WALRecords)
	fmt.Printf("║  Rollovers:         %-20d ║\n", rep.RolloverEvents)
	fmt.Printf("║  Realized PnL:      %-20.2f ║\n", rep.TotalRealizedPnL)
	fmt.Printf("║  Unrealized PnL:    %-20.2f ║\n", rep.TotalUnrealizedPnL)
	fmt.Printf("║  Violations:        %-20d ║\n", len(rep.Violations))
	fmt.Println("╚══════════════════════════════════════════╝")
	fmt.Printf("input signature: %s\n", rep.InputSignature)
	fmt.Printf("data signature:  %s\n", rep.DataSignature)

	if len(rep.Violations) > 0 {
		for _, v := range rep.Violations {
			log.Printf("[replay] invariant violation: %s", v)
		}
		os.Exit(1)
	}
}
