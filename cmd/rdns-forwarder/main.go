package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/blocklist"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/cache"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/config"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/dashboard"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/engine"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/logbus"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/logging"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/metrics"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/metricsapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds the parsed command-line overrides. Per spec.md §6, only
// --resolver and --port are mandatory; the rest come from config file/env.
type cliFlags struct {
	configPath string
	resolver   string
	port       int
	debug      bool
	noDash     bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&f.resolver, "resolver", "", "upstream resolver addr:port (default 1.1.1.1:53)")
	flag.IntVar(&f.port, "port", 0, "client-facing UDP port (default 53)")
	flag.BoolVar(&f.debug, "debug", false, "enable debug logging")
	flag.BoolVar(&f.noDash, "no-dashboard", false, "disable the terminal dashboard")
	flag.Parse()
	return f
}

func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.resolver != "" {
		cfg.UpstreamResolver = f.resolver
	}
	if f.port != 0 {
		cfg.ListenPort = f.port
	}
	if f.debug {
		cfg.Logging.Level = "DEBUG"
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyCLIOverrides(cfg, flags)

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
	})
	logger.Info("rdns-forwarder starting",
		"listen_port", cfg.ListenPort,
		"upstream", cfg.UpstreamResolver,
		"metrics_addr", cfg.MetricsAddr,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	metricsReg := metrics.NewRegistry(registry)
	logs := logbus.New()
	dnsCache := cache.New()

	format, err := parseBlocklistFormat(cfg.BlocklistFormat)
	if err != nil {
		return err
	}
	blSource := blocklist.NewSource(cfg.BlocklistURL, format, cfg.BlocklistRefreshInterval)
	go blSource.RunRefreshLoop(ctx, func(err error) {
		logger.Warn("blocklist refresh failed, keeping previous list", "error", err)
	})

	eng, err := engine.New(engine.Config{
		ListenAddr:        fmt.Sprintf("0.0.0.0:%d", cfg.ListenPort),
		UpstreamAddr:      cfg.UpstreamResolver,
		PendingStaleAfter: cfg.PendingForwardTimeout,
	}, dnsCache, blSource.Set(), metricsReg, logs, logger)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	metricsSrv := metricsapi.New(cfg.MetricsAddr, registry, logger)

	go func() {
		if err := eng.Run(ctx); err != nil {
			logger.Error("engine stopped with error", "error", err)
			cancel()
		}
	}()
	go func() {
		if err := metricsSrv.Run(ctx); err != nil {
			logger.Error("metrics server stopped with error", "error", err)
			cancel()
		}
	}()

	if !flags.noDash {
		dash := dashboard.New(os.Stdout, metricsReg, blSource.Set(), logs)
		go dashboard.WatchQuit(ctx, cancel)
		go dash.Run(ctx)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func parseBlocklistFormat(raw string) (blocklist.ListFormat, error) {
	switch raw {
	case "", "auto":
		return blocklist.FormatUnknown, nil
	case "hosts":
		return blocklist.FormatHosts, nil
	case "domains":
		return blocklist.FormatDomains, nil
	case "adblock":
		return blocklist.FormatAdblock, nil
	default:
		return 0, fmt.Errorf("unknown blocklist.format %q", raw)
	}
}
