package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/micro-ha/netstate/internal/config"
	httpapi "github.com/micro-ha/netstate/internal/http"
	"github.com/micro-ha/netstate/internal/http/handlers"
	"github.com/micro-ha/netstate/internal/logging"
	"github.com/micro-ha/netstate/internal/metrics"
	"github.com/micro-ha/netstate/internal/model"
	"github.com/micro-ha/netstate/internal/netfacts"
	"github.com/micro-ha/netstate/internal/netinfo"
	"github.com/micro-ha/netstate/internal/netstate"
	"github.com/micro-ha/netstate/internal/reachability"
	"github.com/micro-ha/netstate/internal/storage"
	"github.com/micro-ha/netstate/internal/wifi"
)

const journalPruneInterval = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(slog.LevelInfo).Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		logger.Error("failed to register metrics", "err", err)
		os.Exit(1)
	}

	var journal *storage.Journal
	if cfg.JournalEnabled() {
		if err := os.MkdirAll(cfg.DBDir(), 0o755); err != nil {
			logger.Error("failed to create db directory", "err", err)
			os.Exit(1)
		}
		journal, err = storage.New(ctx, cfg.DBPath, logging.Component(logger, "journal"))
		if err != nil {
			logger.Error("failed to initialize journal", "err", err)
			os.Exit(1)
		}
		defer journal.Close()
		go runJournalPrune(ctx, journal, cfg.JournalRetention, logger)
	} else {
		logger.Info("DB_PATH is empty; transition journal disabled")
	}

	modem := netfacts.NewModemCarrier(logging.Component(logger, "modem"))
	facts := netfacts.New(interfacePatterns(cfg),
		netfacts.WithCarrier(cfg.CarrierName),
		netfacts.WithCarrierLookup(modem.OperatorName, 0),
	)
	identifiers := wifi.NewCommandProvider(logging.Component(logger, "wifi"))

	deps := handlers.Deps{Metrics: collector.Handler()}
	var source netinfo.SignalSource
	var runSource func(context.Context)
	switch cfg.Source {
	case config.SourceStream:
		client := reachability.NewStreamClient(cfg.StreamURL, cfg.StreamToken, logging.Component(logger, "stream"))
		source, runSource = client, client.Run
	case config.SourceManual:
		manual := reachability.NewManual()
		source = manual
		deps.Signals = manual
	default:
		poller := reachability.NewInterfacePoller(facts, cfg.PollInterval, logging.Component(logger, "poller"))
		source, runSource = poller, poller.Run
		deps.Poller = poller
	}

	moduleCfg := netinfo.Config{
		Core: netstate.Config{
			Facts:                    facts,
			Identifiers:              identifiers,
			IdentifierFetchSupported: identifiers.Supported(),
			IdentifierCooldown:       cfg.IdentifierCooldown,
			IdentifierTimeout:        cfg.IdentifierTimeout,
		},
		Source:   source,
		Metrics:  collector,
		Logger:   logging.Component(logger, "netinfo"),
		Defaults: model.Options{ShouldFetchWiFiSSID: cfg.FetchWiFiSSID},
	}
	if journal != nil {
		moduleCfg.Journal = journal
		deps.History = journal
	}
	module := netinfo.New(moduleCfg)

	hub := handlers.NewHub(module, logging.Component(logger, "events"))
	module.AttachEmitter(hub)
	if err := module.Start(ctx); err != nil {
		logger.Error("failed to start netinfo module", "err", err)
		os.Exit(1)
	}
	defer module.Close()
	defer hub.Close()

	if runSource != nil {
		go runSource(ctx)
	}

	api := handlers.New(module, hub, deps, logging.Component(logger, "http"))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", httpServer.Addr, "source", cfg.Source, "ssid_lookup", identifiers.Supported())
	if err := httpapi.RunServer(ctx, httpServer, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func interfacePatterns(cfg config.Config) netfacts.Patterns {
	patterns := netfacts.DefaultPatterns()
	if len(cfg.WiFiInterfaces) > 0 {
		patterns.WiFi = cfg.WiFiInterfaces
	}
	if len(cfg.EthernetInterfaces) > 0 {
		patterns.Ethernet = cfg.EthernetInterfaces
	}
	if len(cfg.CellularInterfaces) > 0 {
		patterns.Cellular = cfg.CellularInterfaces
	}
	return patterns
}

func runJournalPrune(ctx context.Context, journal *storage.Journal, keep int, logger *slog.Logger) {
	ticker := time.NewTicker(journalPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := journal.Prune(pruneCtx, keep); err != nil && !errors.Is(err, storage.ErrJournalClosed) {
				logger.Warn("journal prune failed", "err", err)
			}
			cancel()
		}
	}
}
