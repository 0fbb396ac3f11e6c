package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"onestopradio/internal/config"
	"onestopradio/internal/console"
	"onestopradio/internal/logging"
	"onestopradio/internal/meter"
	"onestopradio/internal/models"
	"onestopradio/internal/poller"
	"onestopradio/internal/proxy"
	"onestopradio/internal/server"
	"onestopradio/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", "", "override for the console listen address")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New(logging.Config{}).Error("load config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("configuration loaded",
		"path", *configPath,
		"services", len(cfg.Services),
		"encoding_targets", len(cfg.Encoding),
	)
	config.LogEnvironment(logging.WithComponent(logger, "env"))

	historyPath := filepath.Join(cfg.DataDirectory, "diagnostics_history.json")
	store, err := storage.New(historyPath)
	if err != nil {
		logger.Error("initialise storage", "error", err)
		os.Exit(1)
	}

	tracker := meter.NewTracker(
		time.Duration(cfg.Meter.DecayIntervalMS)*time.Millisecond,
		cfg.Meter.DecayStep,
	)
	tracker.Start()
	defer tracker.Stop()

	var simulator *meter.Simulator
	if cfg.Meter.Simulate {
		simulator = meter.NewSimulator(tracker)
		simulator.Start()
		defer simulator.Stop()
	}

	services := poller.New(models.PanelServices, cfg.Services, store,
		logging.WithComponent(logger, "poller"))
	encoding := poller.New(models.PanelEncoding, cfg.Encoding, store,
		logging.WithComponent(logger, "poller"))

	connectivity := poller.NewConnectivityMonitor(cfg.Connectivity)
	connectivity.Start()
	defer connectivity.Stop()

	cons := console.New(services, encoding, tracker, connectivity,
		time.Duration(cfg.PollIntervalSeconds)*time.Second,
		logging.WithComponent(logger, "console"))
	cons.Start()
	defer cons.Stop()

	srv := server.New(cfg.ListenAddr, cons, store, logging.WithComponent(logger, "server"))

	var proxySrv *http.Server
	if cfg.Proxy.Enabled {
		router, err := proxy.New(cfg.Backends, logging.WithComponent(logger, "proxy"))
		if err != nil {
			logger.Error("initialise proxy", "error", err)
			os.Exit(1)
		}
		proxySrv = &http.Server{Addr: cfg.Proxy.ListenAddr, Handler: router.Handler()}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("console listening", "addr", cfg.ListenAddr)
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if proxySrv != nil {
		group.Go(func() error {
			logger.Info("dev proxy listening", "addr", cfg.Proxy.ListenAddr)
			if err := proxySrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", "error", err)
		}
		if proxySrv != nil {
			if err := proxySrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("proxy shutdown", "error", err)
			}
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("console error", "error", err)
		os.Exit(1)
	}
}
