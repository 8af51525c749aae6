//go:build linux

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/rgbmond/internal/config"
	"codeberg.org/mutker/rgbmond/internal/cpuload"
	"codeberg.org/mutker/rgbmond/internal/daemon"
	"codeberg.org/mutker/rgbmond/internal/errors"
	"codeberg.org/mutker/rgbmond/internal/logger"
	"codeberg.org/mutker/rgbmond/internal/metrics"
	"codeberg.org/mutker/rgbmond/internal/openrgb"
	"codeberg.org/mutker/rgbmond/internal/pid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(cfg.PIDFile); err != nil {
		logger.Fatal().Err(err).Msg("failed to write pid file")
	}
	defer pid.Remove(cfg.PIDFile)

	mcfg := metrics.DefaultConfig()
	mcfg.Enabled = cfg.Metrics
	if cfg.MetricsDB != "" {
		mcfg.DBPath = cfg.MetricsDB
	}
	collector, err := metrics.NewService(mcfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	defer collector.Close()

	client := openrgb.NewClient(cfg.Connect, cfg.TimeoutDuration())
	defer client.Close()

	d, err := daemon.New(daemon.Config{
		Interval: cfg.IntervalDuration(),
		LoadDiff: cfg.LoadDiffFraction(),
		Spec:     cfg.Spec,
		Enabled:  cfg.Enabled,
	}, client, cpuload.NewSampler(), collector)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize daemon")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel, d)

	if err := d.Run(ctx); err != nil {
		pid.Remove(cfg.PIDFile)
		fatal(err)
	}

	logger.Info().Msg("Exiting...")
}

// handleSignals forwards process signals to the daemon: SIGUSR1 toggles
// suspend/resume, SIGHUP forces a reload, termination signals stop the
// loop unconditionally.
func handleSignals(cancel context.CancelFunc, d *daemon.Daemon) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGHUP)

	for sig := range sigs {
		logger.Debug().Str("signal", sig.String()).Msg("Received signal")
		switch sig {
		case syscall.SIGUSR1:
			d.RequestToggle()
		case syscall.SIGHUP:
			d.RequestReload()
		default:
			logger.Info().Msg("Received termination signal.")
			cancel()
			return
		}
	}
}

func fatal(err error) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.FatalWithCode(appErr).Msg("daemon failed")
		return
	}

	logger.Fatal().Err(err).Msg("daemon failed")
}
