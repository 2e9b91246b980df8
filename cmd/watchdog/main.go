// Package main provides the watchdog entry point.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/radio-watchdog/internal/app/failover"
	"github.com/osa030/radio-watchdog/internal/infra/backup"
	"github.com/osa030/radio-watchdog/internal/infra/config"
	"github.com/osa030/radio-watchdog/internal/infra/device"
	"github.com/osa030/radio-watchdog/internal/infra/logger"
	"github.com/osa030/radio-watchdog/internal/infra/metrics"
	"github.com/osa030/radio-watchdog/internal/infra/player"
	"github.com/osa030/radio-watchdog/internal/infra/probe"
)

const defaultConfigPath = "/etc/radio-watchdog/config.yaml"

var (
	app        = kingpin.New("radio-watchdog", "Keeps a radio stream playing, falling back to local files when offline")
	configPath = app.Flag("config", "Path to config file").Envar("RADIO_WATCHDOG_CONFIG").Default(defaultConfigPath).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zlog.Error().Msgf("Failed to load config: %v", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Watchdog error: %v", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file. A missing file at the default location
// means the built-in defaults are used.
func loadConfig(path string) (*config.Config, error) {
	zlog.Info().Msgf("Loading config from %s", path)
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		zlog.Info().Msg("Config file not found, using built-in defaults")
		return config.Default()
	}
	return nil, err
}

// run wires the components and supervises playback until SIGINT/SIGTERM.
// Only construction errors are returned; playback problems never end the run.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Device.Disabled {
		zlog.Info().Msg("Audio device configuration disabled")
	} else {
		device.NewInitializer(cfg.Device.Methods, cfg.Device.AttemptTimeout).ConfigureOutput(ctx)
	}

	prober, err := probe.New(probe.Config{
		Type:     cfg.Probe.Type,
		Host:     cfg.Probe.Host,
		Timeout:  cfg.Probe.Timeout,
		Settings: cfg.Probe.Settings,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create connectivity probe")
	}

	backend := player.NewProcessBackend(player.Config{
		Binary:      cfg.Player.Binary,
		AudioDevice: cfg.Player.AudioDevice,
		ExtraArgs:   cfg.Player.ExtraArgs,
		LoopFlag:    cfg.Player.LoopFlag,
		StopGrace:   cfg.Player.StopGrace,
		IdleDelay:   cfg.Player.IdleDelay,
	})
	lister := backup.NewLister(cfg.Backup.Directory, cfg.Backup.Extensions)

	m, err := metrics.New()
	if err != nil {
		return errors.Wrap(err, "failed to create metrics")
	}
	var metricsSrv *metrics.Server
	if cfg.Metrics.Addr != "" {
		metricsSrv = m.Serve(cfg.Metrics.Addr)
	}

	ctrl := failover.NewController(failover.Config{
		StreamURL:          cfg.StreamURL,
		OfflineGracePeriod: cfg.OfflineGracePeriod,
		TickInterval:       cfg.TickInterval,
	}, prober, backend, lister)

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for e := range ctrl.Events() {
			m.Observe(e)
		}
	}()

	zlog.Info().Msgf("Watchdog started: stream=%s backup_dir=%s probe=%s/%s grace=%s interval=%s",
		cfg.StreamURL, lister.Dir(), prober.Name(), cfg.Probe.Host, cfg.OfflineGracePeriod, cfg.TickInterval)

	runErr := ctrl.Run(ctx)
	ctrl.Close()
	<-pumpDone

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			zlog.Error().Msgf("Failed to shutdown metrics server: %v", err)
		}
	}

	zlog.Info().Msg("Watchdog stopped")
	return runErr
}
