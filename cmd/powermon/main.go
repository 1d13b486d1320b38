package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/powermon/internal/acquisition"
	"codeberg.org/mutker/powermon/internal/config"
	"codeberg.org/mutker/powermon/internal/errors"
	"codeberg.org/mutker/powermon/internal/logger"
	"codeberg.org/mutker/powermon/internal/monitor"
	"codeberg.org/mutker/powermon/internal/pid"
	"codeberg.org/mutker/powermon/internal/pipeline"
	"codeberg.org/mutker/powermon/internal/telemetry"
	"github.com/spf13/pflag"
)

var (
	cfg    *config.Config
	source acquisition.Source
	sink   telemetry.Sink
)

func main() {
	if err := initialize(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "powermon: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	err := loop(ctx)
	cleanup()

	if err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			logger.FatalWithCode(appErr).Msg("Monitor stopped")
		}
		logger.Fatal().Err(err).Msg("Monitor stopped")
	}
}

func initialize() error {
	errFactory := errors.New()

	var err error
	cfg, err = config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.Init(level, logger.IsService())
	logger.Debug().
		Int("sample_rate", cfg.SampleRate).
		Int("mains_frequency", cfg.MainsFrequency).
		Int("buffer_size", cfg.BufferSize).
		Msg("Config loaded")

	if err := pid.Write(cfg.PIDFile); err != nil {
		return err
	}

	source, err = acquisition.NewSyntheticFromConfig(cfg)
	if err != nil {
		removePID()
		return errFactory.Wrap(errors.ErrInitFailed, err)
	}

	sink, err = telemetry.NewService(telemetry.Config{
		Print:        cfg.Print,
		LineProtocol: cfg.LineProtocol,
		Output:       os.Stdout,
		Tags:         cfg.Telemetry.Tags,
	}, logger.WithComponent("telemetry"))
	if err != nil {
		removePID()
		return errFactory.Wrap(errors.ErrInitFailed, err)
	}

	return nil
}

func loop(ctx context.Context) error {
	p, err := pipeline.NewFromConfig(cfg)
	if err != nil {
		return errors.New().Wrap(errors.ErrInitFailed, err)
	}

	logger.Info().
		Int("samples_per_cycle", cfg.SamplesPerCycle()).
		Msg("Starting power monitor")

	if err := monitor.New(source, p, sink).Run(ctx); err != nil {
		return errors.New().Wrap(errors.ErrMainLoop, err)
	}
	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup() {
	errFactory := errors.New()

	if err := sink.Close(); err != nil {
		logger.ErrorWithCode(errFactory.Wrap(errors.ErrShutdownFailed, err)).Msg("failed to close telemetry")
	}
	if err := source.Close(); err != nil {
		logger.ErrorWithCode(errFactory.Wrap(errors.ErrShutdownFailed, err)).Msg("failed to close source")
	}
	removePID()
	logger.Info().Msg("Exiting...")
}

func removePID() {
	if err := pid.Remove(cfg.PIDFile); err != nil {
		logger.Error().Err(err).Msg("failed to remove pid file")
	}
}
