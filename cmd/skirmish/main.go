// Package main is the entry point for Skirmish.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/samdwyer/skirmish/internal/config"
	"github.com/samdwyer/skirmish/internal/game"
	"github.com/samdwyer/skirmish/internal/logger"
	"github.com/samdwyer/skirmish/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a settings file (yaml, json or toml)")
	headless := flag.Bool("headless", false, "fight in the console without the terminal UI")
	flag.Parse()

	if err := run(*configPath, *headless); err != nil {
		log.Printf("skirmish: %v", err)
		os.Exit(1)
	}
}

// run owns every resource of the process so deferred cleanup always happens
// before main exits.
func run(configPath string, headless bool) error {
	// Load .env file for local development
	// This makes HONEYCOMB_SKIRMISH_API_KEY available
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}

	setupOTelEnv()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if headless {
		cfg.Combat.Headless = true
	}

	logOut, closeLog, err := logOutput(cfg)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()
	logger.Init(cfg.Log.Level, cfg.Log.Format, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:     cfg.Tracing.Enabled,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logger.Log.WithError(err).Warn("telemetry setup failed, running without traces")
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Log.WithError(err).Error("telemetry shutdown")
			}
		}()
	}

	s, err := game.NewSession(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize game: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Log.WithError(err).Error("close session")
		}
	}()

	if cfg.Combat.Headless {
		err = s.RunHeadless(ctx, os.Stdout)
	} else {
		err = s.Run(ctx)
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// logOutput picks the log destination. The terminal UI owns stdout and
// stderr, so without a log file the interactive mode discards logs.
func logOutput(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	}
	if cfg.Combat.Headless {
		return os.Stderr, func() {}, nil
	}
	return io.Discard, func() {}, nil
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv() {
	if _, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); !ok {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")
	}

	apiKey := os.Getenv("HONEYCOMB_SKIRMISH_API_KEY")
	dataset := os.Getenv("HONEYCOMB_SKIRMISH_DATASET")
	if dataset == "" {
		dataset = "skirmish"
	}
	if apiKey != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
			fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", apiKey, dataset))
	}
}
