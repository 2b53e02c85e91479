package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/saaga0h/solartone/internal/daemon"
	"github.com/saaga0h/solartone/internal/transport"
	"github.com/saaga0h/solartone/internal/transport/sim"
	"github.com/saaga0h/solartone/pkg/config"
	"github.com/saaga0h/solartone/pkg/health"
	"github.com/saaga0h/solartone/pkg/mqtt"
)

func main() {
	// Load configuration with hierarchy: defaults → env → file → flags
	cfg := config.NewConfig()
	cfg.LoadFromEnv()
	if help := cfg.LoadFromFlags(); help {
		pflag.Usage()
		os.Exit(0)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting solartone",
		"high_temp", cfg.HighTemp,
		"low_temp", cfg.LowTemp,
		"latitude", cfg.Latitude,
		"longitude", cfg.Longitude,
		"duration_minutes", cfg.DurationMinutes,
		"timer_mode", cfg.TimerMode,
		"transport", cfg.Transport)

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	tr := buildTransport(cfg, logger)

	// Optional MQTT announcer and override channel
	var mqttClient mqtt.Client
	var announcer *daemon.Announcer
	if cfg.MQTTEnabled() {
		mqttClient = mqtt.NewClient(cfg, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
		err := mqttClient.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Error("MQTT connection failed", "error", err)
			os.Exit(1)
		}
		announcer = daemon.NewAnnouncer(mqttClient, cfg.MQTTPrefix, logger)
	}

	d := daemon.New(cfg, tr, announcer, logger)

	// Optional health check server
	var httpServer *http.Server
	if cfg.HealthPort > 0 {
		checker := health.NewChecker(d.Status, logger)
		httpServer = startHealthServer(cfg.HealthPort, checker, logger)
	}

	// Run the reactor loop in a goroutine
	daemonErr := make(chan error, 1)
	go func() {
		daemonErr <- d.Run(ctx)
	}()

	// Wait for shutdown signal or daemon error
	exitCode := 0
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-daemonErr:
		if err != nil {
			logger.Error("Daemon failed", "error", err)
			exitCode = 1
		}
	}

	// Graceful shutdown
	logger.Info("Initiating graceful shutdown")
	cancel()

	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if err := tr.Close(); err != nil {
		logger.Error("Error closing transport", "error", err)
	}

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down health server", "error", err)
		}
	}

	logger.Info("solartone shutdown complete")
	os.Exit(exitCode)
}

// buildTransport selects the display transport. Only the simulated
// compositor ships in-tree; real compositor bindings plug in behind
// the same interface.
func buildTransport(cfg *config.Config, logger *slog.Logger) transport.Transport {
	logger.Warn("Using simulated display transport",
		"outputs", cfg.SimOutputs,
		"ramp_size", cfg.SimRampSize)
	specs := make([]sim.OutputSpec, 0, cfg.SimOutputs)
	for i := 0; i < cfg.SimOutputs; i++ {
		specs = append(specs, sim.OutputSpec{
			ID:       transport.OutputID(i + 1),
			RampSize: uint32(cfg.SimRampSize),
		})
	}
	return sim.New(specs...)
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/status", checker.StatusHandlerFunc())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
