package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mhadysydney/fridge-controll-app/internal/adapter/teltonika"
	"github.com/mhadysydney/fridge-controll-app/internal/logger"
	"github.com/mhadysydney/fridge-controll-app/pkg/api"
	"github.com/mhadysydney/fridge-controll-app/pkg/config"
	"github.com/mhadysydney/fridge-controll-app/pkg/dout1"
	"github.com/mhadysydney/fridge-controll-app/pkg/metrics"
	"github.com/mhadysydney/fridge-controll-app/pkg/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the fridged gateway",
	Long: `Start the fridged gateway with the specified configuration.

The gateway opens the device-facing TCP listener, the operator HTTP API,
and (if enabled) the Prometheus metrics endpoint, then runs until it
receives SIGINT or SIGTERM.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/fridged/config.yaml.

Examples:
  # Start with default config location
  fridged start

  # Start with custom config file
  fridged start --config /etc/fridged/config.yaml

  # Start with environment variable overrides
  FRIDGED_LOGGING_LEVEL=DEBUG fridged start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Open the database before anything that depends on it
	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = st.Close() }()
	logger.Info("Database ready", "path", cfg.Database.Path)

	// Metrics are optional; a nil *metrics.Metrics disables collection
	var m *metrics.Metrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.NewMetrics(reg)
		metricsServer = metrics.NewServer(reg, cfg.Metrics.Port)
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	controller := dout1.New(cfg.DOUT1, st, m)
	logger.Info("DOUT1 automation configured",
		"io_id", controller.IOID(),
		"zero_timeout", cfg.DOUT1.ZeroTimeout.String(),
		"activation_duration", cfg.DOUT1.ActivationDuration.String())

	tracker, err := teltonika.New(cfg.Tracker, st, controller, m)
	if err != nil {
		return fmt.Errorf("failed to create tracker listener: %w", err)
	}

	apiServer := api.NewServer(cfg.API, st)
	logger.Info("API server configured", "port", cfg.API.Port)

	// Start everything in the background
	serverDone := make(chan error, 3)
	go func() {
		serverDone <- tracker.Serve(ctx)
	}()
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()
	if metricsServer != nil {
		go func() {
			serverDone <- metricsServer.Start()
		}()
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Gateway is running. Press Ctrl+C to stop.")

	var runErr error
	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
	case runErr = <-serverDone:
		signal.Stop(sigChan)
		if runErr != nil {
			logger.Error("Server error", "error", runErr)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := tracker.Stop(shutdownCtx); err != nil {
		logger.Error("Tracker shutdown error", "error", err)
	}
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error", "error", err)
		}
	}

	// Give in-flight goroutines a moment to drain their done channels
	drain := time.After(100 * time.Millisecond)
	for {
		select {
		case <-serverDone:
		case <-drain:
			if runErr != nil {
				return runErr
			}
			logger.Info("Gateway stopped gracefully")
			return nil
		}
	}
}
