// Package main provides the ctrlvee daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kutsaratinidor/ctrlvee/internal/api/rest"
	"github.com/kutsaratinidor/ctrlvee/internal/app/monitor"
	"github.com/kutsaratinidor/ctrlvee/internal/app/notification"
	"github.com/kutsaratinidor/ctrlvee/internal/app/softqueue"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/config"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/logger"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/store"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/tmdb"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/vlc"
)

var (
	app        = kingpin.New("ctrlvee-server", "VLC soft-queue daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
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

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main daemon logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	player, err := vlc.New(vlc.Config{
		Host:     cfg.VLC.Host,
		Port:     cfg.VLC.Port,
		Password: cfg.VLC.Password,
		Timeout:  cfg.VLC.Timeout(),
	})
	if err != nil {
		return fmt.Errorf("failed to create player client: %w", err)
	}

	st, err := store.New(cfg.Queue.BackupFile)
	if err != nil {
		return fmt.Errorf("failed to open queue store: %w", err)
	}

	queueMgr := softqueue.NewManager(player, st)
	if err := queueMgr.Load(ctx); err != nil {
		zlog.Warn().Msgf("Failed to restore queue state: %v", err)
	}
	// Finish an interrupted shuffle restore from a previous run.
	if err := queueMgr.RestoreShuffleIfDormant(ctx); err != nil {
		zlog.Warn().Msgf("Startup shuffle restore failed, monitor will retry: %v", err)
	}

	var enricher notification.Enricher
	if cfg.Metadata.TMDBAPIKey != "" {
		tmdbClient, err := tmdb.New(tmdb.Config{
			APIKey:   cfg.Metadata.TMDBAPIKey,
			Language: cfg.Metadata.Language,
		})
		if err != nil {
			return fmt.Errorf("failed to create metadata client: %w", err)
		}
		enricher = tmdbClient
		zlog.Info().Msg("Movie metadata enrichment enabled")
	}

	sinks, err := notification.NewSinks(cfg.Notifications.Sinks)
	if err != nil {
		return fmt.Errorf("failed to create notification sinks: %w", err)
	}
	notifier := notification.NewManager(sinks, enricher)
	zlog.Info().Msgf("Notifications: %d sink(s) configured", notifier.SinkCount())

	mon := monitor.New(monitor.Config{
		PollInterval: cfg.Monitor.PollInterval(),
		Cooldown:     cfg.Monitor.Cooldown(),
		GraceWindow:  cfg.Monitor.GraceWindow(),
		EndThreshold: cfg.Monitor.EndThreshold,
	}, queueMgr, player, notifier)
	go mon.Run(ctx)

	mux := http.NewServeMux()
	rest.NewService(queueMgr, player).Register(mux)

	// h2c lets HTTP/2 clients connect without TLS
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}
