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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/workpanel/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/workpanel/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/workpanel/internal/adapter/driving/http"
	"github.com/ericfisherdev/workpanel/internal/application"
	"github.com/ericfisherdev/workpanel/internal/config"
	"github.com/ericfisherdev/workpanel/internal/domain/businesscal"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
		"project_name", cfg.ProjectName,
		"github_username", cfg.GitHubUsername,
	)

	// 2. Load the business calendar and build the holiday set once; it is
	// immutable for the process lifetime.
	cal, err := config.LoadCalendar(cfg.CalendarPath)
	if err != nil {
		return err
	}
	holidays := businesscal.BuildHolidaySet(cal.Holidays)
	slog.Info("business calendar loaded", "path", cfg.CalendarPath, "holidays", len(holidays))

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 5. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 6. Wire driven adapters.
	itemStore := sqliteadapter.NewItemRepo(db)
	historyStore := sqliteadapter.NewStatusHistoryRepo(db)
	thresholdStore := sqliteadapter.NewThresholdRepo(db)
	filterStore := sqliteadapter.NewFilterRepo(db)
	repoStore := sqliteadapter.NewRepoRepo(db)

	// 7. Create application services.
	statusSvc := application.NewStatusService(itemStore, historyStore, cfg.ProjectName)
	attentionSvc := application.NewAttentionService(thresholdStore, holidays)

	// 8. Create the GitHub client and start polling. Without credentials the
	// app still serves stored data, but nothing refreshes.
	var pollSvc *application.PollService
	if cfg.HasGitHubCredentials() {
		ghClient := githubadapter.NewClient(cfg.GitHubToken, cfg.GitHubUsername)
		pollSvc = application.NewPollService(ghClient, itemStore, repoStore, cfg.PollInterval)
		go pollSvc.Start(ctx)
		slog.Info("poll service started", "username", cfg.GitHubUsername)
	} else {
		slog.Warn("no github credentials configured, polling disabled")
	}

	// 9. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(
		itemStore, repoStore, filterStore, thresholdStore,
		statusSvc, attentionSvc, pollSvc, slog.Default(),
	)
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("workpanel started",
		"listen_addr", cfg.ListenAddr,
		"poll_interval", cfg.PollInterval,
	)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
