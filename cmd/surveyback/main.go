package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/optittm/survey-back-api/internal/comments"
	corecfg "github.com/optittm/survey-back-api/internal/core/config"
	"github.com/optittm/survey-back-api/internal/core/keys"
	"github.com/optittm/survey-back-api/internal/core/random"
	"github.com/optittm/survey-back-api/internal/core/rules"
	"github.com/optittm/survey-back-api/internal/core/storage/postgres"
	"github.com/optittm/survey-back-api/internal/migrations"
	"github.com/optittm/survey-back-api/internal/projects"
	"github.com/optittm/survey-back-api/internal/security"
	"github.com/optittm/survey-back-api/internal/sentiment"
	"github.com/optittm/survey-back-api/internal/server"
	"github.com/optittm/survey-back-api/internal/trigger"
)

func main() {
	configPath := flag.String("config", "survey.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "rules_path", cfg.Rules.Path, "auth_enabled", cfg.Security.SecretKey != "")

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Load the rule catalog
	catalog, err := rules.NewFileCatalog(cfg.Rules.Path)
	if err != nil {
		slog.Error("Failed to load survey rules", "path", cfg.Rules.Path, "error", err)
		os.Exit(1)
	}

	// 4. Per-project encryption keys
	keyRegistry := keys.NewRegistry(dbAdapter)

	// 5. Authentication
	guard := security.NewGuard(cfg.Security.SecretKey, cfg.Security.AccessTokenExpireMinutes)
	securitySvc := security.NewService(guard, cfg.Security.ClientSecrets, cfg.Security.JWKSURL, cfg.Security.AuthURL)
	if !guard.Enabled() {
		slog.Warn("Authentication is disabled: security.secret_key is empty")
	}

	// 6. Domain services
	analyzer := sentiment.NewLexiconAnalyzer()
	triggerSvc := trigger.NewService(catalog, keyRegistry, dbAdapter, random.NewSource())
	commentsSvc := comments.NewService(catalog, keyRegistry, dbAdapter, analyzer, cfg.Survey.UseFingerprint, cfg.Server.MaxBodySizeMB)
	projectsSvc := projects.NewService(catalog, dbAdapter, dbAdapter)

	// 7. Initialize Server
	srv := server.New(cfg.Server.Addr(), dbAdapter.DB(), cfg.Server.Mode, cfg.CORS)
	securitySvc.RegisterRoutes(srv.Engine)
	triggerSvc.RegisterRoutes(srv.Engine, guard.Require(security.ScopeClient))
	commentsSvc.RegisterRoutes(srv.Engine, guard.Require(security.ScopeClient), guard.Require(security.ScopeData))
	projectsSvc.RegisterRoutes(srv.Engine, guard.Require(security.ScopeData))

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}
