package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/api"
	"github.com/pharmaguard-server/internal/cache"
	"github.com/pharmaguard-server/internal/config"
	"github.com/pharmaguard-server/internal/database"
	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/internal/reportstore"
	"github.com/pharmaguard-server/internal/repository"
	"github.com/pharmaguard-server/internal/service"
	"github.com/pharmaguard-server/pkg/phenotype"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(&cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host":   cfg.Server.Host,
		"port":   cfg.Server.Port,
		"driver": cfg.Database.Driver,
	}).Info("Starting PharmaGuard server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Report store, SQLite or PostgreSQL depending on the configured driver
	reports, db, err := openReportStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open report store")
	}
	defer reports.Close()

	// The relational variant projection exists only on PostgreSQL
	var variants domain.VariantRepository
	if db != nil {
		defer db.Close()
		variants = repository.NewVariantRepository(db.Pool, logger)
	}

	// Assessment cache, in-memory LRU with optional Redis tier
	assessmentCache, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize assessment cache")
	}
	defer assessmentCache.Close()

	// External phenotype caller; disabled unless a base URL is configured
	var phenotypes domain.PhenotypeCaller
	if cfg.Phenotype.BaseURL != "" {
		phenotypes = phenotype.NewClient(cfg.Phenotype, logger)
		logger.WithField("base_url", cfg.Phenotype.BaseURL).Info("External phenotype caller enabled")
	}

	parser := service.NewVCFParserService(logger)
	risk := service.NewRiskEngineService(logger)
	analyzer := service.NewAnalyzerService(logger, parser, risk, phenotypes, assessmentCache)

	server := api.NewServer(configManager, logger, analyzer, parser, risk, reports, variants)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// openReportStore opens the configured report store. On PostgreSQL it also
// runs pending migrations and returns the pgx pool for the variant
// repository; on SQLite the pool is nil.
func openReportStore(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (reportstore.Store, *database.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		store, err := reportstore.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.WithField("path", cfg.Database.SQLitePath).Info("SQLite report store ready")
		return store, nil, nil

	case "postgres":
		databaseURL := postgresURL(&cfg.Database)

		runner, err := database.NewMigrationRunner(databaseURL, cfg.Database.MigrationsPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating migration runner: %w", err)
		}
		if err := runner.Up(ctx); err != nil {
			runner.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		runner.Close()

		store, err := reportstore.NewPostgresStoreFromURL(databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}

		db, err := database.NewConnection(ctx, &cfg.Database, logger)
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("creating pgx pool: %w", err)
		}

		return store, db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// postgresURL builds a postgres:// connection URL from the database config.
func postgresURL(db *domain.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.Username, db.Password),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Database,
	}
	q := url.Values{}
	q.Set("sslmode", db.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg *domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch cfg.Output {
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		logger.SetOutput(os.Stdout)
	}

	return logger
}
