package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexivanou/gazetteer/internal/api"
	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/database"
	"github.com/alexivanou/gazetteer/internal/importer"
	"github.com/alexivanou/gazetteer/internal/repository"
	"github.com/alexivanou/gazetteer/internal/scheduler"
	"github.com/alexivanou/gazetteer/internal/service"
	"github.com/alexivanou/gazetteer/internal/stats"
	"go.uber.org/zap"
)

const (
	migrationsDir   = "migrations"
	reimportTimeout = 6 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	if err := database.Migrate(db, cfg.DB, migrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repos := repository.NewRepositories(db, cfg.DB.Type)
	imp := importer.New(cfg.Import, repos, logger)

	isEmpty, err := repository.IsDatabaseEmpty(ctx, db)
	if err != nil {
		logger.Fatal("Failed to check if database is empty", zap.Error(err))
	}
	if isEmpty {
		logger.Info("Database is empty, importing datasets...")
		forced := cfg.Import
		forced.Force = true
		if _, err := importer.New(forced, repos, logger).Run(ctx); err != nil {
			logger.Fatal("Failed to import datasets", zap.Error(err))
		}
	}

	svc := service.NewService(repos.Country, repos.City, repos.AltName, cfg.Import.Languages, cfg.Query)
	statsCollector := stats.NewCollector(db, cfg.DB)
	router := api.NewRouter(svc, statsCollector, logger)

	var cron *scheduler.CronScheduler
	if cfg.Import.Schedule != "" {
		cron = scheduler.NewCronScheduler(logger, reimportTimeout)
		err := cron.AddJob("reimport", cfg.Import.Schedule, func(ctx context.Context) error {
			return svc.Exclusive(func() error {
				_, err := imp.Run(ctx)
				return err
			})
		})
		if err != nil {
			logger.Fatal("Failed to schedule reimport", zap.Error(err))
		}
		cron.Start()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	if cron != nil {
		cron.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
