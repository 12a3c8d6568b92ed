package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"shelflife/adapters/api"
	"shelflife/adapters/memory"
	"shelflife/adapters/postgres"
	"shelflife/app"
	"shelflife/internal"
	"shelflife/internal/analysis"
	"shelflife/internal/config"
	"shelflife/internal/errors"
	"shelflife/internal/migration"
	"shelflife/ports"
)

// initDatabase connects to PostgreSQL and applies the schema
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(appConfig.Database.MaxOpenConns)
	db.SetConnMaxLifetime(appConfig.Database.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	logger := internal.NewDefaultLogger().WithComponent("Main")

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	conditions, err := config.LoadConditions(appConfig.Data.ConditionsFile)
	if err != nil {
		log.Fatalf("Failed to load condition table: %v", err)
	}

	var repo ports.RunRepository
	if appConfig.Database.Enabled() {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		defer db.Close()
		repo = postgres.NewRunRepository(db)
		logger.Info("storing runs in PostgreSQL")
	} else {
		repo = memory.NewRunRepository()
		logger.Info("DATABASE_URL not set, storing runs in memory")
	}

	engine := analysis.NewEngine(conditions,
		analysis.WithWorkers(appConfig.Analysis.Workers),
		analysis.WithCriteria(appConfig.Analysis.Criteria),
		analysis.WithLogger(logger),
	)
	service := app.NewAnalysisService(engine, repo)

	server := api.NewServer(service, conditions, api.Config{
		Port:           appConfig.Server.Port,
		GinMode:        appConfig.Server.GinMode,
		MaxUploadBytes: appConfig.Server.MaxUploadMB << 20,
		MetricsEnabled: appConfig.Metrics.Enabled,
		MetricsPath:    appConfig.Metrics.Path,
		ReadTimeout:    appConfig.Server.ReadTimeout,
		WriteTimeout:   appConfig.Server.WriteTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown: %v", err)
	}
}
