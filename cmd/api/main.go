package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pltv-feature-service/internal/config"
	"pltv-feature-service/internal/observability"

	eventsHttp "pltv-feature-service/internal/events/adapters/http/fiber"
	eventsKafka "pltv-feature-service/internal/events/adapters/kafka"
	eventsRepoPg "pltv-feature-service/internal/events/adapters/postgres"
	eventsUsecase "pltv-feature-service/internal/events/core/usecase"

	featuresHttp "pltv-feature-service/internal/features/adapters/http/fiber"
	featuresRepoPg "pltv-feature-service/internal/features/adapters/postgres"
	featuresUsecase "pltv-feature-service/internal/features/core/usecase"

	"github.com/gofiber/fiber/v2"
	_ "github.com/lib/pq"
)

func main() {
	// Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.Logger)

	// DB connection
	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("failed to open postgres: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping postgres: %v", err)
	}

	// Adapter-level DB wrappers
	eventsDB := eventsRepoPg.NewSQLDB(db)
	featuresDB := featuresRepoPg.NewSQLDB(db)

	// Repositories
	historyRepo := eventsRepoPg.NewEventHistoryRepository(eventsDB)
	featureRepo := featuresRepoPg.NewFeatureRepository(featuresDB, cfg.Engine.FenceWrites)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := historyRepo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate customers table: %v", err)
	}
	if err := featureRepo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate customer_features table: %v", err)
	}

	// Usecases
	incrementalUC := featuresUsecase.NewIncrementalUpdateUseCase(featureRepo)
	recomputeUC := featuresUsecase.NewRecomputeFeaturesUseCase(historyRepo, featureRepo, logger)
	getFeaturesUC := featuresUsecase.NewGetFeaturesUseCase(featureRepo)

	updater := &featuresUsecase.FeatureUpdater{
		Incremental: incrementalUC,
		Recompute:   recomputeUC,
	}
	ingestUC := eventsUsecase.NewIngestEventsUseCase(
		historyRepo, updater, logger, cfg.Engine.RecomputeOnPurchase)

	// HTTP (Fiber) app + handlers
	app := fiber.New()

	eventsHandler := eventsHttp.NewEventHandler(ingestUC)
	app.Post("/events", eventsHandler.IngestEvent)
	app.Post("/events/bulk", eventsHandler.BulkIngestEvents)

	featuresHandler := featuresHttp.NewFeatureHandler(getFeaturesUC, recomputeUC)
	app.Get("/features/:customer_id", featuresHandler.GetFeatures)
	app.Post("/recompute", featuresHandler.RecomputeFeatures)

	// Optional Kafka ingest
	if cfg.Kafka.Enabled {
		consumer := eventsKafka.NewConsumer(
			cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, ingestUC, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Printf("kafka consumer stopped: %v", err)
			}
		}()
		log.Printf("kafka consumer started on topic %s", cfg.Kafka.Topic)
	}

	// Graceful shutdown
	go func() {
		if err := app.Listen(cfg.Server.Addr); err != nil {
			log.Printf("fiber stopped: %v", err)
		}
	}()

	log.Printf("server started on %s", cfg.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("fiber shutdown error: %v", err)
	}

	log.Println("server exiting")
}
