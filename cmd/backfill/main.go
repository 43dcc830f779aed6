package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"sync/atomic"

	"pltv-feature-service/internal/config"
	"pltv-feature-service/internal/observability"

	eventsRepoPg "pltv-feature-service/internal/events/adapters/postgres"
	featuresRepoPg "pltv-feature-service/internal/features/adapters/postgres"
	featuresUsecase "pltv-feature-service/internal/features/core/usecase"

	_ "github.com/lib/pq"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Rebuilds every customer_features row from the raw event history. Safe to
// rerun: each customer ends in an upsert on customer_id.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	dsn := flag.String("dsn", os.Getenv("POSTGRES_DSN"), "Postgres DSN")
	workers := flag.Int("workers", 8, "concurrent customers")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("POSTGRES_DSN (or -dsn) is required")
	}
	if *workers < 1 {
		log.Fatal("-workers must be positive")
	}

	logger := observability.NewLogger(config.LoggerConfig{Level: "info", Format: "text"})

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatalf("failed to open postgres: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping postgres: %v", err)
	}

	historyRepo := eventsRepoPg.NewEventHistoryRepository(eventsRepoPg.NewSQLDB(db))
	featureRepo := featuresRepoPg.NewFeatureRepository(featuresRepoPg.NewSQLDB(db), false)

	ctx := context.Background()

	if err := historyRepo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate customers table: %v", err)
	}
	if err := featureRepo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate customer_features table: %v", err)
	}

	recomputeUC := featuresUsecase.NewRecomputeFeaturesUseCase(historyRepo, featureRepo, logger)

	ids, err := historyRepo.ListCustomerIDs(ctx)
	if err != nil {
		log.Fatalf("failed to list customers: %v", err)
	}
	if len(ids) == 0 {
		log.Println("no customers to backfill")
		return
	}

	bar := progressbar.Default(int64(len(ids)), "backfilling")

	var g errgroup.Group
	g.SetLimit(*workers)

	var failed atomic.Int64
	for _, id := range ids {
		id := id
		g.Go(func() error {
			// One customer's failure must not block the rest.
			if err := recomputeUC.Execute(ctx, id); err != nil {
				log.Printf("backfill failed for %s: %v", id, err)
				failed.Add(1)
			}
			_ = bar.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	log.Printf("backfill done: %d customers, %d failed", len(ids), failed.Load())
	if failed.Load() > 0 {
		os.Exit(1)
	}
}
