package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	eventsRepoPg "pltv-feature-service/internal/events/adapters/postgres"
	featuresRepoPg "pltv-feature-service/internal/features/adapters/postgres"

	_ "github.com/lib/pq"
)

// Destructive reset: deletes all rows from customers and customer_features.
// Asks for confirmation unless -force is given.
func main() {
	dsn := flag.String("dsn", os.Getenv("POSTGRES_DSN"), "Postgres DSN")
	force := flag.Bool("force", false, "skip the confirmation prompt")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("POSTGRES_DSN (or -dsn) is required")
	}

	if !*force {
		fmt.Println("WARNING: this deletes ALL data from customers and customer_features.")
		fmt.Print("Type 'yes' to continue: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(line)) != "yes" {
			fmt.Println("operation cancelled")
			return
		}
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatalf("failed to open postgres: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping postgres: %v", err)
	}

	ctx := context.Background()
	historyRepo := eventsRepoPg.NewEventHistoryRepository(eventsRepoPg.NewSQLDB(db))
	featureRepo := featuresRepoPg.NewFeatureRepository(featuresRepoPg.NewSQLDB(db), false)

	if err := featureRepo.Clear(ctx); err != nil {
		log.Fatalf("failed to clear customer_features: %v", err)
	}
	if err := historyRepo.Clear(ctx); err != nil {
		log.Fatalf("failed to clear customers: %v", err)
	}

	log.Println("all tables cleared")
}
