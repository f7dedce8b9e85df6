package main

import (
	"context"
	"log"
	"time"

	"watchplan/internal/seed"
	"watchplan/pkg/database"
	"watchplan/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	if err := seed.Run(ctx, db); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Printf("sample catalog loaded into %s in %s", cfg.Database.Path, time.Since(start).Round(time.Millisecond))
}
