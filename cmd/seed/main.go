package main

import (
	"context"
	"fmt"
	"os"

	"food-co2-estimator/internal/core/emission"
	"food-co2-estimator/internal/infrastructure/config"
	"food-co2-estimator/internal/infrastructure/database"
	"food-co2-estimator/internal/pkg/common"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	csvPath := flag.StringP("csv", "f", "data/emissions_sample.csv", "emission factor CSV (denstoreklimadatabase.dk export)")
	dbPath := flag.String("db", "", "SQLite database path (default from config)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	path := cfg.Database.Path
	if *dbPath != "" {
		path = *dbPath
	}

	ctx := context.Background()
	db, err := database.OpenAndMigrate(ctx, path)
	if err != nil {
		common.LogFatal("Failed to open database", zap.String("path", path), zap.Error(err))
	}
	defer db.Close()

	f, err := os.Open(*csvPath)
	if err != nil {
		common.LogFatal("Failed to open CSV", zap.String("csv", *csvPath), zap.Error(err))
	}
	defer f.Close()

	repo := emission.NewRepository(db)
	stats, err := emission.ImportCSV(ctx, f, repo)
	if err != nil {
		common.LogFatal("Import failed", zap.String("csv", *csvPath), zap.Error(err))
	}

	total, err := repo.Count(ctx)
	if err != nil {
		common.LogFatal("Failed to count rows", zap.Error(err))
	}
	fmt.Printf("imported %d, skipped %d, %d factors in %s\n", stats.Imported, stats.Skipped, total, path)
}
