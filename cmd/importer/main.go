package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"hardware-catalog/internal/config"
	"hardware-catalog/internal/db"
	"hardware-catalog/internal/importer"
	productrepo "hardware-catalog/internal/repository/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to product CSV export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	raw, err := os.ReadFile(filePath)
	if err != nil {
		logger.Fatalf("read file: %v", err)
	}

	imp := importer.NewCSVImporter(productrepo.NewPostgres(pool, logger), logger)

	start := time.Now()
	sum, err := imp.Run(ctx, raw)
	if err != nil {
		logger.Fatalf("import failed (nothing committed): %v", err)
	}

	fmt.Printf("Imported %d products (%d duplicates skipped, %d rows rejected) in %s\n",
		sum.Committed, sum.Duplicates, len(sum.Rejected), time.Since(start).Truncate(time.Millisecond))
	for _, rej := range sum.Rejected {
		fmt.Printf("  row %d: %s\n", rej.Row, rej.Reason)
	}
}
