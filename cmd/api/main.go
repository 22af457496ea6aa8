package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"hardware-catalog/internal/assetstore"
	"hardware-catalog/internal/config"
	"hardware-catalog/internal/db"
	"hardware-catalog/internal/httpserver"
	"hardware-catalog/internal/importer"
	productrepo "hardware-catalog/internal/repository/product"
	catalogsvc "hardware-catalog/internal/service/catalog"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	assets := assetstore.NewHTTP(assetstore.Config{
		Endpoint:  cfg.AssetStoreURL,
		APIKey:    cfg.AssetAPIKey,
		APISecret: cfg.AssetAPISecret,
		Folder:    cfg.AssetFolder,
	}, logger)
	catalogService := catalogsvc.New(productRepo, assets, logger)
	csvImporter := importer.NewCSVImporter(productRepo, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:  catalogService,
		Importer: csvImporter,
		PageSize: cfg.PageSize,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
