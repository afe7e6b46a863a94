package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"nfecusto/internal/config"
	"nfecusto/internal/feed/nuvemfiscal"
	"nfecusto/internal/handler"
	"nfecusto/internal/port"
	"nfecusto/internal/repository/postgres"
	"nfecusto/internal/router"
	"nfecusto/internal/service"
	s3storage "nfecusto/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	invoiceRepo := postgres.NewInvoiceRepo(db)
	supplierRepo := postgres.NewSupplierRepo(db)
	productRepo := postgres.NewProductRepo(db)
	certRepo := postgres.NewCertificateRepo(db)

	// Initialize the raw-XML archive when configured
	var archive port.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = s3storage.NewS3Client(&cfg.Archive)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	feedClient := nuvemfiscal.NewClient(&cfg.Feed)

	// Initialize services
	importSvc := service.NewImportService(invoiceRepo, supplierRepo, productRepo, archive, &cfg.Archive)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, supplierRepo)
	supplierSvc := service.NewSupplierService(supplierRepo, invoiceRepo)
	productSvc := service.NewProductService(productRepo)
	reportSvc := service.NewReportService(productRepo)
	syncSvc := service.NewFeedSyncService(feedClient, certRepo, importSvc)

	// Initialize handlers
	invoiceH := handler.NewInvoiceHandler(importSvc, invoiceSvc)
	supplierH := handler.NewSupplierHandler(supplierSvc)
	productH := handler.NewProductHandler(productSvc)
	reportH := handler.NewReportHandler(reportSvc)
	feedH := handler.NewFeedHandler(syncSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, invoiceH, supplierH, productH, reportH, feedH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background feed sync
	workerDone := make(chan struct{})
	if cfg.Sync.Enabled {
		worker := service.NewFeedSyncWorker(certRepo, syncSvc, service.FeedSyncWorkerConfig{
			PollInterval: time.Duration(cfg.Sync.PollIntervalSecs) * time.Second,
			Concurrency:  cfg.Sync.Concurrency,
		})
		go func() {
			defer close(workerDone)
			worker.Start(ctx)
		}()
	} else {
		close(workerDone)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	<-workerDone

	return nil
}
