package service

import (
	"context"
	"log"
	"sync"
	"time"

	"nfecusto/internal/port"
)

// FeedSyncWorkerConfig holds settings for the feed sync worker.
type FeedSyncWorkerConfig struct {
	PollInterval time.Duration
	Concurrency  int
}

// FeedSyncWorker periodically syncs every registered certificate against
// the fiscal distribution feed.
type FeedSyncWorker struct {
	certificates port.CertificateRepository
	syncService  FeedSyncService
	cfg          FeedSyncWorkerConfig
	wg           sync.WaitGroup
}

// NewFeedSyncWorker creates a new FeedSyncWorker.
func NewFeedSyncWorker(certificates port.CertificateRepository, syncService FeedSyncService, cfg FeedSyncWorkerConfig) *FeedSyncWorker {
	return &FeedSyncWorker{
		certificates: certificates,
		syncService:  syncService,
		cfg:          cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight syncs have finished.
func (w *FeedSyncWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("feedSyncWorker: started (poll=%s, concurrency=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Printf("feedSyncWorker: shutting down, waiting for in-flight syncs...")
			w.wg.Wait()
			log.Printf("feedSyncWorker: shutdown complete")
			return
		case <-ticker.C:
			certs, err := w.certificates.List(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("feedSyncWorker: list certificates: %v", err)
				continue
			}

			for i := range certs {
				cert := certs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Fresh context independent of the poll context so an
					// in-flight sync completes even during shutdown. The
					// access-key unique index keeps a sync that overlaps a
					// manual import idempotent.
					syncCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					if _, err := w.syncService.Sync(syncCtx, cert.TaxID); err != nil {
						log.Printf("feedSyncWorker: sync %s: %v", cert.TaxID, err)
					}
				}()
			}
		}
	}
}
