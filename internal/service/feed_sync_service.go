package service

import (
	"context"
	"fmt"
	"log"

	"nfecusto/internal/domain"
	"nfecusto/internal/port"
)

// FeedSyncService pulls documents from the fiscal distribution feed and
// pushes every returned XML through the regular import path. The NSU
// cursor is persisted per certificate and only advances when the feed
// returned something new.
type FeedSyncService interface {
	RegisterCertificate(ctx context.Context, taxID, pfxBase64, password string) (*domain.Certificate, error)
	ListCertificates(ctx context.Context) ([]domain.Certificate, error)
	Sync(ctx context.Context, taxID string) ([]domain.ImportOutcome, error)
	SyncAll(ctx context.Context) (map[string][]domain.ImportOutcome, error)
}

type feedSyncService struct {
	feed         port.DocumentFeed
	certificates port.CertificateRepository
	importer     ImportService
}

// NewFeedSyncService creates a new FeedSyncService implementation.
func NewFeedSyncService(
	feed port.DocumentFeed,
	certificates port.CertificateRepository,
	importer ImportService,
) FeedSyncService {
	return &feedSyncService{feed: feed, certificates: certificates, importer: importer}
}

func (s *feedSyncService) RegisterCertificate(ctx context.Context, taxID, pfxBase64, password string) (*domain.Certificate, error) {
	if err := s.feed.RegisterCompany(ctx, taxID); err != nil {
		return nil, fmt.Errorf("feedSyncService.RegisterCertificate company: %w", err)
	}

	info, err := s.feed.UploadCertificate(ctx, taxID, pfxBase64, password)
	if err != nil {
		return nil, fmt.Errorf("feedSyncService.RegisterCertificate upload: %w", err)
	}

	cert := &domain.Certificate{
		TaxID:     taxID,
		LegalName: info.LegalName,
		ExpiresAt: info.ExpiresAt,
	}
	if err := s.certificates.Upsert(ctx, cert); err != nil {
		return nil, err
	}
	return s.certificates.GetByTaxID(ctx, taxID)
}

func (s *feedSyncService) ListCertificates(ctx context.Context) ([]domain.Certificate, error) {
	return s.certificates.List(ctx)
}

func (s *feedSyncService) Sync(ctx context.Context, taxID string) ([]domain.ImportOutcome, error) {
	cert, err := s.certificates.GetByTaxID(ctx, taxID)
	if err != nil {
		return nil, err
	}

	docs, newNSU, err := s.feed.FetchBatch(ctx, taxID, cert.LastNSU)
	if err != nil {
		return nil, fmt.Errorf("feedSyncService.Sync fetch: %w", err)
	}

	inputs := make([]ImportInput, 0, len(docs))
	for _, doc := range docs {
		name := doc.AccessKey
		if name == "" {
			name = "nsu-" + doc.NSU
		}
		inputs = append(inputs, ImportInput{Name: name, XML: doc.XML})
	}
	outcomes := s.importer.ImportBatch(ctx, inputs)

	if newNSU != "" && newNSU != cert.LastNSU {
		if err := s.certificates.UpdateLastNSU(ctx, cert.ID, newNSU); err != nil {
			// Worst case the next sync re-fetches the same batch; the
			// access-key index keeps re-imports idempotent.
			log.Printf("feedSyncService.Sync: update cursor for %s: %v", taxID, err)
		}
	}

	log.Printf("feedSyncService.Sync: %s fetched=%d cursor %s -> %s",
		taxID, len(docs), cert.LastNSU, newNSU)
	return outcomes, nil
}

func (s *feedSyncService) SyncAll(ctx context.Context) (map[string][]domain.ImportOutcome, error) {
	certs, err := s.certificates.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[string][]domain.ImportOutcome, len(certs))
	for _, cert := range certs {
		outcomes, err := s.Sync(ctx, cert.TaxID)
		if err != nil {
			// One unreachable feed must not abort the remaining companies.
			log.Printf("feedSyncService.SyncAll: %s: %v", cert.TaxID, err)
			continue
		}
		results[cert.TaxID] = outcomes
	}
	return results, nil
}
