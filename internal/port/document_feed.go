package port

import (
	"context"
	"time"
)

// FeedDocument is one raw XML document returned by the fiscal distribution
// feed. The importer treats it exactly like a user-uploaded file.
type FeedDocument struct {
	NSU       string
	AccessKey string
	XML       string
	Type      string
}

// CertificateInfo is the metadata the feed returns after a certificate
// upload.
type CertificateInfo struct {
	LegalName string
	ExpiresAt *time.Time
}

// DocumentFeed is the fiscal-authority document distribution service.
// FetchBatch returns the documents published after lastNSU together with
// the advanced cursor (equal to lastNSU when nothing new was returned).
// Network errors are the feed's to retry; parse failures are not.
type DocumentFeed interface {
	RegisterCompany(ctx context.Context, taxID string) error
	UploadCertificate(ctx context.Context, taxID, pfxBase64, password string) (*CertificateInfo, error)
	FetchBatch(ctx context.Context, taxID, lastNSU string) ([]FeedDocument, string, error)
}
