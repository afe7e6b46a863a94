package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nfecusto/internal/port"
)

// MockDocumentFeed is a mock implementation of port.DocumentFeed.
type MockDocumentFeed struct {
	mock.Mock
}

func (m *MockDocumentFeed) RegisterCompany(ctx context.Context, taxID string) error {
	args := m.Called(ctx, taxID)
	return args.Error(0)
}

func (m *MockDocumentFeed) UploadCertificate(ctx context.Context, taxID, pfxBase64, password string) (*port.CertificateInfo, error) {
	args := m.Called(ctx, taxID, pfxBase64, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.CertificateInfo), args.Error(1)
}

func (m *MockDocumentFeed) FetchBatch(ctx context.Context, taxID, lastNSU string) ([]port.FeedDocument, string, error) {
	args := m.Called(ctx, taxID, lastNSU)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]port.FeedDocument), args.String(1), args.Error(2)
}
