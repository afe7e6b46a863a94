package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"nfecusto/internal/domain"
)

// MockCertificateRepo is a mock implementation of port.CertificateRepository.
type MockCertificateRepo struct {
	mock.Mock
}

func (m *MockCertificateRepo) Upsert(ctx context.Context, cert *domain.Certificate) error {
	args := m.Called(ctx, cert)
	return args.Error(0)
}

func (m *MockCertificateRepo) GetByTaxID(ctx context.Context, taxID string) (*domain.Certificate, error) {
	args := m.Called(ctx, taxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Certificate), args.Error(1)
}

func (m *MockCertificateRepo) List(ctx context.Context) ([]domain.Certificate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Certificate), args.Error(1)
}

func (m *MockCertificateRepo) UpdateLastNSU(ctx context.Context, id uuid.UUID, lastNSU string) error {
	args := m.Called(ctx, id, lastNSU)
	return args.Error(0)
}
