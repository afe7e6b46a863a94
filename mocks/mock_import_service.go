package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"nfecusto/internal/domain"
	"nfecusto/internal/service"
)

// MockImportService is a mock implementation of service.ImportService.
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Import(ctx context.Context, xmlText string) (*domain.Invoice, error) {
	args := m.Called(ctx, xmlText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockImportService) ImportBatch(ctx context.Context, inputs []service.ImportInput) []domain.ImportOutcome {
	args := m.Called(ctx, inputs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.ImportOutcome)
}

func (m *MockImportService) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}
