package service

import (
	"context"

	"github.com/google/uuid"

	"nfecusto/internal/domain"
	"nfecusto/internal/port"
)

// InvoiceService exposes read access to imported invoices. Invoices are
// immutable after import; mutation is limited to deletion, which lives on
// ImportService next to the bookkeeping it has to undo.
type InvoiceService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error)
}

type invoiceService struct {
	invoices  port.InvoiceRepository
	suppliers port.SupplierRepository
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(invoices port.InvoiceRepository, suppliers port.SupplierRepository) InvoiceService {
	return &invoiceService{invoices: invoices, suppliers: suppliers}
}

func (s *invoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.GetByID(ctx, inv.SupplierID)
	if err != nil {
		return nil, err
	}
	inv.Supplier = supplier
	return inv, nil
}

func (s *invoiceService) List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error) {
	return s.invoices.List(ctx, offset, limit)
}
