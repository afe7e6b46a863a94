package service

import (
	"context"

	"github.com/google/uuid"

	"nfecusto/internal/domain"
	"nfecusto/internal/port"
)

// SupplierService exposes supplier lookups and the mutable parts of a
// supplier record (notes and contacts). Everything else about a supplier
// is derived from imported invoices.
type SupplierService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	List(ctx context.Context, offset, limit int) ([]domain.Supplier, int, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	Invoices(ctx context.Context, supplierID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error)

	AddContact(ctx context.Context, contact *domain.SupplierContact) error
	UpdateContact(ctx context.Context, contact *domain.SupplierContact) error
	DeleteContact(ctx context.Context, supplierID, contactID uuid.UUID) error
}

type supplierService struct {
	suppliers port.SupplierRepository
	invoices  port.InvoiceRepository
}

// NewSupplierService creates a new SupplierService implementation.
func NewSupplierService(suppliers port.SupplierRepository, invoices port.InvoiceRepository) SupplierService {
	return &supplierService{suppliers: suppliers, invoices: invoices}
}

func (s *supplierService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	supplier, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	contacts, err := s.suppliers.ListContacts(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier.Contacts = contacts
	return supplier, nil
}

func (s *supplierService) List(ctx context.Context, offset, limit int) ([]domain.Supplier, int, error) {
	return s.suppliers.List(ctx, offset, limit)
}

func (s *supplierService) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return s.suppliers.UpdateNotes(ctx, id, notes)
}

func (s *supplierService) Invoices(ctx context.Context, supplierID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error) {
	if _, err := s.suppliers.GetByID(ctx, supplierID); err != nil {
		return nil, 0, err
	}
	return s.invoices.ListBySupplier(ctx, supplierID, offset, limit)
}

func (s *supplierService) AddContact(ctx context.Context, contact *domain.SupplierContact) error {
	if _, err := s.suppliers.GetByID(ctx, contact.SupplierID); err != nil {
		return err
	}
	return s.suppliers.AddContact(ctx, contact)
}

func (s *supplierService) UpdateContact(ctx context.Context, contact *domain.SupplierContact) error {
	return s.suppliers.UpdateContact(ctx, contact)
}

func (s *supplierService) DeleteContact(ctx context.Context, supplierID, contactID uuid.UUID) error {
	return s.suppliers.DeleteContact(ctx, supplierID, contactID)
}
