package port

import (
	"context"

	"github.com/google/uuid"

	"nfecusto/internal/domain"
)

// InvoiceRepository defines the contract for invoice persistence. Create
// writes the invoice, its line items and the derived purchase records in a
// single transaction; the unique index on access_key is the deduplication
// authority and a violation surfaces as domain.ErrDuplicateInvoice.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice, records []domain.PurchaseRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetByAccessKey(ctx context.Context, accessKey string) (*domain.Invoice, error)
	List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SupplierRepository defines the contract for supplier persistence.
// RecomputeTotal resums total_purchases from persisted invoices rather than
// incrementing, so a stale aggregate self-heals on the next import.
type SupplierRepository interface {
	FindOrCreate(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	GetByTaxID(ctx context.Context, taxID string) (*domain.Supplier, error)
	List(ctx context.Context, offset, limit int) ([]domain.Supplier, int, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	RecomputeTotal(ctx context.Context, id uuid.UUID) error

	AddContact(ctx context.Context, contact *domain.SupplierContact) error
	UpdateContact(ctx context.Context, contact *domain.SupplierContact) error
	DeleteContact(ctx context.Context, supplierID, contactID uuid.UUID) error
	ListContacts(ctx context.Context, supplierID uuid.UUID) ([]domain.SupplierContact, error)
}

// ProductRepository defines the contract for product aggregates and their
// purchase history.
type ProductRepository interface {
	// FindOrCreate resolves a product by code, falling back to barcode, and
	// creates it when neither matches. A missing barcode on an existing
	// product is backfilled from the candidate.
	FindOrCreate(ctx context.Context, candidate *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	Search(ctx context.Context, query string, offset, limit int) ([]domain.Product, int, error)
	SetPackageQuantity(ctx context.Context, id uuid.UUID, quantity *int64) error

	PurchaseHistory(ctx context.Context, productID uuid.UUID) ([]domain.PurchaseRecord, error)
	LatestPurchase(ctx context.Context, productID uuid.UUID) (*domain.PurchaseRecord, error)
	ListPurchases(ctx context.Context, supplierID, productID *uuid.UUID, offset, limit int) ([]domain.PurchaseRecord, int, error)
}

// CertificateRepository persists fiscal feed certificates and their NSU
// cursors.
type CertificateRepository interface {
	Upsert(ctx context.Context, cert *domain.Certificate) error
	GetByTaxID(ctx context.Context, taxID string) (*domain.Certificate, error)
	List(ctx context.Context) ([]domain.Certificate, error)
	UpdateLastNSU(ctx context.Context, id uuid.UUID, lastNSU string) error
}
