package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"nfecusto/internal/domain"
	"nfecusto/internal/port"
)

type supplierRepo struct {
	db *sqlx.DB
}

// NewSupplierRepo creates a new PostgreSQL-backed SupplierRepository.
func NewSupplierRepo(db *sqlx.DB) port.SupplierRepository {
	return &supplierRepo{db: db}
}

func (r *supplierRepo) FindOrCreate(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	existing, err := r.GetByTaxID(ctx, supplier.TaxID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrSupplierNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	supplier.ID = uuid.New()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `INSERT INTO suppliers (
		id, tax_id, legal_name, trade_name, address, phone, notes,
		total_purchases, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
	ON CONFLICT (tax_id) DO NOTHING`,
		supplier.ID, supplier.TaxID, supplier.LegalName, supplier.TradeName,
		supplier.Address, supplier.Phone, supplier.Notes,
		supplier.CreatedAt, supplier.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("supplierRepo.FindOrCreate insert: %w", err)
	}

	// Re-read to cover the concurrent-insert case resolved by ON CONFLICT.
	return r.GetByTaxID(ctx, supplier.TaxID)
}

func (r *supplierRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	var s domain.Supplier
	err := r.db.GetContext(ctx, &s, "SELECT * FROM suppliers WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("supplierRepo.GetByID: %w", err)
	}
	return &s, nil
}

func (r *supplierRepo) GetByTaxID(ctx context.Context, taxID string) (*domain.Supplier, error) {
	var s domain.Supplier
	err := r.db.GetContext(ctx, &s, "SELECT * FROM suppliers WHERE tax_id = $1", taxID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("supplierRepo.GetByTaxID: %w", err)
	}
	return &s, nil
}

func (r *supplierRepo) List(ctx context.Context, offset, limit int) ([]domain.Supplier, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM suppliers"); err != nil {
		return nil, 0, fmt.Errorf("supplierRepo.List count: %w", err)
	}

	var suppliers []domain.Supplier
	err := r.db.SelectContext(ctx, &suppliers,
		"SELECT * FROM suppliers ORDER BY legal_name LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("supplierRepo.List: %w", err)
	}
	return suppliers, total, nil
}

func (r *supplierRepo) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE suppliers SET notes = $1, updated_at = $2 WHERE id = $3",
		notes, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("supplierRepo.UpdateNotes: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("supplierRepo.UpdateNotes rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrSupplierNotFound
	}
	return nil
}

// RecomputeTotal resums total_purchases from the invoices table. The full
// resum (rather than an increment) makes a stale aggregate self-healing:
// the next import corrects whatever a crashed or racing update left behind.
func (r *supplierRepo) RecomputeTotal(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE suppliers SET
		total_purchases = COALESCE((SELECT SUM(total_value) FROM invoices WHERE supplier_id = $1), 0),
		updated_at = $2
	WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("supplierRepo.RecomputeTotal: %w", err)
	}
	return nil
}

func (r *supplierRepo) AddContact(ctx context.Context, contact *domain.SupplierContact) error {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	contact.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `INSERT INTO supplier_contacts (
		id, supplier_id, name, role, phone, email, notes, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		contact.ID, contact.SupplierID, contact.Name, contact.Role,
		contact.Phone, contact.Email, contact.Notes, contact.CreatedAt)
	if err != nil {
		return fmt.Errorf("supplierRepo.AddContact: %w", err)
	}
	return nil
}

func (r *supplierRepo) UpdateContact(ctx context.Context, contact *domain.SupplierContact) error {
	result, err := r.db.ExecContext(ctx, `UPDATE supplier_contacts SET
		name = $1, role = $2, phone = $3, email = $4, notes = $5
	WHERE id = $6 AND supplier_id = $7`,
		contact.Name, contact.Role, contact.Phone, contact.Email, contact.Notes,
		contact.ID, contact.SupplierID)
	if err != nil {
		return fmt.Errorf("supplierRepo.UpdateContact: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("supplierRepo.UpdateContact rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

func (r *supplierRepo) DeleteContact(ctx context.Context, supplierID, contactID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM supplier_contacts WHERE id = $1 AND supplier_id = $2",
		contactID, supplierID)
	if err != nil {
		return fmt.Errorf("supplierRepo.DeleteContact: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("supplierRepo.DeleteContact rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

func (r *supplierRepo) ListContacts(ctx context.Context, supplierID uuid.UUID) ([]domain.SupplierContact, error) {
	var contacts []domain.SupplierContact
	err := r.db.SelectContext(ctx, &contacts,
		"SELECT * FROM supplier_contacts WHERE supplier_id = $1 ORDER BY name", supplierID)
	if err != nil {
		return nil, fmt.Errorf("supplierRepo.ListContacts: %w", err)
	}
	return contacts, nil
}
