package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"nfecusto/internal/domain"
	"nfecusto/internal/port"
)

type productRepo struct {
	db *sqlx.DB
}

// NewProductRepo creates a new PostgreSQL-backed ProductRepository.
func NewProductRepo(db *sqlx.DB) port.ProductRepository {
	return &productRepo{db: db}
}

// purchaseRow is the flat row shape of the purchase_records table.
type purchaseRow struct {
	ID                uuid.UUID       `db:"id"`
	ProductID         uuid.UUID       `db:"product_id"`
	InvoiceID         uuid.UUID       `db:"invoice_id"`
	InvoiceNumber     string          `db:"invoice_number"`
	SupplierID        uuid.UUID       `db:"supplier_id"`
	SupplierName      string          `db:"supplier_name"`
	Date              time.Time       `db:"date"`
	Quantity          decimal.Decimal `db:"quantity"`
	UnitPrice         decimal.Decimal `db:"unit_price"`
	Total             decimal.Decimal `db:"total"`
	TaxValue          decimal.Decimal `db:"tax_value"`
	TotalWithExpenses decimal.Decimal `db:"total_with_expenses"`
	RealUnitPrice     decimal.Decimal `db:"real_unit_price"`
	ExpenseBreakdownColumns
}

func (r purchaseRow) toDomain() domain.PurchaseRecord {
	return domain.PurchaseRecord{
		ID:                r.ID,
		ProductID:         r.ProductID,
		InvoiceID:         r.InvoiceID,
		InvoiceNumber:     r.InvoiceNumber,
		SupplierID:        r.SupplierID,
		SupplierName:      r.SupplierName,
		Date:              r.Date,
		Quantity:          r.Quantity,
		UnitPrice:         r.UnitPrice,
		Total:             r.Total,
		TaxValue:          r.TaxValue,
		TotalWithExpenses: r.TotalWithExpenses,
		RealUnitPrice:     r.RealUnitPrice,
		Expenses:          r.ExpenseBreakdownColumns.toDomain(),
	}
}

func purchaseRows(rows []purchaseRow) []domain.PurchaseRecord {
	records := make([]domain.PurchaseRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toDomain()
	}
	return records
}

func (r *productRepo) FindOrCreate(ctx context.Context, candidate *domain.Product) (*domain.Product, error) {
	existing, err := r.getByCode(ctx, candidate.Code)
	if errors.Is(err, domain.ErrProductNotFound) && candidate.Barcode != "" {
		existing, err = r.GetByBarcode(ctx, candidate.Barcode)
	}
	if err == nil {
		// Backfill a barcode the earlier imports did not carry.
		if existing.Barcode == "" && candidate.Barcode != "" {
			_, uerr := r.db.ExecContext(ctx,
				"UPDATE products SET barcode = $1, updated_at = $2 WHERE id = $3",
				candidate.Barcode, time.Now().UTC(), existing.ID)
			if uerr != nil {
				return nil, fmt.Errorf("productRepo.FindOrCreate backfill barcode: %w", uerr)
			}
			existing.Barcode = candidate.Barcode
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrProductNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	candidate.ID = uuid.New()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `INSERT INTO products (
		id, code, barcode, description, unit, ncm, package_quantity, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, $8)
	ON CONFLICT (code) DO NOTHING`,
		candidate.ID, candidate.Code, candidate.Barcode, candidate.Description,
		candidate.Unit, candidate.NCM, candidate.CreatedAt, candidate.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("productRepo.FindOrCreate insert: %w", err)
	}

	return r.getByCode(ctx, candidate.Code)
}

func (r *productRepo) getByCode(ctx context.Context, code string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, "SELECT * FROM products WHERE code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("productRepo.getByCode: %w", err)
	}
	return &p, nil
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, "SELECT * FROM products WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("productRepo.GetByID: %w", err)
	}
	return &p, nil
}

func (r *productRepo) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, "SELECT * FROM products WHERE barcode = $1", barcode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("productRepo.GetByBarcode: %w", err)
	}
	return &p, nil
}

func (r *productRepo) Search(ctx context.Context, query string, offset, limit int) ([]domain.Product, int, error) {
	pattern := "%" + query + "%"

	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM products
		 WHERE description ILIKE $1 OR code ILIKE $1 OR barcode ILIKE $1`, pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("productRepo.Search count: %w", err)
	}

	var products []domain.Product
	err = r.db.SelectContext(ctx, &products,
		`SELECT * FROM products
		 WHERE description ILIKE $1 OR code ILIKE $1 OR barcode ILIKE $1
		 ORDER BY description LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("productRepo.Search: %w", err)
	}
	return products, total, nil
}

func (r *productRepo) SetPackageQuantity(ctx context.Context, id uuid.UUID, quantity *int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE products SET package_quantity = $1, updated_at = $2 WHERE id = $3",
		quantity, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("productRepo.SetPackageQuantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("productRepo.SetPackageQuantity rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepo) PurchaseHistory(ctx context.Context, productID uuid.UUID) ([]domain.PurchaseRecord, error) {
	var rows []purchaseRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM purchase_records WHERE product_id = $1 ORDER BY date DESC", productID)
	if err != nil {
		return nil, fmt.Errorf("productRepo.PurchaseHistory: %w", err)
	}
	return purchaseRows(rows), nil
}

func (r *productRepo) LatestPurchase(ctx context.Context, productID uuid.UUID) (*domain.PurchaseRecord, error) {
	var row purchaseRow
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM purchase_records WHERE product_id = $1 ORDER BY date DESC LIMIT 1", productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("productRepo.LatestPurchase: %w", err)
	}
	rec := row.toDomain()
	return &rec, nil
}

func (r *productRepo) ListPurchases(ctx context.Context, supplierID, productID *uuid.UUID, offset, limit int) ([]domain.PurchaseRecord, int, error) {
	where := "WHERE ($1::uuid IS NULL OR supplier_id = $1) AND ($2::uuid IS NULL OR product_id = $2)"

	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM purchase_records "+where, supplierID, productID)
	if err != nil {
		return nil, 0, fmt.Errorf("productRepo.ListPurchases count: %w", err)
	}

	var rows []purchaseRow
	err = r.db.SelectContext(ctx, &rows,
		"SELECT * FROM purchase_records "+where+" ORDER BY date DESC LIMIT $3 OFFSET $4",
		supplierID, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("productRepo.ListPurchases: %w", err)
	}
	return purchaseRows(rows), total, nil
}
