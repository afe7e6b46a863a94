package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"nfecusto/internal/domain"
	"nfecusto/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

// lineItemRow is the flat row shape of the line_items table.
type lineItemRow struct {
	ID                uuid.UUID       `db:"id"`
	InvoiceID         uuid.UUID       `db:"invoice_id"`
	ProductID         uuid.UUID       `db:"product_id"`
	LineNumber        int             `db:"line_number"`
	Code              string          `db:"code"`
	Barcode           string          `db:"barcode"`
	Description       string          `db:"description"`
	Unit              string          `db:"unit"`
	NCM               string          `db:"ncm"`
	CFOP              string          `db:"cfop"`
	Quantity          decimal.Decimal `db:"quantity"`
	UnitPrice         decimal.Decimal `db:"unit_price"`
	Total             decimal.Decimal `db:"total"`
	TaxValue          decimal.Decimal `db:"tax_value"`
	TotalWithExpenses decimal.Decimal `db:"total_with_expenses"`
	RealUnitPrice     decimal.Decimal `db:"real_unit_price"`
	ExpenseBreakdownColumns
}

// ExpenseBreakdownColumns maps the expense_* columns shared by line_items
// and purchase_records.
type ExpenseBreakdownColumns struct {
	ExpProductValue decimal.Decimal `db:"expense_product_value"`
	ExpFreight      decimal.Decimal `db:"expense_freight"`
	ExpInsurance    decimal.Decimal `db:"expense_insurance"`
	ExpDiscount     decimal.Decimal `db:"expense_discount"`
	ExpOther        decimal.Decimal `db:"expense_other"`
	ExpIPI          decimal.Decimal `db:"expense_ipi"`
	ExpICMS         decimal.Decimal `db:"expense_icms"`
	ExpPIS          decimal.Decimal `db:"expense_pis"`
	ExpCOFINS       decimal.Decimal `db:"expense_cofins"`
	ExpICMSST       decimal.Decimal `db:"expense_icms_st"`
}

func expenseColumns(e domain.ExpenseBreakdown) ExpenseBreakdownColumns {
	return ExpenseBreakdownColumns{
		ExpProductValue: e.ProductValue,
		ExpFreight:      e.Freight,
		ExpInsurance:    e.Insurance,
		ExpDiscount:     e.Discount,
		ExpOther:        e.OtherExpenses,
		ExpIPI:          e.IPI,
		ExpICMS:         e.ICMS,
		ExpPIS:          e.PIS,
		ExpCOFINS:       e.COFINS,
		ExpICMSST:       e.ICMSST,
	}
}

func (c ExpenseBreakdownColumns) toDomain() domain.ExpenseBreakdown {
	return domain.ExpenseBreakdown{
		ProductValue:  c.ExpProductValue,
		Freight:       c.ExpFreight,
		Insurance:     c.ExpInsurance,
		Discount:      c.ExpDiscount,
		OtherExpenses: c.ExpOther,
		IPI:           c.ExpIPI,
		ICMS:          c.ExpICMS,
		PIS:           c.ExpPIS,
		COFINS:        c.ExpCOFINS,
		ICMSST:        c.ExpICMSST,
	}
}

func (r lineItemRow) toDomain() domain.LineItem {
	return domain.LineItem{
		ID:                r.ID,
		InvoiceID:         r.InvoiceID,
		ProductID:         r.ProductID,
		LineNumber:        r.LineNumber,
		Code:              r.Code,
		Barcode:           r.Barcode,
		Description:       r.Description,
		Unit:              r.Unit,
		NCM:               r.NCM,
		CFOP:              r.CFOP,
		Quantity:          r.Quantity,
		UnitPrice:         r.UnitPrice,
		Total:             r.Total,
		TaxValue:          r.TaxValue,
		TotalWithExpenses: r.TotalWithExpenses,
		RealUnitPrice:     r.RealUnitPrice,
		Expenses:          r.ExpenseBreakdownColumns.toDomain(),
	}
}

const insertLineItemQuery = `INSERT INTO line_items (
	id, invoice_id, product_id, line_number,
	code, barcode, description, unit, ncm, cfop,
	quantity, unit_price, total,
	tax_value, total_with_expenses, real_unit_price,
	expense_product_value, expense_freight, expense_insurance, expense_discount, expense_other,
	expense_ipi, expense_icms, expense_pis, expense_cofins, expense_icms_st
) VALUES (
	:id, :invoice_id, :product_id, :line_number,
	:code, :barcode, :description, :unit, :ncm, :cfop,
	:quantity, :unit_price, :total,
	:tax_value, :total_with_expenses, :real_unit_price,
	:expense_product_value, :expense_freight, :expense_insurance, :expense_discount, :expense_other,
	:expense_ipi, :expense_icms, :expense_pis, :expense_cofins, :expense_icms_st
)`

const insertPurchaseQuery = `INSERT INTO purchase_records (
	id, product_id, invoice_id, invoice_number, supplier_id, supplier_name, date,
	quantity, unit_price, total,
	tax_value, total_with_expenses, real_unit_price,
	expense_product_value, expense_freight, expense_insurance, expense_discount, expense_other,
	expense_ipi, expense_icms, expense_pis, expense_cofins, expense_icms_st
) VALUES (
	:id, :product_id, :invoice_id, :invoice_number, :supplier_id, :supplier_name, :date,
	:quantity, :unit_price, :total,
	:tax_value, :total_with_expenses, :real_unit_price,
	:expense_product_value, :expense_freight, :expense_insurance, :expense_discount, :expense_other,
	:expense_ipi, :expense_icms, :expense_pis, :expense_cofins, :expense_icms_st
)`

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice, records []domain.PurchaseRecord) error {
	inv.ImportedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO invoices (
		id, access_key, number, series, issue_date, supplier_id,
		total_value, total_taxes, raw_xml, imported_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.AccessKey, inv.Number, inv.Series, inv.IssueDate, inv.SupplierID,
		inv.TotalValue, inv.TotalTaxes, inv.RawXML, inv.ImportedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "access_key") {
			return domain.ErrDuplicateInvoice
		}
		return fmt.Errorf("invoiceRepo.Create invoice: %w", err)
	}

	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		row := lineItemRow{
			ID:                      item.ID,
			InvoiceID:               item.InvoiceID,
			ProductID:               item.ProductID,
			LineNumber:              item.LineNumber,
			Code:                    item.Code,
			Barcode:                 item.Barcode,
			Description:             item.Description,
			Unit:                    item.Unit,
			NCM:                     item.NCM,
			CFOP:                    item.CFOP,
			Quantity:                item.Quantity,
			UnitPrice:               item.UnitPrice,
			Total:                   item.Total,
			TaxValue:                item.TaxValue,
			TotalWithExpenses:       item.TotalWithExpenses,
			RealUnitPrice:           item.RealUnitPrice,
			ExpenseBreakdownColumns: expenseColumns(item.Expenses),
		}
		if _, err := tx.NamedExecContext(ctx, insertLineItemQuery, row); err != nil {
			return fmt.Errorf("invoiceRepo.Create line item %d: %w", item.LineNumber, err)
		}
	}

	for i := range records {
		rec := &records[i]
		row := purchaseRow{
			ID:                      rec.ID,
			ProductID:               rec.ProductID,
			InvoiceID:               rec.InvoiceID,
			InvoiceNumber:           rec.InvoiceNumber,
			SupplierID:              rec.SupplierID,
			SupplierName:            rec.SupplierName,
			Date:                    rec.Date,
			Quantity:                rec.Quantity,
			UnitPrice:               rec.UnitPrice,
			Total:                   rec.Total,
			TaxValue:                rec.TaxValue,
			TotalWithExpenses:       rec.TotalWithExpenses,
			RealUnitPrice:           rec.RealUnitPrice,
			ExpenseBreakdownColumns: expenseColumns(rec.Expenses),
		}
		if _, err := tx.NamedExecContext(ctx, insertPurchaseQuery, row); err != nil {
			return fmt.Errorf("invoiceRepo.Create purchase record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("invoiceRepo.Create commit: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv, "SELECT * FROM invoices WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	if err := r.loadLineItems(ctx, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) GetByAccessKey(ctx context.Context, accessKey string) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv, "SELECT * FROM invoices WHERE access_key = $1", accessKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByAccessKey: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) loadLineItems(ctx context.Context, inv *domain.Invoice) error {
	var rows []lineItemRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM line_items WHERE invoice_id = $1 ORDER BY line_number", inv.ID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.loadLineItems: %w", err)
	}
	inv.LineItems = make([]domain.LineItem, len(rows))
	for i, row := range rows {
		inv.LineItems[i] = row.toDomain()
	}
	return nil
}

func (r *invoiceRepo) List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices"); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	var invoices []domain.Invoice
	err := r.db.SelectContext(ctx, &invoices,
		`SELECT id, access_key, number, series, issue_date, supplier_id,
		        total_value, total_taxes, '' AS raw_xml, imported_at
		 FROM invoices ORDER BY issue_date DESC, imported_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM invoices WHERE supplier_id = $1", supplierID)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListBySupplier count: %w", err)
	}

	var invoices []domain.Invoice
	err = r.db.SelectContext(ctx, &invoices,
		`SELECT id, access_key, number, series, issue_date, supplier_id,
		        total_value, total_taxes, '' AS raw_xml, imported_at
		 FROM invoices WHERE supplier_id = $1
		 ORDER BY issue_date DESC, imported_at DESC LIMIT $2 OFFSET $3`,
		supplierID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListBySupplier: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// line_items and purchase_records cascade on the invoice FK.
	result, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("invoiceRepo.Delete rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}
