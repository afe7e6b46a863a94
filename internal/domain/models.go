package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supplier is the issuer (emitente) of one or more imported invoices,
// identified by its CNPJ or CPF digits.
type Supplier struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	TaxID          string          `db:"tax_id" json:"tax_id"`
	LegalName      string          `db:"legal_name" json:"legal_name"`
	TradeName      string          `db:"trade_name" json:"trade_name,omitempty"`
	Address        string          `db:"address" json:"address,omitempty"`
	Phone          string          `db:"phone" json:"phone,omitempty"`
	Notes          string          `db:"notes" json:"notes,omitempty"`
	TotalPurchases decimal.Decimal `db:"total_purchases" json:"total_purchases"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`

	Contacts []SupplierContact `db:"-" json:"contacts,omitempty"`
}

// SupplierContact is a named contact person attached to a supplier.
type SupplierContact struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SupplierID uuid.UUID `db:"supplier_id" json:"supplier_id"`
	Name       string    `db:"name" json:"name"`
	Role       string    `db:"role" json:"role,omitempty"`
	Phone      string    `db:"phone" json:"phone,omitempty"`
	Email      string    `db:"email" json:"email,omitempty"`
	Notes      string    `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Invoice is one imported NFe document. AccessKey is the 44-digit key from
// the infNFe Id attribute and is the deduplication key: an invoice is never
// imported twice and never partially updated after import.
type Invoice struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	AccessKey  string          `db:"access_key" json:"access_key"`
	Number     string          `db:"number" json:"number"`
	Series     string          `db:"series" json:"series"`
	IssueDate  time.Time       `db:"issue_date" json:"issue_date"`
	SupplierID uuid.UUID       `db:"supplier_id" json:"supplier_id"`
	TotalValue decimal.Decimal `db:"total_value" json:"total_value"`
	TotalTaxes decimal.Decimal `db:"total_taxes" json:"total_taxes"`
	RawXML     string          `db:"raw_xml" json:"-"`
	ImportedAt time.Time       `db:"imported_at" json:"imported_at"`

	Supplier  *Supplier  `db:"-" json:"supplier,omitempty"`
	LineItems []LineItem `db:"-" json:"line_items,omitempty"`
}

// ExpenseBreakdown decomposes a line item's cost into its declared product
// value, apportioned invoice-level expenses, and per-item taxes.
//
// ICMS, PIS and COFINS are already embedded in ProductValue under Brazilian
// fiscal convention; only IPI and ICMS-ST add to the effective cost.
type ExpenseBreakdown struct {
	ProductValue  decimal.Decimal `db:"expense_product_value" json:"product_value"`
	Freight       decimal.Decimal `db:"expense_freight" json:"freight"`
	Insurance     decimal.Decimal `db:"expense_insurance" json:"insurance"`
	Discount      decimal.Decimal `db:"expense_discount" json:"discount"`
	OtherExpenses decimal.Decimal `db:"expense_other" json:"other_expenses"`
	IPI           decimal.Decimal `db:"expense_ipi" json:"ipi"`
	ICMS          decimal.Decimal `db:"expense_icms" json:"icms"`
	PIS           decimal.Decimal `db:"expense_pis" json:"pis"`
	COFINS        decimal.Decimal `db:"expense_cofins" json:"cofins"`
	ICMSST        decimal.Decimal `db:"expense_icms_st" json:"icms_st"`
}

// TotalWithExpenses is the effective cost of the line:
// productValue + freight + insurance + otherExpenses + ipi + icmsSt - discount.
func (e ExpenseBreakdown) TotalWithExpenses() decimal.Decimal {
	return e.ProductValue.
		Add(e.Freight).
		Add(e.Insurance).
		Add(e.OtherExpenses).
		Add(e.IPI).
		Add(e.ICMSST).
		Sub(e.Discount)
}

// TaxValue is the aggregate declared tax figure for display and reporting,
// distinct from the cost-affecting subset.
func (e ExpenseBreakdown) TaxValue() decimal.Decimal {
	return e.IPI.Add(e.ICMS).Add(e.PIS).Add(e.COFINS).Add(e.ICMSST)
}

// LineItem is one <det> entry of an invoice, fully costed. LineNumber keeps
// the document order, which is stable for display only.
type LineItem struct {
	ID         uuid.UUID `db:"id" json:"id"`
	InvoiceID  uuid.UUID `db:"invoice_id" json:"invoice_id"`
	ProductID  uuid.UUID `db:"product_id" json:"product_id"`
	LineNumber int       `db:"line_number" json:"line_number"`

	Code        string `db:"code" json:"code"`
	Barcode     string `db:"barcode" json:"barcode,omitempty"`
	Description string `db:"description" json:"description"`
	Unit        string `db:"unit" json:"unit"`
	NCM         string `db:"ncm" json:"ncm,omitempty"`
	CFOP        string `db:"cfop" json:"cfop,omitempty"`

	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Total     decimal.Decimal `db:"total" json:"total"`

	TaxValue          decimal.Decimal `db:"tax_value" json:"tax_value"`
	TotalWithExpenses decimal.Decimal `db:"total_with_expenses" json:"total_with_expenses"`
	RealUnitPrice     decimal.Decimal `db:"real_unit_price" json:"real_unit_price"`

	Expenses ExpenseBreakdown `json:"expenses"`
}

// Product is the aggregate view of an item across all imported invoices.
// PackageQuantity is a user-settable override used only to divide the real
// unit price for display; nil means the product is not sold in packages.
type Product struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Barcode         string    `db:"barcode" json:"barcode,omitempty"`
	Description     string    `db:"description" json:"description"`
	Unit            string    `db:"unit" json:"unit"`
	NCM             string    `db:"ncm" json:"ncm,omitempty"`
	PackageQuantity *int64    `db:"package_quantity" json:"package_quantity,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// PurchaseRecord is one price-history entry for a product: an exact copy of
// the line item that produced it, denormalized with invoice and supplier
// identification for lookups.
type PurchaseRecord struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ProductID     uuid.UUID `db:"product_id" json:"product_id"`
	InvoiceID     uuid.UUID `db:"invoice_id" json:"invoice_id"`
	InvoiceNumber string    `db:"invoice_number" json:"invoice_number"`
	SupplierID    uuid.UUID `db:"supplier_id" json:"supplier_id"`
	SupplierName  string    `db:"supplier_name" json:"supplier_name"`
	Date          time.Time `db:"date" json:"date"`

	Quantity          decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice         decimal.Decimal `db:"unit_price" json:"unit_price"`
	Total             decimal.Decimal `db:"total" json:"total"`
	TaxValue          decimal.Decimal `db:"tax_value" json:"tax_value"`
	TotalWithExpenses decimal.Decimal `db:"total_with_expenses" json:"total_with_expenses"`
	RealUnitPrice     decimal.Decimal `db:"real_unit_price" json:"real_unit_price"`

	Expenses ExpenseBreakdown `json:"expenses"`
}

// Certificate is a registered company certificate on the fiscal
// distribution feed. LastNSU is the pagination cursor for document batches.
type Certificate struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	TaxID     string     `db:"tax_id" json:"tax_id"`
	LegalName string     `db:"legal_name" json:"legal_name,omitempty"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	LastNSU   string     `db:"last_nsu" json:"last_nsu"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ImportOutcome is the per-file result line of a batch import.
type ImportOutcome struct {
	Name    string       `json:"name"`
	Status  ImportStatus `json:"status"`
	Reason  string       `json:"reason,omitempty"`
	Invoice *Invoice     `json:"invoice,omitempty"`
}
