package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nfecusto/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// purchaseColumns defines the CSV header row for purchase exports.
var purchaseColumns = []string{
	"Date",
	"Invoice Number",
	"Supplier",
	"Quantity",
	"Unit Price",
	"Total",
	"Freight",
	"Insurance",
	"Discount",
	"Other Expenses",
	"IPI",
	"ICMS",
	"PIS",
	"COFINS",
	"ICMS-ST",
	"Tax Value",
	"Total With Expenses",
	"Real Unit Price",
}

// CSVWriter exports purchase records as CSV rows.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(purchaseColumns)
}

// WritePurchases converts purchase records to CSV rows and writes them.
func (w *CSVWriter) WritePurchases(records []domain.PurchaseRecord) error {
	for i := range records {
		if err := w.csv.Write(purchaseToRow(&records[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

func purchaseToRow(r *domain.PurchaseRecord) []string {
	return []string{
		r.Date.Format("2006-01-02"),
		r.InvoiceNumber,
		r.SupplierName,
		r.Quantity.String(),
		formatMoney(r.UnitPrice),
		formatMoney(r.Total),
		formatMoney(r.Expenses.Freight),
		formatMoney(r.Expenses.Insurance),
		formatMoney(r.Expenses.Discount),
		formatMoney(r.Expenses.OtherExpenses),
		formatMoney(r.Expenses.IPI),
		formatMoney(r.Expenses.ICMS),
		formatMoney(r.Expenses.PIS),
		formatMoney(r.Expenses.COFINS),
		formatMoney(r.Expenses.ICMSST),
		formatMoney(r.TaxValue),
		formatMoney(r.TotalWithExpenses),
		formatMoney(r.RealUnitPrice),
	}
}

func formatMoney(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition. Replaces
// non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition
// header: {sanitized_name}_{YYYY-MM-DD}.{ext}.
func BuildFilename(name, ext string) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), time.Now().Format("2006-01-02"), ext)
}
