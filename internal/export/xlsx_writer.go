package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"nfecusto/internal/domain"
)

const priceSheetName = "Price History"

var priceColumns = []string{
	"Product Code",
	"Description",
	"Date",
	"Invoice Number",
	"Supplier",
	"Quantity",
	"Unit Price",
	"Tax Value",
	"Total With Expenses",
	"Real Unit Price",
}

// PriceReportRow pairs a purchase record with the product it belongs to for
// the spreadsheet report.
type PriceReportRow struct {
	Product  *domain.Product
	Purchase *domain.PurchaseRecord
}

// WritePriceReport renders a price-history workbook and writes it to w.
func WritePriceReport(w io.Writer, rows []PriceReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, priceSheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	for col, title := range priceColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("export: header cell: %w", err)
		}
		if err := f.SetCellValue(priceSheetName, cell, title); err != nil {
			return fmt.Errorf("export: header cell: %w", err)
		}
	}

	for i, row := range rows {
		values := []any{
			row.Product.Code,
			row.Product.Description,
			row.Purchase.Date.Format("2006-01-02"),
			row.Purchase.InvoiceNumber,
			row.Purchase.SupplierName,
			row.Purchase.Quantity.String(),
			row.Purchase.UnitPrice.StringFixed(2),
			row.Purchase.TaxValue.StringFixed(2),
			row.Purchase.TotalWithExpenses.StringFixed(2),
			row.Purchase.RealUnitPrice.StringFixed(2),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("export: data cell: %w", err)
			}
			if err := f.SetCellValue(priceSheetName, cell, v); err != nil {
				return fmt.Errorf("export: data cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}
