package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfecusto/internal/domain"
)

func sampleRecord() domain.PurchaseRecord {
	return domain.PurchaseRecord{
		InvoiceNumber:     "123",
		SupplierName:      "Distribuidora Alfa LTDA",
		Date:              time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Quantity:          decimal.RequireFromString("10"),
		UnitPrice:         decimal.RequireFromString("6.00"),
		Total:             decimal.RequireFromString("60.00"),
		TaxValue:          decimal.RequireFromString("12.55"),
		TotalWithExpenses: decimal.RequireFromString("66.20"),
		RealUnitPrice:     decimal.RequireFromString("6.62"),
		Expenses: domain.ExpenseBreakdown{
			ProductValue: decimal.RequireFromString("60.00"),
			Freight:      decimal.RequireFromString("6.00"),
			Discount:     decimal.RequireFromString("3.00"),
			IPI:          decimal.RequireFromString("2.00"),
		},
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WritePurchases([]domain.PurchaseRecord{sampleRecord()}))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, purchaseColumns, rows[0])
	assert.Equal(t, "2024-01-15", rows[1][0])
	assert.Equal(t, "123", rows[1][1])
	assert.Equal(t, "Distribuidora Alfa LTDA", rows[1][2])
	assert.Equal(t, "6.00", rows[1][6])  // freight
	assert.Equal(t, "66.20", rows[1][16])
	assert.Equal(t, "6.62", rows[1][17])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fornecedor Alfa & Cia", "Fornecedor_Alfa_Cia"},
		{"___already__clean___", "already_clean"},
		{"simple-name_1", "simple-name_1"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in))
	}
}

func TestBuildFilename(t *testing.T) {
	name := BuildFilename("price report", "xlsx")
	assert.True(t, strings.HasPrefix(name, "price_report_"))
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
}
