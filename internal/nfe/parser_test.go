package nfe

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfecusto/internal/domain"
)

const sampleNFe = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe">
  <NFe>
    <infNFe Id="NFe35240112345678000199550010000001231000001234" versao="4.00">
      <ide>
        <nNF>123</nNF>
        <serie>1</serie>
        <dhEmi>2024-01-15T10:30:00-03:00</dhEmi>
      </ide>
      <emit>
        <CNPJ>12345678000199</CNPJ>
        <xNome>Distribuidora Alfa LTDA</xNome>
        <xFant>Alfa</xFant>
        <enderEmit>
          <xLgr>Rua das Flores</xLgr>
          <nro>100</nro>
          <xBairro>Centro</xBairro>
          <xMun>Sao Paulo</xMun>
          <UF>SP</UF>
        </enderEmit>
        <fone>1133334444</fone>
      </emit>
      <det nItem="1">
        <prod>
          <cProd>A1</cProd>
          <cEAN>7891234567890</cEAN>
          <xProd>Produto A</xProd>
          <NCM>22021000</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>10.0000</qCom>
          <vUnCom>6.00</vUnCom>
          <vProd>60.00</vProd>
        </prod>
        <imposto>
          <ICMS>
            <ICMS00>
              <vICMS>5.00</vICMS>
            </ICMS00>
          </ICMS>
          <IPI>
            <IPITrib>
              <vIPI>2.00</vIPI>
            </IPITrib>
          </IPI>
          <PIS>
            <PISAliq>
              <vPIS>0.99</vPIS>
            </PISAliq>
          </PIS>
          <COFINS>
            <COFINSAliq>
              <vCOFINS>4.56</vCOFINS>
            </COFINSAliq>
          </COFINS>
        </imposto>
      </det>
      <det nItem="2">
        <prod>
          <cProd>B2</cProd>
          <cEAN></cEAN>
          <cEANTrib>7890000000017</cEANTrib>
          <xProd>Produto B</xProd>
          <uCom>CX</uCom>
          <qCom>4.0000</qCom>
          <vUnCom>10.00</vUnCom>
          <vProd>40.00</vProd>
        </prod>
        <imposto>
          <ICMS>
            <ICMS60>
              <vICMSST>3.00</vICMSST>
            </ICMS60>
          </ICMS>
        </imposto>
      </det>
      <total>
        <ICMSTot>
          <vProd>100.00</vProd>
          <vFrete>10.00</vFrete>
          <vSeg>0.00</vSeg>
          <vDesc>5.00</vDesc>
          <vOutro>2.00</vOutro>
          <vNF>110.00</vNF>
          <vTotTrib>15.55</vTotTrib>
        </ICMSTot>
      </total>
    </infNFe>
  </NFe>
</nfeProc>`

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParse_Header(t *testing.T) {
	inv, err := Parse(sampleNFe)
	require.NoError(t, err)

	assert.Equal(t, "35240112345678000199550010000001231000001234", inv.AccessKey)
	assert.Equal(t, "123", inv.Number)
	assert.Equal(t, "1", inv.Series)
	assert.Equal(t, 2024, inv.IssueDate.Year())
	assert.True(t, inv.TotalValue.Equal(dec("110.00")))
	assert.True(t, inv.TotalTaxes.Equal(dec("15.55")))
	assert.Equal(t, sampleNFe, inv.RawXML)
}

func TestParse_Supplier(t *testing.T) {
	inv, err := Parse(sampleNFe)
	require.NoError(t, err)

	require.NotNil(t, inv.Supplier)
	assert.Equal(t, "12345678000199", inv.Supplier.TaxID)
	assert.Equal(t, "Distribuidora Alfa LTDA", inv.Supplier.LegalName)
	assert.Equal(t, "Alfa", inv.Supplier.TradeName)
	assert.Equal(t, "Rua das Flores, 100, Centro, Sao Paulo, SP", inv.Supplier.Address)
	assert.Equal(t, "1133334444", inv.Supplier.Phone)
}

func TestParse_LineItemsKeepDocumentOrder(t *testing.T) {
	inv, err := Parse(sampleNFe)
	require.NoError(t, err)

	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, 1, inv.LineItems[0].LineNumber)
	assert.Equal(t, "A1", inv.LineItems[0].Code)
	assert.Equal(t, 2, inv.LineItems[1].LineNumber)
	assert.Equal(t, "B2", inv.LineItems[1].Code)
}

func TestParse_BarcodeFallsBackToCEANTrib(t *testing.T) {
	inv, err := Parse(sampleNFe)
	require.NoError(t, err)

	assert.Equal(t, "7891234567890", inv.LineItems[0].Barcode)
	assert.Equal(t, "7890000000017", inv.LineItems[1].Barcode)
}

// Freight is split 60/40 by each item's share of the declared product total.
func TestParse_FreightApportionment(t *testing.T) {
	inv, err := Parse(sampleNFe)
	require.NoError(t, err)

	a := inv.LineItems[0].Expenses
	b := inv.LineItems[1].Expenses

	assert.True(t, a.Freight.Equal(dec("6")), "got %s", a.Freight)
	assert.True(t, b.Freight.Equal(dec("4")), "got %s", b.Freight)

	// Discount and other expenses follow the same 60/40 split.
	assert.True(t, a.Discount.Equal(dec("3")), "got %s", a.Discount)
	assert.True(t, b.Discount.Equal(dec("2")), "got %s", b.Discount)
	assert.True(t, a.OtherExpenses.Equal(dec("1.2")), "got %s", a.OtherExpenses)
	assert.True(t, b.OtherExpenses.Equal(dec("0.8")), "got %s", b.OtherExpenses)
}

// The apportioned shares of each category sum back to the invoice-level
// figure within a small tolerance.
func TestParse_ApportionmentConservation(t *testing.T) {
	inv, err := Parse(sampleNFe)
	require.NoError(t, err)

	epsilon := dec("0.000001")
	sumFreight := decimal.Zero
	sumDiscount := decimal.Zero
	for _, item := range inv.LineItems {
		sumFreight = sumFreight.Add(item.Expenses.Freight)
		sumDiscount = sumDiscount.Add(item.Expenses.Discount)
	}
	assert.True(t, sumFreight.Sub(dec("10.00")).Abs().LessThan(epsilon))
	assert.True(t, sumDiscount.Sub(dec("5.00")).Abs().LessThan(epsilon))
}

func TestParse_TaxDecomposition(t *testing.T) {
	inv, err := Parse(sampleNFe)
	require.NoError(t, err)

	a := inv.LineItems[0].Expenses
	assert.True(t, a.ICMS.Equal(dec("5.00")))
	assert.True(t, a.IPI.Equal(dec("2.00")))
	assert.True(t, a.PIS.Equal(dec("0.99")))
	assert.True(t, a.COFINS.Equal(dec("4.56")))
	assert.True(t, a.ICMSST.IsZero())

	// ICMS-ST sits inside the ICMS60 regime variant on item two.
	b := inv.LineItems[1].Expenses
	assert.True(t, b.ICMSST.Equal(dec("3.00")))
	assert.True(t, b.ICMS.IsZero())
}

// ICMS, PIS and COFINS are embedded in the product value: only IPI and
// ICMS-ST (plus apportioned expenses, minus discount) change the cost.
func TestParse_TotalWithExpensesAdditivity(t *testing.T) {
	inv, err := Parse(sampleNFe)
	require.NoError(t, err)

	for _, item := range inv.LineItems {
		e := item.Expenses
		expected := e.ProductValue.
			Add(e.Freight).
			Add(e.Insurance).
			Add(e.OtherExpenses).
			Add(e.IPI).
			Add(e.ICMSST).
			Sub(e.Discount)
		assert.True(t, item.TotalWithExpenses.Equal(expected),
			"item %d: got %s want %s", item.LineNumber, item.TotalWithExpenses, expected)
	}

	// Item A: 60 + 6 freight + 1.2 other + 2 IPI - 3 discount = 66.2.
	assert.True(t, inv.LineItems[0].TotalWithExpenses.Equal(dec("66.2")))

	// Tax value counts all five components: 5 + 2 + 0.99 + 4.56 = 12.55.
	assert.True(t, inv.LineItems[0].TaxValue.Equal(dec("12.55")))
}

func TestParse_RealUnitPrice(t *testing.T) {
	inv, err := Parse(sampleNFe)
	require.NoError(t, err)

	// 66.2 / 10 units.
	assert.True(t, inv.LineItems[0].RealUnitPrice.Equal(dec("6.62")),
		"got %s", inv.LineItems[0].RealUnitPrice)
}

func TestParse_ZeroQuantityYieldsZeroRealUnitPrice(t *testing.T) {
	xml := `<NFe><infNFe Id="NFe111">
		<det><prod><cProd>X</cProd><qCom>0</qCom><vProd>50.00</vProd></prod></det>
	</infNFe></NFe>`

	inv, err := Parse(xml)
	require.NoError(t, err)
	require.Len(t, inv.LineItems, 1)
	assert.True(t, inv.LineItems[0].RealUnitPrice.IsZero())
}

// An explicit per-item freight disables the proportional split for that
// category on that item.
func TestParse_PerItemExpenseWins(t *testing.T) {
	xml := `<NFe><infNFe Id="NFe222">
		<det><prod><cProd>X</cProd><qCom>1</qCom><vProd>60.00</vProd><vFrete>1.50</vFrete></prod></det>
		<det><prod><cProd>Y</cProd><qCom>1</qCom><vProd>40.00</vProd></prod></det>
		<total><ICMSTot><vProd>100.00</vProd><vFrete>10.00</vFrete></ICMSTot></total>
	</infNFe></NFe>`

	inv, err := Parse(xml)
	require.NoError(t, err)
	require.Len(t, inv.LineItems, 2)

	assert.True(t, inv.LineItems[0].Expenses.Freight.Equal(dec("1.50")))
	assert.True(t, inv.LineItems[1].Expenses.Freight.Equal(dec("4")))
}

// A zero declared product total disables apportionment instead of dividing
// by zero.
func TestParse_ZeroProductTotalSkipsApportionment(t *testing.T) {
	xml := `<NFe><infNFe Id="NFe333">
		<det><prod><cProd>X</cProd><qCom>1</qCom><vProd>0.00</vProd></prod></det>
		<total><ICMSTot><vProd>0.00</vProd><vFrete>10.00</vFrete></ICMSTot></total>
	</infNFe></NFe>`

	inv, err := Parse(xml)
	require.NoError(t, err)
	require.Len(t, inv.LineItems, 1)
	assert.True(t, inv.LineItems[0].Expenses.Freight.IsZero())
}

func TestParse_MissingICMSTotTolerated(t *testing.T) {
	xml := `<NFe><infNFe Id="NFe444">
		<det><prod><cProd>X</cProd><qCom>2</qCom><vProd>20.00</vProd></prod></det>
	</infNFe></NFe>`

	inv, err := Parse(xml)
	require.NoError(t, err)
	require.Len(t, inv.LineItems, 1)

	item := inv.LineItems[0]
	assert.True(t, item.Expenses.Freight.IsZero())
	assert.True(t, item.TotalWithExpenses.Equal(dec("20.00")))
	assert.True(t, item.RealUnitPrice.Equal(dec("10")))
	assert.True(t, inv.TotalValue.IsZero())
}

func TestParse_DateOnlyFallback(t *testing.T) {
	xml := `<NFe><infNFe Id="NFe555">
		<ide><nNF>9</nNF><dEmi>2023-07-20</dEmi></ide>
	</infNFe></NFe>`

	inv, err := Parse(xml)
	require.NoError(t, err)
	assert.Equal(t, "2023-07-20", inv.IssueDate.Format("2006-01-02"))
}

func TestParse_MalformedDocument(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not xml":        "this is not xml",
		"missing infNFe": "<NFe><other/></NFe>",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, domain.ErrMalformedDocument)
		})
	}
}

func TestParse_CPFSupplierFallback(t *testing.T) {
	xml := `<NFe><infNFe Id="NFe666">
		<emit><CPF>12345678901</CPF><xNome>Produtor Rural</xNome></emit>
	</infNFe></NFe>`

	inv, err := Parse(xml)
	require.NoError(t, err)
	assert.Equal(t, "12345678901", inv.Supplier.TaxID)
}

func TestApportion(t *testing.T) {
	tests := []struct {
		name          string
		perItem       string
		itemValue     string
		totalProducts string
		invoiceLevel  string
		want          string
	}{
		{"per-item wins", "1.50", "60", "100", "10", "1.50"},
		{"proportional", "0", "60", "100", "10", "6"},
		{"zero invoice level", "0", "60", "100", "0", "0"},
		{"zero product base", "0", "60", "0", "10", "0"},
		{"negative product base", "0", "60", "-5", "10", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apportion(dec(tt.perItem), dec(tt.itemValue), dec(tt.totalProducts), dec(tt.invoiceLevel))
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}
