package nfe

import (
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"nfecusto/internal/domain"
)

// invoiceTotals holds the ICMSTot figures used for expense apportionment
// and the authoritative invoice-level totals. A document without an ICMSTot
// section yields all zeros, which disables apportionment but is not an
// error.
type invoiceTotals struct {
	products     decimal.Decimal // vProd: total declared product value
	freight      decimal.Decimal // vFrete
	insurance    decimal.Decimal // vSeg
	discount     decimal.Decimal // vDesc
	other        decimal.Decimal // vOutro
	invoiceValue decimal.Decimal // vNF
	invoiceTaxes decimal.Decimal // vTotTrib
}

func readInvoiceTotals(inf *etree.Element) invoiceTotals {
	tot := inf.FindElement(".//ICMSTot")
	return invoiceTotals{
		products:     readDecimal(tot, "vProd"),
		freight:      readDecimal(tot, "vFrete"),
		insurance:    readDecimal(tot, "vSeg"),
		discount:     readDecimal(tot, "vDesc"),
		other:        readDecimal(tot, "vOutro"),
		invoiceValue: readDecimal(tot, "vNF"),
		invoiceTaxes: readDecimal(tot, "vTotTrib"),
	}
}

// apportion resolves one expense category for a line item. An explicit
// per-item value always wins; otherwise the invoice-level total is
// distributed by the item's share of the total declared product value
// (rateio). A zero product-value base skips apportionment entirely.
//
// No rounding correction forces the apportioned shares to sum exactly to
// the invoice-level total; the residual is below currency display
// precision for realistic invoices.
func apportion(perItem, itemValue, totalProducts, invoiceLevel decimal.Decimal) decimal.Decimal {
	if !perItem.IsZero() {
		return perItem
	}
	if invoiceLevel.IsZero() || !totalProducts.IsPositive() {
		return decimal.Zero
	}
	return itemValue.Div(totalProducts).Mul(invoiceLevel)
}

// readItemTaxes extracts the five tax components from a line item's
// imposto sub-tree. Each tax block is searched by its group element (the
// ICMS group wraps regime variants such as ICMS00/ICMS60, so values are
// found by descendant lookup); any missing block or field yields zero.
// All five fields are always present.
func readItemTaxes(det *etree.Element) (icms, icmsSt, ipi, pis, cofins decimal.Decimal) {
	imposto := det.FindElement(".//imposto")
	if imposto == nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	}
	if b := imposto.FindElement(".//ICMS"); b != nil {
		icms = readDecimal(b, "vICMS")
		icmsSt = readDecimal(b, "vICMSST")
	}
	if b := imposto.FindElement(".//IPI"); b != nil {
		ipi = readDecimal(b, "vIPI")
	}
	if b := imposto.FindElement(".//PIS"); b != nil {
		pis = readDecimal(b, "vPIS")
	}
	if b := imposto.FindElement(".//COFINS"); b != nil {
		cofins = readDecimal(b, "vCOFINS")
	}
	return icms, icmsSt, ipi, pis, cofins
}

// buildLineItem assembles one fully costed line item from its det element:
// declared product fields, apportioned expenses, tax decomposition, and the
// derived effective cost and real unit price.
func buildLineItem(lineNumber int, det, prod *etree.Element, totals invoiceTotals) domain.LineItem {
	itemValue := readDecimal(prod, "vProd")
	quantity := readDecimal(prod, "qCom")

	icms, icmsSt, ipi, pis, cofins := readItemTaxes(det)

	expenses := domain.ExpenseBreakdown{
		ProductValue:  itemValue,
		Freight:       apportion(readDecimal(prod, "vFrete"), itemValue, totals.products, totals.freight),
		Insurance:     apportion(readDecimal(prod, "vSeg"), itemValue, totals.products, totals.insurance),
		Discount:      apportion(readDecimal(prod, "vDesc"), itemValue, totals.products, totals.discount),
		OtherExpenses: apportion(readDecimal(prod, "vOutro"), itemValue, totals.products, totals.other),
		IPI:           ipi,
		ICMS:          icms,
		PIS:           pis,
		COFINS:        cofins,
		ICMSST:        icmsSt,
	}

	totalWithExpenses := expenses.TotalWithExpenses()

	realUnitPrice := decimal.Zero
	if quantity.IsPositive() {
		realUnitPrice = totalWithExpenses.Div(quantity)
	}

	return domain.LineItem{
		LineNumber:        lineNumber,
		Code:              readText(prod, "cProd"),
		Barcode:           firstNonEmpty(readText(prod, "cEAN"), readText(prod, "cEANTrib")),
		Description:       readText(prod, "xProd"),
		Unit:              readText(prod, "uCom"),
		NCM:               readText(prod, "NCM"),
		CFOP:              readText(prod, "CFOP"),
		Quantity:          quantity,
		UnitPrice:         readDecimal(prod, "vUnCom"),
		Total:             itemValue,
		TaxValue:          expenses.TaxValue(),
		TotalWithExpenses: totalWithExpenses,
		RealUnitPrice:     realUnitPrice,
		Expenses:          expenses,
	}
}
