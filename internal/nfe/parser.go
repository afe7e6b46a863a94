// Package nfe parses Brazilian electronic invoice (NFe) XML documents into
// fully costed invoice records, apportioning invoice-level expenses across
// line items and decomposing per-item taxes.
package nfe

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"nfecusto/internal/domain"
)

// accessKeyPrefix is the fixed prefix of the infNFe Id attribute.
const accessKeyPrefix = "NFe"

// Parse converts one NFe XML document into an Invoice with fully costed
// line items. It is a pure function: no I/O, safe for concurrent use.
//
// A document that does not parse or lacks the infNFe root element fails
// with domain.ErrMalformedDocument and no partial result.
func Parse(xmlText string) (*domain.Invoice, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlText); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
	}

	inf := doc.FindElement("//infNFe")
	if inf == nil {
		return nil, fmt.Errorf("%w: missing infNFe element", domain.ErrMalformedDocument)
	}

	accessKey := strings.TrimPrefix(inf.SelectAttrValue("Id", ""), accessKeyPrefix)

	ide := inf.FindElement(".//ide")
	emit := inf.FindElement(".//emit")

	supplier := &domain.Supplier{
		TaxID:     firstNonEmpty(readText(emit, "CNPJ"), readText(emit, "CPF")),
		LegalName: readText(emit, "xNome"),
		TradeName: readText(emit, "xFant"),
		Phone:     readText(emit, "fone"),
	}
	if emit != nil {
		supplier.Address = formatAddress(emit.FindElement(".//enderEmit"))
	}

	totals := readInvoiceTotals(inf)

	var items []domain.LineItem
	for i, det := range inf.FindElements(".//det") {
		prod := det.FindElement(".//prod")
		if prod == nil {
			continue
		}
		items = append(items, buildLineItem(i+1, det, prod, totals))
	}

	return &domain.Invoice{
		AccessKey:  accessKey,
		Number:     readText(ide, "nNF"),
		Series:     readText(ide, "serie"),
		IssueDate:  parseIssueDate(ide),
		Supplier:   supplier,
		LineItems:  items,
		TotalValue: totals.invoiceValue,
		TotalTaxes: totals.invoiceTaxes,
		RawXML:     xmlText,
	}, nil
}

// readText returns the trimmed text of the first descendant of e matching
// tag, or "" when e is nil or no match exists. It never fails.
func readText(e *etree.Element, tag string) string {
	if e == nil {
		return ""
	}
	m := e.FindElement(".//" + tag)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m.Text())
}

// readDecimal parses the first matching descendant as a decimal number.
// Missing or unparsable values yield zero, never an error.
func readDecimal(e *etree.Element, tag string) decimal.Decimal {
	d, err := decimal.NewFromString(readText(e, tag))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// formatAddress joins street, number, neighborhood, city and state with
// ", ", skipping empty segments.
func formatAddress(addr *etree.Element) string {
	if addr == nil {
		return ""
	}
	parts := []string{
		readText(addr, "xLgr"),
		readText(addr, "nro"),
		readText(addr, "xBairro"),
		readText(addr, "xMun"),
		readText(addr, "UF"),
	}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// parseIssueDate reads dhEmi (datetime) with dEmi (date only) as fallback.
// An absent or unparsable emission date falls back to the current time.
func parseIssueDate(ide *etree.Element) time.Time {
	if s := readText(ide, "dhEmi"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	if s := readText(ide, "dEmi"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
