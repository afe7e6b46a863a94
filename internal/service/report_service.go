package service

import (
	"context"

	"github.com/google/uuid"

	"nfecusto/internal/domain"
	"nfecusto/internal/export"
	"nfecusto/internal/port"
)

// reportPageSize is how many purchase records one export query pulls at a
// time.
const reportPageSize = 500

// ReportService assembles the data behind the CSV and spreadsheet exports.
type ReportService interface {
	Purchases(ctx context.Context, supplierID, productID *uuid.UUID) ([]domain.PurchaseRecord, error)
	PriceReport(ctx context.Context, productID uuid.UUID) ([]export.PriceReportRow, error)
}

type reportService struct {
	products port.ProductRepository
}

// NewReportService creates a new ReportService implementation.
func NewReportService(products port.ProductRepository) ReportService {
	return &reportService{products: products}
}

// Purchases returns every purchase record matching the optional supplier and
// product filters, paging through the repository.
func (s *reportService) Purchases(ctx context.Context, supplierID, productID *uuid.UUID) ([]domain.PurchaseRecord, error) {
	var all []domain.PurchaseRecord
	offset := 0
	for {
		page, total, err := s.products.ListPurchases(ctx, supplierID, productID, offset, reportPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		offset += len(page)
		if len(page) == 0 || offset >= total {
			return all, nil
		}
	}
}

// PriceReport returns one spreadsheet row per purchase of the product,
// newest first.
func (s *reportService) PriceReport(ctx context.Context, productID uuid.UUID) ([]export.PriceReportRow, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	history, err := s.products.PurchaseHistory(ctx, productID)
	if err != nil {
		return nil, err
	}

	rows := make([]export.PriceReportRow, 0, len(history))
	for i := range history {
		rows = append(rows, export.PriceReportRow{
			Product:  product,
			Purchase: &history[i],
		})
	}
	return rows, nil
}
