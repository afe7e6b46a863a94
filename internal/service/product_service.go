package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"nfecusto/internal/domain"
	"nfecusto/internal/port"
)

// PriceQuote is the latest known effective price for a product. UnitPrice
// divides the real unit price by the product's package quantity when one
// is set, mirroring how the price is shown at the shelf.
type PriceQuote struct {
	Product   *domain.Product        `json:"product"`
	Latest    *domain.PurchaseRecord `json:"latest"`
	UnitPrice decimal.Decimal        `json:"unit_price"`
}

// ProductService exposes product lookups, price history and the
// package-quantity override.
type ProductService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	Search(ctx context.Context, query string, offset, limit int) ([]domain.Product, int, error)
	History(ctx context.Context, productID uuid.UUID) ([]domain.PurchaseRecord, error)
	LatestPrice(ctx context.Context, productID uuid.UUID) (*PriceQuote, error)
	SetPackageQuantity(ctx context.Context, productID uuid.UUID, quantity *int64) error
}

type productService struct {
	products port.ProductRepository
}

// NewProductService creates a new ProductService implementation.
func NewProductService(products port.ProductRepository) ProductService {
	return &productService{products: products}
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *productService) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return s.products.GetByBarcode(ctx, barcode)
}

func (s *productService) Search(ctx context.Context, query string, offset, limit int) ([]domain.Product, int, error) {
	return s.products.Search(ctx, query, offset, limit)
}

func (s *productService) History(ctx context.Context, productID uuid.UUID) ([]domain.PurchaseRecord, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.products.PurchaseHistory(ctx, productID)
}

func (s *productService) LatestPrice(ctx context.Context, productID uuid.UUID) (*PriceQuote, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	latest, err := s.products.LatestPurchase(ctx, productID)
	if err != nil {
		return nil, err
	}

	unitPrice := latest.RealUnitPrice
	if product.PackageQuantity != nil && *product.PackageQuantity > 1 {
		unitPrice = unitPrice.Div(decimal.NewFromInt(*product.PackageQuantity))
	}

	return &PriceQuote{Product: product, Latest: latest, UnitPrice: unitPrice}, nil
}

func (s *productService) SetPackageQuantity(ctx context.Context, productID uuid.UUID, quantity *int64) error {
	if quantity != nil && *quantity <= 0 {
		return domain.ErrInvalidPackageQty
	}
	return s.products.SetPackageQuantity(ctx, productID, quantity)
}
