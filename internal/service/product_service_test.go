package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nfecusto/internal/domain"
	"nfecusto/internal/service"
	"nfecusto/mocks"
)

func int64ptr(v int64) *int64 { return &v }

func TestLatestPrice_DividesByPackageQuantity(t *testing.T) {
	products := new(mocks.MockProductRepo)
	svc := service.NewProductService(products)

	productID := uuid.New()
	product := &domain.Product{ID: productID, Code: "A1", PackageQuantity: int64ptr(12)}
	latest := &domain.PurchaseRecord{
		ProductID:     productID,
		RealUnitPrice: decimal.RequireFromString("36.00"),
	}

	products.On("GetByID", mock.Anything, productID).Return(product, nil)
	products.On("LatestPurchase", mock.Anything, productID).Return(latest, nil)

	quote, err := svc.LatestPrice(context.Background(), productID)
	require.NoError(t, err)

	// 36.00 for a 12-unit package is 3.00 a unit.
	assert.True(t, quote.UnitPrice.Equal(decimal.RequireFromString("3")), "got %s", quote.UnitPrice)
}

func TestLatestPrice_NoPackageQuantity(t *testing.T) {
	products := new(mocks.MockProductRepo)
	svc := service.NewProductService(products)

	productID := uuid.New()
	product := &domain.Product{ID: productID, Code: "A1"}
	latest := &domain.PurchaseRecord{
		ProductID:     productID,
		RealUnitPrice: decimal.RequireFromString("36.00"),
	}

	products.On("GetByID", mock.Anything, productID).Return(product, nil)
	products.On("LatestPurchase", mock.Anything, productID).Return(latest, nil)

	quote, err := svc.LatestPrice(context.Background(), productID)
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(latest.RealUnitPrice))
}

func TestSetPackageQuantity(t *testing.T) {
	products := new(mocks.MockProductRepo)
	svc := service.NewProductService(products)

	productID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		products.On("SetPackageQuantity", mock.Anything, productID, int64ptr(6)).Return(nil).Once()
		require.NoError(t, svc.SetPackageQuantity(context.Background(), productID, int64ptr(6)))
	})

	t.Run("clear", func(t *testing.T) {
		products.On("SetPackageQuantity", mock.Anything, productID, (*int64)(nil)).Return(nil).Once()
		require.NoError(t, svc.SetPackageQuantity(context.Background(), productID, nil))
	})

	t.Run("zero rejected", func(t *testing.T) {
		err := svc.SetPackageQuantity(context.Background(), productID, int64ptr(0))
		assert.ErrorIs(t, err, domain.ErrInvalidPackageQty)
	})

	t.Run("negative rejected", func(t *testing.T) {
		err := svc.SetPackageQuantity(context.Background(), productID, int64ptr(-3))
		assert.ErrorIs(t, err, domain.ErrInvalidPackageQty)
	})

	products.AssertExpectations(t)
}

func TestHistory_UnknownProduct(t *testing.T) {
	products := new(mocks.MockProductRepo)
	svc := service.NewProductService(products)

	productID := uuid.New()
	products.On("GetByID", mock.Anything, productID).Return(nil, domain.ErrProductNotFound)

	_, err := svc.History(context.Background(), productID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	products.AssertNotCalled(t, "PurchaseHistory", mock.Anything, mock.Anything)
}
