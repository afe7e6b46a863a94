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

const testNFe = `<NFe><infNFe Id="NFe35240112345678000199550010000001231000001234">
	<ide><nNF>123</nNF><serie>1</serie><dhEmi>2024-01-15T10:30:00-03:00</dhEmi></ide>
	<emit><CNPJ>12345678000199</CNPJ><xNome>Distribuidora Alfa LTDA</xNome></emit>
	<det><prod><cProd>A1</cProd><cEAN>7891234567890</cEAN><xProd>Produto A</xProd><uCom>UN</uCom><qCom>10</qCom><vUnCom>6.00</vUnCom><vProd>60.00</vProd></prod></det>
	<total><ICMSTot><vProd>60.00</vProd><vNF>60.00</vNF></ICMSTot></total>
</infNFe></NFe>`

const testAccessKey = "35240112345678000199550010000001231000001234"

func newImportFixture() (*mocks.MockInvoiceRepo, *mocks.MockSupplierRepo, *mocks.MockProductRepo, service.ImportService) {
	invoices := new(mocks.MockInvoiceRepo)
	suppliers := new(mocks.MockSupplierRepo)
	products := new(mocks.MockProductRepo)
	svc := service.NewImportService(invoices, suppliers, products, nil, nil)
	return invoices, suppliers, products, svc
}

func TestImport_Success(t *testing.T) {
	invoices, suppliers, products, svc := newImportFixture()

	supplier := &domain.Supplier{ID: uuid.New(), TaxID: "12345678000199", LegalName: "Distribuidora Alfa LTDA"}
	product := &domain.Product{ID: uuid.New(), Code: "A1"}

	invoices.On("GetByAccessKey", mock.Anything, testAccessKey).
		Return(nil, domain.ErrInvoiceNotFound)
	suppliers.On("FindOrCreate", mock.Anything, mock.AnythingOfType("*domain.Supplier")).
		Return(supplier, nil)
	products.On("FindOrCreate", mock.Anything, mock.AnythingOfType("*domain.Product")).
		Return(product, nil)
	invoices.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice"), mock.AnythingOfType("[]domain.PurchaseRecord")).
		Return(nil)
	suppliers.On("RecomputeTotal", mock.Anything, supplier.ID).Return(nil)

	inv, err := svc.Import(context.Background(), testNFe)
	require.NoError(t, err)

	assert.Equal(t, testAccessKey, inv.AccessKey)
	assert.Equal(t, supplier.ID, inv.SupplierID)
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, product.ID, inv.LineItems[0].ProductID)

	invoices.AssertExpectations(t)
	suppliers.AssertExpectations(t)
	products.AssertExpectations(t)
}

// A purchase record is an exact copy of its line item, denormalized with
// invoice and supplier identification.
func TestImport_PurchaseRecordMirrorsLineItem(t *testing.T) {
	invoices, suppliers, products, svc := newImportFixture()

	supplier := &domain.Supplier{ID: uuid.New(), LegalName: "Distribuidora Alfa LTDA"}
	product := &domain.Product{ID: uuid.New(), Code: "A1"}

	invoices.On("GetByAccessKey", mock.Anything, testAccessKey).
		Return(nil, domain.ErrInvoiceNotFound)
	suppliers.On("FindOrCreate", mock.Anything, mock.Anything).Return(supplier, nil)
	products.On("FindOrCreate", mock.Anything, mock.Anything).Return(product, nil)
	suppliers.On("RecomputeTotal", mock.Anything, supplier.ID).Return(nil)

	var captured []domain.PurchaseRecord
	invoices.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).([]domain.PurchaseRecord)
		}).
		Return(nil)

	inv, err := svc.Import(context.Background(), testNFe)
	require.NoError(t, err)
	require.Len(t, captured, 1)

	rec := captured[0]
	item := inv.LineItems[0]
	assert.Equal(t, product.ID, rec.ProductID)
	assert.Equal(t, inv.ID, rec.InvoiceID)
	assert.Equal(t, "123", rec.InvoiceNumber)
	assert.Equal(t, "Distribuidora Alfa LTDA", rec.SupplierName)
	assert.True(t, rec.Quantity.Equal(item.Quantity))
	assert.True(t, rec.RealUnitPrice.Equal(item.RealUnitPrice))
	assert.True(t, rec.TotalWithExpenses.Equal(item.TotalWithExpenses))
}

func TestImport_DuplicatePreCheck(t *testing.T) {
	invoices, _, _, svc := newImportFixture()

	invoices.On("GetByAccessKey", mock.Anything, testAccessKey).
		Return(&domain.Invoice{AccessKey: testAccessKey}, nil)

	_, err := svc.Import(context.Background(), testNFe)
	assert.ErrorIs(t, err, domain.ErrDuplicateInvoice)

	invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// The unique index remains the authority when two imports of the same
// document race past the pre-check.
func TestImport_DuplicateFromIndex(t *testing.T) {
	invoices, suppliers, products, svc := newImportFixture()

	supplier := &domain.Supplier{ID: uuid.New()}

	invoices.On("GetByAccessKey", mock.Anything, testAccessKey).
		Return(nil, domain.ErrInvoiceNotFound)
	suppliers.On("FindOrCreate", mock.Anything, mock.Anything).Return(supplier, nil)
	products.On("FindOrCreate", mock.Anything, mock.Anything).
		Return(&domain.Product{ID: uuid.New()}, nil)
	invoices.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrDuplicateInvoice)

	_, err := svc.Import(context.Background(), testNFe)
	assert.ErrorIs(t, err, domain.ErrDuplicateInvoice)

	suppliers.AssertNotCalled(t, "RecomputeTotal", mock.Anything, mock.Anything)
}

func TestImport_MalformedXML(t *testing.T) {
	invoices, _, _, svc := newImportFixture()

	_, err := svc.Import(context.Background(), "not xml at all")
	assert.ErrorIs(t, err, domain.ErrMalformedDocument)

	invoices.AssertNotCalled(t, "GetByAccessKey", mock.Anything, mock.Anything)
}

// One bad file never aborts the batch: each input gets its own outcome.
func TestImportBatch_PartialSuccess(t *testing.T) {
	invoices, suppliers, products, svc := newImportFixture()

	supplier := &domain.Supplier{ID: uuid.New()}

	invoices.On("GetByAccessKey", mock.Anything, testAccessKey).
		Return(nil, domain.ErrInvoiceNotFound).Once()
	suppliers.On("FindOrCreate", mock.Anything, mock.Anything).Return(supplier, nil)
	products.On("FindOrCreate", mock.Anything, mock.Anything).
		Return(&domain.Product{ID: uuid.New()}, nil)
	invoices.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suppliers.On("RecomputeTotal", mock.Anything, supplier.ID).Return(nil)

	// Second occurrence of the same key is already imported.
	invoices.On("GetByAccessKey", mock.Anything, testAccessKey).
		Return(&domain.Invoice{AccessKey: testAccessKey}, nil)

	outcomes := svc.ImportBatch(context.Background(), []service.ImportInput{
		{Name: "good.xml", XML: testNFe},
		{Name: "broken.xml", XML: "<oops"},
		{Name: "repeat.xml", XML: testNFe},
	})

	require.Len(t, outcomes, 3)

	assert.Equal(t, domain.ImportStatusImported, outcomes[0].Status)
	assert.Equal(t, "good.xml", outcomes[0].Name)
	assert.NotNil(t, outcomes[0].Invoice)

	assert.Equal(t, domain.ImportStatusFailed, outcomes[1].Status)
	assert.NotEmpty(t, outcomes[1].Reason)

	assert.Equal(t, domain.ImportStatusDuplicate, outcomes[2].Status)
	assert.Equal(t, "already imported", outcomes[2].Reason)
}

func TestDelete_RecomputesSupplierTotal(t *testing.T) {
	invoices, suppliers, _, svc := newImportFixture()

	supplierID := uuid.New()
	invID := uuid.New()
	invoices.On("GetByID", mock.Anything, invID).
		Return(&domain.Invoice{ID: invID, SupplierID: supplierID, TotalValue: decimal.NewFromInt(100)}, nil)
	invoices.On("Delete", mock.Anything, invID).Return(nil)
	suppliers.On("RecomputeTotal", mock.Anything, supplierID).Return(nil)

	err := svc.Delete(context.Background(), invID)
	require.NoError(t, err)

	invoices.AssertExpectations(t)
	suppliers.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	invoices, suppliers, _, svc := newImportFixture()

	invID := uuid.New()
	invoices.On("GetByID", mock.Anything, invID).Return(nil, domain.ErrInvoiceNotFound)

	err := svc.Delete(context.Background(), invID)
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)

	suppliers.AssertNotCalled(t, "RecomputeTotal", mock.Anything, mock.Anything)
}
