package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"nfecusto/internal/config"
	"nfecusto/internal/domain"
	"nfecusto/internal/nfe"
	"nfecusto/internal/port"
)

// ImportInput is one XML document in a batch, with a display name for the
// per-file outcome line (filename or feed NSU).
type ImportInput struct {
	Name string
	XML  string
}

// ImportService orchestrates NFe imports: parse, deduplicate, resolve
// supplier and products, persist atomically, recompute the supplier
// aggregate, and archive the raw XML.
type ImportService interface {
	Import(ctx context.Context, xmlText string) (*domain.Invoice, error)
	ImportBatch(ctx context.Context, inputs []ImportInput) []domain.ImportOutcome
	Delete(ctx context.Context, invoiceID uuid.UUID) error
}

type importService struct {
	invoices  port.InvoiceRepository
	suppliers port.SupplierRepository
	products  port.ProductRepository
	archive   port.ObjectStorage // nil disables raw-XML archiving
	cfg       *config.ArchiveConfig
}

// NewImportService creates a new ImportService implementation. archive may
// be nil when the raw-XML archive is disabled.
func NewImportService(
	invoices port.InvoiceRepository,
	suppliers port.SupplierRepository,
	products port.ProductRepository,
	archive port.ObjectStorage,
	cfg *config.ArchiveConfig,
) ImportService {
	return &importService{
		invoices:  invoices,
		suppliers: suppliers,
		products:  products,
		archive:   archive,
		cfg:       cfg,
	}
}

func (s *importService) Import(ctx context.Context, xmlText string) (*domain.Invoice, error) {
	inv, err := nfe.Parse(xmlText)
	if err != nil {
		return nil, err
	}

	// Pre-check is an optimization only; the unique index on access_key is
	// the authority under concurrent imports of the same document.
	if _, err := s.invoices.GetByAccessKey(ctx, inv.AccessKey); err == nil {
		return nil, domain.ErrDuplicateInvoice
	} else if !errors.Is(err, domain.ErrInvoiceNotFound) {
		return nil, err
	}

	supplier, err := s.suppliers.FindOrCreate(ctx, inv.Supplier)
	if err != nil {
		return nil, fmt.Errorf("importService.Import supplier: %w", err)
	}
	inv.Supplier = supplier
	inv.SupplierID = supplier.ID
	inv.ID = uuid.New()

	records := make([]domain.PurchaseRecord, 0, len(inv.LineItems))
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		item.ID = uuid.New()
		item.InvoiceID = inv.ID

		product, err := s.products.FindOrCreate(ctx, &domain.Product{
			Code:        item.Code,
			Barcode:     item.Barcode,
			Description: item.Description,
			Unit:        item.Unit,
			NCM:         item.NCM,
		})
		if err != nil {
			return nil, fmt.Errorf("importService.Import product %q: %w", item.Code, err)
		}
		item.ProductID = product.ID

		records = append(records, domain.PurchaseRecord{
			ID:                uuid.New(),
			ProductID:         product.ID,
			InvoiceID:         inv.ID,
			InvoiceNumber:     inv.Number,
			SupplierID:        supplier.ID,
			SupplierName:      supplier.LegalName,
			Date:              inv.IssueDate,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			Total:             item.Total,
			TaxValue:          item.TaxValue,
			TotalWithExpenses: item.TotalWithExpenses,
			RealUnitPrice:     item.RealUnitPrice,
			Expenses:          item.Expenses,
		})
	}

	if err := s.invoices.Create(ctx, inv, records); err != nil {
		return nil, err
	}

	if err := s.suppliers.RecomputeTotal(ctx, supplier.ID); err != nil {
		// The aggregate self-heals on the next import for this supplier.
		log.Printf("importService.Import: recompute total for supplier %s: %v", supplier.ID, err)
	}

	s.archiveRawXML(ctx, inv)

	return inv, nil
}

// archiveRawXML stores the original document in object storage, best
// effort: archive failures never fail an import that is already persisted.
func (s *importService) archiveRawXML(ctx context.Context, inv *domain.Invoice) {
	if s.archive == nil || s.cfg == nil || !s.cfg.Enabled {
		return
	}
	key := fmt.Sprintf("nfe/%s.xml", inv.AccessKey)
	_, err := s.archive.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		Body:        strings.NewReader(inv.RawXML),
		ContentType: "application/xml",
	})
	if err != nil {
		log.Printf("importService.archiveRawXML: upload %s: %v", key, err)
	}
}

// ImportBatch imports each input independently and never aborts on a
// per-file failure: one outcome line per input, partial success is the
// expected common case.
func (s *importService) ImportBatch(ctx context.Context, inputs []ImportInput) []domain.ImportOutcome {
	outcomes := make([]domain.ImportOutcome, 0, len(inputs))
	for _, input := range inputs {
		outcome := domain.ImportOutcome{Name: input.Name}

		inv, err := s.Import(ctx, input.XML)
		switch {
		case err == nil:
			outcome.Status = domain.ImportStatusImported
			outcome.Invoice = inv
		case errors.Is(err, domain.ErrDuplicateInvoice):
			outcome.Status = domain.ImportStatusDuplicate
			outcome.Reason = "already imported"
		case errors.Is(err, domain.ErrMalformedDocument):
			outcome.Status = domain.ImportStatusFailed
			outcome.Reason = err.Error()
		default:
			outcome.Status = domain.ImportStatusFailed
			outcome.Reason = err.Error()
			log.Printf("importService.ImportBatch: %s: %v", input.Name, err)
		}

		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *importService) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if err := s.invoices.Delete(ctx, invoiceID); err != nil {
		return err
	}
	if err := s.suppliers.RecomputeTotal(ctx, inv.SupplierID); err != nil {
		log.Printf("importService.Delete: recompute total for supplier %s: %v", inv.SupplierID, err)
	}
	return nil
}
