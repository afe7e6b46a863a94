package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nfecusto/internal/domain"
	"nfecusto/internal/service"
)

// maxUploadSize caps a single uploaded XML file at 5 MB. Real NFe documents
// are a few hundred KB at most.
const maxUploadSize = 5 << 20

// InvoiceHandler handles invoice import and lookup endpoints.
type InvoiceHandler struct {
	importService  service.ImportService
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(importService service.ImportService, invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{importService: importService, invoiceService: invoiceService}
}

// Import handles POST /api/v1/invoices/import. It accepts one or more XML
// files in the "files" multipart field and returns one outcome per file;
// a partial failure never fails the whole batch.
func (h *InvoiceHandler) Import(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "multipart form with a 'files' field is required")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "at least one file is required")
		return
	}

	inputs := make([]service.ImportInput, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxUploadSize {
			inputs = append(inputs, service.ImportInput{Name: fh.Filename})
			continue
		}
		f, err := fh.Open()
		if err != nil {
			inputs = append(inputs, service.ImportInput{Name: fh.Filename})
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
		f.Close()
		if err != nil {
			inputs = append(inputs, service.ImportInput{Name: fh.Filename})
			continue
		}
		inputs = append(inputs, service.ImportInput{Name: fh.Filename, XML: string(data)})
	}

	outcomes := h.importService.ImportBatch(c.Request.Context(), inputs)
	RespondOK(c, outcomes)
}

// List handles GET /api/v1/invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	invoices, total, err := h.invoiceService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id, returning the invoice with its
// line items and supplier.
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// DownloadXML handles GET /api/v1/invoices/:id/xml, streaming the archived
// raw document.
func (h *InvoiceHandler) DownloadXML(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if inv.RawXML == "" {
		HandleError(c, domain.ErrInvoiceNotFound)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+inv.AccessKey+".xml\"")
	c.Data(http.StatusOK, "application/xml", []byte(inv.RawXML))
}

// Delete handles DELETE /api/v1/invoices/:id. Line items and purchase
// records go with the invoice, and the supplier total is recomputed.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	if err := h.importService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
