package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nfecusto/internal/export"
	"nfecusto/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles CSV and spreadsheet export endpoints.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// PurchasesCSV handles GET /api/v1/reports/purchases.csv with optional
// supplier_id and product_id filters. The file leads with a UTF-8 BOM so
// Excel renders accents correctly.
func (h *ReportHandler) PurchasesCSV(c *gin.Context) {
	var supplierID, productID *uuid.UUID

	if s := c.Query("supplier_id"); s != "" {
		parsed, err := uuid.Parse(s)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid supplier_id")
			return
		}
		supplierID = &parsed
	}
	if s := c.Query("product_id"); s != "" {
		parsed, err := uuid.Parse(s)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product_id")
			return
		}
		productID = &parsed
	}

	records, err := h.reportService.Purchases(c.Request.Context(), supplierID, productID)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename("purchases", "csv")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write(export.BOM); err != nil {
		return
	}
	w := export.NewCSVWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WritePurchases(records); err != nil {
		return
	}
	w.Flush()
}

// PriceReportXLSX handles GET /api/v1/reports/products/:id/prices.xlsx.
func (h *ReportHandler) PriceReportXLSX(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
		return
	}

	rows, err := h.reportService.PriceReport(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename("price_history", "xlsx")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)

	if err := export.WritePriceReport(c.Writer, rows); err != nil {
		// Headers are gone already; nothing sane to send.
		return
	}
}
