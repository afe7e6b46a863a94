package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nfecusto/internal/domain"
	"nfecusto/internal/service"
)

// SupplierHandler handles supplier endpoints.
type SupplierHandler struct {
	supplierService service.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// List handles GET /api/v1/suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	suppliers, total, err := h.supplierService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, suppliers, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/suppliers/:id, including the supplier's
// contacts.
func (h *SupplierHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid supplier ID")
		return
	}

	supplier, err := h.supplierService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, supplier)
}

// UpdateNotes handles PUT /api/v1/suppliers/:id/notes.
func (h *SupplierHandler) UpdateNotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid supplier ID")
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "notes is required")
		return
	}

	if err := h.supplierService.UpdateNotes(c.Request.Context(), id, req.Notes); err != nil {
		HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Invoices handles GET /api/v1/suppliers/:id/invoices.
func (h *SupplierHandler) Invoices(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid supplier ID")
		return
	}

	offset, limit := parsePagination(c)

	invoices, total, err := h.supplierService.Invoices(c.Request.Context(), id, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

type contactRequest struct {
	Name  string `json:"name" binding:"required"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// AddContact handles POST /api/v1/suppliers/:id/contacts.
func (h *SupplierHandler) AddContact(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid supplier ID")
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	contact := &domain.SupplierContact{
		ID:         uuid.New(),
		SupplierID: supplierID,
		Name:       req.Name,
		Role:       req.Role,
		Phone:      req.Phone,
		Email:      req.Email,
		Notes:      req.Notes,
	}
	if err := h.supplierService.AddContact(c.Request.Context(), contact); err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, contact)
}

// UpdateContact handles PUT /api/v1/suppliers/:id/contacts/:contactID.
func (h *SupplierHandler) UpdateContact(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid supplier ID")
		return
	}
	contactID, err := uuid.Parse(c.Param("contactID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid contact ID")
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	contact := &domain.SupplierContact{
		ID:         contactID,
		SupplierID: supplierID,
		Name:       req.Name,
		Role:       req.Role,
		Phone:      req.Phone,
		Email:      req.Email,
		Notes:      req.Notes,
	}
	if err := h.supplierService.UpdateContact(c.Request.Context(), contact); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, contact)
}

// DeleteContact handles DELETE /api/v1/suppliers/:id/contacts/:contactID.
func (h *SupplierHandler) DeleteContact(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid supplier ID")
		return
	}
	contactID, err := uuid.Parse(c.Param("contactID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid contact ID")
		return
	}

	if err := h.supplierService.DeleteContact(c.Request.Context(), supplierID, contactID); err != nil {
		HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
