package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nfecusto/internal/service"
)

// FeedHandler handles fiscal feed certificate and sync endpoints.
type FeedHandler struct {
	syncService service.FeedSyncService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(syncService service.FeedSyncService) *FeedHandler {
	return &FeedHandler{syncService: syncService}
}

// RegisterCertificate handles POST /api/v1/feed/certificates. The PFX
// certificate comes base64-encoded in the JSON body; it is forwarded to the
// distribution service and never stored locally.
func (h *FeedHandler) RegisterCertificate(c *gin.Context) {
	var req struct {
		TaxID       string `json:"tax_id" binding:"required"`
		Certificate string `json:"certificate" binding:"required"`
		Password    string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "tax_id, certificate and password are required")
		return
	}

	cert, err := h.syncService.RegisterCertificate(c.Request.Context(), req.TaxID, req.Certificate, req.Password)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, cert)
}

// ListCertificates handles GET /api/v1/feed/certificates.
func (h *FeedHandler) ListCertificates(c *gin.Context) {
	certs, err := h.syncService.ListCertificates(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, certs)
}

// Sync handles POST /api/v1/feed/certificates/:taxID/sync, a manual pull of
// the distribution feed for one company.
func (h *FeedHandler) Sync(c *gin.Context) {
	taxID := c.Param("taxID")
	if taxID == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "taxID is required")
		return
	}

	outcomes, err := h.syncService.Sync(c.Request.Context(), taxID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, outcomes)
}
