package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nfecusto/internal/service"
)

// ProductHandler handles product and price-history endpoints.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Search handles GET /api/v1/products. The q parameter matches description,
// code and barcode.
func (h *ProductHandler) Search(c *gin.Context) {
	offset, limit := parsePagination(c)

	products, total, err := h.productService.Search(c.Request.Context(), c.Query("q"), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, products, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/products/:id.
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, product)
}

// GetByBarcode handles GET /api/v1/products/barcode/:barcode, the scanner
// lookup path.
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	if barcode == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "barcode is required")
		return
	}

	product, err := h.productService.GetByBarcode(c.Request.Context(), barcode)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, product)
}

// History handles GET /api/v1/products/:id/history, newest purchase first.
func (h *ProductHandler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
		return
	}

	history, err := h.productService.History(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, history)
}

// LatestPrice handles GET /api/v1/products/:id/latest-price.
func (h *ProductHandler) LatestPrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
		return
	}

	quote, err := h.productService.LatestPrice(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, quote)
}

// SetPackageQuantity handles PUT /api/v1/products/:id/package-quantity.
// A null quantity clears the override.
func (h *ProductHandler) SetPackageQuantity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
		return
	}

	var req struct {
		PackageQuantity *int64 `json:"package_quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "package_quantity must be an integer or null")
		return
	}

	if err := h.productService.SetPackageQuantity(c.Request.Context(), id, req.PackageQuantity); err != nil {
		HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
