package router

import (
	"github.com/gin-gonic/gin"

	"nfecusto/internal/config"
	"nfecusto/internal/handler"
	"nfecusto/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	invoiceH *handler.InvoiceHandler,
	supplierH *handler.SupplierHandler,
	productH *handler.ProductHandler,
	reportH *handler.ReportHandler,
	feedH *handler.FeedHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Invoice routes
	invoices := v1.Group("/invoices")
	invoices.POST("/import", invoiceH.Import)
	invoices.GET("", invoiceH.List)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.GET("/:id/xml", invoiceH.DownloadXML)
	invoices.DELETE("/:id", invoiceH.Delete)

	// Supplier routes
	suppliers := v1.Group("/suppliers")
	suppliers.GET("", supplierH.List)
	suppliers.GET("/:id", supplierH.GetByID)
	suppliers.PUT("/:id/notes", supplierH.UpdateNotes)
	suppliers.GET("/:id/invoices", supplierH.Invoices)
	suppliers.POST("/:id/contacts", supplierH.AddContact)
	suppliers.PUT("/:id/contacts/:contactID", supplierH.UpdateContact)
	suppliers.DELETE("/:id/contacts/:contactID", supplierH.DeleteContact)

	// Product routes
	products := v1.Group("/products")
	products.GET("", productH.Search)
	products.GET("/barcode/:barcode", productH.GetByBarcode)
	products.GET("/:id", productH.GetByID)
	products.GET("/:id/history", productH.History)
	products.GET("/:id/latest-price", productH.LatestPrice)
	products.PUT("/:id/package-quantity", productH.SetPackageQuantity)

	// Report routes
	reports := v1.Group("/reports")
	reports.GET("/purchases.csv", reportH.PurchasesCSV)
	reports.GET("/products/:id/prices.xlsx", reportH.PriceReportXLSX)

	// Fiscal feed routes
	feed := v1.Group("/feed")
	feed.POST("/certificates", feedH.RegisterCertificate)
	feed.GET("/certificates", feedH.ListCertificates)
	feed.POST("/certificates/:taxID/sync", feedH.Sync)

	return r
}
