package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nfecusto/internal/domain"
	"nfecusto/internal/service"
	"nfecusto/mocks"
)

func newInvoiceRouter(importSvc service.ImportService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewInvoiceHandler(importSvc, nil)
	r := gin.New()
	r.POST("/api/v1/invoices/import", h.Import)
	r.DELETE("/api/v1/invoices/:id", h.Delete)
	return r
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestImportEndpoint(t *testing.T) {
	importSvc := new(mocks.MockImportService)
	importSvc.On("ImportBatch", mock.Anything, mock.MatchedBy(func(inputs []service.ImportInput) bool {
		return len(inputs) == 2
	})).Return([]domain.ImportOutcome{
		{Name: "a.xml", Status: domain.ImportStatusImported},
		{Name: "b.xml", Status: domain.ImportStatusDuplicate, Reason: "already imported"},
	})

	r := newInvoiceRouter(importSvc)

	body, contentType := multipartBody(t, map[string]string{
		"a.xml": "<NFe/>",
		"b.xml": "<NFe/>",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    []domain.ImportOutcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, domain.ImportStatusImported, resp.Data[0].Status)
	assert.Equal(t, domain.ImportStatusDuplicate, resp.Data[1].Status)

	importSvc.AssertExpectations(t)
}

func TestImportEndpoint_NoFiles(t *testing.T) {
	importSvc := new(mocks.MockImportService)
	r := newInvoiceRouter(importSvc)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	importSvc.AssertNotCalled(t, "ImportBatch", mock.Anything, mock.Anything)
}

func TestDeleteEndpoint(t *testing.T) {
	importSvc := new(mocks.MockImportService)
	id := uuid.New()
	importSvc.On("Delete", mock.Anything, id).Return(nil)

	r := newInvoiceRouter(importSvc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/invoices/"+id.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	importSvc.AssertExpectations(t)
}

func TestDeleteEndpoint_NotFound(t *testing.T) {
	importSvc := new(mocks.MockImportService)
	id := uuid.New()
	importSvc.On("Delete", mock.Anything, id).Return(domain.ErrInvoiceNotFound)

	r := newInvoiceRouter(importSvc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/invoices/"+id.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Success bool      `json:"success"`
		Error   *APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVOICE_NOT_FOUND", resp.Error.Code)
}

func TestDeleteEndpoint_InvalidID(t *testing.T) {
	importSvc := new(mocks.MockImportService)
	r := newInvoiceRouter(importSvc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/invoices/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
