package nuvemfiscal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfecusto/internal/config"
	"nfecusto/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.FeedConfig{BaseURL: srv.URL, APIKey: "token", TimeoutSecs: 5})
}

func TestRegisterCompany(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/empresas", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12345678000199", body["cpf_cnpj"])

		w.WriteHeader(http.StatusCreated)
	})

	err := client.RegisterCompany(context.Background(), "12345678000199")
	require.NoError(t, err)
}

// A company that is already registered answers 409 and is not an error.
func TestRegisterCompany_AlreadyRegistered(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := client.RegisterCompany(context.Background(), "12345678000199")
	require.NoError(t, err)
}

func TestUploadCertificate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/empresas/12345678000199/certificado", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"razao_social": "Empresa X LTDA",
			"validade":     "2026-03-01T00:00:00Z",
		})
	})

	info, err := client.UploadCertificate(context.Background(), "12345678000199", "cGZ4", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Empresa X LTDA", info.LegalName)
	require.NotNil(t, info.ExpiresAt)
	assert.Equal(t, 2026, info.ExpiresAt.Year())
}

func TestFetchBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nfe/distribuicoes", r.URL.Path)
		assert.Equal(t, "12345678000199", r.URL.Query().Get("cpf_cnpj"))
		assert.Equal(t, "40", r.URL.Query().Get("ultimo_nsu"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"documentos": []map[string]any{
				{"nsu": 41, "chave_acesso": "key41", "xml": "<NFe/>", "tipo_documento": "nfe"},
				{"nsu": 42, "chave_acesso": "", "xml": "", "tipo_documento": "evento"},
				{"nsu": 43, "chave_acesso": "key43", "xml": "<NFe/>", "tipo_documento": "nfe"},
			},
		})
	})

	docs, cursor, err := client.FetchBatch(context.Background(), "12345678000199", "40")
	require.NoError(t, err)

	// The empty-XML event advances the cursor but produces no document.
	require.Len(t, docs, 2)
	assert.Equal(t, "41", docs[0].NSU)
	assert.Equal(t, "key43", docs[1].AccessKey)
	assert.Equal(t, "43", cursor)
}

func TestFetchBatch_EmptyKeepsCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"documentos": []any{}})
	})

	docs, cursor, err := client.FetchBatch(context.Background(), "123", "40")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, "40", cursor)
}

func TestFetchBatch_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, _, err := client.FetchBatch(context.Background(), "123", "0")
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
}

func TestFetchBatch_ClientErrorIsNotFeedUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, _, err := client.FetchBatch(context.Background(), "123", "0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrFeedUnavailable)
}
