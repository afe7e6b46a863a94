package nuvemfiscal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nfecusto/internal/config"
	"nfecusto/internal/domain"
	"nfecusto/internal/port"
)

// Client talks to the Nuvem Fiscal distribution API. It implements
// port.DocumentFeed over plain HTTP with bearer-token auth.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a feed client from configuration.
func NewClient(cfg *config.FeedConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// RegisterCompany registers a company on the distribution service. A company
// that already exists is not an error.
func (c *Client) RegisterCompany(ctx context.Context, taxID string) error {
	body := map[string]string{"cpf_cnpj": taxID}
	resp, err := c.do(ctx, http.MethodPost, "/empresas", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 409 means the company is already registered, which is fine.
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode >= 300 {
		return c.statusError("register company", resp)
	}
	return nil
}

type certificateResponse struct {
	RazaoSocial string `json:"razao_social"`
	Validade    string `json:"validade"`
}

// UploadCertificate attaches an A1 certificate (base64 PFX) to a registered
// company.
func (c *Client) UploadCertificate(ctx context.Context, taxID, pfxBase64, password string) (*port.CertificateInfo, error) {
	body := map[string]string{
		"certificado": pfxBase64,
		"password":    password,
	}
	resp, err := c.do(ctx, http.MethodPut, "/empresas/"+url.PathEscape(taxID)+"/certificado", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, c.statusError("upload certificate", resp)
	}

	var payload certificateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("nuvemfiscal: decode certificate response: %w", err)
	}

	info := &port.CertificateInfo{LegalName: payload.RazaoSocial}
	if payload.Validade != "" {
		if t, err := time.Parse(time.RFC3339, payload.Validade); err == nil {
			info.ExpiresAt = &t
		}
	}
	return info, nil
}

type distributionResponse struct {
	Documentos []struct {
		NSU           int64  `json:"nsu"`
		ChaveAcesso   string `json:"chave_acesso"`
		XML           string `json:"xml"`
		TipoDocumento string `json:"tipo_documento"`
	} `json:"documentos"`
	UltimoNSU int64 `json:"ultimo_nsu"`
}

// FetchBatch pulls the documents published after lastNSU. The returned cursor
// is the highest NSU seen, or lastNSU unchanged when the feed had nothing new.
func (c *Client) FetchBatch(ctx context.Context, taxID, lastNSU string) ([]port.FeedDocument, string, error) {
	q := url.Values{}
	q.Set("cpf_cnpj", taxID)
	if lastNSU != "" {
		q.Set("ultimo_nsu", lastNSU)
	}

	resp, err := c.do(ctx, http.MethodPost, "/nfe/distribuicoes?"+q.Encode(), nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, "", c.statusError("fetch batch", resp)
	}

	var payload distributionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("nuvemfiscal: decode distribution response: %w", err)
	}

	docs := make([]port.FeedDocument, 0, len(payload.Documentos))
	maxNSU := payload.UltimoNSU
	for _, d := range payload.Documentos {
		if d.NSU > maxNSU {
			maxNSU = d.NSU
		}
		if d.XML == "" {
			continue
		}
		docs = append(docs, port.FeedDocument{
			NSU:       strconv.FormatInt(d.NSU, 10),
			AccessKey: d.ChaveAcesso,
			XML:       d.XML,
			Type:      d.TipoDocumento,
		})
	}

	cursor := lastNSU
	if maxNSU > 0 {
		cursor = strconv.FormatInt(maxNSU, 10)
	}
	return docs, cursor, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("nuvemfiscal: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("nuvemfiscal: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	return resp, nil
}

func (c *Client) statusError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrFeedUnavailable, op, resp.StatusCode, snippet)
	}
	return fmt.Errorf("nuvemfiscal: %s: status %d: %s", op, resp.StatusCode, snippet)
}
