// Package assetgen adapts the in-house asset generation service. The service
// runs local diffusion and audio models and exposes a small HTTP surface:
// POST /generate for work and GET /health for liveness.
package assetgen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gameforge/internal/domain"
	"gameforge/internal/providers"
)

const (
	// ProviderID identifies this adapter in fallback chains.
	ProviderID = "assetgen"

	defaultTimeout       = 300 * time.Second
	defaultHealthTimeout = 3 * time.Second
)

// Options configures the asset generation client. BaseURL is required; the
// service is internal and carries no credentials.
type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	HealthClient *http.Client
}

// Client talks to the internal asset generation service.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	healthClient *http.Client
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Type   string `json:"type"`
	Style  string `json:"style,omitempty"`
	Size   string `json:"size,omitempty"`
	Seed   int    `json:"seed,omitempty"`
}

type generateResponse struct {
	URL    string `json:"url"`
	Data   string `json:"data"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Error  string `json:"error"`
}

// NewClient constructs the adapter.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("assetgen: base URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	healthClient := opts.HealthClient
	if healthClient == nil {
		healthClient = &http.Client{Timeout: defaultHealthTimeout}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, healthClient: healthClient}, nil
}

// ID implements providers.Adapter.
func (c *Client) ID() string { return ProviderID }

// Supports implements providers.Adapter.
func (c *Client) Supports(m domain.Modality) bool {
	return m == domain.ModalityImage || m == domain.ModalityAudio
}

// EstimateCost implements providers.Adapter. The service runs on our own
// hardware, so calls do not draw down the external spend budget.
func (c *Client) EstimateCost(providers.Request) float64 { return 0 }

// Healthy reports whether the service answers its health endpoint. Callers
// use this to decide between queueing work here and falling through to a
// hosted provider.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.healthClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Invoke implements providers.Adapter.
func (c *Client) Invoke(ctx context.Context, req providers.Request) (*providers.RawResponse, error) {
	if !c.Supports(req.Modality) {
		return nil, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("unsupported modality %q", req.Modality)}
	}
	payload := generateRequest{
		Prompt: req.Prompt,
		Type:   string(req.Modality),
		Style:  req.Style,
		Size:   req.Size,
		Seed:   req.Seed,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("encode request: %v", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(data))
	if err != nil {
		return nil, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &providers.Error{Provider: ProviderID, Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}
	var decoded generateResponse
	if jsonErr := json.Unmarshal(body, &decoded); jsonErr != nil && resp.StatusCode == http.StatusOK {
		return nil, &providers.Error{Provider: ProviderID, Status: resp.StatusCode, Message: "unexpected response shape"}
	}
	if resp.StatusCode != http.StatusOK {
		msg := decoded.Error
		if msg == "" {
			msg = strings.TrimSpace(string(body))
			if len(msg) > 200 {
				msg = msg[:200]
			}
		}
		return nil, &providers.Error{Provider: ProviderID, Status: resp.StatusCode, Message: msg}
	}

	asset := providers.BinaryAsset{
		URL:    decoded.URL,
		Format: decoded.Format,
		Width:  decoded.Width,
		Height: decoded.Height,
	}
	if decoded.Data != "" {
		raw, decErr := base64.StdEncoding.DecodeString(decoded.Data)
		if decErr != nil {
			return nil, &providers.Error{Provider: ProviderID, Status: resp.StatusCode, Message: "invalid base64 payload"}
		}
		asset.Data = raw
	}
	if asset.Format == "" {
		if req.Modality == domain.ModalityAudio {
			asset.Format = "audio/wav"
		} else {
			asset.Format = "image/png"
		}
	}
	if asset.URL == "" && len(asset.Data) == 0 {
		return nil, &providers.Error{Provider: ProviderID, Status: resp.StatusCode, Message: "response carried no asset"}
	}
	return &providers.RawResponse{
		Provider: ProviderID,
		Assets:   []providers.BinaryAsset{asset},
	}, nil
}

var _ providers.Adapter = (*Client)(nil)
