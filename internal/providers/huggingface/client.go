// Package huggingface adapts the HuggingFace Inference API to the provider
// contract for text and image generation.
package huggingface

import (
	"bytes"
	"context"
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
	ProviderID = "huggingface"

	defaultBaseURL    = "https://api-inference.huggingface.co"
	defaultTextModel  = "mistralai/Mistral-7B-Instruct-v0.3"
	defaultImageModel = "stabilityai/stable-diffusion-xl-base-1.0"
	defaultTimeout    = 60 * time.Second

	// Flat per-call cost estimates, in USD. The inference API bills by
	// compute time; these approximations only feed the budget counter.
	textCostUSD  = 0.001
	imageCostUSD = 0.01
)

// Options configures the HuggingFace client.
type Options struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
}

// Client performs HTTP calls against the HuggingFace Inference API.
type Client struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	httpClient *http.Client
}

type textRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters textParameters `json:"parameters,omitempty"`
}

type textParameters struct {
	MaxNewTokens   int  `json:"max_new_tokens,omitempty"`
	ReturnFullText bool `json:"return_full_text"`
}

type textResponse []struct {
	GeneratedText string `json:"generated_text"`
}

type imageRequest struct {
	Inputs string `json:"inputs"`
}

type apiError struct {
	Error string `json:"error"`
}

// NewClient constructs the adapter. Construction fails fast when no API key
// is configured; a half-configured adapter must never reach a fallback chain.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("huggingface: %w", providers.ErrMissingCredentials)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = defaultTextModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		textModel:  textModel,
		imageModel: imageModel,
		httpClient: httpClient,
	}, nil
}

// ID implements providers.Adapter.
func (c *Client) ID() string { return ProviderID }

// Supports implements providers.Adapter.
func (c *Client) Supports(m domain.Modality) bool {
	switch m {
	case domain.ModalityText, domain.ModalityCode, domain.ModalityImage:
		return true
	default:
		return false
	}
}

// EstimateCost implements providers.Adapter.
func (c *Client) EstimateCost(req providers.Request) float64 {
	if req.Modality == domain.ModalityImage {
		return imageCostUSD
	}
	return textCostUSD
}

// Invoke performs exactly one call against the inference API. Transport and
// HTTP failures are mapped into a uniform providers.Error; no retries happen
// here.
func (c *Client) Invoke(ctx context.Context, req providers.Request) (*providers.RawResponse, error) {
	switch req.Modality {
	case domain.ModalityText, domain.ModalityCode:
		return c.invokeText(ctx, req)
	case domain.ModalityImage:
		return c.invokeImage(ctx, req)
	default:
		return nil, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("unsupported modality %q", req.Modality)}
	}
}

func (c *Client) invokeText(ctx context.Context, req providers.Request) (*providers.RawResponse, error) {
	model := req.Model
	if model == "" {
		model = c.textModel
	}
	payload := textRequest{
		Inputs:     req.Prompt,
		Parameters: textParameters{MaxNewTokens: 1024, ReturnFullText: false},
	}
	body, status, err := c.post(ctx, model, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.statusError(status, body)
	}
	var decoded textResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &providers.Error{Provider: ProviderID, Status: status, Message: "unexpected response shape"}
	}
	if len(decoded) == 0 {
		return nil, &providers.Error{Provider: ProviderID, Status: status, Message: "empty completion"}
	}
	return &providers.RawResponse{
		Provider: ProviderID,
		Model:    model,
		Text:     strings.TrimSpace(decoded[0].GeneratedText),
	}, nil
}

func (c *Client) invokeImage(ctx context.Context, req providers.Request) (*providers.RawResponse, error) {
	model := req.Model
	if model == "" {
		model = c.imageModel
	}
	prompt := req.Prompt
	if req.Style != "" {
		prompt = fmt.Sprintf("%s, %s style", prompt, req.Style)
	}
	body, status, err := c.post(ctx, model, imageRequest{Inputs: prompt})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.statusError(status, body)
	}
	if len(body) == 0 {
		return nil, &providers.Error{Provider: ProviderID, Status: status, Message: "empty image payload"}
	}
	return &providers.RawResponse{
		Provider: ProviderID,
		Model:    model,
		Assets:   []providers.BinaryAsset{{Data: body, Format: "image/png"}},
	}, nil
}

func (c *Client) post(ctx context.Context, model string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("encode request: %v", err)}
	}
	url := fmt.Sprintf("%s/models/%s", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, 0, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &providers.Error{Provider: ProviderID, Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}
	return body, resp.StatusCode, nil
}

func (c *Client) statusError(status int, body []byte) error {
	var decoded apiError
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != "" {
		msg = decoded.Error
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &providers.Error{Provider: ProviderID, Status: status, Message: msg}
}

var _ providers.Adapter = (*Client)(nil)
