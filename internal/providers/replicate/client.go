// Package replicate adapts the Replicate predictions API to the provider
// contract. It covers text, image and audio generation through hosted models.
package replicate

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
	ProviderID = "replicate"

	defaultBaseURL    = "https://api.replicate.com"
	defaultTextModel  = "meta/meta-llama-3-8b-instruct"
	defaultImageModel = "stability-ai/sdxl"
	defaultAudioModel = "riffusion/riffusion"
	defaultTimeout    = 120 * time.Second

	textCostUSD  = 0.002
	imageCostUSD = 0.012
	audioCostUSD = 0.02
)

// Options configures the Replicate client.
type Options struct {
	APIToken   string
	BaseURL    string
	TextModel  string
	ImageModel string
	AudioModel string
	HTTPClient *http.Client
}

// Client performs synchronous predictions against the Replicate API using
// the Prefer: wait header, so one call returns a finished prediction.
type Client struct {
	apiToken   string
	baseURL    string
	textModel  string
	imageModel string
	audioModel string
	httpClient *http.Client
}

type predictionRequest struct {
	Input map[string]any `json:"input"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// NewClient constructs the adapter, failing when the API token is absent.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIToken) == "" {
		return nil, fmt.Errorf("replicate: %w", providers.ErrMissingCredentials)
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
	audioModel := strings.TrimSpace(opts.AudioModel)
	if audioModel == "" {
		audioModel = defaultAudioModel
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiToken:   strings.TrimSpace(opts.APIToken),
		baseURL:    baseURL,
		textModel:  textModel,
		imageModel: imageModel,
		audioModel: audioModel,
		httpClient: httpClient,
	}, nil
}

// ID implements providers.Adapter.
func (c *Client) ID() string { return ProviderID }

// Supports implements providers.Adapter.
func (c *Client) Supports(m domain.Modality) bool {
	switch m {
	case domain.ModalityText, domain.ModalityCode, domain.ModalityImage, domain.ModalityAudio:
		return true
	default:
		return false
	}
}

// EstimateCost implements providers.Adapter.
func (c *Client) EstimateCost(req providers.Request) float64 {
	switch req.Modality {
	case domain.ModalityImage:
		return imageCostUSD
	case domain.ModalityAudio:
		return audioCostUSD
	default:
		return textCostUSD
	}
}

// Invoke implements providers.Adapter.
func (c *Client) Invoke(ctx context.Context, req providers.Request) (*providers.RawResponse, error) {
	model := req.Model
	if model == "" {
		model = c.modelFor(req.Modality)
	}
	if model == "" {
		return nil, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("unsupported modality %q", req.Modality)}
	}
	pred, err := c.predict(ctx, model, c.inputFor(req))
	if err != nil {
		return nil, err
	}
	if pred.Status != "succeeded" {
		msg := pred.Error
		if msg == "" {
			msg = fmt.Sprintf("prediction ended with status %q", pred.Status)
		}
		return nil, &providers.Error{Provider: ProviderID, Message: msg}
	}
	return c.decodeOutput(req.Modality, model, pred.Output)
}

func (c *Client) modelFor(m domain.Modality) string {
	switch m {
	case domain.ModalityText, domain.ModalityCode:
		return c.textModel
	case domain.ModalityImage:
		return c.imageModel
	case domain.ModalityAudio:
		return c.audioModel
	default:
		return ""
	}
}

func (c *Client) inputFor(req providers.Request) map[string]any {
	prompt := req.Prompt
	if req.Style != "" && req.Modality != domain.ModalityText && req.Modality != domain.ModalityCode {
		prompt = fmt.Sprintf("%s, %s style", prompt, req.Style)
	}
	input := map[string]any{"prompt": prompt}
	if req.Seed != 0 {
		input["seed"] = req.Seed
	}
	if req.Modality == domain.ModalityImage && req.Size != "" {
		if w, h, ok := parseSize(req.Size); ok {
			input["width"] = w
			input["height"] = h
		}
	}
	return input
}

func parseSize(size string) (int, int, bool) {
	var w, h int
	if _, err := fmt.Sscanf(size, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func (c *Client) predict(ctx context.Context, model string, input map[string]any) (*predictionResponse, error) {
	data, err := json.Marshal(predictionRequest{Input: input})
	if err != nil {
		return nil, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("encode request: %v", err)}
	}
	url := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")
	// Block until the prediction finishes so a single call yields output.
	httpReq.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &providers.Error{Provider: ProviderID, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &providers.Error{Provider: ProviderID, Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, &providers.Error{Provider: ProviderID, Status: resp.StatusCode, Message: msg}
	}
	var pred predictionResponse
	if err := json.Unmarshal(body, &pred); err != nil {
		return nil, &providers.Error{Provider: ProviderID, Status: resp.StatusCode, Message: "unexpected response shape"}
	}
	return &pred, nil
}

// decodeOutput handles the two output shapes hosted models use: a string or
// list of string chunks for language models, and a list of file URLs for
// image and audio models.
func (c *Client) decodeOutput(m domain.Modality, model string, output json.RawMessage) (*providers.RawResponse, error) {
	resp := &providers.RawResponse{Provider: ProviderID, Model: model}

	var single string
	if err := json.Unmarshal(output, &single); err == nil {
		single = strings.TrimSpace(single)
	}
	var parts []string
	if single == "" {
		if err := json.Unmarshal(output, &parts); err != nil || len(parts) == 0 {
			return nil, &providers.Error{Provider: ProviderID, Message: "empty prediction output"}
		}
	}

	switch m {
	case domain.ModalityText, domain.ModalityCode:
		if single != "" {
			resp.Text = single
		} else {
			resp.Text = strings.TrimSpace(strings.Join(parts, ""))
		}
	case domain.ModalityImage, domain.ModalityAudio:
		urls := parts
		if single != "" {
			urls = []string{single}
		}
		format := "image/png"
		if m == domain.ModalityAudio {
			format = "audio/mpeg"
		}
		for _, u := range urls {
			resp.Assets = append(resp.Assets, providers.BinaryAsset{URL: u, Format: format})
		}
	}
	return resp, nil
}

var _ providers.Adapter = (*Client)(nil)
