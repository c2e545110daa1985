package assetgen

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"gameforge/internal/domain"
	"gameforge/internal/providers"
)

func TestHealthy(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	client, err := NewClient(Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if !client.Healthy(context.Background()) {
		t.Fatal("expected healthy")
	}
	healthy = false
	if client.Healthy(context.Background()) {
		t.Fatal("expected unhealthy")
	}
}

func TestInvokeInlinePayload(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":"` + base64.StdEncoding.EncodeToString(png) + `","format":"image/png","width":512,"height":512}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	resp, err := client.Invoke(context.Background(), providers.Request{
		Modality: domain.ModalityImage,
		Prompt:   "goblin sprite",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(resp.Assets) != 1 {
		t.Fatalf("expected one asset, got %d", len(resp.Assets))
	}
	asset := resp.Assets[0]
	if string(asset.Data) != string(png) || asset.Width != 512 {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestInvokeRejectsText(t *testing.T) {
	client, err := NewClient(Options{BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Invoke(context.Background(), providers.Request{Modality: domain.ModalityText, Prompt: "x"})
	if err == nil {
		t.Fatal("expected error for text modality")
	}
}

func TestEstimateCostIsZero(t *testing.T) {
	client, err := NewClient(Options{BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := client.EstimateCost(providers.Request{Modality: domain.ModalityImage}); got != 0 {
		t.Fatalf("EstimateCost = %v, want 0", got)
	}
}
