package infra

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BASE_URL", "")
	t.Setenv("TEXT_PROVIDER_ORDER", "")
	t.Setenv("IMAGE_PROVIDER_ORDER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.StorageBaseURL != "http://localhost:8080/static" {
		t.Fatalf("StorageBaseURL mismatch: got %q", cfg.StorageBaseURL)
	}
	if cfg.RequestsPerMinute != 60 || cfg.MaxConcurrent != 5 {
		t.Fatalf("governor defaults mismatch: %+v", cfg)
	}
	want := []string{"assetgen", "huggingface", "replicate"}
	if len(cfg.ImageProviderOrder) != len(want) {
		t.Fatalf("ImageProviderOrder mismatch: %#v", cfg.ImageProviderOrder)
	}
	for i := range want {
		if cfg.ImageProviderOrder[i] != want[i] {
			t.Fatalf("ImageProviderOrder mismatch: %#v", cfg.ImageProviderOrder)
		}
	}
}

func TestLoadConfigInheritsPortInStorageBaseURL(t *testing.T) {
	t.Setenv("PORT", "1919")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:1919/static"
	if cfg.StorageBaseURL != expected {
		t.Fatalf("StorageBaseURL mismatch: got %q want %q", cfg.StorageBaseURL, expected)
	}
}

func TestLoadConfigParsesProviderOrder(t *testing.T) {
	t.Setenv("IMAGE_PROVIDER_ORDER", "huggingface, replicate")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.ImageProviderOrder) != 2 || cfg.ImageProviderOrder[0] != "huggingface" || cfg.ImageProviderOrder[1] != "replicate" {
		t.Fatalf("ImageProviderOrder mismatch: %#v", cfg.ImageProviderOrder)
	}
}
