package infra

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	StoragePath    string
	StorageBaseURL string

	// Provider credentials and endpoints.
	HuggingFaceAPIKey string
	ReplicateAPIToken string
	AssetGenEnabled   bool
	AssetGenBaseURL   string

	// Governor limits.
	RequestsPerMinute int
	MaxConcurrent     int
	MonthlyBudgetUSD  float64

	// Fallback chains per modality, in attempt order.
	TextProviderOrder  []string
	ImageProviderOrder []string
	AudioProviderOrder []string

	MaxAssetsPerBatch int

	// HTTP surface.
	AllowedOrigins   []string
	RateLimitPerMin  int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from the environment, reading .env files when
// present, and applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoragePath: getEnv("STORAGE_PATH", "./storage"),

		HuggingFaceAPIKey: os.Getenv("HUGGINGFACE_API_KEY"),
		ReplicateAPIToken: os.Getenv("REPLICATE_API_TOKEN"),
		AssetGenEnabled:   getEnvBool("ASSETGEN_ENABLED", false),
		AssetGenBaseURL:   getEnv("ASSETGEN_BASE_URL", "http://localhost:8000"),

		RequestsPerMinute: getEnvInt("AI_REQUESTS_PER_MINUTE", 60),
		MaxConcurrent:     getEnvInt("AI_MAX_CONCURRENT", 5),
		MonthlyBudgetUSD:  getEnvFloat("AI_MONTHLY_BUDGET_USD", 100),

		TextProviderOrder:  getEnvList("TEXT_PROVIDER_ORDER", []string{"huggingface", "replicate"}),
		ImageProviderOrder: getEnvList("IMAGE_PROVIDER_ORDER", []string{"assetgen", "huggingface", "replicate"}),
		AudioProviderOrder: getEnvList("AUDIO_PROVIDER_ORDER", []string{"replicate", "assetgen"}),

		MaxAssetsPerBatch: getEnvInt("MAX_ASSETS_PER_BATCH", 10),

		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", nil),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}
	cfg.StorageBaseURL = getEnv("STORAGE_BASE_URL", "http://localhost:"+cfg.Port+"/static")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
