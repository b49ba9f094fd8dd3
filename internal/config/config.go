package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultCatalogURL   = "https://warply.s3.amazonaws.com/applications/ed840ad545884deeb6c6b699176797ed/basket-retailers/prices.json"
	DefaultImageBaseURL = "https://warply.s3.amazonaws.com/applications/ed840ad545884deeb6c6b699176797ed/products"
)

type Config struct {
	Catalog   CatalogConfig   `json:"catalog"`
	Blob      BlobConfig      `json:"blob"`
	Selection SelectionConfig `json:"selection"`
	Log       LogConfig       `json:"log"`
	Mocks     MockConfig      `json:"mocks"`
}

type CatalogConfig struct {
	URL          string        `json:"url"`
	ImageBaseURL string        `json:"image_base_url"`
	Timeout      time.Duration `json:"timeout"`
	Retries      int           `json:"retries"`
	TTL          time.Duration `json:"ttl"`
}

// BlobConfig points at an Azure container holding the catalog document. When
// Account is empty the catalog is fetched over HTTPS instead.
type BlobConfig struct {
	Account   string `json:"account"`
	Key       string `json:"-"`
	Container string `json:"container"`
	Name      string `json:"name"`
}

func (b BlobConfig) Enabled() bool {
	return b.Account != ""
}

type SelectionConfig struct {
	Policy           string `json:"policy"` // "first" or "none"
	HighlightPricing bool   `json:"highlight_pricing"`
}

// LogConfig also carries the exporters. Logs and traces go to OTLP only when
// OTLPEndpoint is set; logs are appended to an Azure blob when BlobAccount is
// set.
type LogConfig struct {
	Level         string `json:"level"`
	OTLPEndpoint  string `json:"otlp_endpoint"`
	ServiceName   string `json:"service_name"`
	BlobAccount   string `json:"blob_account"`
	BlobKey       string `json:"-"`
	BlobContainer string `json:"blob_container"`
	BlobName      string `json:"blob_name"`
}

type MockConfig struct {
	Enable bool `json:"enable"`
}

func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	timeout, err := durationFromEnv("CATALOG_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := durationFromEnv("CATALOG_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	retries, err := intFromEnv("CATALOG_RETRIES", 0)
	if err != nil {
		return nil, err
	}
	if retries < 0 {
		return nil, fmt.Errorf("CATALOG_RETRIES must not be negative, got %d", retries)
	}

	config := &Config{
		Catalog: CatalogConfig{
			URL:          getEnvOrDefault("CATALOG_URL", DefaultCatalogURL),
			ImageBaseURL: strings.TrimRight(getEnvOrDefault("CATALOG_IMAGE_BASE_URL", DefaultImageBaseURL), "/"),
			Timeout:      timeout,
			Retries:      retries,
			TTL:          ttl,
		},
		Blob: BlobConfig{
			Account:   os.Getenv("CATALOG_BLOB_ACCOUNT"),
			Key:       os.Getenv("CATALOG_BLOB_KEY"),
			Container: getEnvOrDefault("CATALOG_BLOB_CONTAINER", "catalog"),
			Name:      getEnvOrDefault("CATALOG_BLOB_NAME", "prices.json"),
		},
		Selection: SelectionConfig{
			Policy:           strings.ToLower(getEnvOrDefault("SELECTION_POLICY", "first")),
			HighlightPricing: boolFromEnv("HIGHLIGHT_PRICING"),
		},
		Log: LogConfig{
			Level:         getEnvOrDefault("LOG_LEVEL", "info"),
			OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:   getEnvOrDefault("OTEL_SERVICE_NAME", "basket"),
			BlobAccount:   os.Getenv("LOG_BLOB_ACCOUNT"),
			BlobKey:       os.Getenv("LOG_BLOB_KEY"),
			BlobContainer: getEnvOrDefault("LOG_BLOB_CONTAINER", "logs"),
			BlobName:      os.Getenv("LOG_BLOB_NAME"),
		},
		Mocks: MockConfig{
			Enable: boolFromEnv("MOCKS_ENABLE"),
		},
	}

	if config.Log.BlobAccount != "" && config.Log.BlobKey == "" {
		return nil, fmt.Errorf("LOG_BLOB_KEY is required when LOG_BLOB_ACCOUNT is set")
	}
	if config.Blob.Enabled() && config.Blob.Key == "" {
		return nil, fmt.Errorf("CATALOG_BLOB_KEY is required when CATALOG_BLOB_ACCOUNT is set")
	}

	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func boolFromEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func intFromEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func durationFromEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
