package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// defaultPrompt is the studio's house food-photography prompt, applied ahead
// of client and per-record prompts unless disabled.
const defaultPrompt = "„Ein professionelles Food-Fotografie-Bild::  Kamera-Perspektive: leicht erhöhte Draufsicht, etwa 30–45° von oben. Objektiv: Normalobjektiv, 50 mm Vollformat-Look. Den Teller oder Gefäß vervollständigen, Hintergrund sanft unscharf (Bokeh). Komposition klar und appetitlich, alle Speisen vollständig sichtbar. Keine störenden Objekte wie Dosen, Serviettenhalter oder Salzstreuer im Bild. Beleuchtung: weiches, diffuses Licht wie aus einer großen Lichtwanne, natürliche Reflexe, zarte Schatten. Farben lebendig, aber realistisch; leichte Food-Styling-Ästhetik; knackige Details, hohe Schärfe, professioneller Look. Ultra-realistischer Stil, hochwertige Food-Photography.“"

type Config struct {
	// Airtable
	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Object storage
	StorageURL       string
	StorageKey       string
	StorageBucket    string
	StoragePublicURL string

	// Automation
	AutoProcessEnabled    bool
	ProcessInterval       time.Duration
	SerializeRuns         bool
	DefaultPrompt         string
	UseDefaultPrompt      bool
	ClientPrompt          string
	UseClientPrompt       bool
	DefaultVariationCount int

	// Server
	Port           string
	Environment    string
	WorkerURL      string
	AdminJWTSecret string
}

func Load() (*Config, error) {
	cfg := &Config{
		AirtableAPIKey:    getEnv("AIRTABLE_API_KEY", ""),
		AirtableBaseID:    getEnv("AIRTABLE_BASE_ID", ""),
		AirtableTableName: getEnv("AIRTABLE_TABLE_NAME", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-3-pro-image-preview"),

		StorageURL:       getEnv("STORAGE_URL", ""),
		StorageKey:       getEnv("STORAGE_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "images"),
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", ""),

		AutoProcessEnabled:    getBoolEnv("AUTO_PROCESS_ENABLED", true),
		ProcessInterval:       getDurationEnv("PROCESS_INTERVAL", time.Hour),
		SerializeRuns:         getBoolEnv("PROCESS_SERIALIZE", true),
		DefaultPrompt:         getEnv("DEFAULT_FOOD_PROMPT", defaultPrompt),
		UseDefaultPrompt:      getBoolEnv("USE_DEFAULT_PROMPT", true),
		ClientPrompt:          getEnv("DEFAULT_CLIENT_PROMPT", ""),
		UseClientPrompt:       getBoolEnv("USE_CLIENT_PROMPT", true),
		DefaultVariationCount: getIntEnv("DEFAULT_VARIATION_COUNT", 2),

		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		WorkerURL:      getEnv("WORKER_URL", "https://upload-images-nano-banana-auto.pages.dev"),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.AirtableAPIKey == "" {
		return fmt.Errorf("AIRTABLE_API_KEY is required")
	}
	if c.AirtableBaseID == "" {
		return fmt.Errorf("AIRTABLE_BASE_ID is required")
	}
	if c.AirtableTableName == "" {
		return fmt.Errorf("AIRTABLE_TABLE_NAME is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.StorageURL == "" {
		return fmt.Errorf("STORAGE_URL is required")
	}
	if c.StoragePublicURL == "" {
		return fmt.Errorf("STORAGE_PUBLIC_URL is required")
	}
	switch c.DefaultVariationCount {
	case 1, 2, 4:
	default:
		return fmt.Errorf("DEFAULT_VARIATION_COUNT must be 1, 2 or 4")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv keeps the original convention: flags default on and are only
// disabled by an explicit "false".
func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value != "false"
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
