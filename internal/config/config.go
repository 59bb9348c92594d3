// internal/config/config.go
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"meal-ai/internal/models"
)

const DefaultAnalysisTimeout = 25 * time.Second

// Config is the process configuration. Values come from flags, falling back
// to environment variables, then to built-in defaults.
type Config struct {
	Addr           string
	PublicURL      string
	DBPath         string
	Development    bool
	AllowedOrigins []string

	AnalysisTimeout time.Duration
	LookupCacheTTL  time.Duration

	// Keys seed the settings store when the user has not saved their own.
	Keys      map[models.Vendor]string
	USDAKey   string
	Models    map[models.Vendor]string
	BaseURLs  map[models.Vendor]string
	OFFURL    string
	USDAURL   string
	UserAgent string
}

// LoadEnv reads a .env file outside production. A missing file is not an
// error.
func LoadEnv() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
}

// Load parses args (without the program name) into a Config.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("meal-ai", flag.ContinueOnError)

	cfg := &Config{
		Keys: map[models.Vendor]string{
			models.VendorOpenAI: os.Getenv("OPENAI_API_KEY"),
			models.VendorClaude: os.Getenv("ANTHROPIC_API_KEY"),
			models.VendorGemini: os.Getenv("GEMINI_API_KEY"),
		},
		USDAKey: os.Getenv("USDA_API_KEY"),
		Models: map[models.Vendor]string{
			models.VendorOpenAI: os.Getenv("OPENAI_MODEL"),
			models.VendorClaude: os.Getenv("CLAUDE_MODEL"),
			models.VendorGemini: os.Getenv("GEMINI_MODEL"),
		},
		BaseURLs: map[models.Vendor]string{
			models.VendorOpenAI: os.Getenv("OPENAI_BASE_URL"),
			models.VendorClaude: os.Getenv("CLAUDE_BASE_URL"),
			models.VendorGemini: os.Getenv("GEMINI_BASE_URL"),
		},
		OFFURL:    envOr("OFF_BASE_URL", "https://world.openfoodfacts.org"),
		USDAURL:   envOr("USDA_BASE_URL", "https://api.nal.usda.gov"),
		UserAgent: envOr("LOOKUP_USER_AGENT", "meal-ai/1.0"),
	}

	var origins string
	fs.StringVar(&cfg.Addr, "addr", envOr("ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.PublicURL, "public-url", envOr("PUBLIC_URL", ""), "Base URL MCP clients use to reach this server")
	fs.StringVar(&cfg.DBPath, "db", envOr("DB_PATH", "./meal-ai.db"), "Database file path")
	fs.BoolVar(&cfg.Development, "dev", envBool("DEV", false), "Development logging")
	fs.StringVar(&origins, "origins", envOr("CORS_ORIGINS", "*"), "Comma separated CORS origins")
	fs.DurationVar(&cfg.AnalysisTimeout, "timeout", envDuration("ANALYSIS_TIMEOUT", DefaultAnalysisTimeout), "Analysis timeout")
	fs.DurationVar(&cfg.LookupCacheTTL, "cache-ttl", envDuration("LOOKUP_CACHE_TTL", 30*24*time.Hour), "Lookup cache lifetime")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	if cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.AnalysisTimeout)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
