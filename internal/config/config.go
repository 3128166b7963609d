package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pricetracker/internal/models"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// HTTP API
	APIPort         int
	CORSAllowOrigin string

	// Deribit
	DeribitBaseURL string

	// Fetch cycle
	Instruments   []string
	FetchInterval time.Duration

	// Alerting
	WebhookURL  string
	ServiceName string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "deribit_prices"),
		DBUser:     envStr("DB_USER", "postgres"),
		DBPassword: envStr("DB_PASSWORD", ""),

		APIPort:         envInt("API_PORT", 8000),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		DeribitBaseURL: envStr("DERIBIT_API_BASE_URL", "https://www.deribit.com/api/v2"),

		Instruments:   splitList(envStr("INSTRUMENTS", "BTC_USD,ETH_USD")),
		FetchInterval: time.Duration(envInt("FETCH_INTERVAL_SECONDS", 60)) * time.Second,

		WebhookURL:  envStr("WEBHOOK_URL", ""),
		ServiceName: envStr("SERVICE_NAME", "DeribitPriceTracker"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if len(c.Instruments) == 0 {
		errs = append(errs, "INSTRUMENTS must name at least one symbol")
	}
	for i, inst := range c.Instruments {
		norm, err := models.NormalizeInstrument(inst)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		c.Instruments[i] = norm
	}
	if c.FetchInterval < time.Second {
		errs = append(errs, "FETCH_INTERVAL_SECONDS must be at least 1")
	}
	if c.WebhookURL == "" {
		fmt.Println("[WARN] WEBHOOK_URL not set — cycle failures are logged only")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Deribit Price Tracker Configuration ===")
	fmt.Printf("Database: %s:%d/%s\n", c.DBHost, c.DBPort, c.DBName)
	fmt.Printf("API Port: %d\n", c.APIPort)
	fmt.Printf("Deribit:  %s\n", c.DeribitBaseURL)
	fmt.Printf("Instruments: %s\n", strings.Join(c.Instruments, ", "))
	fmt.Printf("Fetch Interval: %s\n", c.FetchInterval)
	fmt.Printf("Webhook Alerts: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Println("===========================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
