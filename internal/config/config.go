package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP Server
	Port    string
	APIPort string

	// Upstream expense API
	APIBaseURL string

	// Database
	SQLiteDBPath string

	// AMQP change feed
	AMQPURL      string
	AMQPExchange string

	// Redis widget cache, optional
	RedisAddr string

	// Widgets
	CurrencyURL    string
	CurrencyBase   string
	CurrencyTarget string
	NewsURL        string
	NewsLimit      int

	// Session persistence, empty keeps the flag in memory
	SessionFile string
}

func Load() *Config {
	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		APIPort: getEnv("API_PORT", "8081"),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8081"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tally.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tally.events"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		CurrencyURL:    getEnv("CURRENCY_URL", "https://api.exchangerate-api.com/v4/latest"),
		CurrencyBase:   getEnv("CURRENCY_BASE", "USD"),
		CurrencyTarget: getEnv("CURRENCY_TARGET", "EUR"),
		NewsURL:        getEnv("NEWS_URL", ""),
		NewsLimit:      getEnvInt("NEWS_LIMIT", 5),

		SessionFile: getEnv("SESSION_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	for _, p := range []struct{ name, value string }{
		{"PORT", c.Port},
		{"API_PORT", c.APIPort},
	} {
		if port, err := strconv.Atoi(p.value); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be a number", p.name, p.value))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid %s %d: must be between 1 and 65535", p.name, port))
		}
	}

	if c.APIBaseURL == "" {
		errors = append(errors, "API base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CurrencyBase == "" || len(c.CurrencyBase) != 3 {
		errors = append(errors, fmt.Sprintf("invalid currency base '%s': must be a 3-letter code", c.CurrencyBase))
	}
	if c.CurrencyTarget == "" || len(c.CurrencyTarget) != 3 {
		errors = append(errors, fmt.Sprintf("invalid currency target '%s': must be a 3-letter code", c.CurrencyTarget))
	}

	if c.NewsLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid news limit %d: must be at least 1", c.NewsLimit))
	} else if c.NewsLimit > 50 {
		errors = append(errors, fmt.Sprintf("invalid news limit %d: must be at most 50", c.NewsLimit))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
