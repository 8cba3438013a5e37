// Package config loads server settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvProduction = "production"

type Config struct {
	// HTTP server
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	FrontendURL string `yaml:"frontend_url"`

	// Database
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`

	// Tokens
	JWTSecret string        `yaml:"jwt_secret"`
	JWTExpiry time.Duration `yaml:"jwt_expiry"`

	// Google sign-in
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRedirectURL  string `yaml:"google_redirect_url"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Rate limiting, per client IP
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	// Peers allowed to set X-Forwarded-For, as IPs or CIDR ranges
	TrustedProxies []string `yaml:"trusted_proxies"`

	// Events. An empty broker disables publishing.
	MQTTBroker      string `yaml:"mqtt_broker"`
	MQTTClientID    string `yaml:"mqtt_client_id"`
	MQTTTopicPrefix string `yaml:"mqtt_topic_prefix"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:            "8080",
		Environment:     "development",
		MongoURI:        "mongodb://localhost:27017",
		MongoDB:         "motormate",
		JWTExpiry:       24 * time.Hour,
		LogLevel:        "info",
		LogFormat:       "text",
		RateLimitRPS:    10,
		RateLimitBurst:  20,
		MQTTClientID:    "motormate-api",
		MQTTTopicPrefix: "motormate",
	}
}

// Load builds the configuration. A missing .env file is not an error; a
// CONFIG_FILE that cannot be read or parsed is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDB = getEnv("MONGO_DB", c.MongoDB)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTExpiry = getEnvDuration("JWT_EXPIRY", c.JWTExpiry)
	c.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", c.GoogleClientID)
	c.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.GoogleClientSecret)
	c.GoogleRedirectURL = getEnv("GOOGLE_REDIRECT_URL", c.GoogleRedirectURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.TrustedProxies = getEnvList("TRUSTED_PROXIES", c.TrustedProxies)
	c.MQTTBroker = getEnv("MQTT_BROKER", c.MQTTBroker)
	c.MQTTClientID = getEnv("MQTT_CLIENT_ID", c.MQTTClientID)
	c.MQTTTopicPrefix = getEnv("MQTT_TOPIC_PREFIX", c.MQTTTopicPrefix)
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.MongoURI == "" {
		problems = append(problems, "MONGO_URI cannot be empty")
	} else if !strings.HasPrefix(c.MongoURI, "mongodb://") && !strings.HasPrefix(c.MongoURI, "mongodb+srv://") {
		problems = append(problems, fmt.Sprintf("invalid MONGO_URI scheme in '%s'", c.MongoURI))
	}
	if c.MongoDB == "" {
		problems = append(problems, "MONGO_DB cannot be empty")
	}

	if c.JWTExpiry <= 0 {
		problems = append(problems, fmt.Sprintf("invalid JWT expiry %v: must be positive", c.JWTExpiry))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required in production")
	}

	// Google sign-in is all or nothing.
	google := []string{c.GoogleClientID, c.GoogleClientSecret, c.GoogleRedirectURL}
	set := 0
	for _, v := range google {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(google) {
		problems = append(problems, "GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL must be set together")
	}
	if c.GoogleRedirectURL != "" {
		if _, err := url.ParseRequestURI(c.GoogleRedirectURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid GOOGLE_REDIRECT_URL '%s': %v", c.GoogleRedirectURL, err))
		}
	}
	if c.FrontendURL != "" {
		if _, err := url.ParseRequestURI(c.FrontendURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid FRONTEND_URL '%s': %v", c.FrontendURL, err))
		}
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.RateLimitRPS <= 0 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	for _, proxy := range c.TrustedProxies {
		if !validProxy(proxy) {
			problems = append(problems, fmt.Sprintf("invalid trusted proxy '%s': must be an IP or CIDR", proxy))
		}
	}

	if c.MQTTBroker != "" && c.MQTTClientID == "" {
		problems = append(problems, "MQTT_CLIENT_ID cannot be empty when MQTT_BROKER is set")
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n- " + strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func validProxy(v string) bool {
	if strings.Contains(v, "/") {
		_, err := netip.ParsePrefix(v)
		return err == nil
	}
	_, err := netip.ParseAddr(v)
	return err == nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
