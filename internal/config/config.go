package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type OverpaymentPolicy string

const (
	OverpaymentReject OverpaymentPolicy = "reject"
	OverpaymentClamp  OverpaymentPolicy = "clamp"
	OverpaymentAllow  OverpaymentPolicy = "allow"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=mandi port=5432 sslmode=disable"

type Config struct {
	HTTPPort          string
	DatabaseDSN       string
	DBLogLevel        string
	JWTSecret         string
	CORSOrigins       string
	LogLevel          string
	RedisAddress      string // empty disables cross-instance events and locks
	EventChannel      string
	OverpaymentPolicy OverpaymentPolicy
	ShopName          string
	Timezone          string
	PhoneRegion       string // default region for numbers without a country code
	WhatsAppBaseURL   string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:       getEnv("DATABASE_DSN", defaultDSN),
		DBLogLevel:        getEnv("DB_LOG_LEVEL", "error"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RedisAddress:      getEnv("REDIS_ADDRESS", ""),
		EventChannel:      getEnv("EVENT_CHANNEL", "mandi:changes"),
		OverpaymentPolicy: OverpaymentPolicy(strings.ToLower(getEnv("OVERPAYMENT_POLICY", string(OverpaymentReject)))),
		ShopName:          getEnv("SHOP_NAME", "Fruit Store"),
		Timezone:          getEnv("TIMEZONE", "Asia/Kolkata"),
		PhoneRegion:       strings.ToUpper(getEnv("PHONE_REGION", "IN")),
		WhatsAppBaseURL:   strings.TrimRight(getEnv("WHATSAPP_BASE_URL", "https://wa.me"), "/"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.OverpaymentPolicy {
	case OverpaymentReject, OverpaymentClamp, OverpaymentAllow:
	default:
		return fmt.Errorf("OVERPAYMENT_POLICY must be reject, clamp or allow, got %q", c.OverpaymentPolicy)
	}
	return nil
}

// Warnings lists settings that are fine for development but not for production.
func (c *Config) Warnings() []string {
	var w []string
	if c.DatabaseDSN == defaultDSN {
		w = append(w, "DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == "http://localhost:5173" {
		w = append(w, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	return w
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// NewLogger returns a JSON logrus logger at the given level (info when unparsable).
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
