package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"burger-storefront/models"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP     HTTPConfig
	DB       DBConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Auth     AuthConfig
	Mail     MailConfig
	Delivery DeliveryConfig
	Log      LogConfig
}

type HTTPConfig struct {
	Port           string
	PublicDir      string   // storefront pages; empty disables page routes
	AllowedOrigins []string // empty = allow all
}

type DBConfig struct {
	URL string
	Key string
}

type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
}

type TelegramConfig struct {
	Token  string
	ChatID int64 // staff chat that receives new orders
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type MailConfig struct {
	Addr     string // host:port
	Username string
	Password string
	From     string
}

type DeliveryConfig struct {
	Fee       int64
	PriceZone string
}

type LogConfig struct {
	Level  string
	Format string
}

const defaultDeliveryFee = 5000

// Load reads .env (if present) and the process environment. DATASTORE_URL and
// DATASTORE_KEY are mandatory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP: HTTPConfig{
			Port:           getEnv("PORT", "3000"),
			PublicDir:      getEnv("PUBLIC_DIR", ""),
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "")),
		},
		DB: DBConfig{
			URL: strings.TrimSpace(os.Getenv("DATASTORE_URL")),
			Key: strings.TrimSpace(os.Getenv("DATASTORE_KEY")),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Telegram: TelegramConfig{
			Token: getEnv("TELEGRAM_TOKEN", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Mail: MailConfig{
			Addr:     getEnv("SMTP_ADDR", ""),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		Delivery: DeliveryConfig{
			PriceZone: strings.ToLower(getEnv("PRICE_ZONE", models.ZoneOriente)),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	if cfg.DB.URL == "" || cfg.DB.Key == "" {
		return nil, fmt.Errorf("DATASTORE_URL and DATASTORE_KEY must be set")
	}
	if _, err := cfg.DB.DSN(); err != nil {
		return nil, err
	}

	var err error
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	chatID, err := getInt("TELEGRAM_CHAT_ID", 0)
	if err != nil {
		return nil, err
	}
	cfg.Telegram.ChatID = int64(chatID)

	fee, err := getInt("DELIVERY_FEE", defaultDeliveryFee)
	if err != nil {
		return nil, err
	}
	if fee < 0 {
		return nil, fmt.Errorf("DELIVERY_FEE must be >= 0")
	}
	cfg.Delivery.Fee = int64(fee)

	switch cfg.Delivery.PriceZone {
	case models.ZoneOriente, models.ZoneRestoPais, models.ZoneAreaMetrop:
	default:
		return nil, fmt.Errorf("invalid PRICE_ZONE %q", cfg.Delivery.PriceZone)
	}

	ttl := getEnv("TOKEN_TTL", "24h")
	cfg.Auth.TokenTTL, err = time.ParseDuration(ttl)
	if err != nil || cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL %q", ttl)
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.Log.Format)
	}
	return cfg, nil
}

// DSN returns the connection string with the access key set as password.
func (c DBConfig) DSN() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parse DATASTORE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("DATASTORE_URL must be a postgres:// URL")
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, c.Key)
	return u.String(), nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
