package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Port   string
	AppEnv string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool

	SeedData       bool
	AllowedOrigins []string
	TemplatesGlob  string
	StaticDir      string

	// EventsBackend selects the event publisher: "sns", "kafka" or "" (disabled).
	EventsBackend       string
	OrderEventsTopicARN string
	KafkaBrokers        []string
	KafkaTopic          string

	ProductImageBucket  string
	ProductImageBaseURL string

	PaymentSuccessRate float64

	AWSUseSecrets      bool
	CloudWatchEnabled  bool
	CloudWatchLogGroup string
	CloudWatchNS       string
}

// SecretSource resolves JSON secrets by name. Satisfied by *aws.SecretsClient.
type SecretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

const (
	dbSecretName  = "storefront/DB_CREDENTIALS"
	jwtSecretName = "storefront/JWT_SECRET"
)

// UseAWSSecrets reports whether secrets should be read from AWS Secrets
// Manager. It loads .env first because it runs before LoadConfig.
func UseAWSSecrets() bool {
	_ = godotenv.Load()
	return getBool("AWS_USE_SECRETS", false)
}

// LoadConfig reads configuration from the environment (and an optional .env
// file). When secrets is non-nil, database credentials and the JWT secret are
// overridden from it.
func LoadConfig(ctx context.Context, secrets SecretSource) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		AppEnv:              getEnv("APP_ENV", "development"),
		PostgresUser:        os.Getenv("POSTGRES_USER"),
		PostgresPassword:    os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:          os.Getenv("POSTGRES_DB"),
		PostgresHost:        getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:        getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:     getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:    getEnv("POSTGRES_TIMEZONE", "UTC"),
		RedisURL:            os.Getenv("REDIS_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SessionTTL:          getDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:        getBool("COOKIE_SECURE", false),
		SeedData:            getBool("SEED_DATA", true),
		AllowedOrigins:      getList("ALLOWED_ORIGINS", []string{"*"}),
		TemplatesGlob:       getEnv("TEMPLATES_GLOB", "templates/*.tmpl"),
		StaticDir:           getEnv("STATIC_DIR", "static"),
		EventsBackend:       strings.ToLower(os.Getenv("EVENTS_BACKEND")),
		OrderEventsTopicARN: os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		KafkaBrokers:        getList("KAFKA_BROKERS", nil),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "storefront.events"),
		ProductImageBucket:  os.Getenv("PRODUCT_IMAGE_BUCKET"),
		ProductImageBaseURL: os.Getenv("PRODUCT_IMAGE_BASE_URL"),
		PaymentSuccessRate:  getFloat("PAYMENT_SUCCESS_RATE", 0.9),
		AWSUseSecrets:       getBool("AWS_USE_SECRETS", false),
		CloudWatchEnabled:   getBool("CLOUDWATCH_ENABLED", false),
		CloudWatchLogGroup:  os.Getenv("CLOUDWATCH_LOG_GROUP"),
		CloudWatchNS:        getEnv("CLOUDWATCH_NAMESPACE", "Storefront"),
	}

	if secrets != nil {
		if m, err := secrets.GetSecretMap(ctx, dbSecretName); err == nil {
			override(&cfg.PostgresUser, m["POSTGRES_USER"])
			override(&cfg.PostgresPassword, m["POSTGRES_PASSWORD"])
			override(&cfg.PostgresDB, m["POSTGRES_DB"])
			override(&cfg.PostgresHost, m["POSTGRES_HOST"])
			override(&cfg.PostgresPort, m["POSTGRES_PORT"])
		}
		if m, err := secrets.GetSecretMap(ctx, jwtSecretName); err == nil {
			override(&cfg.JWTSecret, m["JWT_SECRET"])
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if c.PaymentSuccessRate < 0 || c.PaymentSuccessRate > 1 {
		return fmt.Errorf("PAYMENT_SUCCESS_RATE must be between 0 and 1, got %v", c.PaymentSuccessRate)
	}
	switch c.EventsBackend {
	case "":
	case "sns":
		if c.OrderEventsTopicARN == "" {
			return fmt.Errorf("ORDER_EVENTS_TOPIC_ARN required for sns events")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS required for kafka events")
		}
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}
	return nil
}

// PostgresDSN builds the DSN for gorm's postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

// EventsTopic is the SNS topic ARN or Kafka topic events are published to.
func (c *Config) EventsTopic() string {
	if c.EventsBackend == "sns" {
		return c.OrderEventsTopicARN
	}
	return c.KafkaTopic
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
