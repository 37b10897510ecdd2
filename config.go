package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SujaySAK777/StreamIQ/database"
	aws_pkg "github.com/SujaySAK777/StreamIQ/pkg/aws"
	"github.com/SujaySAK777/StreamIQ/services"
	"github.com/go-playground/validator/v10"
)

const dbCredentialsSecret = "promotion-agent/DB_CREDENTIALS"

// Ingest sources and decision stores.
const (
	IngestKafka = "kafka"
	IngestSQS   = "sqs"
	IngestBoth  = "both"

	StorePostgres = "postgres"
	StoreDynamoDB = "dynamodb"
	StoreNone     = "none"
)

// Config holds all configuration for the promotion agent.
type Config struct {
	Port string `validate:"required,numeric"`
	Env  string

	Postgres database.PostgresConfig

	KafkaBrokers      []string `validate:"required,min=1,dive,required"`
	KafkaGroupID      string   `validate:"required"`
	TransactionsTopic string   `validate:"required"`
	ProductViewsTopic string   `validate:"required"`
	ExposureTopic     string   `validate:"required"`
	ExplanationsTopic string   `validate:"required"`
	ReviewQueueTopic  string   `validate:"required"`

	IngestSource          string `validate:"oneof=kafka sqs both"`
	ProductEventsQueueURL string `validate:"required_unless=IngestSource kafka"`
	PromotionSNSTopicARN  string

	RedisURL        string
	PartnerCacheTTL time.Duration `validate:"gt=0"`

	DecisionStore       string `validate:"oneof=postgres dynamodb none"`
	DecisionDynamoTable string `validate:"required_if=DecisionStore dynamodb"`

	ExpectedReach         float64 `validate:"gt=0"`
	MaxDiscountPct        float64 `validate:"gt=0,lte=1"`
	ManualReviewThreshold float64 `validate:"gte=0"`
	UnitMarginPct         float64 `validate:"gte=0,lte=1"`
	PartnerLimit          int     `validate:"gte=1"`
	MaxInFlight           int     `validate:"gte=1"`

	CopyAPIKey string
	CopyAPIURL string

	UseSecrets          bool
	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string
}

// secretReader is the Secrets Manager surface used by LoadConfig.
type secretReader interface {
	GetSecretJSON(ctx context.Context, name string, out interface{}) error
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override of the database credentials.
func LoadConfig(ctx context.Context) (*Config, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.UseSecrets {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config for secrets: %w", err)
		}
		if err := applySecretOverrides(ctx, cfg, aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFromEnv() (*Config, error) {
	defaults := services.DefaultEngineConfig()
	cfg := &Config{
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		KafkaBrokers:          splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaGroupID:          getEnv("KAFKA_GROUP_ID", "promotion-agent"),
		TransactionsTopic:     getEnv("KAFKA_TRANSACTIONS_TOPIC", "ecommerce-transactions"),
		ProductViewsTopic:     getEnv("KAFKA_PRODUCT_VIEWS_TOPIC", "product-views"),
		ExposureTopic:         getEnv("KAFKA_PROMOTION_EXPOSURE_TOPIC", "actions.promotion_exposure"),
		ExplanationsTopic:     getEnv("KAFKA_EXPLANATIONS_TOPIC", "actions.explanations"),
		ReviewQueueTopic:      getEnv("KAFKA_REVIEW_QUEUE_TOPIC", "actions.review_queue"),
		IngestSource:          strings.ToLower(getEnv("INGEST_SOURCE", IngestKafka)),
		ProductEventsQueueURL: os.Getenv("PRODUCT_EVENTS_QUEUE_URL"),
		PromotionSNSTopicARN:  os.Getenv("PROMOTION_SNS_TOPIC_ARN"),
		RedisURL:              os.Getenv("REDIS_URL"),
		DecisionStore:         strings.ToLower(getEnv("DECISION_STORE", StorePostgres)),
		DecisionDynamoTable:   getEnv("DECISION_DYNAMODB_TABLE", "promotion_decisions"),
		CopyAPIKey:            os.Getenv("PROMO_COPY_API_KEY"),
		CopyAPIURL:            os.Getenv("PROMO_COPY_API_URL"),
		UseSecrets:            os.Getenv("AWS_USE_SECRETS") == "true",
		CloudWatchEnabled:     os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchNamespace:   getEnv("CLOUDWATCH_NAMESPACE", "PromotionAgent"),
		CloudWatchLogGroup:    getEnv("CLOUDWATCH_LOG_GROUP", "/streamiq/services"),
	}

	var err error
	if cfg.PartnerCacheTTL, err = getEnvDuration("PARTNER_CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.ExpectedReach, err = getEnvFloat("BUSINESS_EXPECTED_REACH", defaults.ExpectedReach); err != nil {
		return nil, err
	}
	if cfg.MaxDiscountPct, err = getEnvFloat("BUSINESS_MAX_DISCOUNT_PCT", defaults.MaxDiscountPct); err != nil {
		return nil, err
	}
	if cfg.ManualReviewThreshold, err = getEnvFloat("BUSINESS_MANUAL_REVIEW_THRESHOLD", defaults.ManualReviewThreshold); err != nil {
		return nil, err
	}
	if cfg.UnitMarginPct, err = getEnvFloat("BUSINESS_UNIT_MARGIN_PCT", defaults.UnitMarginPct); err != nil {
		return nil, err
	}
	if cfg.PartnerLimit, err = getEnvInt("PARTNER_LIMIT", defaults.PartnerLimit); err != nil {
		return nil, err
	}
	if cfg.MaxInFlight, err = getEnvInt("MAX_IN_FLIGHT", 64); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySecretOverrides replaces the database credentials with the values
// stored in Secrets Manager. Missing keys keep their environment values.
func applySecretOverrides(ctx context.Context, cfg *Config, secrets secretReader) error {
	var m map[string]string
	if err := secrets.GetSecretJSON(ctx, dbCredentialsSecret, &m); err != nil {
		return fmt.Errorf("read %s: %w", dbCredentialsSecret, err)
	}
	override := func(key string, dst *string) {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
	override("POSTGRES_USER", &cfg.Postgres.User)
	override("POSTGRES_PASSWORD", &cfg.Postgres.Password)
	override("POSTGRES_DB", &cfg.Postgres.DBName)
	override("POSTGRES_HOST", &cfg.Postgres.Host)
	override("POSTGRES_PORT", &cfg.Postgres.Port)
	return nil
}

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Engine returns the business parameters of the decision engine.
func (c *Config) Engine() services.EngineConfig {
	return services.EngineConfig{
		ExpectedReach:         c.ExpectedReach,
		MaxDiscountPct:        c.MaxDiscountPct,
		ManualReviewThreshold: c.ManualReviewThreshold,
		UnitMarginPct:         c.UnitMarginPct,
		PartnerLimit:          c.PartnerLimit,
	}
}

// IngestTopics returns the Kafka topics the consumer reads.
func (c *Config) IngestTopics() []string {
	return []string{c.TransactionsTopic, c.ProductViewsTopic}
}

func (c *Config) ingestsFrom(source string) bool {
	return c.IngestSource == source || c.IngestSource == IngestBoth
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
