package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "8091", cfg.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"ecommerce-transactions", "product-views"}, cfg.IngestTopics())
	assert.Equal(t, "actions.promotion_exposure", cfg.ExposureTopic)
	assert.Equal(t, "actions.explanations", cfg.ExplanationsTopic)
	assert.Equal(t, "actions.review_queue", cfg.ReviewQueueTopic)
	assert.Equal(t, IngestKafka, cfg.IngestSource)
	assert.Equal(t, StorePostgres, cfg.DecisionStore)
	assert.Equal(t, 60*time.Second, cfg.PartnerCacheTTL)
	assert.Equal(t, 64, cfg.MaxInFlight)

	engine := cfg.Engine()
	assert.Equal(t, 100.0, engine.ExpectedReach)
	assert.Equal(t, 0.25, engine.MaxDiscountPct)
	assert.Equal(t, 50000.0, engine.ManualReviewThreshold)
	assert.Equal(t, 0.25, engine.UnitMarginPct)
	assert.Equal(t, 3, engine.PartnerLimit)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("BUSINESS_MAX_DISCOUNT_PCT", "0.15")
	t.Setenv("BUSINESS_MANUAL_REVIEW_THRESHOLD", "1000")
	t.Setenv("PARTNER_CACHE_TTL", "2m")
	t.Setenv("INGEST_SOURCE", "BOTH")
	t.Setenv("PRODUCT_EVENTS_QUEUE_URL", "http://localhost:4566/000000000000/product-events")

	cfg, err := LoadConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 0.15, cfg.Engine().MaxDiscountPct)
	assert.Equal(t, 1000.0, cfg.Engine().ManualReviewThreshold)
	assert.Equal(t, 2*time.Minute, cfg.PartnerCacheTTL)
	assert.True(t, cfg.ingestsFrom(IngestKafka))
	assert.True(t, cfg.ingestsFrom(IngestSQS))
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable reach", "BUSINESS_EXPECTED_REACH", "lots"},
		{"zero reach", "BUSINESS_EXPECTED_REACH", "0"},
		{"cap above one", "BUSINESS_MAX_DISCOUNT_PCT", "1.5"},
		{"negative margin", "BUSINESS_UNIT_MARGIN_PCT", "-0.1"},
		{"unknown ingest", "INGEST_SOURCE", "rabbitmq"},
		{"sqs without queue", "INGEST_SOURCE", "sqs"},
		{"unknown store", "DECISION_STORE", "mongo"},
		{"bad ttl", "PARTNER_CACHE_TTL", "soon"},
		{"zero in flight", "MAX_IN_FLIGHT", "0"},
		{"non numeric port", "PORT", "http"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig(context.Background())
			assert.Error(t, err)
		})
	}
}

type fakeSecrets struct {
	values map[string]string
	err    error
}

func (f *fakeSecrets) GetSecretJSON(_ context.Context, name string, out interface{}) error {
	if f.err != nil {
		return f.err
	}
	if name != dbCredentialsSecret {
		return errors.New("unexpected secret " + name)
	}
	b, _ := json.Marshal(f.values)
	return json.Unmarshal(b, out)
}

func TestApplySecretOverrides(t *testing.T) {
	cfg, err := loadConfigFromEnv()
	require.NoError(t, err)
	cfg.Postgres.User = "env-user"
	cfg.Postgres.Host = "env-host"

	err = applySecretOverrides(context.Background(), cfg, &fakeSecrets{values: map[string]string{
		"POSTGRES_USER":     "secret-user",
		"POSTGRES_PASSWORD": "secret-pass",
		"POSTGRES_HOST":     "",
	}})
	require.NoError(t, err)

	assert.Equal(t, "secret-user", cfg.Postgres.User)
	assert.Equal(t, "secret-pass", cfg.Postgres.Password)
	assert.Equal(t, "env-host", cfg.Postgres.Host)
}

func TestApplySecretOverrides_Error(t *testing.T) {
	cfg, err := loadConfigFromEnv()
	require.NoError(t, err)

	err = applySecretOverrides(context.Background(), cfg, &fakeSecrets{err: errors.New("access denied")})
	assert.ErrorContains(t, err, "access denied")
}
