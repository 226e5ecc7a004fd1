package configs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormLogger "gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PAYMENT_MODE", "")
	t.Setenv("PAYMENT_DEFAULT_GATEWAY", "")
	t.Setenv("GATEWAY_TIMEOUT", "")
	t.Setenv("PAYMENT_POLL_INTERVAL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("PAYMONGO_SECRET_KEY_TEST", "sk_test_x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Payment.Mode)
	assert.Equal(t, "demo", cfg.Payment.DefaultGateway)
	assert.Equal(t, 15*time.Second, cfg.Payment.GatewayTimeout)
	assert.Zero(t, cfg.Payment.PollInterval)
	assert.Equal(t, "sk_test_x", cfg.Payment.PayMongoSecretKey)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadLiveKeysAndDurations(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PAYMENT_MODE", "LIVE")
	t.Setenv("PAYMONGO_SECRET_KEY_TEST", "sk_test_x")
	t.Setenv("PAYMONGO_SECRET_KEY_LIVE", "sk_live_y")
	t.Setenv("GATEWAY_TIMEOUT", "30")
	t.Setenv("PAYMENT_POLL_INTERVAL", "2m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "live", cfg.Payment.Mode)
	assert.Equal(t, "sk_live_y", cfg.Payment.PayMongoSecretKey)
	assert.Equal(t, 30*time.Second, cfg.Payment.GatewayTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Payment.PollInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing jwt secret": {"JWT_SECRET": ""},
		"bad mode":           {"JWT_SECRET": "x", "PAYMENT_MODE": "sandbox"},
		"bad timeout":        {"JWT_SECRET": "x", "GATEWAY_TIMEOUT": "soon"},
		"bad midtrans flag":  {"JWT_SECRET": "x", "MIDTRANS_USE_PROD": "maybe"},
		"bad redis db":       {"JWT_SECRET": "x", "REDIS_DB": "one"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("WW_TEST_KEY", "")
	assert.Equal(t, "fallback", GetEnv("WW_TEST_KEY", "fallback"))
	t.Setenv("WW_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnv("WW_TEST_KEY", "fallback"))
}

func TestNewLoggerLevels(t *testing.T) {
	l, err := NewLogger("production", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger("development", "loud")
	assert.Error(t, err)
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormLogger.Warn)

	sql := func() (string, int64) { return "SELECT 1", 1 }
	gl.Trace(context.Background(), time.Now(), sql, nil)
	assert.Zero(t, logs.Len(), "fast queries are below warn")

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	gl.Trace(context.Background(), time.Now(), sql, gormLogger.ErrRecordNotFound)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "slow query", logs.All()[0].Message)
	assert.Equal(t, "query failed", logs.All()[1].Message)
}
