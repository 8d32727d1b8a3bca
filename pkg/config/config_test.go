package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmapos-api/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "RCP", cfg.POS.ReceiptPrefix)
	assert.Equal(t, 3, cfg.POS.MaxTxRetries)
	assert.Equal(t, 5, cfg.POS.MaxNumberRetries)
	assert.Equal(t, 90, cfg.Alerts.ExpiryThresholdDays)
	assert.Equal(t, time.Hour, cfg.Alerts.ScanInterval)
	assert.Equal(t, "pos.sales", cfg.Kafka.Topic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 2, cfg.DB.MinConns)
	assert.Equal(t, 5*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, "farmapos", cfg.DB.ApplicationName)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("POS_RECEIPT_PREFIX", "FAR")
	t.Setenv("POS_MAX_NUMBER_RETRIES", "7")
	t.Setenv("ALERTS_SCAN_INTERVAL", "15m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("DB_LOCK_TIMEOUT", "750ms")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "FAR", cfg.POS.ReceiptPrefix)
	assert.Equal(t, 7, cfg.POS.MaxNumberRetries)
	assert.Equal(t, 15*time.Minute, cfg.Alerts.ScanInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 750*time.Millisecond, cfg.DB.LockTimeout)
}

func TestLoad_InvalidStorage(t *testing.T) {
	t.Setenv("STORAGE", "sqlite")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapesPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:word", DBName: "farmapos", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%3Aword@db:5432/farmapos?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
