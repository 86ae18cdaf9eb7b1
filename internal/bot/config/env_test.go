package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseEnv(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := parseEnv(&c, lookupMap(map[string]string{
		"SHIFTKEEPER_TRANSPORT":         "telegram",
		"SHIFTKEEPER_TELEGRAM_TOKEN":    "tok",
		"SHIFTKEEPER_STORE_DRIVER":      "postgres",
		"SHIFTKEEPER_DATABASE_DSN":      "postgres://bot@db/shifts",
		"SHIFTKEEPER_SESSION_TTL":       "45m",
		"SHIFTKEEPER_AUTO_APPROVE":      "false",
		"SHIFTKEEPER_S3_USE_PATH_STYLE": "1",
		"SHIFTKEEPER_REMINDER_CRON":     "",
		"UNRELATED":                     "x",
	}))
	require.NoError(t, err)

	assert.Equal(t, TransportTelegram, c.Transport)
	assert.Equal(t, "tok", c.TelegramToken)
	assert.Equal(t, StorePostgres, c.StoreDriver)
	assert.Equal(t, "postgres://bot@db/shifts", c.DatabaseDSN)
	assert.Equal(t, 45*time.Minute, c.SessionTTL)
	assert.False(t, c.AutoApprove)
	assert.True(t, c.S3UsePathStyle)
	assert.Equal(t, "", c.ReminderCron, "set but empty disables")
	assert.Equal(t, "ledger", c.AMQPExchange)
}

func TestParseEnv_Errors(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := parseEnv(&c, lookupMap(map[string]string{
		"SHIFTKEEPER_SESSION_TTL":  "forever",
		"SHIFTKEEPER_AUTO_APPROVE": "maybe",
	}))
	assert.ErrorContains(t, err, "SHIFTKEEPER_SESSION_TTL")
	assert.ErrorContains(t, err, "SHIFTKEEPER_AUTO_APPROVE")
	assert.Equal(t, 30*time.Minute, c.SessionTTL)
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "absent")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHIFTKEEPER_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("SHIFTKEEPER_TEST_DOTENV", "")
	os.Unsetenv("SHIFTKEEPER_TEST_DOTENV")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("SHIFTKEEPER_TEST_DOTENV"))
}
