package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
)

// envFile is loaded into the process environment when present. Variables
// already set are not overridden.
var envFile = ".env"

const envPrefix = "SHIFTKEEPER_"

func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("config: load %s: %w", path, err)
}

// parseEnv overlays SHIFTKEEPER_* variables found by lookup.
func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("TRANSPORT", &c.Transport)
	str("TELEGRAM_TOKEN", &c.TelegramToken)
	str("CONSOLE_UID", &c.ConsoleUID)
	str("STORE_DRIVER", &c.StoreDriver)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("DIRECTORY_SHEET", &c.DirectorySheet)
	str("LEDGER_SHEET", &c.LedgerSheet)
	str("ANALYTICS_SHEET", &c.AnalyticsSheet)
	str("TIMEZONE", &c.Timezone)
	duration("SESSION_TTL", &c.SessionTTL)
	duration("SWEEP_INTERVAL", &c.SweepInterval)
	str("REMINDER_CRON", &c.ReminderCron)
	boolean("AUTO_APPROVE", &c.AutoApprove)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_BASE_ENDPOINT", &c.S3BaseEndpoint)
	str("S3_ACCESS_KEY", &c.S3AccessKey)
	str("S3_SECRET_KEY", &c.S3SecretKey)
	boolean("S3_USE_PATH_STYLE", &c.S3UsePathStyle)
	str("AMQP_URL", &c.AMQPURL)
	str("AMQP_EXCHANGE", &c.AMQPExchange)
	str("LOG_LEVEL", &c.LogLevel)

	return errors.Join(errs...)
}
