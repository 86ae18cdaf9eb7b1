package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/drone/envsubst"

	"github.com/dmitrijs2005/shiftkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// both "30m" strings and integer nanoseconds. Keys missing from the file
// keep their current value.
type JsonConfig struct {
	Transport           string         `json:"transport"`
	TelegramToken       string         `json:"telegram_token"`
	TelegramPollTimeout int            `json:"telegram_poll_timeout"`
	ConsoleUID          string         `json:"console_uid"`
	StoreDriver         string         `json:"store_driver"`
	DatabaseDSN         string         `json:"database_dsn"`
	DirectorySheet      string         `json:"directory_sheet"`
	LedgerSheet         string         `json:"ledger_sheet"`
	AnalyticsSheet      string         `json:"analytics_sheet"`
	Timezone            string         `json:"timezone"`
	SessionTTL          timex.Duration `json:"session_ttl"`
	SweepInterval       timex.Duration `json:"sweep_interval"`
	ReminderCron        string         `json:"reminder_cron"`
	AutoApprove         bool           `json:"auto_approve"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
	S3UsePathStyle      bool           `json:"s3_use_path_style"`
	AMQPURL             string         `json:"amqp_url"`
	AMQPExchange        string         `json:"amqp_exchange"`
	LogLevel            string         `json:"log_level"`
}

func toJSON(c *Config) JsonConfig {
	return JsonConfig{
		Transport:           c.Transport,
		TelegramToken:       c.TelegramToken,
		TelegramPollTimeout: c.TelegramPollTimeout,
		ConsoleUID:          c.ConsoleUID,
		StoreDriver:         c.StoreDriver,
		DatabaseDSN:         c.DatabaseDSN,
		DirectorySheet:      c.DirectorySheet,
		LedgerSheet:         c.LedgerSheet,
		AnalyticsSheet:      c.AnalyticsSheet,
		Timezone:            c.Timezone,
		SessionTTL:          timex.Duration{Duration: c.SessionTTL},
		SweepInterval:       timex.Duration{Duration: c.SweepInterval},
		ReminderCron:        c.ReminderCron,
		AutoApprove:         c.AutoApprove,
		S3Bucket:            c.S3Bucket,
		S3Region:            c.S3Region,
		S3BaseEndpoint:      c.S3BaseEndpoint,
		S3AccessKey:         c.S3AccessKey,
		S3SecretKey:         c.S3SecretKey,
		S3UsePathStyle:      c.S3UsePathStyle,
		AMQPURL:             c.AMQPURL,
		AMQPExchange:        c.AMQPExchange,
		LogLevel:            c.LogLevel,
	}
}

func (j JsonConfig) apply(c *Config) {
	c.Transport = j.Transport
	c.TelegramToken = j.TelegramToken
	c.TelegramPollTimeout = j.TelegramPollTimeout
	c.ConsoleUID = j.ConsoleUID
	c.StoreDriver = j.StoreDriver
	c.DatabaseDSN = j.DatabaseDSN
	c.DirectorySheet = j.DirectorySheet
	c.LedgerSheet = j.LedgerSheet
	c.AnalyticsSheet = j.AnalyticsSheet
	c.Timezone = j.Timezone
	c.SessionTTL = j.SessionTTL.Duration
	c.SweepInterval = j.SweepInterval.Duration
	c.ReminderCron = j.ReminderCron
	c.AutoApprove = j.AutoApprove
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3AccessKey = j.S3AccessKey
	c.S3SecretKey = j.S3SecretKey
	c.S3UsePathStyle = j.S3UsePathStyle
	c.AMQPURL = j.AMQPURL
	c.AMQPExchange = j.AMQPExchange
	c.LogLevel = j.LogLevel
}

// parseJSON overlays the file at path onto config. ${VAR} references in the
// file are expanded from the environment first, so secrets can stay out of
// it. An empty path loads nothing.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded, err := envsubst.EvalEnv(string(raw))
	if err != nil {
		return fmt.Errorf("config: expand %s: %w", path, err)
	}

	j := toJSON(config)
	if err := json.Unmarshal([]byte(expanded), &j); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	j.apply(config)
	return nil
}
