// Package config assembles the bot's runtime settings from, in increasing
// precedence: built-in defaults, an optional JSON file (-c/-config), a .env
// file plus the process environment, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/dmitrijs2005/shiftkeeper/internal/flagx"
)

const (
	TransportTelegram = "telegram"
	TransportConsole  = "console"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds runtime settings for the bot.
//
// Fields:
//   - Transport: "telegram" or "console".
//   - TelegramToken / TelegramPollTimeout: bot API token and long-poll seconds.
//   - ConsoleUID: user id the console transport speaks as.
//   - StoreDriver / DatabaseDSN: worksheet backend and its DSN.
//   - DirectorySheet / LedgerSheet / AnalyticsSheet: worksheet names.
//   - Timezone: IANA zone that defines calendar days.
//   - SessionTTL / SweepInterval: idle dialog expiry and how often to check.
//   - ReminderCron: five-field cron spec; empty disables the reminder.
//   - AutoApprove: new registrations start Approved instead of Pending.
//   - S3*: photo archive; disabled while S3Bucket is empty.
//   - AMQPURL / AMQPExchange: ledger events; disabled while AMQPURL is empty.
type Config struct {
	Transport           string
	TelegramToken       string
	TelegramPollTimeout int
	ConsoleUID          string

	StoreDriver string
	DatabaseDSN string

	DirectorySheet string
	LedgerSheet    string
	AnalyticsSheet string

	Timezone      string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	ReminderCron  string
	AutoApprove   bool

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	AMQPURL      string
	AMQPExchange string

	LogLevel string
}

// LoadDefaults populates Config for a local console run on the memory store.
func (c *Config) LoadDefaults() {
	c.Transport = TransportConsole
	c.TelegramPollTimeout = 30
	c.ConsoleUID = "1"
	c.StoreDriver = StoreMemory
	c.DirectorySheet = "Directory"
	c.LedgerSheet = "Ledger"
	c.AnalyticsSheet = "Analytics"
	c.Timezone = "Europe/Moscow"
	c.SessionTTL = 30 * time.Minute
	c.SweepInterval = time.Minute
	c.ReminderCron = "0 20 * * *"
	c.AutoApprove = true
	c.S3Region = "us-east-1"
	c.AMQPExchange = "ledger"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from os.Args and the environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies every layer over args and validates the result.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, flagx.ConfigFileFrom(args)); err != nil {
		return nil, err
	}
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportTelegram:
		if c.TelegramToken == "" {
			return errors.New("config: telegram transport needs a token")
		}
	case TransportConsole:
		if c.ConsoleUID == "" {
			return errors.New("config: console transport needs a uid")
		}
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres, StoreSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("config: %s store needs a DSN", c.StoreDriver)
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.StoreDriver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if c.SessionTTL <= 0 || c.SweepInterval <= 0 {
		return errors.New("config: session ttl and sweep interval must be positive")
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
