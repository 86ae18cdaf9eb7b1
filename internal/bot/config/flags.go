package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/shiftkeeper/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-t string    transport: telegram or console
//	-k string    telegram bot token
//	-u string    console user id
//	-s string    store driver: memory, postgres or sqlite
//	-d string    store DSN
//	-z string    timezone
//	-w duration  session idle TTL
//	-r string    reminder cron spec ("" disables)
//	-a bool      auto-approve registrations (use -a=false to disable)
//	-b string    S3 bucket for the photo archive
//	-e string    S3 base endpoint
//	-g string    S3 region
//	-q string    AMQP URL for ledger events
//	-l string    log level
//
// Only these flags are read from args; the rest are left for other layers.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-t", "-k", "-u", "-s", "-d", "-z", "-w", "-r", "-a", "-b", "-e", "-g", "-q", "-l",
	})

	fs := flag.NewFlagSet("bot", flag.ContinueOnError)

	fs.StringVar(&config.Transport, "t", config.Transport, "transport: telegram or console")
	fs.StringVar(&config.TelegramToken, "k", config.TelegramToken, "telegram bot token")
	fs.StringVar(&config.ConsoleUID, "u", config.ConsoleUID, "console user id")
	fs.StringVar(&config.StoreDriver, "s", config.StoreDriver, "store driver: memory, postgres or sqlite")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "store DSN")
	fs.StringVar(&config.Timezone, "z", config.Timezone, "timezone")
	fs.DurationVar(&config.SessionTTL, "w", config.SessionTTL, "session idle TTL")
	fs.StringVar(&config.ReminderCron, "r", config.ReminderCron, "reminder cron spec")
	fs.BoolVar(&config.AutoApprove, "a", config.AutoApprove, "auto-approve registrations")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.AMQPURL, "q", config.AMQPURL, "AMQP URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: flags: %w", err)
	}
	return nil
}
