// Package bot wires configuration, storage, the chat transport and the
// workflow engine into a runnable application with graceful shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/config"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/events"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/photos"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/reminder"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/analytics"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/directory"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/ledger"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/sheets"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/transport"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/workflow"
	"github.com/dmitrijs2005/shiftkeeper/internal/filex"
	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
)

// Console I/O, replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	transport transport.Transport
	engine    *workflow.Engine
	reminder  *reminder.Reminder
	closers   []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	// The console transport owns stdout.
	logOut := stdout
	if cfg.Transport == config.TransportConsole {
		logOut = stderr
	}
	logger := logging.New(logOut, cfg.LogLevel)

	app := &App{config: cfg, logger: logger}
	if err := app.init(ctx); err != nil {
		_ = app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	cfg := app.config

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := app.openStore(ctx)
	if err != nil {
		return fmt.Errorf("store init error: %w", err)
	}

	dir, err := directory.Open(ctx, store, cfg.DirectorySheet, app.logger)
	if err != nil {
		return fmt.Errorf("directory init error: %w", err)
	}
	led, err := ledger.Open(ctx, store, cfg.LedgerSheet, app.logger)
	if err != nil {
		return fmt.Errorf("ledger init error: %w", err)
	}
	an, err := analytics.Open(ctx, store, cfg.AnalyticsSheet)
	if err != nil {
		return fmt.Errorf("analytics init error: %w", err)
	}

	app.transport, err = app.newTransport()
	if err != nil {
		return err
	}

	opts := []workflow.Option{
		workflow.WithLocation(loc),
		workflow.WithAutoApprove(cfg.AutoApprove),
		workflow.WithSessionTTL(cfg.SessionTTL),
	}

	if cfg.S3Bucket != "" {
		archive, err := photos.NewS3Archive(ctx, photos.Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		}, app.transport, app.logger)
		if err != nil {
			return fmt.Errorf("photo archive init error: %w", err)
		}
		opts = append(opts, workflow.WithArchiver(archive))
	}

	if cfg.AMQPURL != "" {
		pub := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, app.logger)
		if err := pub.Connect(); err != nil {
			// Publishing is best effort; the next publish redials.
			app.logger.Warn(ctx, "amqp unavailable at startup", "error", err)
		}
		app.closers = append(app.closers, pub.Close)
		opts = append(opts, workflow.WithPublisher(pub))
	}

	app.engine = workflow.New(dir, led, an, app.transport, app.logger.With("module", "workflow"), opts...)

	if cfg.ReminderCron != "" {
		app.reminder, err = reminder.New(cfg.ReminderCron, loc, dir, led, app.engine, app.logger)
		if err != nil {
			return err
		}
	}
	return nil
}

func (app *App) openStore(ctx context.Context) (sheets.Store, error) {
	switch app.config.StoreDriver {
	case config.StoreMemory:
		return sheets.NewMemoryStore(), nil
	case config.StorePostgres:
		s, err := sheets.OpenPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, s.Close)
		return s, nil
	case config.StoreSQLite:
		if path := filex.SQLitePath(app.config.DatabaseDSN); path != "" {
			if err := filex.EnsureParentDir(path); err != nil {
				return nil, err
			}
		}
		s, err := sheets.OpenSQLite(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, s.Close)
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", app.config.StoreDriver)
}

func (app *App) newTransport() (transport.Transport, error) {
	switch app.config.Transport {
	case config.TransportTelegram:
		tg, err := transport.NewTelegram(app.config.TelegramToken, app.config.TelegramPollTimeout, app.logger.With("module", "telegram"))
		if err != nil {
			return nil, fmt.Errorf("transport init error: %w", err)
		}
		return tg, nil
	case config.TransportConsole:
		return transport.NewConsole(stdin, stdout, app.config.ConsoleUID), nil
	}
	return nil, fmt.Errorf("unknown transport %q", app.config.Transport)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves the transport until it stops or a signal arrives, then stops
// the background jobs and releases the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting bot...", "transport", app.config.Transport, "store", app.config.StoreDriver)
	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.engine.RunSweeper(ctx, app.config.SweepInterval)
	}()

	if app.reminder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.reminder.Start(ctx)
		}()
	}

	err := app.transport.Run(ctx, app.engine)
	if err != nil {
		app.logger.Error(ctx, "transport stopped", "error", err)
	}

	cancelFunc()
	wg.Wait()

	app.logger.Info(ctx, "Bot stopped")
	return errors.Join(err, app.close())
}

func (app *App) close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i]())
	}
	app.closers = nil
	return errors.Join(errs...)
}
