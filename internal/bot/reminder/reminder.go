// Package reminder nudges drivers who left a shift open. It fires on a cron
// schedule, derives open shifts from the ledger and reminds every approved
// driver among them.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/metrics"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
)

const DefaultSpec = "0 20 * * *"

type Directory interface {
	Lookup(uid string) (*models.Driver, error)
}

type Ledger interface {
	Entries(ctx context.Context) ([]*models.LedgerEntry, error)
}

type Notifier interface {
	Remind(ctx context.Context, uid string)
}

type Reminder struct {
	schedule  cron.Schedule
	loc       *time.Location
	directory Directory
	ledger    Ledger
	notifier  Notifier
	logger    logging.Logger
}

// New parses spec as a standard five-field cron expression evaluated in loc.
func New(spec string, loc *time.Location, dir Directory, led Ledger, n Notifier, logger logging.Logger) (*Reminder, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("reminder schedule %q: %w", spec, err)
	}
	return &Reminder{
		schedule:  sched,
		loc:       loc,
		directory: dir,
		ledger:    led,
		notifier:  n,
		logger:    logger.With("module", "reminder"),
	}, nil
}

// Next returns the first firing strictly after t.
func (r *Reminder) Next(t time.Time) time.Time {
	return r.schedule.Next(t.In(r.loc))
}

// Start runs the schedule until ctx is done and waits for a running job.
func (r *Reminder) Start(ctx context.Context) {
	c := cron.New(cron.WithLocation(r.loc))
	c.Schedule(r.schedule, cron.FuncJob(func() {
		if _, err := r.Run(ctx); err != nil {
			r.logger.Error(ctx, "reminder run failed", "error", err)
		}
	}))
	c.Start()
	r.logger.Info(ctx, "reminder scheduled", "next", r.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	<-c.Stop().Done()
}

// Run sends one reminder per approved driver with an open shift and returns
// how many were sent.
func (r *Reminder) Run(ctx context.Context) (int, error) {
	entries, err := r.ledger.Entries(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan ledger: %w", err)
	}

	sent := 0
	for _, uid := range metrics.OpenShifts(entries) {
		d, err := r.directory.Lookup(uid)
		if err != nil || !d.Approved() {
			continue
		}
		r.notifier.Remind(ctx, uid)
		sent++
	}
	r.logger.Info(ctx, "reminders sent", "count", sent)
	return sent, nil
}
