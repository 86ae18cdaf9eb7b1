package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/metrics"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/analytics"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/ledger"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/transport"
	"github.com/dmitrijs2005/shiftkeeper/internal/common"
	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
)

// Directory is the driver registry the engine consults and updates.
type Directory interface {
	Lookup(uid string) (*models.Driver, error)
	Register(ctx context.Context, d models.Driver) error
	UpdateStatus(ctx context.Context, uid string, status models.Status) error
	List() []models.Driver
}

// Archiver copies a transport photo to durable storage and returns the
// reference to record in the ledger.
type Archiver interface {
	Archive(ctx context.Context, uid, fileRef string, at time.Time) (string, error)
}

// Publisher announces appended ledger entries.
type Publisher interface {
	Publish(ctx context.Context, e *models.LedgerEntry) error
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the timezone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

func WithArchiver(a Archiver) Option {
	return func(e *Engine) { e.archiver = a }
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithAutoApprove makes new registrations Approved instead of Pending.
func WithAutoApprove(v bool) Option {
	return func(e *Engine) { e.autoApprove = v }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.ttl = ttl }
}

type Engine struct {
	directory Directory
	ledger    ledger.Repository
	analytics analytics.Repository
	sender    transport.Sender
	logger    logging.Logger

	archiver    Archiver
	publisher   Publisher
	autoApprove bool
	ttl         time.Duration
	now         func() time.Time
	loc         *time.Location

	sessions *Sessions
	locks    *keyedMutex
}

func New(dir Directory, led ledger.Repository, an analytics.Repository, sender transport.Sender, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		directory: dir,
		ledger:    led,
		analytics: an,
		sender:    sender,
		logger:    logger,
		ttl:       30 * time.Minute,
		now:       time.Now,
		loc:       time.Local,
		sessions:  NewSessions(),
		locks:     newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sessions exposes the in-flight dialogs.
func (e *Engine) Sessions() *Sessions { return e.sessions }

// Handle processes one event and sends exactly one reply to its sender.
// Events of the same uid are serialised.
func (e *Engine) Handle(ctx context.Context, ev transport.Event) {
	unlock := e.locks.Lock(ev.UID)
	defer unlock()

	// Lookup fails only with ErrorNotFound; a nil caller is an unknown user.
	caller, _ := e.directory.Lookup(ev.UID)
	now := e.now().In(e.loc).Truncate(time.Second)

	cur := e.sessions.Get(ev.UID)
	next, step := Transition(cur, ev, caller)

	if c := step.Commit; c.Kind != CommitNone {
		var ok bool
		step, ok = e.execute(ctx, ev.UID, caller, &c, now)
		if !ok {
			next = cur
			if c.Archived != "" {
				next.Photo, next.Archived = c.Photo, c.Archived
			}
		}
	}

	if next.Stage != Idle {
		next.Touched = now
	}
	e.sessions.Put(ev.UID, next)

	e.logger.Debug(ctx, "event handled",
		"uid", ev.UID, "kind", ev.Kind.String(), "from", cur.Stage.String(), "to", next.Stage.String())
	e.send(ctx, ev.UID, step.Reply, step.Keyboard)
}

// execute runs c and builds the reply. ok is false when nothing was
// persisted and the session must stay where it was. c.Archived is set once
// the photo has been archived.
func (e *Engine) execute(ctx context.Context, uid string, caller *models.Driver, c *Commit, now time.Time) (Step, bool) {
	switch c.Kind {
	case CommitRegistration:
		return e.register(ctx, uid, *c)
	case CommitStart, CommitEnd:
		return e.shift(ctx, uid, c, now)
	case CommitFuel:
		return e.fuel(ctx, uid, c, now)
	case CommitToday:
		return e.today(ctx, uid, now)
	case CommitApprove, CommitReject:
		return e.setStatus(ctx, caller, *c)
	}
	return reply(msgMenu), true
}

func (e *Engine) register(ctx context.Context, uid string, c Commit) (Step, bool) {
	d := models.Driver{
		UID:     uid,
		Name:    c.Name,
		Vehicle: c.Vehicle,
		Role:    models.RoleDriver,
		Status:  models.StatusPending,
	}
	if e.autoApprove {
		d.Status = models.StatusApproved
	}

	err := e.directory.Register(ctx, d)
	switch {
	case errors.Is(err, common.ErrDuplicate):
		return reply(msgAlreadyReg), true
	case err != nil:
		e.logger.Error(ctx, "register failed", "uid", uid, "error", err)
		return reply(msgNotSaved), false
	}

	if d.Approved() {
		return reply(msgRegistered+" "+msgMenu, MenuKeyboard...), true
	}
	e.notifyApprovers(ctx, d)
	return reply(msgRegPending), true
}

func (e *Engine) notifyApprovers(ctx context.Context, d models.Driver) {
	text := fmt.Sprintf(msgNewDriver, d.Name, d.Vehicle, d.UID, d.UID, d.UID)
	for _, u := range e.directory.List() {
		if u.Approved() && u.Role.CanApprove() {
			e.send(ctx, u.UID, text, nil)
		}
	}
}

func (e *Engine) shift(ctx context.Context, uid string, c *Commit, now time.Time) (Step, bool) {
	odo := c.Odometer
	entry := &models.LedgerEntry{
		Date:     now.Format(models.DateLayout),
		UID:      uid,
		Time:     now,
		Odometer: &odo,
	}

	var km float64
	if c.Kind == CommitStart {
		lastEnd, err := e.ledger.MostRecent(ctx, uid, models.EntryEnd)
		if err != nil {
			return e.notSaved(ctx, uid, err)
		}
		km = metrics.PersonalKm(odo, lastEnd)
		entry.Type = models.EntryStart
		entry.PersonalKm = &km
	} else {
		lastStart, err := e.ledger.MostRecent(ctx, uid, models.EntryStart)
		if err != nil {
			return e.notSaved(ctx, uid, err)
		}
		km = metrics.DeltaKm(odo, lastStart)
		entry.Type = models.EntryEnd
		entry.DeltaKm = &km
	}

	photo, err := e.archive(ctx, uid, c, now)
	if err != nil {
		return e.notSaved(ctx, uid, err)
	}
	entry.Photo = photo

	if err := e.ledger.Append(ctx, entry); err != nil {
		return e.notSaved(ctx, uid, err)
	}
	e.publish(ctx, entry)

	if entry.Type == models.EntryStart {
		return reply(fmt.Sprintf(msgStartSaved, odo, formatKm(km)), MenuKeyboard...), true
	}
	return reply(fmt.Sprintf(msgEndSaved, odo, formatKm(km)), MenuKeyboard...), true
}

func (e *Engine) fuel(ctx context.Context, uid string, c *Commit, now time.Time) (Step, bool) {
	photo, err := e.archive(ctx, uid, c, now)
	if err != nil {
		return e.notSaved(ctx, uid, err)
	}

	cost, liters := c.Cost, c.Liters
	entry := &models.LedgerEntry{
		Date:   now.Format(models.DateLayout),
		UID:    uid,
		Type:   models.EntryFuel,
		Time:   now,
		Photo:  photo,
		Cost:   &cost,
		Liters: &liters,
	}
	if err := e.ledger.Append(ctx, entry); err != nil {
		return e.notSaved(ctx, uid, err)
	}
	e.publish(ctx, entry)

	// The entry is committed from here on; a failing rollup only changes
	// the wording of the reply.
	total, err := e.rollup(ctx, uid, entry.Date)
	if err != nil {
		e.logger.Error(ctx, "daily total failed", "uid", uid, "date", entry.Date, "error", err)
		return reply(fmt.Sprintf(msgFuelNoTotal, formatMoney(cost), formatKm(liters)), MenuKeyboard...), true
	}
	return reply(fmt.Sprintf(msgFuelSaved, formatMoney(cost), formatKm(liters), formatMoney(total)), MenuKeyboard...), true
}

func (e *Engine) rollup(ctx context.Context, uid, date string) (float64, error) {
	entries, err := e.ledger.Entries(ctx)
	if err != nil {
		return 0, err
	}
	total := metrics.DailyFuelTotal(entries, uid, date)
	if err := e.analytics.Upsert(ctx, models.DailyCost{Date: date, UID: uid, Total: total}); err != nil {
		return 0, err
	}
	return total, nil
}

func (e *Engine) today(ctx context.Context, uid string, now time.Time) (Step, bool) {
	entries, err := e.ledger.Entries(ctx)
	if err != nil {
		e.logger.Error(ctx, "ledger scan failed", "uid", uid, "error", err)
		return reply(msgUnavailable), false
	}
	total := metrics.DailyFuelTotal(entries, uid, now.Format(models.DateLayout))
	return reply(fmt.Sprintf(msgToday, formatMoney(total)), MenuKeyboard...), true
}

func (e *Engine) setStatus(ctx context.Context, caller *models.Driver, c Commit) (Step, bool) {
	status, notice, keyboard := models.StatusApproved, msgYouApproved, MenuKeyboard
	if c.Kind == CommitReject {
		status, notice, keyboard = models.StatusRejected, msgYouRejected, nil
	}

	err := e.directory.UpdateStatus(ctx, c.Target, status)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return reply(fmt.Sprintf(msgNoDriver, c.Target)), true
	case err != nil:
		e.logger.Error(ctx, "status update failed", "uid", caller.UID, "target", c.Target, "error", err)
		return reply(msgUnavailable), false
	}

	e.send(ctx, c.Target, notice, keyboard)
	return reply(fmt.Sprintf(msgStatusSet, c.Target, status)), true
}

// archive returns the reference to record for c.Photo. A photo already
// archived by an earlier failed attempt is not uploaded again.
func (e *Engine) archive(ctx context.Context, uid string, c *Commit, at time.Time) (string, error) {
	if e.archiver == nil {
		return c.Photo, nil
	}
	if c.Archived != "" {
		return c.Archived, nil
	}
	key, err := e.archiver.Archive(ctx, uid, c.Photo, at)
	if err != nil {
		return "", fmt.Errorf("%w: archive photo: %w", common.ErrStoreUnavailable, err)
	}
	c.Archived = key
	return key, nil
}

func (e *Engine) publish(ctx context.Context, entry *models.LedgerEntry) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, entry); err != nil {
		e.logger.Warn(ctx, "publish failed", "uid", entry.UID, "type", string(entry.Type), "error", err)
	}
}

func (e *Engine) notSaved(ctx context.Context, uid string, err error) (Step, bool) {
	e.logger.Error(ctx, "commit failed", "uid", uid, "error", err)
	return reply(msgNotSaved), false
}

func (e *Engine) send(ctx context.Context, uid, text string, keyboard []string) {
	if err := e.sender.Send(ctx, uid, text, keyboard); err != nil {
		e.logger.Error(ctx, "send failed", "uid", uid, "error", err)
	}
}

// Sweep discards sessions idle for longer than the session TTL and tells
// their users. Each drop happens under the user's lock, so a session that
// an in-flight event touches again survives.
func (e *Engine) Sweep(ctx context.Context) {
	for _, uid := range e.sessions.Expired(e.now(), e.ttl) {
		e.sweepOne(ctx, uid)
	}
}

func (e *Engine) sweepOne(ctx context.Context, uid string) {
	unlock := e.locks.Lock(uid)
	defer unlock()

	if !e.sessions.DropExpired(uid, e.now(), e.ttl) {
		return
	}
	e.logger.Info(ctx, "session expired", "uid", uid)
	e.send(ctx, uid, msgSessionSwept, nil)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	runTicker(ctx, interval, func(time.Time) { e.Sweep(ctx) })
}

// Remind sends the open-shift reminder to uid.
func (e *Engine) Remind(ctx context.Context, uid string) {
	e.send(ctx, uid, msgReminder, nil)
}

func formatKm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
