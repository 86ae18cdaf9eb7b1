package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/metrics"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/transport"
	"github.com/dmitrijs2005/shiftkeeper/internal/common"
)

type CommitKind int

const (
	CommitNone CommitKind = iota
	CommitRegistration
	CommitStart
	CommitFuel
	CommitEnd
	CommitToday
	CommitApprove
	CommitReject
)

// Commit is a side effect the engine must execute before replying. Only the
// fields relevant to Kind are set.
type Commit struct {
	Kind     CommitKind
	Name     string
	Vehicle  string
	Odometer int64
	Photo    string
	Archived string
	Cost     float64
	Liters   float64
	Target   string
}

// Step is the outcome of a transition: either a reply to send as is, or a
// commit whose result decides the reply.
type Step struct {
	Reply    string
	Keyboard []string
	Commit   Commit
}

func reply(text string, keyboard ...string) Step {
	return Step{Reply: text, Keyboard: keyboard}
}

func commit(c Commit) Step {
	return Step{Commit: c}
}

// Transition computes the next session for ev. caller is the sender's
// directory record, nil when unknown. When the step carries a commit, the
// returned session applies only if the commit succeeds; on failure the
// caller keeps cur.
func Transition(cur Session, ev transport.Event, caller *models.Driver) (Session, Step) {
	if ev.Kind == transport.KindCommand {
		return command(cur, ev, caller)
	}

	// A dialog outside registration requires an approved caller at every
	// step, so a rejection mid-dialog ends it.
	if cur.Stage != Idle && !cur.Stage.registration() && access(caller) != nil {
		return Session{}, denied(caller)
	}

	switch cur.Stage {
	case Idle:
		if caller == nil {
			return Session{Stage: AwaitName}, reply(msgAskName)
		}
		if access(caller) != nil {
			return Session{}, denied(caller)
		}
		return Session{}, reply(msgMenu, MenuKeyboard...)

	case AwaitName:
		text, ok := nonEmptyText(ev)
		if !ok {
			return cur, reply(msgAskName)
		}
		next := cur
		next.Stage = AwaitVehicle
		next.Name = text
		return next, reply(msgAskVehicle)

	case AwaitVehicle:
		text, ok := nonEmptyText(ev)
		if !ok {
			return cur, reply(msgAskVehicle)
		}
		return Session{}, commit(Commit{Kind: CommitRegistration, Name: cur.Name, Vehicle: text})

	case AwaitStartOdometer, AwaitEndOdometer:
		if ev.Kind != transport.KindText {
			return cur, reply(msgNeedText)
		}
		odo, err := metrics.ParseOdometer(ev.Text)
		if err != nil {
			return cur, reply(msgBadOdometer)
		}
		next := cur
		next.Odometer = odo
		if cur.Stage == AwaitStartOdometer {
			next.Stage = AwaitStartPhoto
			return next, reply(msgAskStartPhoto)
		}
		next.Stage = AwaitEndPhoto
		return next, reply(msgAskEndPhoto)

	case AwaitStartPhoto, AwaitEndPhoto:
		if ev.Kind != transport.KindPhoto || ev.FileRef == "" {
			return cur, reply(msgNeedPhoto)
		}
		kind := CommitStart
		if cur.Stage == AwaitEndPhoto {
			kind = CommitEnd
		}
		return Session{}, commit(Commit{
			Kind:     kind,
			Odometer: cur.Odometer,
			Photo:    ev.FileRef,
			Archived: archivedFor(cur, ev.FileRef),
		})

	case AwaitReceiptPhoto:
		if ev.Kind != transport.KindPhoto || ev.FileRef == "" {
			return cur, reply(msgNeedPhoto)
		}
		next := cur
		next.Stage = AwaitCost
		next.Photo = ev.FileRef
		return next, reply(msgAskCost)

	case AwaitCost:
		v, ok := number(ev)
		if !ok {
			return cur, reply(msgBadNumber)
		}
		next := cur
		next.Stage = AwaitLiters
		next.Cost = v
		return next, reply(msgAskLiters)

	case AwaitLiters:
		v, ok := number(ev)
		if !ok {
			return cur, reply(msgBadNumber)
		}
		return Session{}, commit(Commit{
			Kind:     CommitFuel,
			Photo:    cur.Photo,
			Archived: archivedFor(cur, cur.Photo),
			Cost:     cur.Cost,
			Liters:   v,
		})
	}

	return Session{}, reply(msgMenu)
}

// archivedFor returns the archived reference kept for fileRef, if any.
func archivedFor(cur Session, fileRef string) string {
	if cur.Photo != fileRef {
		return ""
	}
	return cur.Archived
}

func command(cur Session, ev transport.Event, caller *models.Driver) (Session, Step) {
	switch ev.Command {
	case CmdStart:
		if caller == nil {
			return Session{Stage: AwaitName}, reply(msgAskName)
		}
		if access(caller) != nil {
			return Session{}, denied(caller)
		}
		return Session{}, reply(msgAlreadyReg+" "+msgMenu, MenuKeyboard...)

	case CmdShiftStart, CmdFuel, CmdShiftEnd:
		if access(caller) != nil {
			return Session{}, denied(caller)
		}
		switch ev.Command {
		case CmdShiftStart:
			return Session{Stage: AwaitStartOdometer}, reply(msgAskStartOdometer)
		case CmdFuel:
			return Session{Stage: AwaitReceiptPhoto}, reply(msgAskReceiptPhoto)
		default:
			return Session{Stage: AwaitEndOdometer}, reply(msgAskEndOdometer)
		}

	case CmdToday:
		if access(caller) != nil {
			return cur, denied(caller)
		}
		return cur, commit(Commit{Kind: CommitToday})

	case CmdApprove, CmdReject:
		if approverAccess(caller) != nil {
			return cur, reply(msgForbidden)
		}
		if len(ev.Args) != 1 {
			return cur, reply(usage(ev.Command))
		}
		kind := CommitApprove
		if ev.Command == CmdReject {
			kind = CommitReject
		}
		return cur, commit(Commit{Kind: kind, Target: ev.Args[0]})

	case CmdCancel:
		if cur.Stage == Idle {
			return cur, reply(msgNoCancel, menuFor(caller)...)
		}
		return Session{}, reply(msgCancelled, menuFor(caller)...)

	case CmdHelp, CmdMenu:
		canApprove := approverAccess(caller) == nil
		return cur, reply(helpText(canApprove), menuFor(caller)...)
	}

	return cur, reply(msgUnknownCmd)
}

// access is nil for an approved driver. Otherwise it is ErrNotRegistered
// for an unknown uid or ErrNotApproved for a pending or rejected one.
func access(caller *models.Driver) error {
	switch {
	case caller == nil:
		return common.ErrNotRegistered
	case !caller.Approved():
		return fmt.Errorf("%w: status %s", common.ErrNotApproved, caller.Status)
	}
	return nil
}

// approverAccess also requires a role that may approve and reject drivers.
func approverAccess(caller *models.Driver) error {
	if err := access(caller); err != nil {
		return fmt.Errorf("%w: %w", common.ErrForbidden, err)
	}
	if !caller.Role.CanApprove() {
		return fmt.Errorf("%w: role %s", common.ErrForbidden, caller.Role)
	}
	return nil
}

// denied explains why a caller without an approved record cannot proceed.
func denied(caller *models.Driver) Step {
	switch {
	case errors.Is(access(caller), common.ErrNotRegistered):
		return reply(msgRegisterHint)
	case caller.Status == models.StatusRejected:
		return reply(msgRejected)
	default:
		return reply(msgPending)
	}
}

func menuFor(caller *models.Driver) []string {
	if caller.Approved() {
		return MenuKeyboard
	}
	return nil
}

func nonEmptyText(ev transport.Event) (string, bool) {
	if ev.Kind != transport.KindText {
		return "", false
	}
	text := strings.TrimSpace(ev.Text)
	return text, text != ""
}

func number(ev transport.Event) (float64, bool) {
	if ev.Kind != transport.KindText {
		return 0, false
	}
	v, err := metrics.ParseNumber(ev.Text)
	return v, err == nil
}
