// Package workflow drives the per-user dialogs: registration, shift start,
// refuel and shift end. Transition is a pure function from a session and an
// event to the next session and a Step; Engine executes the Step against
// the directory, ledger and analytics, and replies through the transport.
package workflow

import "time"

type Stage int

const (
	Idle Stage = iota
	AwaitName
	AwaitVehicle
	AwaitStartOdometer
	AwaitStartPhoto
	AwaitReceiptPhoto
	AwaitCost
	AwaitLiters
	AwaitEndOdometer
	AwaitEndPhoto
)

var stageNames = [...]string{
	Idle:               "idle",
	AwaitName:          "await_name",
	AwaitVehicle:       "await_vehicle",
	AwaitStartOdometer: "await_start_odometer",
	AwaitStartPhoto:    "await_start_photo",
	AwaitReceiptPhoto:  "await_receipt_photo",
	AwaitCost:          "await_cost",
	AwaitLiters:        "await_liters",
	AwaitEndOdometer:   "await_end_odometer",
	AwaitEndPhoto:      "await_end_photo",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// registration reports whether the stage belongs to the registration dialog,
// the only one open to users without an approved directory record.
func (s Stage) registration() bool {
	return s == AwaitName || s == AwaitVehicle
}

// Session is the transient state of one user's dialog. Fields are filled as
// the dialog advances and only read at commit.
type Session struct {
	Stage    Stage
	Name     string
	Odometer int64
	Photo    string
	// Archived is the durable reference of Photo once a failed commit has
	// already archived it.
	Archived string
	Cost     float64
	Touched  time.Time
}
