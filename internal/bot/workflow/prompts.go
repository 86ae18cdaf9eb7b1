package workflow

import (
	"fmt"
	"strings"
)

// Command names as typed after the slash.
const (
	CmdStart      = "start"
	CmdShiftStart = "shift_start"
	CmdFuel       = "fuel"
	CmdShiftEnd   = "shift_end"
	CmdCancel     = "cancel"
	CmdHelp       = "help"
	CmdMenu       = "menu"
	CmdToday      = "today"
	CmdApprove    = "approve"
	CmdReject     = "reject"
)

// MenuKeyboard is shown to approved drivers whenever a dialog ends.
var MenuKeyboard = []string{"/" + CmdShiftStart, "/" + CmdFuel, "/" + CmdShiftEnd, "/" + CmdToday}

const (
	msgAskName          = "Welcome! Please send your full name."
	msgAskVehicle       = "Now send your vehicle number."
	msgAskStartOdometer = "Send the odometer reading at shift start."
	msgAskStartPhoto    = "Send a photo of the odometer."
	msgAskReceiptPhoto  = "Send a photo of the fuel receipt."
	msgAskCost          = "Send the total cost."
	msgAskLiters        = "Send the number of liters."
	msgAskEndOdometer   = "Send the odometer reading at shift end."
	msgAskEndPhoto      = "Send a photo of the odometer."

	msgNeedText     = "Please send text, not a photo."
	msgNeedPhoto    = "A photo is required. Please send a photo."
	msgBadOdometer  = "The odometer reading must be a whole non-negative number. Try again."
	msgBadNumber    = "Send a non-negative number, for example 2500.50 or 2500,50."
	msgNotSaved     = "Not saved: storage is unavailable. Please resend your last answer."
	msgUnavailable  = "Storage is unavailable right now. Please try again later."
	msgRegisterHint = "You are not registered. Send /start to register."
	msgPending      = "Your registration is awaiting approval."
	msgRejected     = "Your registration was rejected. Contact your manager."
	msgAlreadyReg   = "You are already registered."
	msgMenu         = "Choose an action."
	msgCancelled    = "Cancelled."
	msgNoCancel     = "Nothing to cancel."
	msgForbidden    = "Only managers and admins can do that."
	msgUnknownCmd   = "Unknown command. Send /help for the list of commands."
	msgRegistered   = "Registration complete."
	msgRegPending   = "Registration received. A manager will approve it shortly."
	msgStartSaved   = "Shift started at %d km. Personal km since last shift: %s."
	msgEndSaved     = "Shift ended at %d km. Distance this shift: %s km."
	msgFuelSaved    = "Refuel saved: %s for %s l. Today's total: %s."
	msgFuelNoTotal  = "Refuel saved: %s for %s l. Today's total is unavailable right now."
	msgToday        = "Today's fuel total: %s."
	msgNoDriver     = "No driver with id %s."
	msgStatusSet    = "Driver %s is now %s."
	msgYouApproved  = "Your registration was approved. Send /menu to begin."
	msgYouRejected  = msgRejected
	msgReminder     = "Your shift is still open. Don't forget to send /shift_end."
	msgNewDriver    = "New registration: %s (%s), id %s. Send /approve %s or /reject %s."
	msgSessionSwept = "Your unfinished dialog expired. Start again from the menu."
)

func usage(cmd string) string {
	return fmt.Sprintf("Usage: /%s <driver id>", cmd)
}

func helpText(canApprove bool) string {
	lines := []string{
		"/start - register",
		"/shift_start - start a shift",
		"/fuel - record a refuel",
		"/shift_end - end a shift",
		"/today - today's fuel total",
		"/cancel - abandon the current dialog",
		"/help - this list",
	}
	if canApprove {
		lines = append(lines, "/approve <id> - approve a driver", "/reject <id> - reject a driver")
	}
	return strings.Join(lines, "\n")
}
