// Package models defines the bot's domain records: directory drivers,
// ledger entries and daily cost rollups.
package models

import "fmt"

type Role string

const (
	RoleDriver  Role = "Driver"
	RoleManager Role = "Manager"
	RoleAdmin   Role = "Admin"
)

// CanApprove reports whether the role may change other users' status.
func (r Role) CanApprove() bool {
	return r == RoleManager || r == RoleAdmin
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// ParseRole maps a stored cell to a Role. Empty cells read as RoleDriver.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleDriver:
		return RoleDriver, nil
	case RoleManager, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ParseStatus maps a stored cell to a Status. Empty cells read as
// StatusApproved: directory rows written before statuses existed were
// implicitly approved.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "", StatusApproved:
		return StatusApproved, nil
	case StatusPending, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Driver is one registered user of the bot.
type Driver struct {
	UID     string
	Name    string
	Vehicle string
	Role    Role
	Company string
	Status  Status
}

func (d *Driver) Approved() bool {
	return d != nil && d.Status == StatusApproved
}
