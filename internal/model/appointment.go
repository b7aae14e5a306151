package model

import "time"

// Appointment statuses.  Pending is the initial state.  Completed and
// Cancelled are terminal for the regular status-update operation; only
// the company's forced cancel may leave Completed (restoring stock).
const (
	StatusPending    = "Pending"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

// transitions is the closed transition table for the status-update
// operation.  Missing entries are rejected.
var transitions = map[string]map[string]bool{
	StatusPending: {
		StatusInProgress: true,
		StatusCancelled:  true,
	},
	StatusInProgress: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
}

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the status-update operation may move an
// appointment from one status to another.  Forced company cancels do
// not consult this table.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// Appointment represents a row in the `appointments` table: a swap
// request linking one INDIVIDUAL (requester) to one COMPANY (fulfiller)
// for a named battery.  BatteryName is matched against the fulfiller's
// current battery names at creation and completion time; there is no
// foreign key to the batteries table.
//
// Fields:
//  ID          – appointments.id (auto increment).
//  UserID      – appointments.user_id (uuid FK to accounts, restrict delete).
//  CompanyID   – appointments.company_id (uuid FK to accounts, restrict delete).
//  BatteryName – appointments.battery_name (max 100 chars).
//  Notes       – appointments.notes (nullable, max 500 chars).
//  Status      – appointments.status (see constants above).
//  CreatedAt   – appointments.created_at.
//  UpdatedAt   – appointments.updated_at.
type Appointment struct {
	ID          uint64    `json:"id"`
	UserID      string    `json:"user_id"`
	CompanyID   string    `json:"company_id"`
	BatteryName string    `json:"battery_name"`
	Notes       *string   `json:"notes,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
