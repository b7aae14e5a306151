package model

import "time"

// Battery quantity bounds enforced on every create and update.
const (
	BatteryQuantityMax = 10000
)

// Battery represents a row in the `batteries` table: one inventory line
// owned by exactly one COMPANY account.  Appointments reference a
// battery by name, not by id, so the Name column doubles as the match
// key at appointment creation and completion time.
//
// Fields:
//  ID          – batteries.id (auto increment).
//  CompanyID   – batteries.company_id (uuid FK to accounts, cascade delete).
//  Name        – batteries.name (display label, match key, max 100 chars).
//  Type        – batteries.type (category, max 50 chars).
//  Description – batteries.description (nullable, max 500 chars).
//  Quantity    – batteries.quantity (0..10000).
//  CreatedAt   – batteries.created_at.
type Battery struct {
	ID          uint64    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description *string   `json:"description,omitempty"`
	Quantity    uint32    `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}
