// Package queue defines message payloads exchanged over the message broker.
package queue

// SwapCompletedEvent is published when a company marks an appointment
// Completed and a battery unit is handed over. It carries enough
// information for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type SwapCompletedEvent struct {
	AppointmentID uint64 `json:"appointment_id"`
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
	CompanyID     string `json:"company_id"`
	CompanyName   string `json:"company_name"`
	BatteryName   string `json:"battery_name"`
	CompletedAt   string `json:"completed_at"`
}
