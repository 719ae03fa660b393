package model

import "time"

// CallStatus is the lifecycle state of a simulated call.
type CallStatus string

const (
	CallStatusInitiated CallStatus = "initiated"
	CallStatusRinging   CallStatus = "ringing"
	CallStatusConnected CallStatus = "connected"
	CallStatusCompleted CallStatus = "completed"
)

// CallRecord lives only in the simulator's memory; it is never persisted and is
// lost on restart.
type CallRecord struct {
	ID          string     `json:"id"`
	PhoneNumber string     `json:"phone_number"`
	Status      CallStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Duration    *int       `json:"duration"` // seconds, set on completion
}
