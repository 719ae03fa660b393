package model

import "time"

// CallHistoryEntry is the append-only record written when a scheduled call is
// executed. Status is the snapshot taken at execution time.
type CallHistoryEntry struct {
	ID            int64      `json:"id"`
	CallID        string     `json:"call_id"`
	PhoneNumber   string     `json:"phone_number"`
	Status        CallStatus `json:"status"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	ExecutedAt    time.Time  `json:"executed_at"`
}

// EnrichedHistoryEntry is a history entry merged with the call's live state. When
// the live lookup fails, Status falls back to the stored snapshot and the
// remaining fields stay null.
type EnrichedHistoryEntry struct {
	ID            int64      `json:"id"`
	CallID        string     `json:"call_id"`
	PhoneNumber   string     `json:"phone_number"`
	Status        CallStatus `json:"status"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	ExecutedAt    time.Time  `json:"executed_at"`
	Duration      *int       `json:"duration"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}
