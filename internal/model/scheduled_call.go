package model

import (
	"errors"
	"time"
)

// ScheduleStatus is the lifecycle state of a scheduled call. A schedule leaves
// "pending" exactly once and is never mutated afterwards.
type ScheduleStatus string

const (
	ScheduleStatusPending  ScheduleStatus = "pending"
	ScheduleStatusExecuted ScheduleStatus = "executed"
	ScheduleStatusFailed   ScheduleStatus = "failed"
)

type ScheduledCall struct {
	ID            int64          `json:"id"`
	PhoneNumber   string         `json:"phone_number"`
	ScheduledTime time.Time      `json:"scheduled_time"`
	Status        ScheduleStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	ExecutedAt    *time.Time     `json:"executed_at"`
	CallID        *string        `json:"call_id"`
}

var (
	ErrPhoneRequired = errors.New("phone_number is required")
	ErrTimeRequired  = errors.New("scheduled_time is required")
)

// ScheduleCreateRequest is the input for scheduling a call. ScheduledTime stays a
// raw string here; parsing and the future check happen in the service.
type ScheduleCreateRequest struct {
	PhoneNumber   string
	ScheduledTime string
}

func (p ScheduleCreateRequest) Validate() error {
	if p.PhoneNumber == "" {
		return ErrPhoneRequired
	}
	if p.ScheduledTime == "" {
		return ErrTimeRequired
	}
	return nil
}

const MinPhoneNumberLen = 10

// ParseScheduleTime accepts RFC 3339 or a naive local timestamp. An explicit
// offset is normalized to server-local wall time and then dropped, matching how
// schedule rows are stored.
func ParseScheduleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.In(time.Local)
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local), nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
}
