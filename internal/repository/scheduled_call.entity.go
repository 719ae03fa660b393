package repository

import (
	"time"

	"github.com/telvora/call-scheduler/internal/model"
)

type ScheduledCallEntity struct {
	ID            int64      `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	PhoneNumber   string     `db:"phone_number"   gorm:"column:phone_number;not null"`
	ScheduledTime time.Time  `db:"scheduled_time" gorm:"column:scheduled_time;not null;index"`
	Status        string     `db:"status"         gorm:"column:status;not null;default:pending;index"`
	CreatedAt     time.Time  `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
	ExecutedAt    *time.Time `db:"executed_at"    gorm:"column:executed_at"`
	CallID        *string    `db:"call_id"        gorm:"column:call_id"`
}

func (ScheduledCallEntity) TableName() string {
	return "scheduled_calls"
}

func toScheduledCallEntity(m *model.ScheduledCall) *ScheduledCallEntity {
	if m == nil {
		return nil
	}
	return &ScheduledCallEntity{
		ID:            m.ID,
		PhoneNumber:   m.PhoneNumber,
		ScheduledTime: m.ScheduledTime,
		Status:        string(m.Status),
		CreatedAt:     m.CreatedAt,
		ExecutedAt:    m.ExecutedAt,
		CallID:        m.CallID,
	}
}

func toScheduledCallModel(e *ScheduledCallEntity) *model.ScheduledCall {
	if e == nil {
		return nil
	}
	return &model.ScheduledCall{
		ID:            e.ID,
		PhoneNumber:   e.PhoneNumber,
		ScheduledTime: e.ScheduledTime,
		Status:        model.ScheduleStatus(e.Status),
		CreatedAt:     e.CreatedAt,
		ExecutedAt:    e.ExecutedAt,
		CallID:        e.CallID,
	}
}

func toScheduledCallModels(entities []*ScheduledCallEntity) []*model.ScheduledCall {
	if entities == nil {
		return nil
	}
	models := make([]*model.ScheduledCall, len(entities))
	for i, e := range entities {
		models[i] = toScheduledCallModel(e)
	}
	return models
}
