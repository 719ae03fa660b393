package repository

import (
	"time"

	"github.com/telvora/call-scheduler/internal/model"
)

type CallHistoryEntity struct {
	ID            int64     `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	CallID        string    `db:"call_id"        gorm:"column:call_id;not null;index"`
	PhoneNumber   string    `db:"phone_number"   gorm:"column:phone_number;not null"`
	Status        string    `db:"status"         gorm:"column:status;not null"`
	ScheduledTime time.Time `db:"scheduled_time" gorm:"column:scheduled_time;not null"`
	ExecutedAt    time.Time `db:"executed_at"    gorm:"column:executed_at;not null;index"`
}

func (CallHistoryEntity) TableName() string {
	return "call_history"
}

func toCallHistoryEntity(m *model.CallHistoryEntry) *CallHistoryEntity {
	if m == nil {
		return nil
	}
	return &CallHistoryEntity{
		ID:            m.ID,
		CallID:        m.CallID,
		PhoneNumber:   m.PhoneNumber,
		Status:        string(m.Status),
		ScheduledTime: m.ScheduledTime,
		ExecutedAt:    m.ExecutedAt,
	}
}

func toCallHistoryModel(e *CallHistoryEntity) *model.CallHistoryEntry {
	if e == nil {
		return nil
	}
	return &model.CallHistoryEntry{
		ID:            e.ID,
		CallID:        e.CallID,
		PhoneNumber:   e.PhoneNumber,
		Status:        model.CallStatus(e.Status),
		ScheduledTime: e.ScheduledTime,
		ExecutedAt:    e.ExecutedAt,
	}
}

func toCallHistoryModels(entities []*CallHistoryEntity) []*model.CallHistoryEntry {
	if entities == nil {
		return nil
	}
	models := make([]*model.CallHistoryEntry, len(entities))
	for i, e := range entities {
		models[i] = toCallHistoryModel(e)
	}
	return models
}
