package repository

import (
	"context"
	"errors"
	"time"

	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a scheduled call does not exist.
	ErrNotFound = errors.New("scheduled call not found")
)

type ScheduledCallRepository struct {
	*pg.DB
}

func NewScheduledCallRepository(db *pg.DB) *ScheduledCallRepository {
	return &ScheduledCallRepository{
		db,
	}
}

func (r *ScheduledCallRepository) Create(ctx context.Context, sc *model.ScheduledCall) (*model.ScheduledCall, error) {
	entity := toScheduledCallEntity(sc)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toScheduledCallModel(entity), nil
}

func (r *ScheduledCallRepository) GetByID(ctx context.Context, id int64) (*model.ScheduledCall, error) {
	var entity ScheduledCallEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toScheduledCallModel(&entity), nil
}

// List returns all scheduled calls ascending by trigger time.
func (r *ScheduledCallRepository) List(ctx context.Context) ([]*model.ScheduledCall, error) {
	var entities []*ScheduledCallEntity
	err := r.Read(ctx).WithContext(ctx).
		Order("scheduled_time ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toScheduledCallModels(entities), nil
}

// ListDue returns pending entries whose trigger time has passed. The strict
// status filter is what makes re-running a tick over already-handled entries a
// no-op.
func (r *ScheduledCallRepository) ListDue(ctx context.Context, now time.Time) ([]*model.ScheduledCall, error) {
	var entities []*ScheduledCallEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status = ? AND scheduled_time <= ?", string(model.ScheduleStatusPending), now).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toScheduledCallModels(entities), nil
}

// MarkExecuted flips a pending entry to executed and records the resulting call
// id. Entries that already left pending are not touched.
func (r *ScheduledCallRepository) MarkExecuted(ctx context.Context, id int64, executedAt time.Time, callID string) error {
	res := r.Write(ctx).WithContext(ctx).
		Model(&ScheduledCallEntity{}).
		Where("id = ? AND status = ?", id, string(model.ScheduleStatusPending)).
		Updates(map[string]interface{}{
			"status":      string(model.ScheduleStatusExecuted),
			"executed_at": executedAt,
			"call_id":     callID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed flips a pending entry to failed.
func (r *ScheduledCallRepository) MarkFailed(ctx context.Context, id int64, executedAt time.Time) error {
	res := r.Write(ctx).WithContext(ctx).
		Model(&ScheduledCallEntity{}).
		Where("id = ? AND status = ?", id, string(model.ScheduleStatusPending)).
		Updates(map[string]interface{}{
			"status":      string(model.ScheduleStatusFailed),
			"executed_at": executedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScheduledCallRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).WithContext(ctx).Delete(&ScheduledCallEntity{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
