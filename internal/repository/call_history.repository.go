package repository

import (
	"context"

	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/pkg/pg"
)

type CallHistoryRepository struct {
	*pg.DB
}

func NewCallHistoryRepository(db *pg.DB) *CallHistoryRepository {
	return &CallHistoryRepository{
		db,
	}
}

func (r *CallHistoryRepository) Create(ctx context.Context, entry *model.CallHistoryEntry) (*model.CallHistoryEntry, error) {
	entity := toCallHistoryEntity(entry)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toCallHistoryModel(entity), nil
}

// List returns history entries descending by execution time.
func (r *CallHistoryRepository) List(ctx context.Context) ([]*model.CallHistoryEntry, error) {
	var entities []*CallHistoryEntity
	err := r.Read(ctx).WithContext(ctx).
		Order("executed_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toCallHistoryModels(entities), nil
}
