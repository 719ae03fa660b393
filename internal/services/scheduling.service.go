package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/internal/repository"
	"github.com/telvora/call-scheduler/pkg/logger"
)

var (
	ErrInvalidPhone        = fmt.Errorf("invalid phone number")
	ErrInvalidScheduleTime = fmt.Errorf("invalid scheduled_time format")
	ErrPastScheduleTime    = errors.New("scheduled_time must be in the future")
	ErrNotFound            = errors.New("scheduled call not found")
)

// Each live lookup gets a budget well below the HTTP request timeout so a hung
// call API degrades entries to their stored snapshots instead of timing out the
// whole history request.
const defaultLiveLookupBudget = 2 * time.Second

type ScheduledCallRepository interface {
	Create(ctx context.Context, sc *model.ScheduledCall) (*model.ScheduledCall, error)
	List(ctx context.Context) ([]*model.ScheduledCall, error)
	Delete(ctx context.Context, id int64) error
}

type CallHistoryRepository interface {
	List(ctx context.Context) ([]*model.CallHistoryEntry, error)
}

type CallAPI interface {
	GetCall(ctx context.Context, callID string) (*model.CallRecord, error)
}

type SchedulingService struct {
	scheduleRepo  ScheduledCallRepository
	historyRepo   CallHistoryRepository
	callAPI       CallAPI
	statusCache   *StatusCache
	lookupTimeout time.Duration
}

func NewSchedulingService(scheduleRepo ScheduledCallRepository, historyRepo CallHistoryRepository, callAPI CallAPI, statusCache *StatusCache, lookupTimeout time.Duration) *SchedulingService {
	if lookupTimeout <= 0 {
		lookupTimeout = defaultLiveLookupBudget
	}
	return &SchedulingService{
		scheduleRepo:  scheduleRepo,
		historyRepo:   historyRepo,
		callAPI:       callAPI,
		statusCache:   statusCache,
		lookupTimeout: lookupTimeout,
	}
}

// Schedule validates and persists a new scheduled call. It never triggers the
// call itself; the poller picks the entry up once it is due.
func (s *SchedulingService) Schedule(ctx context.Context, p model.ScheduleCreateRequest) (*model.ScheduledCall, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
	if len(p.PhoneNumber) < model.MinPhoneNumberLen {
		return nil, ErrInvalidPhone
	}

	scheduledTime, err := model.ParseScheduleTime(p.ScheduledTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScheduleTime, err)
	}

	if !scheduledTime.After(time.Now()) {
		return nil, ErrPastScheduleTime
	}

	sc := &model.ScheduledCall{
		PhoneNumber:   p.PhoneNumber,
		ScheduledTime: scheduledTime,
		Status:        model.ScheduleStatusPending,
	}

	return s.scheduleRepo.Create(ctx, sc)
}

// List returns all scheduled calls ascending by trigger time.
func (s *SchedulingService) List(ctx context.Context) ([]*model.ScheduledCall, error) {
	return s.scheduleRepo.List(ctx)
}

// Delete removes a scheduled call. Only existence is checked; an executed entry
// keeps its audit trail in the history table.
func (s *SchedulingService) Delete(ctx context.Context, id int64) error {
	err := s.scheduleRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// History returns executed-call history descending by execution time, each entry
// enriched with the call's live state when the call API answers. A failed lookup
// only degrades its own entry to the stored snapshot.
func (s *SchedulingService) History(ctx context.Context) ([]*model.EnrichedHistoryEntry, error) {
	entries, err := s.historyRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	enriched := make([]*model.EnrichedHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		live, err := s.lookupLive(ctx, entry.CallID)
		if err != nil {
			logger.Warn("live status lookup failed, using snapshot", "call_id", entry.CallID, "error", err)
			enriched = append(enriched, snapshotEntry(entry))
			continue
		}
		enriched = append(enriched, mergeEntry(entry, live))
	}

	return enriched, nil
}

func (s *SchedulingService) lookupLive(ctx context.Context, callID string) (*model.CallRecord, error) {
	if rec, ok := s.statusCache.Lookup(callID); ok {
		return rec, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	rec, err := s.callAPI.GetCall(lookupCtx, callID)
	if err != nil {
		return nil, err
	}

	s.statusCache.Store(rec)
	return rec, nil
}

func snapshotEntry(entry *model.CallHistoryEntry) *model.EnrichedHistoryEntry {
	return &model.EnrichedHistoryEntry{
		ID:            entry.ID,
		CallID:        entry.CallID,
		PhoneNumber:   entry.PhoneNumber,
		Status:        entry.Status,
		ScheduledTime: entry.ScheduledTime,
		ExecutedAt:    entry.ExecutedAt,
	}
}

func mergeEntry(entry *model.CallHistoryEntry, live *model.CallRecord) *model.EnrichedHistoryEntry {
	return &model.EnrichedHistoryEntry{
		ID:            entry.ID,
		CallID:        entry.CallID,
		PhoneNumber:   entry.PhoneNumber,
		Status:        live.Status,
		ScheduledTime: entry.ScheduledTime,
		ExecutedAt:    entry.ExecutedAt,
		Duration:      live.Duration,
		CreatedAt:     &live.CreatedAt,
		UpdatedAt:     &live.UpdatedAt,
	}
}
