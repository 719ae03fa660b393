package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/telvora/call-scheduler/internal/model"
)

type MockScheduledCallRepository struct {
	mock.Mock
}

func (m *MockScheduledCallRepository) ListDue(ctx context.Context, now time.Time) ([]*model.ScheduledCall, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ScheduledCall), args.Error(1)
}

func (m *MockScheduledCallRepository) MarkExecuted(ctx context.Context, id int64, executedAt time.Time, callID string) error {
	args := m.Called(ctx, id, executedAt, callID)
	return args.Error(0)
}

func (m *MockScheduledCallRepository) MarkFailed(ctx context.Context, id int64, executedAt time.Time) error {
	args := m.Called(ctx, id, executedAt)
	return args.Error(0)
}

type MockCallHistoryRepository struct {
	mock.Mock
}

func (m *MockCallHistoryRepository) Create(ctx context.Context, entry *model.CallHistoryEntry) (*model.CallHistoryEntry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CallHistoryEntry), args.Error(1)
}

type MockCallAPI struct {
	mock.Mock
}

func (m *MockCallAPI) InitiateCall(ctx context.Context, phoneNumber string) (*model.CallRecord, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CallRecord), args.Error(1)
}

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

func duePendingCall(id int64, phone string) *model.ScheduledCall {
	return &model.ScheduledCall{
		ID:            id,
		PhoneNumber:   phone,
		ScheduledTime: time.Now().Add(-time.Minute),
		Status:        model.ScheduleStatusPending,
	}
}

func TestPoller_Tick_ExecutesDueCall(t *testing.T) {
	scheduledCalls := new(MockScheduledCallRepository)
	history := new(MockCallHistoryRepository)
	callAPI := new(MockCallAPI)
	tx := new(MockTransactor)

	sc := duePendingCall(1, "+15551234567")

	scheduledCalls.On("ListDue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*model.ScheduledCall{sc}, nil)
	callAPI.On("InitiateCall", mock.Anything, "+15551234567").
		Return(&model.CallRecord{ID: "call-1", PhoneNumber: "+15551234567", Status: model.CallStatusInitiated}, nil)
	tx.On("WithinTransaction", mock.Anything, mock.AnythingOfType("func(context.Context) error")).
		Return(nil)
	scheduledCalls.On("MarkExecuted", mock.Anything, int64(1), mock.AnythingOfType("time.Time"), "call-1").
		Return(nil)
	history.On("Create", mock.Anything, mock.MatchedBy(func(e *model.CallHistoryEntry) bool {
		return e.CallID == "call-1" && e.PhoneNumber == "+15551234567" && e.Status == model.CallStatusInitiated
	})).Return(&model.CallHistoryEntry{ID: 1}, nil)

	p := New(scheduledCalls, history, callAPI, tx)
	p.tick()

	scheduledCalls.AssertExpectations(t)
	history.AssertExpectations(t)
	callAPI.AssertExpectations(t)
	tx.AssertExpectations(t)
	scheduledCalls.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestPoller_Tick_CallFailureMarksFailed(t *testing.T) {
	scheduledCalls := new(MockScheduledCallRepository)
	history := new(MockCallHistoryRepository)
	callAPI := new(MockCallAPI)
	tx := new(MockTransactor)

	sc := duePendingCall(2, "+15550000002")

	scheduledCalls.On("ListDue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*model.ScheduledCall{sc}, nil)
	callAPI.On("InitiateCall", mock.Anything, "+15550000002").
		Return(nil, errors.New("connection refused"))
	scheduledCalls.On("MarkFailed", mock.Anything, int64(2), mock.AnythingOfType("time.Time")).
		Return(nil)

	p := New(scheduledCalls, history, callAPI, tx)
	p.tick()

	scheduledCalls.AssertExpectations(t)
	history.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "WithinTransaction", mock.Anything, mock.Anything)
}

func TestPoller_Tick_OneFailureDoesNotBlockOthers(t *testing.T) {
	scheduledCalls := new(MockScheduledCallRepository)
	history := new(MockCallHistoryRepository)
	callAPI := new(MockCallAPI)
	tx := new(MockTransactor)

	bad := duePendingCall(1, "+15550000001")
	good := duePendingCall(2, "+15550000002")

	scheduledCalls.On("ListDue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*model.ScheduledCall{bad, good}, nil)

	callAPI.On("InitiateCall", mock.Anything, "+15550000001").
		Return(nil, errors.New("rejected"))
	scheduledCalls.On("MarkFailed", mock.Anything, int64(1), mock.AnythingOfType("time.Time")).
		Return(nil)

	callAPI.On("InitiateCall", mock.Anything, "+15550000002").
		Return(&model.CallRecord{ID: "call-2", Status: model.CallStatusInitiated}, nil)
	tx.On("WithinTransaction", mock.Anything, mock.Anything).Return(nil)
	scheduledCalls.On("MarkExecuted", mock.Anything, int64(2), mock.AnythingOfType("time.Time"), "call-2").
		Return(nil)
	history.On("Create", mock.Anything, mock.Anything).Return(&model.CallHistoryEntry{ID: 1}, nil)

	p := New(scheduledCalls, history, callAPI, tx)
	p.tick()

	scheduledCalls.AssertExpectations(t)
	callAPI.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestPoller_Tick_ListDueError(t *testing.T) {
	scheduledCalls := new(MockScheduledCallRepository)
	history := new(MockCallHistoryRepository)
	callAPI := new(MockCallAPI)
	tx := new(MockTransactor)

	scheduledCalls.On("ListDue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(nil, errors.New("db down"))

	p := New(scheduledCalls, history, callAPI, tx)
	p.tick()

	callAPI.AssertNotCalled(t, "InitiateCall", mock.Anything, mock.Anything)
}

func TestPoller_Tick_TransactionFailureMarksFailed(t *testing.T) {
	scheduledCalls := new(MockScheduledCallRepository)
	history := new(MockCallHistoryRepository)
	callAPI := new(MockCallAPI)
	tx := new(MockTransactor)

	sc := duePendingCall(3, "+15550000003")

	scheduledCalls.On("ListDue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*model.ScheduledCall{sc}, nil)
	callAPI.On("InitiateCall", mock.Anything, "+15550000003").
		Return(&model.CallRecord{ID: "call-3", Status: model.CallStatusInitiated}, nil)
	tx.On("WithinTransaction", mock.Anything, mock.Anything).
		Return(errors.New("commit failed"))
	scheduledCalls.On("MarkFailed", mock.Anything, int64(3), mock.AnythingOfType("time.Time")).
		Return(nil)

	p := New(scheduledCalls, history, callAPI, tx)
	p.tick()

	// A due entry must not stay pending after its tick.
	scheduledCalls.AssertExpectations(t)
	scheduledCalls.AssertNotCalled(t, "MarkExecuted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPoller_Tick_RecoversFromPanic(t *testing.T) {
	scheduledCalls := new(MockScheduledCallRepository)
	history := new(MockCallHistoryRepository)
	callAPI := new(MockCallAPI)
	tx := new(MockTransactor)

	scheduledCalls.On("ListDue", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { panic("boom") }).
		Return(nil, nil)

	p := New(scheduledCalls, history, callAPI, tx)

	require.NotPanics(t, func() { p.tick() })
}

func TestPoller_StartStop(t *testing.T) {
	scheduledCalls := new(MockScheduledCallRepository)
	history := new(MockCallHistoryRepository)
	callAPI := new(MockCallAPI)
	tx := new(MockTransactor)

	done := make(chan struct{})
	scheduledCalls.On("ListDue", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			select {
			case done <- struct{}{}:
			default:
			}
		}).
		Return([]*model.ScheduledCall{}, nil)

	p := New(scheduledCalls, history, callAPI, tx, WithInterval(10*time.Millisecond))
	p.Start()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller never ticked")
	}

	p.Stop()

	calls := len(scheduledCalls.Calls)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, len(scheduledCalls.Calls))
}

func TestPoller_Options(t *testing.T) {
	p := New(nil, nil, nil, nil,
		WithInterval(time.Minute),
		WithExecutionTimeout(2*time.Second),
	)

	assert.Equal(t, time.Minute, p.interval)
	assert.Equal(t, 2*time.Second, p.executionTimeout)

	defaults := New(nil, nil, nil, nil, WithInterval(0), WithExecutionTimeout(-1))
	assert.Equal(t, DefaultPollInterval, defaults.interval)
	assert.Equal(t, DefaultExecutionTimeout, defaults.executionTimeout)
}
