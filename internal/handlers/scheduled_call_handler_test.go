package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/internal/services"
	xhttp "github.com/telvora/call-scheduler/pkg/http"
	"github.com/valyala/fasthttp"
)

type MockSchedulingService struct {
	mock.Mock
}

func (m *MockSchedulingService) Schedule(ctx context.Context, p model.ScheduleCreateRequest) (*model.ScheduledCall, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledCall), args.Error(1)
}

func (m *MockSchedulingService) List(ctx context.Context) ([]*model.ScheduledCall, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ScheduledCall), args.Error(1)
}

func (m *MockSchedulingService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSchedulingService) History(ctx context.Context) ([]*model.EnrichedHistoryEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EnrichedHistoryEntry), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func TestScheduledCallHandler_CreateScheduledCall(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		reqBody := createScheduledCallRequest{
			PhoneNumber:   "+15551234567",
			ScheduledTime: "2026-10-01T12:00:00",
		}
		bodyBytes, _ := json.Marshal(reqBody)

		expected := &model.ScheduledCall{
			ID:          42,
			PhoneNumber: "+15551234567",
			Status:      model.ScheduleStatusPending,
		}

		svc.On("Schedule", mock.Anything, mock.MatchedBy(func(p model.ScheduleCreateRequest) bool {
			return p.PhoneNumber == "+15551234567" && p.ScheduledTime == "2026-10-01T12:00:00"
		})).Return(expected, nil)

		ctx := setupTestContext("POST", "/api/scheduled-calls", bodyBytes)
		handler.CreateScheduledCall(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())

		var response createScheduledCallResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.True(t, response.Success)
		assert.Equal(t, int64(42), response.ScheduledCall.ID)

		svc.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		ctx := setupTestContext("POST", "/api/scheduled-calls", []byte("not json"))
		handler.CreateScheduledCall(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())

		var response map[string]string
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Contains(t, response["error"], "invalid JSON")
	})

	t.Run("validation errors map to 400", func(t *testing.T) {
		for _, svcErr := range []error{
			model.ErrPhoneRequired,
			model.ErrTimeRequired,
			services.ErrInvalidPhone,
			services.ErrInvalidScheduleTime,
			services.ErrPastScheduleTime,
		} {
			svc := new(MockSchedulingService)
			handler := NewScheduledCallHandler(svc)

			svc.On("Schedule", mock.Anything, mock.Anything).Return(nil, svcErr)

			bodyBytes, _ := json.Marshal(createScheduledCallRequest{})
			ctx := setupTestContext("POST", "/api/scheduled-calls", bodyBytes)
			handler.CreateScheduledCall(ctx)

			assert.Equal(t, 400, ctx.Response.StatusCode(), svcErr.Error())
		}
	})

	t.Run("persistence error maps to 500", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		svc.On("Schedule", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		bodyBytes, _ := json.Marshal(createScheduledCallRequest{PhoneNumber: "+15551234567", ScheduledTime: "2026-10-01T12:00:00"})
		ctx := setupTestContext("POST", "/api/scheduled-calls", bodyBytes)
		handler.CreateScheduledCall(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
	})
}

func TestScheduledCallHandler_ListScheduledCalls(t *testing.T) {
	t.Run("returns entries", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		svc.On("List", mock.Anything).Return([]*model.ScheduledCall{
			{ID: 1, PhoneNumber: "+15550000001", ScheduledTime: time.Now().Add(time.Hour)},
			{ID: 2, PhoneNumber: "+15550000002", ScheduledTime: time.Now().Add(2 * time.Hour)},
		}, nil)

		ctx := setupTestContext("GET", "/api/scheduled-calls", nil)
		handler.ListScheduledCalls(ctx)

		require.Equal(t, 200, ctx.Response.StatusCode())

		var response listScheduledCallsResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.True(t, response.Success)
		assert.Len(t, response.ScheduledCalls, 2)
	})

	t.Run("nil result serializes as empty array", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		svc.On("List", mock.Anything).Return([]*model.ScheduledCall(nil), nil)

		ctx := setupTestContext("GET", "/api/scheduled-calls", nil)
		handler.ListScheduledCalls(ctx)

		require.Equal(t, 200, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), `"scheduled_calls":[]`)
	})
}

func TestScheduledCallHandler_DeleteScheduledCall(t *testing.T) {
	t.Run("successful delete", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		svc.On("Delete", mock.Anything, int64(7)).Return(nil)

		ctx := setupTestContext("DELETE", "/api/scheduled-calls/7", nil)
		ctx.SetUserValue("id", "7")
		handler.DeleteScheduledCall(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), `"success":true`)
		svc.AssertExpectations(t)
	})

	t.Run("missing entry", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		svc.On("Delete", mock.Anything, int64(7)).Return(services.ErrNotFound)

		ctx := setupTestContext("DELETE", "/api/scheduled-calls/7", nil)
		ctx.SetUserValue("id", "7")
		handler.DeleteScheduledCall(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("non-numeric id", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		ctx := setupTestContext("DELETE", "/api/scheduled-calls/abc", nil)
		ctx.SetUserValue("id", "abc")
		handler.DeleteScheduledCall(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestScheduledCallHandler_ListCallHistory(t *testing.T) {
	t.Run("returns enriched entries", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		duration := 10
		svc.On("History", mock.Anything).Return([]*model.EnrichedHistoryEntry{
			{ID: 1, CallID: "call-a", Status: model.CallStatusCompleted, Duration: &duration},
		}, nil)

		ctx := setupTestContext("GET", "/api/call-history", nil)
		handler.ListCallHistory(ctx)

		require.Equal(t, 200, ctx.Response.StatusCode())

		var response listCallHistoryResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.True(t, response.Success)
		require.Len(t, response.Calls, 1)
		assert.Equal(t, "call-a", response.Calls[0].CallID)
		require.NotNil(t, response.Calls[0].Duration)
		assert.Equal(t, 10, *response.Calls[0].Duration)
	})

	t.Run("history failure maps to 500", func(t *testing.T) {
		svc := new(MockSchedulingService)
		handler := NewScheduledCallHandler(svc)

		svc.On("History", mock.Anything).Return(nil, errors.New("db down"))

		ctx := setupTestContext("GET", "/api/call-history", nil)
		handler.ListCallHistory(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
	})
}
