package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/internal/services"
	xhttp "github.com/telvora/call-scheduler/pkg/http"
)

type SchedulingService interface {
	Schedule(ctx context.Context, p model.ScheduleCreateRequest) (*model.ScheduledCall, error)
	List(ctx context.Context) ([]*model.ScheduledCall, error)
	Delete(ctx context.Context, id int64) error
	History(ctx context.Context) ([]*model.EnrichedHistoryEntry, error)
}

type ScheduledCallHandler struct {
	svc SchedulingService
}

func RegisterScheduledCallRoutes(e *router.Group, h *ScheduledCallHandler) {
	e.POST("/scheduled-calls", h.CreateScheduledCall)
	e.GET("/scheduled-calls", h.ListScheduledCalls)
	e.DELETE("/scheduled-calls/{id}", h.DeleteScheduledCall)
	e.GET("/call-history", h.ListCallHistory)
}

func NewScheduledCallHandler(svc SchedulingService) *ScheduledCallHandler {
	return &ScheduledCallHandler{
		svc: svc,
	}
}

type createScheduledCallRequest struct {
	PhoneNumber   string `json:"phone_number"`
	ScheduledTime string `json:"scheduled_time"`
}

type createScheduledCallResponse struct {
	Success       bool                 `json:"success"`
	ScheduledCall *model.ScheduledCall `json:"scheduled_call"`
}

type listScheduledCallsResponse struct {
	Success        bool                   `json:"success"`
	ScheduledCalls []*model.ScheduledCall `json:"scheduled_calls"`
}

type listCallHistoryResponse struct {
	Success bool                          `json:"success"`
	Calls   []*model.EnrichedHistoryEntry `json:"calls"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *ScheduledCallHandler) CreateScheduledCall(ctx *xhttp.RequestCtx) {
	var req createScheduledCallRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	p := model.ScheduleCreateRequest{
		PhoneNumber:   req.PhoneNumber,
		ScheduledTime: req.ScheduledTime,
	}
	sc, err := h.svc.Schedule(ctx, p)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 201, createScheduledCallResponse{Success: true, ScheduledCall: sc})
}

func (h *ScheduledCallHandler) ListScheduledCalls(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	if items == nil {
		items = []*model.ScheduledCall{}
	}
	writeJSON(ctx, 200, listScheduledCallsResponse{Success: true, ScheduledCalls: items})
}

func (h *ScheduledCallHandler) DeleteScheduledCall(ctx *xhttp.RequestCtx) {
	id, err := paramInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]bool{"success": true})
}

func (h *ScheduledCallHandler) ListCallHistory(ctx *xhttp.RequestCtx) {
	items, err := h.svc.History(ctx)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	if items == nil {
		items = []*model.EnrichedHistoryEntry{}
	}
	writeJSON(ctx, 200, listCallHistoryResponse{Success: true, Calls: items})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return 404
	case errors.Is(err, services.ErrInvalidPhone),
		errors.Is(err, services.ErrInvalidScheduleTime),
		errors.Is(err, services.ErrPastScheduleTime),
		errors.Is(err, model.ErrPhoneRequired),
		errors.Is(err, model.ErrTimeRequired):
		return 400
	default:
		return 500
	}
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func paramInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, ok := ctx.UserValue(name).(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(v, 10, 64)
}
