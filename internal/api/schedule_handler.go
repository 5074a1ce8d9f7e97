package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/scheduler"
)

// ListSchedules обрабатывает GET /api/v1/schedules
// Query-параметр workflow_id фильтрует по workflow.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	var workflowID *uuid.UUID
	if raw := r.URL.Query().Get("workflow_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			BadRequest(w, "invalid workflow_id")
			return
		}
		workflowID = &id
	}

	schedules, err := h.scheduleRepo.List(r.Context(), workflowID)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	resp := make([]ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		resp = append(resp, ScheduleFromDomain(&schedules[i]))
	}
	List(w, resp, len(resp))
}

// CreateSchedule обрабатывает POST /api/v1/workflows/{id}/schedules
// Требуется либо cron_expr, либо interval_sec.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	workflowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.CronExpr == "" && req.IntervalSec <= 0 {
		BadRequest(w, "either cron_expr or interval_sec is required")
		return
	}
	if req.CronExpr != "" {
		if err := scheduler.ValidateCronExpr(req.CronExpr); err != nil {
			BadRequest(w, err.Error())
			return
		}
	}

	if _, err := h.workflowRepo.GetByID(r.Context(), workflowID); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	now := time.Now()
	sched := &domain.Schedule{
		ID:          uuid.New(),
		WorkflowID:  workflowID,
		Name:        req.Name,
		CronExpr:    req.CronExpr,
		IntervalSec: req.IntervalSec,
		Timezone:    req.Timezone,
		Enabled:     req.Enabled,
		DatasetMap:  req.DatasetMap,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if sched.Timezone == "" {
		sched.Timezone = "UTC"
	}

	nextDue, err := scheduler.CalculateInitialNextDue(sched)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	sched.NextDueAt = &nextDue

	if err := h.scheduleRepo.Create(r.Context(), sched); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("schedule created",
		"schedule_id", sched.ID,
		"workflow_id", workflowID,
		"next_due_at", nextDue,
	)
	Created(w, ScheduleFromDomain(sched))
}

// GetSchedule обрабатывает GET /api/v1/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	sched, err := h.scheduleRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(sched))
}

// UpdateSchedule обрабатывает PUT /api/v1/schedules/{id}
// При смене расписания время следующего запуска пересчитывается.
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	sched, err := h.scheduleRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	timingChanged := false
	if req.Name != nil {
		sched.Name = *req.Name
	}
	if req.CronExpr != nil {
		if *req.CronExpr != "" {
			if err := scheduler.ValidateCronExpr(*req.CronExpr); err != nil {
				BadRequest(w, err.Error())
				return
			}
		}
		sched.CronExpr = *req.CronExpr
		timingChanged = true
	}
	if req.IntervalSec != nil {
		sched.IntervalSec = *req.IntervalSec
		timingChanged = true
	}
	if req.Timezone != nil {
		sched.Timezone = *req.Timezone
		if sched.Timezone == "" {
			sched.Timezone = "UTC"
		}
		timingChanged = true
	}
	if req.DatasetMap != nil {
		sched.DatasetMap = *req.DatasetMap
	}

	if sched.CronExpr == "" && sched.IntervalSec <= 0 {
		BadRequest(w, "either cron_expr or interval_sec is required")
		return
	}

	if timingChanged {
		nextDue, err := scheduler.CalculateInitialNextDue(sched)
		if err != nil {
			BadRequest(w, err.Error())
			return
		}
		sched.NextDueAt = &nextDue
	}
	sched.UpdatedAt = time.Now()

	if err := h.scheduleRepo.Update(r.Context(), sched); HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(sched))
}

// DeleteSchedule обрабатывает DELETE /api/v1/schedules/{id}
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	if err := h.scheduleRepo.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	h.logger.Info("schedule deleted", "schedule_id", id)
	NoContent(w)
}

// SetScheduleEnabled обрабатывает PUT /api/v1/schedules/{id}/enabled
// При включении время следующего запуска пересчитывается от текущего
// момента, чтобы не сработали накопившиеся за паузу запуски.
func (h *Handler) SetScheduleEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	sched, err := h.scheduleRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	if sched.Enabled != req.Enabled {
		sched.Enabled = req.Enabled
		if req.Enabled {
			nextDue, err := scheduler.CalculateInitialNextDue(sched)
			if err != nil {
				BadRequest(w, err.Error())
				return
			}
			sched.NextDueAt = &nextDue
		}
		sched.UpdatedAt = time.Now()

		if err := h.scheduleRepo.Update(r.Context(), sched); HandleRepoError(w, h.logger, err, "schedule not found") {
			return
		}
	}

	Success(w, ScheduleFromDomain(sched))
}
