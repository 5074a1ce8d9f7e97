package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/repo"
)

// ListRuns обрабатывает GET /api/v1/runs
// Query-параметры: workflow_id, status, limit, offset.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{
		Limit:  mustParseInt(r.URL.Query().Get("limit"), 50),
		Offset: mustParseInt(r.URL.Query().Get("offset"), 0),
		Status: domain.RunStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("workflow_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			BadRequest(w, "invalid workflow_id")
			return
		}
		filter.WorkflowID = &id
	}

	runs, err := h.runRepo.List(r.Context(), filter)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, RunFromDomain(run))
	}
	List(w, resp, len(resp))
}

// CreateRun обрабатывает POST /api/v1/workflows/{id}/runs
//
// Версия по умолчанию — последняя. Если передан idempotency_key и run
// с таким ключом уже есть, возвращается существующий run (200, не 201).
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	workflowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	// Пустое тело допустимо: запуск последней версии без переназначений.
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid JSON body")
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), workflowID)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}
	if !wf.IsActive {
		InvalidState(w, "workflow is not active")
		return
	}

	version := 0
	if req.Version != nil {
		version = *req.Version
	}
	if version <= 0 {
		latest, err := h.workflowRepo.GetLatestVersion(r.Context(), workflowID)
		if errors.Is(err, repo.ErrNotFound) {
			InvalidState(w, "workflow has no versions")
			return
		}
		if err != nil {
			InternalError(w, h.logger, err)
			return
		}
		version = latest.Version
	} else {
		if _, err := h.workflowRepo.GetVersion(r.Context(), workflowID, version); HandleRepoError(w, h.logger, err, "workflow version not found") {
			return
		}
	}

	if req.IdempotencyKey != "" {
		existing, err := h.runRepo.GetByIdempotencyKey(r.Context(), workflowID, req.IdempotencyKey)
		if err == nil {
			Success(w, RunFromDomain(*existing))
			return
		}
		if !errors.Is(err, repo.ErrNotFound) {
			InternalError(w, h.logger, err)
			return
		}
	}

	run := &domain.Run{
		ID:             uuid.New(),
		WorkflowID:     workflowID,
		Version:        version,
		Status:         domain.RunStatusPending,
		DatasetMap:     req.DatasetMap,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}
	if err := h.runRepo.Create(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// Публикация — best effort: при недоступном брокере run подберёт
	// polling-цикл worker'а.
	if h.publisher != nil {
		if err := h.publisher.PublishRunPending(r.Context(), run.ID); err != nil {
			h.logger.Warn("failed to publish run.pending, worker will poll",
				"run_id", run.ID,
				"error", err,
			)
		}
	}

	h.logger.Info("run created",
		"run_id", run.ID,
		"workflow_id", workflowID,
		"version", version,
	)
	Created(w, RunFromDomain(*run))
}

// GetRun обрабатывает GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// CancelRun обрабатывает POST /api/v1/runs/{id}/cancel
// Отменить можно только PENDING или RUNNING run.
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	if err := h.runRepo.Cancel(r.Context(), id); HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	h.logger.Info("run cancelled", "run_id", id)
	Success(w, RunFromDomain(*run))
}

// DownloadResult обрабатывает GET /api/v1/results/{filename}
func (h *Handler) DownloadResult(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	path, err := h.store.ResultPath(filename)
	if err != nil {
		NotFound(w, "result file not found")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}

// mustParseInt парсит число из строки, возвращая fallback при ошибке.
func mustParseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
