package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
)

// ListWorkflows обрабатывает GET /api/v1/workflows
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.workflowRepo.List(r.Context())
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	resp := make([]WorkflowResponse, 0, len(workflows))
	for _, wf := range workflows {
		resp = append(resp, WorkflowFromDomain(wf))
	}
	List(w, resp, len(resp))
}

// CreateWorkflow обрабатывает POST /api/v1/workflows
// Если в запросе задан graph, сразу создаётся первая версия.
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if req.Graph != nil {
		if err := engine.ValidateStructure(req.Graph); err != nil {
			InvalidGraph(w, err)
			return
		}
	}

	wf := &domain.Workflow{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	if err := h.workflowRepo.Create(r.Context(), wf); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	if req.Graph != nil {
		if _, err := h.workflowRepo.CreateVersion(r.Context(), wf.ID, *req.Graph); err != nil {
			InternalError(w, h.logger, err)
			return
		}
	}

	h.logger.Info("workflow created", "workflow_id", wf.ID, "name", wf.Name)
	Created(w, WorkflowFromDomain(*wf))
}

// GetWorkflow обрабатывает GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// UpdateWorkflow обрабатывает PUT /api/v1/workflows/{id}
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req UpdateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	if req.Name != nil {
		wf.Name = *req.Name
	}
	if req.Description != nil {
		wf.Description = *req.Description
	}
	if req.IsActive != nil {
		wf.IsActive = *req.IsActive
	}

	if err := h.workflowRepo.Update(r.Context(), wf); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// DeleteWorkflow обрабатывает DELETE /api/v1/workflows/{id}
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	if err := h.workflowRepo.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	h.logger.Info("workflow deleted", "workflow_id", id)
	NoContent(w)
}

// ListWorkflowVersions обрабатывает GET /api/v1/workflows/{id}/versions
func (h *Handler) ListWorkflowVersions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	if _, err := h.workflowRepo.GetByID(r.Context(), id); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	versions, err := h.workflowRepo.ListVersions(r.Context(), id)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	resp := make([]WorkflowVersionResponse, 0, len(versions))
	for _, v := range versions {
		resp = append(resp, WorkflowVersionFromDomain(v))
	}
	List(w, resp, len(resp))
}

// CreateWorkflowVersion обрабатывает POST /api/v1/workflows/{id}/versions
// Граф проходит структурную валидацию: невалидная версия не сохраняется.
func (h *Handler) CreateWorkflowVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req CreateWorkflowVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	if err := engine.ValidateStructure(&req.Graph); err != nil {
		InvalidGraph(w, err)
		return
	}

	if _, err := h.workflowRepo.GetByID(r.Context(), id); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	wv, err := h.workflowRepo.CreateVersion(r.Context(), id, req.Graph)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("workflow version created",
		"workflow_id", id,
		"version", wv.Version,
		"nodes", len(req.Graph.Nodes),
	)
	Created(w, WorkflowVersionFromDomain(*wv))
}

// GetWorkflowVersion обрабатывает GET /api/v1/workflows/{id}/versions/{version}
func (h *Handler) GetWorkflowVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	version := mustParseInt(r.PathValue("version"), 0)
	if version <= 0 {
		BadRequest(w, "invalid version number")
		return
	}

	wv, err := h.workflowRepo.GetVersion(r.Context(), id, version)
	if HandleRepoError(w, h.logger, err, "workflow version not found") {
		return
	}

	Success(w, WorkflowVersionFromDomain(*wv))
}
