package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/planner"
)

// PlanWorkflow обрабатывает POST /api/v1/ai/plan
//
// Строит граф из текстового описания задачи. Схемы входных датасетов
// передаются модели, чтобы она ссылалась на реальные имена колонок.
func (h *Handler) PlanWorkflow(w http.ResponseWriter, r *http.Request) {
	if h.planner == nil {
		Error(w, http.StatusServiceUnavailable, ErrCodeInvalidState, planner.ErrDisabled.Error())
		return
	}

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.Intent == "" {
		BadRequest(w, "intent is required")
		return
	}
	if len(req.DatasetIDs) == 0 {
		BadRequest(w, "at least one dataset_id is required")
		return
	}

	schemas := make([]planner.SheetSchema, 0, len(req.DatasetIDs))
	for _, raw := range req.DatasetIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			BadRequest(w, "invalid dataset id: "+raw)
			return
		}
		d, err := h.datasetRepo.GetByID(r.Context(), id)
		if HandleRepoError(w, h.logger, err, "dataset not found: "+raw) {
			return
		}
		for _, sheet := range d.Sheets {
			cols := make([]string, len(sheet.Columns))
			for i, c := range sheet.Columns {
				cols[i] = c.Name
			}
			schemas = append(schemas, planner.SheetSchema{
				Source:  d.ID.String(),
				Columns: cols,
			})
		}
	}

	graph, err := h.planner.Plan(r.Context(), req.Intent, schemas)
	if err != nil {
		var serr *engine.StructuralError
		if errors.As(err, &serr) {
			// Модель вернула структурно невалидный граф
			InvalidGraph(w, err)
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("workflow planned",
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges),
	)
	Success(w, PlanResponse{Graph: *graph})
}

// ExplainWorkflow обрабатывает POST /api/v1/ai/explain
// Возвращает текстовое описание того, что делает граф.
func (h *Handler) ExplainWorkflow(w http.ResponseWriter, r *http.Request) {
	if h.planner == nil {
		Error(w, http.StatusServiceUnavailable, ErrCodeInvalidState, planner.ErrDisabled.Error())
		return
	}

	var req ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Graph.Nodes) == 0 {
		BadRequest(w, "graph is required")
		return
	}

	text, err := h.planner.Explain(r.Context(), &req.Graph)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, ExplainResponse{Explanation: text})
}
