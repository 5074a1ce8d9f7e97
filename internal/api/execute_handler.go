package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/dataset"
	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
)

const (
	// executeTimeout — предел синхронного выполнения графа.
	executeTimeout = 5 * time.Minute

	// defaultPreviewRows — сколько строк выхода возвращается,
	// если клиент не попросил иначе.
	defaultPreviewRows = 50
)

// Execute обрабатывает POST /api/v1/execute
//
// Синхронное выполнение ad-hoc графа без сохранения workflow и run:
// граф из тела запроса выполняется сразу, выходы возвращаются в ответе
// как превью и выгружаются в файлы результатов.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Graph.Nodes) == 0 {
		BadRequest(w, "graph is required")
		return
	}

	previewRows := req.PreviewRows
	if previewRows <= 0 {
		previewRows = defaultPreviewRows
	}

	ctx, cancel := context.WithTimeout(r.Context(), executeTimeout)
	defer cancel()

	bindings := h.resolveBindings(ctx, &req.Graph, req.DatasetMap)

	sched := engine.NewScheduler(h.registry, h.logger)
	result, err := sched.Run(ctx, &req.Graph, bindings)
	if err != nil {
		InvalidGraph(w, err)
		return
	}

	shortID := strings.Split(uuid.New().String(), "-")[0]
	resp := ExecuteResponse{
		NodeResults: nodeResultsFromEngine(result),
		Outputs:     make(map[string]OutputPreview, len(result.Outputs)),
		Cancelled:   result.Cancelled,
	}

	for name, t := range result.Outputs {
		preview := OutputPreview{
			Columns: t.Columns(),
			Rows:    t.Records(previewRows),
			Total:   t.NumRows(),
		}
		filename := fmt.Sprintf("%s_%s.xlsx", name, shortID)
		if saved, err := h.store.ExportResult(filename, t); err != nil {
			h.logger.Error("failed to export output", "output", name, "error", err)
		} else {
			preview.File = saved
		}
		resp.Outputs[name] = preview
	}

	for _, ne := range result.Errors {
		resp.Errors = append(resp.Errors, NodeErrorDTO{
			NodeID:  ne.NodeID,
			Reason:  string(ne.Reason),
			Message: ne.Message,
		})
	}
	for _, warn := range result.Warnings {
		resp.Warnings = append(resp.Warnings, WarningDTO{
			NodeID:  warn.NodeID,
			Message: warn.Message,
		})
	}

	Success(w, resp)
}

// ValidateGraph обрабатывает POST /api/v1/validate
//
// Структурная проверка графа без выполнения. Если передан dataset_map,
// дополнительно проверяются привязки source-узлов.
func (h *Handler) ValidateGraph(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Graph.Nodes) == 0 {
		BadRequest(w, "graph is required")
		return
	}

	var err error
	if len(req.DatasetMap) > 0 {
		bindings := h.resolveBindings(r.Context(), &req.Graph, req.DatasetMap)
		err = engine.Validate(&req.Graph, bindings)
	} else {
		err = engine.ValidateStructure(&req.Graph)
	}
	if err != nil {
		InvalidGraph(w, err)
		return
	}

	Success(w, map[string]bool{"valid": true})
}

// resolveBindings загружает датасеты source-узлов графа.
// datasetMap переназначает dataset_id из параметров узла. Ошибка
// загрузки оставляет source без привязки: его ветка упадёт с
// MissingBinding, не прерывая остальные.
func (h *Handler) resolveBindings(ctx context.Context, graph *domain.Graph, datasetMap map[string]string) engine.Bindings {
	bindings := engine.Bindings{}

	for _, node := range graph.SourceNodes() {
		params, ok := node.Params.(*domain.SourceParams)
		if !ok {
			continue
		}

		datasetID := params.DatasetID
		if mapped, ok := datasetMap[datasetID]; ok {
			datasetID = mapped
		}

		id, err := uuid.Parse(datasetID)
		if err != nil {
			h.logger.Warn("invalid dataset id for source node",
				"node_id", node.ID, "dataset_id", datasetID)
			continue
		}

		d, err := h.datasetRepo.GetByID(ctx, id)
		if err != nil {
			h.logger.Warn("dataset not found for source node",
				"node_id", node.ID, "dataset_id", datasetID, "error", err)
			continue
		}

		t, err := h.store.Open(d, params.Sheet, dataset.LoadOptions{})
		if err != nil {
			h.logger.Warn("failed to load dataset for source node",
				"node_id", node.ID, "dataset_id", datasetID, "error", err)
			continue
		}

		bindings[node.ID] = t
	}

	return bindings
}

// nodeResultsFromEngine собирает итоги по узлам для ответа API.
func nodeResultsFromEngine(result *engine.Result) map[string]domain.NodeResult {
	results := make(map[string]domain.NodeResult, len(result.NodeStatus))

	for nodeID, status := range result.NodeStatus {
		nr := domain.NodeResult{Status: status}
		if t, ok := result.Context.Result(nodeID); ok {
			nr.Rows = t.NumRows()
			nr.Columns = t.ColumnNames()
		}
		results[nodeID] = nr
	}

	for _, ne := range result.Errors {
		nr := results[ne.NodeID]
		nr.Reason = string(ne.Reason)
		nr.Error = ne.Message
		results[ne.NodeID] = nr
	}

	return results
}
