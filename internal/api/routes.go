package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Datasets
	mux.Handle("GET /api/v1/datasets", chain(http.HandlerFunc(h.ListDatasets)))
	mux.Handle("POST /api/v1/datasets", chain(http.HandlerFunc(h.UploadDataset)))
	mux.Handle("GET /api/v1/datasets/{id}", chain(http.HandlerFunc(h.GetDataset)))
	mux.Handle("GET /api/v1/datasets/{id}/preview", chain(http.HandlerFunc(h.PreviewDataset)))
	mux.Handle("DELETE /api/v1/datasets/{id}", chain(http.HandlerFunc(h.DeleteDataset)))

	// Workflows
	mux.Handle("GET /api/v1/workflows", chain(http.HandlerFunc(h.ListWorkflows)))
	mux.Handle("POST /api/v1/workflows", chain(http.HandlerFunc(h.CreateWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}", chain(http.HandlerFunc(h.GetWorkflow)))
	mux.Handle("PUT /api/v1/workflows/{id}", chain(http.HandlerFunc(h.UpdateWorkflow)))
	mux.Handle("DELETE /api/v1/workflows/{id}", chain(http.HandlerFunc(h.DeleteWorkflow)))

	// Workflow Versions
	mux.Handle("GET /api/v1/workflows/{id}/versions", chain(http.HandlerFunc(h.ListWorkflowVersions)))
	mux.Handle("POST /api/v1/workflows/{id}/versions", chain(http.HandlerFunc(h.CreateWorkflowVersion)))
	mux.Handle("GET /api/v1/workflows/{id}/versions/{version}", chain(http.HandlerFunc(h.GetWorkflowVersion)))

	// Синхронное выполнение ad-hoc графа
	mux.Handle("POST /api/v1/execute", chain(http.HandlerFunc(h.Execute)))
	mux.Handle("POST /api/v1/validate", chain(http.HandlerFunc(h.ValidateGraph)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("POST /api/v1/workflows/{id}/runs", chain(http.HandlerFunc(h.CreateRun)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	mux.Handle("POST /api/v1/runs/{id}/cancel", chain(http.HandlerFunc(h.CancelRun)))
	mux.Handle("GET /api/v1/results/{filename}", chain(http.HandlerFunc(h.DownloadResult)))

	// AI planner
	mux.Handle("POST /api/v1/ai/plan", chain(http.HandlerFunc(h.PlanWorkflow)))
	mux.Handle("POST /api/v1/ai/explain", chain(http.HandlerFunc(h.ExplainWorkflow)))

	// Schedules
	mux.Handle("GET /api/v1/schedules", chain(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("POST /api/v1/workflows/{id}/schedules", chain(http.HandlerFunc(h.CreateSchedule)))
	mux.Handle("GET /api/v1/schedules/{id}", chain(http.HandlerFunc(h.GetSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}", chain(http.HandlerFunc(h.UpdateSchedule)))
	mux.Handle("DELETE /api/v1/schedules/{id}", chain(http.HandlerFunc(h.DeleteSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}/enabled", chain(http.HandlerFunc(h.SetScheduleEnabled)))
}
