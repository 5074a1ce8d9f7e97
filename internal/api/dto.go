package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/table"
)

// Workflow DTOs

// CreateWorkflowRequest — запрос на создание workflow.
// Graph опционален: если задан, сразу создаётся первая версия.
type CreateWorkflowRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Graph       *domain.Graph `json:"graph,omitempty"`
}

// UpdateWorkflowRequest — запрос на обновление workflow.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// WorkflowResponse — ответ с workflow.
type WorkflowResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(w domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		IsActive:    w.IsActive,
		CreatedAt:   w.CreatedAt,
	}
}

// WorkflowVersion DTOs

// CreateWorkflowVersionRequest — запрос на создание версии workflow.
type CreateWorkflowVersionRequest struct {
	Graph domain.Graph `json:"graph"`
}

// WorkflowVersionResponse — ответ с версией workflow.
type WorkflowVersionResponse struct {
	WorkflowID uuid.UUID    `json:"workflow_id"`
	Version    int          `json:"version"`
	Graph      domain.Graph `json:"graph"`
	CreatedAt  time.Time    `json:"created_at"`
}

// WorkflowVersionFromDomain конвертирует domain.WorkflowVersion.
func WorkflowVersionFromDomain(v domain.WorkflowVersion) WorkflowVersionResponse {
	return WorkflowVersionResponse{
		WorkflowID: v.WorkflowID,
		Version:    v.Version,
		Graph:      v.Graph,
		CreatedAt:  v.CreatedAt,
	}
}

// Dataset DTOs

// DatasetResponse — ответ с датасетом.
type DatasetResponse struct {
	ID           uuid.UUID          `json:"id"`
	OriginalName string             `json:"original_name"`
	Kind         string             `json:"kind"`
	Sheets       []domain.SheetInfo `json:"sheets"`
	CreatedAt    time.Time          `json:"created_at"`
}

// DatasetFromDomain конвертирует domain.Dataset в DatasetResponse.
func DatasetFromDomain(d domain.Dataset) DatasetResponse {
	return DatasetResponse{
		ID:           d.ID,
		OriginalName: d.OriginalName,
		Kind:         d.Kind,
		Sheets:       d.Sheets,
		CreatedAt:    d.CreatedAt,
	}
}

// PreviewResponse — первые строки листа датасета.
type PreviewResponse struct {
	Sheet   string           `json:"sheet"`
	Columns []table.Column   `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Total   int              `json:"total"`
}

// Run DTOs

// CreateRunRequest — запрос на создание run.
type CreateRunRequest struct {
	Version        *int              `json:"version,omitempty"`
	DatasetMap     map[string]string `json:"dataset_map,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID             uuid.UUID                    `json:"id"`
	WorkflowID     uuid.UUID                    `json:"workflow_id"`
	Version        int                          `json:"version"`
	Status         string                       `json:"status"`
	DatasetMap     map[string]string            `json:"dataset_map,omitempty"`
	NodeResults    map[string]domain.NodeResult `json:"node_results,omitempty"`
	Outputs        map[string]string            `json:"outputs,omitempty"`
	Error          string                       `json:"error,omitempty"`
	IdempotencyKey string                       `json:"idempotency_key,omitempty"`
	StartedAt      *time.Time                   `json:"started_at,omitempty"`
	FinishedAt     *time.Time                   `json:"finished_at,omitempty"`
	CreatedAt      time.Time                    `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:             r.ID,
		WorkflowID:     r.WorkflowID,
		Version:        r.Version,
		Status:         string(r.Status),
		DatasetMap:     r.DatasetMap,
		NodeResults:    r.NodeResults,
		Outputs:        r.Outputs,
		Error:          r.Error,
		IdempotencyKey: r.IdempotencyKey,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		CreatedAt:      r.CreatedAt,
	}
}

// Execute DTOs

// ExecuteRequest — запрос на синхронное выполнение графа.
type ExecuteRequest struct {
	Graph domain.Graph `json:"graph"`

	// DatasetMap — переназначение dataset_id source-узлов.
	DatasetMap map[string]string `json:"dataset_map,omitempty"`

	// PreviewRows — сколько строк каждого выхода вернуть в ответе
	// (default: 50).
	PreviewRows int `json:"preview_rows,omitempty"`
}

// ExecuteResponse — результат синхронного выполнения.
type ExecuteResponse struct {
	NodeResults map[string]domain.NodeResult `json:"node_results"`
	Outputs     map[string]OutputPreview     `json:"outputs"`
	Errors      []NodeErrorDTO               `json:"errors,omitempty"`
	Warnings    []WarningDTO                 `json:"warnings,omitempty"`
	Cancelled   bool                         `json:"cancelled,omitempty"`
}

// OutputPreview — один выход графа: первые строки и файл выгрузки.
type OutputPreview struct {
	Columns []table.Column   `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Total   int              `json:"total"`
	File    string           `json:"file,omitempty"`
}

// NodeErrorDTO — отказ узла в ответе API.
type NodeErrorDTO struct {
	NodeID  string `json:"node_id"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// WarningDTO — замечание узла в ответе API.
type WarningDTO struct {
	NodeID  string `json:"node_id"`
	Message string `json:"message"`
}

// AI DTOs

// PlanRequest — запрос на построение графа из текста.
type PlanRequest struct {
	// Intent — описание задачи на естественном языке.
	Intent string `json:"intent"`

	// DatasetIDs — датасеты, доступные будущему графу.
	DatasetIDs []string `json:"dataset_ids"`
}

// PlanResponse — построенный граф.
type PlanResponse struct {
	Graph domain.Graph `json:"graph"`
}

// ExplainRequest — запрос на объяснение графа.
type ExplainRequest struct {
	Graph domain.Graph `json:"graph"`
}

// ExplainResponse — текстовое объяснение графа.
type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name        string            `json:"name"`
	CronExpr    string            `json:"cron_expr,omitempty"`
	IntervalSec int               `json:"interval_sec,omitempty"`
	Timezone    string            `json:"timezone,omitempty"`
	Enabled     bool              `json:"enabled"`
	DatasetMap  map[string]string `json:"dataset_map,omitempty"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string            `json:"name,omitempty"`
	CronExpr    *string            `json:"cron_expr,omitempty"`
	IntervalSec *int               `json:"interval_sec,omitempty"`
	Timezone    *string            `json:"timezone,omitempty"`
	DatasetMap  *map[string]string `json:"dataset_map,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID          uuid.UUID         `json:"id"`
	WorkflowID  uuid.UUID         `json:"workflow_id"`
	Name        string            `json:"name"`
	CronExpr    string            `json:"cron_expr,omitempty"`
	IntervalSec int               `json:"interval_sec,omitempty"`
	Timezone    string            `json:"timezone"`
	Enabled     bool              `json:"enabled"`
	NextDueAt   *time.Time        `json:"next_due_at,omitempty"`
	LastRunAt   *time.Time        `json:"last_run_at,omitempty"`
	LastRunID   *uuid.UUID        `json:"last_run_id,omitempty"`
	DatasetMap  map[string]string `json:"dataset_map,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:          s.ID,
		WorkflowID:  s.WorkflowID,
		Name:        s.Name,
		CronExpr:    s.CronExpr,
		IntervalSec: s.IntervalSec,
		Timezone:    s.Timezone,
		Enabled:     s.Enabled,
		NextDueAt:   s.NextDueAt,
		LastRunAt:   s.LastRunAt,
		LastRunID:   s.LastRunID,
		DatasetMap:  s.DatasetMap,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
