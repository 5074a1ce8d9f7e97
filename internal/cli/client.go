package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из API.
type WorkflowResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

// WorkflowVersionResponse — версия workflow из API.
type WorkflowVersionResponse struct {
	WorkflowID string         `json:"workflow_id"`
	Version    int            `json:"version"`
	Graph      map[string]any `json:"graph"`
	CreatedAt  string         `json:"created_at"`
}

// DatasetResponse — датасет из API.
type DatasetResponse struct {
	ID           string          `json:"id"`
	OriginalName string          `json:"original_name"`
	Kind         string          `json:"kind"`
	Sheets       []SheetResponse `json:"sheets"`
	CreatedAt    string          `json:"created_at"`
}

// SheetResponse — лист датасета из API.
type SheetResponse struct {
	Name     string           `json:"name"`
	Columns  []map[string]any `json:"columns"`
	RowCount int              `json:"row_count"`
}

// PreviewResponse — превью листа датасета из API.
type PreviewResponse struct {
	Sheet   string           `json:"sheet"`
	Columns []map[string]any `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Total   int              `json:"total"`
}

// RunResponse — run из API.
type RunResponse struct {
	ID          string                    `json:"id"`
	WorkflowID  string                    `json:"workflow_id"`
	Version     int                       `json:"version"`
	Status      string                    `json:"status"`
	NodeResults map[string]map[string]any `json:"node_results,omitempty"`
	Outputs     map[string]string         `json:"outputs,omitempty"`
	Error       string                    `json:"error,omitempty"`
	StartedAt   string                    `json:"started_at,omitempty"`
	FinishedAt  string                    `json:"finished_at,omitempty"`
	CreatedAt   string                    `json:"created_at"`
}

// ScheduleResponse — schedule из API.
type ScheduleResponse struct {
	ID          string            `json:"id"`
	WorkflowID  string            `json:"workflow_id"`
	Name        string            `json:"name"`
	CronExpr    string            `json:"cron_expr,omitempty"`
	IntervalSec int               `json:"interval_sec,omitempty"`
	Timezone    string            `json:"timezone"`
	Enabled     bool              `json:"enabled"`
	NextDueAt   string            `json:"next_due_at,omitempty"`
	LastRunAt   string            `json:"last_run_at,omitempty"`
	LastRunID   string            `json:"last_run_id,omitempty"`
	DatasetMap  map[string]string `json:"dataset_map,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// --- Request types ---

// CreateWorkflowRequest — создание workflow.
type CreateWorkflowRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateWorkflowRequest — обновление workflow.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CreateRunRequest — создание run.
type CreateRunRequest struct {
	Version        *int              `json:"version,omitempty"`
	DatasetMap     map[string]string `json:"dataset_map,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	Name        string            `json:"name"`
	CronExpr    string            `json:"cron_expr,omitempty"`
	IntervalSec int               `json:"interval_sec,omitempty"`
	Timezone    string            `json:"timezone,omitempty"`
	Enabled     bool              `json:"enabled"`
	DatasetMap  map[string]string `json:"dataset_map,omitempty"`
}

// UpdateScheduleRequest — обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string `json:"name,omitempty"`
	CronExpr    *string `json:"cron_expr,omitempty"`
	IntervalSec *int    `json:"interval_sec,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
}

// ListRunsOpts — параметры фильтрации runs.
type ListRunsOpts struct {
	WorkflowID string
	Status     string
	Limit      int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		NodeID  string `json:"node_id,omitempty"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Tabula API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Datasets ---

// ListDatasets возвращает все датасеты.
func (c *Client) ListDatasets() ([]DatasetResponse, error) {
	var datasets []DatasetResponse
	err := c.list("/api/v1/datasets", nil, &datasets)
	return datasets, err
}

// UploadDataset загружает файл как датасет.
func (c *Client) UploadDataset(path string) (*DatasetResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/v1/datasets", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return nil, err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var d DatasetResponse
	err = json.Unmarshal(dr.Data, &d)
	return &d, err
}

// GetDataset возвращает датасет по ID.
func (c *Client) GetDataset(id string) (*DatasetResponse, error) {
	var d DatasetResponse
	err := c.get("/api/v1/datasets/"+id, &d)
	return &d, err
}

// PreviewDataset возвращает первые строки листа датасета.
func (c *Client) PreviewDataset(id, sheet string, rows int) (*PreviewResponse, error) {
	params := url.Values{}
	if sheet != "" {
		params.Set("sheet", sheet)
	}
	if rows > 0 {
		params.Set("rows", fmt.Sprintf("%d", rows))
	}

	path := "/api/v1/datasets/" + id + "/preview"
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	var p PreviewResponse
	err := c.get(path, &p)
	return &p, err
}

// DeleteDataset удаляет датасет.
func (c *Client) DeleteDataset(id string) error {
	return c.delete("/api/v1/datasets/" + id)
}

// --- Workflows ---

// ListWorkflows возвращает все workflows.
func (c *Client) ListWorkflows() ([]WorkflowResponse, error) {
	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", nil, &workflows)
	return workflows, err
}

// CreateWorkflow создаёт новый workflow.
func (c *Client) CreateWorkflow(req CreateWorkflowRequest) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.post("/api/v1/workflows", req, &wf)
	return &wf, err
}

// GetWorkflow возвращает workflow по ID.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &wf)
	return &wf, err
}

// UpdateWorkflow обновляет workflow.
func (c *Client) UpdateWorkflow(id string, req UpdateWorkflowRequest) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.put("/api/v1/workflows/"+id, req, &wf)
	return &wf, err
}

// DeleteWorkflow удаляет workflow.
func (c *Client) DeleteWorkflow(id string) error {
	return c.delete("/api/v1/workflows/" + id)
}

// ListVersions возвращает версии workflow.
func (c *Client) ListVersions(workflowID string) ([]WorkflowVersionResponse, error) {
	var versions []WorkflowVersionResponse
	err := c.list("/api/v1/workflows/"+workflowID+"/versions", nil, &versions)
	return versions, err
}

// CreateVersion создаёт новую версию workflow из графа.
func (c *Client) CreateVersion(workflowID string, graph json.RawMessage) (*WorkflowVersionResponse, error) {
	body := map[string]json.RawMessage{"graph": graph}
	var version WorkflowVersionResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/versions", body, &version)
	return &version, err
}

// --- Runs ---

// ListRuns возвращает список runs с фильтрацией.
func (c *Client) ListRuns(opts ListRunsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.WorkflowID != "" {
		params.Set("workflow_id", opts.WorkflowID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/runs", params, &runs)
	return runs, err
}

// CreateRun создаёт run для workflow.
func (c *Client) CreateRun(workflowID string, req CreateRunRequest) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/runs", req, &run)
	return &run, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+id, &run)
	return &run, err
}

// CancelRun отменяет run.
func (c *Client) CancelRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/runs/"+id+"/cancel", nil, &run)
	return &run, err
}

// DownloadResult скачивает файл результата в localPath.
func (c *Client) DownloadResult(filename, localPath string) error {
	resp, err := c.do(http.MethodGet, "/api/v1/results/"+filename, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}

// --- Schedules ---

// ListSchedules возвращает schedules. Если workflowID не пустой — фильтрует.
func (c *Client) ListSchedules(workflowID string) ([]ScheduleResponse, error) {
	params := url.Values{}
	if workflowID != "" {
		params.Set("workflow_id", workflowID)
	}

	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт schedule для workflow.
func (c *Client) CreateSchedule(workflowID string, req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает schedule по ID.
func (c *Client) GetSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get("/api/v1/schedules/"+id, &schedule)
	return &schedule, err
}

// UpdateSchedule обновляет schedule.
func (c *Client) UpdateSchedule(id string, req UpdateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.put("/api/v1/schedules/"+id, req, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет schedule.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete("/api/v1/schedules/" + id)
}

// EnableSchedule включает schedule.
func (c *Client) EnableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": true}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// DisableSchedule выключает schedule.
func (c *Client) DisableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": false}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	if er.Error.NodeID != "" {
		return fmt.Errorf("%s: %s (node %s)", er.Error.Code, er.Error.Message, er.Error.NodeID)
	}
	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
