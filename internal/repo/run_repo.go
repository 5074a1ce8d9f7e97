package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Tabula/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create создаёт новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	datasetMapJSON, err := json.Marshal(run.DatasetMap)
	if err != nil {
		return fmt.Errorf("marshal dataset map: %w", err)
	}

	query := `
		INSERT INTO runs (id, workflow_id, version, status, dataset_map, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		run.WorkflowID,
		run.Version,
		run.Status,
		datasetMapJSON,
		nullString(run.IdempotencyKey),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := runSelect + ` WHERE id = $1`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey возвращает run по ключу идемпотентности.
func (r *RunRepo) GetByIdempotencyKey(ctx context.Context, workflowID uuid.UUID, key string) (*domain.Run, error) {
	query := runSelect + ` WHERE workflow_id = $1 AND idempotency_key = $2`
	return scanRun(r.pool.QueryRow(ctx, query, workflowID, key))
}

// List возвращает список runs с фильтрацией.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := runSelect + `
		WHERE ($1::uuid IS NULL OR workflow_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.WorkflowID),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// ListPending возвращает runs в статусе PENDING.
// Используется воркером как fallback на случай потери MQ-сообщения.
func (r *RunRepo) ListPending(ctx context.Context, limit int) ([]domain.Run, error) {
	query := runSelect + `
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// MarkRunning переводит run PENDING → RUNNING.
// Возвращает ErrInvalidState, если run уже подхвачен другим воркером.
func (r *RunRepo) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	query := `
		UPDATE runs
		SET status = 'RUNNING', started_at = $2
		WHERE id = $1 AND status = 'PENDING'
	`
	result, err := r.pool.Exec(ctx, query, id, startedAt)
	if err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// MarkFinished записывает терминальный статус и результаты run.
func (r *RunRepo) MarkFinished(ctx context.Context, run *domain.Run) error {
	nodeResultsJSON, err := json.Marshal(run.NodeResults)
	if err != nil {
		return fmt.Errorf("marshal node results: %w", err)
	}
	outputsJSON, err := json.Marshal(run.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}

	query := `
		UPDATE runs
		SET status = $2, node_results = $3, outputs = $4, error = $5, finished_at = $6
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		nodeResultsJSON,
		outputsJSON,
		nullString(run.Error),
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("mark run finished: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Cancel запрашивает отмену run. Допустима только из PENDING/RUNNING.
func (r *RunRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE runs
		SET status = 'CANCELLED', finished_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'RUNNING')
	`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("cancel run: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInvalidState
	}
	return nil
}

// IsCancelled проверяет, запрошена ли отмена run.
// Воркер опрашивает статус по ходу выполнения графа.
func (r *RunRepo) IsCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	var status domain.RunStatus
	err := r.pool.QueryRow(ctx, `SELECT status FROM runs WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("get run status: %w", err)
	}
	return status == domain.RunStatusCancelled, nil
}

// --- Helpers ---

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	WorkflowID *uuid.UUID
	Status     domain.RunStatus
	Limit      int
	Offset     int
}

const runSelect = `
	SELECT id, workflow_id, version, status, dataset_map, node_results, outputs,
	       error, idempotency_key, started_at, finished_at, created_at
	FROM runs
`

// scanRun сканирует одну строку в Run.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var datasetMapJSON, nodeResultsJSON, outputsJSON []byte
	var idempotencyKey *string
	var runError *string

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.Version,
		&run.Status,
		&datasetMapJSON,
		&nodeResultsJSON,
		&outputsJSON,
		&runError,
		&idempotencyKey,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if err := unmarshalRunJSON(&run, datasetMapJSON, nodeResultsJSON, outputsJSON); err != nil {
		return nil, err
	}
	if idempotencyKey != nil {
		run.IdempotencyKey = *idempotencyKey
	}
	if runError != nil {
		run.Error = *runError
	}
	return &run, nil
}

// collectRuns сканирует все строки результата.
func collectRuns(rows pgx.Rows) ([]domain.Run, error) {
	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// unmarshalRunJSON десериализует JSONB-поля run.
func unmarshalRunJSON(run *domain.Run, datasetMap, nodeResults, outputs []byte) error {
	if datasetMap != nil {
		if err := json.Unmarshal(datasetMap, &run.DatasetMap); err != nil {
			return fmt.Errorf("unmarshal dataset map: %w", err)
		}
	}
	if nodeResults != nil {
		if err := json.Unmarshal(nodeResults, &run.NodeResults); err != nil {
			return fmt.Errorf("unmarshal node results: %w", err)
		}
	}
	if outputs != nil {
		if err := json.Unmarshal(outputs, &run.Outputs); err != nil {
			return fmt.Errorf("unmarshal outputs: %w", err)
		}
	}
	return nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
