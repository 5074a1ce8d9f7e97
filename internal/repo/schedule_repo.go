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

// ScheduleRepo — репозиторий расписаний.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo создаёт новый ScheduleRepo.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Create создаёт новое расписание.
func (r *ScheduleRepo) Create(ctx context.Context, s *domain.Schedule) error {
	datasetMapJSON, err := json.Marshal(s.DatasetMap)
	if err != nil {
		return fmt.Errorf("marshal dataset map: %w", err)
	}

	query := `
		INSERT INTO schedules (id, workflow_id, name, cron_expr, interval_sec, timezone,
		                       enabled, next_due_at, dataset_map, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.pool.Exec(ctx, query,
		s.ID,
		s.WorkflowID,
		s.Name,
		nullString(s.CronExpr),
		s.IntervalSec,
		s.Timezone,
		s.Enabled,
		s.NextDueAt,
		datasetMapJSON,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID возвращает расписание по ID.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := scheduleSelect + ` WHERE id = $1`
	return scanSchedule(r.pool.QueryRow(ctx, query, id))
}

// List возвращает все расписания workflow (nil — все).
func (r *ScheduleRepo) List(ctx context.Context, workflowID *uuid.UUID) ([]domain.Schedule, error) {
	query := scheduleSelect + `
		WHERE ($1::uuid IS NULL OR workflow_id = $1)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, nullUUID(workflowID))
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

// ListDue возвращает включённые расписания, чьё время подошло.
func (r *ScheduleRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error) {
	query := scheduleSelect + `
		WHERE enabled = TRUE AND next_due_at IS NOT NULL AND next_due_at <= $1
		ORDER BY next_due_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

// Update обновляет расписание.
func (r *ScheduleRepo) Update(ctx context.Context, s *domain.Schedule) error {
	datasetMapJSON, err := json.Marshal(s.DatasetMap)
	if err != nil {
		return fmt.Errorf("marshal dataset map: %w", err)
	}

	query := `
		UPDATE schedules
		SET name = $2, cron_expr = $3, interval_sec = $4, timezone = $5, enabled = $6,
		    next_due_at = $7, last_run_at = $8, last_run_id = $9, dataset_map = $10,
		    updated_at = $11
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Name,
		nullString(s.CronExpr),
		s.IntervalSec,
		s.Timezone,
		s.Enabled,
		s.NextDueAt,
		s.LastRunAt,
		s.LastRunID,
		datasetMapJSON,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет расписание.
func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const scheduleSelect = `
	SELECT id, workflow_id, name, cron_expr, interval_sec, timezone, enabled,
	       next_due_at, last_run_at, last_run_id, dataset_map, created_at, updated_at
	FROM schedules
`

// scanSchedule сканирует одну строку в Schedule.
func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var s domain.Schedule
	var cronExpr *string
	var datasetMapJSON []byte

	err := row.Scan(
		&s.ID,
		&s.WorkflowID,
		&s.Name,
		&cronExpr,
		&s.IntervalSec,
		&s.Timezone,
		&s.Enabled,
		&s.NextDueAt,
		&s.LastRunAt,
		&s.LastRunID,
		&datasetMapJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	if cronExpr != nil {
		s.CronExpr = *cronExpr
	}
	if datasetMapJSON != nil {
		if err := json.Unmarshal(datasetMapJSON, &s.DatasetMap); err != nil {
			return nil, fmt.Errorf("unmarshal dataset map: %w", err)
		}
	}
	return &s, nil
}
