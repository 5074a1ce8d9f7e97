package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска workflow.
//
// Поддерживает cron-выражения ("0 9 * * *" — каждый день в 9:00)
// и фиксированные интервалы. Scheduler проверяет next_due_at и
// создаёт run, когда время подошло.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// WorkflowID — ссылка на запускаемый workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// Name — имя расписания для удобства.
	Name string `json:"name,omitempty"`

	// CronExpr — cron-выражение ("минуты часы дни месяцы дни_недели").
	// Если задано, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между запусками.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для вычисления времени (default: UTC).
	Timezone string `json:"timezone"`

	// Enabled — флаг активности расписания.
	Enabled bool `json:"enabled"`

	// NextDueAt — время следующего запуска.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastRunID — ID последнего созданного run.
	LastRunID *uuid.UUID `json:"last_run_id,omitempty"`

	// DatasetMap — переназначение датасетов для создаваемых runs
	// (см. Run.DatasetMap).
	DatasetMap map[string]string `json:"dataset_map,omitempty"`

	// CreatedAt — время создания schedule.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.IntervalSec > 0
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled || s.NextDueAt == nil {
		return false
	}
	return !now.Before(*s.NextDueAt)
}

// RecordRun записывает информацию о созданном run и следующем запуске.
func (s *Schedule) RecordRun(runID uuid.UUID, nextDue time.Time) {
	now := time.Now()
	s.LastRunAt = &now
	s.LastRunID = &runID
	s.NextDueAt = &nextDue
	s.UpdatedAt = now
}
