package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — экземпляр выполнения workflow.
//
// Run создаётся когда:
// - Пользователь запускает workflow вручную (через API/CLI)
// - Scheduler создаёт run по расписанию
//
// Каждый run выполняет конкретную версию workflow над конкретным
// набором датасетов и хранит результаты по каждому узлу.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// WorkflowID — ссылка на выполняемый workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// Version — версия workflow.
	Version int `json:"version"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// DatasetMap — переназначение датасетов: dataset_id из графа →
	// dataset_id, который нужно использовать в этом запуске.
	// Позволяет выполнять сохранённый workflow над свежезагруженными
	// файлами без правки графа.
	DatasetMap map[string]string `json:"dataset_map,omitempty"`

	// NodeResults — результаты по каждому узлу (для подсветки в UI).
	NodeResults map[string]NodeResult `json:"node_results,omitempty"`

	// Outputs — имя назначения → имя экспортированного файла.
	Outputs map[string]string `json:"outputs,omitempty"`

	// Error — сообщение об ошибке, если run упал целиком
	// (структурная ошибка графа или инфраструктурный сбой).
	Error string `json:"error,omitempty"`

	// IdempotencyKey — ключ идемпотентности (для scheduler).
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NodeResult — итог выполнения одного узла в рамках run.
type NodeResult struct {
	// Status — статус узла.
	Status NodeStatus `json:"status"`

	// Rows — количество строк результата (для успешных узлов).
	Rows int `json:"rows,omitempty"`

	// Columns — имена колонок результата.
	Columns []string `json:"columns,omitempty"`

	// Reason — типизированная причина отказа (UnknownColumn и т.п.).
	Reason string `json:"reason,omitempty"`

	// Error — сообщение об ошибке узла.
	Error string `json:"error,omitempty"`
}
