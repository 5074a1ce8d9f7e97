package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workflow — сохранённое определение цепочки табличных преобразований.
//
// Workflow — это "рецепт": граф узлов и рёбер без привязки к
// конкретному запуску. Один workflow имеет множество версий
// (WorkflowVersion); каждый запуск (Run) выполняет конкретную версию.
type Workflow struct {
	// ID — уникальный идентификатор workflow.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя (например, "monthly-report").
	Name string `json:"name"`

	// Description — описание назначения.
	Description string `json:"description,omitempty"`

	// IsActive — флаг активности. Неактивные workflows не запускаются
	// по расписанию.
	IsActive bool `json:"is_active"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// WorkflowVersion — версия workflow с конкретным графом.
//
// Версионирование позволяет откатываться и сравнивать запуски
// старых и новых вариантов графа.
type WorkflowVersion struct {
	// WorkflowID — ссылка на родительский workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// Version — номер версии (автоинкремент при создании).
	Version int `json:"version"`

	// Graph — граф преобразований этой версии.
	Graph Graph `json:"graph"`

	// CreatedAt — время создания версии.
	CreatedAt time.Time `json:"created_at"`
}
