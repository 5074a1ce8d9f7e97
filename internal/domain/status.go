package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//	          (или) → CANCELLED (из PENDING или RUNNING)
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все узлы выполнены успешно.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — хотя бы одна ветка графа упала.
	// Результаты незатронутых веток при этом сохранены.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusCancelled — run отменён пользователем.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// NodeStatus — статус одного узла в рамках run.
type NodeStatus string

const (
	// NodeStatusPending — узел ещё не выполнялся.
	NodeStatusPending NodeStatus = "pending"

	// NodeStatusSuccess — узел выполнен, результат сохранён в контексте.
	NodeStatusSuccess NodeStatus = "success"

	// NodeStatusFailed — узел упал с типизированной ошибкой.
	NodeStatusFailed NodeStatus = "failed"

	// NodeStatusSkipped — узел пропущен из-за отказа выше по ветке.
	NodeStatusSkipped NodeStatus = "skipped"
)
