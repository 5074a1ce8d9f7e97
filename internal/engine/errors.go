package engine

import (
	"errors"
	"fmt"
)

// Структурные ошибки графа (фаза валидации).
var (
	// ErrEmptyGraph — граф не содержит узлов.
	ErrEmptyGraph = errors.New("graph has no nodes")

	// ErrDuplicateNodeID — несколько узлов с одинаковым id.
	ErrDuplicateNodeID = errors.New("duplicate node id")

	// ErrUnknownNodeRef — ребро ссылается на несуществующий узел.
	ErrUnknownNodeRef = errors.New("edge references unknown node")

	// ErrInvalidSlot — отрицательный или недопустимый для вида узла слот.
	ErrInvalidSlot = errors.New("invalid input slot")

	// ErrSlotConflict — два ребра претендуют на один входной слот.
	ErrSlotConflict = errors.New("input slot bound twice")

	// ErrArityExceeded — узел получает больше входов, чем допускает его вид.
	ErrArityExceeded = errors.New("node exceeds max input arity")

	// ErrUnboundSlot — обязательный входной слот не заполнен.
	ErrUnboundSlot = errors.New("required input slot not bound")

	// ErrCycle — в графе обнаружен цикл.
	ErrCycle = errors.New("graph contains a cycle")

	// ErrUnboundSource — source-узел не привязан к входному датасету.
	ErrUnboundSource = errors.New("source node has no bound dataset")

	// ErrOrphanOutput — output-узел без входящего ребра.
	ErrOrphanOutput = errors.New("output node has no incoming edge")
)

// StructuralError — ошибка структуры графа.
//
// Всегда фатальна: выполнение не начинается, ни один узел не
// вычисляется даже частично.
type StructuralError struct {
	// NodeID — узел, на котором обнаружено нарушение (может быть пустым).
	NodeID string

	// Message — описание нарушения.
	Message string

	// Err — базовая sentinel-ошибка.
	Err error
}

// Error реализует интерфейс error.
func (e *StructuralError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *StructuralError) Unwrap() error {
	return e.Err
}

// newStructuralError создаёт StructuralError.
func newStructuralError(nodeID, message string, err error) *StructuralError {
	return &StructuralError{NodeID: nodeID, Message: message, Err: err}
}

// Reason — типизированная причина отказа узла.
//
// Значения — ровно те, что видит пользователь в ленте ошибок run'а;
// scheduler передаёт их наружу без преобразования.
type Reason string

const (
	// ReasonMissingBinding — source-узел без привязанного датасета.
	ReasonMissingBinding Reason = "MissingBinding"

	// ReasonUnknownColumn — параметры ссылаются на отсутствующую колонку.
	ReasonUnknownColumn Reason = "UnknownColumn"

	// ReasonTypeMismatch — операция неприменима к типу колонки.
	ReasonTypeMismatch Reason = "TypeMismatch"

	// ReasonInvalidParameter — некорректные параметры узла.
	ReasonInvalidParameter Reason = "InvalidParameter"
)

// NodeError — отказ одного узла при выполнении.
//
// Фатален только для потомков упавшего узла: независимые ветки
// продолжают выполняться, их результаты возвращаются вместе со
// списком таких ошибок.
type NodeError struct {
	// NodeID — упавший узел.
	NodeID string

	// Reason — типизированная причина.
	Reason Reason

	// Message — подробности для пользователя.
	Message string
}

// Error реализует интерфейс error.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %s", e.NodeID, e.Reason, e.Message)
}

// NewNodeError создаёт NodeError.
func NewNodeError(nodeID string, reason Reason, format string, args ...any) *NodeError {
	return &NodeError{
		NodeID:  nodeID,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsNodeError приводит произвольную ошибку вычислителя к NodeError.
// Нетипизированные ошибки получают причину InvalidParameter.
func AsNodeError(err error, nodeID string) *NodeError {
	var ne *NodeError
	if errors.As(err, &ne) {
		if ne.NodeID == "" {
			ne.NodeID = nodeID
		}
		return ne
	}
	return &NodeError{NodeID: nodeID, Reason: ReasonInvalidParameter, Message: err.Error()}
}

// Warning — нефатальное замечание по ходу выполнения узла
// (например, строки, выпавшие из фильтра из-за несовпадения типов).
type Warning struct {
	// NodeID — узел, к которому относится замечание.
	NodeID string `json:"node_id"`

	// Message — текст замечания.
	Message string `json:"message"`
}
