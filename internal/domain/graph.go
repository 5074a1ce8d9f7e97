package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// NodeKind — вид узла workflow-графа.
type NodeKind string

const (
	// NodeKindSource — источник: отдаёт привязанный входной датасет.
	NodeKindSource NodeKind = "source"

	// NodeKindSelect — проекция: оставляет только перечисленные колонки.
	NodeKindSelect NodeKind = "select"

	// NodeKindFilter — фильтрация строк по предикату.
	NodeKindFilter NodeKind = "filter"

	// NodeKindCompute — вычисляемая колонка по арифметическому выражению.
	NodeKindCompute NodeKind = "compute"

	// NodeKindMerge — реляционное соединение двух и более входов.
	NodeKindMerge NodeKind = "merge"

	// NodeKindGroupAggregate — группировка с агрегатами.
	NodeKindGroupAggregate NodeKind = "group_aggregate"

	// NodeKindOutput — терминальный узел: помечает результат именем.
	NodeKindOutput NodeKind = "output"
)

// ErrUnknownNodeKind — неизвестный вид узла.
var ErrUnknownNodeKind = errors.New("unknown node kind")

// validNodeKinds — допустимые виды узлов.
var validNodeKinds = map[NodeKind]bool{
	NodeKindSource:         true,
	NodeKindSelect:         true,
	NodeKindFilter:         true,
	NodeKindCompute:        true,
	NodeKindMerge:          true,
	NodeKindGroupAggregate: true,
	NodeKindOutput:         true,
}

// IsValidNodeKind проверяет, что вид узла известен.
func IsValidNodeKind(k NodeKind) bool {
	return validNodeKinds[k]
}

// MinInputs возвращает минимальную входную арность узла данного вида.
func (k NodeKind) MinInputs() int {
	switch k {
	case NodeKindSource:
		return 0
	case NodeKindMerge:
		return 2
	default:
		return 1
	}
}

// MaxInputs возвращает максимальную входную арность.
// -1 означает "без ограничения" (merge принимает N входов).
func (k NodeKind) MaxInputs() int {
	switch k {
	case NodeKindSource:
		return 0
	case NodeKindMerge:
		return -1
	default:
		return 1
	}
}

// Node — один узел workflow-графа.
type Node struct {
	// ID — уникальный в рамках графа идентификатор узла.
	ID string `json:"id"`

	// Kind — вид узла.
	Kind NodeKind `json:"kind"`

	// Label — человекочитаемое имя для UI.
	Label string `json:"label,omitempty"`

	// Params — параметры, специфичные для вида узла.
	// Конкретный тип определяется Kind (tagged union).
	Params Params `json:"params,omitempty"`
}

// Edge — ориентированное ребро: выход source-узла подключён
// к входному слоту target-узла.
//
// Для merge порядок входов определяется слотом (0 — левый), а не
// порядком появления рёбер в списке.
type Edge struct {
	// Source — id узла-производителя.
	Source string `json:"source"`

	// Target — id узла-потребителя.
	Target string `json:"target"`

	// Slot — индекс входного слота target-узла (с нуля).
	Slot int `json:"slot"`
}

// Graph — workflow-граф: множества узлов и рёбер.
//
// Инвариант (проверяется engine.Validate): граф ацикличен, все
// обязательные слоты заполнены, каждый source привязан к датасету.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node возвращает узел по id.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// SourceNodes возвращает все узлы вида source.
func (g *Graph) SourceNodes() []*Node {
	var out []*Node
	for i := range g.Nodes {
		if g.Nodes[i].Kind == NodeKindSource {
			out = append(out, &g.Nodes[i])
		}
	}
	return out
}

// rawNode — промежуточная форма узла для JSON (де)сериализации.
type rawNode struct {
	ID     string          `json:"id"`
	Kind   NodeKind        `json:"kind"`
	Label  string          `json:"label,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// UnmarshalJSON декодирует узел, выбирая конкретный тип параметров
// по полю kind. Параметры валидируются здесь же — при конструировании,
// а не в момент выполнения.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if !IsValidNodeKind(raw.Kind) {
		return fmt.Errorf("node %s: %w: %s", raw.ID, ErrUnknownNodeKind, raw.Kind)
	}

	params, err := unmarshalParams(raw.Kind, raw.Params)
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}

	n.ID = raw.ID
	n.Kind = raw.Kind
	n.Label = raw.Label
	n.Params = params
	return nil
}

// MarshalJSON кодирует узел вместе с параметрами.
func (n Node) MarshalJSON() ([]byte, error) {
	var params json.RawMessage
	if n.Params != nil {
		b, err := json.Marshal(n.Params)
		if err != nil {
			return nil, err
		}
		params = b
	}
	return json.Marshal(rawNode{
		ID:     n.ID,
		Kind:   n.Kind,
		Label:  n.Label,
		Params: params,
	})
}
