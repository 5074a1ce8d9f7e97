package engine

import (
	"context"
	"log/slog"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/table"
)

// EvalRequest — запрос на вычисление одного узла.
type EvalRequest struct {
	// Node — вычисляемый узел с параметрами.
	Node *domain.Node

	// Inputs — входные таблицы по слотам. Для source-узла единственный
	// вход — привязанный датасет.
	Inputs []*table.Table
}

// EvalResponse — результат вычисления узла.
type EvalResponse struct {
	// Table — итоговая таблица узла.
	Table *table.Table

	// Warnings — нефатальные замечания (например, строки, не прошедшие
	// приведение типов в фильтре).
	Warnings []string
}

// Evaluator — вычислитель одного вида узла.
//
// Реализации обязаны быть stateless и безопасными для конкурентного
// использования: один Evaluator обслуживает все run'ы процесса.
type Evaluator interface {
	// Kind возвращает вид узла, который обслуживает вычислитель.
	Kind() domain.NodeKind

	// Evaluate вычисляет таблицу узла из входов. Отказ возвращается
	// как *NodeError; прочие ошибки приводятся к InvalidParameter.
	Evaluate(ctx context.Context, req *EvalRequest) (*EvalResponse, error)
}

// Registry — реестр вычислителей по виду узла.
type Registry interface {
	// Get возвращает вычислитель для вида узла.
	Get(kind domain.NodeKind) (Evaluator, error)
}

// Result — итог выполнения графа.
type Result struct {
	// Outputs — таблицы output-узлов по имени назначения
	// (params.name либо id узла, если имя не задано).
	Outputs map[string]*table.Table

	// NodeStatus — статус каждого узла графа.
	NodeStatus map[string]domain.NodeStatus

	// Errors — отказы узлов. Непустой список не отменяет Outputs:
	// результаты независимых веток возвращаются всегда.
	Errors []NodeError

	// Warnings — нефатальные замечания узлов.
	Warnings []Warning

	// Cancelled — выполнение остановлено кооперативной отменой.
	Cancelled bool

	// Context — контекст run'а для preview промежуточных таблиц.
	Context *Context
}

// Failed возвращает true, если хотя бы один узел отказал.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Scheduler выполняет граф: валидирует, строит топологический порядок
// и вычисляет узлы по одному, изолируя отказы по веткам.
type Scheduler struct {
	registry Registry
	logger   *slog.Logger
}

// NewScheduler создаёт Scheduler с реестром вычислителей.
func NewScheduler(registry Registry, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{registry: registry, logger: logger}
}

// Run выполняет граф с привязанными датасетами.
//
// Структурная ошибка фатальна: возвращается до вычисления первого
// узла, Result при этом nil. Отказ узла — нет: его потомки помечаются
// skipped, независимые ветки продолжаются, и Result содержит выходы
// выживших веток вместе с лентой ошибок.
//
// Узел вычисляется не более одного раза: результат мемоизируется в
// контексте и переиспользуется всеми потребителями (fan-out).
//
// Отмена кооперативная: ctx проверяется между узлами. Начатое
// вычисление узла дорабатывает до конца; уже вычисленные результаты
// остаются в Result.
func (s *Scheduler) Run(ctx context.Context, g *domain.Graph, bindings Bindings) (*Result, error) {
	idx, serr := buildIndex(g)
	if serr != nil {
		return nil, serr
	}
	order, serr := idx.topoOrder()
	if serr != nil {
		return nil, serr
	}
	// Привязки здесь не проверяются: непривязанный source — отказ
	// MissingBinding его ветки, а не фатальная ошибка всего run'а.
	if err := validateEndpoints(idx, nil); err != nil {
		return nil, err
	}

	ec := NewContext(bindings)
	res := &Result{
		Outputs:    make(map[string]*table.Table),
		NodeStatus: make(map[string]domain.NodeStatus, len(order)),
		Context:    ec,
	}
	for _, id := range order {
		res.NodeStatus[id] = domain.NodeStatusPending
	}

	// blocked — узлы, чей предок отказал. Пополняется обходом
	// потомков при каждом отказе.
	blocked := make(map[string]bool)

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			res.Cancelled = true
			s.logger.Info("run cancelled", "node_id", id)
			break
		}

		if blocked[id] {
			res.NodeStatus[id] = domain.NodeStatusSkipped
			continue
		}

		node := idx.nodes[id]

		inputs, ne := s.gatherInputs(idx, ec, node)
		if ne == nil {
			ne = s.evaluate(ctx, ec, node, inputs, res)
		}
		if ne != nil {
			res.NodeStatus[id] = domain.NodeStatusFailed
			ec.appendError(*ne)
			s.blockDependents(idx, blocked, id)
			s.logger.Warn("node failed",
				"node_id", id, "kind", string(node.Kind),
				"reason", string(ne.Reason), "error", ne.Message)
			continue
		}
		res.NodeStatus[id] = domain.NodeStatusSuccess
	}

	res.Errors = ec.Errors()
	res.Warnings = ec.Warnings()
	return res, nil
}

// gatherInputs собирает входные таблицы узла по слотам.
// Для source-узла вход — привязанный датасет; его отсутствие —
// отказ MissingBinding (а не структурная ошибка), чтобы ветки с
// привязанными source продолжали выполняться.
func (s *Scheduler) gatherInputs(idx *graphIndex, ec *Context, node *domain.Node) ([]*table.Table, *NodeError) {
	if node.Kind == domain.NodeKindSource {
		bound, ok := ec.Binding(node.ID)
		if !ok {
			return nil, NewNodeError(node.ID, ReasonMissingBinding,
				"source node has no bound dataset")
		}
		return []*table.Table{bound}, nil
	}

	slots := idx.inputs[node.ID]
	inputs := make([]*table.Table, len(slots))
	for slot, srcID := range slots {
		t, ok := ec.Result(srcID)
		if !ok {
			// Недостижимо после валидации и изоляции отказов.
			return nil, NewNodeError(node.ID, ReasonInvalidParameter,
				"input %d (node %s) has no result", slot, srcID)
		}
		inputs[slot] = t
	}
	return inputs, nil
}

// evaluate вычисляет узел, мемоизирует результат и регистрирует
// выходы output-узлов.
func (s *Scheduler) evaluate(ctx context.Context, ec *Context, node *domain.Node, inputs []*table.Table, res *Result) *NodeError {
	ev, err := s.registry.Get(node.Kind)
	if err != nil {
		return AsNodeError(err, node.ID)
	}

	resp, err := ev.Evaluate(ctx, &EvalRequest{Node: node, Inputs: inputs})
	if err != nil {
		return AsNodeError(err, node.ID)
	}

	ec.setResult(node.ID, resp.Table)
	ec.appendWarnings(node.ID, resp.Warnings)

	if node.Kind == domain.NodeKindOutput {
		name := node.ID
		if p, ok := node.Params.(*domain.OutputParams); ok && p.Name != "" {
			name = p.Name
		}
		res.Outputs[name] = resp.Table
	}
	return nil
}

// blockDependents помечает всех транзитивных потомков узла.
func (s *Scheduler) blockDependents(idx *graphIndex, blocked map[string]bool, id string) {
	queue := append([]string(nil), idx.dependents[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if blocked[cur] {
			continue
		}
		blocked[cur] = true
		queue = append(queue, idx.dependents[cur]...)
	}
}
