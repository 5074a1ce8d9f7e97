package nodes

import (
	"fmt"
	"sync"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

// Registry — потокобезопасный реестр вычислителей узлов.
// Реализует engine.Registry.
type Registry struct {
	mu         sync.RWMutex
	evaluators map[domain.NodeKind]engine.Evaluator
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		evaluators: make(map[domain.NodeKind]engine.Evaluator),
	}
}

// DefaultRegistry создаёт реестр со всеми встроенными вычислителями.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&SourceNode{})
	r.Register(&SelectNode{})
	r.Register(&FilterNode{})
	r.Register(&ComputeNode{})
	r.Register(&MergeNode{})
	r.Register(&AggregateNode{})
	r.Register(&OutputNode{})
	return r
}

// Register регистрирует вычислитель. Повторная регистрация вида
// заменяет предыдущий вычислитель.
func (r *Registry) Register(ev engine.Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluators[ev.Kind()] = ev
}

// Get возвращает вычислитель для вида узла.
func (r *Registry) Get(kind domain.NodeKind) (engine.Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.evaluators[kind]
	if !ok {
		return nil, fmt.Errorf("no evaluator registered for node kind: %s", kind)
	}
	return ev, nil
}

// Kinds возвращает список зарегистрированных видов узлов.
func (r *Registry) Kinds() []domain.NodeKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.NodeKind, 0, len(r.evaluators))
	for k := range r.evaluators {
		kinds = append(kinds, k)
	}
	return kinds
}

// paramsAs извлекает параметры узла нужного типа. Несовпадение типа —
// ошибка программирования (domain.Node гарантирует соответствие вида
// и типа параметров при конструировании).
func paramsAs[T domain.Params](req *engine.EvalRequest) (T, *engine.NodeError) {
	p, ok := req.Node.Params.(T)
	if !ok {
		var zero T
		return zero, engine.NewNodeError(req.Node.ID, engine.ReasonInvalidParameter,
			"node params have unexpected type %T", req.Node.Params)
	}
	return p, nil
}

// singleInput возвращает единственный вход узла.
func singleInput(req *engine.EvalRequest) (*table.Table, *engine.NodeError) {
	if len(req.Inputs) != 1 || req.Inputs[0] == nil {
		return nil, engine.NewNodeError(req.Node.ID, engine.ReasonInvalidParameter,
			"node requires exactly one input, got %d", len(req.Inputs))
	}
	return req.Inputs[0], nil
}
