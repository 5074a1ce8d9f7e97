package engine

import (
	"fmt"
	"sort"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/table"
)

// Bindings — привязка входных датасетов: id source-узла → таблица.
// Неизменяема в течение run'а.
type Bindings map[string]*table.Table

// graphIndex — граф в виде индексов смежности над стабильными
// строковыми id. Узлы никогда не ссылаются друг на друга напрямую —
// это делает обнаружение циклов и топологическую сортировку
// обычными графовыми операциями.
type graphIndex struct {
	// nodes — id → узел.
	nodes map[string]*domain.Node

	// ids — все id в порядке объявления.
	ids []string

	// inputs — id узла → id производителей по слотам (inputs[id][slot]).
	inputs map[string][]string

	// dependents — id узла → id потребителей.
	dependents map[string][]string

	// indegree — количество входящих рёбер.
	indegree map[string]int
}

// buildIndex строит индекс и проверяет рёбра: ссылки на существующие
// узлы, корректность слотов, арность, заполненность слотов.
func buildIndex(g *domain.Graph) (*graphIndex, *StructuralError) {
	if len(g.Nodes) == 0 {
		return nil, newStructuralError("", "graph has no nodes", ErrEmptyGraph)
	}

	idx := &graphIndex{
		nodes:      make(map[string]*domain.Node, len(g.Nodes)),
		ids:        make([]string, 0, len(g.Nodes)),
		inputs:     make(map[string][]string),
		dependents: make(map[string][]string),
		indegree:   make(map[string]int),
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			return nil, newStructuralError("", "node has empty id", ErrUnknownNodeRef)
		}
		if _, exists := idx.nodes[n.ID]; exists {
			return nil, newStructuralError(n.ID,
				fmt.Sprintf("duplicate node id: %s", n.ID), ErrDuplicateNodeID)
		}
		idx.nodes[n.ID] = n
		idx.ids = append(idx.ids, n.ID)
	}

	// (a) рёбра: существующие узлы, валидные слоты, без дублей слотов
	type slotKey struct {
		target string
		slot   int
	}
	boundSlots := make(map[slotKey]bool, len(g.Edges))

	for _, e := range g.Edges {
		if _, ok := idx.nodes[e.Source]; !ok {
			return nil, newStructuralError(e.Source,
				fmt.Sprintf("edge source %q does not exist", e.Source), ErrUnknownNodeRef)
		}
		target, ok := idx.nodes[e.Target]
		if !ok {
			return nil, newStructuralError(e.Target,
				fmt.Sprintf("edge target %q does not exist", e.Target), ErrUnknownNodeRef)
		}
		if e.Slot < 0 {
			return nil, newStructuralError(e.Target,
				fmt.Sprintf("negative input slot %d", e.Slot), ErrInvalidSlot)
		}
		maxIn := target.Kind.MaxInputs()
		if maxIn >= 0 && e.Slot >= maxIn {
			return nil, newStructuralError(e.Target,
				fmt.Sprintf("slot %d is out of range for %s node", e.Slot, target.Kind), ErrInvalidSlot)
		}
		key := slotKey{e.Target, e.Slot}
		if boundSlots[key] {
			return nil, newStructuralError(e.Target,
				fmt.Sprintf("input slot %d bound twice", e.Slot), ErrSlotConflict)
		}
		boundSlots[key] = true

		slots := idx.inputs[e.Target]
		for len(slots) <= e.Slot {
			slots = append(slots, "")
		}
		slots[e.Slot] = e.Source
		idx.inputs[e.Target] = slots

		idx.dependents[e.Source] = append(idx.dependents[e.Source], e.Target)
		idx.indegree[e.Target]++
	}

	// (b) максимальная арность, (c) заполненность обязательных слотов
	for _, id := range idx.ids {
		n := idx.nodes[id]
		slots := idx.inputs[id]

		maxIn := n.Kind.MaxInputs()
		if maxIn >= 0 && len(slots) > maxIn {
			return nil, newStructuralError(id,
				fmt.Sprintf("%s node accepts at most %d inputs, got %d", n.Kind, maxIn, len(slots)),
				ErrArityExceeded)
		}
		// Output без входящего ребра — это проверка (e), у неё
		// собственная ошибка ErrOrphanOutput.
		if n.Kind != domain.NodeKindOutput && len(slots) < n.Kind.MinInputs() {
			return nil, newStructuralError(id,
				fmt.Sprintf("%s node requires %d inputs, got %d", n.Kind, n.Kind.MinInputs(), len(slots)),
				ErrUnboundSlot)
		}
		for slot, src := range slots {
			if src == "" {
				return nil, newStructuralError(id,
					fmt.Sprintf("input slot %d not bound", slot), ErrUnboundSlot)
			}
		}
	}

	return idx, nil
}

// topoOrder вычисляет топологический порядок по алгоритму Кана.
//
// Узлы с нулевой входящей степенью (source) идут первыми; при
// нескольких готовых узлах берётся наименьший id — порядок полностью
// детерминирован, что требуется для воспроизводимых фикстур.
//
// При цикле возвращается StructuralError с id узла, лежащего на цикле.
func (idx *graphIndex) topoOrder() ([]string, *StructuralError) {
	indegree := make(map[string]int, len(idx.ids))
	for _, id := range idx.ids {
		indegree[id] = idx.indegree[id]
	}

	var ready []string
	for _, id := range idx.ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(idx.ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, dep := range idx.dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
	}

	if len(order) != len(idx.ids) {
		cycleID := idx.findCycleNode(indegree)
		return nil, newStructuralError(cycleID,
			fmt.Sprintf("cycle detected through node %s", cycleID), ErrCycle)
	}

	return order, nil
}

// findCycleNode находит узел, лежащий на цикле, среди необработанных.
//
// Каждый необработанный узел имеет предшественника среди
// необработанных, поэтому обход по предшественникам обязан
// зациклиться не более чем за |V| шагов.
func (idx *graphIndex) findCycleNode(indegree map[string]int) string {
	remaining := make(map[string]bool)
	var start string
	for _, id := range idx.ids {
		if indegree[id] > 0 {
			remaining[id] = true
			if start == "" || id < start {
				start = id
			}
		}
	}

	visited := make(map[string]bool)
	cur := start
	for !visited[cur] {
		visited[cur] = true

		// Наименьший необработанный предшественник — для детерминизма.
		var next string
		for _, srcID := range idx.inputs[cur] {
			if remaining[srcID] && (next == "" || srcID < next) {
				next = srcID
			}
		}
		if next == "" {
			return cur
		}
		cur = next
	}
	return cur
}

// Validate проверяет структурную корректность графа перед выполнением.
//
// Проверки по порядку: (a) рёбра ссылаются на существующие узлы и
// валидные слоты; (b) арность не превышена; (c) все обязательные
// слоты заполнены; (d) граф ацикличен (ошибка называет узел на
// цикле); (e) каждый source привязан к датасету, каждый output имеет
// входящее ребро.
//
// Любое нарушение останавливает run до начала выполнения: валидация
// никогда не вычисляет узлы частично.
func Validate(g *domain.Graph, bindings Bindings) error {
	idx, serr := buildIndex(g)
	if serr != nil {
		return serr
	}
	if _, serr := idx.topoOrder(); serr != nil {
		return serr
	}
	return validateEndpoints(idx, bindings)
}

// ValidateStructure — как Validate, но без проверки привязок
// датасетов. Используется для графов, у которых привязки ещё не
// известны (черновики из AI-планировщика, сохранение версий).
func ValidateStructure(g *domain.Graph) error {
	idx, serr := buildIndex(g)
	if serr != nil {
		return serr
	}
	if _, serr := idx.topoOrder(); serr != nil {
		return serr
	}
	return validateEndpoints(idx, nil)
}

// validateEndpoints — проверка (e): sources привязаны, outputs запитаны.
// При bindings == nil привязки source-узлов не проверяются.
func validateEndpoints(idx *graphIndex, bindings Bindings) error {
	for _, id := range idx.ids {
		n := idx.nodes[id]
		switch n.Kind {
		case domain.NodeKindSource:
			if bindings != nil {
				if _, ok := bindings[id]; !ok {
					return newStructuralError(id, "source node has no bound dataset", ErrUnboundSource)
				}
			}
		case domain.NodeKindOutput:
			if len(idx.inputs[id]) == 0 {
				return newStructuralError(id, "output node has no incoming edge", ErrOrphanOutput)
			}
		}
	}
	return nil
}

// Order возвращает детерминированный топологический порядок
// выполнения узлов графа.
func Order(g *domain.Graph) ([]string, error) {
	idx, serr := buildIndex(g)
	if serr != nil {
		return nil, serr
	}
	order, serr := idx.topoOrder()
	if serr != nil {
		return nil, serr
	}
	return order, nil
}
