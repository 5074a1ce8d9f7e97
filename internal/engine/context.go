package engine

import (
	"fmt"

	"github.com/shaiso/Tabula/internal/table"
)

// Context — контекст одного run'а.
//
// Хранит привязки входных датасетов (неизменны в течение run'а),
// мемоизацию вычисленных таблиц по id узла (каждая записывается
// ровно один раз и далее только читается) и ленту ошибок/замечаний.
//
// Контекст принадлежит одному run'у; несколько параллельных run'ов
// обязаны владеть независимыми контекстами. Запись идёт из
// единственной горутины scheduler'а, поэтому синхронизация не нужна;
// параллельная версия scheduler'а потребует либо мьютекс, либо
// single-writer канал для ленты ошибок.
//
// Создаётся при старте run'а, после завершения может быть оставлен
// вызывающей стороной для preview промежуточных результатов.
type Context struct {
	bindings Bindings
	results  map[string]*table.Table
	errs     []NodeError
	warnings []Warning
}

// NewContext создаёт контекст run'а с привязками датасетов.
func NewContext(bindings Bindings) *Context {
	if bindings == nil {
		bindings = Bindings{}
	}
	return &Context{
		bindings: bindings,
		results:  make(map[string]*table.Table),
	}
}

// Binding возвращает привязанный датасет source-узла.
func (c *Context) Binding(nodeID string) (*table.Table, bool) {
	t, ok := c.bindings[nodeID]
	return t, ok
}

// Result возвращает вычисленную таблицу узла.
func (c *Context) Result(nodeID string) (*table.Table, bool) {
	t, ok := c.results[nodeID]
	return t, ok
}

// setResult сохраняет результат узла. Повторная запись — ошибка
// программирования scheduler'а.
func (c *Context) setResult(nodeID string, t *table.Table) {
	if _, exists := c.results[nodeID]; exists {
		panic(fmt.Sprintf("engine: result for node %s already set", nodeID))
	}
	c.results[nodeID] = t
}

// appendError добавляет отказ узла в ленту ошибок.
func (c *Context) appendError(err NodeError) {
	c.errs = append(c.errs, err)
}

// appendWarnings добавляет замечания узла.
func (c *Context) appendWarnings(nodeID string, messages []string) {
	for _, m := range messages {
		c.warnings = append(c.warnings, Warning{NodeID: nodeID, Message: m})
	}
}

// Errors возвращает накопленные отказы узлов.
func (c *Context) Errors() []NodeError {
	return append([]NodeError(nil), c.errs...)
}

// Warnings возвращает накопленные замечания.
func (c *Context) Warnings() []Warning {
	return append([]Warning(nil), c.warnings...)
}

// Preview возвращает первые maxRows строк результата узла в виде
// записей имя колонки → значение. Только чтение: используется для
// инспекции промежуточных таблиц при построении графа.
//
// Для source-узлов до выполнения отдаёт привязанный датасет.
func (c *Context) Preview(nodeID string, maxRows int) ([]map[string]any, error) {
	t, ok := c.results[nodeID]
	if !ok {
		t, ok = c.bindings[nodeID]
	}
	if !ok {
		return nil, fmt.Errorf("no result for node %s", nodeID)
	}
	return t.Records(maxRows), nil
}
