package nodes

import (
	"context"
	"strings"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

// AggregateNode — группировка строк с вычислением агрегатов.
//
// Группы идут в порядке первого появления ключа — результат
// детерминирован для одинакового входа. Null-ключи образуют
// собственную группу. count считает все строки группы, включая null;
// остальные функции null пропускают. Пустой вход даёт пустую таблицу
// с объявленными колонками.
type AggregateNode struct{}

func (n *AggregateNode) Kind() domain.NodeKind { return domain.NodeKindGroupAggregate }

func (n *AggregateNode) Evaluate(_ context.Context, req *engine.EvalRequest) (*engine.EvalResponse, error) {
	params, ne := paramsAs[*domain.AggregateParams](req)
	if ne != nil {
		return nil, ne
	}
	in, ne := singleInput(req)
	if ne != nil {
		return nil, ne
	}

	groupIdx := make([]int, len(params.GroupBy))
	for i, name := range params.GroupBy {
		idx, ok := in.ColumnIndex(name)
		if !ok {
			return nil, engine.NewNodeError(req.Node.ID, engine.ReasonUnknownColumn,
				"group_by column %q does not exist in input", name)
		}
		groupIdx[i] = idx
	}

	aggIdx := make([]int, len(params.Aggregates))
	for i, agg := range params.Aggregates {
		idx, ok := in.ColumnIndex(agg.Column)
		if !ok {
			return nil, engine.NewNodeError(req.Node.ID, engine.ReasonUnknownColumn,
				"aggregate column %q does not exist in input", agg.Column)
		}
		aggIdx[i] = idx
	}

	cols := make([]table.Column, 0, len(params.GroupBy)+len(params.Aggregates))
	for _, idx := range groupIdx {
		cols = append(cols, in.Column(idx))
	}
	for i, agg := range params.Aggregates {
		cols = append(cols, table.Column{
			Name: agg.OutputName(),
			Type: aggResultType(agg.Fn, in.Column(aggIdx[i]).Type),
		})
	}

	out, err := table.New(cols)
	if err != nil {
		return nil, engine.AsNodeError(err, req.Node.ID)
	}

	// Группировка по каноничному составному ключу; null кодируется
	// отдельным маркером, чтобы образовать собственную группу
	type group struct {
		keyValues []any
		accs      []*aggAccumulator
	}
	groups := make(map[string]*group)
	var order []string

	for r := 0; r < in.NumRows(); r++ {
		row := in.Row(r)

		key := groupKey(row, groupIdx)
		g, ok := groups[key]
		if !ok {
			keyValues := make([]any, len(groupIdx))
			for i, idx := range groupIdx {
				keyValues[i] = row[idx]
			}
			accs := make([]*aggAccumulator, len(params.Aggregates))
			for i, agg := range params.Aggregates {
				accs[i] = &aggAccumulator{fn: agg.Fn}
			}
			g = &group{keyValues: keyValues, accs: accs}
			groups[key] = g
			order = append(order, key)
		}

		for i, idx := range aggIdx {
			g.accs[i].add(row[idx])
		}
	}

	for _, key := range order {
		g := groups[key]
		row := make(table.Row, 0, len(cols))
		row = append(row, g.keyValues...)
		for _, acc := range g.accs {
			row = append(row, acc.result())
		}
		if err := out.AppendRow(row); err != nil {
			return nil, engine.AsNodeError(err, req.Node.ID)
		}
	}

	return &engine.EvalResponse{Table: out}, nil
}

// groupKey строит составной ключ группы. В отличие от ключей join,
// null здесь — легальный член группировки и кодируется маркером.
func groupKey(row table.Row, indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		if s, ok := table.KeyString(row[idx]); ok {
			parts[i] = "v" + s
		} else {
			parts[i] = "\x00null"
		}
	}
	return strings.Join(parts, "\x1f")
}

// aggResultType возвращает тип выходной колонки агрегата.
func aggResultType(fn domain.AggregateFn, srcType table.Type) table.Type {
	switch fn {
	case domain.AggCount:
		return table.TypeInteger
	case domain.AggSum, domain.AggAvg:
		return table.TypeDecimal
	default:
		// min/max сохраняют тип исходной колонки
		return srcType
	}
}

// aggAccumulator — накопитель одного агрегата для одной группы.
type aggAccumulator struct {
	fn domain.AggregateFn

	count   int64 // все строки, включая null
	numSum  float64
	numSeen int64
	extreme any // текущий min/max
}

// add учитывает значение строки.
func (a *aggAccumulator) add(v any) {
	a.count++
	if v == nil {
		return
	}

	switch a.fn {
	case domain.AggSum, domain.AggAvg:
		if n, ok := table.AsNumber(v); ok {
			a.numSum += n
			a.numSeen++
		}
	case domain.AggMin:
		if a.extreme == nil {
			a.extreme = v
			return
		}
		if c, ok := table.Compare(v, a.extreme); ok && c < 0 {
			a.extreme = v
		}
	case domain.AggMax:
		if a.extreme == nil {
			a.extreme = v
			return
		}
		if c, ok := table.Compare(v, a.extreme); ok && c > 0 {
			a.extreme = v
		}
	}
}

// result возвращает значение агрегата. Группа без пригодных значений
// даёт null (кроме count).
func (a *aggAccumulator) result() any {
	switch a.fn {
	case domain.AggCount:
		return a.count
	case domain.AggSum:
		if a.numSeen == 0 {
			return nil
		}
		return a.numSum
	case domain.AggAvg:
		if a.numSeen == 0 {
			return nil
		}
		return a.numSum / float64(a.numSeen)
	case domain.AggMin, domain.AggMax:
		return a.extreme
	}
	return nil
}
