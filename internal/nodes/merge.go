package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

// MergeNode — реляционное соединение N входов по ключевым колонкам.
//
// Входы соединяются попарной левой свёрткой: (((вход0 ⋈ вход1) ⋈
// вход2) ⋈ ...), ключи i-го входа берутся из Keys[i]. Сравнение
// ключей — по каноничному строковому представлению, null-ключ не
// матчится ни с чем (в том числе с другим null). Ключевые колонки
// правого входа в результат не попадают: после соединения они
// дублируют левые. Остальные совпадающие имена получают суффикс
// _2, _3 по порядковому номеру входа.
type MergeNode struct{}

func (n *MergeNode) Kind() domain.NodeKind { return domain.NodeKindMerge }

func (n *MergeNode) Evaluate(_ context.Context, req *engine.EvalRequest) (*engine.EvalResponse, error) {
	params, ne := paramsAs[*domain.MergeParams](req)
	if ne != nil {
		return nil, ne
	}
	if len(req.Inputs) < 2 {
		return nil, engine.NewNodeError(req.Node.ID, engine.ReasonInvalidParameter,
			"merge requires at least two inputs, got %d", len(req.Inputs))
	}
	if len(params.Keys) != len(req.Inputs) {
		return nil, engine.NewNodeError(req.Node.ID, engine.ReasonInvalidParameter,
			"merge has %d inputs but keys for %d", len(req.Inputs), len(params.Keys))
	}

	// Ключевые колонки должны существовать во всех входах
	for i, in := range req.Inputs {
		for _, key := range params.Keys[i] {
			if _, ok := in.ColumnIndex(key); !ok {
				return nil, engine.NewNodeError(req.Node.ID, engine.ReasonUnknownColumn,
					"merge key %q does not exist in input %d", key, i)
			}
		}
	}

	acc := req.Inputs[0]
	accKeys := params.Keys[0]
	for i := 1; i < len(req.Inputs); i++ {
		joined, err := joinPair(acc, accKeys, req.Inputs[i], params.Keys[i], params.Join, i)
		if err != nil {
			return nil, engine.AsNodeError(err, req.Node.ID)
		}
		acc = joined
		// Аккумулятор сохраняет левые ключевые колонки: по ним
		// соединяется следующий вход.
	}

	return &engine.EvalResponse{Table: acc}, nil
}

// joinPair соединяет две таблицы по спискам ключей одинаковой длины.
// ordinal — порядковый номер правого входа для суффиксов колонок.
func joinPair(left *table.Table, leftKeys []string, right *table.Table, rightKeys []string, kind domain.JoinKind, ordinal int) (*table.Table, error) {
	leftIdx, err := keyIndices(left, leftKeys)
	if err != nil {
		return nil, err
	}
	rightIdx, err := keyIndices(right, rightKeys)
	if err != nil {
		return nil, err
	}

	// Колонки результата: все левые + правые без ключевых.
	// Совпавшие имена правых колонок получают суффикс.
	rightKeySet := make(map[int]bool, len(rightIdx))
	for _, idx := range rightIdx {
		rightKeySet[idx] = true
	}

	taken := make(map[string]bool, left.NumCols())
	cols := left.Columns()
	for _, c := range cols {
		taken[c.Name] = true
	}

	var rightCols []int
	for i := 0; i < right.NumCols(); i++ {
		if rightKeySet[i] {
			continue
		}
		c := right.Column(i)
		name := c.Name
		if taken[name] {
			name = fmt.Sprintf("%s_%d", name, ordinal+1)
		}
		taken[name] = true
		cols = append(cols, table.Column{Name: name, Type: c.Type})
		rightCols = append(rightCols, i)
	}

	out, err := table.New(cols)
	if err != nil {
		return nil, err
	}

	// Hash join: индекс правых строк по каноничному ключу
	rightByKey := make(map[string][]int, right.NumRows())
	for r := 0; r < right.NumRows(); r++ {
		key, ok := rowKey(right.Row(r), rightIdx)
		if !ok {
			continue
		}
		rightByKey[key] = append(rightByKey[key], r)
	}

	matchedRight := make([]bool, right.NumRows())

	for l := 0; l < left.NumRows(); l++ {
		leftRow := left.Row(l)

		var matches []int
		if key, ok := rowKey(leftRow, leftIdx); ok {
			matches = rightByKey[key]
		}

		if len(matches) == 0 {
			if kind == domain.JoinLeft || kind == domain.JoinOuter {
				if err := out.AppendRow(paddedRow(leftRow, nil, rightCols, left.NumCols())); err != nil {
					return nil, err
				}
			}
			continue
		}

		for _, r := range matches {
			matchedRight[r] = true
			if err := out.AppendRow(paddedRow(leftRow, right.Row(r), rightCols, left.NumCols())); err != nil {
				return nil, err
			}
		}
	}

	// outer: несматченные правые строки с null в левых колонках
	if kind == domain.JoinOuter {
		for r := 0; r < right.NumRows(); r++ {
			if matchedRight[r] {
				continue
			}
			if err := out.AppendRow(paddedRow(nil, right.Row(r), rightCols, left.NumCols())); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// keyIndices возвращает позиции ключевых колонок.
func keyIndices(t *table.Table, keys []string) ([]int, error) {
	indices := make([]int, len(keys))
	for i, key := range keys {
		idx, ok := t.ColumnIndex(key)
		if !ok {
			return nil, engine.NewNodeError("", engine.ReasonUnknownColumn,
				"merge key %q does not exist", key)
		}
		indices[i] = idx
	}
	return indices, nil
}

// rowKey строит составной каноничный ключ строки.
// ok=false, если хотя бы одно ключевое значение — null.
func rowKey(row table.Row, indices []int) (string, bool) {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		s, ok := table.KeyString(row[idx])
		if !ok {
			return "", false
		}
		parts[i] = s
	}
	return strings.Join(parts, "\x1f"), true
}

// paddedRow собирает строку результата из левой и правой частей.
// nil вместо части означает null во всех её колонках.
func paddedRow(leftRow, rightRow table.Row, rightCols []int, leftWidth int) table.Row {
	row := make(table.Row, leftWidth+len(rightCols))
	if leftRow != nil {
		copy(row, leftRow)
	}
	if rightRow != nil {
		for i, idx := range rightCols {
			row[leftWidth+i] = rightRow[idx]
		}
	}
	return row
}
