package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

// FilterNode — отбор строк по предикату над одной колонкой.
//
// Политика пермиссивная: строка, чьё значение не приводится к типу
// сравнения, считается непрошедшей предикат. Количество таких строк
// возвращается замечанием, а не ошибкой — run продолжается.
type FilterNode struct{}

func (n *FilterNode) Kind() domain.NodeKind { return domain.NodeKindFilter }

func (n *FilterNode) Evaluate(_ context.Context, req *engine.EvalRequest) (*engine.EvalResponse, error) {
	params, ne := paramsAs[*domain.FilterParams](req)
	if ne != nil {
		return nil, ne
	}
	in, ne := singleInput(req)
	if ne != nil {
		return nil, ne
	}

	colIdx, ok := in.ColumnIndex(params.Column)
	if !ok {
		return nil, engine.NewNodeError(req.Node.ID, engine.ReasonUnknownColumn,
			"filter column %q does not exist in input", params.Column)
	}

	out, err := table.New(in.Columns())
	if err != nil {
		return nil, engine.AsNodeError(err, req.Node.ID)
	}

	mismatches := 0
	for r := 0; r < in.NumRows(); r++ {
		row := in.Row(r)
		keep, comparable := matchFilter(row[colIdx], params.Op, params.Value)
		if !comparable {
			mismatches++
			continue
		}
		if keep {
			if err := out.AppendRow(row); err != nil {
				return nil, engine.AsNodeError(err, req.Node.ID)
			}
		}
	}

	var warnings []string
	if mismatches > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"filter %q %s: %d row(s) dropped, value not comparable",
			params.Column, params.Op, mismatches))
	}

	return &engine.EvalResponse{Table: out, Warnings: warnings}, nil
}

// matchFilter применяет предикат к значению ячейки.
// Второй результат false означает несопоставимое значение.
func matchFilter(v any, op domain.FilterOp, arg any) (match, comparable bool) {
	switch op {
	case domain.FilterOpIsEmpty:
		return table.IsEmpty(v), true

	case domain.FilterOpContains:
		// null не содержит ничего; null-аргумент не содержится нигде
		if v == nil || arg == nil {
			return false, true
		}
		return strings.Contains(
			strings.ToLower(table.AsString(v)),
			strings.ToLower(table.AsString(arg)),
		), true

	}

	// null ни с чем не сопоставим: строка не проходит предикат,
	// но это не считается несовпадением типов
	if v == nil {
		return false, true
	}

	c, ok := table.Compare(v, arg)
	if !ok {
		return false, false
	}
	switch op {
	case domain.FilterOpEq:
		return c == 0, true
	case domain.FilterOpNe:
		return c != 0, true
	case domain.FilterOpGt:
		return c > 0, true
	case domain.FilterOpLt:
		return c < 0, true
	case domain.FilterOpGe:
		return c >= 0, true
	case domain.FilterOpLe:
		return c <= 0, true
	}
	return false, false
}
