package nodes

import (
	"context"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

// SelectNode — проекция: оставляет только перечисленные колонки
// в заданном порядке.
type SelectNode struct{}

func (n *SelectNode) Kind() domain.NodeKind { return domain.NodeKindSelect }

func (n *SelectNode) Evaluate(_ context.Context, req *engine.EvalRequest) (*engine.EvalResponse, error) {
	params, ne := paramsAs[*domain.SelectParams](req)
	if ne != nil {
		return nil, ne
	}
	in, ne := singleInput(req)
	if ne != nil {
		return nil, ne
	}

	indices := make([]int, len(params.Columns))
	cols := make([]table.Column, len(params.Columns))
	for i, name := range params.Columns {
		idx, ok := in.ColumnIndex(name)
		if !ok {
			return nil, engine.NewNodeError(req.Node.ID, engine.ReasonUnknownColumn,
				"column %q does not exist in input", name)
		}
		indices[i] = idx
		cols[i] = in.Column(idx)
	}

	out, err := table.New(cols)
	if err != nil {
		return nil, engine.AsNodeError(err, req.Node.ID)
	}
	for r := 0; r < in.NumRows(); r++ {
		src := in.Row(r)
		row := make(table.Row, len(indices))
		for i, idx := range indices {
			row[i] = src[idx]
		}
		if err := out.AppendRow(row); err != nil {
			return nil, engine.AsNodeError(err, req.Node.ID)
		}
	}

	return &engine.EvalResponse{Table: out}, nil
}
