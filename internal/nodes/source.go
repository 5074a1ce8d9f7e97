package nodes

import (
	"context"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
)

// SourceNode — точка входа данных в граф.
//
// Сам узел данные не читает: привязанную таблицу датасета ему передаёт
// scheduler единственным входом. Отсутствие привязки scheduler
// превращает в отказ MissingBinding ещё до вызова вычислителя.
type SourceNode struct{}

func (n *SourceNode) Kind() domain.NodeKind { return domain.NodeKindSource }

func (n *SourceNode) Evaluate(_ context.Context, req *engine.EvalRequest) (*engine.EvalResponse, error) {
	if len(req.Inputs) != 1 || req.Inputs[0] == nil {
		return nil, engine.NewNodeError(req.Node.ID, engine.ReasonMissingBinding,
			"source node has no bound dataset")
	}
	return &engine.EvalResponse{Table: req.Inputs[0]}, nil
}
