package nodes

import (
	"context"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
)

// OutputNode — терминальный узел: помечает вход как именованный
// результат run'а. Таблицу не трансформирует; имя назначения
// извлекает scheduler из параметров.
type OutputNode struct{}

func (n *OutputNode) Kind() domain.NodeKind { return domain.NodeKindOutput }

func (n *OutputNode) Evaluate(_ context.Context, req *engine.EvalRequest) (*engine.EvalResponse, error) {
	in, ne := singleInput(req)
	if ne != nil {
		return nil, ne
	}
	return &engine.EvalResponse{Table: in}, nil
}
