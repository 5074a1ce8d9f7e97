package nodes

import (
	"context"
	"testing"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

// evalReq собирает запрос вычисления для одного узла.
func evalReq(id string, params domain.Params, inputs ...*table.Table) *engine.EvalRequest {
	return &engine.EvalRequest{
		Node:   &domain.Node{ID: id, Kind: params.Kind(), Params: params},
		Inputs: inputs,
	}
}

// wantNodeError проверяет, что ошибка — NodeError с ожидаемой причиной.
func wantNodeError(t *testing.T, err error, reason engine.Reason) *engine.NodeError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected node error with reason %s, got nil", reason)
	}
	ne, ok := err.(*engine.NodeError)
	if !ok {
		t.Fatalf("expected *engine.NodeError, got %T: %v", err, err)
	}
	if ne.Reason != reason {
		t.Fatalf("expected reason %s, got %s (%s)", reason, ne.Reason, ne.Message)
	}
	return ne
}

func TestSourceNode_Passthrough(t *testing.T) {
	tbl := table.MustNew([]table.Column{{Name: "x", Type: table.TypeText}})
	tbl.AppendRow(table.Row{"a"})

	resp, err := (&SourceNode{}).Evaluate(context.Background(),
		evalReq("src", &domain.SourceParams{DatasetID: "ds-1"}, tbl))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Table != tbl {
		t.Error("source must pass the bound table through unchanged")
	}
}

func TestSourceNode_MissingBinding(t *testing.T) {
	_, err := (&SourceNode{}).Evaluate(context.Background(),
		evalReq("src", &domain.SourceParams{DatasetID: "ds-1"}))
	wantNodeError(t, err, engine.ReasonMissingBinding)
}

func TestOutputNode_Passthrough(t *testing.T) {
	tbl := table.MustNew([]table.Column{{Name: "x", Type: table.TypeText}})

	resp, err := (&OutputNode{}).Evaluate(context.Background(),
		evalReq("out", &domain.OutputParams{Name: "result"}, tbl))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Table != tbl {
		t.Error("output must pass its input through unchanged")
	}
}

func TestDefaultRegistry_CoversAllKinds(t *testing.T) {
	reg := DefaultRegistry()

	kinds := []domain.NodeKind{
		domain.NodeKindSource,
		domain.NodeKindSelect,
		domain.NodeKindFilter,
		domain.NodeKindCompute,
		domain.NodeKindMerge,
		domain.NodeKindGroupAggregate,
		domain.NodeKindOutput,
	}
	for _, kind := range kinds {
		ev, err := reg.Get(kind)
		if err != nil {
			t.Errorf("kind %s: %v", kind, err)
			continue
		}
		if ev.Kind() != kind {
			t.Errorf("kind %s: evaluator reports %s", kind, ev.Kind())
		}
	}

	if _, err := reg.Get(domain.NodeKind("teleport")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
