package engine

import (
	"context"
	"testing"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/table"
)

// stubEvaluator пропускает первый вход насквозь; для узлов из failOn
// возвращает отказ TypeMismatch.
type stubEvaluator struct {
	kind   domain.NodeKind
	failOn map[string]bool
}

func (e *stubEvaluator) Kind() domain.NodeKind { return e.kind }

func (e *stubEvaluator) Evaluate(_ context.Context, req *EvalRequest) (*EvalResponse, error) {
	if e.failOn[req.Node.ID] {
		return nil, NewNodeError(req.Node.ID, ReasonTypeMismatch, "stub failure")
	}
	return &EvalResponse{Table: req.Inputs[0]}, nil
}

// stubRegistry отдаёт один и тот же passthrough-вычислитель на все виды.
type stubRegistry struct {
	failOn map[string]bool
}

func (r *stubRegistry) Get(kind domain.NodeKind) (Evaluator, error) {
	return &stubEvaluator{kind: kind, failOn: r.failOn}, nil
}

func runGraph(t *testing.T, g *domain.Graph, bindings Bindings, failOn map[string]bool) *Result {
	t.Helper()
	sched := NewScheduler(&stubRegistry{failOn: failOn}, nil)
	res, err := sched.Run(context.Background(), g, bindings)
	if err != nil {
		t.Fatalf("unexpected structural error: %v", err)
	}
	return res
}

// Две независимые ветки: src1 → f1 → out1, src2 → f2 → out2.
func twoBranchGraph() *domain.Graph {
	return &domain.Graph{
		Nodes: []domain.Node{
			sourceNode("src1"), sourceNode("src2"),
			filterNode("f1"), filterNode("f2"),
			{ID: "out1", Kind: domain.NodeKindOutput, Params: &domain.OutputParams{Name: "left"}},
			{ID: "out2", Kind: domain.NodeKindOutput, Params: &domain.OutputParams{Name: "right"}},
		},
		Edges: []domain.Edge{
			{Source: "src1", Target: "f1", Slot: 0},
			{Source: "f1", Target: "out1", Slot: 0},
			{Source: "src2", Target: "f2", Slot: 0},
			{Source: "f2", Target: "out2", Slot: 0},
		},
	}
}

func TestRun_AllBranchesSucceed(t *testing.T) {
	g := twoBranchGraph()
	bindings := Bindings{"src1": emptyTable(), "src2": emptyTable()}

	res := runGraph(t, g, bindings, nil)

	if res.Failed() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(res.Outputs))
	}
	if _, ok := res.Outputs["left"]; !ok {
		t.Error("output 'left' missing")
	}
	if _, ok := res.Outputs["right"]; !ok {
		t.Error("output 'right' missing")
	}
	for id, status := range res.NodeStatus {
		if status != domain.NodeStatusSuccess {
			t.Errorf("node %s: expected success, got %s", id, status)
		}
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	g := twoBranchGraph()
	bindings := Bindings{"src1": emptyTable(), "src2": emptyTable()}

	// Отказ f1 валит только его ветку
	res := runGraph(t, g, bindings, map[string]bool{"f1": true})

	if len(res.Errors) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %v", len(res.Errors), res.Errors)
	}
	if res.Errors[0].NodeID != "f1" || res.Errors[0].Reason != ReasonTypeMismatch {
		t.Errorf("unexpected error: %+v", res.Errors[0])
	}

	if res.NodeStatus["f1"] != domain.NodeStatusFailed {
		t.Errorf("f1: expected failed, got %s", res.NodeStatus["f1"])
	}
	if res.NodeStatus["out1"] != domain.NodeStatusSkipped {
		t.Errorf("out1: expected skipped, got %s", res.NodeStatus["out1"])
	}

	// Независимая ветка выполнилась и дала выход
	if res.NodeStatus["out2"] != domain.NodeStatusSuccess {
		t.Errorf("out2: expected success, got %s", res.NodeStatus["out2"])
	}
	if _, ok := res.Outputs["right"]; !ok {
		t.Error("independent branch output missing")
	}
	if _, ok := res.Outputs["left"]; ok {
		t.Error("failed branch must not produce output")
	}
}

func TestRun_MissingBindingIsolatesBranch(t *testing.T) {
	g := twoBranchGraph()

	// src2 без привязки
	res := runGraph(t, g, Bindings{"src1": emptyTable()}, nil)

	if len(res.Errors) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %v", len(res.Errors), res.Errors)
	}
	if res.Errors[0].NodeID != "src2" || res.Errors[0].Reason != ReasonMissingBinding {
		t.Errorf("unexpected error: %+v", res.Errors[0])
	}

	if res.NodeStatus["f2"] != domain.NodeStatusSkipped {
		t.Errorf("f2: expected skipped, got %s", res.NodeStatus["f2"])
	}
	if res.NodeStatus["out1"] != domain.NodeStatusSuccess {
		t.Errorf("out1: expected success, got %s", res.NodeStatus["out1"])
	}
}

func TestRun_FanOutMemoization(t *testing.T) {
	// src → f, f питает оба выхода: f вычисляется один раз
	g := &domain.Graph{
		Nodes: []domain.Node{
			sourceNode("src"),
			filterNode("f"),
			outputNode("o1"),
			outputNode("o2"),
		},
		Edges: []domain.Edge{
			{Source: "src", Target: "f", Slot: 0},
			{Source: "f", Target: "o1", Slot: 0},
			{Source: "f", Target: "o2", Slot: 0},
		},
	}

	res := runGraph(t, g, Bindings{"src": emptyTable()}, nil)

	if res.Failed() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	// Имя выхода по умолчанию — id узла
	if _, ok := res.Outputs["o1"]; !ok {
		t.Error("output o1 missing")
	}
	if _, ok := res.Outputs["o2"]; !ok {
		t.Error("output o2 missing")
	}
}

func TestRun_Cancellation(t *testing.T) {
	g := twoBranchGraph()
	bindings := Bindings{"src1": emptyTable(), "src2": emptyTable()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sched := NewScheduler(&stubRegistry{}, nil)
	res, err := sched.Run(ctx, g, bindings)
	if err != nil {
		t.Fatalf("unexpected structural error: %v", err)
	}

	if !res.Cancelled {
		t.Fatal("expected cancelled result")
	}
	// Ни один узел не дошёл до выполнения
	for id, status := range res.NodeStatus {
		if status != domain.NodeStatusPending {
			t.Errorf("node %s: expected pending after early cancel, got %s", id, status)
		}
	}
}

func TestContext_Preview(t *testing.T) {
	tbl := table.MustNew([]table.Column{{Name: "x", Type: table.TypeInteger}})
	tbl.AppendRow(table.Row{int64(1)})
	tbl.AppendRow(table.Row{int64(2)})

	g := &domain.Graph{
		Nodes: []domain.Node{sourceNode("src"), outputNode("out")},
		Edges: []domain.Edge{{Source: "src", Target: "out", Slot: 0}},
	}

	res := runGraph(t, g, Bindings{"src": tbl}, nil)

	rows, err := res.Context.Preview("out", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 preview row, got %d", len(rows))
	}
	if rows[0]["x"] != int64(1) {
		t.Errorf("unexpected preview value: %v", rows[0]["x"])
	}

	if _, err := res.Context.Preview("ghost", 10); err == nil {
		t.Error("expected error for unknown node")
	}
}
