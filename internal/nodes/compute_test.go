package nodes

import (
	"context"
	"testing"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

func computeInput() *table.Table {
	tbl := table.MustNew([]table.Column{
		{Name: "a", Type: table.TypeInteger},
		{Name: "b", Type: table.TypeInteger},
	})
	tbl.AppendRow(table.Row{int64(3), int64(4)})
	return tbl
}

func evalCompute(t *testing.T, in *table.Table, target, expr string) *table.Table {
	t.Helper()
	resp, err := (&ComputeNode{}).Evaluate(context.Background(), evalReq("c",
		&domain.ComputeParams{Target: target, Expr: expr}, in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp.Table
}

func TestCompute_Arithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"a + b", 7},
		{"a - b", -1},
		{"a * b", 12},
		{"b / 2 + 1", 3},
		{"(a + b) * 2", 14},
		{"-a + 10", 7},
		{"a × b", 12},
		{"b ÷ a", 4.0 / 3.0},
		{"a − b", -1},
		{"−a + 10", 7},
		{"2.5 + a", 5.5},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			out := evalCompute(t, computeInput(), "r", tt.expr)
			idx, ok := out.ColumnIndex("r")
			if !ok {
				t.Fatal("target column missing")
			}
			if out.Column(idx).Type != table.TypeDecimal {
				t.Errorf("target type = %s, want decimal", out.Column(idx).Type)
			}
			got := out.Row(0)[idx]
			if got != tt.want {
				t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompute_DivisionByZeroGivesNull(t *testing.T) {
	tbl := table.MustNew([]table.Column{
		{Name: "a", Type: table.TypeInteger},
		{Name: "b", Type: table.TypeInteger},
	})
	tbl.AppendRow(table.Row{int64(10), int64(0)})
	tbl.AppendRow(table.Row{int64(10), int64(2)})

	out := evalCompute(t, tbl, "q", "a / b")

	// Строка с делением на ноль остаётся, значение — null
	if out.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.NumRows())
	}
	if out.Row(0)[2] != nil {
		t.Errorf("division by zero must yield null, got %v", out.Row(0)[2])
	}
	if out.Row(1)[2] != float64(5) {
		t.Errorf("expected 5, got %v", out.Row(1)[2])
	}
}

func TestCompute_NullOperandGivesNull(t *testing.T) {
	tbl := table.MustNew([]table.Column{
		{Name: "a", Type: table.TypeInteger},
		{Name: "b", Type: table.TypeInteger},
	})
	tbl.AppendRow(table.Row{nil, int64(4)})

	out := evalCompute(t, tbl, "r", "a + b")
	if out.Row(0)[2] != nil {
		t.Errorf("null operand must yield null, got %v", out.Row(0)[2])
	}
}

func TestCompute_QuotedColumnName(t *testing.T) {
	tbl := table.MustNew([]table.Column{
		{Name: "unit price", Type: table.TypeDecimal},
		{Name: "qty", Type: table.TypeInteger},
	})
	tbl.AppendRow(table.Row{2.5, int64(4)})

	out := evalCompute(t, tbl, "total", "`unit price` * qty")
	if out.Row(0)[2] != float64(10) {
		t.Errorf("expected 10, got %v", out.Row(0)[2])
	}
}

func TestCompute_OverwritesExistingTarget(t *testing.T) {
	out := evalCompute(t, computeInput(), "b", "a * 10")

	// Количество колонок не растёт, тип перезаписанной — decimal
	if out.NumCols() != 2 {
		t.Fatalf("expected 2 columns, got %d", out.NumCols())
	}
	idx, _ := out.ColumnIndex("b")
	if out.Column(idx).Type != table.TypeDecimal {
		t.Errorf("overwritten column type = %s, want decimal", out.Column(idx).Type)
	}
	if out.Row(0)[idx] != float64(30) {
		t.Errorf("expected 30, got %v", out.Row(0)[idx])
	}
}

func TestCompute_UnknownColumnFailsBeforeRows(t *testing.T) {
	// Привязка имён — до прохода по строкам: отказ даже на пустом входе
	empty := table.MustNew([]table.Column{{Name: "a", Type: table.TypeInteger}})
	_, err := (&ComputeNode{}).Evaluate(context.Background(), evalReq("c",
		&domain.ComputeParams{Target: "r", Expr: "a + ghost"}, empty))
	wantNodeError(t, err, engine.ReasonUnknownColumn)
}

func TestCompute_ParseErrors(t *testing.T) {
	for _, expr := range []string{"a +", "(a + b", "`oops", "a @ b", ""} {
		_, err := (&ComputeNode{}).Evaluate(context.Background(), evalReq("c",
			&domain.ComputeParams{Target: "r", Expr: expr}, computeInput()))
		wantNodeError(t, err, engine.ReasonInvalidParameter)
	}
}
