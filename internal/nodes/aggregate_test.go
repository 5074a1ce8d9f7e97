package nodes

import (
	"context"
	"testing"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

func salesTable() *table.Table {
	tbl := table.MustNew([]table.Column{
		{Name: "dept", Type: table.TypeText},
		{Name: "amount", Type: table.TypeInteger},
	})
	tbl.AppendRow(table.Row{"toys", int64(10)})
	tbl.AppendRow(table.Row{"books", int64(5)})
	tbl.AppendRow(table.Row{"toys", int64(30)})
	tbl.AppendRow(table.Row{"books", nil})
	return tbl
}

func evalAggregate(t *testing.T, in *table.Table, params *domain.AggregateParams) *table.Table {
	t.Helper()
	resp, err := (&AggregateNode{}).Evaluate(context.Background(), evalReq("g", params, in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp.Table
}

func TestAggregate_SumCountAvg(t *testing.T) {
	out := evalAggregate(t, salesTable(), &domain.AggregateParams{
		GroupBy: []string{"dept"},
		Aggregates: []domain.AggSpec{
			{Column: "amount", Fn: domain.AggSum},
			{Column: "amount", Fn: domain.AggCount, As: "n"},
			{Column: "amount", Fn: domain.AggAvg},
		},
	})

	// Имя по умолчанию — "{column}_{fn}", As переопределяет
	wantCols := []string{"dept", "amount_sum", "n", "amount_avg"}
	for i, name := range wantCols {
		if out.Column(i).Name != name {
			t.Errorf("column %d = %q, want %q", i, out.Column(i).Name, name)
		}
	}

	// Группы в порядке первого появления ключа
	if out.NumRows() != 2 {
		t.Fatalf("expected 2 groups, got %d", out.NumRows())
	}
	toys := out.Row(0)
	if toys[0] != "toys" || toys[1] != float64(40) || toys[2] != int64(2) || toys[3] != float64(20) {
		t.Errorf("unexpected toys group: %v", toys)
	}

	// count считает и null-строки; sum и avg их пропускают
	books := out.Row(1)
	if books[1] != float64(5) || books[2] != int64(2) || books[3] != float64(5) {
		t.Errorf("unexpected books group: %v", books)
	}
}

func TestAggregate_MinMaxKeepSourceType(t *testing.T) {
	out := evalAggregate(t, salesTable(), &domain.AggregateParams{
		GroupBy: []string{"dept"},
		Aggregates: []domain.AggSpec{
			{Column: "amount", Fn: domain.AggMin},
			{Column: "amount", Fn: domain.AggMax},
		},
	})

	if out.Column(1).Type != table.TypeInteger || out.Column(2).Type != table.TypeInteger {
		t.Errorf("min/max must keep source type, got %s/%s",
			out.Column(1).Type, out.Column(2).Type)
	}
	toys := out.Row(0)
	if toys[1] != int64(10) || toys[2] != int64(30) {
		t.Errorf("unexpected min/max: %v", toys)
	}
}

func TestAggregate_NullKeyFormsOwnGroup(t *testing.T) {
	tbl := table.MustNew([]table.Column{
		{Name: "k", Type: table.TypeText},
		{Name: "v", Type: table.TypeInteger},
	})
	tbl.AppendRow(table.Row{"a", int64(1)})
	tbl.AppendRow(table.Row{nil, int64(2)})
	tbl.AppendRow(table.Row{nil, int64(3)})

	out := evalAggregate(t, tbl, &domain.AggregateParams{
		GroupBy:    []string{"k"},
		Aggregates: []domain.AggSpec{{Column: "v", Fn: domain.AggSum}},
	})

	if out.NumRows() != 2 {
		t.Fatalf("expected 2 groups, got %d", out.NumRows())
	}
	nullGroup := out.Row(1)
	if nullGroup[0] != nil || nullGroup[1] != float64(5) {
		t.Errorf("unexpected null-key group: %v", nullGroup)
	}
}

func TestAggregate_AllNullsGiveNullResult(t *testing.T) {
	tbl := table.MustNew([]table.Column{
		{Name: "k", Type: table.TypeText},
		{Name: "v", Type: table.TypeInteger},
	})
	tbl.AppendRow(table.Row{"a", nil})

	out := evalAggregate(t, tbl, &domain.AggregateParams{
		GroupBy: []string{"k"},
		Aggregates: []domain.AggSpec{
			{Column: "v", Fn: domain.AggSum},
			{Column: "v", Fn: domain.AggCount},
			{Column: "v", Fn: domain.AggMin},
		},
	})

	row := out.Row(0)
	if row[1] != nil {
		t.Errorf("sum of empty group must be null, got %v", row[1])
	}
	if row[2] != int64(1) {
		t.Errorf("count must include null rows, got %v", row[2])
	}
	if row[3] != nil {
		t.Errorf("min of empty group must be null, got %v", row[3])
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	tbl := table.MustNew([]table.Column{
		{Name: "k", Type: table.TypeText},
		{Name: "v", Type: table.TypeInteger},
	})

	out := evalAggregate(t, tbl, &domain.AggregateParams{
		GroupBy:    []string{"k"},
		Aggregates: []domain.AggSpec{{Column: "v", Fn: domain.AggCount}},
	})

	if out.NumRows() != 0 {
		t.Errorf("expected empty result, got %d rows", out.NumRows())
	}
	if out.NumCols() != 2 {
		t.Errorf("expected declared columns on empty input, got %d", out.NumCols())
	}
}

func TestAggregate_UnknownColumn(t *testing.T) {
	_, err := (&AggregateNode{}).Evaluate(context.Background(), evalReq("g",
		&domain.AggregateParams{
			GroupBy:    []string{"ghost"},
			Aggregates: []domain.AggSpec{{Column: "amount", Fn: domain.AggSum}},
		}, salesTable()))
	wantNodeError(t, err, engine.ReasonUnknownColumn)
}
