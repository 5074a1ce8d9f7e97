package nodes

import (
	"context"
	"testing"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

func ordersTable() *table.Table {
	tbl := table.MustNew([]table.Column{
		{Name: "id", Type: table.TypeInteger},
		{Name: "name", Type: table.TypeText},
	})
	tbl.AppendRow(table.Row{int64(1), "pen"})
	tbl.AppendRow(table.Row{int64(2), "book"})
	tbl.AppendRow(table.Row{int64(3), "lamp"})
	return tbl
}

func priceListTable() *table.Table {
	tbl := table.MustNew([]table.Column{
		{Name: "item_id", Type: table.TypeInteger},
		{Name: "name", Type: table.TypeText},
		{Name: "price", Type: table.TypeDecimal},
	})
	tbl.AppendRow(table.Row{int64(1), "PEN", 1.5})
	tbl.AppendRow(table.Row{int64(2), "BOOK", 20.0})
	tbl.AppendRow(table.Row{int64(9), "GHOST", 0.0})
	return tbl
}

func evalMerge(t *testing.T, join domain.JoinKind, keys [][]string, inputs ...*table.Table) *table.Table {
	t.Helper()
	resp, err := (&MergeNode{}).Evaluate(context.Background(), evalReq("m",
		&domain.MergeParams{Join: join, Keys: keys}, inputs...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp.Table
}

func TestMerge_Inner(t *testing.T) {
	out := evalMerge(t, domain.JoinInner,
		[][]string{{"id"}, {"item_id"}},
		ordersTable(), priceListTable())

	// Ключевая колонка правого входа выпадает, дубль имени получает суффикс
	wantCols := []string{"id", "name", "name_2", "price"}
	if out.NumCols() != len(wantCols) {
		t.Fatalf("expected %d columns, got %d", len(wantCols), out.NumCols())
	}
	for i, name := range wantCols {
		if out.Column(i).Name != name {
			t.Errorf("column %d = %q, want %q", i, out.Column(i).Name, name)
		}
	}

	if out.NumRows() != 2 {
		t.Fatalf("expected 2 matched rows, got %d", out.NumRows())
	}
	row := out.Row(0)
	if row[0] != int64(1) || row[1] != "pen" || row[2] != "PEN" || row[3] != 1.5 {
		t.Errorf("unexpected first row: %v", row)
	}
}

func TestMerge_Left(t *testing.T) {
	out := evalMerge(t, domain.JoinLeft,
		[][]string{{"id"}, {"item_id"}},
		ordersTable(), priceListTable())

	if out.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", out.NumRows())
	}
	// Несматченная левая строка дополняется null'ами справа
	last := out.Row(2)
	if last[0] != int64(3) || last[2] != nil || last[3] != nil {
		t.Errorf("unexpected unmatched row: %v", last)
	}
}

func TestMerge_Outer(t *testing.T) {
	out := evalMerge(t, domain.JoinOuter,
		[][]string{{"id"}, {"item_id"}},
		ordersTable(), priceListTable())

	if out.NumRows() != 4 {
		t.Fatalf("expected 4 rows, got %d", out.NumRows())
	}
	// Несматченная правая строка идёт в хвост с null'ами в левых колонках
	last := out.Row(3)
	if last[0] != nil || last[1] != nil || last[2] != "GHOST" {
		t.Errorf("unexpected right-only row: %v", last)
	}
}

func TestMerge_NullKeysNeverMatch(t *testing.T) {
	left := table.MustNew([]table.Column{{Name: "k", Type: table.TypeText}})
	left.AppendRow(table.Row{nil})
	right := table.MustNew([]table.Column{
		{Name: "k", Type: table.TypeText},
		{Name: "v", Type: table.TypeInteger},
	})
	right.AppendRow(table.Row{nil, int64(1)})

	out := evalMerge(t, domain.JoinInner, [][]string{{"k"}, {"k"}}, left, right)
	if out.NumRows() != 0 {
		t.Errorf("null keys must not match each other, got %d rows", out.NumRows())
	}
}

func TestMerge_ThreeInputsFoldLeft(t *testing.T) {
	a := table.MustNew([]table.Column{
		{Name: "k", Type: table.TypeInteger},
		{Name: "a", Type: table.TypeText},
	})
	a.AppendRow(table.Row{int64(1), "a1"})

	b := table.MustNew([]table.Column{
		{Name: "k", Type: table.TypeInteger},
		{Name: "b", Type: table.TypeText},
	})
	b.AppendRow(table.Row{int64(1), "b1"})

	c := table.MustNew([]table.Column{
		{Name: "k", Type: table.TypeInteger},
		{Name: "c", Type: table.TypeText},
	})
	c.AppendRow(table.Row{int64(1), "c1"})

	out := evalMerge(t, domain.JoinInner,
		[][]string{{"k"}, {"k"}, {"k"}}, a, b, c)

	if out.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", out.NumRows())
	}
	row := out.Row(0)
	if row[0] != int64(1) || row[1] != "a1" || row[2] != "b1" || row[3] != "c1" {
		t.Errorf("unexpected folded row: %v", row)
	}
}

func TestMerge_CompositeKeys(t *testing.T) {
	left := table.MustNew([]table.Column{
		{Name: "city", Type: table.TypeText},
		{Name: "year", Type: table.TypeInteger},
	})
	left.AppendRow(table.Row{"msk", int64(2024)})
	left.AppendRow(table.Row{"msk", int64(2025)})

	right := table.MustNew([]table.Column{
		{Name: "city", Type: table.TypeText},
		{Name: "year", Type: table.TypeInteger},
		{Name: "pop", Type: table.TypeInteger},
	})
	right.AppendRow(table.Row{"msk", int64(2025), int64(13)})

	out := evalMerge(t, domain.JoinInner,
		[][]string{{"city", "year"}, {"city", "year"}}, left, right)

	if out.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", out.NumRows())
	}
	if out.Row(0)[1] != int64(2025) {
		t.Errorf("wrong row matched: %v", out.Row(0))
	}
}

func TestMerge_UnknownKeyColumn(t *testing.T) {
	_, err := (&MergeNode{}).Evaluate(context.Background(), evalReq("m",
		&domain.MergeParams{Join: domain.JoinInner, Keys: [][]string{{"id"}, {"nope"}}},
		ordersTable(), priceListTable()))
	wantNodeError(t, err, engine.ReasonUnknownColumn)
}

func TestMerge_SingleInputRejected(t *testing.T) {
	_, err := (&MergeNode{}).Evaluate(context.Background(), evalReq("m",
		&domain.MergeParams{Join: domain.JoinInner, Keys: [][]string{{"id"}}},
		ordersTable()))
	wantNodeError(t, err, engine.ReasonInvalidParameter)
}
