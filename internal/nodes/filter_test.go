package nodes

import (
	"context"
	"fmt"
	"testing"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

func pricesTable() *table.Table {
	tbl := table.MustNew([]table.Column{
		{Name: "name", Type: table.TypeText},
		{Name: "price", Type: table.TypeInteger},
	})
	tbl.AppendRow(table.Row{"pen", int64(5)})
	tbl.AppendRow(table.Row{"book", int64(20)})
	tbl.AppendRow(table.Row{"lamp", int64(100)})
	return tbl
}

func TestFilter_GreaterThan(t *testing.T) {
	node := &FilterNode{}
	resp, err := node.Evaluate(context.Background(), evalReq("f",
		&domain.FilterParams{Column: "price", Op: domain.FilterOpGt, Value: int64(10)},
		pricesTable()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Table.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", resp.Table.NumRows())
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", resp.Warnings)
	}
}

func TestFilter_EqAcceptsNumericString(t *testing.T) {
	// Числовая строка из JSON сравнивается с числом по значению
	node := &FilterNode{}
	resp, err := node.Evaluate(context.Background(), evalReq("f",
		&domain.FilterParams{Column: "price", Op: domain.FilterOpEq, Value: "20"},
		pricesTable()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Table.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", resp.Table.NumRows())
	}
	if resp.Table.Row(0)[0] != "book" {
		t.Errorf("wrong row kept: %v", resp.Table.Row(0))
	}
}

func TestFilter_MismatchWarning(t *testing.T) {
	tbl := table.MustNew([]table.Column{{Name: "v", Type: table.TypeText}})
	tbl.AppendRow(table.Row{int64(7)})
	tbl.AppendRow(table.Row{"abc"})
	tbl.AppendRow(table.Row{"xyz"})

	node := &FilterNode{}
	resp, err := node.Evaluate(context.Background(), evalReq("f",
		&domain.FilterParams{Column: "v", Op: domain.FilterOpGt, Value: int64(5)}, tbl))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Несопоставимые строки выпадают с одним суммарным замечанием
	if resp.Table.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", resp.Table.NumRows())
	}
	if len(resp.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", resp.Warnings)
	}
	want := fmt.Sprintf("filter %q %s: %d row(s) dropped, value not comparable", "v", domain.FilterOpGt, 2)
	if resp.Warnings[0] != want {
		t.Errorf("warning = %q, want %q", resp.Warnings[0], want)
	}
}

func TestFilter_NullFailsPredicateSilently(t *testing.T) {
	tbl := table.MustNew([]table.Column{{Name: "v", Type: table.TypeInteger}})
	tbl.AppendRow(table.Row{nil})
	tbl.AppendRow(table.Row{int64(9)})

	node := &FilterNode{}
	resp, err := node.Evaluate(context.Background(), evalReq("f",
		&domain.FilterParams{Column: "v", Op: domain.FilterOpGt, Value: int64(1)}, tbl))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// null не проходит предикат, но несовпадением типов не считается
	if resp.Table.NumRows() != 1 {
		t.Errorf("expected 1 row, got %d", resp.Table.NumRows())
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("null must not produce a mismatch warning: %v", resp.Warnings)
	}
}

func TestFilter_ContainsCaseInsensitive(t *testing.T) {
	tbl := table.MustNew([]table.Column{{Name: "name", Type: table.TypeText}})
	tbl.AppendRow(table.Row{"Hello World"})
	tbl.AppendRow(table.Row{"goodbye"})
	tbl.AppendRow(table.Row{nil})

	node := &FilterNode{}
	resp, err := node.Evaluate(context.Background(), evalReq("f",
		&domain.FilterParams{Column: "name", Op: domain.FilterOpContains, Value: "WORLD"}, tbl))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Table.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", resp.Table.NumRows())
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", resp.Warnings)
	}
}

func TestFilter_BooleanEquality(t *testing.T) {
	tbl := table.MustNew([]table.Column{
		{Name: "name", Type: table.TypeText},
		{Name: "active", Type: table.TypeBoolean},
	})
	tbl.AppendRow(table.Row{"a", true})
	tbl.AppendRow(table.Row{"b", false})
	tbl.AppendRow(table.Row{"c", true})

	node := &FilterNode{}
	resp, err := node.Evaluate(context.Background(), evalReq("f",
		&domain.FilterParams{Column: "active", Op: domain.FilterOpEq, Value: true}, tbl))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Table.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", resp.Table.NumRows())
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("booleans are comparable, no warning expected: %v", resp.Warnings)
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	tbl := table.MustNew([]table.Column{{Name: "v", Type: table.TypeText}})
	tbl.AppendRow(table.Row{nil})
	tbl.AppendRow(table.Row{"   "})
	tbl.AppendRow(table.Row{"x"})

	node := &FilterNode{}
	resp, err := node.Evaluate(context.Background(), evalReq("f",
		&domain.FilterParams{Column: "v", Op: domain.FilterOpIsEmpty}, tbl))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Table.NumRows() != 2 {
		t.Errorf("expected 2 empty rows, got %d", resp.Table.NumRows())
	}
}

func TestFilter_UnknownColumn(t *testing.T) {
	node := &FilterNode{}
	_, err := node.Evaluate(context.Background(), evalReq("f",
		&domain.FilterParams{Column: "ghost", Op: domain.FilterOpIsEmpty}, pricesTable()))
	wantNodeError(t, err, engine.ReasonUnknownColumn)
}
