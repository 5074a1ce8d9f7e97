package nodes

import (
	"context"
	"testing"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

func TestSelect_ProjectionOrder(t *testing.T) {
	tbl := table.MustNew([]table.Column{
		{Name: "a", Type: table.TypeText},
		{Name: "b", Type: table.TypeInteger},
		{Name: "c", Type: table.TypeDecimal},
	})
	tbl.AppendRow(table.Row{"x", int64(1), 2.5})

	resp, err := (&SelectNode{}).Evaluate(context.Background(), evalReq("s",
		&domain.SelectParams{Columns: []string{"c", "a"}}, tbl))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := resp.Table
	// Колонки идут в заказанном порядке, не в исходном
	if out.NumCols() != 2 || out.Column(0).Name != "c" || out.Column(1).Name != "a" {
		t.Fatalf("unexpected projection: %v", out.Columns())
	}
	row := out.Row(0)
	if row[0] != 2.5 || row[1] != "x" {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestSelect_UnknownColumn(t *testing.T) {
	tbl := table.MustNew([]table.Column{{Name: "a", Type: table.TypeText}})

	_, err := (&SelectNode{}).Evaluate(context.Background(), evalReq("s",
		&domain.SelectParams{Columns: []string{"a", "ghost"}}, tbl))
	wantNodeError(t, err, engine.ReasonUnknownColumn)
}
