package dataset

import (
	"testing"
	"time"

	"github.com/shaiso/Tabula/internal/table"
)

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   table.Type
	}{
		{"integers", []string{"1", "42", "-7"}, table.TypeInteger},
		{"decimals", []string{"1.5", "2", "3.25"}, table.TypeDecimal},
		{"comma decimals", []string{"12,5", "0,1"}, table.TypeDecimal},
		{"booleans", []string{"true", "False", "да", "НЕТ"}, table.TypeBoolean},
		{"dates", []string{"2024-01-15", "15.01.2024"}, table.TypeDate},
		{"mixed falls back to text", []string{"1", "abc"}, table.TypeText},
		{"blanks ignored", []string{"", "  ", "5"}, table.TypeInteger},
		{"all blank", []string{"", "   "}, table.TypeUnknown},
		{"empty", nil, table.TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferColumnType(tt.values); got != tt.want {
				t.Errorf("inferColumnType(%v) = %s, want %s", tt.values, got, tt.want)
			}
		})
	}
}

func TestConvertCell(t *testing.T) {
	if v := convertCell("42", table.TypeInteger); v != int64(42) {
		t.Errorf("integer: got %v (%T)", v, v)
	}
	if v := convertCell("12,5", table.TypeDecimal); v != 12.5 {
		t.Errorf("comma decimal: got %v", v)
	}
	if v := convertCell("да", table.TypeBoolean); v != true {
		t.Errorf("boolean: got %v", v)
	}
	if v := convertCell("", table.TypeText); v != nil {
		t.Errorf("blank must become null, got %v", v)
	}
	// Непарсящееся значение остаётся строкой, а не ошибкой
	if v := convertCell("n/a", table.TypeInteger); v != "n/a" {
		t.Errorf("unparsable: got %v", v)
	}
	if d, ok := convertCell("15.01.2024", table.TypeDate).(time.Time); !ok || d.Year() != 2024 {
		t.Errorf("date: got %v", d)
	}
}

func TestBuildTable_HeaderNormalization(t *testing.T) {
	header := []string{"name", "", "name", "name"}
	rows := [][]string{{"a", "1", "b", "c"}}

	tbl, err := buildTable(header, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Пустой заголовок получает позиционное имя, дубликаты — суффикс
	want := []string{"name", "column_2", "name_2", "name_3"}
	for i, name := range want {
		if tbl.Column(i).Name != name {
			t.Errorf("column %d = %q, want %q", i, tbl.Column(i).Name, name)
		}
	}
}

func TestBuildTable_RaggedRows(t *testing.T) {
	header := []string{"a", "b", "c"}
	rows := [][]string{
		{"1", "2", "3"},
		{"4"},
	}

	tbl, err := buildTable(header, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.NumRows())
	}
	// Короткая строка дополняется null'ами
	short := tbl.Row(1)
	if short[0] != int64(4) || short[1] != nil || short[2] != nil {
		t.Errorf("unexpected padded row: %v", short)
	}
}

func TestBuildTable_TypedCells(t *testing.T) {
	header := []string{"qty", "price", "note"}
	rows := [][]string{
		{"2", "1,5", "ok"},
		{"", "2.5", ""},
	}

	tbl, err := buildTable(header, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tbl.Column(0).Type != table.TypeInteger ||
		tbl.Column(1).Type != table.TypeDecimal ||
		tbl.Column(2).Type != table.TypeText {
		t.Fatalf("unexpected types: %v", tbl.Columns())
	}

	first := tbl.Row(0)
	if first[0] != int64(2) || first[1] != 1.5 || first[2] != "ok" {
		t.Errorf("unexpected first row: %v", first)
	}
	second := tbl.Row(1)
	if second[0] != nil || second[1] != 2.5 || second[2] != nil {
		t.Errorf("unexpected second row: %v", second)
	}
}
