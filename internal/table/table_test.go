package table

import (
	"testing"
	"time"
)

func TestNew_DuplicateColumn(t *testing.T) {
	_, err := New([]Column{
		{Name: "a", Type: TypeText},
		{Name: "a", Type: TypeInteger},
	})
	if err == nil {
		t.Fatal("expected error for duplicate column name")
	}
}

func TestAppendRow_LengthMismatch(t *testing.T) {
	tbl := MustNew([]Column{
		{Name: "a", Type: TypeText},
		{Name: "b", Type: TypeInteger},
	})

	if err := tbl.AppendRow(Row{"x"}); err == nil {
		t.Error("expected error for short row")
	}
	if err := tbl.AppendRow(Row{"x", int64(1), "extra"}); err == nil {
		t.Error("expected error for long row")
	}
	if err := tbl.AppendRow(Row{"x", int64(1)}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if tbl.NumRows() != 1 {
		t.Errorf("expected 1 row, got %d", tbl.NumRows())
	}
}

func TestRecords_Truncation(t *testing.T) {
	tbl := MustNew([]Column{{Name: "n", Type: TypeInteger}})
	for i := 0; i < 5; i++ {
		tbl.AppendRow(Row{int64(i)})
	}

	if got := len(tbl.Records(3)); got != 3 {
		t.Errorf("expected 3 records, got %d", got)
	}
	if got := len(tbl.Records(-1)); got != 5 {
		t.Errorf("expected all 5 records for negative limit, got %d", got)
	}

	// null остаётся nil в записи
	tbl2 := MustNew([]Column{{Name: "v", Type: TypeText}})
	tbl2.AppendRow(Row{nil})
	rec := tbl2.Records(1)[0]
	if rec["v"] != nil {
		t.Errorf("expected nil for null cell, got %v", rec["v"])
	}
}

func TestAsNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"int64", int64(42), 42, true},
		{"float64", 3.14, 3.14, true},
		{"numeric string", " 7.5 ", 7.5, true},
		{"text", "abc", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AsNumber(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("AsNumber(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	date1 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	date2 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		want int
		ok   bool
	}{
		{"numbers", int64(2), int64(10), -1, true},
		{"number vs numeric string", int64(5), "5", 0, true},
		{"number vs text", int64(5), "abc", 0, false},
		{"text vs number", "abc", int64(5), 0, false},
		{"dates", date1, date2, -1, true},
		{"date vs date string", date2, "2024-01-15", 1, true},
		{"date vs garbage string", date1, "not a date", 0, false},
		{"strings", "apple", "banana", -1, true},
		{"string vs bool", "true", true, 0, false},
		{"bools", false, true, -1, true},
		{"bools equal", true, true, 0, true},
		{"bool vs number", true, int64(1), 0, false},
		{"null left", nil, int64(1), 0, false},
		{"null right", "x", nil, 0, false},
		{"both null", nil, nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compare(tt.a, tt.b)
			if ok != tt.ok {
				t.Fatalf("Compare(%v, %v) ok = %v, want %v", tt.a, tt.b, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestKeyString_NullNeverMatches(t *testing.T) {
	if _, ok := KeyString(nil); ok {
		t.Error("null key must not be usable for matching")
	}

	a, _ := KeyString(int64(5))
	b, _ := KeyString("5")
	if a != b {
		t.Errorf("expected canonical keys to match: %q vs %q", a, b)
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty(nil) {
		t.Error("nil should be empty")
	}
	if !IsEmpty("   ") {
		t.Error("blank string should be empty")
	}
	if IsEmpty("x") {
		t.Error("non-blank string should not be empty")
	}
	if IsEmpty(int64(0)) {
		t.Error("zero is a value, not empty")
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-15", "2024/01/15", "15.01.2024"} {
		d, err := ParseDate(s)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", s, err)
			continue
		}
		if d.Year() != 2024 || d.Month() != time.January || d.Day() != 15 {
			t.Errorf("ParseDate(%q) = %v", s, d)
		}
	}

	if _, err := ParseDate("tomorrow"); err == nil {
		t.Error("expected error for unparsable date")
	}
}
