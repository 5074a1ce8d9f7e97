package table

import (
	"fmt"
)

// Type — объявленный тип колонки.
type Type string

const (
	// TypeText — текстовые значения (string).
	TypeText Type = "text"

	// TypeInteger — целые числа (int64).
	TypeInteger Type = "integer"

	// TypeDecimal — числа с плавающей точкой (float64).
	TypeDecimal Type = "decimal"

	// TypeBoolean — булевы значения (bool).
	TypeBoolean Type = "boolean"

	// TypeDate — даты (time.Time).
	TypeDate Type = "date"

	// TypeUnknown — тип не определён загрузчиком.
	TypeUnknown Type = "unknown"
)

// Column — именованная типизированная колонка.
type Column struct {
	// Name — имя колонки, уникальное в рамках таблицы.
	Name string `json:"name"`

	// Type — объявленный тип значений.
	Type Type `json:"type"`
}

// Row — значения одной строки, выровненные по позициям колонок.
// nil означает null-маркер.
type Row []any

// Table — табличное значение, передаваемое между узлами workflow.
//
// Инварианты:
//   - имена колонок уникальны;
//   - каждая строка содержит ровно столько значений, сколько колонок;
//   - после публикации (передачи следующему узлу) таблица не мутируется.
//
// Порядок колонок значим только для представления, не для семантики.
type Table struct {
	cols  []Column
	index map[string]int
	rows  []Row
}

// New создаёт пустую таблицу с заданными колонками.
// Возвращает ошибку при дублировании имён колонок.
func New(cols []Column) (*Table, error) {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has empty name", i)
		}
		if _, exists := index[c.Name]; exists {
			return nil, fmt.Errorf("duplicate column name: %s", c.Name)
		}
		index[c.Name] = i
	}

	return &Table{
		cols:  append([]Column(nil), cols...),
		index: index,
		rows:  make([]Row, 0),
	}, nil
}

// MustNew — как New, но паникует при ошибке. Для тестов и фикстур.
func MustNew(cols []Column) *Table {
	t, err := New(cols)
	if err != nil {
		panic(err)
	}
	return t
}

// AppendRow добавляет строку. Длина строки должна совпадать
// с количеством колонок (sparse-строки запрещены).
func (t *Table) AppendRow(row Row) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.cols))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Columns возвращает копию списка колонок.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.cols...)
}

// ColumnNames возвращает имена колонок по порядку.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex возвращает позицию колонки по имени.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Column возвращает колонку по позиции.
func (t *Table) Column(i int) Column {
	return t.cols[i]
}

// NumCols возвращает количество колонок.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// NumRows возвращает количество строк.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// Row возвращает строку по индексу. Строку нельзя мутировать.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Value возвращает значение ячейки (nil — null).
func (t *Table) Value(row, col int) any {
	return t.rows[row][col]
}

// Records возвращает строки как список отображений имя колонки → значение.
// Используется для сериализации в API и preview.
func (t *Table) Records(maxRows int) []map[string]any {
	n := len(t.rows)
	if maxRows >= 0 && maxRows < n {
		n = maxRows
	}

	records := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]any, len(t.cols))
		for j, c := range t.cols {
			rec[c.Name] = t.rows[i][j]
		}
		records[i] = rec
	}
	return records
}
