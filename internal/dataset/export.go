package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shaiso/Tabula/internal/table"
)

// Export записывает таблицу в файл; формат выбирается по расширению
// (.xlsx или .csv).
func Export(path string, t *table.Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return exportExcel(path, t)
	case ".csv":
		return exportCSV(path, t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// exportExcel записывает таблицу на единственный лист xlsx-книги.
func exportExcel(path string, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	for j, c := range t.Columns() {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c.Name); err != nil {
			return err
		}
	}

	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, exportValue(v)); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

// exportCSV записывает таблицу в CSV с заголовком.
func exportCSV(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.ColumnNames()); err != nil {
		return err
	}

	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = table.AsString(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// exportValue приводит значение к типу, который excelize пишет
// нативно. Даты укорачиваются до дня.
func exportValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02")
	}
	return v
}
