package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/table"
)

// LoadOptions — параметры чтения листа.
type LoadOptions struct {
	// HeaderRow — номер строки заголовка (с нуля, после SkipRows).
	HeaderRow int

	// SkipRows — сколько строк пропустить перед заголовком.
	SkipRows int
}

// Kind определяет формат файла по расширению.
func Kind(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return "xlsx", nil
	case ".csv":
		return "csv", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// LoadSheet читает один лист файла как таблицу.
// Для CSV имя листа игнорируется, пустое имя листа xlsx — первый лист.
func LoadSheet(path, kind, sheet string, opts LoadOptions) (*table.Table, error) {
	switch kind {
	case "xlsx":
		return loadExcelSheet(path, sheet, opts)
	case "csv":
		return loadCSV(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
}

// Inspect читает метаданные всех листов файла: имена, схемы, размеры.
// Вызывается один раз при загрузке; схема сохраняется в Dataset и
// дальше используется без повторного чтения файла.
func Inspect(path, kind string) ([]domain.SheetInfo, error) {
	switch kind {
	case "xlsx":
		return inspectExcel(path)
	case "csv":
		t, err := loadCSV(path, LoadOptions{})
		if err != nil {
			return nil, err
		}
		return []domain.SheetInfo{{
			Name:     "data",
			Columns:  t.Columns(),
			RowCount: t.NumRows(),
		}}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
}

// loadExcelSheet читает лист xlsx-файла.
func loadExcelSheet(path, sheet string, opts LoadOptions) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !containsSheet(sheets, sheet) {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return tableFromRows(rows, opts)
}

// inspectExcel читает схемы всех листов книги.
func inspectExcel(path string) ([]domain.SheetInfo, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var infos []domain.SheetInfo
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		t, err := tableFromRows(rows, LoadOptions{})
		if err != nil {
			// Пустые листы пропускаем, книга с одним заполненным
			// листом остаётся валидной
			continue
		}
		infos = append(infos, domain.SheetInfo{
			Name:     sheet,
			Columns:  t.Columns(),
			RowCount: t.NumRows(),
		})
	}
	if len(infos) == 0 {
		return nil, ErrEmptySheet
	}
	return infos, nil
}

// loadCSV читает CSV-файл как таблицу.
func loadCSV(path string, opts LoadOptions) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return tableFromRows(rows, opts)
}

// tableFromRows выделяет заголовок и строит таблицу.
func tableFromRows(rows [][]string, opts LoadOptions) (*table.Table, error) {
	headerAt := opts.SkipRows + opts.HeaderRow
	if headerAt >= len(rows) {
		return nil, ErrEmptySheet
	}
	return buildTable(rows[headerAt], rows[headerAt+1:])
}

func containsSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}
