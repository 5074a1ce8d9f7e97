package dataset

import (
	"strconv"
	"strings"

	"github.com/shaiso/Tabula/internal/table"
)

// Вывод типов колонок по содержимому.
//
// Загрузчик получает все значения строками (и xlsx, и csv) и выводит
// тип каждой колонки по выборке непустых значений: если все они
// разбираются как целые — integer, как числа — decimal, как булевы —
// boolean, как даты — date, иначе text. Пустая колонка — unknown.

// inferSampleSize — сколько непустых значений хватает для вывода типа.
const inferSampleSize = 200

// inferColumnType выводит тип колонки по значениям.
func inferColumnType(values []string) table.Type {
	sampled := 0
	isInt, isNum, isBool, isDate := true, true, true, true

	for _, raw := range values {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		sampled++

		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isNum {
			if _, err := strconv.ParseFloat(normalizeDecimal(s), 64); err != nil {
				isNum = false
			}
		}
		if isBool {
			if !isBoolToken(s) {
				isBool = false
			}
		}
		if isDate {
			if _, err := table.ParseDate(s); err != nil {
				isDate = false
			}
		}

		if sampled >= inferSampleSize {
			break
		}
	}

	switch {
	case sampled == 0:
		return table.TypeUnknown
	case isBool:
		return table.TypeBoolean
	case isInt:
		return table.TypeInteger
	case isNum:
		return table.TypeDecimal
	case isDate:
		return table.TypeDate
	default:
		return table.TypeText
	}
}

// normalizeDecimal заменяет десятичную запятую на точку: в выгрузках
// из русских локалей Excel числа приходят как "12,5".
func normalizeDecimal(s string) string {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}

// isBoolToken проверяет булев литерал.
func isBoolToken(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "да", "нет":
		return true
	}
	return false
}

// convertCell приводит сырое строковое значение к типу колонки.
// Пустая строка — null. Непарсящееся значение остаётся строкой:
// решение об ошибке принимают узлы графа, не загрузчик.
func convertCell(raw string, typ table.Type) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	switch typ {
	case table.TypeInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case table.TypeDecimal:
		if f, err := strconv.ParseFloat(normalizeDecimal(s), 64); err == nil {
			return f
		}
	case table.TypeBoolean:
		switch strings.ToLower(s) {
		case "true", "да":
			return true
		case "false", "нет":
			return false
		}
	case table.TypeDate:
		if t, err := table.ParseDate(s); err == nil {
			return t
		}
	}
	return s
}

// buildTable строит таблицу из заголовка и сырых строк, выводя типы
// колонок по содержимому.
func buildTable(header []string, rawRows [][]string) (*table.Table, error) {
	cols := make([]table.Column, len(header))
	taken := make(map[string]bool, len(header))

	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		// Дубликаты заголовков дизамбигуируются суффиксом
		base := name
		for n := 2; taken[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		taken[name] = true

		values := make([]string, 0, len(rawRows))
		for _, row := range rawRows {
			if i < len(row) {
				values = append(values, row[i])
			}
		}
		cols[i] = table.Column{Name: name, Type: inferColumnType(values)}
	}

	t, err := table.New(cols)
	if err != nil {
		return nil, err
	}

	for _, raw := range rawRows {
		row := make(table.Row, len(cols))
		for i := range cols {
			if i < len(raw) {
				row[i] = convertCell(raw[i], cols[i].Type)
			}
		}
		if err := t.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}
