package table

import (
	"strconv"
	"strings"
	"time"
)

// Приведение значений между типами колонок.
//
// Политика пермиссивная: функции возвращают (значение, ok) и никогда
// не падают — несовместимое значение даёт ok=false, а решение о том,
// ошибка это или нет, принимает вызывающий узел.

// AsNumber приводит значение к float64.
// Поддерживает int64, float64 и строки, парсящиеся как число.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsString приводит значение к каноничному строковому представлению.
// Для nil возвращает пустую строку.
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return ""
	}
}

// KeyString приводит значение ключа join/group-by к каноничной строке.
// Для null возвращает ok=false: по SQL-семантике null не матчится
// даже с другим null.
func KeyString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	return AsString(v), true
}

// AsTime приводит значение к time.Time.
func AsTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// Compare сравнивает два значения.
// Возвращает (-1|0|1, true) при сопоставимых значениях, (0, false) —
// при несопоставимых (например, число против нечисловой строки).
//
// Порядок попыток: числа, даты, строки. Null ни с чем не сопоставим.
func Compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	if an, aok := AsNumber(a); aok {
		if bn, bok := AsNumber(b); bok {
			switch {
			case an < bn:
				return -1, true
			case an > bn:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}

	if at, aok := AsTime(a); aok {
		if bt, bok := AsTime(b); bok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			default:
				return 0, true
			}
		}
		// Дата против строки-даты: пробуем распарсить строку
		if bs, bok := b.(string); bok {
			if bt, err := ParseDate(bs); err == nil {
				switch {
				case at.Before(bt):
					return -1, true
				case at.After(bt):
					return 1, true
				default:
					return 0, true
				}
			}
		}
		return 0, false
	}

	// Булевы сопоставимы только друг с другом: false < true
	if ab, aok := a.(bool); aok {
		bb, bok := b.(bool)
		if !bok {
			return 0, false
		}
		switch {
		case ab == bb:
			return 0, true
		case bb:
			return -1, true
		default:
			return 1, true
		}
	}

	// Строки сравниваются лексикографически только со строками.
	// Нечисловая строка против числа — несопоставимо в обе стороны.
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return 0, false
	}
	return strings.Compare(as, bs), true
}

// Equal проверяет равенство двух значений по правилам Compare.
// Null не равен ничему, включая null.
func Equal(a, b any) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

// IsEmpty возвращает true для null и пустых (после trim) строк.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// dateLayouts — форматы дат, которые умеет разбирать ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate разбирает строку как дату по известным форматам.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
