package nodes

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/table"
)

// ComputeNode добавляет колонку, вычисляемую арифметическим выражением
// над существующими колонками.
//
// Грамматика выражений:
//
//	expr   = term   { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | ident | "(" expr ")" | "-" factor
//
// Идентификатор — имя колонки; имена с пробелами берутся в обратные
// кавычки: `unit price` * qty. Деление на ноль и null-операнды дают
// null, а не ошибку. Результат всегда типа decimal. Если колонка
// target уже существует, она перезаписывается.
type ComputeNode struct{}

func (n *ComputeNode) Kind() domain.NodeKind { return domain.NodeKindCompute }

func (n *ComputeNode) Evaluate(_ context.Context, req *engine.EvalRequest) (*engine.EvalResponse, error) {
	params, ne := paramsAs[*domain.ComputeParams](req)
	if ne != nil {
		return nil, ne
	}
	in, ne := singleInput(req)
	if ne != nil {
		return nil, ne
	}

	expr, err := parseExpr(params.Expr)
	if err != nil {
		return nil, engine.NewNodeError(req.Node.ID, engine.ReasonInvalidParameter,
			"cannot parse expression %q: %v", params.Expr, err)
	}

	// Имена колонок связываются один раз до прохода по строкам:
	// неизвестная колонка — отказ узла, а не null в каждой строке.
	for _, name := range expr.columns() {
		if _, ok := in.ColumnIndex(name); !ok {
			return nil, engine.NewNodeError(req.Node.ID, engine.ReasonUnknownColumn,
				"expression references column %q which does not exist in input", name)
		}
	}

	cols := in.Columns()
	targetIdx, overwrite := in.ColumnIndex(params.Target)
	if overwrite {
		cols[targetIdx] = table.Column{Name: params.Target, Type: table.TypeDecimal}
	} else {
		cols = append(cols, table.Column{Name: params.Target, Type: table.TypeDecimal})
	}

	out, err := table.New(cols)
	if err != nil {
		return nil, engine.AsNodeError(err, req.Node.ID)
	}

	for r := 0; r < in.NumRows(); r++ {
		src := in.Row(r)

		var value any
		if v, ok := expr.eval(in, src); ok {
			value = v
		}

		row := make(table.Row, len(cols))
		copy(row, src)
		if overwrite {
			row[targetIdx] = value
		} else {
			row[len(row)-1] = value
		}
		if err := out.AppendRow(row); err != nil {
			return nil, engine.AsNodeError(err, req.Node.ID)
		}
	}

	return &engine.EvalResponse{Table: out}, nil
}

// --- выражения ---

// exprNode — узел разобранного выражения.
// eval возвращает (значение, ok); ok=false означает null.
type exprNode interface {
	eval(t *table.Table, row table.Row) (float64, bool)
	columns() []string
}

// numberExpr — числовой литерал.
type numberExpr struct{ value float64 }

func (e *numberExpr) eval(*table.Table, table.Row) (float64, bool) { return e.value, true }
func (e *numberExpr) columns() []string                            { return nil }

// columnExpr — ссылка на колонку.
type columnExpr struct{ name string }

func (e *columnExpr) eval(t *table.Table, row table.Row) (float64, bool) {
	idx, ok := t.ColumnIndex(e.name)
	if !ok {
		return 0, false
	}
	v := row[idx]
	if v == nil {
		return 0, false
	}
	return table.AsNumber(v)
}

func (e *columnExpr) columns() []string { return []string{e.name} }

// binaryExpr — бинарная операция.
type binaryExpr struct {
	op          byte
	left, right exprNode
}

func (e *binaryExpr) eval(t *table.Table, row table.Row) (float64, bool) {
	l, ok := e.left.eval(t, row)
	if !ok {
		return 0, false
	}
	r, ok := e.right.eval(t, row)
	if !ok {
		return 0, false
	}
	switch e.op {
	case '+':
		return l + r, true
	case '-':
		return l - r, true
	case '*':
		return l * r, true
	case '/':
		if r == 0 {
			return 0, false
		}
		return l / r, true
	}
	return 0, false
}

func (e *binaryExpr) columns() []string {
	return append(e.left.columns(), e.right.columns()...)
}

// negExpr — унарный минус.
type negExpr struct{ operand exprNode }

func (e *negExpr) eval(t *table.Table, row table.Row) (float64, bool) {
	v, ok := e.operand.eval(t, row)
	return -v, ok
}

func (e *negExpr) columns() []string { return e.operand.columns() }

// exprParser — рекурсивный спуск по грамматике выражений.
type exprParser struct {
	input []rune
	pos   int
}

// parseExpr разбирает выражение целиком.
func parseExpr(s string) (exprNode, error) {
	p := &exprParser{input: []rune(s)}
	node, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return node, nil
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *exprParser) peek() rune {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseSum() (exprNode, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			left = &binaryExpr{op: '+', left: left, right: right}
		case '-', '−':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			left = &binaryExpr{op: '-', left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseProduct() (exprNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '*', '×':
			p.pos++
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left = &binaryExpr{op: '*', left: left, right: right}
		case '/', '÷':
			p.pos++
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left = &binaryExpr{op: '/', left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseFactor() (exprNode, error) {
	switch c := p.peek(); {
	case c == 0:
		return nil, fmt.Errorf("unexpected end of expression")

	case c == '(':
		p.pos++
		node, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return node, nil

	case c == '-' || c == '−':
		p.pos++
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &negExpr{operand: operand}, nil

	case c == '`':
		return p.parseQuotedIdent()

	case unicode.IsDigit(c) || c == '.':
		return p.parseNumber()

	case unicode.IsLetter(c) || c == '_':
		return p.parseIdent()

	default:
		return nil, fmt.Errorf("unexpected character %q at position %d", c, p.pos)
	}
}

func (p *exprParser) parseNumber() (exprNode, error) {
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	text := string(p.input[start:p.pos])
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}
	return &numberExpr{value: value}, nil
}

func (p *exprParser) parseIdent() (exprNode, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			break
		}
		p.pos++
	}
	return &columnExpr{name: string(p.input[start:p.pos])}, nil
}

// parseQuotedIdent разбирает имя колонки в обратных кавычках,
// допускающее пробелы и знаки операций: `unit price`.
func (p *exprParser) parseQuotedIdent() (exprNode, error) {
	p.pos++ // открывающая кавычка
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != '`' {
		p.pos++
	}
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unterminated quoted column name")
	}
	name := strings.TrimSpace(string(p.input[start:p.pos]))
	p.pos++ // закрывающая кавычка
	if name == "" {
		return nil, fmt.Errorf("empty quoted column name")
	}
	return &columnExpr{name: name}, nil
}
