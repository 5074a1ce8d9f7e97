package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Ошибки валидации параметров узлов.
var (
	// ErrInvalidParams — параметры узла не проходят валидацию.
	ErrInvalidParams = errors.New("invalid node params")

	// ErrUnknownFilterOp — неизвестный оператор фильтра.
	ErrUnknownFilterOp = errors.New("unknown filter operator")

	// ErrUnknownJoinKind — неизвестный вид join.
	ErrUnknownJoinKind = errors.New("unknown join kind")

	// ErrUnknownAggregateFn — неизвестная агрегатная функция.
	ErrUnknownAggregateFn = errors.New("unknown aggregate function")
)

// Params — параметры узла. Конкретный тип зависит от NodeKind:
// фиксированный набор полей на каждый вид, проверяемый при
// конструировании графа.
type Params interface {
	// Kind возвращает вид узла, которому принадлежат параметры.
	Kind() NodeKind

	// Validate проверяет структурную корректность параметров.
	Validate() error
}

// unmarshalParams декодирует параметры в конкретный тип по виду узла.
func unmarshalParams(kind NodeKind, raw json.RawMessage) (Params, error) {
	var p Params
	switch kind {
	case NodeKindSource:
		p = &SourceParams{}
	case NodeKindSelect:
		p = &SelectParams{}
	case NodeKindFilter:
		p = &FilterParams{}
	case NodeKindCompute:
		p = &ComputeParams{}
	case NodeKindMerge:
		p = &MergeParams{}
	case NodeKindGroupAggregate:
		p = &AggregateParams{}
	case NodeKindOutput:
		p = &OutputParams{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeKind, kind)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// --- source ---

// SourceParams — привязка source-узла к загруженному датасету.
type SourceParams struct {
	// DatasetID — идентификатор загруженного файла.
	DatasetID string `json:"dataset_id"`

	// Sheet — имя листа. Для CSV игнорируется.
	Sheet string `json:"sheet,omitempty"`
}

func (p *SourceParams) Kind() NodeKind { return NodeKindSource }

func (p *SourceParams) Validate() error {
	if p.DatasetID == "" {
		return fmt.Errorf("%w: source requires dataset_id", ErrInvalidParams)
	}
	return nil
}

// --- select ---

// SelectParams — упорядоченный список колонок, которые нужно оставить.
type SelectParams struct {
	Columns []string `json:"columns"`
}

func (p *SelectParams) Kind() NodeKind { return NodeKindSelect }

func (p *SelectParams) Validate() error {
	if len(p.Columns) == 0 {
		return fmt.Errorf("%w: select requires at least one column", ErrInvalidParams)
	}
	seen := make(map[string]bool, len(p.Columns))
	for _, c := range p.Columns {
		if c == "" {
			return fmt.Errorf("%w: select column name is empty", ErrInvalidParams)
		}
		if seen[c] {
			return fmt.Errorf("%w: select column %q listed twice", ErrInvalidParams, c)
		}
		seen[c] = true
	}
	return nil
}

// --- filter ---

// FilterOp — оператор предиката фильтра.
type FilterOp string

const (
	FilterOpEq       FilterOp = "eq"
	FilterOpNe       FilterOp = "ne"
	FilterOpGt       FilterOp = "gt"
	FilterOpLt       FilterOp = "lt"
	FilterOpGe       FilterOp = "ge"
	FilterOpLe       FilterOp = "le"
	FilterOpContains FilterOp = "contains"
	FilterOpIsEmpty  FilterOp = "is_empty"
)

// validFilterOps — допустимые операторы.
var validFilterOps = map[FilterOp]bool{
	FilterOpEq: true, FilterOpNe: true,
	FilterOpGt: true, FilterOpLt: true,
	FilterOpGe: true, FilterOpLe: true,
	FilterOpContains: true, FilterOpIsEmpty: true,
}

// FilterParams — предикат фильтра: колонка, оператор, значение сравнения.
type FilterParams struct {
	Column string   `json:"column"`
	Op     FilterOp `json:"op"`

	// Value — значение сравнения. Для is_empty не используется.
	Value any `json:"value,omitempty"`
}

func (p *FilterParams) Kind() NodeKind { return NodeKindFilter }

func (p *FilterParams) Validate() error {
	if p.Column == "" {
		return fmt.Errorf("%w: filter requires column", ErrInvalidParams)
	}
	if !validFilterOps[p.Op] {
		return fmt.Errorf("%w: %s", ErrUnknownFilterOp, p.Op)
	}
	if p.Op != FilterOpIsEmpty && p.Value == nil {
		return fmt.Errorf("%w: filter op %s requires value", ErrInvalidParams, p.Op)
	}
	return nil
}

// --- compute ---

// ComputeParams — новая колонка, вычисляемая по выражению
// над существующими колонками (+, -, *, / и литералы).
type ComputeParams struct {
	// Target — имя новой колонки.
	Target string `json:"target"`

	// Expr — арифметическое выражение, например "price * qty" или
	// "(a + b) / 2". Имена с пробелами берутся в обратные кавычки.
	Expr string `json:"expr"`
}

func (p *ComputeParams) Kind() NodeKind { return NodeKindCompute }

func (p *ComputeParams) Validate() error {
	if p.Target == "" {
		return fmt.Errorf("%w: compute requires target column name", ErrInvalidParams)
	}
	if p.Expr == "" {
		return fmt.Errorf("%w: compute requires expression", ErrInvalidParams)
	}
	return nil
}

// --- merge ---

// JoinKind — вид реляционного соединения.
type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	JoinOuter JoinKind = "outer"
)

// validJoinKinds — допустимые виды join.
var validJoinKinds = map[JoinKind]bool{
	JoinInner: true, JoinLeft: true, JoinOuter: true,
}

// MergeParams — параметры соединения N входов.
//
// Keys[i] — ключевые колонки i-го входа (по слотам); все списки
// одинаковой длины. Соединение выполняется попарной левой свёрткой:
// (((вход0 ⋈ вход1) ⋈ вход2) ⋈ ...).
type MergeParams struct {
	Join JoinKind   `json:"join"`
	Keys [][]string `json:"keys"`
}

func (p *MergeParams) Kind() NodeKind { return NodeKindMerge }

func (p *MergeParams) Validate() error {
	if !validJoinKinds[p.Join] {
		return fmt.Errorf("%w: %s", ErrUnknownJoinKind, p.Join)
	}
	if len(p.Keys) < 2 {
		return fmt.Errorf("%w: merge requires keys for at least two inputs", ErrInvalidParams)
	}
	width := len(p.Keys[0])
	if width == 0 {
		return fmt.Errorf("%w: merge key list is empty", ErrInvalidParams)
	}
	for i, keys := range p.Keys {
		if len(keys) != width {
			return fmt.Errorf("%w: merge keys for input %d have length %d, expected %d",
				ErrInvalidParams, i, len(keys), width)
		}
		for _, k := range keys {
			if k == "" {
				return fmt.Errorf("%w: merge key name is empty", ErrInvalidParams)
			}
		}
	}
	return nil
}

// --- group_aggregate ---

// AggregateFn — агрегатная функция.
type AggregateFn string

const (
	AggSum   AggregateFn = "sum"
	AggAvg   AggregateFn = "avg"
	AggCount AggregateFn = "count"
	AggMin   AggregateFn = "min"
	AggMax   AggregateFn = "max"
)

// validAggregateFns — допустимые агрегатные функции.
var validAggregateFns = map[AggregateFn]bool{
	AggSum: true, AggAvg: true, AggCount: true, AggMin: true, AggMax: true,
}

// AggSpec — один агрегат: исходная колонка, функция, имя результата.
type AggSpec struct {
	Column string      `json:"column"`
	Fn     AggregateFn `json:"fn"`

	// As — имя выходной колонки. По умолчанию "{column}_{fn}".
	As string `json:"as,omitempty"`
}

// OutputName возвращает имя выходной колонки агрегата.
func (a AggSpec) OutputName() string {
	if a.As != "" {
		return a.As
	}
	return a.Column + "_" + string(a.Fn)
}

// AggregateParams — группировка по списку колонок со списком агрегатов.
type AggregateParams struct {
	GroupBy    []string  `json:"group_by"`
	Aggregates []AggSpec `json:"aggregates"`
}

func (p *AggregateParams) Kind() NodeKind { return NodeKindGroupAggregate }

func (p *AggregateParams) Validate() error {
	if len(p.GroupBy) == 0 {
		return fmt.Errorf("%w: group_aggregate requires group_by columns", ErrInvalidParams)
	}
	if len(p.Aggregates) == 0 {
		return fmt.Errorf("%w: group_aggregate requires at least one aggregate", ErrInvalidParams)
	}
	for _, g := range p.GroupBy {
		if g == "" {
			return fmt.Errorf("%w: group_by column name is empty", ErrInvalidParams)
		}
	}
	for _, a := range p.Aggregates {
		if a.Column == "" {
			return fmt.Errorf("%w: aggregate column name is empty", ErrInvalidParams)
		}
		if !validAggregateFns[a.Fn] {
			return fmt.Errorf("%w: %s", ErrUnknownAggregateFn, a.Fn)
		}
	}
	return nil
}

// --- output ---

// OutputParams — имя назначения терминального результата.
type OutputParams struct {
	// Name — ключ результата в выходной карте run'а.
	// Если пусто, используется id узла.
	Name string `json:"name,omitempty"`
}

func (p *OutputParams) Kind() NodeKind { return NodeKindOutput }

func (p *OutputParams) Validate() error { return nil }
