package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/table"
)

// Dataset — запись о загруженном файле с данными.
type Dataset struct {
	// ID — уникальный идентификатор датасета.
	ID uuid.UUID `json:"id"`

	// Filename — имя файла в хранилище ("{id}_{original}").
	Filename string `json:"filename"`

	// OriginalName — имя файла при загрузке.
	OriginalName string `json:"original_name"`

	// Kind — формат файла: "xlsx" или "csv".
	Kind string `json:"kind"`

	// Sheets — метаданные листов (для CSV — один лист).
	Sheets []SheetInfo `json:"sheets"`

	// CreatedAt — время загрузки.
	CreatedAt time.Time `json:"created_at"`
}

// SheetInfo — метаданные одного листа: схема и размер.
//
// Схема (имена и типы колонок) определяется загрузчиком при приёме
// файла; движок доверяет ей и сам типы не выводит.
type SheetInfo struct {
	// Name — имя листа.
	Name string `json:"name"`

	// Columns — колонки с выведенными типами.
	Columns []table.Column `json:"columns"`

	// RowCount — количество строк данных (без заголовка).
	RowCount int `json:"row_count"`
}

// Sheet возвращает метаданные листа по имени.
// Пустое имя означает первый лист.
func (d *Dataset) Sheet(name string) (*SheetInfo, bool) {
	if len(d.Sheets) == 0 {
		return nil, false
	}
	if name == "" {
		return &d.Sheets[0], true
	}
	for i := range d.Sheets {
		if d.Sheets[i].Name == name {
			return &d.Sheets[i], true
		}
	}
	return nil, false
}
