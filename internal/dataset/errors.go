package dataset

import "errors"

// Ошибки работы с датасетами.
var (
	// ErrNotFound — датасет не найден в хранилище.
	ErrNotFound = errors.New("dataset not found")

	// ErrSheetNotFound — в файле нет листа с таким именем.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrUnsupportedFormat — формат файла не поддерживается.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptySheet — лист не содержит строки заголовка.
	ErrEmptySheet = errors.New("sheet has no header row")
)
