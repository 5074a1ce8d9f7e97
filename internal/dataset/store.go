package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/table"
)

// Store — файловое хранилище загруженных датасетов и выгруженных
// результатов. Файлы лежат в двух каталогах: uploads (входные файлы,
// имена "{id}_{original}") и results (выгрузки run'ов).
type Store struct {
	uploadsDir string
	resultsDir string
}

// NewStore создаёт хранилище, создавая каталоги при необходимости.
func NewStore(baseDir string) (*Store, error) {
	s := &Store{
		uploadsDir: filepath.Join(baseDir, "uploads"),
		resultsDir: filepath.Join(baseDir, "results"),
	}
	for _, dir := range []string{s.uploadsDir, s.resultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return s, nil
}

// Save принимает загружаемый файл: сохраняет содержимое и строит
// метаданные датасета (формат, схемы листов).
func (s *Store) Save(originalName string, r io.Reader) (*domain.Dataset, error) {
	kind, err := Kind(originalName)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	filename := fmt.Sprintf("%s_%s", id, filepath.Base(originalName))
	path := filepath.Join(s.uploadsDir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close file: %w", err)
	}

	sheets, err := Inspect(path, kind)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	return &domain.Dataset{
		ID:           id,
		Filename:     filename,
		OriginalName: filepath.Base(originalName),
		Kind:         kind,
		Sheets:       sheets,
		CreatedAt:    time.Now(),
	}, nil
}

// Open читает лист датасета как таблицу.
func (s *Store) Open(d *domain.Dataset, sheet string, opts LoadOptions) (*table.Table, error) {
	path := filepath.Join(s.uploadsDir, d.Filename)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, d.Filename)
	}
	return LoadSheet(path, d.Kind, sheet, opts)
}

// Delete удаляет файл датасета.
func (s *Store) Delete(d *domain.Dataset) error {
	err := os.Remove(filepath.Join(s.uploadsDir, d.Filename))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ResultPath возвращает путь файла результата по имени.
// Имя проверяется на выход за пределы каталога.
func (s *Store) ResultPath(filename string) (string, error) {
	clean := filepath.Base(filename)
	if clean != filename || clean == "." || clean == ".." {
		return "", fmt.Errorf("invalid result filename: %q", filename)
	}
	path := filepath.Join(s.resultsDir, clean)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	return path, nil
}

// ExportResult выгружает таблицу результата в файл results-каталога.
func (s *Store) ExportResult(filename string, t *table.Table) (string, error) {
	clean := filepath.Base(filename)
	path := filepath.Join(s.resultsDir, clean)
	if err := Export(path, t); err != nil {
		return "", err
	}
	return clean, nil
}
