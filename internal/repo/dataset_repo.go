package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Tabula/internal/domain"
)

// DatasetRepo — репозиторий метаданных загруженных датасетов.
// Сами файлы лежат в файловом хранилище (dataset.Store); БД хранит
// только запись с именем файла и схемами листов.
type DatasetRepo struct {
	pool *pgxpool.Pool
}

// NewDatasetRepo создаёт новый DatasetRepo.
func NewDatasetRepo(pool *pgxpool.Pool) *DatasetRepo {
	return &DatasetRepo{pool: pool}
}

// Create сохраняет метаданные датасета.
func (r *DatasetRepo) Create(ctx context.Context, d *domain.Dataset) error {
	sheetsJSON, err := json.Marshal(d.Sheets)
	if err != nil {
		return fmt.Errorf("marshal sheets: %w", err)
	}

	query := `
		INSERT INTO datasets (id, filename, original_name, kind, sheets, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query,
		d.ID,
		d.Filename,
		d.OriginalName,
		d.Kind,
		sheetsJSON,
		d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

// GetByID возвращает датасет по ID.
func (r *DatasetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dataset, error) {
	query := `
		SELECT id, filename, original_name, kind, sheets, created_at
		FROM datasets
		WHERE id = $1
	`
	return r.scanDataset(r.pool.QueryRow(ctx, query, id))
}

// List возвращает датасеты, новые первыми.
func (r *DatasetRepo) List(ctx context.Context, limit, offset int) ([]domain.Dataset, error) {
	query := `
		SELECT id, filename, original_name, kind, sheets, created_at
		FROM datasets
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []domain.Dataset
	for rows.Next() {
		d, err := r.scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *d)
	}
	return datasets, rows.Err()
}

// Delete удаляет метаданные датасета.
func (r *DatasetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanDataset сканирует одну строку в Dataset.
func (r *DatasetRepo) scanDataset(row pgx.Row) (*domain.Dataset, error) {
	var d domain.Dataset
	var sheetsJSON []byte

	err := row.Scan(
		&d.ID,
		&d.Filename,
		&d.OriginalName,
		&d.Kind,
		&sheetsJSON,
		&d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}

	if sheetsJSON != nil {
		if err := json.Unmarshal(sheetsJSON, &d.Sheets); err != nil {
			return nil, fmt.Errorf("unmarshal sheets: %w", err)
		}
	}
	return &d, nil
}
