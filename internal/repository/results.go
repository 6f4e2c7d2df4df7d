package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"zbozi/categories/internal/domain"
)

type ResultRepository interface {
	SaveRows(ctx context.Context, rows []domain.Row) error
	Close() error
}

type csvResultRepository struct {
	writer *csv.Writer
	closer io.Closer
}

// NewResultRepository writes the header to w and returns a repository that
// appends rows to it. Each SaveRows call is flushed before returning.
func NewResultRepository(w io.Writer) (ResultRepository, error) {
	repo := &csvResultRepository{
		writer: csv.NewWriter(w),
	}
	if c, ok := w.(io.Closer); ok {
		repo.closer = c
	}

	if err := repo.writer.Write(domain.Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	repo.writer.Flush()
	if err := repo.writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return repo, nil
}

// CreateResultRepository creates (or truncates) the result table at path
func CreateResultRepository(path string) (ResultRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create result table: %w", err)
	}

	repo, err := NewResultRepository(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return repo, nil
}

func (r *csvResultRepository) SaveRows(ctx context.Context, rows []domain.Row) error {
	for _, row := range rows {
		if err := r.writer.Write(row.Values()); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.CategoryID, err)
		}
	}

	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}

	return nil
}

func (r *csvResultRepository) Close() error {
	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}

	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
