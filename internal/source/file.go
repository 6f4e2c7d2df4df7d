package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"zbozi/categories/internal/domain"

	log "github.com/sirupsen/logrus"
)

const (
	categoryColumn = "CATEGORY"
	sourceColumn   = "SOURCE"
	countryColumn  = "COUNTRY"

	wantedSource  = "zbozi"
	wantedCountry = "CZ"
)

// FileResolver reads candidate IDs from an input table. A row counts when its
// CATEGORY is numeric and SOURCE/COUNTRY, if present, are zbozi/CZ.
type FileResolver struct {
	path   string
	logger log.FieldLogger
}

func NewFileResolver(path string, logger log.FieldLogger) *FileResolver {
	return &FileResolver{
		path:   path,
		logger: logger,
	}
}

func (r *FileResolver) Resolve(ctx context.Context) (domain.IDSet, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input table: %w", err)
	}
	defer f.Close()

	ids, err := readCategoryIDs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read input table %s: %w", r.path, err)
	}

	r.logger.Infof("📄 Found %d unique categories in %s", ids.Len(), r.path)
	return ids, nil
}

func readCategoryIDs(ctx context.Context, in io.Reader) (domain.IDSet, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	ids := domain.NewIDSet()

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ids, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[name] = i
	}

	categoryIdx, ok := columns[categoryColumn]
	if !ok {
		return nil, fmt.Errorf("column %s not found in header %v", categoryColumn, header)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		category := field(record, categoryIdx)
		if !domain.IsNumericID(category) {
			continue
		}
		if columnValue(record, columns, sourceColumn, wantedSource) != wantedSource {
			continue
		}
		if columnValue(record, columns, countryColumn, wantedCountry) != wantedCountry {
			continue
		}

		ids.Add(domain.CanonicalID(category))
	}

	return ids, nil
}

// columnValue returns def when the column is absent from the header
func columnValue(record []string, columns map[string]int, name, def string) string {
	idx, ok := columns[name]
	if !ok {
		return def
	}
	return field(record, idx)
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}
