package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"zbozi/categories/internal/domain"

	log "github.com/sirupsen/logrus"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type categoryParser struct{}

func newCategoryParser() *categoryParser {
	return &categoryParser{}
}

// extractData unwraps the {"data": ...} envelope shared by all endpoints
func (p *categoryParser) extractData(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body: %v", ErrMalformedResponse, err)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("%w: missing data field", ErrMalformedResponse)
	}

	return data, nil
}

// ParseCategories maps the lookup data to rows. Any bad record fails the whole batch.
func (p *categoryParser) ParseCategories(data json.RawMessage) ([]domain.Row, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrMalformedResponse)
	}

	switch data[0] {
	case '[':
		var records []domain.CategoryRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}

		rows := make([]domain.Row, 0, len(records))
		for i, record := range records {
			row, err := p.toRow(record)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			rows = append(rows, row)
		}

		log.Debugf("Parsed %d category records", len(rows))
		return rows, nil

	case '{':
		var record domain.CategoryRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}

		row, err := p.toRow(record)
		if err != nil {
			return nil, err
		}
		return []domain.Row{row}, nil

	default:
		if json.Valid(data) {
			return nil, fmt.Errorf("%w: data is neither a list nor a record: %s", ErrMalformedResponse, data)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedShape, data)
	}
}

func (p *categoryParser) toRow(record domain.CategoryRecord) (domain.Row, error) {
	id, ok := domain.NumberID(record.CategoryID)
	if !ok {
		return domain.Row{}, fmt.Errorf("%w: categoryId missing", ErrMalformedResponse)
	}
	if len(record.Path) == 0 {
		return domain.Row{}, fmt.Errorf("%w: path missing for category %s", ErrMalformedResponse, id)
	}

	return domain.NewRow(id, record.Path), nil
}

// ParseTree decodes the forest returned by the tree endpoint
func (p *categoryParser) ParseTree(data json.RawMessage) ([]domain.CategoryNode, error) {
	var roots []domain.CategoryNode
	if err := json.Unmarshal(data, &roots); err != nil {
		return nil, fmt.Errorf("%w: invalid category tree: %v", ErrMalformedResponse, err)
	}
	return roots, nil
}
