package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zbozi/categories/internal/client"
	"zbozi/categories/internal/domain"
	"zbozi/categories/internal/repository"
	"zbozi/categories/internal/source"

	log "github.com/sirupsen/logrus"
)

// Summary describes a finished run
type Summary struct {
	Categories    int
	Batches       int
	FailedBatches int
	Rows          int
}

type Service struct {
	resolver   source.Resolver
	client     client.ZboziClient
	repository repository.ResultRepository
	chunkSize  int
	sleepTime  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     log.FieldLogger
}

func NewService(
	resolver source.Resolver,
	client client.ZboziClient,
	repository repository.ResultRepository,
	chunkSize int,
	sleepTime int,
	logger log.FieldLogger,
) *Service {
	return &Service{
		resolver:   resolver,
		client:     client,
		repository: repository,
		chunkSize:  chunkSize,
		sleepTime:  time.Duration(sleepTime) * time.Second,
		sleep:      sleepContext,
		logger:     logger,
	}
}

// Run resolves the category IDs and writes one row per resolved category.
// A failed or malformed batch is logged and skipped; an unexpected batch
// shape or a write failure stops the run.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	ids, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Categories: ids.Len()}
	if ids.Len() == 0 {
		s.logger.Warn("⚠️ No categories to resolve, writing an empty table")
		return summary, nil
	}

	batches := domain.Chunks(ids.Sorted(), s.chunkSize)
	s.logger.Infof("🔄 Resolving %d categories in %d batches of up to %d", ids.Len(), len(batches), s.chunkSize)

	for i, batch := range batches {
		summary.Batches++

		written, err := s.processBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return summary, fmt.Errorf("run cancelled: %w", ctx.Err())
			}

			switch {
			case errors.Is(err, client.ErrUnexpectedShape):
				s.logger.WithError(err).Error("❌ Batch result has an unrecognized shape")
				return summary, err
			case errors.Is(err, client.ErrMalformedResponse):
				s.logger.WithError(err).Errorf("No info returned for categories: %s", strings.Join(batch, ","))
				summary.FailedBatches++
			case errors.Is(err, client.ErrRequestFailed):
				s.logger.WithError(err).Warnf("🔄 Skipping batch %d/%d", i+1, len(batches))
				summary.FailedBatches++
			default:
				return summary, err
			}
		}
		summary.Rows += written

		if err := s.sleep(ctx, s.sleepTime); err != nil {
			return summary, fmt.Errorf("run cancelled: %w", err)
		}
	}

	s.logger.Infof("✅ Wrote %d rows for %d categories (%d of %d batches failed)",
		summary.Rows, summary.Categories, summary.FailedBatches, summary.Batches)

	return summary, nil
}

func (s *Service) processBatch(ctx context.Context, batch []string) (int, error) {
	s.logger.Infof("Getting names for ids: %s", strings.Join(batch, ","))

	rows, err := s.client.GetCategories(ctx, batch)
	if err != nil {
		return 0, err
	}

	requested := domain.NewIDSet(batch...)
	kept := rows[:0]
	for _, row := range rows {
		if !requested.Contains(row.CategoryID) {
			s.logger.Warnf("⚠️ Dropping category %s, it was not requested", row.CategoryID)
			continue
		}
		kept = append(kept, row)
	}

	if err := s.repository.SaveRows(ctx, kept); err != nil {
		return 0, fmt.Errorf("failed to save rows: %w", err)
	}

	return len(kept), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
