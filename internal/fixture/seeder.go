package fixture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Report summarises a seeding run.
type Report struct {
	Files    int
	Created  int
	Rejected []Rejection
}

// Seeder loads fixture files and stores their products.
type Seeder struct {
	loader   Loader
	products ProductCreator
	logger   zerolog.Logger
}

// NewSeeder creates a seeder writing through products.
func NewSeeder(loader Loader, products ProductCreator, logger zerolog.Logger) *Seeder {
	return &Seeder{
		loader:   loader,
		products: products,
		logger:   logger.With().Str("component", "fixture-seeder").Logger(),
	}
}

// Seed loads every file concurrently, then inserts the products in file
// order. Records the product service rejects are reported, not fatal; any
// load or storage failure aborts the run.
func (s *Seeder) Seed(ctx context.Context, paths []string) (*Report, error) {
	batches, err := s.loadAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	report := &Report{Files: len(batches)}
	for _, batch := range batches {
		report.Rejected = append(report.Rejected, batch.Rejected...)

		for _, rec := range batch.Products {
			_, err := s.products.Create(ctx, rec.Input)
			if err != nil {
				var verr *model.ValidationError
				if errors.As(err, &verr) {
					report.Rejected = append(report.Rejected, Rejection{Source: batch.Source, Line: rec.Line, Err: err})
					continue
				}
				s.logger.Error().Err(err).Str("source", batch.Source).Msg("failed to store fixture product")
				return nil, fmt.Errorf("failed to seed %s: %w", batch.Source, err)
			}
			report.Created++
		}
	}

	for _, rej := range report.Rejected {
		s.logger.Warn().
			Err(rej.Err).
			Str("source", rej.Source).
			Int("line", rej.Line).
			Msg("fixture record rejected")
	}

	s.logger.Info().
		Int("files", report.Files).
		Int("created", report.Created).
		Int("rejected", len(report.Rejected)).
		Msg("fixtures seeded")

	return report, nil
}

func (s *Seeder) loadAll(ctx context.Context, paths []string) ([]*Batch, error) {
	type loadResult struct {
		index int
		batch *Batch
		err   error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			batch, err := s.loader.Load(ctx, path)
			resultChan <- loadResult{index: index, batch: batch, err: err}
		}(i, path)
	}

	// Wait for all loads to complete
	wg.Wait()
	close(resultChan)

	// Collect results in order
	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	batches := make([]*Batch, 0, len(paths))
	for i, result := range results {
		if result.err != nil {
			s.logger.Error().Err(result.err).Str("file", paths[i]).Msg("failed to load fixture file")
			return nil, fmt.Errorf("failed to load fixture file %s: %w", paths[i], result.err)
		}
		batches = append(batches, result.batch)
	}

	return batches, nil
}
