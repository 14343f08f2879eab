package fixture

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped fixture files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based fixture loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "fixture-loader").Logger(),
	}
}

// Load reads a gzipped fixture file from the local file system.
func (l *fileLoader) Load(ctx context.Context, path string) (*Batch, error) {
	l.logger.Info().Str("file", path).Msg("loading fixture file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open fixture file")
		return nil, fmt.Errorf("failed to open fixture file %s: %w", path, err)
	}
	defer file.Close()

	batch, err := readBatch(ctx, file, path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read fixture file")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("products", len(batch.Products)).
		Int("rejected", len(batch.Rejected)).
		Msg("fixture file loaded successfully")

	return batch, nil
}

// readBatch decodes gzipped JSON lines from r. Blank lines are skipped and
// invalid records are collected rather than failing the whole file.
func readBatch(ctx context.Context, r io.Reader, source string) (*Batch, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	batch := &Batch{Source: source}

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		in, err := decodeRecord([]byte(line))
		if err != nil {
			batch.Rejected = append(batch.Rejected, Rejection{Source: source, Line: lineNo, Err: err})
			continue
		}
		batch.Products = append(batch.Products, Record{Line: lineNo, Input: in})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading fixture file %s: %w", source, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return batch, nil
}

func decodeRecord(data []byte) (*model.ProductInput, error) {
	in, err := model.DecodeProductInput(data)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(false); err != nil {
		return nil, err
	}
	return in, nil
}
