package fixture

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createFixtureFile creates a gzipped JSON-lines fixture file.
func createFixtureFile(t *testing.T, filename string, lines []string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), filename)

	file, err := os.Create(filePath)
	require.NoError(t, err)
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, line := range lines {
		_, err := gzipWriter.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}

	return filePath
}

func TestFileLoader_Load_Success(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createFixtureFile(t, "products.jsonl.gz", []string{
		`{"name":"Oak Desk","description":"Solid oak","price":"250.00","stock":3}`,
		`{"name":"Desk Lamp","price":35.5,"stock":10}`,
	})

	batch, err := loader.Load(context.Background(), filePath)

	require.NoError(t, err)
	require.Len(t, batch.Products, 2)
	assert.Empty(t, batch.Rejected)
	assert.Equal(t, filePath, batch.Source)

	first := batch.Products[0]
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, "Oak Desk", *first.Input.Name)
	assert.Equal(t, "250.00", model.FormatPrice(*first.Input.Price))
	assert.Equal(t, 3, *first.Input.Stock)
	assert.Equal(t, "35.50", model.FormatPrice(*batch.Products[1].Input.Price))
}

func TestFileLoader_Load_RejectsInvalidRecords(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createFixtureFile(t, "products.jsonl.gz", []string{
		`{"name":"Oak Desk","price":"250.00","stock":3}`,
		``,
		`{"name":"Broken","price":"-1","stock":1}`,
		`not json`,
		`{"price":"10","stock":1}`,
		`   `,
		`{"name":"Stool","price":"19.99","stock":0}`,
	})

	batch, err := loader.Load(context.Background(), filePath)

	require.NoError(t, err)
	require.Len(t, batch.Products, 2)
	assert.Equal(t, 7, batch.Products[1].Line)

	lines := make([]int, 0, len(batch.Rejected))
	for _, rej := range batch.Rejected {
		lines = append(lines, rej.Line)
		assert.Equal(t, filePath, rej.Source)
	}
	assert.Equal(t, []int{3, 4, 5}, lines)

	var verr *model.ValidationError
	require.ErrorAs(t, batch.Rejected[0].Err, &verr)
	assert.Contains(t, verr.Fields, "price")
	assert.ErrorIs(t, batch.Rejected[1].Err, model.ErrInvalidJSON)
	require.ErrorAs(t, batch.Rejected[2].Err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestFileLoader_Load_FileNotFound(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	batch, err := loader.Load(context.Background(), "/nonexistent/file.jsonl.gz")

	assert.Error(t, err)
	assert.Nil(t, batch)
	assert.Contains(t, err.Error(), "failed to open fixture file")
}

func TestFileLoader_Load_InvalidGzip(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := filepath.Join(t.TempDir(), "invalid.jsonl.gz")
	require.NoError(t, os.WriteFile(filePath, []byte("not a gzip file"), 0o644))

	batch, err := loader.Load(context.Background(), filePath)

	assert.Error(t, err)
	assert.Nil(t, batch)
	assert.Contains(t, err.Error(), "failed to create gzip reader")
}

func TestFileLoader_Load_ContextCancellation(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	lines := make([]string, 0, 2500)
	for range 2500 {
		lines = append(lines, `{"name":"Widget","price":"1.00","stock":1}`)
	}
	filePath := createFixtureFile(t, "large.jsonl.gz", lines)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := loader.Load(ctx, filePath)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, batch)
}

func TestFileLoader_Load_EmptyFile(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createFixtureFile(t, "empty.jsonl.gz", nil)

	batch, err := loader.Load(context.Background(), filePath)

	require.NoError(t, err)
	assert.Empty(t, batch.Products)
	assert.Empty(t, batch.Rejected)
}

func TestReadBatch_LongLine(t *testing.T) {
	description := strings.Repeat("x", 200_000)
	filePath := createFixtureFile(t, "long.jsonl.gz", []string{
		`{"name":"Rug","description":"` + description + `","price":"99.00","stock":2}`,
	})

	file, err := os.Open(filePath)
	require.NoError(t, err)
	defer file.Close()

	batch, err := readBatch(context.Background(), file, "long")

	require.NoError(t, err)
	require.Len(t, batch.Products, 1)
	assert.Len(t, *batch.Products[0].Input.Description, 200_000)
}
