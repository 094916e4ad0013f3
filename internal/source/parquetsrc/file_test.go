package parquetsrc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parqscope/internal/model"
	"parqscope/internal/source"
)

type testRow struct {
	ID    int64    `parquet:"id"`
	Name  string   `parquet:"name"`
	Score *float64 `parquet:"score,optional"`
}

// writeTestFile writes rows in groups of groupSize, one row group per flush
func writeTestFile(t *testing.T, rows []testRow, groupSize int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := parquet.NewGenericWriter[testRow](f)
	for start := 0; start < len(rows); start += groupSize {
		end := start + groupSize
		if end > len(rows) {
			end = len(rows)
		}
		_, err := w.Write(rows[start:end])
		require.NoError(t, err)
		require.NoError(t, w.Flush())
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func makeRows(n int) []testRow {
	rows := make([]testRow, n)
	for i := range rows {
		rows[i].ID = int64(i + 1)
		rows[i].Name = "row"
		if i%10 != 0 {
			score := float64(i) / 2
			rows[i].Score = &score
		}
	}
	return rows
}

func TestOpenReadsFooterMetadata(t *testing.T) {
	path := writeTestFile(t, makeRows(3000), 1000)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(3000), f.TotalRows())
	require.Len(t, f.RowGroups(), 3)
	for i, rg := range f.RowGroups() {
		assert.Equal(t, i, rg.Index)
		assert.Equal(t, int64(1000), rg.NumRows)
		assert.Len(t, rg.Columns, 3)
		assert.Greater(t, rg.CompressedSize, int64(0))
	}

	meta := f.Metadata()
	assert.Equal(t, "parquet", meta.Format)
	assert.Equal(t, int64(3000), meta.NumRows)
	assert.NotEmpty(t, meta.CreatedBy)
	assert.Greater(t, meta.SizeBytes, int64(0))

	leaves := f.Schema().Leaves()
	require.Len(t, leaves, 3)
	assert.Equal(t, "id", leaves[0].Path)
	assert.Equal(t, model.KindInteger, leaves[0].Type)
	assert.Equal(t, "name", leaves[1].Path)
	assert.Equal(t, model.KindString, leaves[1].Type)
	assert.Equal(t, "score", leaves[2].Path)
	assert.Equal(t, model.KindFloat, leaves[2].Type)
	assert.True(t, leaves[2].Nullable)
}

func TestCompressedSizeTotals(t *testing.T) {
	path := writeTestFile(t, makeRows(3000), 1000)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	// Per row group, the footer-declared total equals the sum of its
	// column chunk sizes; the file-level total is the sum over row groups
	var fileTotal int64
	for _, rg := range f.RowGroups() {
		var chunkSum int64
		for _, col := range rg.Columns {
			assert.Greater(t, col.CompressedSize, int64(0))
			chunkSum += col.CompressedSize
		}
		assert.Equal(t, chunkSum, rg.CompressedSize, "row group %d", rg.Index)
		fileTotal += chunkSum
	}
	assert.Equal(t, fileTotal, f.Metadata().CompressedSize())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.parquet"))
	require.Error(t, err)
	assert.True(t, source.IsErrorCode(err, source.ErrCodeFileNotFound))
	assert.True(t, source.IsFatal(err))
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.parquet")
	require.NoError(t, os.WriteFile(path, []byte("this is not a parquet file at all"), 0644))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, source.IsErrorCode(err, source.ErrCodeFileCorrupt))
	assert.True(t, source.IsFatal(err))
}

func TestOpenTruncatedFile(t *testing.T) {
	path := writeTestFile(t, makeRows(100), 100)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Chop off the footer
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0644))

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, source.IsErrorCode(err, source.ErrCodeFileCorrupt))
}

func TestReadColumnRestartable(t *testing.T) {
	path := writeTestFile(t, makeRows(500), 200)
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	readAll := func() []int64 {
		var out []int64
		for rg := range f.RowGroups() {
			it, err := f.ReadColumn(context.Background(), rg, "id")
			require.NoError(t, err)
			for {
				v, err := it.Next()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				out = append(out, v.Int)
			}
			require.NoError(t, it.Close())
		}
		return out
	}

	first := readAll()
	require.Len(t, first, 500)
	assert.Equal(t, int64(1), first[0])
	assert.Equal(t, int64(500), first[499])

	// A second pass over the same column yields identical values
	assert.Equal(t, first, readAll())
}

func TestReadColumnNulls(t *testing.T) {
	path := writeTestFile(t, makeRows(100), 100)
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	it, err := f.ReadColumn(context.Background(), 0, "score")
	require.NoError(t, err)
	defer it.Close()

	var nulls, nonNull int
	for {
		v, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if v.Null {
			nulls++
		} else {
			nonNull++
			assert.Equal(t, model.KindFloat, v.Kind)
		}
	}
	assert.Equal(t, 10, nulls)
	assert.Equal(t, 90, nonNull)
}

func TestReadColumnErrors(t *testing.T) {
	path := writeTestFile(t, makeRows(10), 10)
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadColumn(context.Background(), 0, "missing")
	assert.True(t, source.IsErrorCode(err, source.ErrCodeColumnNotFound))

	_, err = f.ReadColumn(context.Background(), 7, "id")
	assert.True(t, source.IsErrorCode(err, source.ErrCodeRowGroupRange))
}

func TestReadColumnCancelled(t *testing.T) {
	path := writeTestFile(t, makeRows(100), 100)
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	it, err := f.ReadColumn(ctx, 0, "id")
	require.NoError(t, err)
	defer it.Close()

	_, err = it.Next()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadPageWindow(t *testing.T) {
	path := writeTestFile(t, makeRows(1000), 1000)
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	values, err := f.ReadPage(context.Background(), 0, "id", 100, 20)
	require.NoError(t, err)
	require.Len(t, values, 20)
	assert.Equal(t, int64(101), values[0].Int)
	assert.Equal(t, int64(120), values[19].Int)

	// A window past the end is clipped
	values, err = f.ReadPage(context.Background(), 0, "id", 995, 20)
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.Equal(t, int64(1000), values[4].Int)

	// Zero limit reads nothing
	values, err = f.ReadPage(context.Background(), 0, "id", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestCloseIsIdempotentAndFinal(t *testing.T) {
	path := writeTestFile(t, makeRows(10), 10)
	f, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.ReadColumn(context.Background(), 0, "id")
	assert.True(t, source.IsErrorCode(err, source.ErrCodeSourceClosed))

	// Metadata stays readable from the cached footer
	assert.Equal(t, int64(10), f.TotalRows())
}
