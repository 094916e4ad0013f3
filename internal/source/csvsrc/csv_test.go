package csvsrc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parqscope/internal/model"
	"parqscope/internal/source"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenInfersTypes(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"id,name,score,active",
		"1,alice,1.5,true",
		"2,bob,2.5,false",
		"3,carol,3.5,true",
	}, "\n"))

	f, err := Open(path, 0)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(3), f.TotalRows())
	require.Len(t, f.RowGroups(), 1)

	leaves := f.Schema().Leaves()
	require.Len(t, leaves, 4)
	assert.Equal(t, model.KindInteger, leaves[0].Type)
	assert.Equal(t, model.KindString, leaves[1].Type)
	assert.Equal(t, model.KindFloat, leaves[2].Type)
	assert.Equal(t, model.KindBoolean, leaves[3].Type)

	meta := f.Metadata()
	assert.Equal(t, "csv", meta.Format)
	assert.Greater(t, meta.SizeBytes, int64(0))
}

func TestOpenChunksIntoRowGroups(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("n\n")
	for i := 1; i <= 250; i++ {
		fmt.Fprintf(&sb, "%d\n", i)
	}
	path := writeCSV(t, sb.String())

	f, err := Open(path, 100)
	require.NoError(t, err)
	defer f.Close()

	groups := f.RowGroups()
	require.Len(t, groups, 3)
	assert.Equal(t, int64(100), groups[0].NumRows)
	assert.Equal(t, int64(100), groups[1].NumRows)
	assert.Equal(t, int64(50), groups[2].NumRows)
	assert.Equal(t, int64(250), f.TotalRows())
}

func TestReadColumnValues(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"n",
		"10",
		"20",
		"30",
	}, "\n"))

	f, err := Open(path, 0)
	require.NoError(t, err)
	defer f.Close()

	it, err := f.ReadColumn(context.Background(), 0, "n")
	require.NoError(t, err)
	defer it.Close()

	var got []int64
	for {
		v, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v.Int)
	}
	assert.Equal(t, []int64{10, 20, 30}, got)
}

func TestNullTokens(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"name,score",
		"alice,1.5",
		"NULL,2.5",
		"bob,N/A",
		"carol,",
	}, "\n"))

	f, err := Open(path, 0)
	require.NoError(t, err)
	defer f.Close()

	groups := f.RowGroups()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Columns, 2)
	require.NotNil(t, groups[0].Columns[0].NullCount)
	assert.Equal(t, int64(1), *groups[0].Columns[0].NullCount)
	require.NotNil(t, groups[0].Columns[1].NullCount)
	assert.Equal(t, int64(2), *groups[0].Columns[1].NullCount)

	it, err := f.ReadColumn(context.Background(), 0, "score")
	require.NoError(t, err)
	defer it.Close()

	var nulls int
	for {
		v, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if v.Null {
			nulls++
		}
	}
	assert.Equal(t, 2, nulls)
}

func TestReadPageWindow(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("n\n")
	for i := 1; i <= 50; i++ {
		fmt.Fprintf(&sb, "%d\n", i)
	}
	path := writeCSV(t, sb.String())

	f, err := Open(path, 0)
	require.NoError(t, err)
	defer f.Close()

	values, err := f.ReadPage(context.Background(), 0, "n", 10, 5)
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.Equal(t, int64(11), values[0].Int)
	assert.Equal(t, int64(15), values[4].Int)

	values, err = f.ReadPage(context.Background(), 0, "n", 48, 10)
	require.NoError(t, err)
	require.Len(t, values, 2)
}

func TestReadErrors(t *testing.T) {
	path := writeCSV(t, "n\n1\n2\n")
	f, err := Open(path, 0)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadColumn(context.Background(), 0, "missing")
	assert.True(t, source.IsErrorCode(err, source.ErrCodeColumnNotFound))

	_, err = f.ReadColumn(context.Background(), 3, "n")
	assert.True(t, source.IsErrorCode(err, source.ErrCodeRowGroupRange))
}

func TestOpenMissingAndEmpty(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.csv"), 0)
	assert.True(t, source.IsErrorCode(err, source.ErrCodeFileNotFound))

	// Header-only files must fail cleanly, newline or not
	for _, content := range []string{"a,b\n", "a,b", "a,b\n\n\n", ""} {
		path := writeCSV(t, content)
		_, err = Open(path, 0)
		assert.True(t, source.IsErrorCode(err, source.ErrCodeFileCorrupt), "content %q", content)
	}
}

func TestCloseReleasesRecords(t *testing.T) {
	path := writeCSV(t, "n\n1\n2\n")
	f, err := Open(path, 0)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.ReadColumn(context.Background(), 0, "n")
	assert.True(t, source.IsErrorCode(err, source.ErrCodeSourceClosed))
}
