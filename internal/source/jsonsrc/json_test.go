package jsonsrc

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

func writeJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenInfersTypes(t *testing.T) {
	path := writeJSON(t, strings.Join([]string{
		`{"id": 1, "name": "alice", "score": 1.5, "active": true}`,
		`{"id": 2, "name": "bob", "score": 2.5, "active": false}`,
		`{"id": 3, "name": "carol", "score": 3.5, "active": true}`,
	}, "\n"))

	f, err := Open(path, 0)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(3), f.TotalRows())
	require.Len(t, f.RowGroups(), 1)

	// Columns are ordered by name
	leaves := f.Schema().Leaves()
	require.Len(t, leaves, 4)
	assert.Equal(t, "active", leaves[0].Path)
	assert.Equal(t, model.KindBoolean, leaves[0].Type)
	assert.Equal(t, "id", leaves[1].Path)
	assert.Equal(t, model.KindInteger, leaves[1].Type)
	assert.Equal(t, "name", leaves[2].Path)
	assert.Equal(t, model.KindString, leaves[2].Type)
	assert.Equal(t, "score", leaves[3].Path)
	assert.Equal(t, model.KindFloat, leaves[3].Type)

	assert.Equal(t, "json", f.Metadata().Format)
}

func TestMixedNumbersWidenToFloat(t *testing.T) {
	path := writeJSON(t, strings.Join([]string{
		`{"n": 1}`,
		`{"n": 2.5}`,
	}, "\n"))

	f, err := Open(path, 0)
	require.NoError(t, err)
	defer f.Close()

	leaves := f.Schema().Leaves()
	require.Len(t, leaves, 1)
	assert.Equal(t, model.KindFloat, leaves[0].Type)

	values, err := f.ReadPage(context.Background(), 0, "n", 0, 10)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, 1.0, values[0].Float)
	assert.Equal(t, 2.5, values[1].Float)
}

func TestConflictingTypesDegradeToString(t *testing.T) {
	path := writeJSON(t, strings.Join([]string{
		`{"v": 1}`,
		`{"v": "two"}`,
		`{"v": true}`,
		`{"v": {"nested": 3}}`,
	}, "\n"))

	f, err := Open(path, 0)
	require.NoError(t, err)
	defer f.Close()

	leaves := f.Schema().Leaves()
	require.Len(t, leaves, 1)
	assert.Equal(t, model.KindString, leaves[0].Type)

	values, err := f.ReadPage(context.Background(), 0, "v", 0, 10)
	require.NoError(t, err)
	require.Len(t, values, 4)
	assert.Equal(t, "1", values[0].Str)
	assert.Equal(t, "two", values[1].Str)
	assert.Equal(t, "true", values[2].Str)
	assert.Equal(t, `{"nested":3}`, values[3].Str)
}

func TestMissingKeysAndNullsAreNull(t *testing.T) {
	path := writeJSON(t, strings.Join([]string{
		`{"a": 1, "b": "x"}`,
		`{"a": null}`,
		`{"b": "y"}`,
	}, "\n"))

	f, err := Open(path, 0)
	require.NoError(t, err)
	defer f.Close()

	groups := f.RowGroups()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Columns, 2)
	// Column "a": values 1, null, missing
	require.NotNil(t, groups[0].Columns[0].NullCount)
	assert.Equal(t, int64(2), *groups[0].Columns[0].NullCount)
	// Column "b": "x", missing, "y"
	require.NotNil(t, groups[0].Columns[1].NullCount)
	assert.Equal(t, int64(1), *groups[0].Columns[1].NullCount)

	it, err := f.ReadColumn(context.Background(), 0, "a")
	require.NoError(t, err)
	defer it.Close()

	v, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)
	for i := 0; i < 2; i++ {
		v, err = it.Next()
		require.NoError(t, err)
		assert.True(t, v.Null)
	}
	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

func TestChunksIntoRowGroups(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 250; i++ {
		fmt.Fprintf(&sb, `{"n": %d}`+"\n", i)
	}
	path := writeJSON(t, sb.String())

	f, err := Open(path, 100)
	require.NoError(t, err)
	defer f.Close()

	groups := f.RowGroups()
	require.Len(t, groups, 3)
	assert.Equal(t, int64(100), groups[0].NumRows)
	assert.Equal(t, int64(100), groups[1].NumRows)
	assert.Equal(t, int64(50), groups[2].NumRows)

	// Values land in their row groups in file order
	values, err := f.ReadPage(context.Background(), 2, "n", 0, 1)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, int64(201), values[0].Int)
}

func TestOpenRejectsBadInput(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.json"), 0)
	assert.True(t, source.IsErrorCode(err, source.ErrCodeFileNotFound))

	path := writeJSON(t, "")
	_, err = Open(path, 0)
	assert.True(t, source.IsErrorCode(err, source.ErrCodeFileCorrupt))

	path = writeJSON(t, "not json at all\n")
	_, err = Open(path, 0)
	assert.True(t, source.IsErrorCode(err, source.ErrCodeFileCorrupt))

	// A top-level array is not a row object
	path = writeJSON(t, "[1,2,3]\n")
	_, err = Open(path, 0)
	assert.True(t, source.IsErrorCode(err, source.ErrCodeFileCorrupt))
}

func TestCloseReleasesRecords(t *testing.T) {
	path := writeJSON(t, `{"n": 1}`+"\n")
	f, err := Open(path, 0)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.ReadColumn(context.Background(), 0, "n")
	assert.True(t, source.IsErrorCode(err, source.ErrCodeSourceClosed))
}
