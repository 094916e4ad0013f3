// Package source defines the contract between the statistics engine and the
// file formats it can inspect. A DataSource owns one open file resource and
// exposes footer-level metadata plus lazy, restartable column reads; it never
// materializes more than one decodable unit at a time.
package source

import (
	"context"

	"parqscope/internal/model"
)

// ValueIterator streams the decoded values of one column chunk, including
// explicit null markers. Next returns io.EOF after the last value. The same
// (row group, column) may be requested again for another pass: iterators
// carry no hidden cursor state across calls.
type ValueIterator interface {
	Next() (model.Value, error)
	Close() error
}

// DataSource is one open columnar file. Implementations are safe for
// concurrent reads: each read addresses its own byte range, there is no
// shared read cursor.
type DataSource interface {
	// Metadata returns the cached footer metadata. Immutable once loaded.
	Metadata() *model.FileMetadata

	// Schema returns the column tree. Immutable for the file's lifetime.
	Schema() *model.Schema

	// RowGroups returns the footer's row-group directory.
	RowGroups() []model.RowGroupInfo

	// TotalRows returns the file-level row count.
	TotalRows() int64

	// ReadColumn opens a fresh pass over one column chunk, decoding one
	// page at a time. Corrupt page data fails with a DECODE_FAILED error
	// scoped to this row group and column.
	ReadColumn(ctx context.Context, rowGroup int, columnPath string) (ValueIterator, error)

	// ReadPage returns up to limit decoded values of a column starting at
	// the given row offset within the row group, for paginated display.
	ReadPage(ctx context.Context, rowGroup int, columnPath string, offset, limit int64) ([]model.Value, error)

	// Close releases the underlying file resource.
	Close() error
}
