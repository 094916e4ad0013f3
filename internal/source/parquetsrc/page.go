package parquetsrc

import (
	"context"
	"io"

	"github.com/parquet-go/parquet-go"

	"parqscope/internal/model"
	"parqscope/internal/source"
)

// ReadPage returns up to limit decoded values of one column starting at the
// given row offset inside a row group. Used by the data-table display; the
// read seeks to the offset first so only the pages covering the requested
// window are decoded.
func (f *File) ReadPage(ctx context.Context, rowGroup int, columnPath string, offset, limit int64) ([]model.Value, error) {
	if limit <= 0 {
		return nil, nil
	}
	if f.isClosed() {
		return nil, source.NewError(source.ErrCodeSourceClosed, "file handle closed")
	}
	groups := f.pf.RowGroups()
	if rowGroup < 0 || rowGroup >= len(groups) {
		return nil, source.NewRowGroupRangeError(rowGroup, len(groups))
	}
	leaf, err := lookupLeaf(f.pf.Schema(), columnPath)
	if err != nil {
		return nil, err
	}

	pages := groups[rowGroup].ColumnChunks()[leaf.ColumnIndex].Pages()
	it := &columnIterator{
		ctx:      ctx,
		rowGroup: rowGroup,
		path:     columnPath,
		conv:     converterFor(leaf.Node),
		pages:    pages,
		buf:      make([]parquet.Value, valueBatchSize),
	}
	defer it.Close()

	if offset > 0 {
		if err := pages.SeekToRow(offset); err != nil {
			return nil, source.NewDecodeError(rowGroup, columnPath, err)
		}
	}

	values := make([]model.Value, 0, limit)
	for int64(len(values)) < limit {
		v, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
