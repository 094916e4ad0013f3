package parquetsrc

import (
	"context"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"parqscope/internal/metrics"
	"parqscope/internal/model"
	"parqscope/internal/source"
)

// valueBatchSize is how many decoded values are pulled from a page at once
const valueBatchSize = 256

// ReadColumn opens a fresh pass over one column chunk. Pages are decoded one
// at a time and released before the next, so peak memory stays bounded by
// the page size regardless of chunk or file size.
func (f *File) ReadColumn(ctx context.Context, rowGroup int, columnPath string) (source.ValueIterator, error) {
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

	chunk := groups[rowGroup].ColumnChunks()[leaf.ColumnIndex]
	return &columnIterator{
		ctx:      ctx,
		rowGroup: rowGroup,
		path:     columnPath,
		conv:     converterFor(leaf.Node),
		pages:    chunk.Pages(),
		buf:      make([]parquet.Value, valueBatchSize),
	}, nil
}

// columnIterator walks the pages of a single column chunk. It holds at most
// one page open; the page is released as soon as it is exhausted.
type columnIterator struct {
	ctx      context.Context
	rowGroup int
	path     string
	conv     func(parquet.Value) model.Value

	pages  parquet.Pages
	page   parquet.Page
	values parquet.ValueReader

	buf []parquet.Value
	pos int
	n   int
	err error
}

func (it *columnIterator) Next() (model.Value, error) {
	for {
		if it.err != nil {
			return model.Value{}, it.err
		}
		if it.pos < it.n {
			v := it.conv(it.buf[it.pos])
			it.pos++
			return v, nil
		}
		if err := it.fill(); err != nil {
			it.err = err
			return model.Value{}, err
		}
	}
}

// fill refills the value buffer, advancing to the next page when the current
// one is exhausted. Page boundaries are the iterator's only suspension
// points, so cancellation is checked here.
func (it *columnIterator) fill() error {
	it.pos, it.n = 0, 0

	if it.values != nil {
		n, err := it.values.ReadValues(it.buf)
		if n > 0 {
			it.n = n
			metrics.RecordValuesRead(it.path, n)
			return nil
		}
		if err != nil && err != io.EOF {
			metrics.RecordDecodeError(it.path)
			return source.NewDecodeError(it.rowGroup, it.path, err)
		}
		// Page exhausted
		it.releasePage()
	}

	if err := it.ctx.Err(); err != nil {
		return err
	}

	page, err := it.pages.ReadPage()
	if err == io.EOF {
		return io.EOF
	}
	if err != nil {
		metrics.RecordDecodeError(it.path)
		return source.NewDecodeError(it.rowGroup, it.path, err)
	}
	metrics.RecordPageDecoded(it.path)
	it.page = page
	it.values = page.Values()
	return nil
}

func (it *columnIterator) releasePage() {
	if it.page != nil {
		parquet.Release(it.page)
		it.page = nil
	}
	it.values = nil
}

func (it *columnIterator) Close() error {
	it.releasePage()
	if it.pages != nil {
		err := it.pages.Close()
		it.pages = nil
		return err
	}
	return nil
}

// converterFor builds the parquet-to-engine value conversion for a leaf
func converterFor(node parquet.Node) func(parquet.Value) model.Value {
	typ := node.Type()
	kind := typ.Kind()

	if lt := typ.LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil, lt.Enum != nil, lt.Json != nil:
			return func(v parquet.Value) model.Value {
				if v.IsNull() {
					return model.NullValue(model.KindString)
				}
				return model.StringValue(v.String())
			}
		case lt.Timestamp != nil:
			unit := lt.Timestamp.Unit
			return func(v parquet.Value) model.Value {
				if v.IsNull() {
					return model.NullValue(model.KindTemporal)
				}
				return model.TimeValue(timestampToTime(v.Int64(), unit))
			}
		case lt.Date != nil:
			return func(v parquet.Value) model.Value {
				if v.IsNull() {
					return model.NullValue(model.KindTemporal)
				}
				return model.TimeValue(time.Unix(int64(v.Int32())*86400, 0).UTC())
			}
		}
	}

	switch kind {
	case parquet.Boolean:
		return func(v parquet.Value) model.Value {
			if v.IsNull() {
				return model.NullValue(model.KindBoolean)
			}
			return model.BoolValue(v.Boolean())
		}
	case parquet.Int32:
		return func(v parquet.Value) model.Value {
			if v.IsNull() {
				return model.NullValue(model.KindInteger)
			}
			return model.IntValue(int64(v.Int32()))
		}
	case parquet.Int64:
		return func(v parquet.Value) model.Value {
			if v.IsNull() {
				return model.NullValue(model.KindInteger)
			}
			return model.IntValue(v.Int64())
		}
	case parquet.Float:
		return func(v parquet.Value) model.Value {
			if v.IsNull() {
				return model.NullValue(model.KindFloat)
			}
			return model.FloatValue(float64(v.Float()))
		}
	case parquet.Double:
		return func(v parquet.Value) model.Value {
			if v.IsNull() {
				return model.NullValue(model.KindFloat)
			}
			return model.FloatValue(v.Double())
		}
	default:
		return func(v parquet.Value) model.Value {
			if v.IsNull() {
				return model.NullValue(model.KindBinary)
			}
			b := v.ByteArray()
			cp := make([]byte, len(b))
			copy(cp, b)
			return model.BinaryValue(cp)
		}
	}
}

func timestampToTime(ts int64, unit format.TimeUnit) time.Time {
	switch {
	case unit.Millis != nil:
		return time.UnixMilli(ts).UTC()
	case unit.Nanos != nil:
		return time.Unix(0, ts).UTC()
	default:
		return time.UnixMicro(ts).UTC()
	}
}
