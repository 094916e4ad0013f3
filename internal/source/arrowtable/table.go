// Package arrowtable adapts in-memory Arrow record batches to the source
// contract. Formats without native chunking (CSV, JSON) parse their whole
// file into batches on open; each batch then acts as one synthetic row group.
package arrowtable

import (
	"context"
	"io"
	"sync"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"

	"parqscope/internal/model"
	"parqscope/internal/source"
)

// Table is a set of Arrow record batches served as row groups. It owns the
// records' references and releases them on Close.
type Table struct {
	path    string
	meta    *model.FileMetadata
	records []arrow.Record
	schema  *arrow.Schema

	mu     sync.Mutex
	closed bool
}

// New wraps parsed record batches. records must be non-empty and all share
// one schema; ownership of their references passes to the table.
func New(path, format string, sizeBytes int64, records []arrow.Record) *Table {
	t := &Table{
		path:    path,
		records: records,
		schema:  records[0].Schema(),
	}
	t.meta = t.buildMetadata(format, sizeBytes)
	return t
}

func (t *Table) buildMetadata(format string, sizeBytes int64) *model.FileMetadata {
	meta := &model.FileMetadata{
		Path:      t.path,
		Format:    format,
		SizeBytes: sizeBytes,
		Schema:    convertSchema(t.schema),
	}

	for i, rec := range t.records {
		info := model.RowGroupInfo{
			Index:   i,
			NumRows: rec.NumRows(),
		}
		for c, field := range t.schema.Fields() {
			arr := rec.Column(c)
			bufSize := bufferSize(arr)
			nulls := int64(arr.NullN())
			info.Columns = append(info.Columns, model.ColumnChunkInfo{
				Path:             field.Name,
				Compression:      "UNCOMPRESSED",
				Encodings:        []string{"PLAIN"},
				CompressedSize:   bufSize,
				UncompressedSize: bufSize,
				NumValues:        rec.NumRows(),
				NullCount:        &nulls,
			})
			info.CompressedSize += bufSize
			info.UncompressedSize += bufSize
		}
		meta.RowGroups = append(meta.RowGroups, info)
		meta.NumRows += rec.NumRows()
	}
	return meta
}

// bufferSize sums the Arrow buffer lengths backing an array
func bufferSize(arr arrow.Array) int64 {
	var total int64
	for _, buf := range arr.Data().Buffers() {
		if buf != nil {
			total += int64(buf.Len())
		}
	}
	return total
}

// convertSchema maps the Arrow schema onto the engine's column tree.
// Arrow-backed sources are always flat.
func convertSchema(s *arrow.Schema) *model.Schema {
	out := &model.Schema{}
	for _, field := range s.Fields() {
		out.Columns = append(out.Columns, &model.ColumnDescriptor{
			Name:         field.Name,
			Path:         field.Name,
			Type:         kindOf(field.Type),
			PhysicalType: field.Type.String(),
			Nullable:     field.Nullable,
		})
	}
	return out
}

func kindOf(dt arrow.DataType) model.Kind {
	switch dt.ID() {
	case arrow.BOOL:
		return model.KindBoolean
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return model.KindInteger
	case arrow.FLOAT32, arrow.FLOAT64:
		return model.KindFloat
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return model.KindTemporal
	default:
		return model.KindString
	}
}

// Metadata returns the cached file metadata
func (t *Table) Metadata() *model.FileMetadata {
	return t.meta
}

// Schema returns the column tree
func (t *Table) Schema() *model.Schema {
	return t.meta.Schema
}

// RowGroups returns the synthetic row-group directory
func (t *Table) RowGroups() []model.RowGroupInfo {
	return t.meta.RowGroups
}

// TotalRows returns the total row count
func (t *Table) TotalRows() int64 {
	return t.meta.NumRows
}

// ReadColumn streams one column of one synthetic row group
func (t *Table) ReadColumn(ctx context.Context, rowGroup int, columnPath string) (source.ValueIterator, error) {
	arr, kind, err := t.column(rowGroup, columnPath)
	if err != nil {
		return nil, err
	}
	return &arrayIterator{ctx: ctx, arr: arr, kind: kind}, nil
}

// ReadPage returns a window of one column for paginated display
func (t *Table) ReadPage(ctx context.Context, rowGroup int, columnPath string, offset, limit int64) ([]model.Value, error) {
	if limit <= 0 {
		return nil, nil
	}
	arr, kind, err := t.column(rowGroup, columnPath)
	if err != nil {
		return nil, err
	}
	n := int64(arr.Len())
	if offset >= n {
		return nil, nil
	}
	end := offset + limit
	if end > n {
		end = n
	}
	values := make([]model.Value, 0, end-offset)
	for i := offset; i < end; i++ {
		values = append(values, valueAt(arr, int(i), kind))
	}
	return values, nil
}

func (t *Table) column(rowGroup int, columnPath string) (arrow.Array, model.Kind, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, 0, source.NewError(source.ErrCodeSourceClosed, "file handle closed")
	}
	if rowGroup < 0 || rowGroup >= len(t.records) {
		return nil, 0, source.NewRowGroupRangeError(rowGroup, len(t.records))
	}
	indices := t.schema.FieldIndices(columnPath)
	if len(indices) == 0 {
		return nil, 0, source.NewColumnNotFoundError(columnPath)
	}
	idx := indices[0]
	return t.records[rowGroup].Column(idx), kindOf(t.schema.Field(idx).Type), nil
}

// Close releases the retained record batches. Idempotent.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	for _, rec := range t.records {
		rec.Release()
	}
	t.records = nil
	return nil
}

// arrayIterator walks one Arrow array, yielding explicit null markers
type arrayIterator struct {
	ctx  context.Context
	arr  arrow.Array
	kind model.Kind
	pos  int
}

func (it *arrayIterator) Next() (model.Value, error) {
	if it.pos >= it.arr.Len() {
		return model.Value{}, io.EOF
	}
	if it.pos%1024 == 0 {
		if err := it.ctx.Err(); err != nil {
			return model.Value{}, err
		}
	}
	v := valueAt(it.arr, it.pos, it.kind)
	it.pos++
	return v, nil
}

func (it *arrayIterator) Close() error {
	return nil
}

// valueAt decodes one cell of an Arrow array into the engine's variant
func valueAt(arr arrow.Array, i int, kind model.Kind) model.Value {
	if arr.IsNull(i) {
		return model.NullValue(kind)
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return model.BoolValue(a.Value(i))
	case *array.Int8:
		return model.IntValue(int64(a.Value(i)))
	case *array.Int16:
		return model.IntValue(int64(a.Value(i)))
	case *array.Int32:
		return model.IntValue(int64(a.Value(i)))
	case *array.Int64:
		return model.IntValue(a.Value(i))
	case *array.Uint8:
		return model.IntValue(int64(a.Value(i)))
	case *array.Uint16:
		return model.IntValue(int64(a.Value(i)))
	case *array.Uint32:
		return model.IntValue(int64(a.Value(i)))
	case *array.Uint64:
		return model.IntValue(int64(a.Value(i)))
	case *array.Float32:
		return model.FloatValue(float64(a.Value(i)))
	case *array.Float64:
		return model.FloatValue(a.Value(i))
	case *array.String:
		return model.StringValue(a.Value(i))
	case *array.Timestamp:
		ts, _ := a.DataType().(*arrow.TimestampType)
		return model.TimeValue(a.Value(i).ToTime(ts.Unit).UTC())
	case *array.Date32:
		return model.TimeValue(a.Value(i).ToTime().UTC())
	case *array.Date64:
		return model.TimeValue(a.Value(i).ToTime().UTC())
	default:
		return model.StringValue(arr.ValueStr(i))
	}
}
