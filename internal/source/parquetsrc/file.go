// Package parquetsrc implements the source contract for Parquet files.
// Opening a file reads only the trailing footer plus a bounded header check;
// row data is never scanned until a column read asks for it.
package parquetsrc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"parqscope/internal/model"
	"parqscope/internal/source"
)

var magic = []byte("PAR1")

// File is an open Parquet file. The underlying descriptor is read-only and
// shared by concurrent column reads; every read addresses its own byte range.
type File struct {
	path string
	osf  *os.File
	pf   *parquet.File
	meta *model.FileMetadata

	mu     sync.Mutex
	closed bool
}

// Open validates the file's magic numbers, parses the footer and caches the
// resulting metadata. The descriptor is released on every failure path.
func Open(path string) (*File, error) {
	osf, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, source.NewNotFoundError(path, err)
		}
		return nil, source.NewNotFoundError(path, err)
	}

	info, err := osf.Stat()
	if err != nil {
		osf.Close()
		return nil, source.NewCorruptError(path, "cannot stat file", err)
	}
	size := info.Size()

	if err := checkMagic(osf, size); err != nil {
		osf.Close()
		return nil, err
	}

	pf, err := parquet.OpenFile(osf, size,
		parquet.SkipPageIndex(true),
		parquet.SkipBloomFilters(true),
	)
	if err != nil {
		osf.Close()
		return nil, source.NewCorruptError(path, "footer parse failed", err)
	}

	footer := pf.Metadata()
	if footer.Version < 1 || footer.Version > 2 {
		osf.Close()
		return nil, source.NewUnsupportedVersionError(path, footer.Version)
	}

	f := &File{
		path: path,
		osf:  osf,
		pf:   pf,
	}
	f.meta = f.buildMetadata(footer, size)
	return f, nil
}

// checkMagic verifies the 4-byte magic at both ends of the file and that the
// declared footer length fits inside it.
func checkMagic(osf *os.File, size int64) error {
	path := osf.Name()
	if size < int64(2*len(magic)+4) {
		return source.NewCorruptError(path, "file too small to hold a footer", nil)
	}

	head := make([]byte, len(magic))
	if _, err := osf.ReadAt(head, 0); err != nil {
		return source.NewCorruptError(path, "cannot read header", err)
	}
	if !bytes.Equal(head, magic) {
		return source.NewCorruptError(path, "bad header magic", nil)
	}

	tail := make([]byte, len(magic)+4)
	if _, err := osf.ReadAt(tail, size-int64(len(tail))); err != nil {
		return source.NewCorruptError(path, "cannot read footer", err)
	}
	if !bytes.Equal(tail[4:], magic) {
		return source.NewCorruptError(path, "bad footer magic", nil)
	}
	footerLen := int64(binary.LittleEndian.Uint32(tail[:4]))
	if footerLen <= 0 || footerLen+int64(2*len(magic)+4) > size {
		return source.NewCorruptError(path, fmt.Sprintf("declared footer length %d exceeds file size", footerLen), nil)
	}
	return nil
}

// buildMetadata converts the raw footer into the engine's metadata model
func (f *File) buildMetadata(footer *format.FileMetaData, size int64) *model.FileMetadata {
	meta := &model.FileMetadata{
		Path:      f.path,
		Format:    "parquet",
		CreatedBy: footer.CreatedBy,
		NumRows:   footer.NumRows,
		SizeBytes: size,
		Schema:    convertSchema(f.pf.Schema()),
	}

	for i, rg := range footer.RowGroups {
		info := model.RowGroupInfo{
			Index:            i,
			NumRows:          rg.NumRows,
			CompressedSize:   rg.TotalCompressedSize,
			UncompressedSize: rg.TotalByteSize,
		}
		var compressed int64
		for _, chunk := range rg.Columns {
			cm := chunk.MetaData
			compressed += cm.TotalCompressedSize
			col := model.ColumnChunkInfo{
				Path:             strings.Join(cm.PathInSchema, "."),
				Compression:      cm.Codec.String(),
				CompressedSize:   cm.TotalCompressedSize,
				UncompressedSize: cm.TotalUncompressedSize,
				NumValues:        cm.NumValues,
			}
			for _, enc := range cm.Encoding {
				col.Encodings = append(col.Encodings, enc.String())
			}
			if cm.Statistics.NullCount > 0 || len(cm.Statistics.MinValue) > 0 || len(cm.Statistics.MaxValue) > 0 {
				nulls := cm.Statistics.NullCount
				col.NullCount = &nulls
				col.MinValue = formatStatValue(cm.Statistics.MinValue, cm.Type)
				col.MaxValue = formatStatValue(cm.Statistics.MaxValue, cm.Type)
			}
			info.Columns = append(info.Columns, col)
		}
		if info.CompressedSize == 0 {
			// Older writers leave TotalCompressedSize unset on the row group
			info.CompressedSize = compressed
		}
		meta.RowGroups = append(meta.RowGroups, info)
	}
	return meta
}

// formatStatValue decodes a footer statistics value for display
func formatStatValue(raw []byte, typ format.Type) string {
	if len(raw) == 0 {
		return ""
	}
	switch typ {
	case format.Boolean:
		return fmt.Sprintf("%t", raw[0] != 0)
	case format.Int32:
		if len(raw) >= 4 {
			return fmt.Sprintf("%d", int32(binary.LittleEndian.Uint32(raw)))
		}
	case format.Int64:
		if len(raw) >= 8 {
			return fmt.Sprintf("%d", int64(binary.LittleEndian.Uint64(raw)))
		}
	case format.Float:
		if len(raw) >= 4 {
			return fmt.Sprintf("%g", mathFloat32(binary.LittleEndian.Uint32(raw)))
		}
	case format.Double:
		if len(raw) >= 8 {
			return fmt.Sprintf("%g", mathFloat64(binary.LittleEndian.Uint64(raw)))
		}
	case format.ByteArray, format.FixedLenByteArray:
		return string(raw)
	}
	return fmt.Sprintf("0x%x", raw)
}

// Metadata returns the cached footer metadata
func (f *File) Metadata() *model.FileMetadata {
	return f.meta
}

// Schema returns the column tree
func (f *File) Schema() *model.Schema {
	return f.meta.Schema
}

// RowGroups returns the footer's row-group directory
func (f *File) RowGroups() []model.RowGroupInfo {
	return f.meta.RowGroups
}

// TotalRows returns the file-level row count
func (f *File) TotalRows() int64 {
	return f.meta.NumRows
}

// Close releases the file descriptor. Idempotent.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.osf.Close()
}

func (f *File) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func mathFloat32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func mathFloat64(bits uint64) float64 {
	return math.Float64frombits(bits)
}
