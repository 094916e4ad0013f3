// Package jsonsrc implements the source contract for line-delimited JSON
// files. Each line is one object; column types are inferred across all rows,
// then the rows are built into Arrow record batches served as synthetic row
// groups by arrowtable. Arrow carries no inferring JSON reader, so inference
// happens here before the batches are built.
package jsonsrc

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/goccy/go-json"

	"parqscope/internal/source"
	"parqscope/internal/source/arrowtable"
)

// DefaultChunkSize is the synthetic row-group size when none is configured
const DefaultChunkSize = 10000

// Open parses the NDJSON file, infers per-column types and materializes the
// rows as Arrow record batches of chunkSize rows each.
func Open(path string, chunkSize int) (*arrowtable.Table, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	osf, err := os.Open(path)
	if err != nil {
		return nil, source.NewNotFoundError(path, err)
	}
	defer osf.Close()

	info, err := osf.Stat()
	if err != nil {
		return nil, source.NewCorruptError(path, "cannot stat file", err)
	}

	rows, err := decodeRows(path, osf)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, source.NewCorruptError(path, "JSON file has no rows", nil)
	}

	schema := inferSchema(rows)
	records := buildRecords(schema, rows, chunkSize)
	return arrowtable.New(path, "json", info.Size(), records), nil
}

// decodeRows parses one JSON object per non-blank line
func decodeRows(path string, f *os.File) ([]map[string]interface{}, error) {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var rows []map[string]interface{}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var row map[string]interface{}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, source.NewCorruptError(path,
				fmt.Sprintf("line %d is not a JSON object", lineNo), err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, source.NewCorruptError(path, "read failed", err)
	}
	return rows, nil
}

// columnType is the inference lattice for one column. Mixed integer and
// float widens to float; any other conflict degrades to string.
type columnType int

const (
	typeUnknown columnType = iota
	typeBool
	typeInt
	typeFloat
	typeString
)

func typeOf(v interface{}) columnType {
	switch n := v.(type) {
	case bool:
		return typeBool
	case float64:
		// JSON numbers decode as float64; integral values in int64 range
		// stay integers
		if n == math.Trunc(n) && n >= math.MinInt64 && n <= math.MaxInt64 {
			return typeInt
		}
		return typeFloat
	case string:
		return typeString
	default:
		// nested objects and arrays render as their JSON text
		return typeString
	}
}

func merge(a, b columnType) columnType {
	switch {
	case a == typeUnknown:
		return b
	case b == typeUnknown, a == b:
		return a
	case (a == typeInt && b == typeFloat) || (a == typeFloat && b == typeInt):
		return typeFloat
	default:
		return typeString
	}
}

// inferSchema folds every row into per-column types. Columns are ordered by
// name since JSON objects carry no column order; all-null columns land on
// string.
func inferSchema(rows []map[string]interface{}) *arrow.Schema {
	types := make(map[string]columnType)
	for _, row := range rows {
		for key, val := range row {
			if val == nil {
				if _, ok := types[key]; !ok {
					types[key] = typeUnknown
				}
				continue
			}
			types[key] = merge(types[key], typeOf(val))
		}
	}

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]arrow.Field, 0, len(names))
	for _, name := range names {
		var dt arrow.DataType
		switch types[name] {
		case typeBool:
			dt = arrow.FixedWidthTypes.Boolean
		case typeInt:
			dt = arrow.PrimitiveTypes.Int64
		case typeFloat:
			dt = arrow.PrimitiveTypes.Float64
		default:
			dt = arrow.BinaryTypes.String
		}
		fields = append(fields, arrow.Field{Name: name, Type: dt, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// buildRecords materializes the rows into record batches of chunkSize rows
func buildRecords(schema *arrow.Schema, rows []map[string]interface{}, chunkSize int) []arrow.Record {
	var records []arrow.Record
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
		for _, row := range rows[start:end] {
			for i, field := range schema.Fields() {
				val, ok := row[field.Name]
				if !ok || val == nil {
					b.Field(i).AppendNull()
					continue
				}
				appendValue(b.Field(i), val)
			}
		}
		records = append(records, b.NewRecord())
		b.Release()
	}
	return records
}

// appendValue writes one cell; the builder's type was inferred from the
// whole column, so the value is guaranteed convertible.
func appendValue(fb array.Builder, val interface{}) {
	switch fb := fb.(type) {
	case *array.BooleanBuilder:
		fb.Append(val.(bool))
	case *array.Int64Builder:
		fb.Append(int64(val.(float64)))
	case *array.Float64Builder:
		fb.Append(val.(float64))
	case *array.StringBuilder:
		fb.Append(stringify(val))
	default:
		fb.AppendNull()
	}
}

func stringify(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case bool, float64:
		return fmt.Sprintf("%v", v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
