// Package csvsrc implements the source contract for CSV files. The file is
// parsed once on open with schema inference; the resulting Arrow record
// batches are served as synthetic row groups by arrowtable.
package csvsrc

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/csv"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"parqscope/internal/source"
	"parqscope/internal/source/arrowtable"
)

// DefaultChunkSize is the synthetic row-group size when none is configured
const DefaultChunkSize = 10000

// nullTokens are the strings treated as null markers during inference
var nullTokens = []string{"", "NULL", "null", "None", "N/A", "n/a", "NaN", "nan"}

// Open parses the CSV file with schema inference. Types are inferred by the
// Arrow reader (integer, float, boolean, timestamp, date, else string), with
// the standard null token set.
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

	// The Arrow inferring reader cannot represent a header-only file;
	// reject it before handing over the stream
	if !hasDataRows(osf) {
		return nil, source.NewCorruptError(path, "CSV file has no data rows", nil)
	}
	if _, err := osf.Seek(0, io.SeekStart); err != nil {
		return nil, source.NewCorruptError(path, "cannot rewind file", err)
	}

	rdr := csv.NewInferringReader(osf,
		csv.WithAllocator(memory.DefaultAllocator),
		csv.WithHeader(true),
		csv.WithChunk(chunkSize),
		csv.WithNullReader(true, nullTokens...),
	)
	defer rdr.Release()

	var records []arrow.Record
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := rdr.Err(); err != nil && err != io.EOF {
		for _, rec := range records {
			rec.Release()
		}
		return nil, source.NewCorruptError(path, "CSV parse failed", err)
	}
	if len(records) == 0 {
		return nil, source.NewCorruptError(path, "CSV file has no data rows", nil)
	}

	return arrowtable.New(path, "csv", info.Size(), records), nil
}

// hasDataRows reports whether anything follows the header line
func hasDataRows(r io.Reader) bool {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	header := false
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		if !header {
			header = true
			continue
		}
		return true
	}
	return false
}
