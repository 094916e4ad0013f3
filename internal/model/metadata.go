package model

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ColumnDescriptor describes one column in the schema tree. Struct and List
// columns own child descriptors; only leaf columns carry data.
type ColumnDescriptor struct {
	Name         string
	Path         string // dotted path from the root, unique per column
	Type         Kind
	PhysicalType string // storage type as recorded in the file
	LogicalType  string // logical annotation, empty if none
	Nullable     bool
	Depth        int
	Children     []*ColumnDescriptor
}

// Leaf reports whether the column holds values directly
func (c *ColumnDescriptor) Leaf() bool {
	return len(c.Children) == 0
}

// Schema is the ordered column tree of an open file. Immutable for the
// file's lifetime.
type Schema struct {
	Columns []*ColumnDescriptor
}

// Leaves returns all leaf columns in file order
func (s *Schema) Leaves() []*ColumnDescriptor {
	var leaves []*ColumnDescriptor
	var walk func(cols []*ColumnDescriptor)
	walk = func(cols []*ColumnDescriptor) {
		for _, c := range cols {
			if c.Leaf() {
				leaves = append(leaves, c)
				continue
			}
			walk(c.Children)
		}
	}
	walk(s.Columns)
	return leaves
}

// Column looks up a column descriptor by its dotted path
func (s *Schema) Column(path string) (*ColumnDescriptor, bool) {
	for _, c := range s.Leaves() {
		if c.Path == path {
			return c, true
		}
	}
	var find func(cols []*ColumnDescriptor) (*ColumnDescriptor, bool)
	find = func(cols []*ColumnDescriptor) (*ColumnDescriptor, bool) {
		for _, c := range cols {
			if c.Path == path {
				return c, true
			}
			if found, ok := find(c.Children); ok {
				return found, true
			}
		}
		return nil, false
	}
	return find(s.Columns)
}

// ColumnChunkInfo is the footer-level description of one column chunk
type ColumnChunkInfo struct {
	Path             string
	Compression      string
	Encodings        []string
	CompressedSize   int64
	UncompressedSize int64
	NumValues        int64
	NullCount        *int64 // from embedded statistics when present
	MinValue         string // formatted footer statistic, empty if absent
	MaxValue         string
}

// RowGroupInfo is the footer-level description of one row group.
// Read once from the footer; immutable.
type RowGroupInfo struct {
	Index            int
	NumRows          int64
	CompressedSize   int64
	UncompressedSize int64
	Columns          []ColumnChunkInfo
}

// FileMetadata holds everything parqscope knows about a file without
// scanning row data. Created on open, destroyed on close or reopen.
type FileMetadata struct {
	Path      string
	Format    string
	CreatedBy string
	NumRows   int64
	SizeBytes int64
	RowGroups []RowGroupInfo
	Schema    *Schema
}

// SummaryEntry is one line of the metadata panel
type SummaryEntry struct {
	Label string
	Value string
}

// Summary builds the metadata panel content: file information, data
// structure, and per-type column counts
func (m *FileMetadata) Summary() []SummaryEntry {
	entries := []SummaryEntry{
		{"Path", m.Path},
		{"Format", m.Format},
		{"Size", humanize.IBytes(uint64(m.SizeBytes))},
		{"Total Rows", humanize.Comma(m.NumRows)},
		{"Row Groups", fmt.Sprintf("%d", len(m.RowGroups))},
		{"Columns", fmt.Sprintf("%d", len(m.Schema.Leaves()))},
	}
	if m.CreatedBy != "" {
		entries = append(entries, SummaryEntry{"Created By", m.CreatedBy})
	}

	typeCounts := make(map[Kind]int)
	for _, col := range m.Schema.Leaves() {
		typeCounts[col.Type]++
	}
	for kind := KindBoolean; kind <= KindList; kind++ {
		if n := typeCounts[kind]; n > 0 {
			name := kind.String()
			label := fmt.Sprintf("%s Columns", strings.ToUpper(name[:1])+name[1:])
			entries = append(entries, SummaryEntry{label, fmt.Sprintf("%d", n)})
		}
	}
	return entries
}

// CompressedSize sums the compressed size of all row groups
func (m *FileMetadata) CompressedSize() int64 {
	var total int64
	for _, rg := range m.RowGroups {
		total += rg.CompressedSize
	}
	return total
}
