package model

import (
	"fmt"
	"time"
)

// Kind is the logical type of a column or value
type Kind int

const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindString
	KindBinary
	KindTemporal
	KindStruct
	KindList
)

// String returns the display name of the kind
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindTemporal:
		return "temporal"
	case KindStruct:
		return "struct"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a single decoded cell. Exactly one of the typed fields is
// meaningful, selected by Kind; Null marks an explicit null marker in
// the column data.
type Value struct {
	Kind  Kind
	Null  bool
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	Time  time.Time
}

// NullValue creates a null marker of the given kind
func NullValue(kind Kind) Value {
	return Value{Kind: kind, Null: true}
}

// BoolValue creates a boolean value
func BoolValue(b bool) Value {
	return Value{Kind: KindBoolean, Bool: b}
}

// IntValue creates an integer value
func IntValue(i int64) Value {
	return Value{Kind: KindInteger, Int: i}
}

// FloatValue creates a float value
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// StringValue creates a string value
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// BinaryValue creates a binary value
func BinaryValue(b []byte) Value {
	return Value{Kind: KindBinary, Bytes: b}
}

// TimeValue creates a temporal value
func TimeValue(t time.Time) Value {
	return Value{Kind: KindTemporal, Time: t}
}

// Display formats the value for the data table
func (v Value) Display() string {
	if v.Null {
		return "null"
	}
	switch v.Kind {
	case KindBoolean:
		return fmt.Sprintf("%t", v.Bool)
	case KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindBinary:
		return fmt.Sprintf("0x%x", v.Bytes)
	case KindTemporal:
		return v.Time.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Compare orders two non-null values of the same kind: numeric by value,
// strings and binary lexicographic, temporal by instant. Returns -1, 0 or 1.
func (v Value) Compare(other Value) int {
	switch v.Kind {
	case KindBoolean:
		return boolCompare(v.Bool, other.Bool)
	case KindInteger:
		return int64Compare(v.Int, other.Int)
	case KindFloat:
		return float64Compare(v.Float, other.Float)
	case KindString:
		return stringCompare(v.Str, other.Str)
	case KindBinary:
		return stringCompare(string(v.Bytes), string(other.Bytes))
	case KindTemporal:
		if v.Time.Before(other.Time) {
			return -1
		}
		if v.Time.After(other.Time) {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func int64Compare(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func float64Compare(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func stringCompare(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
