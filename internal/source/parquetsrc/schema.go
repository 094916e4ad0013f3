package parquetsrc

import (
	"strings"

	"github.com/parquet-go/parquet-go"

	"parqscope/internal/model"
	"parqscope/internal/source"
)

// convertSchema maps the parquet schema tree onto the engine's column
// descriptor tree.
func convertSchema(s *parquet.Schema) *model.Schema {
	out := &model.Schema{}
	for _, field := range s.Fields() {
		out.Columns = append(out.Columns, convertField(field, "", 0))
	}
	return out
}

func convertField(field parquet.Field, parentPath string, depth int) *model.ColumnDescriptor {
	path := field.Name()
	if parentPath != "" {
		path = parentPath + "." + field.Name()
	}

	desc := &model.ColumnDescriptor{
		Name:     field.Name(),
		Path:     path,
		Nullable: field.Optional(),
		Depth:    depth,
	}

	if !field.Leaf() {
		desc.Type = groupKind(field)
		for _, child := range field.Fields() {
			desc.Children = append(desc.Children, convertField(child, path, depth+1))
		}
		return desc
	}

	typ := field.Type()
	desc.Type = leafKind(field)
	desc.PhysicalType = typ.String()
	if lt := typ.LogicalType(); lt != nil {
		desc.LogicalType = lt.String()
	}
	return desc
}

// groupKind distinguishes LIST-annotated groups from plain structs
func groupKind(field parquet.Field) model.Kind {
	if field.Repeated() {
		return model.KindList
	}
	if lt := field.Type().LogicalType(); lt != nil && lt.List != nil {
		return model.KindList
	}
	return model.KindStruct
}

// leafKind maps a leaf's physical and logical type to the engine's variant
func leafKind(field parquet.Field) model.Kind {
	typ := field.Type()
	if lt := typ.LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil, lt.Enum != nil, lt.Json != nil:
			return model.KindString
		case lt.Date != nil, lt.Timestamp != nil:
			return model.KindTemporal
		case lt.Decimal != nil:
			return model.KindFloat
		}
	}
	switch typ.Kind() {
	case parquet.Boolean:
		return model.KindBoolean
	case parquet.Int32, parquet.Int64:
		return model.KindInteger
	case parquet.Int96:
		return model.KindTemporal
	case parquet.Float, parquet.Double:
		return model.KindFloat
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return model.KindBinary
	default:
		return model.KindBinary
	}
}

// lookupLeaf resolves a dotted path to its leaf column, or fails with a
// COLUMN_NOT_FOUND error.
func lookupLeaf(s *parquet.Schema, path string) (parquet.LeafColumn, error) {
	leaf, ok := s.Lookup(strings.Split(path, ".")...)
	if !ok {
		return parquet.LeafColumn{}, source.NewColumnNotFoundError(path)
	}
	return leaf, nil
}
