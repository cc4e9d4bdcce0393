package toon

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// FieldSchema describes one named field of a record.
type FieldSchema struct {
	Name     string
	Type     DataType
	Nullable bool

	// Items is the element schema when Type is Array and the elements are
	// records. Nil for arrays of scalars.
	Items *Schema

	// Properties is the nested schema when Type is Object.
	Properties *Schema
}

// SchemaMeta carries optional schema metadata.
type SchemaMeta struct {
	Version     string
	Description string
	CreatedAt   time.Time
}

// Schema is an ordered sequence of field schemas. Order is significant: it
// fixes the encoded column order and must be identical between encode and
// decode. A schema is treated as immutable once used by a codec operation.
type Schema struct {
	Fields []*FieldSchema
	Meta   SchemaMeta
}

// NewSchema builds a schema from field definitions in order.
func NewSchema(fields ...*FieldSchema) *Schema {
	return &Schema{Fields: fields}
}

// Field creates a field schema.
func Field(name string, typ DataType, opts ...FieldOption) *FieldSchema {
	f := &FieldSchema{Name: name, Type: typ}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FieldOption is a function that modifies a field schema.
type FieldOption func(*FieldSchema)

// Nullable marks a field as accepting null/absent values.
func Nullable() FieldOption {
	return func(f *FieldSchema) {
		f.Nullable = true
	}
}

// Items sets the element schema for an array-of-records field.
func Items(s *Schema) FieldOption {
	return func(f *FieldSchema) {
		f.Items = s
	}
}

// Properties sets the nested schema for an object field.
func Properties(s *Schema) FieldOption {
	return func(f *FieldSchema) {
		f.Properties = s
	}
}

// GetField returns a field schema by name, or nil.
func (s *Schema) GetField(name string) *FieldSchema {
	if s == nil {
		return nil
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldNames returns the field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{Meta: s.Meta, Fields: make([]*FieldSchema, len(s.Fields))}
	for i, f := range s.Fields {
		nf := *f
		nf.Items = f.Items.Clone()
		nf.Properties = f.Properties.Clone()
		out.Fields[i] = &nf
	}
	return out
}

// Canonical returns the canonical header-spec text for the schema. Two
// schemas with the same canonical form encode rows identically.
func (s *Schema) Canonical() string {
	var sb strings.Builder
	sb.WriteByte('{')
	writeFieldSpecs(&sb, s)
	sb.WriteByte('}')
	return sb.String()
}

func writeFieldSpecs(sb *strings.Builder, s *Schema) {
	if s == nil {
		return
	}
	for i, f := range s.Fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Name)
		switch {
		case f.Type == TypeArray && f.Items != nil:
			sb.WriteString("[{")
			writeFieldSpecs(sb, f.Items)
			sb.WriteString("}]")
		case f.Type == TypeObject && f.Properties != nil:
			sb.WriteByte('{')
			writeFieldSpecs(sb, f.Properties)
			sb.WriteByte('}')
		}
	}
}

// Hash returns a short content hash of the canonical schema text. Useful
// for cheap drift detection between batches.
func (s *Schema) Hash() string {
	sum := sha256.Sum256([]byte(s.Canonical()))
	return hex.EncodeToString(sum[:8])
}

// structural reports whether a field's declared shape is self-consistent:
// array-of-records must carry Items, objects must carry Properties.
func (f *FieldSchema) checkStructure() error {
	if f.Type == TypeObject && f.Properties == nil {
		return newError(CodeSchemaValidationFailed,
			"object field %q has no properties schema", f.Name).
			withDetail("field", f.Name)
	}
	return nil
}

// ============================================================
// Merge & Compatibility
// ============================================================

// MergeSchemas unions the fields of all input schemas by name, in first
// appearance order. A field declared with different types in two inputs is
// a hard error; nullability is OR'd (any source nullable makes the merged
// field nullable).
func MergeSchemas(schemas ...*Schema) (*Schema, error) {
	merged := &Schema{}
	index := make(map[string]*FieldSchema)

	for _, s := range schemas {
		if s == nil {
			continue
		}
		for _, f := range s.Fields {
			existing, ok := index[f.Name]
			if !ok {
				nf := *f
				nf.Items = f.Items.Clone()
				nf.Properties = f.Properties.Clone()
				merged.Fields = append(merged.Fields, &nf)
				index[f.Name] = &nf
				continue
			}
			if existing.Type != f.Type {
				return nil, newError(CodeSchemaValidationFailed,
					"field %q declared as both %s and %s", f.Name, existing.Type, f.Type).
					withDetail("field", f.Name).
					withDetail("types", []string{existing.Type.String(), f.Type.String()})
			}
			if f.Nullable {
				existing.Nullable = true
			}
			// Nested schemas merge recursively.
			if f.Items != nil {
				sub, err := MergeSchemas(existing.Items, f.Items)
				if err != nil {
					return nil, err
				}
				existing.Items = sub
			}
			if f.Properties != nil {
				sub, err := MergeSchemas(existing.Properties, f.Properties)
				if err != nil {
					return nil, err
				}
				existing.Properties = sub
			}
		}
	}

	return merged, nil
}

// SchemasCompatible reports whether data conforming to schema a can be
// decoded where schema b is expected: every non-nullable field of b must
// exist in a with the same type, recursively, and a's fields may not be
// stricter about nullability than b allows.
func SchemasCompatible(a, b *Schema) bool {
	if b == nil {
		return true
	}
	if a == nil {
		// a provides nothing; compatible only if everything in b is nullable.
		for _, f := range b.Fields {
			if !f.Nullable {
				return false
			}
		}
		return true
	}

	for _, bf := range b.Fields {
		af := a.GetField(bf.Name)
		if af == nil {
			if bf.Nullable {
				continue
			}
			return false
		}
		if af.Type != bf.Type {
			return false
		}
		if af.Nullable && !bf.Nullable {
			return false
		}
		if bf.Items != nil && !SchemasCompatible(af.Items, bf.Items) {
			return false
		}
		if bf.Properties != nil && !SchemasCompatible(af.Properties, bf.Properties) {
			return false
		}
	}
	return true
}
