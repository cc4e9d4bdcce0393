package toon

import "sort"

// orderedKeys lists observed keys with pinned names first, the rest sorted.
func orderedKeys(seen map[string]bool, order []string) []string {
	out := make([]string, 0, len(seen))
	taken := make(map[string]bool, len(order))
	for _, name := range order {
		if seen[name] && !taken[name] {
			out = append(out, name)
			taken[name] = true
		}
	}
	rest := make([]string, 0, len(seen))
	for name := range seen {
		if !taken[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// InferOptions configures schema inference.
type InferOptions struct {
	// SampleSize caps how many records are inspected. 0 means all.
	SampleSize int

	// FieldOrder pins the leading field order. Named fields come first in
	// the given order; remaining observed keys follow sorted by name. Go
	// maps carry no insertion order, so without this option field order is
	// sorted — the only recoverable deterministic order.
	FieldOrder []string
}

// InferSchema derives a schema from a sample of records.
//
// A field observed as null or missing in any sample record is nullable;
// its type is taken from the first non-null value. A field that is null in
// every sample record has type Null and is nullable. Array-of-record and
// object fields get nested schemas inferred recursively.
//
// Type disagreement between samples is a hard error, not a union: the
// format is strict by design so that the header-derived column types are
// unambiguous on decode.
func InferSchema(records []Record, opts *InferOptions) (*Schema, error) {
	if len(records) == 0 {
		return nil, newError(CodeSchemaInferenceFailed, "cannot infer schema from empty input")
	}

	sample := records
	var order []string
	if opts != nil {
		if opts.SampleSize > 0 && opts.SampleSize < len(sample) {
			sample = sample[:opts.SampleSize]
		}
		order = opts.FieldOrder
	}

	return inferFromSample(sample, order, "")
}

// inferFromSample infers a schema for one level of records. path is the
// dotted location used in error details.
func inferFromSample(sample []Record, order []string, path string) (*Schema, error) {
	schema := &Schema{}
	seen := make(map[string]bool)

	for _, rec := range sample {
		if rec == nil {
			return nil, newError(CodeSchemaInferenceFailed, "sample contains a nil record").
				withDetail("path", path)
		}
		for key := range rec {
			seen[key] = true
		}
	}

	for _, name := range orderedKeys(seen, order) {
		schema.Fields = append(schema.Fields, &FieldSchema{Name: name, Type: TypeNull})
	}

	for _, f := range schema.Fields {
		if err := inferField(f, sample, path); err != nil {
			return nil, err
		}
	}

	return schema, nil
}

func inferField(f *FieldSchema, sample []Record, path string) error {
	fieldPath := f.Name
	if path != "" {
		fieldPath = path + "." + f.Name
	}

	sawValue := false
	var nestedRecords []Record

	for _, rec := range sample {
		v, present := rec[f.Name]
		if !present || isNull(v) {
			f.Nullable = true
			continue
		}

		typ, err := classifyValue(v)
		if err != nil {
			return newError(CodeUnsupportedType, "field %q: unsupported value", fieldPath).
				withDetail("field", fieldPath).
				withDetail("value", v)
		}

		if !sawValue {
			f.Type = typ
			sawValue = true
		} else if f.Type != typ {
			return newError(CodeUnsupportedType,
				"field %q has mixed types %s and %s", fieldPath, f.Type, typ).
				withDetail("field", fieldPath).
				withDetail("expected", f.Type.String()).
				withDetail("actual", typ.String())
		}

		switch typ {
		case TypeArray:
			elems, _ := asArray(v)
			for _, e := range elems {
				if r, ok := asRecord(e); ok {
					nestedRecords = append(nestedRecords, r)
				}
			}
		case TypeObject:
			r, _ := asRecord(v)
			nestedRecords = append(nestedRecords, r)
		}
	}

	if len(nestedRecords) > 0 {
		nested, err := inferFromSample(nestedRecords, nil, fieldPath)
		if err != nil {
			return err
		}
		if f.Type == TypeArray {
			f.Items = nested
		} else {
			f.Properties = nested
		}
	}

	return nil
}
