package toon

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultIndent is the row indentation used when EncodeOptions.Indent is
// empty.
const DefaultIndent = "  "

// EncodeOptions configures TOON encoding behavior.
type EncodeOptions struct {
	// Schema encodes against an explicit schema instead of inferring one.
	Schema *Schema

	// DisableInference forbids falling back to inference when Schema is
	// nil; Encode then fails with SCHEMA_INFERENCE_FAILED.
	DisableInference bool

	// SkipValidation bypasses the pre-encode validation pass.
	SkipValidation bool

	// FieldOrder pins inferred field order (see InferOptions.FieldOrder).
	FieldOrder []string

	NullHandling   NullHandling
	DateFormat     DateFormat
	FormatDate     func(time.Time) string // used when DateFormat is DateCustom
	EscapeStrategy EscapeStrategy

	// Indent prefixes each record line. Defaults to two spaces.
	Indent string
}

// Encode converts an array of uniform records to a TOON document.
//
// The empty input encodes to exactly "[0]{}:" with no body lines. Unless
// disabled, records are validated against the schema first and a failing
// batch aborts with SCHEMA_VALIDATION_FAILED carrying the error list; no
// partial encode of a malformed batch is attempted.
func Encode(records []Record, opts *EncodeOptions) (string, error) {
	o := EncodeOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Indent == "" {
		o.Indent = DefaultIndent
	}

	if len(records) == 0 {
		return renderHeader(0, &Schema{}), nil
	}

	schema := o.Schema
	if schema == nil {
		if o.DisableInference {
			return "", newError(CodeSchemaInferenceFailed,
				"inference disabled and no schema supplied")
		}
		inferred, err := InferSchema(records, &InferOptions{FieldOrder: o.FieldOrder})
		if err != nil {
			return "", err
		}
		schema = inferred
	} else {
		for _, f := range schema.Fields {
			if err := f.checkStructure(); err != nil {
				return "", err
			}
		}
	}

	if !o.SkipValidation {
		result := ValidateRecords(records, schema, nil)
		if !result.Valid {
			err := newError(CodeSchemaValidationFailed,
				"%d record(s) failed validation", len(result.Errors))
			return "", err.withDetail("errors", result.Errors)
		}
	}

	var sb strings.Builder
	sb.WriteString(renderHeader(len(records), schema))
	for _, rec := range records {
		sb.WriteByte('\n')
		sb.WriteString(o.Indent)
		row, err := encodeRow(rec, schema, &o)
		if err != nil {
			return "", err
		}
		sb.WriteString(row)
	}

	return sb.String(), nil
}

// EncodeAny encodes an arbitrary value that must be an array of records.
// Anything else, including scalars and bare objects, is INVALID_INPUT.
// This is the entry point for callers holding decoded JSON ([]any).
func EncodeAny(v any, opts *EncodeOptions) (string, error) {
	switch data := v.(type) {
	case []Record:
		return Encode(data, opts)
	case []any:
		records := make([]Record, len(data))
		for i, e := range data {
			r, ok := asRecord(e)
			if !ok {
				return "", newError(CodeInvalidInput,
					"element %d is not a record", i).withDetail("value", e)
			}
			records[i] = r
		}
		return Encode(records, opts)
	case nil:
		return "", newError(CodeInvalidInput, "input is nil")
	}
	return "", newError(CodeInvalidInput, "input %T is not an array of records", v)
}

// encodeRow writes one record as a comma-joined positional line.
func encodeRow(rec Record, schema *Schema, o *EncodeOptions) (string, error) {
	parts := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		cell, err := encodeValue(rec[f.Name], f, o)
		if err != nil {
			return "", err
		}
		parts[i] = cell
	}
	return strings.Join(parts, ","), nil
}

// encodeValue writes one cell.
func encodeValue(v any, f *FieldSchema, o *EncodeOptions) (string, error) {
	if isNull(v) {
		if o.NullHandling == NullLiteral {
			return "null", nil
		}
		return "", nil
	}

	typ, err := classifyValue(v)
	if err != nil {
		return "", err
	}

	switch typ {
	case TypeString:
		return canonString(v.(string), o.EscapeStrategy), nil

	case TypeNumber:
		return canonNumber(v), nil

	case TypeBool:
		return canonBool(v.(bool)), nil

	case TypeDate:
		t, _ := asTime(v)
		return canonDate(t, o.DateFormat, o.FormatDate), nil

	case TypeArray:
		return encodeArray(v, f, o)

	case TypeObject:
		rec, _ := asRecord(v)
		var props *Schema
		if f != nil {
			props = f.Properties
		}
		if props == nil {
			// Irregular nested data without a schema: full JSON dump,
			// escaped as an ordinary string cell.
			return jsonFallback(rec, o)
		}
		row, err := encodeRow(rec, props, o)
		if err != nil {
			return "", err
		}
		return "{" + row + "}", nil
	}

	return "", newError(CodeEncodeError, "unencodable value of type %T", v)
}

// encodeArray writes an array cell: records in braces, scalars bare.
func encodeArray(v any, f *FieldSchema, o *EncodeOptions) (string, error) {
	elems, _ := asArray(v)

	var items *Schema
	if f != nil {
		items = f.Items
	}

	parts := make([]string, len(elems))
	for i, e := range elems {
		if rec, ok := asRecord(e); ok {
			if items == nil {
				cell, err := jsonFallback(rec, o)
				if err != nil {
					return "", err
				}
				parts[i] = cell
				continue
			}
			row, err := encodeRow(rec, items, o)
			if err != nil {
				return "", err
			}
			parts[i] = "{" + row + "}"
			continue
		}
		cell, err := encodeValue(e, nil, o)
		if err != nil {
			return "", err
		}
		parts[i] = cell
	}

	return "[" + strings.Join(parts, ",") + "]", nil
}

func jsonFallback(rec Record, o *EncodeOptions) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", newError(CodeEncodeError, "json fallback failed: %v", err)
	}
	return escapeString(string(b), o.EscapeStrategy), nil
}
