package toon

import (
	"time"
)

// DataType represents TOON value types.
type DataType uint8

const (
	TypeString DataType = iota
	TypeNumber
	TypeBool
	TypeNull
	TypeDate
	TypeArray
	TypeObject
)

// String returns the type name.
func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeNull:
		return "null"
	case TypeDate:
		return "date"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// ParseDataType resolves a type name to a DataType.
func ParseDataType(name string) (DataType, bool) {
	switch name {
	case "string", "str":
		return TypeString, true
	case "number", "float", "int":
		return TypeNumber, true
	case "bool", "boolean":
		return TypeBool, true
	case "null":
		return TypeNull, true
	case "date", "time", "timestamp":
		return TypeDate, true
	case "array":
		return TypeArray, true
	case "object":
		return TypeObject, true
	}
	return TypeNull, false
}

// Record is one row of data: a field-name to value mapping. Values are
// limited to the TOON data model (see classifyValue).
type Record = map[string]any

// classifyValue maps a runtime value to its DataType. This is a closed
// classification: anything outside the TOON data model is an
// UNSUPPORTED_TYPE error, never a silent coercion.
func classifyValue(v any) (DataType, error) {
	switch v.(type) {
	case nil:
		return TypeNull, nil
	case string:
		return TypeString, nil
	case bool:
		return TypeBool, nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return TypeNumber, nil
	case time.Time, *time.Time:
		return TypeDate, nil
	case []any, []Record, []string, []int, []int64, []float64, []bool:
		return TypeArray, nil
	case Record:
		return TypeObject, nil
	}
	return TypeNull, newError(CodeUnsupportedType, "unsupported value type %T", v).
		withDetail("value", v)
}

// asFloat converts any supported numeric value to float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// asTime extracts a time.Time from a date-classified value.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	}
	return time.Time{}, false
}

// asArray normalizes any supported slice value to []any.
func asArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case []Record:
		out := make([]any, len(a))
		for i, e := range a {
			out[i] = e
		}
		return out, true
	case []string:
		out := make([]any, len(a))
		for i, e := range a {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]any, len(a))
		for i, e := range a {
			out[i] = e
		}
		return out, true
	case []int64:
		out := make([]any, len(a))
		for i, e := range a {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(a))
		for i, e := range a {
			out[i] = e
		}
		return out, true
	case []bool:
		out := make([]any, len(a))
		for i, e := range a {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

// asRecord extracts a Record from an object-classified value.
func asRecord(v any) (Record, bool) {
	r, ok := v.(Record)
	return r, ok
}

// isNull reports whether a value is the null of the data model.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	if t, ok := v.(*time.Time); ok {
		return t == nil
	}
	return false
}
