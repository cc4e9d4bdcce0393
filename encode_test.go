package toon

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Basic(t *testing.T) {
	records := []Record{
		{"id": 1, "name": "Alice", "age": 30},
		{"id": 2, "name": "Bob", "age": 25},
	}

	out, err := Encode(records, &EncodeOptions{FieldOrder: []string{"id", "name", "age"}})
	require.NoError(t, err)
	assert.Equal(t, "[2]{id,name,age}:\n  1,Alice,30\n  2,Bob,25", out)
}

func TestEncode_Empty(t *testing.T) {
	out, err := Encode(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[0]{}:", out)

	out, err = Encode([]Record{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[0]{}:", out)
}

func TestEncode_ExplicitSchema(t *testing.T) {
	schema := NewSchema(
		Field("name", TypeString),
		Field("id", TypeNumber),
	)
	records := []Record{{"id": 1, "name": "Alice"}}

	out, err := Encode(records, &EncodeOptions{Schema: schema})
	require.NoError(t, err)
	assert.Equal(t, "[1]{name,id}:\n  Alice,1", out, "explicit schema fixes column order")
}

func TestEncode_InferenceDisabled(t *testing.T) {
	_, err := Encode([]Record{{"a": 1}}, &EncodeOptions{DisableInference: true})
	assert.Equal(t, CodeSchemaInferenceFailed, CodeOf(err))
}

func TestEncode_ValidationAborts(t *testing.T) {
	schema := NewSchema(Field("id", TypeNumber))
	records := []Record{{"id": 1}, {"id": "two"}}

	_, err := Encode(records, &EncodeOptions{Schema: schema})
	require.Error(t, err)
	assert.Equal(t, CodeSchemaValidationFailed, CodeOf(err))

	var te *Error
	require.ErrorAs(t, err, &te)
	assert.NotEmpty(t, te.Details["errors"], "validation errors ride along in details")

	// SkipValidation lets the same batch through.
	out, err := Encode(records, &EncodeOptions{Schema: schema, SkipValidation: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[2]{id}:"))
}

// ============================================================
// Value rendering
// ============================================================

func TestEncode_NullHandling(t *testing.T) {
	schema := NewSchema(Field("a", TypeNumber), Field("b", TypeString, Nullable()))
	records := []Record{{"a": 1, "b": nil}}

	tests := []struct {
		name string
		mode NullHandling
		want string
	}{
		{"empty", NullEmpty, "[1]{a,b}:\n  1,"},
		{"literal", NullLiteral, "[1]{a,b}:\n  1,null"},
		{"skip_same_as_empty", NullSkip, "[1]{a,b}:\n  1,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode(records, &EncodeOptions{Schema: schema, NullHandling: tt.mode})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEncode_Numbers(t *testing.T) {
	schema := NewSchema(Field("v", TypeNumber))
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"int", 42, "42"},
		{"negative", -7, "-7"},
		{"int64", int64(9000000000), "9000000000"},
		{"integral_float", 30.0, "30"},
		{"decimal", 3.14, "3.14"},
		{"small", 0.001, "0.001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode([]Record{{"v": tt.v}}, &EncodeOptions{Schema: schema})
			require.NoError(t, err)
			assert.Equal(t, "[1]{v}:\n  "+tt.want, out)
		})
	}
}

func TestEncode_Bools(t *testing.T) {
	records := []Record{{"ok": true}, {"ok": false}}
	out, err := Encode(records, nil)
	require.NoError(t, err)
	assert.Equal(t, "[2]{ok}:\n  true\n  false", out)
}

func TestEncode_Dates(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	schema := NewSchema(Field("at", TypeDate))
	records := []Record{{"at": ts}}

	out, err := Encode(records, &EncodeOptions{Schema: schema})
	require.NoError(t, err)
	assert.Equal(t, "[1]{at}:\n  2026-01-02T03:04:05Z", out)

	out, err = Encode(records, &EncodeOptions{Schema: schema, DateFormat: DateUnixSeconds})
	require.NoError(t, err)
	assert.Equal(t, "[1]{at}:\n  1767323045", out)

	out, err = Encode(records, &EncodeOptions{
		Schema:     schema,
		DateFormat: DateCustom,
		FormatDate: func(t time.Time) string { return t.Format("2006-01-02") },
	})
	require.NoError(t, err)
	assert.Equal(t, "[1]{at}:\n  2026-01-02", out)
}

func TestEncode_Unicode(t *testing.T) {
	records := []Record{{"name": "José 日本語"}}
	out, err := Encode(records, nil)
	require.NoError(t, err)
	assert.Equal(t, "[1]{name}:\n  José 日本語", out, "unicode without structural chars stays bare")
}

// ============================================================
// Escaping
// ============================================================

func TestEncode_EscapeQuotes(t *testing.T) {
	tests := []struct {
		name string
		v    string
		want string
	}{
		{"comma", "a,b", `"a,b"`},
		{"quote", `say "hi"`, `"say ""hi"""`},
		{"newline", "a\nb", `"a\nb"`},
		{"backslash_in_quoted", "a,b\\c", `"a,b\\c"`},
		{"bare_backslash", `a\b`, `a\b`},
		{"empty_string", "", `""`},
		{"brackets", "x[0]", `"x[0]"`},
		{"numeric_string", "30", `"30"`},
		{"keyword_string", "null", `"null"`},
		{"leading_space", " x", `" x"`},
		{"plain", "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode([]Record{{"v": tt.v}}, nil)
			require.NoError(t, err)
			assert.Equal(t, "[1]{v}:\n  "+tt.want, out)
		})
	}
}

func TestEncode_EscapeBackslash(t *testing.T) {
	out, err := Encode([]Record{{"v": `a,b"c` + "\nd"}}, &EncodeOptions{
		EscapeStrategy: EscapeBackslash,
	})
	require.NoError(t, err)
	assert.Equal(t, "[1]{v}:\n  "+`a\,b\"c\nd`, out)
}

func TestEncode_EscapeURL(t *testing.T) {
	out, err := Encode([]Record{{"v": "a,b c"}}, &EncodeOptions{
		EscapeStrategy: EscapeURL,
	})
	require.NoError(t, err)
	assert.Equal(t, "[1]{v}:\n  a%2Cb+c", out)
}

// ============================================================
// Nested structures
// ============================================================

func TestEncode_ScalarArray(t *testing.T) {
	records := []Record{{"id": 1, "tags": []any{"x", "y"}}}
	out, err := Encode(records, &EncodeOptions{FieldOrder: []string{"id", "tags"}})
	require.NoError(t, err)
	assert.Equal(t, "[1]{id,tags}:\n  1,[x,y]", out)
}

func TestEncode_RecordArray(t *testing.T) {
	records := []Record{{
		"id":    1,
		"items": []any{Record{"sku": "a", "qty": 2}, Record{"sku": "b", "qty": 3}},
	}}
	out, err := Encode(records, &EncodeOptions{FieldOrder: []string{"id", "items"}})
	require.NoError(t, err)
	assert.Equal(t, "[1]{id,items[{qty,sku}]}:\n  1,[{2,a},{3,b}]", out)
}

func TestEncode_NestedObject(t *testing.T) {
	records := []Record{{"id": 1, "meta": Record{"region": "eu", "zone": "a"}}}
	out, err := Encode(records, &EncodeOptions{FieldOrder: []string{"id", "meta"}})
	require.NoError(t, err)
	assert.Equal(t, "[1]{id,meta{region,zone}}:\n  1,{eu,a}", out)
}

func TestEncode_EmptyArray(t *testing.T) {
	schema := NewSchema(Field("id", TypeNumber), Field("tags", TypeArray))
	records := []Record{{"id": 1, "tags": []any{}}}
	out, err := Encode(records, &EncodeOptions{Schema: schema})
	require.NoError(t, err)
	assert.Equal(t, "[1]{id,tags}:\n  1,[]", out)
}

// ============================================================
// EncodeAny
// ============================================================

func TestEncodeAny(t *testing.T) {
	out, err := EncodeAny([]any{map[string]any{"id": 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[1]{id}:\n  1", out)

	_, err = EncodeAny("scalar", nil)
	assert.Equal(t, CodeInvalidInput, CodeOf(err))

	_, err = EncodeAny(nil, nil)
	assert.Equal(t, CodeInvalidInput, CodeOf(err))

	_, err = EncodeAny([]any{"not a record"}, nil)
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
}

func TestEncode_CustomIndent(t *testing.T) {
	out, err := Encode([]Record{{"a": 1}}, &EncodeOptions{Indent: "\t"})
	require.NoError(t, err)
	assert.Equal(t, "[1]{a}:\n\t1", out)
}

func TestEstimatedSavings(t *testing.T) {
	// Header-once beats key-per-record for any uniform batch of size.
	records := make([]Record, 50)
	for i := range records {
		records[i] = Record{"identifier": i, "display_name": "user", "score": i * 2}
	}
	out, err := Encode(records, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "identifier"), "field names appear exactly once")
	assert.Equal(t, 51, len(strings.Split(out, "\n")))
}
