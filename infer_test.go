package toon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferSchema_Basic(t *testing.T) {
	records := []Record{
		{"id": 1, "name": "Alice", "age": 30},
		{"id": 2, "name": "Bob", "age": 25},
	}

	schema, err := InferSchema(records, &InferOptions{FieldOrder: []string{"id", "name", "age"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "age"}, schema.FieldNames())
	assert.Equal(t, TypeNumber, schema.GetField("id").Type)
	assert.Equal(t, TypeString, schema.GetField("name").Type)
	for _, f := range schema.Fields {
		assert.False(t, f.Nullable)
	}
}

func TestInferSchema_SortedWithoutOrder(t *testing.T) {
	records := []Record{{"zeta": 1, "alpha": "x", "mid": true}}

	schema, err := InferSchema(records, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, schema.FieldNames())
}

func TestInferSchema_PartialOrderPinsLeading(t *testing.T) {
	records := []Record{{"a": 1, "b": 2, "c": 3}}

	schema, err := InferSchema(records, &InferOptions{FieldOrder: []string{"c"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, schema.FieldNames())
}

func TestInferSchema_Types(t *testing.T) {
	now := time.Now()
	records := []Record{{
		"s":    "text",
		"n":    3.14,
		"i":    42,
		"b":    true,
		"d":    now,
		"arr":  []any{1, 2},
		"obj":  Record{"x": 1},
		"none": nil,
	}}

	schema, err := InferSchema(records, nil)
	require.NoError(t, err)

	expect := map[string]DataType{
		"s": TypeString, "n": TypeNumber, "i": TypeNumber,
		"b": TypeBool, "d": TypeDate, "arr": TypeArray,
		"obj": TypeObject, "none": TypeNull,
	}
	for name, typ := range expect {
		f := schema.GetField(name)
		require.NotNil(t, f, name)
		assert.Equal(t, typ, f.Type, name)
	}
	assert.True(t, schema.GetField("none").Nullable)
}

func TestInferSchema_Nullability(t *testing.T) {
	tests := []struct {
		name     string
		records  []Record
		nullable bool
	}{
		{"explicit_null", []Record{{"a": 1}, {"a": nil}}, true},
		{"missing_key", []Record{{"a": 1}, {}}, true},
		{"always_present", []Record{{"a": 1}, {"a": 2}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := InferSchema(tt.records, nil)
			require.NoError(t, err)
			f := schema.GetField("a")
			assert.Equal(t, tt.nullable, f.Nullable)
			assert.Equal(t, TypeNumber, f.Type, "type comes from the first non-null value")
		})
	}
}

func TestInferSchema_MixedTypesRejected(t *testing.T) {
	records := []Record{{"a": 1}, {"a": "one"}}

	_, err := InferSchema(records, nil)
	require.Error(t, err)
	assert.Equal(t, CodeUnsupportedType, CodeOf(err))

	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "number", te.Details["expected"])
	assert.Equal(t, "string", te.Details["actual"])
}

func TestInferSchema_Nested(t *testing.T) {
	records := []Record{{
		"id":    1,
		"items": []any{Record{"sku": "a", "qty": 1}, Record{"sku": "b", "qty": 2}},
		"meta":  Record{"region": "eu"},
	}}

	schema, err := InferSchema(records, &InferOptions{FieldOrder: []string{"id", "items", "meta"}})
	require.NoError(t, err)

	items := schema.GetField("items")
	require.NotNil(t, items.Items)
	assert.Equal(t, []string{"qty", "sku"}, items.Items.FieldNames())
	assert.Equal(t, TypeNumber, items.Items.GetField("qty").Type)

	meta := schema.GetField("meta")
	require.NotNil(t, meta.Properties)
	assert.Equal(t, TypeString, meta.Properties.GetField("region").Type)
}

func TestInferSchema_SampleSize(t *testing.T) {
	// The mismatch sits past the sample window and goes unnoticed.
	records := []Record{{"a": 1}, {"a": 2}, {"a": "three"}}

	schema, err := InferSchema(records, &InferOptions{SampleSize: 2})
	require.NoError(t, err)
	assert.Equal(t, TypeNumber, schema.GetField("a").Type)
}

func TestInferSchema_Failures(t *testing.T) {
	_, err := InferSchema(nil, nil)
	assert.Equal(t, CodeSchemaInferenceFailed, CodeOf(err))

	_, err = InferSchema([]Record{nil}, nil)
	assert.Equal(t, CodeSchemaInferenceFailed, CodeOf(err))

	_, err = InferSchema([]Record{{"ch": make(chan int)}}, nil)
	assert.Equal(t, CodeUnsupportedType, CodeOf(err))
}
