// Package toon implements TOON (Tokenization-Optimized Object Notation),
// a compact schema-once text encoding for arrays of uniform records.
//
// TOON is designed for data embedded in LLM prompts:
//   - Token-cheap (field names appear once, in the header)
//   - Schema-driven (inferred from samples or supplied by the caller)
//   - Round-trippable (decode reverses encode using the header schema)
//   - Streamable (incremental encode/decode for large record sets)
//   - Measurable (token/byte comparison against a JSON baseline)
//
// # Wire Format
//
// A document is a header line followed by one indented line per record:
//
//	[3]{id,name,tags,address{city,zip}}:
//	  1,Alice,[a,b],{Lisbon,1000}
//	  2,Bob,[c],{Porto,4000}
//	  3,"Smith, Carol",[],{Faro,8000}
//
// The header carries the record count and the field names in encoding
// order. Array-of-record fields are declared as name[{subfields}], nested
// record fields as name{subfields}. The empty dataset is exactly "[0]{}:".
//
// # Data Model
//
// Scalars: string, number, bool, null, date (time.Time)
// Containers: array, object
//
// Values containing the delimiter, quotes, or line breaks are escaped by
// double-quote wrapping with doubled internal quotes; line breaks and
// backslashes inside the quotes become \n, \r and \\ so each record stays
// on one physical line (the default; see EscapeStrategy for alternatives).
// The empty string is always quote-wrapped, keeping it distinct from null,
// which encodes as a bare empty cell.
//
// # Example
//
//	text, err := toon.Encode([]toon.Record{
//		{"id": 1, "name": "Alice", "age": 30},
//		{"id": 2, "name": "Bob", "age": 25},
//	}, &toon.EncodeOptions{FieldOrder: []string{"id", "name", "age"}})
//	// text == "[2]{id,name,age}:\n  1,Alice,30\n  2,Bob,25"
//
// Encode and Decode are pure functions and safe for concurrent use.
// StreamEncoder, StreamDecoder, and TokenTracker are stateful and must be
// owned by a single caller each.
package toon
