package toon

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MissingFieldHandling governs what happens when a row carries fewer cells
// than the schema declares fields.
type MissingFieldHandling uint8

const (
	// MissingNull stores nil for absent trailing fields (the default).
	MissingNull MissingFieldHandling = iota
	// MissingSkip leaves absent fields out of the decoded record.
	MissingSkip
	// MissingError fails the decode with MISSING_FIELD.
	MissingError
)

// DecodeOptions configures TOON decoding behavior.
type DecodeOptions struct {
	// Schema gates the decode: the header's field names and nesting must
	// cover it, and its field types direct coercion targets. Header
	// scalar types are not compared, since every scalar column reads
	// back as string until coerced.
	Schema *Schema

	// CoerceTypes converts bare numeric, boolean, null and RFC 3339 date
	// tokens to native values. Without it every scalar decodes as string.
	CoerceTypes bool

	// Strict requires every row to carry exactly one cell per declared
	// field; extra or missing cells are errors.
	Strict bool

	// EscapeStrategy selects which escaping to reverse. Must match the
	// strategy the document was encoded with. Defaults to EscapeQuotes.
	EscapeStrategy EscapeStrategy

	MissingFieldHandling MissingFieldHandling
}

// Decode parses a TOON document back into records.
//
// The header's declared count and the actual number of body lines may
// disagree; enumeration stops at whichever bound is reached first. This
// leniency is deliberate: truncated exports decode to what is present, and
// trailing junk after the declared count is ignored.
func Decode(text string, opts *DecodeOptions) ([]Record, error) {
	o := DecodeOptions{}
	if opts != nil {
		o = *opts
	}

	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, newError(CodeParseError, "empty document")
	}

	declared, headerSchema, err := parseHeader(strings.TrimSpace(lines[0]))
	if err != nil {
		return nil, err
	}

	schema := headerSchema
	if o.Schema != nil {
		if !headerCompatible(headerSchema, o.Schema) {
			return nil, newError(CodeSchemaValidationFailed,
				"document schema is incompatible with the supplied schema").
				withDetail("header", headerSchema.Canonical()).
				withDetail("supplied", o.Schema.Canonical())
		}
		schema = o.Schema
	}

	records := make([]Record, 0, max(declared, 0))
	for i := 1; i < len(lines); i++ {
		if declared >= 0 && len(records) >= declared {
			break
		}
		raw := strings.TrimRight(lines[i], "\r")
		line := strings.TrimSpace(raw)
		if line == "" && raw == "" {
			// A truly empty line is a separator. Whitespace-only lines
			// carry the row indent and decode as a row of empty cells.
			continue
		}
		rec, err := decodeRowLine(line, schema, &o)
		if err != nil {
			return nil, withLine(err, i+1)
		}
		records = append(records, rec)
	}

	if o.Strict && declared >= 0 && len(records) < declared {
		return nil, newError(CodeParseError,
			"header declares %d records but body has %d", declared, len(records))
	}

	return records, nil
}

// headerCompatible reports whether the header-derived field tree can carry
// data for the supplied schema. Header scalar types are unknowable (every
// scalar column parses back as string), so only field names and nesting
// shape are compared; value types are enforced later, cell by cell.
func headerCompatible(header, want *Schema) bool {
	if want == nil {
		return true
	}
	if header == nil {
		for _, f := range want.Fields {
			if !f.Nullable {
				return false
			}
		}
		return true
	}
	for _, wf := range want.Fields {
		hf := header.GetField(wf.Name)
		if hf == nil {
			if wf.Nullable {
				continue
			}
			return false
		}
		if wf.Items != nil && (hf.Items == nil || !headerCompatible(hf.Items, wf.Items)) {
			return false
		}
		if wf.Properties != nil && (hf.Properties == nil || !headerCompatible(hf.Properties, wf.Properties)) {
			return false
		}
	}
	return true
}

// withLine tags a typed error with the 1-based source line.
func withLine(err error, line int) error {
	if te, ok := err.(*Error); ok {
		return te.withDetail("line", line)
	}
	return err
}

// decodeRowLine parses one body line into a record.
func decodeRowLine(line string, schema *Schema, o *DecodeOptions) (Record, error) {
	cells, err := splitCells(line, o.EscapeStrategy)
	if err != nil {
		return nil, err
	}

	if o.Strict && len(cells) != len(schema.Fields) {
		return nil, newError(CodeParseError,
			"row has %d cells, schema declares %d fields", len(cells), len(schema.Fields)).
			withDetail("row", line)
	}
	if len(cells) > len(schema.Fields) {
		return nil, newError(CodeParseError,
			"row has %d cells, schema declares only %d fields", len(cells), len(schema.Fields)).
			withDetail("row", line)
	}

	rec := make(Record, len(schema.Fields))
	for i, f := range schema.Fields {
		if i >= len(cells) {
			switch o.MissingFieldHandling {
			case MissingSkip:
			case MissingError:
				return nil, newError(CodeMissingField, "field %q absent from row", f.Name).
					withDetail("field", f.Name).
					withDetail("row", line)
			default:
				rec[f.Name] = nil
			}
			continue
		}
		v, err := decodeCell(cells[i], f, o)
		if err != nil {
			return nil, err
		}
		rec[f.Name] = v
	}

	return rec, nil
}

// cell is one split token plus whether it arrived quote-wrapped, which
// pins it to a string on decode.
type cell struct {
	text   string
	quoted bool
}

// splitCells splits a row on top-level commas. Commas inside quoted
// segments and inside bracket/brace nesting do not split. Unescaping for
// the active strategy happens during the split.
func splitCells(line string, strategy EscapeStrategy) ([]cell, error) {
	switch strategy {
	case EscapeBackslash:
		return splitBackslash(line)
	case EscapeURL:
		return splitURL(line)
	default:
		return splitQuoted(line)
	}
}

// splitQuoted handles the canonical quote-wrapping strategy: a cell
// opening with '"' runs to the matching close, with "" as a literal quote
// and \n, \r, \\ as the escaped line-break bytes.
func splitQuoted(line string) ([]cell, error) {
	var cells []cell
	var sb strings.Builder
	depth := 0
	quoted := false

	i := 0
	for i < len(line) {
		c := line[i]

		if c == '"' {
			if depth > 0 {
				// Inside a nested container the segment is copied verbatim,
				// quotes included; the recursive split unwraps it.
				end, err := copyQuotedVerbatim(line, i, &sb)
				if err != nil {
					return nil, err
				}
				i = end
				continue
			}
			if sb.Len() != 0 {
				return nil, newError(CodeParseError, "quote in the middle of a bare cell").
					withDetail("row", line)
			}
			// Consume the quoted segment.
			i++
			for {
				if i >= len(line) {
					return nil, newError(CodeParseError, "unterminated quoted cell").
						withDetail("row", line)
				}
				if line[i] == '"' {
					if i+1 < len(line) && line[i+1] == '"' {
						sb.WriteByte('"')
						i += 2
						continue
					}
					i++
					break
				}
				if line[i] == '\\' && i+1 < len(line) {
					switch line[i+1] {
					case 'n':
						sb.WriteByte('\n')
					case 'r':
						sb.WriteByte('\r')
					default:
						sb.WriteByte(line[i+1])
					}
					i += 2
					continue
				}
				sb.WriteByte(line[i])
				i++
			}
			if i < len(line) && line[i] != ',' {
				return nil, newError(CodeParseError, "trailing characters after quoted cell").
					withDetail("row", line)
			}
			quoted = true
			continue
		}

		switch c {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth < 0 {
				return nil, newError(CodeParseError, "unbalanced brackets in row").
					withDetail("row", line)
			}
		case ',':
			if depth == 0 {
				cells = append(cells, cell{text: sb.String(), quoted: quoted})
				sb.Reset()
				quoted = false
				i++
				continue
			}
		}
		sb.WriteByte(c)
		i++
	}

	if depth != 0 {
		return nil, newError(CodeParseError, "unbalanced brackets in row").
			withDetail("row", line)
	}
	cells = append(cells, cell{text: sb.String(), quoted: quoted})
	return cells, nil
}

// copyQuotedVerbatim copies the quoted segment starting at line[start]
// into sb without structural interpretation, so brackets and commas
// inside the quotes cannot disturb the depth counter. Returns the index
// one past the closing quote.
func copyQuotedVerbatim(line string, start int, sb *strings.Builder) (int, error) {
	sb.WriteByte('"')
	i := start + 1
	for {
		if i >= len(line) {
			return 0, newError(CodeParseError, "unterminated quoted cell").
				withDetail("row", line)
		}
		if line[i] == '"' {
			if i+1 < len(line) && line[i+1] == '"' {
				sb.WriteString(`""`)
				i += 2
				continue
			}
			sb.WriteByte('"')
			return i + 1, nil
		}
		if line[i] == '\\' && i+1 < len(line) {
			sb.WriteByte(line[i])
			sb.WriteByte(line[i+1])
			i += 2
			continue
		}
		sb.WriteByte(line[i])
		i++
	}
}

// splitBackslash reverses EscapeBackslash: a backslash protects the next
// character from structural interpretation.
func splitBackslash(line string) ([]cell, error) {
	var cells []cell
	var sb strings.Builder
	depth := 0
	escaped := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		if escaped {
			switch c {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 's':
				sb.WriteByte(' ')
			default:
				sb.WriteByte(c)
			}
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '[', '{':
			depth++
			sb.WriteByte(c)
		case ']', '}':
			depth--
			if depth < 0 {
				return nil, newError(CodeParseError, "unbalanced brackets in row").
					withDetail("row", line)
			}
			sb.WriteByte(c)
		case ',':
			if depth == 0 {
				cells = append(cells, cell{text: sb.String()})
				sb.Reset()
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}

	if escaped {
		return nil, newError(CodeParseError, "dangling backslash in row").
			withDetail("row", line)
	}
	if depth != 0 {
		return nil, newError(CodeParseError, "unbalanced brackets in row").
			withDetail("row", line)
	}
	cells = append(cells, cell{text: sb.String()})
	return cells, nil
}

// splitURL reverses EscapeURL: cells carry no structural characters except
// the nesting brackets themselves, so the split is depth-aware only and
// each cell is percent-decoded afterwards.
func splitURL(line string) ([]cell, error) {
	raw, err := splitDepthOnly(line)
	if err != nil {
		return nil, err
	}
	cells := make([]cell, len(raw))
	for i, r := range raw {
		if strings.ContainsAny(r, "[]{}") {
			// Nested container cells are decoded element-wise later.
			cells[i] = cell{text: r}
			continue
		}
		decoded, err := url.QueryUnescape(r)
		if err != nil {
			return nil, newError(CodeParseError, "invalid percent-encoding in cell %q", r).
				withDetail("row", line)
		}
		cells[i] = cell{text: decoded}
	}
	return cells, nil
}

func splitDepthOnly(line string) ([]string, error) {
	var out []string
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case '[', '{':
			depth++
			sb.WriteByte(c)
		case ']', '}':
			depth--
			if depth < 0 {
				return nil, newError(CodeParseError, "unbalanced brackets in row").
					withDetail("row", line)
			}
			sb.WriteByte(c)
		case ',':
			if depth == 0 {
				out = append(out, sb.String())
				sb.Reset()
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}
	if depth != 0 {
		return nil, newError(CodeParseError, "unbalanced brackets in row").
			withDetail("row", line)
	}
	return append(out, sb.String()), nil
}

// decodeCell interprets one cell against its field schema.
func decodeCell(c cell, f *FieldSchema, o *DecodeOptions) (any, error) {
	if c.quoted {
		return c.text, nil
	}
	text := c.text

	if text == "" {
		return nil, nil
	}

	// Containers.
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		return decodeArrayCell(text[1:len(text)-1], f, o)
	}
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		var props *Schema
		if f != nil {
			props = f.Properties
		}
		if props == nil {
			return nil, newError(CodeParseError,
				"nested record cell without a properties schema").
				withDetail("cell", text)
		}
		return decodeRowLine(text[1:len(text)-1], props, o)
	}

	return decodeScalar(text, f, o)
}

// decodeArrayCell parses the inside of a bracketed array cell.
func decodeArrayCell(inner string, f *FieldSchema, o *DecodeOptions) (any, error) {
	if strings.TrimSpace(inner) == "" {
		return []any{}, nil
	}

	parts, err := splitCells(inner, o.EscapeStrategy)
	if err != nil {
		return nil, err
	}

	var items *Schema
	if f != nil {
		items = f.Items
	}

	out := make([]any, len(parts))
	for i, p := range parts {
		if !p.quoted && strings.HasPrefix(p.text, "{") && strings.HasSuffix(p.text, "}") {
			if items == nil {
				return nil, newError(CodeParseError,
					"nested record element without an items schema").
					withDetail("cell", p.text)
			}
			rec, err := decodeRowLine(p.text[1:len(p.text)-1], items, o)
			if err != nil {
				return nil, err
			}
			out[i] = rec
			continue
		}
		v, err := decodeCell(p, nil, o)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// decodeScalar interprets one bare scalar token.
func decodeScalar(text string, f *FieldSchema, o *DecodeOptions) (any, error) {
	if !o.CoerceTypes {
		return text, nil
	}

	switch text {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	// Numbers: integral tokens become int64, everything else float64.
	if looksNumeric(text) {
		if !strings.ContainsAny(text, ".eE") {
			if n, err := strconv.ParseInt(text, 10, 64); err == nil {
				return n, nil
			}
		}
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, newError(CodeTypeCoercionFailed, "cannot parse number %q", text).
				withDetail("value", text)
		}
		return n, nil
	}

	// RFC 3339 dates.
	if looksDated(text) {
		if t, err := time.Parse(time.RFC3339, text); err == nil {
			return t, nil
		}
	}

	// Supplied schemas make coercion strict for typed fields.
	if f != nil && o.Schema != nil {
		switch f.Type {
		case TypeNumber, TypeBool, TypeDate:
			return nil, newError(CodeTypeCoercionFailed,
				"field %q: cannot coerce %q to %s", f.Name, text, f.Type).
				withDetail("field", f.Name).
				withDetail("value", text)
		}
	}

	return text, nil
}

// looksDated is a cheap shape check before attempting a full date parse.
func looksDated(s string) bool {
	return len(s) >= 10 && s[4] == '-' && s[7] == '-'
}
