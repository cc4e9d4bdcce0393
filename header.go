package toon

import (
	"strconv"
	"strings"
)

// countPlaceholder is written by the streaming encoder when the total
// record count is not known up front. Callers reconcile it afterwards.
const countPlaceholder = "?"

// renderHeader builds the header line "[N]{specs}:" for a schema. A
// negative count renders the streaming placeholder.
func renderHeader(count int, schema *Schema) string {
	var sb strings.Builder
	sb.WriteByte('[')
	if count < 0 {
		sb.WriteString(countPlaceholder)
	} else {
		sb.WriteString(strconv.Itoa(count))
	}
	sb.WriteByte(']')
	sb.WriteString(schema.Canonical())
	sb.WriteByte(':')
	return sb.String()
}

// parseHeader parses a header line back into a declared count and the
// field tree. Field types are unknowable from the header alone: scalar
// fields come back as TypeString, nested fields as TypeArray/TypeObject
// with their sub-schemas. Count is -1 for the streaming placeholder.
func parseHeader(line string) (int, *Schema, error) {
	s := strings.TrimRight(line, "\r")
	if !strings.HasPrefix(s, "[") {
		return 0, nil, newError(CodeParseError, "header must start with '['").
			withDetail("line", line)
	}

	closeIdx := strings.IndexByte(s, ']')
	if closeIdx < 0 {
		return 0, nil, newError(CodeParseError, "header missing ']'").withDetail("line", line)
	}

	countText := s[1:closeIdx]
	count := -1
	if countText != countPlaceholder {
		n, err := strconv.Atoi(countText)
		if err != nil || n < 0 {
			return 0, nil, newError(CodeParseError, "invalid record count %q", countText).
				withDetail("line", line)
		}
		count = n
	}

	rest := s[closeIdx+1:]
	if !strings.HasPrefix(rest, "{") || !strings.HasSuffix(rest, ":") {
		return 0, nil, newError(CodeParseError, "header field list must be '{...}:'").
			withDetail("line", line)
	}
	body := rest[1 : len(rest)-1]
	if !strings.HasSuffix(body, "}") {
		return 0, nil, newError(CodeParseError, "header missing closing '}'").
			withDetail("line", line)
	}
	body = body[:len(body)-1]

	schema, err := parseFieldSpecs(body)
	if err != nil {
		return 0, nil, err
	}
	return count, schema, nil
}

// parseFieldSpecs parses a comma-separated field spec list:
// name | name[{...}] | name{...}
func parseFieldSpecs(body string) (*Schema, error) {
	schema := &Schema{}
	if body == "" {
		return schema, nil
	}

	pos := 0
	for pos < len(body) {
		// Field name runs until a structural character.
		start := pos
		for pos < len(body) && body[pos] != ',' && body[pos] != '[' && body[pos] != '{' {
			pos++
		}
		name := body[start:pos]
		if name == "" {
			return nil, newError(CodeParseError, "empty field name in header").
				withDetail("specs", body)
		}

		f := &FieldSchema{Name: name, Type: TypeString}

		if pos < len(body) && body[pos] == '[' {
			// Array of records: name[{...}]
			if pos+1 >= len(body) || body[pos+1] != '{' {
				return nil, newError(CodeParseError, "field %q: expected '[{' in header", name)
			}
			inner, end, err := matchBraces(body, pos+1)
			if err != nil {
				return nil, err
			}
			if end >= len(body) || body[end] != ']' {
				return nil, newError(CodeParseError, "field %q: missing ']' in header", name)
			}
			sub, err := parseFieldSpecs(inner)
			if err != nil {
				return nil, err
			}
			f.Type = TypeArray
			f.Items = sub
			pos = end + 1
		} else if pos < len(body) && body[pos] == '{' {
			// Nested record: name{...}
			inner, end, err := matchBraces(body, pos)
			if err != nil {
				return nil, err
			}
			sub, err := parseFieldSpecs(inner)
			if err != nil {
				return nil, err
			}
			f.Type = TypeObject
			f.Properties = sub
			pos = end
		}

		schema.Fields = append(schema.Fields, f)

		if pos < len(body) {
			if body[pos] != ',' {
				return nil, newError(CodeParseError, "expected ',' after field %q in header", name)
			}
			pos++
			if pos == len(body) {
				return nil, newError(CodeParseError, "trailing ',' in header").
					withDetail("specs", body)
			}
		}
	}

	return schema, nil
}

// matchBraces returns the content of the brace group opening at body[open]
// and the index just past the closing brace.
func matchBraces(body string, open int) (string, int, error) {
	depth := 0
	for i := open; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return body[open+1 : i], i + 1, nil
			}
		}
	}
	return "", 0, newError(CodeParseError, "unbalanced braces in header").
		withDetail("specs", body)
}
