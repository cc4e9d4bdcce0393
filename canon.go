package toon

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NullHandling selects how null/absent values are written.
type NullHandling uint8

const (
	// NullEmpty emits nothing between delimiters (the default).
	NullEmpty NullHandling = iota
	// NullLiteral emits the literal token "null".
	NullLiteral
	// NullSkip is wire-identical to NullEmpty. The distinction exists only
	// at the API level; the decoder cannot tell the two apart.
	NullSkip
)

// DateFormat selects how date values are written.
type DateFormat uint8

const (
	// DateISO8601 writes RFC 3339 / ISO-8601 text (the default).
	DateISO8601 DateFormat = iota
	// DateUnixSeconds writes Unix epoch seconds.
	DateUnixSeconds
	// DateCustom delegates to EncodeOptions.FormatDate.
	DateCustom
)

// EscapeStrategy selects how strings containing structural characters are
// protected. All three strategies have matching decode paths.
type EscapeStrategy uint8

const (
	// EscapeQuotes wraps in double quotes, doubling internal quotes and
	// escaping line breaks as \n and \r (the default and the format's
	// canonical strategy).
	EscapeQuotes EscapeStrategy = iota
	// EscapeBackslash backslash-escapes structural characters.
	EscapeBackslash
	// EscapeURL percent-encodes the whole value.
	EscapeURL
)

// needsEscape reports whether a bare string would corrupt the row. Beyond
// the delimiter, quote and line breaks, bracket and brace characters must
// be protected because the row splitter tracks nesting depth through them.
// Keyword-like and numeric-looking strings are escaped too, so a decode
// with type coercion enabled cannot turn them into non-string values.
func needsEscape(s string) bool {
	// The empty string must stay distinguishable from null, which is
	// written as a bare empty cell.
	if s == "" {
		return true
	}
	return strings.ContainsAny(s, ",\"\n\r[]{}") ||
		s == "null" || s == "true" || s == "false" ||
		looksNumeric(s) ||
		(len(s) > 0 && (s[0] == ' ' || s[len(s)-1] == ' '))
}

// looksNumeric reports whether a bare token parses as a number.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// escapeString protects a string value using the given strategy.
func escapeString(s string, strategy EscapeStrategy) string {
	switch strategy {
	case EscapeBackslash:
		var b strings.Builder
		b.Grow(len(s) + 8)
		for i := 0; i < len(s); i++ {
			switch c := s[i]; c {
			case '\\':
				b.WriteString(`\\`)
			case ',':
				b.WriteString(`\,`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '"':
				b.WriteString(`\"`)
			case '[', ']', '{', '}':
				b.WriteByte('\\')
				b.WriteByte(c)
			case ' ':
				// Edge spaces are written as \s so they survive the line
				// trim on decode.
				if i == 0 || i == len(s)-1 {
					b.WriteString(`\s`)
				} else {
					b.WriteByte(c)
				}
			default:
				b.WriteByte(c)
			}
		}
		return b.String()
	case EscapeURL:
		return url.QueryEscape(s)
	default:
		// Quote wrapping with doubled internal quotes. Line breaks and
		// backslashes are written as \n, \r and \\ so a row never spans
		// physical lines; the quoted-cell reader reverses them.
		var b strings.Builder
		b.Grow(len(s) + 4)
		b.WriteByte('"')
		for i := 0; i < len(s); i++ {
			switch c := s[i]; c {
			case '"':
				b.WriteString(`""`)
			case '\\':
				b.WriteString(`\\`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			default:
				b.WriteByte(c)
			}
		}
		b.WriteByte('"')
		return b.String()
	}
}

// canonString returns the cell form of a string value.
func canonString(s string, strategy EscapeStrategy) string {
	if !needsEscape(s) {
		return s
	}
	return escapeString(s, strategy)
}

// canonNumber returns the canonical number representation: integral values
// in plain decimal, everything else in shortest round-trip float form.
func canonNumber(v any) string {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int8:
		return strconv.FormatInt(int64(n), 10)
	case int16:
		return strconv.FormatInt(int64(n), 10)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint:
		return strconv.FormatUint(uint64(n), 10)
	case uint8:
		return strconv.FormatUint(uint64(n), 10)
	case uint16:
		return strconv.FormatUint(uint64(n), 10)
	case uint32:
		return strconv.FormatUint(uint64(n), 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float32:
		return canonFloat(float64(n))
	case float64:
		return canonFloat(n)
	}
	return ""
}

func canonFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// canonBool returns "true" or "false".
func canonBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// canonDate formats a date value per the configured format.
func canonDate(t time.Time, format DateFormat, custom func(time.Time) string) string {
	switch format {
	case DateUnixSeconds:
		return strconv.FormatInt(t.Unix(), 10)
	case DateCustom:
		if custom != nil {
			return custom(t)
		}
		return t.UTC().Format(time.RFC3339)
	default:
		return t.UTC().Format(time.RFC3339)
	}
}
