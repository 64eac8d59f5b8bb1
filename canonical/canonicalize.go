// Package canonical implements the corridor canonical byte encoding and the
// content digesting built on top of it.
//
// Every invariant downstream (receipt digests, MMR roots, checkpoint
// equality, fork comparison) depends on all parties producing byte-identical
// encodings for semantically equal records. Canonicalize is therefore the
// mandatory choke point: Bytes has no other constructor, and Sum accepts
// nothing else. A component that wants a digest has no way around the
// pipeline.
package canonical

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"
)

// Bytes is the unique deterministic byte encoding of a structured value.
//
// Instances exist only as the output of Canonicalize. The zero value is
// empty and digestable, but never equal to the encoding of any value.
type Bytes struct {
	b []byte
}

// Len returns the length of the canonical encoding.
func (b Bytes) Len() int { return len(b.b) }

// Encoded returns a copy of the canonical encoding. This is the wire and
// at-rest form whenever byte-exact reproducibility matters; callers cannot
// feed the copy back into the digest path except through Canonicalize.
func (b Bytes) Encoded() []byte { return append([]byte(nil), b.b...) }

func (b Bytes) String() string { return string(b.b) }

// Canonicalize converts a structured value into its canonical encoding.
//
// Rules, applied recursively:
//   - object keys are sorted lexicographically by their exact string bytes;
//   - array element order is preserved and significant;
//   - numbers must be integral; any value representable only as a
//     non-integral float is rejected;
//   - strings pass through unchanged, except RFC 3339 date-times, which are
//     normalized to UTC, truncated to whole seconds, and rendered with a
//     literal Z suffix;
//   - output uses compact separators with no inserted whitespace.
//
// Canonicalize is pure. On error no partial output is returned.
func Canonicalize(v any) (Bytes, error) {
	enc, err := json.Marshal(v)
	if err != nil {
		return Bytes{}, wrapError(KindUnmappable, "CRC-CANON-001", "value cannot be canonicalized", err)
	}
	dec := json.NewDecoder(bytes.NewReader(enc))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return Bytes{}, wrapError(KindInternal, "CRC-CANON-010", "canonical re-decode failed", err)
	}

	var buf bytes.Buffer
	if err := render(&buf, decoded); err != nil {
		return Bytes{}, err
	}
	return Bytes{b: buf.Bytes()}, nil
}

func render(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		return renderNumber(buf, val)
	case string:
		normalized, err := normalizeTimestamp(val)
		if err != nil {
			return err
		}
		renderString(buf, normalized)
		return nil
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := render(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		// Byte-wise lexicographic; numeric-looking keys get no special treatment.
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			renderString(buf, k)
			buf.WriteByte(':')
			if err := render(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return newError(KindUnmappable, "CRC-CANON-011", "unsupported value in canonical encoding")
	}
}

// maxExactInt is the largest magnitude a float64 can hold without losing
// integer precision (2^53).
const maxExactInt = 1 << 53

func renderNumber(buf *bytes.Buffer, n json.Number) error {
	s := n.String()
	if isPlainInteger(s) {
		buf.WriteString(s)
		return nil
	}
	// Exponent or decimal-point syntax. Accept only values that are exactly
	// integral; anything else has no canonical integer form.
	f, err := n.Float64()
	if err != nil {
		return wrapError(KindFloat, "CRC-CANON-002", "unparseable numeric value", err)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return newError(KindFloat, "CRC-CANON-002", "non-integral numeric value rejected")
	}
	if math.Abs(f) > maxExactInt {
		return newError(KindFloat, "CRC-CANON-003", "integral value exceeds exact float range")
	}
	buf.WriteString(strconv.FormatInt(int64(f), 10))
	return nil
}

func isPlainInteger(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// normalizeTimestamp rewrites RFC 3339 date-time strings to UTC, whole
// seconds, literal Z suffix. Strings that are not date-time shaped pass
// through unchanged; a date-time shaped string that fails to parse is
// rejected rather than silently passed through, so no two encoders can
// disagree about whether it was normalized.
func normalizeTimestamp(s string) (string, error) {
	if !looksLikeTimestamp(s) {
		return s, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "", wrapError(KindTimestamp, "CRC-CANON-004", "malformed RFC 3339 date-time", err)
	}
	return t.UTC().Format("2006-01-02T15:04:05") + "Z", nil
}

// looksLikeTimestamp is a cheap shape check (YYYY-MM-DDTHH:MM:SS prefix)
// so arbitrary strings never pay for a full time.Parse attempt.
func looksLikeTimestamp(s string) bool {
	if len(s) < 20 {
		return false
	}
	for i, c := range []byte(s[:19]) {
		switch i {
		case 4, 7:
			if c != '-' {
				return false
			}
		case 10:
			if c != 'T' {
				return false
			}
		case 13, 16:
			if c != ':' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

const hexDigits = "0123456789abcdef"

// renderString writes a JSON string with minimal escaping: quote, backslash,
// and control characters only. Non-ASCII text passes through as UTF-8 so two
// implementations cannot disagree on optional \u escapes.
func renderString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		buf.WriteString(s[start:i])
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[c>>4])
			buf.WriteByte(hexDigits[c&0xf])
		}
		start = i + 1
	}
	buf.WriteString(s[start:])
	buf.WriteByte('"')
}

// MustCanonicalize is a helper for values that are known canonicalizable
// (e.g., literals in tests). It panics on error.
func MustCanonicalize(v any) Bytes {
	b, err := Canonicalize(v)
	if err != nil {
		panic(err)
	}
	return b
}
