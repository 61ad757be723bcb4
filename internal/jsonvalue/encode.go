package jsonvalue

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MarshalJSON writes the value compactly, preserving key order and number text.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	writeCompact(&buf, v)
	return buf.Bytes(), nil
}

// Indent renders the value with one indent per nesting level, the same layout
// as JSON.stringify(v, null, indent). Empty containers stay on one line.
func Indent(v Value, indent string) string {
	var buf bytes.Buffer
	writeIndented(&buf, v, indent, 0)
	return buf.String()
}

// Quote returns s as a JSON string literal without HTML escaping.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// Scalar renders a non-container value as JSON text.
func (v Value) Scalar() string {
	switch v.kind {
	case Null:
		return "null"
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Number:
		return v.s
	case String:
		return Quote(v.s)
	}
	return ""
}

func writeCompact(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case Array:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCompact(buf, item)
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(Quote(m.Key))
			buf.WriteByte(':')
			writeCompact(buf, m.Value)
		}
		buf.WriteByte('}')
	default:
		buf.WriteString(v.Scalar())
	}
}

func writeIndented(buf *bytes.Buffer, v Value, indent string, depth int) {
	if !v.IsContainer() || v.Len() == 0 {
		writeCompact(buf, v)
		return
	}
	openCh, closeCh := byte('['), byte(']')
	if v.kind == Object {
		openCh, closeCh = '{', '}'
	}
	inner := strings.Repeat(indent, depth+1)
	buf.WriteByte(openCh)
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
		buf.WriteString(inner)
		if v.kind == Object {
			buf.WriteString(Quote(v.members[i].Key))
			buf.WriteString(": ")
			writeIndented(buf, v.members[i].Value, indent, depth+1)
		} else {
			writeIndented(buf, v.items[i], indent, depth+1)
		}
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indent, depth))
	buf.WriteByte(closeCh)
}
