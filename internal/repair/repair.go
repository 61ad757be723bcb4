// Package repair recovers JSON documents whose tail was cut off by a display
// limit. Each step is a pure string transform. TryRepair composes them and
// makes exactly one strict parse of the result.
//
// The engine is sound but incomplete. It only ever drops or closes trailing
// content, so it never produces a document that contradicts the prefix it was
// given. Truncation in the middle of a number, escape sequence or literal is
// not recovered.
package repair

import (
	"regexp"
	"strings"

	"github.com/dgallion1/jsonlens/internal/jsonvalue"
)

var (
	ellipsisRe = regexp.MustCompile(`(?:\.{2,}|\x{2026})$`)

	// ws is the JavaScript \s class, which covers more than RE2's \s.
	ws = `[\t\n\v\f\r \x{A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}]`

	danglingKeyRe   = regexp.MustCompile(`,?` + ws + `*"[^"]*"` + ws + `*:` + ws + `*$`)
	trailingCommaRe = regexp.MustCompile(`[, ]+$`)
)

// IsSpace reports whether r is in the ws class. Unlike unicode.IsSpace it
// accepts U+FEFF and rejects U+0085.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		0xA0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

// TryRepair reconstructs a valid document from truncated text and parses it.
// ok is false when the text does not begin like a document or the
// reconstruction still fails to parse.
func TryRepair(text string) (jsonvalue.Value, bool) {
	repaired, ok := Repair(text)
	if !ok {
		return jsonvalue.Value{}, false
	}
	v, err := jsonvalue.ParseString(repaired)
	if err != nil {
		return jsonvalue.Value{}, false
	}
	return v, true
}

// Repair runs every cleanup step and returns the reconstructed text without
// parsing it. ok is false only when the text does not start with { or [.
func Repair(text string) (string, bool) {
	if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		return "", false
	}
	s := StripEllipsis(text)
	s = CloseString(s)
	s = Truncate(s, TruncationPoint(s))
	s = StripDanglingKey(s)
	return CloseBrackets(s), true
}

// StripEllipsis removes a trailing run of two or more dots, or a single
// ellipsis character.
func StripEllipsis(s string) string {
	return ellipsisRe.ReplaceAllString(s, "")
}

// CloseString appends a quote when s ends inside a string literal.
func CloseString(s string) string {
	if scan(s, nil).inString {
		return s + `"`
	}
	return s
}

// TruncationPoint returns the index of the last opening bracket, or of the
// last comma nested inside a container, that lies outside any string. It
// returns -1 when there is none.
func TruncationPoint(s string) int {
	last := -1
	depth := 0
	scan(s, func(i int, c byte) {
		switch c {
		case '{', '[':
			depth++
			last = i
		case '}', ']':
			depth--
		case ',':
			if depth > 0 {
				last = i
			}
		}
	})
	return last
}

// Truncate cuts s before index and drops any commas or spaces left dangling.
// An index of zero or less leaves s unchanged.
func Truncate(s string, index int) string {
	if index <= 0 || index > len(s) {
		return s
	}
	return trailingCommaRe.ReplaceAllString(s[:index], "")
}

// StripDanglingKey removes a trailing `"key":` that never received a value,
// together with its leading comma.
func StripDanglingKey(s string) string {
	return danglingKeyRe.ReplaceAllString(s, "")
}

// CloseBrackets appends the closers for every container still open at the end
// of s, innermost first. Any closer pops the stack, matching or not.
func CloseBrackets(s string) string {
	var stack []byte
	scan(s, func(_ int, c byte) {
		switch c {
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	})
	if len(stack) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(stack))
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
