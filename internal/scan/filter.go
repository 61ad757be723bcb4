package scan

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// AllKeyword in a field list switches to auto-detection of every cell.
const AllKeyword = "all"

// Filter decides which columns, headers and keys are of interest.
type Filter struct {
	names []string
	all   bool
}

// NewFilter builds a filter from configured field names. Blank names are
// ignored.
func NewFilter(names []string) Filter {
	var f Filter
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if strings.EqualFold(n, AllKeyword) {
			f.all = true
		}
		f.names = append(f.names, n)
	}
	return f
}

// All reports whether auto-detection was requested.
func (f Filter) All() bool { return f.all }

// Empty reports whether the filter can match nothing.
func (f Filter) Empty() bool { return len(f.names) == 0 }

// Names returns the configured names.
func (f Filter) Names() []string { return append([]string(nil), f.names...) }

// MatchColumnID returns the field that selects a column id. Ids match when
// equal to a name or ending with it, or through a glob.
func (f Filter) MatchColumnID(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, n := range f.names {
		if id == n || strings.HasSuffix(id, n) || globMatch(n, id) {
			return n, true
		}
	}
	return "", false
}

// MatchHeader returns the field that selects a column by its header text.
// Headers match when equal to a name or containing it, or through a glob.
func (f Filter) MatchHeader(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	for _, n := range f.names {
		if text == n || strings.Contains(text, n) || globMatch(n, text) {
			return n, true
		}
	}
	return "", false
}

// MatchColumn accepts either a column id or a header text match.
func (f Filter) MatchColumn(s string) (string, bool) {
	if n, ok := f.MatchColumnID(s); ok {
		return n, true
	}
	return f.MatchHeader(s)
}

func globMatch(pattern, name string) bool {
	if !strings.ContainsAny(pattern, "*?[{") {
		return false
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// looksLikeJSON is the auto-detect test: trimmed text opens an object or
// array.
func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}
