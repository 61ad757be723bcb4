package scan

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// keyedLine finds "name: {...}" or name=[...] anywhere in a line, with the
// name optionally quoted.
var keyedLine = regexp.MustCompile(`(?:^|[\s,;|])"?([A-Za-z0-9_@][A-Za-z0-9_.@\-]*)"?\s*[:=]\s*([\[{].*)$`)

// TextScanner handles plain text and log files, one line at a time.
type TextScanner struct{}

func (s *TextScanner) Scan(r io.Reader, filename string, f Filter) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	doc := &Document{Title: titleFromFilename(filename)}
	row := 0
	for scanner.Scan() {
		row++
		if c, ok := scanLine(scanner.Text(), row, "line", f); ok {
			doc.Cells = append(doc.Cells, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// scanLine turns a line into a cell when it carries a selected field, or
// when auto-detecting and the line itself opens an object or array.
func scanLine(line string, row int, source string, f Filter) (Cell, bool) {
	if f.Empty() {
		return Cell{}, false
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Cell{}, false
	}

	// A line that is itself a document is never split on inner keys.
	if looksLikeJSON(trimmed) {
		if f.All() {
			return Cell{Source: source, Row: row, Text: trimmed}, true
		}
		return Cell{}, false
	}

	m := keyedLine.FindStringSubmatch(trimmed)
	if m == nil {
		return Cell{}, false
	}
	if f.All() {
		return Cell{Field: m[1], Source: source, Row: row, Text: m[2]}, true
	}
	if name, ok := f.MatchColumnID(m[1]); ok {
		return Cell{Field: name, Source: source, Row: row, Text: m[2]}, true
	}
	return Cell{}, false
}

// scanLines applies scanLine to every line of text.
func scanLines(text string, source string, f Filter) []Cell {
	var cells []Cell
	for i, line := range strings.Split(text, "\n") {
		if c, ok := scanLine(line, i+1, source, f); ok {
			cells = append(cells, c)
		}
	}
	return cells
}
