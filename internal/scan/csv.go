package scan

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVScanner handles CSV exports. The first row is the header.
type CSVScanner struct{}

func (s *CSVScanner) Scan(r io.Reader, filename string, f Filter) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{Title: titleFromFilename(filename)}
	if len(records) == 0 || f.Empty() {
		return doc, nil
	}

	headers := records[0]
	fields := make(map[int]string)
	if !f.All() {
		for i, h := range headers {
			if name, ok := f.MatchColumn(h); ok {
				fields[i] = name
			}
		}
		if len(fields) == 0 {
			return doc, nil
		}
	}

	for i, row := range records[1:] {
		for j, cell := range row {
			var field string
			if f.All() {
				if !looksLikeJSON(cell) {
					continue
				}
				if j < len(headers) {
					field = headers[j]
				}
			} else {
				name, ok := fields[j]
				if !ok {
					continue
				}
				field = name
			}
			doc.Cells = append(doc.Cells, Cell{
				Field:  field,
				Source: "csv",
				Row:    i + 2, // 1-indexed, after the header
				Text:   cell,
			})
		}
	}
	return doc, nil
}
