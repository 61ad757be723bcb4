// Package scan finds candidate JSON cells in uploaded documents. Each
// format has its own Scanner; all of them select cells through a Filter
// built from the configured field names.
package scan

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Cell is one piece of text that may hold a JSON document.
type Cell struct {
	Field  string `json:"field,omitempty"`  // configured name that selected the cell
	Source string `json:"source"`           // strategy or format that found it
	Row    int    `json:"row"`              // 1-based row or line, 0 when unknown
	Text   string `json:"text"`
}

// Document is the result of scanning one file.
type Document struct {
	Title string `json:"title"`
	Cells []Cell `json:"cells"`
}

// Scanner extracts candidate cells from raw document bytes.
type Scanner interface {
	Scan(r io.Reader, filename string, f Filter) (*Document, error)
}

// Options tune format-specific behavior.
type Options struct {
	FallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".log":      true,
	".ndjson":   true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate scanner for a filename.
func ForFile(filename string, opts Options) (Scanner, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".log", ".ndjson":
		return &TextScanner{}, nil
	case ".md", ".markdown":
		return &MarkdownScanner{}, nil
	case ".csv":
		return &CSVScanner{}, nil
	case ".html", ".htm":
		return &HTMLScanner{}, nil
	case ".pdf":
		return &PDFScanner{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXScanner{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
