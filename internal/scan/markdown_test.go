package scan

import (
	"strings"
	"testing"
)

const markdownReport = "# Incident 4711\n\n" +
	"Log excerpt below.\n\n" +
	"| time | message |\n" +
	"|------|---------|\n" +
	"| 10:00 | {\"level\":\"info\"} |\n" +
	"| 10:01 | {\"level\":\"warn\",\"msg\":\"cut |\n\n" +
	"```json\n{\"raw\": [1, 2]}\n```\n\n" +
	"```\nnot tagged\n```\n"

func TestMarkdownScanner_TableColumns(t *testing.T) {
	doc, err := (&MarkdownScanner{}).Scan(strings.NewReader(markdownReport), "incident.md", NewFilter([]string{"message"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Incident 4711" {
		t.Errorf("expected heading title, got %q", doc.Title)
	}
	if len(doc.Cells) != 2 {
		t.Fatalf("expected 2 cells, got %+v", doc.Cells)
	}
	if doc.Cells[0].Text != `{"level":"info"}` || doc.Cells[0].Row != 1 || doc.Cells[0].Field != "message" {
		t.Errorf("unexpected first cell %+v", doc.Cells[0])
	}
	if doc.Cells[1].Text != `{"level":"warn","msg":"cut` {
		t.Errorf("unexpected second cell %+v", doc.Cells[1])
	}
}

func TestMarkdownScanner_AutoDetectIncludesJSONCodeBlocks(t *testing.T) {
	doc, err := (&MarkdownScanner{}).Scan(strings.NewReader(markdownReport), "incident.md", NewFilter([]string{"all"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Cells) != 3 {
		t.Fatalf("expected 3 cells, got %+v", doc.Cells)
	}
	code := doc.Cells[2]
	if code.Source != "markdown:code" || strings.TrimSpace(code.Text) != `{"raw": [1, 2]}` {
		t.Errorf("unexpected code cell %+v", code)
	}
	if doc.Cells[0].Field != "message" {
		t.Errorf("expected header as field, got %q", doc.Cells[0].Field)
	}
}

func TestMarkdownScanner_NoTables(t *testing.T) {
	doc, err := (&MarkdownScanner{}).Scan(strings.NewReader("Just prose.\n"), "notes.md", NewFilter([]string{"message"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected filename title, got %q", doc.Title)
	}
	if len(doc.Cells) != 0 {
		t.Errorf("expected no cells, got %+v", doc.Cells)
	}
}
