package scan

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownScanner handles Markdown files using goldmark with GFM tables.
type MarkdownScanner struct{}

func (s *MarkdownScanner) Scan(r io.Reader, filename string, f Filter) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	doc := &Document{Title: titleFromFilename(filename)}
	if f.Empty() {
		return doc, nil
	}

	blocks := 0
	titled := false
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if !titled && node.Level == 1 {
				doc.Title = strings.TrimSpace(inlineText(node, src))
				titled = true
			}
		case *east.Table:
			doc.Cells = append(doc.Cells, scanMarkdownTable(node, src, f)...)
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			blocks++
			lang := strings.ToLower(string(node.Language(src)))
			if f.All() && (lang == "json" || lang == "jsonc") {
				doc.Cells = append(doc.Cells, Cell{
					Source: "markdown:code",
					Row:    blocks,
					Text:   blockText(node, src),
				})
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func scanMarkdownTable(table *east.Table, src []byte, f Filter) []Cell {
	var headers []string
	var rows [][]string
	for n := table.FirstChild(); n != nil; n = n.NextSibling() {
		var cells []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*east.TableCell); ok {
				cells = append(cells, cellText(c, src))
			}
		}
		switch n.(type) {
		case *east.TableHeader:
			headers = cells
		case *east.TableRow:
			rows = append(rows, cells)
		}
	}

	var targets []columnTarget
	if !f.All() {
		for i, h := range headers {
			if name, ok := f.MatchColumn(h); ok {
				targets = append(targets, columnTarget{index: i, field: name})
			}
		}
	}

	var out []Cell
	for i, row := range rows {
		if f.All() {
			for j, v := range row {
				if !looksLikeJSON(v) {
					continue
				}
				var field string
				if j < len(headers) {
					field = headers[j]
				}
				out = append(out, Cell{Field: field, Source: "markdown:table", Row: i + 1, Text: v})
			}
			continue
		}
		for _, t := range targets {
			if t.index < len(row) {
				out = append(out, Cell{Field: t.field, Source: "markdown:table", Row: i + 1, Text: row[t.index]})
			}
		}
	}
	return out
}

// cellText prefers the raw source of a cell, so JSON escapes survive
// inline parsing.
func cellText(n ast.Node, src []byte) string {
	if n.Lines().Len() > 0 {
		return strings.ReplaceAll(strings.TrimSpace(blockText(n, src)), `\|`, "|")
	}
	return strings.TrimSpace(inlineText(n, src))
}

func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return buf.String()
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
