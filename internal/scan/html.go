package scan

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// contentSelectors are the value wrappers used across Kibana versions, in
// the order they are tried.
var contentSelectors = []func(*html.Node) bool{
	hasClass("euiDataGridRowCell__content"),
	hasClass("unifiedDataTable__cellValue"),
	hasClass("euiDataGridRowCell__truncate"),
	hasClass("dscDiscoverGrid__cellValue"),
	hasClass("kbnDocViewer__value"),
	hasClass("truncate-by-height"),
	classContains("cellValue"),
	classContains("cellContent"),
}

// HTMLScanner handles saved Kibana pages and plain HTML tables.
type HTMLScanner struct{}

func (s *HTMLScanner) Scan(r io.Reader, filename string, f Filter) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{Title: titleFromFilename(filename)}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}
	if f.Empty() {
		return doc, nil
	}

	c := &htmlCollector{seen: make(map[*html.Node]bool), filter: f}
	if f.All() {
		c.autoDetect(root)
	} else {
		c.byColumnID(root)
		c.docViewer(root)
		c.gridByPosition(root)
		c.tables(root)
	}
	doc.Cells = c.cells
	return doc, nil
}

type htmlCollector struct {
	filter Filter
	seen   map[*html.Node]bool
	cells  []Cell
}

// emit records el once, however many strategies reach it.
func (c *htmlCollector) emit(el *html.Node, field, source string, row int) {
	if c.seen[el] {
		return
	}
	c.seen[el] = true
	c.cells = append(c.cells, Cell{Field: field, Source: source, Row: row, Text: textContent(el)})
}

func (c *htmlCollector) emitCell(cell *html.Node, field, source string, row int) {
	c.emit(contentElement(cell), field, source, row)
}

func (c *htmlCollector) autoDetect(root *html.Node) {
	for i, cell := range findAll(root, hasAttr("role", "gridcell")) {
		c.emitCell(cell, "", "html:gridcell", i+1)
	}
	for _, table := range findAll(root, isTag("table")) {
		for i, cell := range findAll(table, isTag("td")) {
			c.emitCell(cell, "", "html:table", i+1)
		}
	}
	for i, el := range findAll(root, hasClass("kbnDocViewer__value")) {
		c.emit(el, "", "html:docviewer", i+1)
	}
}

// byColumnID selects data grid cells whose column id matches a field,
// either directly or through the text of its header.
func (c *htmlCollector) byColumnID(root *html.Node) {
	fields := make(map[string]string)
	for _, name := range c.filter.Names() {
		fields[name] = name
	}
	headers := findAll(root, func(n *html.Node) bool {
		return attr(n, "data-gridcell-column-id") != "" || attr(n, "role") == "columnheader"
	})
	for _, h := range headers {
		id := attr(h, "data-gridcell-column-id")
		if id == "" {
			continue
		}
		if name, ok := c.filter.MatchColumnID(id); ok {
			fields[id] = name
		} else if name, ok := c.filter.MatchHeader(textContent(h)); ok {
			fields[id] = name
		}
	}

	rows := make(map[string]int)
	for _, cell := range findAll(root, func(n *html.Node) bool { return attr(n, "data-gridcell-column-id") != "" }) {
		if attr(cell, "role") == "columnheader" {
			continue
		}
		id := attr(cell, "data-gridcell-column-id")
		name, ok := fields[id]
		if !ok {
			continue
		}
		rows[id]++
		c.emitCell(cell, name, "html:gridcell", rows[id])
	}
}

// docViewer selects rows of the document flyout by their test subject.
func (c *htmlCollector) docViewer(root *html.Node) {
	for _, name := range c.filter.Names() {
		marker := "tableDocViewRow-" + name
		rows := findAll(root, func(n *html.Node) bool {
			return strings.Contains(attr(n, "data-test-subj"), marker)
		})
		for i, row := range rows {
			value := findFirst(row, func(n *html.Node) bool {
				return hasClass("kbnDocViewer__value")(n) || classContains("value")(n)
			})
			if value == nil {
				value = row
			}
			c.emit(value, name, "html:docviewer", i+1)
		}
	}
}

func isGridHeaderCell(n *html.Node) bool {
	return attr(n, "role") == "columnheader" || hasClass("euiDataGridHeaderCell")(n)
}

// gridByPosition matches ARIA grid headers and takes the cells at the same
// index in every data row.
func (c *htmlCollector) gridByPosition(root *html.Node) {
	headerRow := findFirst(root, func(n *html.Node) bool {
		return (attr(n, "role") == "row" && findFirst(n, hasAttr("role", "columnheader")) != nil) ||
			hasClass("euiDataGridHeader")(n)
	})
	if headerRow == nil {
		return
	}

	targets := c.headerTargets(findAll(headerRow, isGridHeaderCell))
	if len(targets) == 0 {
		return
	}

	dataRows := findAll(root, func(n *html.Node) bool {
		return (attr(n, "role") == "row" && findFirst(n, hasAttr("role", "columnheader")) == nil) ||
			hasClass("euiDataGridRow")(n)
	})
	isCell := func(n *html.Node) bool {
		return attr(n, "role") == "gridcell" || hasClass("euiDataGridRowCell")(n)
	}
	for i, row := range dataRows {
		c.emitAt(findAll(row, isCell), targets, "html:grid", i+1)
	}
}

// tables applies the header matching to classic HTML tables.
func (c *htmlCollector) tables(root *html.Node) {
	for _, table := range findAll(root, isTag("table")) {
		headerRow := findFirst(table, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "tr" &&
				(hasAncestor(n, table, "thead") || isFirstElementChild(n))
		})
		if headerRow == nil {
			continue
		}
		targets := c.headerTargets(findAll(headerRow, func(n *html.Node) bool {
			return isTag("th")(n) || isTag("td")(n)
		}))
		if len(targets) == 0 {
			continue
		}

		dataRows := findAll(table, func(n *html.Node) bool {
			return isTag("tr")(n) && n != headerRow && hasAncestor(n, table, "tbody")
		})
		if len(dataRows) == 0 {
			for _, row := range findAll(table, isTag("tr")) {
				if row != headerRow {
					dataRows = append(dataRows, row)
				}
			}
		}
		for i, row := range dataRows {
			c.emitAt(findAll(row, isTag("td")), targets, "html:table", i+1)
		}
	}
}

type columnTarget struct {
	index int
	field string
}

func (c *htmlCollector) headerTargets(headers []*html.Node) []columnTarget {
	var targets []columnTarget
	for i, h := range headers {
		if name, ok := c.filter.MatchHeader(textContent(h)); ok {
			targets = append(targets, columnTarget{index: i, field: name})
		}
	}
	return targets
}

func (c *htmlCollector) emitAt(cells []*html.Node, targets []columnTarget, source string, row int) {
	for _, t := range targets {
		if t.index < len(cells) {
			c.emitCell(cells[t.index], t.field, source, row)
		}
	}
}

// contentElement picks the element inside cell that holds the value text.
func contentElement(cell *html.Node) *html.Node {
	for _, sel := range contentSelectors {
		if el := findFirst(cell, sel); el != nil {
			return el
		}
	}

	isSpanOrDiv := func(n *html.Node) bool { return isTag("span")(n) || isTag("div")(n) }
	for _, el := range findAll(cell, isSpanOrDiv) {
		if !looksLikeJSON(textContent(el)) {
			continue
		}
		if findFirst(el, isSpanOrDiv) == nil {
			return el
		}
	}
	return cell
}

// findAll returns the descendants of n matching pred, in document order.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if pred(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// findFirst returns the first descendant of n matching pred.
func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			return c
		}
		if m := findFirst(c, pred); m != nil {
			return m
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	if n.Type != html.ElementNode {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag }
}

func hasAttr(key, val string) func(*html.Node) bool {
	return func(n *html.Node) bool { return attr(n, key) == val }
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func classContains(sub string) func(*html.Node) bool {
	return func(n *html.Node) bool { return strings.Contains(attr(n, "class"), sub) }
}

// hasAncestor reports whether n has a tag ancestor below stop.
func hasAncestor(n, stop *html.Node, tag string) bool {
	for p := n.Parent; p != nil && p != stop; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

func isFirstElementChild(n *html.Node) bool {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return false
		}
	}
	return true
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
