// Package tablerows extracts label/value pairs from the question/answer
// tables produced by form-builder email exports.
//
// Rows carry a questionRow class; inside each row the questionColumn cell
// holds the label and the valueColumn cell holds the answer. Multi-select
// answers render as "pill" chips wrapped in nested tables; those flatten to
// an ordered string list, duplicates included, because repeated selection
// may be meaningful. Embedded <br> breaks become real newlines: downstream
// bullet extraction in incident narratives depends on them.
package tablerows

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const nbsp = "\u00a0"

// Pair is one table row's label and value in document order. Items is
// non-nil only when the value cell contained pill chips; it preserves chip
// order and duplicates.
type Pair struct {
	Label string
	Value string
	Items []string
}

// Parse walks an HTML body and returns its question rows in document order.
// Rows missing the label cell are skipped without error; rows missing the
// value cell keep their label with an empty value. A body that fails
// to parse at all returns the error; a body that parses but contains no
// question rows returns an empty slice; both are the caller's
// structural-malformation path, not a failure.
func Parse(body string) ([]Pair, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	walkRows(doc, &pairs)
	return pairs, nil
}

func walkRows(n *html.Node, pairs *[]Pair) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Tr && hasClass(n, "questionRow") {
		if pair, ok := extractRow(n); ok {
			*pairs = append(*pairs, pair)
		}
		return // cells of this row are consumed; chips are not rows
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkRows(c, pairs)
	}
}

func extractRow(row *html.Node) (Pair, bool) {
	labelCell := findCell(row, "questionColumn")
	if labelCell == nil {
		return Pair{}, false
	}

	label := cleanLines(collectText(labelCell, nil))
	if label == "" {
		return Pair{}, false
	}

	valueCell := findCell(row, "valueColumn")
	if valueCell == nil {
		// Unanswered questions render without a value cell in some exports;
		// the label still counts as present with an empty answer.
		return Pair{Label: strings.Join(strings.Fields(label), " ")}, true
	}

	var chipTables int
	raw := collectText(valueCell, &chipTables)
	value := cleanLines(raw)

	pair := Pair{Label: strings.Join(strings.Fields(label), " "), Value: value}
	if chipTables > 0 && value != "" {
		pair.Items = strings.Split(value, "\n")
	}
	return pair, true
}

// findCell returns the first td under row carrying the given class, without
// descending into nested tables (chip markup reuses td freely).
func findCell(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if c.DataAtom == atom.Td && hasClass(c, class) {
				return c
			}
			if c.DataAtom == atom.Table {
				continue
			}
		}
		if found := findCell(c, class); found != nil {
			return found
		}
	}
	return nil
}

// collectText gathers the text content of a cell. <br> contributes a
// newline; nested table boundaries contribute newlines so chip values
// separate cleanly. When chipTables is non-nil it counts nested tables,
// which is the structural signal for a multi-select value.
func collectText(cell *html.Node, chipTables *int) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			// Non-breaking spaces from the HTML exports read as padding.
			sb.WriteString(strings.ReplaceAll(n.Data, nbsp, " "))
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			sb.WriteByte('\n')
		case n.Type == html.ElementNode && n.DataAtom == atom.Table:
			if chipTables != nil {
				*chipTables++
			}
			sb.WriteByte('\n')
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			sb.WriteByte('\n')
			return
		case n.Type == html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := cell.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return sb.String()
}

// cleanLines trims each line, drops empties, and rejoins with single
// newlines. Internal line structure survives; runs of blank lines do not.
func cleanLines(raw string) string {
	var kept []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}
