// Package source loads the ranking page and extracts its table rows.
package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FallbackSelector is tried when the configured selector matches nothing.
const FallbackSelector = "table tbody tr"

// ParseRows returns the trimmed text of every td cell, per row, for rows
// matched by selector. Rows without td cells (headers) are dropped.
// ErrTableNotFound is returned when neither selector nor the fallback
// matches a row with cells.
func ParseRows(html []byte, selector string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	for _, sel := range candidates(selector) {
		if rows := collect(doc.Find(sel)); len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("%w: selector %q", ErrTableNotFound, selector)
}

func candidates(selector string) []string {
	if selector == "" || selector == FallbackSelector {
		return []string{FallbackSelector}
	}
	return []string{selector, FallbackSelector}
}

func collect(trs *goquery.Selection) [][]string {
	var rows [][]string
	trs.Each(func(_ int, tr *goquery.Selection) {
		tds := tr.ChildrenFiltered("td")
		if tds.Length() == 0 {
			return
		}
		cells := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, cells)
	})
	return rows
}
