// Package table reconstructs logical line-item rows from positioned PDF word
// tokens. It locates the fixed column headers, derives horizontal column
// boundaries from their positions, groups tokens into visual lines, and folds
// the lines into records, merging titles that wrap across multiple lines.
package table

import (
	"errors"
	"sort"
	"strings"

	"github.com/quadra/itemx/internal/models"
)

// ErrHeaderNotFound is returned when no page of the document carries the
// required column header labels.
var ErrHeaderNotFound = errors.New("table: column headers not found")

// ErrEmptyDocument is returned when headers were located but no data rows
// followed them. The accompanying table is empty; callers treat this as a
// "no data" result rather than a failure.
var ErrEmptyDocument = errors.New("table: no records found")

// Defaults for the empirically tuned extraction constants. They come from a
// corpus of real estimate documents and can be overridden per reconstructor.
const (
	defaultLineOverlap    = 0.5
	defaultColumnGap      = 2.0
	defaultMinColumnWidth = 10.0
)

// defaultSummaryAnchors mark the summary line that ends the item area when it
// appears near the left margin below the data rows.
var defaultSummaryAnchors = []string{"Troca / R&I", "Troca/R&I"}

// Reconstructor extracts a table of records from a document's token stream.
// Extraction is a pure function of its input: a reconstructor holds only
// configuration and is safe for concurrent use across documents.
type Reconstructor struct {
	lineOverlap    float64
	columnGap      float64
	minColumnWidth float64
	summaryAnchors []string
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithLineOverlap sets the vertical-overlap fraction above which two tokens
// are judged to lie on the same visual line.
func WithLineOverlap(fraction float64) Option {
	return func(r *Reconstructor) { r.lineOverlap = fraction }
}

// WithColumnGap sets the slack subtracted from the first column's left edge.
func WithColumnGap(gap float64) Option {
	return func(r *Reconstructor) { r.columnGap = gap }
}

// WithMinColumnWidth sets the minimum width enforced on each column interval.
func WithMinColumnWidth(width float64) Option {
	return func(r *Reconstructor) { r.minColumnWidth = width }
}

// WithSummaryAnchors sets the labels whose appearance near the left margin
// ends the item area. Pass an empty slice to disable the stop anchor.
func WithSummaryAnchors(anchors []string) Option {
	return func(r *Reconstructor) { r.summaryAnchors = anchors }
}

// NewReconstructor returns a reconstructor with corpus-validated defaults.
func NewReconstructor(opts ...Option) *Reconstructor {
	r := &Reconstructor{
		lineOverlap:    defaultLineOverlap,
		columnGap:      defaultColumnGap,
		minColumnWidth: defaultMinColumnWidth,
		summaryAnchors: defaultSummaryAnchors,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extract reconstructs the table from the document's tokens. Pages are
// processed independently in page order; a page without a detectable header
// contributes zero records, and ErrHeaderNotFound is returned only when no
// page yields one. ErrEmptyDocument is returned (with an empty table) when
// headers were found but no data rows produced records.
func (r *Reconstructor) Extract(tokens []models.Token) (models.Table, error) {
	var table models.Table
	headerFound := false
	for _, pageTokens := range splitPages(tokens) {
		if r.extractPage(pageTokens, &table) {
			headerFound = true
		}
	}
	if !headerFound {
		return models.Table{}, ErrHeaderNotFound
	}
	if table.Len() == 0 {
		return models.Table{}, ErrEmptyDocument
	}
	return table, nil
}

// extractPage appends the page's records to the table and reports whether
// the page carried a header.
func (r *Reconstructor) extractPage(tokens []models.Token, table *models.Table) bool {
	pageRight := 0.0
	for _, tok := range tokens {
		if tok.Right > pageRight {
			pageRight = tok.Right
		}
	}

	cols, ok := r.locateHeader(tokens, pageRight)
	if !ok {
		return false
	}

	stopTop := r.summaryStopTop(tokens, pageRight, cols.headerBottom)
	var data []models.Token
	for _, tok := range tokens {
		if tok.Top > cols.headerBottom && tok.Top < stopTop {
			data = append(data, tok)
		}
	}

	// Fold over the ordered lines carrying the currently open record.
	var open *models.Record
	for _, line := range r.groupLines(data) {
		f := line.fields(cols)
		switch {
		case f.itemStart():
			if open != nil {
				table.Append(*open)
			}
			open = &models.Record{Quantity: f.quantity, Code: f.code, Title: f.title}
		case f.empty():
			// Nothing in any column; skip.
		case open != nil:
			open.Title = strings.TrimSpace(open.Title + " " + f.title)
		default:
			// Continuation with no open record cannot belong to any item.
		}
	}
	if open != nil {
		table.Append(*open)
	}
	return true
}

// summaryStopTop returns the top coordinate of the highest summary-anchor
// line found in the left fifth of the page below the header, or +Inf-like
// max when none is present.
func (r *Reconstructor) summaryStopTop(tokens []models.Token, pageRight, headerBottom float64) float64 {
	const margin = 2.0
	stop := maxFloat
	for _, tok := range tokens {
		if tok.Top <= headerBottom || tok.Left >= pageRight*0.20 {
			continue
		}
		for _, anchor := range r.summaryAnchors {
			if strings.Contains(strings.ToUpper(tok.Text), strings.ToUpper(anchor)) {
				if tok.Top-margin < stop {
					stop = tok.Top - margin
				}
				break
			}
		}
	}
	return stop
}

const maxFloat = 1e18

// splitPages partitions tokens by page index, pages in ascending order,
// original token order preserved within a page.
func splitPages(tokens []models.Token) [][]models.Token {
	byPage := make(map[int][]models.Token)
	for _, tok := range tokens {
		byPage[tok.Page] = append(byPage[tok.Page], tok)
	}
	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	out := make([][]models.Token, 0, len(pages))
	for _, p := range pages {
		out = append(out, byPage[p])
	}
	return out
}
