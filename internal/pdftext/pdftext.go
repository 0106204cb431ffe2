// Package pdftext acquires positioned word tokens from PDF documents.
//
// It uses ledongthuc/pdf (pure Go, no CGO) to read the embedded text layer.
// Scanned (image-only) PDFs carry no text layer and yield no tokens. The
// glyph runs the library reports are assembled into words and their bottom-up
// PDF coordinates flipped into the top-down system the table reconstructor
// expects.
package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/quadra/itemx/internal/models"
)

// wordSpaceMultiplier scales the font size into the horizontal gap above
// which two glyph runs on the same baseline belong to separate words.
const wordSpaceMultiplier = 0.3

// baselineTolerance is the vertical distance within which glyph runs are
// considered to share a baseline.
const baselineTolerance = 2.0

// defaultPageHeight is the US Letter height in points, used when a page
// carries no usable MediaBox.
const defaultPageHeight = 792.0

// ReadFile reads the PDF at path and returns its word tokens in page order.
func ReadFile(path string) ([]models.Token, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Read(content)
}

// Read parses PDF content and returns its word tokens in page order.
// Pages whose text layer cannot be decoded are skipped.
func Read(content []byte) ([]models.Token, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	var tokens []models.Token
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		tokens = append(tokens, pageTokens(page, i)...)
	}
	return tokens, nil
}

// PageCount returns the number of pages in the PDF content.
func PageCount(content []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("open PDF: %w", err)
	}
	return r.NumPage(), nil
}

// pageTokens extracts the page's glyph runs and assembles them into words.
func pageTokens(page pdf.Page, pageIndex int) []models.Token {
	defer func() {
		// Malformed content streams can panic inside the parser; treat the
		// page as contributing no tokens.
		_ = recover()
	}()

	texts := page.Content().Text
	if len(texts) == 0 {
		return nil
	}
	height := pageHeight(page)

	rows := groupBaselines(texts)
	var tokens []models.Token
	for _, row := range rows {
		tokens = append(tokens, assembleWords(row, height, pageIndex)...)
	}
	return tokens
}

// pageHeight returns the page height from the MediaBox, or the US Letter
// default when the box is missing or malformed.
func pageHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Kind() != pdf.Array || box.Len() != 4 {
		return defaultPageHeight
	}
	y0 := box.Index(1).Float64()
	y1 := box.Index(3).Float64()
	if y1 <= y0 {
		return defaultPageHeight
	}
	return y1 - y0
}

// groupBaselines buckets glyph runs by baseline Y and orders each bucket
// left to right. Buckets are returned top of page first (descending Y in
// PDF coordinates).
func groupBaselines(texts []pdf.Text) [][]pdf.Text {
	var rows [][]pdf.Text
	var rowY []float64
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" && t.S != " " {
			continue
		}
		placed := false
		for i, y := range rowY {
			if abs(t.Y-y) < baselineTolerance {
				rows[i] = append(rows[i], t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, []pdf.Text{t})
			rowY = append(rowY, t.Y)
		}
	}
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return rowY[order[a]] > rowY[order[b]] })
	ordered := make([][]pdf.Text, 0, len(rows))
	for _, i := range order {
		row := rows[i]
		sort.SliceStable(row, func(a, b int) bool { return row[a].X < row[b].X })
		ordered = append(ordered, row)
	}
	return ordered
}

// assembleWords merges adjacent glyph runs on one baseline into word tokens.
// A gap wider than wordSpaceMultiplier of the font size, or an explicit
// space glyph, ends the current word.
func assembleWords(row []pdf.Text, pageHeight float64, pageIndex int) []models.Token {
	var tokens []models.Token
	var word strings.Builder
	var left, right, top, bottom float64

	flush := func() {
		text := strings.TrimSpace(word.String())
		if text != "" {
			tokens = append(tokens, models.Token{
				Text:   text,
				Left:   left,
				Right:  right,
				Top:    top,
				Bottom: bottom,
				Page:   pageIndex,
			})
		}
		word.Reset()
	}

	for _, t := range row {
		isSpace := strings.TrimSpace(t.S) == ""
		if word.Len() > 0 {
			gap := t.X - right
			threshold := wordSpaceMultiplier * t.FontSize
			if threshold <= 0 {
				threshold = 1.0
			}
			if isSpace || gap > threshold {
				flush()
			}
		}
		if isSpace {
			continue
		}
		if word.Len() == 0 {
			left = t.X
			right = t.X + t.W
			top = pageHeight - t.Y - t.FontSize
			bottom = pageHeight - t.Y
		} else {
			if t.X+t.W > right {
				right = t.X + t.W
			}
			if y := pageHeight - t.Y - t.FontSize; y < top {
				top = y
			}
			if y := pageHeight - t.Y; y > bottom {
				bottom = y
			}
		}
		word.WriteString(t.S)
	}
	flush()
	return tokens
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
