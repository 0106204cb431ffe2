package table

import (
	"sort"
	"strings"

	"github.com/quadra/itemx/internal/models"
)

// rawLine groups tokens judged to lie on the same visual text line.
type rawLine struct {
	top    float64
	bottom float64
	order  int // insertion order, breaks ties when tops are equal
	tokens []models.Token
}

// overlaps reports whether the token's vertical extent overlaps the line's
// band by more than the given fraction of the smaller of the two heights.
// Printed lines can carry slightly different token baselines from kerning,
// so exact equality is never required.
func (l *rawLine) overlaps(tok models.Token, fraction float64) bool {
	top := l.top
	if tok.Top > top {
		top = tok.Top
	}
	bottom := l.bottom
	if tok.Bottom < bottom {
		bottom = tok.Bottom
	}
	overlap := bottom - top
	if overlap <= 0 {
		return false
	}
	ref := l.bottom - l.top
	if h := tok.Height(); h < ref {
		ref = h
	}
	if ref <= 0 {
		return false
	}
	return overlap/ref > fraction
}

func (l *rawLine) add(tok models.Token) {
	if tok.Top < l.top {
		l.top = tok.Top
	}
	if tok.Bottom > l.bottom {
		l.bottom = tok.Bottom
	}
	l.tokens = append(l.tokens, tok)
}

// groupLines groups tokens into raw lines ordered top to bottom. Tokens are
// assigned to the first existing line whose band they overlap; token order
// within a line is preserved for stable ties.
func (r *Reconstructor) groupLines(tokens []models.Token) []*rawLine {
	var lines []*rawLine
	for _, tok := range tokens {
		if strings.TrimSpace(tok.Text) == "" {
			continue
		}
		placed := false
		for _, line := range lines {
			if line.overlaps(tok, r.lineOverlap) {
				line.add(tok)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, &rawLine{
				top:    tok.Top,
				bottom: tok.Bottom,
				order:  len(lines),
				tokens: []models.Token{tok},
			})
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].top != lines[j].top {
			return lines[i].top < lines[j].top
		}
		return lines[i].order < lines[j].order
	})
	return lines
}

// lineFields holds the per-column text assembled from one raw line.
type lineFields struct {
	quantity string
	code     string
	title    string
}

func (f lineFields) empty() bool {
	return f.quantity == "" && f.code == "" && f.title == ""
}

// itemStart reports whether the line opens a new record.
func (f lineFields) itemStart() bool {
	return f.quantity != "" || f.code != ""
}

// fields assigns each of the line's tokens to the column whose interval
// contains its horizontal center, left to right; tokens outside every
// interval are dropped. Same-column tokens are joined by single spaces.
func (l *rawLine) fields(cols *columnSet) lineFields {
	sorted := make([]models.Token, len(l.tokens))
	copy(sorted, l.tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Left < sorted[j].Left
	})

	parts := make(map[string][]string, len(requiredColumns))
	for _, tok := range sorted {
		text := strings.TrimSpace(tok.Text)
		if text == "" {
			continue
		}
		if name := cols.columnFor(tok.CenterX()); name != "" {
			parts[name] = append(parts[name], text)
		}
	}
	return lineFields{
		quantity: strings.Join(parts[ColQuantity], " "),
		code:     strings.Join(parts[ColCode], " "),
		title:    strings.Join(parts[ColTitle], " "),
	}
}
