package table

import (
	"strings"

	"github.com/quadra/itemx/internal/models"
)

// Target column names as they appear in the source documents.
const (
	ColQuantity = "QTD"
	ColCode     = "CÓDIGO"
	ColTitle    = "TITULO"
)

// headerSynonyms maps each target column to the label variants accepted for
// it, compared case-insensitively. Kept declarative so the matching rule can
// be audited and tested in isolation.
var headerSynonyms = map[string][]string{
	ColQuantity: {"QTD", "QTD."},
	ColCode:     {"CÓDIGO", "CODIGO", "CÓD.", "COD."},
	ColTitle:    {"TITULO", "TÍTULO", "DESCRIÇÃO", "DESCRICAO"},
}

// rightAnchorSynonyms are labels of the column immediately to the right of
// the title column. When present on the header line they delimit the title
// interval; otherwise the title extends to the page's right edge.
var rightAnchorSynonyms = []string{"FORNECIMENTO", "FORN.", "VALOR"}

// requiredColumns is the declared left-to-right column order.
var requiredColumns = []string{ColQuantity, ColCode, ColTitle}

// headerYTolerance is the vertical distance within which candidate header
// tokens are considered to sit on the same header line.
const headerYTolerance = 5.0

// interval is a half-open horizontal range [Start, End).
type interval struct {
	Start, End float64
}

func (iv interval) contains(x float64) bool {
	return x >= iv.Start && x < iv.End
}

// columnSet holds the derived horizontal interval per target column plus the
// bottom of the header line, below which data rows begin.
type columnSet struct {
	bounds       map[string]interval
	headerBottom float64
}

// columnFor returns the target column whose interval contains x, testing
// columns in declared order, or "" when x falls outside all intervals.
func (cs *columnSet) columnFor(x float64) string {
	for _, name := range requiredColumns {
		if cs.bounds[name].contains(x) {
			return name
		}
	}
	return ""
}

// matchHeaderLabel reports which target column the token's text matches, if any.
func matchHeaderLabel(text string) (string, bool) {
	cleaned := strings.ToUpper(strings.TrimSpace(text))
	if cleaned == "" {
		return "", false
	}
	for _, name := range requiredColumns {
		for _, variant := range headerSynonyms[name] {
			if cleaned == strings.ToUpper(variant) {
				return name, true
			}
		}
	}
	return "", false
}

func matchRightAnchor(text string) bool {
	cleaned := strings.ToUpper(strings.TrimSpace(text))
	for _, variant := range rightAnchorSynonyms {
		if cleaned == strings.ToUpper(variant) {
			return true
		}
	}
	return false
}

// locateHeader scans the page's tokens for the target header labels and
// derives the column boundary set. Each header token's span is widened to
// the midpoint of the gap with its horizontal neighbour; the title column is
// widened to the right anchor's midpoint when one sits on the header line,
// else to the page's usable right edge. Returns ok=false when any required
// label is absent from the header line.
func (r *Reconstructor) locateHeader(tokens []models.Token, pageRight float64) (*columnSet, bool) {
	candidates := make(map[string][]models.Token)
	var anchors []models.Token
	for _, tok := range tokens {
		if name, ok := matchHeaderLabel(tok.Text); ok {
			candidates[name] = append(candidates[name], tok)
			continue
		}
		if matchRightAnchor(tok.Text) {
			anchors = append(anchors, tok)
		}
	}
	for _, name := range requiredColumns {
		if len(candidates[name]) == 0 {
			return nil, false
		}
	}

	// Anchor the header line on the topmost quantity label, then keep only
	// candidates vertically aligned with it.
	refTop := candidates[ColQuantity][0].Top
	for _, tok := range candidates[ColQuantity] {
		if tok.Top < refTop {
			refTop = tok.Top
		}
	}

	chosen := make(map[string]models.Token)
	headerBottom := 0.0
	for _, name := range requiredColumns {
		var best models.Token
		found := false
		for _, tok := range candidates[name] {
			if abs(tok.Top-refTop) >= headerYTolerance {
				continue
			}
			if !found || tok.Left < best.Left {
				best = tok
				found = true
			}
		}
		if !found {
			return nil, false
		}
		chosen[name] = best
		if best.Bottom > headerBottom {
			headerBottom = best.Bottom
		}
	}

	// Right edge of the title column: midpoint to an aligned right anchor,
	// else the page's right edge.
	titleEnd := pageRight
	for _, tok := range anchors {
		if abs(tok.Top-refTop) >= headerYTolerance {
			continue
		}
		mid := (chosen[ColTitle].Right + tok.Left) / 2
		if mid < titleEnd && mid > chosen[ColTitle].Right {
			titleEnd = mid
		}
	}

	qty, code, title := chosen[ColQuantity], chosen[ColCode], chosen[ColTitle]
	bounds := map[string]interval{
		ColQuantity: {Start: qty.Left - r.columnGap, End: (qty.Right + code.Left) / 2},
		ColCode:     {Start: (qty.Right + code.Left) / 2, End: (code.Right + title.Left) / 2},
		ColTitle:    {Start: (code.Right + title.Left) / 2, End: titleEnd},
	}
	for name, iv := range bounds {
		if iv.Start < 0 {
			iv.Start = 0
		}
		if iv.End < iv.Start+r.minColumnWidth {
			iv.End = iv.Start + r.minColumnWidth
		}
		bounds[name] = iv
	}

	return &columnSet{bounds: bounds, headerBottom: headerBottom}, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
