package pdftext

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

// glyph builds one text run at baseline y.
func glyph(s string, x, w, y float64) pdf.Text {
	return pdf.Text{S: s, X: x, W: w, Y: y, FontSize: 10}
}

func TestAssembleWords_mergesAdjacentGlyphs(t *testing.T) {
	// "QTD" as three runs with sub-threshold gaps, then a wide gap to "2".
	row := []pdf.Text{
		glyph("Q", 50, 6, 700),
		glyph("T", 56, 6, 700),
		glyph("D", 62, 6, 700),
		glyph("2", 100, 6, 700),
	}
	tokens := assembleWords(row, 792, 1)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(tokens), tokens)
	}
	if tokens[0].Text != "QTD" {
		t.Errorf("first token = %q", tokens[0].Text)
	}
	if tokens[0].Left != 50 || tokens[0].Right != 68 {
		t.Errorf("QTD bounds = [%v, %v], want [50, 68]", tokens[0].Left, tokens[0].Right)
	}
	if tokens[1].Text != "2" {
		t.Errorf("second token = %q", tokens[1].Text)
	}
}

func TestAssembleWords_spaceGlyphSplitsWords(t *testing.T) {
	row := []pdf.Text{
		glyph("Farol", 200, 25, 700),
		glyph(" ", 225, 3, 700),
		glyph("dianteiro", 228, 45, 700),
	}
	tokens := assembleWords(row, 792, 1)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(tokens), tokens)
	}
	if tokens[0].Text != "Farol" || tokens[1].Text != "dianteiro" {
		t.Errorf("tokens = %q, %q", tokens[0].Text, tokens[1].Text)
	}
}

func TestAssembleWords_flipsYAxis(t *testing.T) {
	// Baseline near the top of a 792pt page must yield a small Top value.
	tokens := assembleWords([]pdf.Text{glyph("alto", 50, 20, 780)}, 792, 3)
	if len(tokens) != 1 {
		t.Fatalf("got %d tokens", len(tokens))
	}
	tok := tokens[0]
	if tok.Page != 3 {
		t.Errorf("page = %d", tok.Page)
	}
	if tok.Bottom != 792-780 {
		t.Errorf("bottom = %v, want %v", tok.Bottom, 792-780.0)
	}
	if tok.Top >= tok.Bottom {
		t.Errorf("top %v not above bottom %v", tok.Top, tok.Bottom)
	}
}

func TestGroupBaselines_topOfPageFirst(t *testing.T) {
	// Higher PDF Y means higher on the page.
	texts := []pdf.Text{
		glyph("baixo", 50, 20, 100),
		glyph("alto", 50, 20, 700),
		glyph("meio", 50, 20, 400),
	}
	rows := groupBaselines(texts)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	order := []string{rows[0][0].S, rows[1][0].S, rows[2][0].S}
	if order[0] != "alto" || order[1] != "meio" || order[2] != "baixo" {
		t.Errorf("row order = %v", order)
	}
}

func TestGroupBaselines_kerningJitterSameRow(t *testing.T) {
	texts := []pdf.Text{
		glyph("b", 56, 5, 700.8),
		glyph("a", 50, 5, 700),
	}
	rows := groupBaselines(texts)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0][0].S != "a" || rows[0][1].S != "b" {
		t.Errorf("row not sorted left to right: %+v", rows[0])
	}
}

func TestRead_rejectsGarbage(t *testing.T) {
	if _, err := Read([]byte("not a pdf")); err == nil {
		t.Fatal("expected error for non-PDF content")
	}
}
