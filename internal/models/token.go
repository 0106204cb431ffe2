// Package models defines core data structures for tokens, records, and jobs.
package models

// Token is a single word of PDF text with its on-page bounding coordinates.
// Coordinates are in PDF points with the origin at the top-left of the page,
// so Top < Bottom and lines read top to bottom in increasing Top order.
// Tokens are produced by the pdftext acquirer and consumed read-only.
type Token struct {
	Text   string  `json:"text"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Page   int     `json:"page"`
}

// CenterX returns the horizontal center of the token.
func (t Token) CenterX() float64 {
	return (t.Left + t.Right) / 2
}

// CenterY returns the vertical center of the token.
func (t Token) CenterY() float64 {
	return (t.Top + t.Bottom) / 2
}

// Height returns the vertical extent of the token.
func (t Token) Height() float64 {
	return t.Bottom - t.Top
}
