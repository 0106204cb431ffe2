package models

// Record is one reconstructed logical table row. Quantity and Code are kept
// as text verbatim; codes may carry leading zeros or letters.
type Record struct {
	Quantity string `json:"quantity"`
	Code     string `json:"code"`
	Title    string `json:"title"`
}

// Table is the ordered sequence of records extracted from one document,
// in document reading order.
type Table struct {
	Records []Record `json:"records"`
}

// Len returns the number of records in the table.
func (t *Table) Len() int {
	return len(t.Records)
}

// Append adds a record to the end of the table.
func (t *Table) Append(r Record) {
	t.Records = append(t.Records, r)
}
