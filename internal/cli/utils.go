// Package cli provides CLI output utilities for itemx.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/quadra/itemx/internal/batch"
)

// OutputFormat is the format for extraction result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// resultEntry is the JSON shape of one extraction outcome.
type resultEntry struct {
	Source  string `json:"source"`
	Output  string `json:"output,omitempty"`
	Pages   int    `json:"pages"`
	Records int    `json:"records"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// WriteResults writes extraction results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteResults(w io.Writer, results []batch.Result, format OutputFormat) error {
	switch format {
	case OutputJSON:
		entries := make([]resultEntry, 0, len(results))
		for _, res := range results {
			entry := resultEntry{
				Source:  res.Source,
				Output:  res.Output,
				Pages:   res.Pages,
				Records: res.Records,
				Status:  "written",
			}
			switch {
			case res.NoData():
				entry.Status = "no_data"
			case res.Err != nil:
				entry.Status = "failed"
				entry.Error = res.Err.Error()
			}
			entries = append(entries, entry)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"results": entries})
	default:
		writeResultsText(w, results)
		return nil
	}
}

func writeResultsText(w io.Writer, results []batch.Result) {
	for _, res := range results {
		switch {
		case res.NoData():
			fmt.Fprintf(w, "no data:  %s\n", res.Source)
		case res.Err != nil:
			fmt.Fprintf(w, "failed:   %s: %v\n", res.Source, res.Err)
		default:
			fmt.Fprintf(w, "written:  %s (%d records)\n", res.Output, res.Records)
		}
	}
}

// ParseFormat validates a --format flag value.
func ParseFormat(raw string) (OutputFormat, error) {
	switch OutputFormat(raw) {
	case OutputText, OutputJSON:
		return OutputFormat(raw), nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", raw)
	}
}
