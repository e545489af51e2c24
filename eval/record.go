package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RecordContent snapshots the rated text into the result so a record can
// be interpreted without the original dataset.
type RecordContent struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	OutputText string `json:"output_text"`
}

// ResultRecord is the persisted outcome of rating one output. Success
// records carry the raw, parsed, and numeric responses; failure records
// carry an error string instead. Records are append-only: once a worker
// returns one it is never mutated.
type ResultRecord struct {
	PortraitID            int             `json:"portrait_id"`
	OptionID              int             `json:"option_id,omitempty"`
	RawResponse           string          `json:"raw_response,omitempty"`
	ParsedResponse        string          `json:"parsed_response,omitempty"`
	NumericResponse       int             `json:"numeric_response,omitempty"`
	Error                 string          `json:"error,omitempty"`
	Content               *RecordContent  `json:"content,omitempty"`
	Prompt                string          `json:"prompt,omitempty"`
	Reasoning             string          `json:"reasoning,omitempty"`
	Correlations          json.RawMessage `json:"correlations,omitempty"`
	BFICorrelations       json.RawMessage `json:"bfi_correlations,omitempty"`
	HigherPVQCorrelations json.RawMessage `json:"higher_pvq_correlations,omitempty"`
}

// IsError reports whether the record captures a failure.
func (r *ResultRecord) IsError() bool {
	return r.Error != ""
}

// snapshotContent copies the entry and output text into a record.
func snapshotContent(entry *Entry, outputContent string) *RecordContent {
	return &RecordContent{
		Title:      entry.Content.Title,
		Text:       entry.Content.Text,
		OutputText: outputContent,
	}
}

// SaveRecords writes the aggregated record list for one combination as an
// indented JSON array. HTML escaping is off so non-ASCII and quoted text
// survive byte-for-byte; key order follows the struct definition, which
// keeps it stable across runs.
func SaveRecords(path string, records []ResultRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("writing results file %s: %w", path, err)
	}
	return nil
}
