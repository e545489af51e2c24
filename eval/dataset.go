// Package eval turns a portrait dataset into per-output rating records:
// it routes prompt templates, dispatches provider calls across a worker
// pool, normalizes free-text answers onto the Likert scale, and persists
// the aggregated results.
package eval

import (
	"encoding/json"
	"fmt"
	"os"
)

// EntryContent is the free text being rated, with an optional title for
// the reddit template family.
type EntryContent struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Output is one candidate answer to rate. The correlation lists are
// supplied by upstream data and passed through to the result record
// unchanged, so they stay raw.
type Output struct {
	ID                    int             `json:"id"`
	Content               string          `json:"content"`
	Correlations          json.RawMessage `json:"correlations,omitempty"`
	BFICorrelations       json.RawMessage `json:"bfi_correlations,omitempty"`
	HigherPVQCorrelations json.RawMessage `json:"higher_pvq_correlations,omitempty"`
}

// Entry is one evaluation unit. The leading digit of PortraitID selects
// the prompt template family.
type Entry struct {
	PortraitID int          `json:"portrait_id"`
	Content    EntryContent `json:"content"`
	Outputs    []Output     `json:"outputs"`
}

// LoadDataset reads the portrait dataset. It is loaded once per run and
// shared read-only across all experiments.
func LoadDataset(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return entries, nil
}
