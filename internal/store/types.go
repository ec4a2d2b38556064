package store

import "errors"

// ErrNotFound is returned when a run, query or mapping is not in the
// catalog.
var ErrNotFound = errors.New("not found")

// Run is one compile run.
type Run struct {
	ID           string `json:"id"`
	Seq          int64  `json:"seq"`
	SpecsDir     string `json:"specs_dir"`
	ToolVersion  string `json:"tool_version"`
	MappingCount int    `json:"mapping_count"`
}

// QueryRecord is a compiled query as linked from a run.
type QueryRecord struct {
	ID       string   `json:"id"`
	RunID    string   `json:"run_id"`
	Mapping  string   `json:"mapping"`
	Kind     string   `json:"kind"`
	Text     string   `json:"text"`
	SpecHash string   `json:"spec_hash"`
	Warnings []string `json:"warnings"`
}
