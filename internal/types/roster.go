// Package types provides type definitions for structured data shared across the certificate pipeline.
package types

import "strings"

// Canonical roster column keys. The source spreadsheet may use different
// header names; the reader maps them to these keys via config.ColumnMap.
const (
	ColumnName       = "name"
	ColumnNationalID = "national_id"
	ColumnCompany    = "company"
	ColumnStatus     = "status"
)

// StatusDone is the only status value that marks a row as already processed.
// Every other value (empty, missing, misspelled) counts as pending so a typo
// in the roster can never silently skip a certificate.
const StatusDone = "done"

// RosterRow is one entry of the roster spreadsheet.
type RosterRow struct {
	// Index is the 1-based spreadsheet row number (header row is 1, so the
	// first data row is 2). It doubles as the row identity for result
	// records and for the targeted status write-back.
	Index int `json:"index"`

	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Company    string `json:"company"`
	Status     string `json:"status"`

	// Values holds every column of the row keyed by its source header name,
	// preserving columns that are not part of the required set. Template
	// placeholders resolve against this map.
	Values map[string]string `json:"values"`
}

// Pending reports whether the row still needs a certificate. Only an exact
// (case- and whitespace-insensitive) "done" marker counts as processed.
func (r RosterRow) Pending() bool {
	return !strings.EqualFold(strings.TrimSpace(r.Status), StatusDone)
}

// Field returns the row value for a column name, or the empty string when the
// row has no such column. Lookup is case-insensitive on the column name.
func (r RosterRow) Field(column string) string {
	if v, ok := r.Values[column]; ok {
		return v
	}
	for k, v := range r.Values {
		if strings.EqualFold(k, column) {
			return v
		}
	}
	return ""
}
