// Package roster parses the certificate roster spreadsheet into structured rows.
package roster

import "fmt"

// MissingColumnError reports a required column absent from the roster header.
// This is a configuration problem with the whole spreadsheet, so the caller
// aborts the run instead of treating it as a per-row failure.
type MissingColumnError struct {
	Column string
	Header string // the header name that was looked for
}

func (e *MissingColumnError) Error() string {
	if e.Header != "" && e.Header != e.Column {
		return fmt.Sprintf("roster is missing required column %q (mapped from %q)", e.Header, e.Column)
	}
	return fmt.Sprintf("roster is missing required column %q", e.Column)
}

// ParseError reports a roster that could not be read as a spreadsheet.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("roster parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("roster parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
