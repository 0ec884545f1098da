// Package rendering fills certificate templates with roster row values and
// converts the result to PDF.
package rendering

import "fmt"

// TemplateLoadError represents a template that cannot be read or parsed.
type TemplateLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *TemplateLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template load error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("template load error for %s: %s", e.Path, e.Message)
}

func (e *TemplateLoadError) Unwrap() error {
	return e.Cause
}

// ConversionError represents a failure converting the filled document to PDF.
type ConversionError struct {
	Message   string
	LogOutput string
	Cause     error
}

func (e *ConversionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pdf conversion error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("pdf conversion error: %s", e.Message)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}
