// Package pipeline provides the high-level orchestration for the certificate
// generation process.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/datacampus/certgen/internal/rendering"
	"github.com/datacampus/certgen/internal/resolver"
	"github.com/datacampus/certgen/internal/types"
)

// ConfigurationError is fatal: the whole run aborts. It covers problems with
// the run's inputs (unreadable roster, missing required columns) as opposed
// to problems with individual rows.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// UploadError represents a failed artifact upload for one row.
type UploadError struct {
	RowIndex int
	Name     string
	Cause    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload error for row %d (%s): %v", e.RowIndex, e.Name, e.Cause)
}

func (e *UploadError) Unwrap() error {
	return e.Cause
}

// StatusWriteError represents a failed status write-back for one row. The
// artifact is already uploaded when this occurs, so it doubles as the
// reconciliation warning: a rerun would regenerate the certificate.
type StatusWriteError struct {
	RowIndex int
	Cause    error
}

func (e *StatusWriteError) Error() string {
	return fmt.Sprintf("status write error for row %d (certificate was uploaded; reconcile manually): %v", e.RowIndex, e.Cause)
}

func (e *StatusWriteError) Unwrap() error {
	return e.Cause
}

// classifyRowError maps a row-scoped error to the error kind recorded in its
// RowResult.
func classifyRowError(err error) string {
	var (
		folderErr   *resolver.FolderCreationError
		templateErr *rendering.TemplateLoadError
		convertErr  *rendering.ConversionError
		uploadErr   *UploadError
		statusErr   *StatusWriteError
	)
	switch {
	case errors.As(err, &folderErr):
		return types.ErrKindFolderCreation
	case errors.As(err, &templateErr):
		return types.ErrKindTemplateLoad
	case errors.As(err, &convertErr):
		return types.ErrKindRenderConversion
	case errors.As(err, &uploadErr):
		return types.ErrKindUpload
	case errors.As(err, &statusErr):
		return types.ErrKindStatusWrite
	default:
		return "Error"
	}
}
