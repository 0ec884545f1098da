// Package store provides the remote file-store collaborator used by the
// certificate pipeline, implemented against the Microsoft Graph drive API.
package store

import (
	"context"
	"fmt"
)

// Folder is an opaque handle to a drive folder.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FileStore is the surface the pipeline needs from the remote store. All
// operations may fail transiently; callers decide whether a failure is fatal
// or row-scoped.
type FileStore interface {
	// GetFile downloads a file's content by item id.
	GetFile(ctx context.Context, fileID string) ([]byte, error)
	// ListFolders lists the sub-folders of a parent folder.
	ListFolders(ctx context.Context, parentID string) ([]Folder, error)
	// CreateFolder creates a named folder under a parent. Creating a name
	// that already exists returns the existing folder's handle.
	CreateFolder(ctx context.Context, parentID, name string) (Folder, error)
	// UploadFile puts content into a folder under the given name,
	// overwriting any previous file with that name.
	UploadFile(ctx context.Context, folderID, name string, content []byte) error
}

// WorkbookWriter performs the targeted per-cell write-back into the roster
// spreadsheet. A single-cell range PATCH avoids rewriting the whole file and
// so cannot race with concurrent edits of other rows.
type WorkbookWriter interface {
	WriteCell(ctx context.Context, fileID, worksheet, address, value string) error
}

// Error represents a failed store operation.
type Error struct {
	Op         string
	Path       string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("store %s %s: HTTP %d: %s", e.Op, e.Path, e.StatusCode, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("store %s %s: %s: %v", e.Op, e.Path, e.Message, e.Cause)
	default:
		return fmt.Sprintf("store %s %s: %s", e.Op, e.Path, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Transient reports whether retrying the operation could plausibly succeed:
// throttling, server-side errors, or network failures before any HTTP status
// was received.
func (e *Error) Transient() bool {
	if e.StatusCode == 0 {
		return e.Cause != nil
	}
	return e.StatusCode == 429 || e.StatusCode >= 500
}
