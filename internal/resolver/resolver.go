// Package resolver maps company names to destination folders in the remote
// store, creating them on first use. A run-scoped cache plus singleflight
// guarantee one folder per company no matter how names are cased or padded.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/datacampus/certgen/internal/store"
)

// FolderStore is the slice of the file store the resolver needs.
type FolderStore interface {
	ListFolders(ctx context.Context, parentID string) ([]store.Folder, error)
	CreateFolder(ctx context.Context, parentID, name string) (store.Folder, error)
}

// FolderCreationError reports that the destination folder for a company could
// not be obtained. It is row-scoped: the orchestrator fails the row and moves
// on.
type FolderCreationError struct {
	Company string
	Cause   error
}

func (e *FolderCreationError) Error() string {
	return fmt.Sprintf("failed to resolve folder for company %q: %v", e.Company, e.Cause)
}

func (e *FolderCreationError) Unwrap() error {
	return e.Cause
}

// Resolver caches company→folder mappings for the lifetime of one run. It is
// safe for concurrent use; folder creation is serialized per normalized
// company name so parallel rows of the same company cannot race a duplicate
// into existence.
type Resolver struct {
	store    FolderStore
	parentID string

	mu     sync.Mutex
	cache  map[string]store.Folder
	listed bool

	group singleflight.Group
}

// New creates a Resolver for the given parent folder.
func New(folderStore FolderStore, parentID string) *Resolver {
	return &Resolver{
		store:    folderStore,
		parentID: parentID,
		cache:    make(map[string]store.Folder),
	}
}

// Normalize produces the case- and whitespace-insensitive cache key for a
// company name. Interior runs of whitespace collapse to one space so
// "Acme  Co" and "acme co " resolve to the same folder.
func Normalize(company string) string {
	return strings.ToLower(strings.Join(strings.Fields(company), " "))
}

// Resolve returns the folder handle for a company, creating the folder if no
// existing one matches the normalized name. Existing folders are discovered
// through a single lazy listing of the parent, then served from cache.
func (r *Resolver) Resolve(ctx context.Context, company string) (store.Folder, error) {
	key := Normalize(company)
	if key == "" {
		return store.Folder{}, &FolderCreationError{
			Company: company,
			Cause:   fmt.Errorf("company name is empty"),
		}
	}

	if err := r.ensureListed(ctx, company); err != nil {
		return store.Folder{}, err
	}

	r.mu.Lock()
	if folder, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return folder, nil
	}
	r.mu.Unlock()

	// The folder display name keeps the first-seen spelling, trimmed.
	displayName := strings.TrimSpace(company)

	v, err, _ := r.group.Do(key, func() (any, error) {
		// Another row may have won the flight between the cache check
		// and here.
		r.mu.Lock()
		if folder, ok := r.cache[key]; ok {
			r.mu.Unlock()
			return folder, nil
		}
		r.mu.Unlock()

		folder, err := r.store.CreateFolder(ctx, r.parentID, displayName)
		if err != nil {
			return store.Folder{}, err
		}

		r.mu.Lock()
		r.cache[key] = folder
		r.mu.Unlock()
		return folder, nil
	})
	if err != nil {
		return store.Folder{}, &FolderCreationError{Company: company, Cause: err}
	}

	return v.(store.Folder), nil
}

// ensureListed populates the cache from the parent folder's existing children
// exactly once per run.
func (r *Resolver) ensureListed(ctx context.Context, company string) error {
	r.mu.Lock()
	if r.listed {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	_, err, _ := r.group.Do("\x00list", func() (any, error) {
		r.mu.Lock()
		if r.listed {
			r.mu.Unlock()
			return nil, nil
		}
		r.mu.Unlock()

		folders, err := r.store.ListFolders(ctx, r.parentID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		for _, folder := range folders {
			if key := Normalize(folder.Name); key != "" {
				// First listing wins; later duplicates in the
				// store are ignored deterministically.
				if _, ok := r.cache[key]; !ok {
					r.cache[key] = folder
				}
			}
		}
		r.listed = true
		r.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return &FolderCreationError{Company: company, Cause: err}
	}
	return nil
}
