package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/datacampus/certgen/internal/config"
	"github.com/datacampus/certgen/internal/db"
	"github.com/datacampus/certgen/internal/rendering"
	"github.com/datacampus/certgen/internal/resolver"
	"github.com/datacampus/certgen/internal/roster"
	"github.com/datacampus/certgen/internal/store"
	"github.com/datacampus/certgen/internal/types"
)

// RunOptions holds the collaborators and parameters for one pipeline run.
type RunOptions struct {
	// Store is the remote file store holding the roster, the destination
	// folders and the uploaded certificates.
	Store store.FileStore
	// Workbook performs the per-row status write-back into the roster.
	Workbook store.WorkbookWriter
	// Renderer produces the PDF certificate bytes for one roster row.
	Renderer rendering.Renderer
	// Database is optional run-history persistence. A nil Database or a
	// database error never fails the run.
	Database *db.DB

	RosterFileID   string
	ParentFolderID string
	// Worksheet selects the roster sheet; empty selects the first one.
	Worksheet string
	// Columns maps canonical column keys to the roster's header names.
	Columns config.ColumnMap
	// DoneValue is written into the status cell after a confirmed upload.
	// Empty defaults to "done".
	DoneValue string
	// Parallel is the number of rows processed concurrently; values below
	// 2 run the roster sequentially in source order.
	Parallel int

	// OnProgress, when set, receives row-state transitions.
	OnProgress ProgressCallback
}

func (o *RunOptions) validate() error {
	switch {
	case o.Store == nil:
		return &ConfigurationError{Message: "file store is required"}
	case o.Workbook == nil:
		return &ConfigurationError{Message: "workbook writer is required"}
	case o.Renderer == nil:
		return &ConfigurationError{Message: "renderer is required"}
	case o.RosterFileID == "":
		return &ConfigurationError{Message: "roster file id is required"}
	case o.ParentFolderID == "":
		return &ConfigurationError{Message: "parent folder id is required"}
	}
	return nil
}

func (o *RunOptions) emitProgress(event ProgressEvent) {
	if o.OnProgress != nil {
		o.OnProgress(event)
	}
}

// RunPipeline executes one full certificate generation run: download and
// parse the roster, process every pending row through render → upload →
// status write-back, and return the aggregated summary.
//
// Row failures are isolated: a failed row is recorded and the run moves on.
// Only roster-level problems (unreadable file, missing required columns)
// abort the run. Cancelling the context stops dispatching new rows; rows
// already in flight finish and their results are kept.
func RunPipeline(ctx context.Context, opts RunOptions) (*types.RunSummary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	data, err := opts.Store.GetFile(ctx, opts.RosterFileID)
	if err != nil {
		return nil, &ConfigurationError{Message: "failed to download roster", Cause: err}
	}

	parsed, err := roster.NewReader(opts.Worksheet, opts.Columns).Parse(data)
	if err != nil {
		return nil, &ConfigurationError{Message: "failed to parse roster", Cause: err}
	}

	doneValue := opts.DoneValue
	if doneValue == "" {
		doneValue = types.StatusDone
	}

	summary := &types.RunSummary{StartedAt: time.Now().UTC()}

	runID := uuid.New()
	if opts.Database != nil {
		id, err := opts.Database.CreateRun(ctx, opts.RosterFileID)
		if err != nil {
			fmt.Printf("Warning: failed to record run in database (continuing): %v\n", err)
			opts.Database = nil
		} else {
			runID = id
		}
	}
	summary.RunID = runID.String()

	res := resolver.New(opts.Store, opts.ParentFolderID)

	// Results are collected by roster position so the summary preserves
	// source order regardless of completion order.
	results := make([]*types.RowResult, len(parsed.Rows))

	process := func(ctx context.Context, i int, row types.RosterRow) {
		result := processRow(ctx, &opts, res, parsed, row, doneValue)
		results[i] = &result
		if opts.Database != nil {
			if err := opts.Database.SaveRowResult(ctx, runID, result); err != nil {
				fmt.Printf("Warning: failed to save result for row %d: %v\n", result.RowIndex, err)
			}
		}
	}

	if opts.Parallel > 1 {
		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(opts.Parallel)
		for i, row := range parsed.Rows {
			if gctx.Err() != nil {
				break
			}
			if !row.Pending() {
				results[i] = &types.RowResult{
					RowIndex: row.Index,
					Company:  row.Company,
					Outcome:  types.OutcomeSkipped,
				}
				continue
			}
			group.Go(func() error {
				process(gctx, i, row)
				return nil
			})
		}
		_ = group.Wait()
	} else {
		for i, row := range parsed.Rows {
			if ctx.Err() != nil {
				break
			}
			if !row.Pending() {
				results[i] = &types.RowResult{
					RowIndex: row.Index,
					Company:  row.Company,
					Outcome:  types.OutcomeSkipped,
				}
				continue
			}
			process(ctx, i, row)
		}
	}

	for _, r := range results {
		if r != nil {
			summary.Append(*r)
		}
	}
	summary.CompletedAt = time.Now().UTC()

	if opts.Database != nil {
		status := db.RunStatusCompleted
		if ctx.Err() != nil {
			status = db.RunStatusFailed
		}
		// Completion is recorded even when the caller's context is gone.
		if err := opts.Database.CompleteRun(context.WithoutCancel(ctx), runID, status, summary); err != nil {
			fmt.Printf("Warning: failed to record run completion: %v\n", err)
		}
	}

	return summary, nil
}

// processRow drives one pending row through the full state machine and
// returns its terminal result. Every error path is row-scoped.
func processRow(ctx context.Context, opts *RunOptions, res *resolver.Resolver, parsed *roster.Roster, row types.RosterRow, doneValue string) types.RowResult {
	fail := func(err error) types.RowResult {
		opts.emitProgress(ProgressEvent{RowIndex: row.Index, Company: row.Company, State: StateFailed, Message: err.Error()})
		return types.RowResult{
			RowIndex:    row.Index,
			Company:     row.Company,
			Outcome:     types.OutcomeFailed,
			ErrorKind:   classifyRowError(err),
			ErrorDetail: err.Error(),
		}
	}

	opts.emitProgress(ProgressEvent{RowIndex: row.Index, Company: row.Company, State: StateRendering})

	folder, err := res.Resolve(ctx, row.Company)
	if err != nil {
		return fail(err)
	}

	pdf, err := opts.Renderer.Render(ctx, row)
	if err != nil {
		return fail(err)
	}

	name := artifactName(row)
	opts.emitProgress(ProgressEvent{RowIndex: row.Index, Company: row.Company, State: StateUploading, Message: name})

	if err := opts.Store.UploadFile(ctx, folder.ID, name, pdf); err != nil {
		return fail(&UploadError{RowIndex: row.Index, Name: name, Cause: err})
	}

	opts.emitProgress(ProgressEvent{RowIndex: row.Index, Company: row.Company, State: StateMarkingDone})

	// The status cell is only touched after the upload is confirmed, so a
	// "done" mark always means the certificate exists in the store.
	address := fmt.Sprintf("%s%d", parsed.StatusColumn, row.Index)
	if err := opts.Workbook.WriteCell(ctx, opts.RosterFileID, parsed.Sheet, address, doneValue); err != nil {
		statusErr := &StatusWriteError{RowIndex: row.Index, Cause: err}
		opts.emitProgress(ProgressEvent{RowIndex: row.Index, Company: row.Company, State: StateFailed, Message: statusErr.Error()})
		return types.RowResult{
			RowIndex:            row.Index,
			Company:             row.Company,
			Outcome:             types.OutcomeFailed,
			ErrorKind:           types.ErrKindStatusWrite,
			ErrorDetail:         statusErr.Error(),
			NeedsReconciliation: true,
			ArtifactName:        name,
		}
	}

	opts.emitProgress(ProgressEvent{RowIndex: row.Index, Company: row.Company, State: StateDone, Message: name})

	return types.RowResult{
		RowIndex:     row.Index,
		Company:      row.Company,
		Outcome:      types.OutcomeGenerated,
		ArtifactName: name,
	}
}

// artifactName builds the deterministic certificate file name for a row.
// Reruns of the same row overwrite the same artifact instead of piling up
// near-duplicates.
func artifactName(row types.RosterRow) string {
	return fmt.Sprintf("certificate_%s_r%d.pdf", sanitizeName(row.NationalID), row.Index)
}

// sanitizeName keeps letters and digits and folds everything else to '-',
// so ids with dots or spaces still yield a safe file name.
func sanitizeName(s string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	if sb.Len() == 0 {
		return "unknown"
	}
	return sb.String()
}
