package observability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datacampus/certgen/internal/types"
)

func TestPrintSummary_Counts(t *testing.T) {
	var out strings.Builder
	p := NewPrinter(&out)

	summary := &types.RunSummary{}
	summary.Append(types.RowResult{RowIndex: 2, Outcome: types.OutcomeGenerated})
	summary.Append(types.RowResult{RowIndex: 3, Outcome: types.OutcomeSkipped})

	p.PrintSummary(summary)

	assert.Contains(t, out.String(), "Generated: 1")
	assert.Contains(t, out.String(), "Skipped:   1")
	assert.Contains(t, out.String(), "Failed:    0")
}

func TestPrintSummary_EnumeratesFailures(t *testing.T) {
	var out strings.Builder
	p := NewPrinter(&out)

	summary := &types.RunSummary{}
	summary.Append(types.RowResult{
		RowIndex:    4,
		Company:     "Acme",
		Outcome:     types.OutcomeFailed,
		ErrorKind:   types.ErrKindUpload,
		ErrorDetail: "HTTP 503",
	})
	summary.Append(types.RowResult{
		RowIndex:            5,
		Company:             "Globex",
		Outcome:             types.OutcomeFailed,
		ErrorKind:           types.ErrKindStatusWrite,
		ErrorDetail:         "range patch failed",
		NeedsReconciliation: true,
	})

	p.PrintSummary(summary)

	assert.Contains(t, out.String(), "row 4 [UploadError]")
	assert.Contains(t, out.String(), "row 5 [StatusWriteError]")
	assert.Contains(t, out.String(), "reconcile manually")
}

func TestPrintSummary_Nil(t *testing.T) {
	var out strings.Builder
	NewPrinter(&out).PrintSummary(nil)
	assert.Empty(t, out.String())
}

func TestPrintRow(t *testing.T) {
	var out strings.Builder
	p := NewPrinter(&out)

	p.PrintRow(types.RowResult{RowIndex: 2, Company: "Acme", Outcome: types.OutcomeGenerated, ArtifactName: "certificate_800123_r2.pdf"})
	p.PrintRow(types.RowResult{RowIndex: 3, Outcome: types.OutcomeSkipped})
	p.PrintRow(types.RowResult{RowIndex: 4, Company: "Globex", Outcome: types.OutcomeFailed, ErrorKind: types.ErrKindUpload, ErrorDetail: "boom"})

	assert.Contains(t, out.String(), "generated certificate_800123_r2.pdf")
	assert.Contains(t, out.String(), "already done, skipped")
	assert.Contains(t, out.String(), "FAILED [UploadError] boom")
}
