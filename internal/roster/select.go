package roster

import "github.com/datacampus/certgen/internal/types"

// SelectPending returns the rows that still need a certificate, preserving
// input order. It is a pure function: the input slice is never modified, and
// applying it twice yields the same result.
func SelectPending(rows []types.RosterRow) []types.RosterRow {
	pending := make([]types.RosterRow, 0, len(rows))
	for _, row := range rows {
		if row.Pending() {
			pending = append(pending, row)
		}
	}
	return pending
}
