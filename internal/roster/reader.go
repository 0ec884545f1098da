package roster

import (
	"bytes"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/datacampus/certgen/internal/config"
	"github.com/datacampus/certgen/internal/types"
)

// Roster is the parsed spreadsheet: the ordered header row plus one RosterRow
// per data row, in source order.
type Roster struct {
	Sheet   string
	Headers []string
	Rows    []types.RosterRow

	// StatusColumn is the A1-style column letter of the status header,
	// used for the targeted per-row status write-back.
	StatusColumn string
}

// Reader parses roster spreadsheets. It is read-only: parsing never mutates
// the source bytes, and the write-back of processed rows is owned by the
// orchestrator.
type Reader struct {
	// Sheet is the worksheet to read; empty selects the first sheet.
	Sheet string
	// Columns maps canonical column keys to the spreadsheet's header names.
	Columns config.ColumnMap
}

// NewReader returns a Reader for the given worksheet and column mapping.
// Zero-value column names fall back to the canonical keys.
func NewReader(sheet string, columns config.ColumnMap) *Reader {
	if columns.Name == "" {
		columns.Name = types.ColumnName
	}
	if columns.NationalID == "" {
		columns.NationalID = types.ColumnNationalID
	}
	if columns.Company == "" {
		columns.Company = types.ColumnCompany
	}
	if columns.Status == "" {
		columns.Status = types.ColumnStatus
	}
	return &Reader{Sheet: sheet, Columns: columns}
}

// Parse reads the xlsx bytes into a Roster, preserving source row order.
// A required column missing from the header row fails the whole parse.
func (r *Reader) Parse(data []byte) (*Roster, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Message: "failed to open workbook", Cause: err}
	}
	defer f.Close()

	sheet := r.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Message: "failed to read worksheet " + sheet, Cause: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Message: "worksheet " + sheet + " has no header row"}
	}

	headers := make([]string, len(rows[0]))
	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		headers[i] = h
		if h != "" {
			index[strings.ToLower(h)] = i
		}
	}

	required := []struct{ key, header string }{
		{types.ColumnName, r.Columns.Name},
		{types.ColumnNationalID, r.Columns.NationalID},
		{types.ColumnCompany, r.Columns.Company},
		{types.ColumnStatus, r.Columns.Status},
	}
	for _, req := range required {
		if _, ok := index[strings.ToLower(req.header)]; !ok {
			return nil, &MissingColumnError{Column: req.key, Header: req.header}
		}
	}

	statusIdx := index[strings.ToLower(r.Columns.Status)]
	statusCol, err := excelize.ColumnNumberToName(statusIdx + 1)
	if err != nil {
		return nil, &ParseError{Message: "failed to compute status column", Cause: err}
	}

	roster := &Roster{
		Sheet:        sheet,
		Headers:      headers,
		StatusColumn: statusCol,
	}

	for i, cells := range rows[1:] {
		row := types.RosterRow{
			// Spreadsheet rows are 1-based and row 1 is the header.
			Index:  i + 2,
			Values: make(map[string]string, len(headers)),
		}
		empty := true
		for col, header := range headers {
			if header == "" {
				continue
			}
			var v string
			if col < len(cells) {
				v = strings.TrimSpace(cells[col])
			}
			row.Values[header] = v
			if v != "" {
				empty = false
			}
		}
		if empty {
			continue
		}

		row.Name = row.Values[headers[index[strings.ToLower(r.Columns.Name)]]]
		row.NationalID = row.Values[headers[index[strings.ToLower(r.Columns.NationalID)]]]
		row.Company = row.Values[headers[index[strings.ToLower(r.Columns.Company)]]]
		row.Status = row.Values[headers[index[strings.ToLower(r.Columns.Status)]]]

		if r.Columns.Date != "" {
			if di, ok := index[strings.ToLower(r.Columns.Date)]; ok {
				header := headers[di]
				row.Values[header] = formatDate(row.Values[header])
			}
		}

		roster.Rows = append(roster.Rows, row)
	}

	return roster, nil
}

// dateLayouts are the formats accepted for the roster date column, most
// specific first. Excel serial dates come back from GetRows already formatted
// by the cell style, so only textual layouts are handled here.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// formatDate normalizes a roster date value to DD/MM/YYYY. Values that do not
// parse with any known layout pass through verbatim.
func formatDate(value string) string {
	if value == "" {
		return value
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return value
}
