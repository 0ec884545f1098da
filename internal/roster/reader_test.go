package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/datacampus/certgen/internal/config"
	"github.com/datacampus/certgen/internal/types"
)

// buildWorkbook creates an in-memory xlsx with the given header and rows.
func buildWorkbook(t *testing.T, headers []string, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func defaultHeaders() []string {
	return []string{"name", "national_id", "company", "status", "hours"}
}

func TestParse_ValidRoster(t *testing.T) {
	data := buildWorkbook(t, defaultHeaders(), [][]string{
		{"Ana Pérez", "800123", "Acme", "", "40"},
		{"Luis Gómez", "800456", "Globex", "done", "32"},
	})

	r := NewReader("", config.ColumnMap{})
	roster, err := r.Parse(data)
	require.NoError(t, err)

	require.Len(t, roster.Rows, 2)
	assert.Equal(t, "D", roster.StatusColumn)

	first := roster.Rows[0]
	assert.Equal(t, 2, first.Index, "first data row is spreadsheet row 2")
	assert.Equal(t, "Ana Pérez", first.Name)
	assert.Equal(t, "800123", first.NationalID)
	assert.Equal(t, "Acme", first.Company)
	assert.True(t, first.Pending())
	assert.Equal(t, "40", first.Field("hours"))

	second := roster.Rows[1]
	assert.Equal(t, 3, second.Index)
	assert.False(t, second.Pending())
}

func TestParse_MappedColumns(t *testing.T) {
	data := buildWorkbook(t,
		[]string{"nombre", "cedula", "compañia", "certificado"},
		[][]string{{"Ana", "800123", "Acme", "no"}},
	)

	r := NewReader("", config.ColumnMap{
		Name:       "nombre",
		NationalID: "cedula",
		Company:    "compañia",
		Status:     "certificado",
	})
	roster, err := r.Parse(data)
	require.NoError(t, err)

	require.Len(t, roster.Rows, 1)
	assert.Equal(t, "Ana", roster.Rows[0].Name)
	assert.Equal(t, "no", roster.Rows[0].Status)
	assert.True(t, roster.Rows[0].Pending())
}

func TestParse_MissingRequiredColumn(t *testing.T) {
	data := buildWorkbook(t,
		[]string{"name", "national_id", "company"}, // no status column
		[][]string{{"Ana", "800123", "Acme"}},
	)

	r := NewReader("", config.ColumnMap{})
	_, err := r.Parse(data)
	require.Error(t, err)

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, types.ColumnStatus, missing.Column)
}

func TestParse_NotASpreadsheet(t *testing.T) {
	r := NewReader("", config.ColumnMap{})
	_, err := r.Parse([]byte("definitely not xlsx"))
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParse_SkipsBlankRows(t *testing.T) {
	data := buildWorkbook(t, defaultHeaders(), [][]string{
		{"Ana", "800123", "Acme", "no", ""},
		{"", "", "", "", ""},
		{"Luis", "800456", "Globex", "no", ""},
	})

	r := NewReader("", config.ColumnMap{})
	roster, err := r.Parse(data)
	require.NoError(t, err)

	require.Len(t, roster.Rows, 2)
	assert.Equal(t, 2, roster.Rows[0].Index)
	assert.Equal(t, 4, roster.Rows[1].Index, "blank row keeps its spreadsheet index gap")
}

func TestParse_FormatsDateColumn(t *testing.T) {
	data := buildWorkbook(t,
		[]string{"name", "national_id", "company", "status", "date"},
		[][]string{
			{"Ana", "800123", "Acme", "no", "2024-03-05"},
			{"Luis", "800456", "Acme", "no", "not a date"},
		},
	)

	r := NewReader("", config.ColumnMap{Date: "date"})
	roster, err := r.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "05/03/2024", roster.Rows[0].Field("date"))
	assert.Equal(t, "not a date", roster.Rows[1].Field("date"), "unparseable dates pass through verbatim")
}

func TestSelectPending_FiltersAndPreservesOrder(t *testing.T) {
	rows := []types.RosterRow{
		{Index: 2, Status: "no"},
		{Index: 3, Status: "done"},
		{Index: 4, Status: ""},
		{Index: 5, Status: "DONE"},
		{Index: 6, Status: "doen"},
	}

	pending := SelectPending(rows)

	require.Len(t, pending, 3)
	assert.Equal(t, []int{2, 4, 6}, []int{pending[0].Index, pending[1].Index, pending[2].Index})
}

func TestSelectPending_Idempotent(t *testing.T) {
	rows := []types.RosterRow{
		{Index: 2, Status: "no"},
		{Index: 3, Status: "done"},
		{Index: 4, Status: "si"},
	}

	once := SelectPending(rows)
	twice := SelectPending(once)

	assert.Equal(t, once, twice)
}

func TestSelectPending_Empty(t *testing.T) {
	assert.Empty(t, SelectPending(nil))
	assert.Empty(t, SelectPending([]types.RosterRow{{Index: 2, Status: "done"}}))
}
