package rendering

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacampus/certgen/internal/types"
)

// buildDocx creates a minimal .docx archive with the given body XML.
func buildDocx(t *testing.T, body string, extra map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types/>`,
		"word/document.xml":   body,
	}
	for name, content := range extra {
		parts[name] = content
	}
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// readPart extracts one entry from a zip archive.
func readPart(t *testing.T, archive []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(content)
		}
	}
	t.Fatalf("part %s not found in archive", name)
	return ""
}

func sampleRow() types.RosterRow {
	return types.RosterRow{
		Index:      2,
		Name:       "Ana Pérez",
		NationalID: "800123",
		Company:    "Acme & Co",
		Values: map[string]string{
			"name":        "Ana Pérez",
			"company":     "Acme & Co",
			"hours":       "40",
			"unmatched":   "ignored",
			"national_id": "800123",
		},
	}
}

func TestFillDocx_SubstitutesMarkers(t *testing.T) {
	docx := buildDocx(t, `<w:t>Certificate for {{name}} ({{hours}} hours) at {{company}}</w:t>`, nil)

	filled, err := FillDocx(docx, sampleRow())
	require.NoError(t, err)

	body := readPart(t, filled, "word/document.xml")
	assert.Contains(t, body, "Certificate for Ana Pérez (40 hours)")
	assert.Contains(t, body, "Acme &amp; Co", "values are XML-escaped")
	assert.NotContains(t, body, "{{")
}

func TestFillDocx_MarkerSplitAcrossRuns(t *testing.T) {
	// Word splits marker text across formatting runs; the tags inside the
	// braces must not hide the token.
	docx := buildDocx(t, `<w:t>{{na</w:t><w:t>me}}</w:t>`, nil)

	filled, err := FillDocx(docx, sampleRow())
	require.NoError(t, err)

	body := readPart(t, filled, "word/document.xml")
	assert.Contains(t, body, "Ana Pérez")
}

func TestFillDocx_MissingColumnRendersEmpty(t *testing.T) {
	docx := buildDocx(t, `<w:t>Date: {{date}}.</w:t>`, nil)

	filled, err := FillDocx(docx, sampleRow())
	require.NoError(t, err)

	body := readPart(t, filled, "word/document.xml")
	assert.Contains(t, body, "Date: .", "missing column resolves to empty string")
}

func TestFillDocx_HeadersAndFooters(t *testing.T) {
	docx := buildDocx(t, `<w:t>body</w:t>`, map[string]string{
		"word/header1.xml": `<w:t>{{company}}</w:t>`,
		"word/footer1.xml": `<w:t>{{national_id}}</w:t>`,
		"word/styles.xml":  `<w:t>{{name}}</w:t>`, // not a text part, untouched
	})

	filled, err := FillDocx(docx, sampleRow())
	require.NoError(t, err)

	assert.Contains(t, readPart(t, filled, "word/header1.xml"), "Acme &amp; Co")
	assert.Contains(t, readPart(t, filled, "word/footer1.xml"), "800123")
	assert.Contains(t, readPart(t, filled, "word/styles.xml"), "{{name}}")
}

func TestFillDocx_NotAnArchive(t *testing.T) {
	_, err := FillDocx([]byte("not a zip"), sampleRow())
	require.Error(t, err)

	var loadErr *TemplateLoadError
	assert.ErrorAs(t, err, &loadErr)
}

// fakeConverter returns its input unchanged so tests can inspect the filled
// document without LibreOffice installed.
type fakeConverter struct {
	calls int
	err   error
}

func (f *fakeConverter) Convert(_ context.Context, docx []byte) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return docx, nil
}

func TestDocxRenderer_Render(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.docx")
	docx := buildDocx(t, `<w:t>{{name}}</w:t>`, nil)
	require.NoError(t, os.WriteFile(path, docx, 0644))

	conv := &fakeConverter{}
	r := &DocxRenderer{TemplatePath: path, Converter: conv}

	out, err := r.Render(context.Background(), sampleRow())
	require.NoError(t, err)
	assert.Equal(t, 1, conv.calls)
	assert.Contains(t, readPart(t, out, "word/document.xml"), "Ana Pérez")
}

func TestDocxRenderer_RenderIsByteIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.docx")
	docx := buildDocx(t, `<w:t>{{name}} {{company}}</w:t>`, nil)
	require.NoError(t, os.WriteFile(path, docx, 0644))

	r := &DocxRenderer{TemplatePath: path, Converter: &fakeConverter{}}

	first, err := r.Render(context.Background(), sampleRow())
	require.NoError(t, err)
	second, err := r.Render(context.Background(), sampleRow())
	require.NoError(t, err)

	assert.Equal(t, first, second, "rendering the same row twice must produce identical bytes")
}

func TestDocxRenderer_TemplateNotFound(t *testing.T) {
	r := &DocxRenderer{TemplatePath: "/nonexistent/template.docx", Converter: &fakeConverter{}}

	_, err := r.Render(context.Background(), sampleRow())
	require.Error(t, err)

	var loadErr *TemplateLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestNewRenderer_Dispatch(t *testing.T) {
	dir := t.TempDir()
	docxPath := filepath.Join(dir, "t.docx")
	htmlPath := filepath.Join(dir, "t.html")
	require.NoError(t, os.WriteFile(docxPath, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(htmlPath, []byte("x"), 0644))

	r, err := NewRenderer(docxPath, 0)
	require.NoError(t, err)
	assert.IsType(t, &DocxRenderer{}, r)

	r, err = NewRenderer(htmlPath, 0)
	require.NoError(t, err)
	assert.IsType(t, &HTMLRenderer{}, r)

	_, err = NewRenderer(filepath.Join(dir, "t.pdf"), 0)
	require.Error(t, err)
	var loadErr *TemplateLoadError
	assert.ErrorAs(t, err, &loadErr)
}
