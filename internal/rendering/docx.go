package rendering

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/datacampus/certgen/internal/types"
)

// PDFConverter converts a filled .docx document to PDF bytes.
type PDFConverter interface {
	Convert(ctx context.Context, docx []byte) ([]byte, error)
}

// DocxRenderer fills a Word template with roster row values. The template is
// an ordinary .docx whose text carries {{token}} markers named after roster
// columns; the filled document is converted to PDF by the Converter.
type DocxRenderer struct {
	TemplatePath string
	Converter    PDFConverter
}

// Render loads the template, substitutes the row's values into every document
// part and converts the result to PDF.
func (r *DocxRenderer) Render(ctx context.Context, row types.RosterRow) ([]byte, error) {
	data, err := os.ReadFile(r.TemplatePath)
	if err != nil {
		return nil, &TemplateLoadError{Path: r.TemplatePath, Message: "failed to read template", Cause: err}
	}

	filled, err := FillDocx(data, row)
	if err != nil {
		return nil, err
	}

	pdf, err := r.Converter.Convert(ctx, filled)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// FillDocx substitutes {{token}} markers across the document body, headers
// and footers of a .docx archive and returns the rebuilt archive.
func FillDocx(docx []byte, row types.RosterRow) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		return nil, &TemplateLoadError{Message: "template is not a valid .docx archive", Cause: err}
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)

	for _, entry := range zr.File {
		rc, err := entry.Open()
		if err != nil {
			return nil, &TemplateLoadError{Message: "failed to open archive entry " + entry.Name, Cause: err}
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &TemplateLoadError{Message: "failed to read archive entry " + entry.Name, Cause: err}
		}

		if isTextPart(entry.Name) {
			content = []byte(Substitute(string(content), row, EscapeXML))
		}

		w, err := zw.Create(entry.Name)
		if err != nil {
			return nil, &TemplateLoadError{Message: "failed to rebuild archive", Cause: err}
		}
		if _, err := w.Write(content); err != nil {
			return nil, &TemplateLoadError{Message: "failed to rebuild archive", Cause: err}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, &TemplateLoadError{Message: "failed to finalize archive", Cause: err}
	}
	return out.Bytes(), nil
}

// isTextPart reports whether a .docx archive entry can carry placeholder
// markers: the main body plus headers and footers.
func isTextPart(name string) bool {
	if name == "word/document.xml" {
		return true
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasSuffix(name, ".xml") &&
		(strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer"))
}
