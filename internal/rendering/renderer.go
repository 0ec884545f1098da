package rendering

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/datacampus/certgen/internal/types"
)

// DefaultConvertTimeout bounds a single document-to-PDF conversion.
const DefaultConvertTimeout = 60 * time.Second

// Renderer produces a PDF certificate for one roster row. Implementations
// load their own copy of the template on every call so concurrent or repeated
// renders never share substitution state.
type Renderer interface {
	Render(ctx context.Context, row types.RosterRow) ([]byte, error)
}

// NewRenderer selects a renderer implementation from the template's file
// extension: .docx templates go through LibreOffice, .html/.htm/.tmpl
// templates through headless Chrome.
func NewRenderer(templatePath string, timeout time.Duration) (Renderer, error) {
	if timeout <= 0 {
		timeout = DefaultConvertTimeout
	}

	switch strings.ToLower(filepath.Ext(templatePath)) {
	case ".docx":
		return &DocxRenderer{
			TemplatePath: templatePath,
			Converter:    &SofficeConverter{Timeout: timeout},
		}, nil
	case ".html", ".htm", ".tmpl":
		return &HTMLRenderer{TemplatePath: templatePath, Timeout: timeout}, nil
	default:
		return nil, &TemplateLoadError{
			Path:    templatePath,
			Message: "unsupported template format (expected .docx or .html)",
		}
	}
}
