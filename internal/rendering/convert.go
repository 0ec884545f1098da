package rendering

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// SofficeConverter converts documents to PDF through a headless LibreOffice
// invocation, matching how the original deployment produced certificates.
type SofficeConverter struct {
	// Binary is the LibreOffice executable; empty means "soffice" from PATH.
	Binary string
	// Timeout bounds a single conversion.
	Timeout time.Duration
}

// Convert writes the docx to a scratch directory, runs
// `soffice --headless --convert-to pdf` and returns the produced PDF bytes.
// The scratch directory is removed afterwards regardless of outcome.
func (c *SofficeConverter) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	binary := c.Binary
	if binary == "" {
		binary = "soffice"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, &ConversionError{
			Message: fmt.Sprintf("%s not found in PATH; install LibreOffice or use an .html template", binary),
			Cause:   err,
		}
	}

	workDir, err := os.MkdirTemp("", "certgen-convert-*")
	if err != nil {
		return nil, &ConversionError{Message: "failed to create scratch directory", Cause: err}
	}
	defer os.RemoveAll(workDir)

	docxPath := filepath.Join(workDir, "certificate.docx")
	if err := os.WriteFile(docxPath, docx, 0644); err != nil {
		return nil, &ConversionError{Message: "failed to write document to scratch directory", Cause: err}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultConvertTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "--headless", "--convert-to", "pdf", "--outdir", workDir, docxPath)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	logOutput := stdout.String() + stderr.String()

	pdfPath := filepath.Join(workDir, "certificate.pdf")
	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		if runErr == nil {
			runErr = err
		}
		return nil, &ConversionError{
			Message:   "conversion produced no PDF",
			LogOutput: logOutput,
			Cause:     runErr,
		}
	}

	return pdf, nil
}
