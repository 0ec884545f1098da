package rendering

import (
	"context"
	"html"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/datacampus/certgen/internal/types"
)

// HTMLRenderer fills an HTML template with roster row values and prints it to
// PDF through headless Chrome. It is the rendering path for hosts without
// LibreOffice; the {{token}} marker convention is the same as for .docx
// templates. Requires Chrome/Chromium to be installed on the system.
type HTMLRenderer struct {
	TemplatePath string
	// Timeout bounds the whole browser session for one render.
	Timeout time.Duration
}

// Render loads the template, substitutes the row's values and prints the page
// to PDF.
func (r *HTMLRenderer) Render(ctx context.Context, row types.RosterRow) ([]byte, error) {
	content, err := os.ReadFile(r.TemplatePath)
	if err != nil {
		return nil, &TemplateLoadError{Path: r.TemplatePath, Message: "failed to read template", Cause: err}
	}

	filled := Substitute(string(content), row, html.EscapeString)

	// Chrome needs a navigable URL, so the filled page goes through a
	// scratch file.
	workDir, err := os.MkdirTemp("", "certgen-render-*")
	if err != nil {
		return nil, &ConversionError{Message: "failed to create scratch directory", Cause: err}
	}
	defer os.RemoveAll(workDir)

	pagePath := filepath.Join(workDir, "certificate.html")
	if err := os.WriteFile(pagePath, []byte(filled), 0644); err != nil {
		return nil, &ConversionError{Message: "failed to write page to scratch directory", Cause: err}
	}

	pdf, err := printToPDF(ctx, "file://"+pagePath, r.Timeout)
	if err != nil {
		return nil, &ConversionError{Message: "headless browser print failed", Cause: err}
	}
	return pdf, nil
}

// printToPDF renders a URL in a headless browser and returns the printed PDF.
func printToPDF(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if timeout <= 0 {
		timeout = DefaultConvertTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
