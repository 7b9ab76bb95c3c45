package reporter

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ppiankov/a11yspectre/internal/browser"
	"github.com/ppiankov/a11yspectre/internal/models"
)

// A4 in inches, as Page.printToPDF expects.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// PDFConverter turns a complete HTML document into PDF bytes.
type PDFConverter interface {
	Convert(ctx context.Context, html []byte) ([]byte, error)
}

// PDFRenderer renders the print template and converts it to PDF
type PDFRenderer struct {
	tmpl      *template.Template
	converter PDFConverter
}

// NewPDFRenderer creates a renderer that stamps times in loc
func NewPDFRenderer(loc *time.Location, converter PDFConverter) (*PDFRenderer, error) {
	tmpl, err := parseTemplate("report.pdf.tmpl", loc)
	if err != nil {
		return nil, fmt.Errorf("parse pdf template: %w", err)
	}
	return &PDFRenderer{tmpl: tmpl, converter: converter}, nil
}

// RenderHTML returns the intermediate print document.
func (r *PDFRenderer) RenderHTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render pdf template: %w", err)
	}
	return buf.Bytes(), nil
}

// Render returns the PDF bytes for doc
func (r *PDFRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	html, err := r.RenderHTML(doc)
	if err != nil {
		return nil, err
	}
	if r.converter == nil {
		return nil, fmt.Errorf("no PDF converter configured")
	}

	pdf, err := r.converter.Convert(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("convert to pdf: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("convert to pdf: empty output")
	}
	return pdf, nil
}

// Format reports models.FormatPDF.
func (r *PDFRenderer) Format() models.Format { return models.FormatPDF }

// RenderDocument implements Renderer.
func (r *PDFRenderer) RenderDocument(ctx context.Context, doc Document) ([]byte, error) {
	return r.Render(ctx, doc)
}

// ChromePDFConverter prints documents with headless Chromium.
type ChromePDFConverter struct {
	Browser browser.Options
	Timeout time.Duration
}

// Convert loads html into a blank page and prints it to A4 PDF.
func (c *ChromePDFConverter) Convert(ctx context.Context, html []byte) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	session, err := browser.Start(ctx, c.Browser)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	var pdf []byte
	err = chromedp.Run(session.Context(),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
