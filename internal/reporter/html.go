package reporter

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
)

// HTMLRenderer renders the interactive HTML report
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer creates a renderer that stamps times in loc
func NewHTMLRenderer(loc *time.Location) (*HTMLRenderer, error) {
	tmpl, err := parseTemplate("report.html.tmpl", loc)
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render writes the document to w
func (r *HTMLRenderer) Render(w io.Writer, doc Document) error {
	if err := r.tmpl.Execute(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// RenderBytes returns the rendered document. Nothing is returned on error,
// so a partial document never reaches disk.
func (r *HTMLRenderer) RenderBytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Format reports models.FormatHTML.
func (r *HTMLRenderer) Format() models.Format { return models.FormatHTML }

// RenderDocument implements Renderer.
func (r *HTMLRenderer) RenderDocument(_ context.Context, doc Document) ([]byte, error) {
	return r.RenderBytes(doc)
}
