package invoice

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/odyssey-erp/odyssey-billing/report"
	"github.com/odyssey-erp/odyssey-billing/web"
)

const invoiceTemplate = "invoice/invoice.html"

// HTMLRenderer renders the embedded invoice template.
type HTMLRenderer struct {
	templates *template.Template
}

// NewHTMLRenderer parses the invoice template from web.Templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tpl, err := template.New("invoice").ParseFS(web.Templates, "templates/invoice/invoice.html")
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &HTMLRenderer{templates: tpl}, nil
}

func (r *HTMLRenderer) Extension() string { return "html" }

func (r *HTMLRenderer) Render(ctx context.Context, layout Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := r.templates.ExecuteTemplate(buf, invoiceTemplate, layout); err != nil {
		return nil, fmt.Errorf("invoice: render html: %w", err)
	}
	return buf.Bytes(), nil
}

// GotenbergRenderer converts the HTML rendition to PDF on a Gotenberg server.
type GotenbergRenderer struct {
	html   *HTMLRenderer
	client *report.Client
}

// NewGotenbergRenderer builds a renderer for the Gotenberg server at
// endpoint. client may be nil.
func NewGotenbergRenderer(endpoint string, client *report.Client) (*GotenbergRenderer, error) {
	html, err := NewHTMLRenderer()
	if err != nil {
		return nil, err
	}
	if client == nil {
		if endpoint == "" {
			return nil, fmt.Errorf("invoice: gotenberg endpoint required")
		}
		client = report.NewClient(endpoint, nil)
	}
	return &GotenbergRenderer{html: html, client: client}, nil
}

func (r *GotenbergRenderer) Extension() string { return "pdf" }

func (r *GotenbergRenderer) Render(ctx context.Context, layout Layout) ([]byte, error) {
	doc, err := r.html.Render(ctx, layout)
	if err != nil {
		return nil, err
	}
	pdf, err := r.client.RenderHTML(ctx, doc, report.Letter)
	if err != nil {
		return nil, fmt.Errorf("invoice: gotenberg: %w", err)
	}
	return pdf, nil
}
