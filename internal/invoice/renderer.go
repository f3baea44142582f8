package invoice

import (
	"context"
	"fmt"
	"strings"
)

// Renderer turns a Layout into document bytes.
type Renderer interface {
	Render(ctx context.Context, layout Layout) ([]byte, error)
	// Extension is the file extension of rendered documents, without the dot.
	Extension() string
}

// Renderer kinds accepted by NewRenderer.
const (
	RendererPDF       = "pdf"
	RendererHTML      = "html"
	RendererGotenberg = "gotenberg"
)

// NewRenderer picks a renderer by kind. gotenbergURL is only used by the
// gotenberg kind.
func NewRenderer(kind, gotenbergURL string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", RendererPDF:
		return NewPDFRenderer(), nil
	case RendererHTML:
		return NewHTMLRenderer()
	case RendererGotenberg:
		return NewGotenbergRenderer(gotenbergURL, nil)
	default:
		return nil, fmt.Errorf("invoice: unknown renderer %q", kind)
	}
}
