package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

const mimePDF = "application/pdf"

// imageTypes are passed to the vision model unchanged
var imageTypes = []string{"image/png", "image/jpeg", "image/webp"}

// RendererConfig limits what an upload may cost
type RendererConfig struct {
	MaxPages    int
	MaxBytes    int64
	JPEGQuality int
}

// Renderer turns uploads into page images for vision extraction
type Renderer struct {
	cfg    RendererConfig
	logger *zap.Logger
}

// NewRenderer creates a new document renderer
func NewRenderer(cfg RendererConfig, logger *zap.Logger) *Renderer {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 2
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{cfg: cfg, logger: logger}
}

// Render sniffs the content type and returns the pages to extract from.
// Types other than PDF and common images fail with port.ErrUnsupportedDocument.
func (r *Renderer) Render(ctx context.Context, fileName string, data []byte) ([]port.Attachment, string, error) {
	if int64(len(data)) > r.cfg.MaxBytes {
		return nil, "", fmt.Errorf("%w: %s is larger than %d bytes", port.ErrUnsupportedDocument, fileName, r.cfg.MaxBytes)
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is(mimePDF):
		pages, err := r.renderPDF(data)
		if err != nil {
			r.logger.Warn("Failed to render PDF", zap.String("file_name", fileName), zap.Error(err))
			return nil, mimePDF, err
		}
		r.logger.Debug("Rendered PDF", zap.String("file_name", fileName), zap.Int("pages", len(pages)))
		return pages, mimePDF, nil
	case mimetype.EqualsAny(mtype.String(), imageTypes...):
		return []port.Attachment{{MIMEType: mtype.String(), Data: data}}, mtype.String(), nil
	default:
		return nil, "", fmt.Errorf("%w: %s (%s)", port.ErrUnsupportedDocument, fileName, mtype.String())
	}
}

// renderPDF rasterizes the first MaxPages pages to JPEG
func (r *Renderer) renderPDF(data []byte) ([]port.Attachment, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if pageCount > r.cfg.MaxPages {
		pageCount = r.cfg.MaxPages
	}

	pages := make([]port.Attachment, 0, pageCount)
	for n := 0; n < pageCount; n++ {
		img, err := doc.Image(n)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", n+1, err)
		}
		encoded, err := r.encodeJPEG(img)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", n+1, err)
		}
		pages = append(pages, port.Attachment{MIMEType: "image/jpeg", Data: encoded})
	}
	return pages, nil
}

func (r *Renderer) encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.cfg.JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ port.DocumentRenderer = (*Renderer)(nil)
