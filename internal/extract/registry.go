package extract

import (
	"path/filepath"
	"strings"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// Extractor is a pure transformation from raw input bytes to structured
// content, specific to one input category.
type Extractor interface {
	Category() models.Category
	// Extract parses the raw bytes. The filename is used for extension
	// sub-dispatch (e.g. .csv vs .xlsx) and error reporting only.
	Extract(data []byte, filename string) (*Content, error)
}

// Registry maps input extensions to extractors. Adding a format is an
// additive Register call, not a change to dispatch control flow.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry builds a registry with the full default extractor set.
// The OCR and vision engines are injected so tests can stub them out;
// vision may be nil to disable the analysis pass.
func NewRegistry(ocr OCREngine, vision VisionEngine) *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}

	doc := &DocumentExtractor{}
	r.Register(doc, ".pdf", ".docx", ".doc")

	pres := &PresentationExtractor{}
	r.Register(pres, ".pptx", ".ppt")

	sheet := &SpreadsheetExtractor{}
	r.Register(sheet, ".xlsx", ".xls", ".csv")

	img := &ImageExtractor{OCR: ocr, Vision: vision}
	r.Register(img, ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp")

	return r
}

// Register binds an extractor to one or more extensions.
func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Find returns the extractor for a filename's extension.
func (r *Registry) Find(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, models.ErrUnsupportedFormat
	}
	return e, nil
}
