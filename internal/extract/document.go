package extract

import (
	"path/filepath"
	"strings"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// DocumentExtractor handles PDF and Word inputs.
type DocumentExtractor struct{}

func (e *DocumentExtractor) Category() models.Category { return models.CategoryDocument }

func (e *DocumentExtractor) Extract(data []byte, filename string) (*Content, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data, filename)
	default:
		// .docx and legacy .doc both go through the OOXML path; a true
		// binary .doc is not a zip and surfaces as an ExtractionError.
		return extractDocx(data, filename)
	}
}
