// Package render turns structured extracted content into output text,
// one serializer per output format.
package render

import (
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/extract"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// Serializer is a pure transformation from structured content to text.
// Rendering is deterministic: the same content always produces the same
// text, so no timestamps or other volatile values appear in the output.
type Serializer interface {
	Format() models.OutputFormat
	Render(filename string, c *extract.Content) (string, error)
}

// Serializers returns the default serializer set keyed by output format.
func Serializers() map[models.OutputFormat]Serializer {
	return map[models.OutputFormat]Serializer{
		models.FormatMarkdown: &MarkdownSerializer{},
		models.FormatJSON:     &JSONSerializer{},
	}
}
