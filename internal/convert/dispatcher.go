// Package convert wires extractors and serializers into the per-file
// conversion dispatcher, the batch orchestrator, and the archive assembler.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/extract"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/render"
)

// Dispatcher selects the extractor/serializer pair for a file record and
// executes the conversion. Conversion is a pure function of the record's
// bytes and requested format; there are no retries.
type Dispatcher struct {
	extractors  *extract.Registry
	serializers map[models.OutputFormat]render.Serializer
}

// NewDispatcher builds a dispatcher over the given extractor registry and
// the default serializer set.
func NewDispatcher(extractors *extract.Registry) *Dispatcher {
	return &Dispatcher{
		extractors:  extractors,
		serializers: render.Serializers(),
	}
}

// Convert extracts and renders one record, returning the output filename
// and rendered text. The raw file bytes arrive separately from the record
// snapshot. taken tracks output names already claimed in the session; the
// assigned name is registered before returning.
func (d *Dispatcher) Convert(rec models.FileRecord, data []byte, taken map[string]bool) (string, string, error) {
	ser, ok := d.serializers[rec.Format]
	if !ok {
		return "", "", fmt.Errorf("%w: output format %q", models.ErrUnsupportedFormat, rec.Format)
	}

	ext, err := d.extractors.Find(rec.Filename)
	if err != nil {
		return "", "", err
	}

	content, err := ext.Extract(data, rec.Filename)
	if err != nil {
		return "", "", err
	}

	text, err := ser.Render(rec.Filename, content)
	if err != nil {
		return "", "", err
	}

	name := outputName(rec.Filename, rec.Format, taken)
	taken[name] = true
	return name, text, nil
}

// outputName derives the output filename from the original base name and
// format, suffixing " (2)", " (3)", … on collisions within the session.
func outputName(filename string, format models.OutputFormat, taken map[string]bool) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	ext := format.Extension()

	name := stem + ext
	for n := 2; taken[name]; n++ {
		name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
	return name
}
