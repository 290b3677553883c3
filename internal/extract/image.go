package extract

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	// Long-tail raster formats the converter accepts.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// ImageExtractor handles raster images: dimensions, base64 payload of the
// original bytes, OCR text from the injected engine, and an optional vision
// model description when an engine is configured.
type ImageExtractor struct {
	OCR    OCREngine
	Vision VisionEngine
}

func (e *ImageExtractor) Category() models.Category { return models.CategoryImage }

func (e *ImageExtractor) Extract(data []byte, filename string) (*Content, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, extractErr(filename, fmt.Errorf("decode image: %w", err))
	}

	ocrText := ""
	if e.OCR != nil {
		text, err := e.OCR.Recognize(data)
		if err != nil {
			return nil, extractErr(filename, fmt.Errorf("ocr: %w", err))
		}
		ocrText = strings.TrimSpace(text)
	}

	img := &Image{
		Format:  strings.ToUpper(format),
		MIME:    "image/" + format,
		Width:   cfg.Width,
		Height:  cfg.Height,
		OCRText: ocrText,
		Base64:  base64.StdEncoding.EncodeToString(data),
	}

	// The vision pass is best-effort: a provider failure is recorded in
	// the result and the rest of the extraction stands.
	if e.Vision != nil {
		va := &VisionAnalysis{Provider: e.Vision.Provider(), Model: e.Vision.Model()}
		if desc, err := e.Vision.Analyze(data, img.MIME); err != nil {
			va.Err = err.Error()
		} else {
			va.Analysis = desc
		}
		img.Vision = va
	}

	return &Content{
		SourceType: "image_" + format,
		Image:      img,
		Text:       ocrText,
		Metadata: map[string]any{
			"format":            img.Format,
			"width":             cfg.Width,
			"height":            cfg.Height,
			"ocr_word_count":    len(strings.Fields(ocrText)),
			"base64_size_bytes": len(img.Base64),
			"vision_analyzed":   img.Vision.Succeeded(),
		},
	}, nil
}
