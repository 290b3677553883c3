package render

import (
	"encoding/json"
	"fmt"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/extract"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// JSONSerializer renders content as a structured JSON document:
// {source, content, metadata}. Map keys sort during marshalling, so the
// output is byte-stable for identical content.
type JSONSerializer struct{}

func (s *JSONSerializer) Format() models.OutputFormat { return models.FormatJSON }

type jsonSource struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

type jsonDocument struct {
	Source   jsonSource     `json:"source"`
	Content  any            `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// jsonSheet converts rows into record objects keyed by header, which is the
// shape downstream AI tooling consumes directly.
type jsonSheet struct {
	Name    string              `json:"name"`
	Headers []string            `json:"headers,omitempty"`
	Records []map[string]string `json:"records,omitempty"`
	RawRows [][]string          `json:"raw_rows"`
}

type jsonImageContent struct {
	OCRText        string         `json:"ocr_text"`
	Base64Data     string         `json:"base64_data"`
	Base64MIME     string         `json:"base64_mime"`
	Base64DataURI  string         `json:"base64_data_uri"`
	VisionAnalysis map[string]any `json:"vision_analysis,omitempty"`
}

// visionJSON mirrors the analysis result shape: success plus either the
// analysis text or the provider error.
func visionJSON(v *extract.VisionAnalysis) map[string]any {
	if v == nil {
		return nil
	}
	out := map[string]any{
		"success":  v.Succeeded(),
		"provider": v.Provider,
		"model":    v.Model,
	}
	if v.Analysis != "" {
		out["analysis"] = v.Analysis
	}
	if v.Err != "" {
		out["error"] = v.Err
	}
	return out
}

func (s *JSONSerializer) Render(filename string, c *extract.Content) (string, error) {
	doc := jsonDocument{
		Source:   jsonSource{Filename: filename, Type: c.SourceType},
		Metadata: c.Metadata,
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}

	switch {
	case c.Image != nil:
		doc.Content = jsonImageContent{
			OCRText:        c.Image.OCRText,
			Base64Data:     c.Image.Base64,
			Base64MIME:     c.Image.MIME,
			Base64DataURI:  fmt.Sprintf("data:%s;base64,%s", c.Image.MIME, c.Image.Base64),
			VisionAnalysis: visionJSON(c.Image.Vision),
		}
	case len(c.Sheets) > 0:
		sheets := make([]jsonSheet, 0, len(c.Sheets))
		for _, sheet := range c.Sheets {
			sheets = append(sheets, toJSONSheet(sheet))
		}
		doc.Content = map[string]any{"sheets": sheets}
	case len(c.Slides) > 0:
		doc.Content = map[string]any{
			"slides": c.Slides,
			"text":   c.Text,
		}
	case len(c.Pages) > 0:
		doc.Content = map[string]any{
			"pages": c.Pages,
			"text":  c.Text,
		}
	default:
		doc.Content = map[string]any{
			"paragraphs": c.Paragraphs,
			"tables":     c.Tables,
			"text":       c.Text,
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json output: %w", err)
	}
	return string(out) + "\n", nil
}

func toJSONSheet(sheet extract.Sheet) jsonSheet {
	js := jsonSheet{
		Name:    sheet.Name,
		Headers: sheet.Headers,
		RawRows: sheet.Rows,
	}
	if len(sheet.Headers) == 0 || len(sheet.Rows) < 2 {
		return js
	}
	for _, row := range sheet.Rows[1:] {
		record := make(map[string]string, len(sheet.Headers))
		for i, header := range sheet.Headers {
			if header == "" {
				continue
			}
			if i < len(row) {
				record[header] = row[i]
			} else {
				record[header] = ""
			}
		}
		js.Records = append(js.Records, record)
	}
	return js
}
