// Package testutil builds minimal real documents for extractor and
// handler tests: OOXML zips, a one-page PDF, a tiny PNG, and a stub
// OCR engine.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// StubOCR is a canned OCR engine for tests.
type StubOCR struct {
	Text string
	Err  error
}

func (s *StubOCR) Recognize(_ []byte) (string, error) {
	return s.Text, s.Err
}

// StubVision is a canned vision engine for tests.
type StubVision struct {
	Description string
	Err         error
}

func (s *StubVision) Provider() string { return "stub" }

func (s *StubVision) Model() string { return "stub-model" }

func (s *StubVision) Analyze(_ []byte, _ string) (string, error) {
	return s.Description, s.Err
}

// DocxParagraph is one paragraph for DocxBytes.
type DocxParagraph struct {
	Text  string
	Style string
}

// DocxBytes builds a minimal .docx archive containing the given
// paragraphs in word/document.xml.
func DocxBytes(t *testing.T, paras ...DocxParagraph) []byte {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paras {
		body.WriteString("<w:p>")
		if p.Style != "" {
			fmt.Fprintf(&body, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, p.Style)
		}
		fmt.Fprintf(&body, "<w:r><w:t>%s</w:t></w:r></w:p>", xmlEscape(p.Text))
	}
	body.WriteString("</w:body></w:document>")

	return zipBytes(t, map[string]string{
		"word/document.xml": body.String(),
	})
}

// DocxTableBytes builds a .docx whose body is a single table with the
// given rows, first row acting as headers.
func DocxTableBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:tbl>`)
	for _, row := range rows {
		body.WriteString("<w:tr>")
		for _, cell := range row {
			fmt.Fprintf(&body, "<w:tc><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:tc>", xmlEscape(cell))
		}
		body.WriteString("</w:tr>")
	}
	body.WriteString("</w:tbl></w:body></w:document>")

	return zipBytes(t, map[string]string{
		"word/document.xml": body.String(),
	})
}

// PptxSlide is one slide for PptxBytes.
type PptxSlide struct {
	Title   string
	Bullets []string
	Notes   string
}

// PptxBytes builds a minimal .pptx archive with one slide part per
// entry, plus a notes part where Notes is set.
func PptxBytes(t *testing.T, slides ...PptxSlide) []byte {
	t.Helper()

	parts := map[string]string{}
	for i, s := range slides {
		var sb strings.Builder
		sb.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`)
		if s.Title != "" {
			fmt.Fprintf(&sb, `<p:sp><p:nvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, xmlEscape(s.Title))
		}
		if len(s.Bullets) > 0 {
			sb.WriteString("<p:sp><p:txBody>")
			for _, b := range s.Bullets {
				fmt.Fprintf(&sb, "<a:p><a:r><a:t>%s</a:t></a:r></a:p>", xmlEscape(b))
			}
			sb.WriteString("</p:txBody></p:sp>")
		}
		sb.WriteString("</p:spTree></p:cSld></p:sld>")
		parts[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = sb.String()

		if s.Notes != "" {
			notes := fmt.Sprintf(`<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:notes>`, xmlEscape(s.Notes))
			parts[fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", i+1)] = notes
		}
	}
	return zipBytes(t, parts)
}

// XlsxBytes builds a real .xlsx workbook with the given rows on Sheet1.
func XlsxBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow("Sheet1", cell, &vals); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

// PNGBytes encodes a small solid-color PNG.
func PNGBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// PDFBytes builds a valid one-page PDF whose content stream draws the
// given text with a single Tj operator.
func PDFBytes(t *testing.T, text string) []byte {
	t.Helper()

	stream := fmt.Sprintf("BT\n/F1 12 Tf\n(%s) Tj\nET", pdfEscape(text))

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return buf.Bytes()
}

// zipBytes writes the given name→content map as a zip archive.
func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func pdfEscape(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return r.Replace(s)
}
