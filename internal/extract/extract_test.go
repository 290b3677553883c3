package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/testutil"
)

func TestRegistryFindsExtractorByExtension(t *testing.T) {
	reg := NewRegistry(&testutil.StubOCR{}, nil)

	cases := []struct {
		filename string
		want     string
	}{
		{"a.pdf", "document"},
		{"a.docx", "document"},
		{"a.pptx", "presentation"},
		{"a.xlsx", "spreadsheet"},
		{"a.csv", "spreadsheet"},
		{"a.png", "image"},
	}
	for _, tc := range cases {
		e, err := reg.Find(tc.filename)
		require.NoError(t, err, tc.filename)
		assert.Equal(t, tc.want, string(e.Category()), tc.filename)
	}

	_, err := reg.Find("a.exe")
	assert.Error(t, err)
}

func TestExtractDocxParagraphsAndHeadings(t *testing.T) {
	data := testutil.DocxBytes(t,
		testutil.DocxParagraph{Text: "Quarterly Report", Style: "Heading1"},
		testutil.DocxParagraph{Text: "Revenue grew in Q3."},
		testutil.DocxParagraph{Text: "Outlook", Style: "Heading2"},
	)

	content, err := (&DocumentExtractor{}).Extract(data, "report.docx")
	require.NoError(t, err)

	assert.Equal(t, "word_document", content.SourceType)
	require.Len(t, content.Paragraphs, 3)
	assert.Equal(t, 1, content.Paragraphs[0].HeadingLevel)
	assert.Equal(t, 0, content.Paragraphs[1].HeadingLevel)
	assert.Equal(t, 2, content.Paragraphs[2].HeadingLevel)
	assert.Contains(t, content.Text, "Revenue grew in Q3.")
	assert.Equal(t, 2, content.Metadata["heading_count"])
}

func TestExtractDocxTable(t *testing.T) {
	data := testutil.DocxTableBytes(t, [][]string{
		{"Name", "Role"},
		{"Ada", "Engineer"},
		{"Grace", "Admiral"},
	})

	content, err := (&DocumentExtractor{}).Extract(data, "team.docx")
	require.NoError(t, err)

	require.Len(t, content.Tables, 1)
	assert.Equal(t, []string{"Name", "Role"}, content.Tables[0].Headers)
	assert.Len(t, content.Tables[0].Rows, 3)
}

func TestExtractDocxRejectsNonZip(t *testing.T) {
	_, err := (&DocumentExtractor{}).Extract([]byte("not a zip"), "broken.docx")
	require.Error(t, err)

	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "broken.docx", ee.Filename)
}

func TestExtractPptxSlidesAndNotes(t *testing.T) {
	data := testutil.PptxBytes(t,
		testutil.PptxSlide{Title: "Welcome", Bullets: []string{"Agenda", "Introductions"}, Notes: "Keep it short"},
		testutil.PptxSlide{Title: "Results", Bullets: []string{"Up and to the right"}},
	)

	content, err := (&PresentationExtractor{}).Extract(data, "deck.pptx")
	require.NoError(t, err)

	assert.Equal(t, "powerpoint_presentation", content.SourceType)
	require.Len(t, content.Slides, 2)

	first := content.Slides[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "Welcome", first.Title)
	assert.Equal(t, []string{"Agenda", "Introductions"}, first.Bullets)
	assert.Equal(t, "Keep it short", first.Notes)

	assert.Equal(t, 2, content.Slides[1].Number)
	assert.Equal(t, "Results", content.Slides[1].Title)
}

func TestExtractPptxEmptyArchive(t *testing.T) {
	data := testutil.DocxBytes(t) // a zip with no slide parts
	_, err := (&PresentationExtractor{}).Extract(data, "empty.pptx")
	assert.Error(t, err)
}

func TestExtractCSV(t *testing.T) {
	csv := "name,qty\nwidget,3\ngadget,7\n"

	content, err := (&SpreadsheetExtractor{}).Extract([]byte(csv), "inventory.csv")
	require.NoError(t, err)

	assert.Equal(t, "csv_spreadsheet", content.SourceType)
	require.Len(t, content.Sheets, 1)
	sheet := content.Sheets[0]
	assert.Equal(t, "Sheet1", sheet.Name)
	assert.Equal(t, []string{"name", "qty"}, sheet.Headers)
	assert.Len(t, sheet.Rows, 3)
	assert.Contains(t, content.Text, "widget, 3")
}

func TestExtractCSVRaggedRows(t *testing.T) {
	csv := "a,b,c\n1,2\n3,4,5,6\n"

	content, err := (&SpreadsheetExtractor{}).Extract([]byte(csv), "ragged.csv")
	require.NoError(t, err)
	assert.Len(t, content.Sheets[0].Rows, 3)
}

func TestExtractXlsx(t *testing.T) {
	data := testutil.XlsxBytes(t, [][]string{
		{"region", "total"},
		{"north", "120"},
		{"south", "80"},
	})

	content, err := (&SpreadsheetExtractor{}).Extract(data, "sales.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "excel_spreadsheet", content.SourceType)
	require.Len(t, content.Sheets, 1)
	assert.Equal(t, []string{"region", "total"}, content.Sheets[0].Headers)
	assert.Len(t, content.Sheets[0].Rows, 3)
}

func TestExtractImageWithOCR(t *testing.T) {
	e := &ImageExtractor{OCR: &testutil.StubOCR{Text: "RECEIPT TOTAL 42.00"}}

	content, err := e.Extract(testutil.PNGBytes(t), "scan.png")
	require.NoError(t, err)

	assert.Equal(t, "image_png", content.SourceType)
	require.NotNil(t, content.Image)
	assert.Equal(t, "PNG", content.Image.Format)
	assert.Equal(t, 4, content.Image.Width)
	assert.Equal(t, 4, content.Image.Height)
	assert.Equal(t, "RECEIPT TOTAL 42.00", content.Image.OCRText)
	assert.NotEmpty(t, content.Image.Base64)
	assert.Equal(t, 3, content.Metadata["ocr_word_count"])
}

func TestExtractImageWithVisionAnalysis(t *testing.T) {
	e := &ImageExtractor{
		OCR:    &testutil.StubOCR{Text: "label"},
		Vision: &testutil.StubVision{Description: "A white square on a plain background."},
	}

	content, err := e.Extract(testutil.PNGBytes(t), "scan.png")
	require.NoError(t, err)

	require.NotNil(t, content.Image.Vision)
	assert.Equal(t, "stub", content.Image.Vision.Provider)
	assert.Equal(t, "stub-model", content.Image.Vision.Model)
	assert.Equal(t, "A white square on a plain background.", content.Image.Vision.Analysis)
	assert.True(t, content.Image.Vision.Succeeded())
	assert.Equal(t, true, content.Metadata["vision_analyzed"])
}

func TestExtractImageVisionFailureIsNotFatal(t *testing.T) {
	e := &ImageExtractor{
		OCR:    &testutil.StubOCR{Text: "label"},
		Vision: &testutil.StubVision{Err: errors.New("provider unreachable")},
	}

	content, err := e.Extract(testutil.PNGBytes(t), "scan.png")
	require.NoError(t, err)

	// OCR and base64 output stand; the failure is recorded in the result.
	assert.Equal(t, "label", content.Image.OCRText)
	assert.NotEmpty(t, content.Image.Base64)
	require.NotNil(t, content.Image.Vision)
	assert.Equal(t, "provider unreachable", content.Image.Vision.Err)
	assert.False(t, content.Image.Vision.Succeeded())
	assert.Equal(t, false, content.Metadata["vision_analyzed"])
}

func TestExtractImageWithoutVisionEngine(t *testing.T) {
	e := &ImageExtractor{OCR: &testutil.StubOCR{Text: "label"}}

	content, err := e.Extract(testutil.PNGBytes(t), "scan.png")
	require.NoError(t, err)
	assert.Nil(t, content.Image.Vision)
	assert.Equal(t, false, content.Metadata["vision_analyzed"])
}

func TestExtractImageOCRFailure(t *testing.T) {
	e := &ImageExtractor{OCR: &testutil.StubOCR{Err: errors.New("tesseract not installed")}}

	_, err := e.Extract(testutil.PNGBytes(t), "scan.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr")
}

func TestExtractImageRejectsGarbage(t *testing.T) {
	e := &ImageExtractor{OCR: &testutil.StubOCR{}}
	_, err := e.Extract([]byte("definitely not an image"), "bad.png")
	assert.Error(t, err)
}

func TestExtractPDFText(t *testing.T) {
	data := testutil.PDFBytes(t, "Hello from the content stream")

	content, err := (&DocumentExtractor{}).Extract(data, "hello.pdf")
	require.NoError(t, err)

	assert.Equal(t, "pdf_document", content.SourceType)
	require.NotEmpty(t, content.Pages)
	assert.Equal(t, 1, content.Pages[0].Number)
	assert.True(t, strings.Contains(content.Pages[0].Text, "Hello from the content stream"))
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	_, err := (&DocumentExtractor{}).Extract([]byte("%PDF-bogus"), "bad.pdf")
	assert.Error(t, err)
}
