// Package extract turns raw uploaded bytes into structured content,
// one extractor per input category.
package extract

import "fmt"

// Table is tabular data with the first row treated as headers when present.
type Table struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

// Paragraph is a unit of document text; HeadingLevel > 0 marks a heading.
type Paragraph struct {
	Text         string `json:"text"`
	HeadingLevel int    `json:"headingLevel,omitempty"`
	Style        string `json:"style,omitempty"`
}

// Page holds the text and tables extracted from one PDF page.
type Page struct {
	Number int     `json:"pageNumber"`
	Text   string  `json:"text"`
	Tables []Table `json:"tables,omitempty"`
}

// Slide holds the content of one presentation slide.
type Slide struct {
	Number  int      `json:"slideNumber"`
	Title   string   `json:"title,omitempty"`
	Bullets []string `json:"content,omitempty"`
	Tables  []Table  `json:"tables,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}

// Sheet holds one spreadsheet tab. Empty rows are skipped during extraction.
type Sheet struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

// Image holds a decoded raster image plus its OCR text, the original bytes
// encoded as base64 for embedding in text output, and the optional vision
// model description.
type Image struct {
	Format  string          `json:"format"`
	MIME    string          `json:"mime"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	OCRText string          `json:"ocrText"`
	Base64  string          `json:"base64"`
	Vision  *VisionAnalysis `json:"vision,omitempty"`
}

// Content is the structured result of extracting one file. Exactly one of
// the category-specific groups is populated, according to SourceType.
type Content struct {
	SourceType string // human-readable type name, e.g. "pdf_document"

	Pages      []Page      // document: pdf
	Paragraphs []Paragraph // document: docx
	Tables     []Table     // document: docx body tables
	Sheets     []Sheet     // spreadsheet
	Slides     []Slide     // presentation
	Image      *Image      // image

	Text     string // concatenated plain text of the whole file
	Metadata map[string]any
}

// ExtractionError reports that an extractor could not parse the input bytes.
// It wraps the underlying cause for errors.Is/As.
type ExtractionError struct {
	Filename string
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Filename, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// extractErr wraps a cause into an ExtractionError.
func extractErr(filename string, cause error) *ExtractionError {
	return &ExtractionError{Filename: filename, Cause: cause}
}
