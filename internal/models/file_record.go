package models

import "time"

// Category classifies an uploaded file by its extraction semantics.
type Category string

const (
	CategoryDocument     Category = "document"
	CategorySpreadsheet  Category = "spreadsheet"
	CategoryPresentation Category = "presentation"
	CategoryImage        Category = "image"
)

// OutputFormat is the requested rendering for a converted file.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
)

// Valid reports whether f is one of the supported output formats.
func (f OutputFormat) Valid() bool {
	return f == FormatMarkdown || f == FormatJSON
}

// Extension returns the output filename extension for the format.
func (f OutputFormat) Extension() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".md"
}

// FileState tracks a file through its upload → convert lifecycle.
type FileState string

const (
	StateUploaded   FileState = "uploaded"
	StateConverting FileState = "converting"
	StateConverted  FileState = "converted"
	StateError      FileState = "error"
)

// FileRecord is the tracked state for one uploaded file within a session.
// Data holds the raw upload bytes; it is owned by the session and never
// serialized in API responses.
type FileRecord struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	Extension   string       `json:"extension"`
	Category    Category     `json:"category"`
	Size        int64        `json:"size"`
	Format      OutputFormat `json:"outputFormat"`
	State       FileState    `json:"state"`
	OutputName  string       `json:"outputFilename,omitempty"`
	Output      string       `json:"-"`
	Error       string       `json:"error,omitempty"`
	ConvertedAt time.Time    `json:"convertedAt,omitempty"`

	Data []byte `json:"-"`
}

// Snapshot returns a copy of the record without the raw bytes, safe to hand
// out past the session's mutual-exclusion scope.
func (r *FileRecord) Snapshot() FileRecord {
	cp := *r
	cp.Data = nil
	return cp
}

// ConversionResult is the per-file outcome of one batch conversion run.
type ConversionResult struct {
	FileID      string    `json:"id"`
	Filename    string    `json:"filename"`
	State       FileState `json:"state"`
	OutputName  string    `json:"outputFilename,omitempty"`
	Error       string    `json:"error,omitempty"`
	ConvertedAt time.Time `json:"convertedAt,omitempty"`
}
