package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocx parses word/document.xml out of the OOXML zip, collecting
// paragraphs (with heading levels from their style) and body tables.
func extractDocx(data []byte, filename string) (*Content, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, extractErr(filename, fmt.Errorf("open zip: %w", err))
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, extractErr(filename, fmt.Errorf("word/document.xml not found in archive"))
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, extractErr(filename, fmt.Errorf("open document.xml: %w", err))
	}
	defer rc.Close()

	paragraphs, tables, err := walkDocumentXML(rc)
	if err != nil {
		return nil, extractErr(filename, err)
	}

	var textParts []string
	headingCount := 0
	for _, p := range paragraphs {
		textParts = append(textParts, p.Text)
		if p.HeadingLevel > 0 {
			headingCount++
		}
	}
	text := strings.Join(textParts, "\n\n")

	return &Content{
		SourceType: "word_document",
		Paragraphs: paragraphs,
		Tables:     tables,
		Text:       text,
		Metadata: map[string]any{
			"paragraph_count": len(paragraphs),
			"heading_count":   headingCount,
			"table_count":     len(tables),
			"word_count":      len(strings.Fields(text)),
		},
	}, nil
}

// walkDocumentXML streams through document.xml tokens. Paragraphs inside
// tables feed the current cell instead of the paragraph list.
func walkDocumentXML(r io.Reader) ([]Paragraph, []Table, error) {
	dec := xml.NewDecoder(r)

	var paragraphs []Paragraph
	var tables []Table

	var curText strings.Builder
	var curStyle string
	inParagraph := false

	tableDepth := 0
	var curTable Table
	var curRow []string
	var cellText strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					curTable = Table{}
				}
			case "tr":
				if tableDepth == 1 {
					curRow = nil
				}
			case "tc":
				if tableDepth == 1 {
					cellText.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inParagraph = true
					curText.Reset()
					curStyle = ""
				}
			case "pStyle":
				if inParagraph {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							curStyle = attr.Value
						}
					}
				}
			}

		case xml.CharData:
			if tableDepth > 0 {
				cellText.Write(t)
			} else if inParagraph {
				curText.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tc":
				if tableDepth == 1 {
					curRow = append(curRow, strings.TrimSpace(cellText.String()))
				}
			case "tr":
				if tableDepth == 1 && len(curRow) > 0 {
					if len(curTable.Rows) == 0 {
						curTable.Headers = curRow
					}
					curTable.Rows = append(curTable.Rows, curRow)
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(curTable.Rows) > 0 {
					tables = append(tables, curTable)
				}
			case "p":
				if tableDepth == 0 && inParagraph {
					inParagraph = false
					text := strings.TrimSpace(curText.String())
					if text == "" {
						continue
					}
					paragraphs = append(paragraphs, Paragraph{
						Text:         text,
						HeadingLevel: docxHeadingLevel(curStyle),
						Style:        curStyle,
					})
				}
			}
		}
	}

	return paragraphs, tables, nil
}

// docxHeadingLevel maps a paragraph style name to a heading level,
// e.g. "Heading1" → 1, "Title" → 1, anything else → 0.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)
	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}
	if strings.HasPrefix(lower, "heading") {
		rest := strings.TrimSpace(lower[len("heading"):])
		if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
			return int(rest[0] - '0')
		}
	}
	return 0
}
