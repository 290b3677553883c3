package render

import (
	"fmt"
	"strings"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/extract"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// base64PreviewLen caps how much of an image payload lands in markdown;
// the full payload belongs to JSON output.
const base64PreviewLen = 200

// MarkdownSerializer renders content as structured Markdown: headings,
// paragraph breaks, pipe-delimited tables, and section headers per
// page/slide boundary.
type MarkdownSerializer struct{}

func (s *MarkdownSerializer) Format() models.OutputFormat { return models.FormatMarkdown }

func (s *MarkdownSerializer) Render(filename string, c *extract.Content) (string, error) {
	var md []string

	md = append(md, "# "+filename, "")
	md = append(md, "> Converted from "+c.SourceType, "", "---", "")

	switch {
	case c.Image != nil:
		md = append(md, imageMarkdown(c.Image)...)
	case len(c.Slides) > 0:
		md = append(md, slidesMarkdown(c.Slides)...)
	case len(c.Sheets) > 0:
		md = append(md, sheetsMarkdown(c.Sheets)...)
	case len(c.Pages) > 0:
		md = append(md, pagesMarkdown(c.Pages)...)
	default:
		md = append(md, paragraphsMarkdown(c.Paragraphs, c.Tables)...)
	}

	return strings.TrimRight(strings.Join(md, "\n"), "\n") + "\n", nil
}

func pagesMarkdown(pages []extract.Page) []string {
	var md []string
	for _, p := range pages {
		md = append(md, fmt.Sprintf("## Page %d", p.Number), "")
		if p.Text != "" {
			md = append(md, p.Text)
		}
		for _, tbl := range p.Tables {
			md = append(md, "")
			md = append(md, tableMarkdown(tbl)...)
		}
		md = append(md, "", "---", "")
	}
	return md
}

func paragraphsMarkdown(paras []extract.Paragraph, tables []extract.Table) []string {
	var md []string
	for _, p := range paras {
		if p.HeadingLevel > 0 {
			level := p.HeadingLevel
			if level > 6 {
				level = 6
			}
			md = append(md, strings.Repeat("#", level)+" "+p.Text, "")
		} else {
			md = append(md, p.Text, "")
		}
	}
	for _, tbl := range tables {
		md = append(md, tableMarkdown(tbl)...)
		md = append(md, "")
	}
	return md
}

func sheetsMarkdown(sheets []extract.Sheet) []string {
	var md []string
	for _, sheet := range sheets {
		md = append(md, "## "+sheet.Name, "")
		if len(sheet.Rows) == 0 {
			md = append(md, "*Empty sheet*", "")
			continue
		}
		md = append(md, tableMarkdown(extract.Table{Headers: sheet.Headers, Rows: sheet.Rows})...)
		md = append(md, "", "---", "")
	}
	return md
}

func slidesMarkdown(slides []extract.Slide) []string {
	var md []string
	for _, slide := range slides {
		md = append(md, fmt.Sprintf("## Slide %d", slide.Number))
		if slide.Title != "" {
			md = append(md, "### "+slide.Title)
		}
		md = append(md, "")
		for _, b := range slide.Bullets {
			md = append(md, "- "+b)
		}
		for _, tbl := range slide.Tables {
			md = append(md, "")
			md = append(md, tableMarkdown(tbl)...)
			md = append(md, "")
		}
		if slide.Notes != "" {
			md = append(md, "", "**Speaker Notes:** "+slide.Notes)
		}
		md = append(md, "", "---", "")
	}
	return md
}

func imageMarkdown(img *extract.Image) []string {
	var md []string

	md = append(md, "## Image Information", "")
	md = append(md, "- **Format:** "+img.Format)
	md = append(md, fmt.Sprintf("- **Dimensions:** %d x %d pixels", img.Width, img.Height))
	md = append(md, "")

	md = append(md, "## Extracted Text (OCR)", "")
	if img.OCRText != "" {
		md = append(md, "```", img.OCRText, "```")
	} else {
		md = append(md, "*No text detected*")
	}
	md = append(md, "")

	if img.Vision != nil {
		md = append(md, "## Vision Analysis", "")
		if img.Vision.Succeeded() {
			md = append(md, fmt.Sprintf("*Provider:* `%s` (%s)", img.Vision.Provider, img.Vision.Model), "")
			md = append(md, img.Vision.Analysis)
		} else {
			md = append(md, "*Analysis unavailable: "+img.Vision.Err+"*")
		}
		md = append(md, "")
	}

	md = append(md, "## Base64 Encoded Image", "")
	md = append(md, "*MIME Type:* `"+img.MIME+"`", "")
	md = append(md, "```")
	if len(img.Base64) > base64PreviewLen {
		md = append(md, img.Base64[:base64PreviewLen]+"...")
		md = append(md, fmt.Sprintf("[%d total characters]", len(img.Base64)))
	} else {
		md = append(md, img.Base64)
	}
	md = append(md, "```")
	return md
}

// tableMarkdown renders one table as pipe-delimited rows. The header row,
// when present, doubles as the first data row source so it is skipped below.
func tableMarkdown(tbl extract.Table) []string {
	var md []string
	if len(tbl.Rows) == 0 {
		return md
	}
	start := 0
	if len(tbl.Headers) > 0 {
		md = append(md, "| "+strings.Join(tbl.Headers, " | ")+" |")
		md = append(md, "| "+strings.Join(repeat("---", len(tbl.Headers)), " | ")+" |")
		start = 1
	}
	for _, row := range tbl.Rows[start:] {
		cells := row
		if len(tbl.Headers) > 0 {
			cells = padRow(row, len(tbl.Headers))
		}
		md = append(md, "| "+strings.Join(cells, " | ")+" |")
	}
	return md
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// padRow pads or truncates a row to exactly n cells.
func padRow(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}
