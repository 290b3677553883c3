package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// PresentationExtractor handles PowerPoint inputs by reading the slide and
// notes XML parts straight out of the OOXML zip.
type PresentationExtractor struct{}

func (e *PresentationExtractor) Category() models.Category { return models.CategoryPresentation }

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
var notesPathRe = regexp.MustCompile(`^ppt/notesSlides/notesSlide(\d+)\.xml$`)

func (e *PresentationExtractor) Extract(data []byte, filename string) (*Content, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, extractErr(filename, fmt.Errorf("open zip: %w", err))
	}

	slideFiles := map[int]*zip.File{}
	notesFiles := map[int]*zip.File{}
	for _, f := range zr.File {
		if m := slidePathRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slideFiles[n] = f
		} else if m := notesPathRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			notesFiles[n] = f
		}
	}
	if len(slideFiles) == 0 {
		return nil, extractErr(filename, fmt.Errorf("no slides found in archive"))
	}

	nums := make([]int, 0, len(slideFiles))
	for n := range slideFiles {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var slides []Slide
	var textParts []string

	for i, n := range nums {
		slide, err := parseSlideXML(slideFiles[n])
		if err != nil {
			return nil, extractErr(filename, fmt.Errorf("slide %d: %w", n, err))
		}
		slide.Number = i + 1

		if nf, ok := notesFiles[n]; ok {
			notes, err := parseNotesXML(nf)
			if err == nil {
				slide.Notes = notes
			}
		}

		if slide.Title != "" {
			textParts = append(textParts, slide.Title)
		}
		textParts = append(textParts, slide.Bullets...)
		slides = append(slides, slide)
	}

	text := strings.Join(textParts, "\n\n")
	return &Content{
		SourceType: "powerpoint_presentation",
		Slides:     slides,
		Text:       text,
		Metadata: map[string]any{
			"slide_count": len(slides),
			"word_count":  len(strings.Fields(text)),
		},
	}, nil
}

// parseSlideXML walks one slide part, grouping text runs into paragraphs
// per shape. The shape whose placeholder type is a title becomes the slide
// title; drawing tables (a:tbl) are collected separately.
func parseSlideXML(f *zip.File) (Slide, error) {
	rc, err := f.Open()
	if err != nil {
		return Slide{}, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var slide Slide

	inShape := false
	isTitle := false
	var shapeParas []string
	var paraText strings.Builder
	inRunText := false

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
			return Slide{}, fmt.Errorf("decode slide xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				inShape = true
				isTitle = false
				shapeParas = nil
			case "ph":
				if inShape {
					for _, attr := range t.Attr {
						if attr.Name.Local == "type" && (attr.Value == "title" || attr.Value == "ctrTitle") {
							isTitle = true
						}
					}
				}
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
					paraText.Reset()
				}
			case "t":
				inRunText = true
			}

		case xml.CharData:
			if !inRunText {
				continue
			}
			if tableDepth > 0 {
				cellText.Write(t)
			} else {
				paraText.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRunText = false
			case "p":
				if tableDepth == 0 {
					if text := strings.TrimSpace(paraText.String()); text != "" {
						shapeParas = append(shapeParas, text)
					}
				}
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
					slide.Tables = append(slide.Tables, curTable)
				}
			case "sp":
				inShape = false
				if isTitle && slide.Title == "" && len(shapeParas) > 0 {
					slide.Title = strings.Join(shapeParas, " ")
				} else {
					slide.Bullets = append(slide.Bullets, shapeParas...)
				}
			}
		}
	}

	return slide, nil
}

// parseNotesXML flattens all text runs of a notes part into one string.
func parseNotesXML(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var parts []string
	var cur strings.Builder
	inRunText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRunText = true
			}
		case xml.CharData:
			if inRunText {
				cur.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRunText = false
			case "p":
				if text := strings.TrimSpace(cur.String()); text != "" {
					// Skip the bare slide number placeholder notes parts carry.
					if _, err := strconv.Atoi(text); err != nil {
						parts = append(parts, text)
					}
				}
				cur.Reset()
			}
		}
	}

	return strings.Join(parts, "\n"), nil
}
