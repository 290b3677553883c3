package models

import (
	"path/filepath"
	"sort"
	"strings"
)

// categoryByExt maps supported input extensions to their category.
var categoryByExt = map[string]Category{
	".pdf":  CategoryDocument,
	".docx": CategoryDocument,
	".doc":  CategoryDocument,
	".pptx": CategoryPresentation,
	".ppt":  CategoryPresentation,
	".xlsx": CategorySpreadsheet,
	".xls":  CategorySpreadsheet,
	".csv":  CategorySpreadsheet,
	".png":  CategoryImage,
	".jpg":  CategoryImage,
	".jpeg": CategoryImage,
	".gif":  CategoryImage,
	".bmp":  CategoryImage,
	".tiff": CategoryImage,
	".tif":  CategoryImage,
	".webp": CategoryImage,
}

// CategoryForFilename infers the input category from a filename's extension.
// Returns ErrUnsupportedFormat for anything outside the supported set.
func CategoryForFilename(filename string) (Category, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	cat, ok := categoryByExt[ext]
	if !ok {
		return "", ext, ErrUnsupportedFormat
	}
	return cat, ext, nil
}

// DefaultFormat returns the default output format for a category:
// text-like inputs render to markdown, data-like inputs to JSON.
func DefaultFormat(cat Category) OutputFormat {
	switch cat {
	case CategorySpreadsheet, CategoryImage:
		return FormatJSON
	default:
		return FormatMarkdown
	}
}

// SupportedExtensions lists every accepted input extension, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(categoryByExt))
	for ext := range categoryByExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
