package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// SpreadsheetExtractor handles Excel workbooks and CSV files.
type SpreadsheetExtractor struct{}

func (e *SpreadsheetExtractor) Category() models.Category { return models.CategorySpreadsheet }

func (e *SpreadsheetExtractor) Extract(data []byte, filename string) (*Content, error) {
	if strings.ToLower(filepath.Ext(filename)) == ".csv" {
		return extractCSV(data, filename)
	}
	return extractWorkbook(data, filename)
}

// extractCSV reads the whole file as a single sheet, first row as headers.
func extractCSV(data []byte, filename string) (*Content, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, extractErr(filename, fmt.Errorf("read csv: %w", err))
	}

	sheet := Sheet{Name: "Sheet1", Rows: rows}
	if len(rows) > 0 {
		sheet.Headers = rows[0]
	}

	return spreadsheetContent("csv_spreadsheet", []Sheet{sheet}), nil
}

// extractWorkbook reads every sheet of an xlsx workbook, skipping fully
// empty rows the way the UI-facing output expects.
func extractWorkbook(data []byte, filename string) (*Content, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, extractErr(filename, fmt.Errorf("open workbook: %w", err))
	}
	defer wb.Close()

	var sheets []Sheet
	for _, name := range wb.GetSheetList() {
		rawRows, err := wb.GetRows(name)
		if err != nil {
			return nil, extractErr(filename, fmt.Errorf("sheet %s: %w", name, err))
		}

		sheet := Sheet{Name: name}
		for _, row := range rawRows {
			if rowEmpty(row) {
				continue
			}
			if len(sheet.Rows) == 0 {
				sheet.Headers = row
			}
			sheet.Rows = append(sheet.Rows, row)
		}
		sheets = append(sheets, sheet)
	}

	if len(sheets) == 0 {
		return nil, extractErr(filename, fmt.Errorf("workbook has no sheets"))
	}

	return spreadsheetContent("excel_spreadsheet", sheets), nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// spreadsheetContent assembles the shared Content envelope for both paths.
func spreadsheetContent(sourceType string, sheets []Sheet) *Content {
	var textParts []string
	totalRows := 0
	for _, s := range sheets {
		totalRows += len(s.Rows)
		for _, row := range s.Rows {
			textParts = append(textParts, strings.Join(row, ", "))
		}
	}

	return &Content{
		SourceType: sourceType,
		Sheets:     sheets,
		Text:       strings.Join(textParts, "\n"),
		Metadata: map[string]any{
			"sheet_count": len(sheets),
			"total_rows":  totalRows,
		},
	}
}
