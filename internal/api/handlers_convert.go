// handlers_convert.go - Conversion, preview and download endpoints
package api

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/convert"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

const previewLimit = 2000

// ConvertHandler serves conversion and output retrieval endpoints
type ConvertHandler struct {
	sessions     *SessionHandler
	orchestrator *convert.Orchestrator
	log          zerolog.Logger
}

// ConvertResponse summarizes a batch conversion
type ConvertResponse struct {
	Results   []models.ConversionResult `json:"results"`
	Converted int                       `json:"converted"`
	Failed    int                       `json:"failed"`
}

// HandleConvert converts every pending file in the session. Files that
// fail stay listed with their error; the rest convert normally.
// POST /api/convert
func (h *ConvertHandler) HandleConvert(c echo.Context) error {
	sess, err := h.sessions.Require(c)
	if err != nil {
		return err
	}
	results := h.orchestrator.ConvertAll(sess)

	resp := ConvertResponse{Results: results}
	for _, r := range results {
		if r.State == models.StateConverted {
			resp.Converted++
		} else {
			resp.Failed++
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// PreviewResponse carries a truncated view of a converted output
type PreviewResponse struct {
	FileID     string `json:"file_id"`
	OutputName string `json:"output_name"`
	Preview    string `json:"preview"`
	Truncated  bool   `json:"truncated"`
}

// HandlePreview returns the first part of a converted output.
// GET /api/files/:id/preview
func (h *ConvertHandler) HandlePreview(c echo.Context) error {
	sess, err := h.sessions.Require(c)
	if err != nil {
		return err
	}
	name, text, err := sess.Output(c.Param("id"))
	if err != nil {
		return FromDomainError(err)
	}

	resp := PreviewResponse{
		FileID:     c.Param("id"),
		OutputName: name,
		Preview:    text,
	}
	if cut, ok := truncateUTF8(text, previewLimit); ok {
		resp.Preview = cut + "... [truncated]"
		resp.Truncated = true
	}
	return c.JSON(http.StatusOK, resp)
}

// truncateUTF8 cuts text to at most limit bytes without splitting a rune.
// The second return reports whether anything was cut.
func truncateUTF8(text string, limit int) (string, bool) {
	if len(text) <= limit {
		return text, false
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit], true
}

// HandleDownload streams a single converted output as an attachment.
// GET /api/files/:id/download
func (h *ConvertHandler) HandleDownload(c echo.Context) error {
	sess, err := h.sessions.Require(c)
	if err != nil {
		return err
	}
	name, text, err := sess.Output(c.Param("id"))
	if err != nil {
		return FromDomainError(err)
	}

	contentType := "text/markdown; charset=utf-8"
	if strings.HasSuffix(name, ".json") {
		contentType = "application/json"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, name))
	return c.Blob(http.StatusOK, contentType, []byte(text))
}

// HandleDownloadAll streams a ZIP archive of every converted output.
// GET /api/download-all
func (h *ConvertHandler) HandleDownloadAll(c echo.Context) error {
	sess, err := h.sessions.Require(c)
	if err != nil {
		return err
	}
	archive, err := convert.BuildArchive(sess)
	if err != nil {
		return FromDomainError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="converted_files.zip"`)
	return c.Blob(http.StatusOK, "application/zip", archive)
}
