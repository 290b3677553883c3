// handlers_files.go - Upload and file management endpoints
package api

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// FileHandler serves upload, listing and file mutation endpoints
type FileHandler struct {
	sessions *SessionHandler
	log      zerolog.Logger
}

// UploadError reports a single rejected file in a multi-file upload
type UploadError struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// UploadResponse lists accepted records and per-file rejections
type UploadResponse struct {
	Uploaded []models.FileRecord `json:"uploaded"`
	Errors   []UploadError       `json:"errors,omitempty"`
}

// HandleUpload accepts one or more files from the "files" multipart field.
// Per-file validation failures do not reject the rest of the batch; if
// every file fails, the first failure's mapped status is returned.
// POST /api/files/upload
func (h *FileHandler) HandleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return NewValidationError("files")
	}

	sess := h.sessions.Resolve(c)
	resp := UploadResponse{Uploaded: []models.FileRecord{}}
	var firstErr *APIError

	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return NewBadRequestError("could not read uploaded file", err)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return NewBadRequestError("could not read uploaded file", err)
		}

		rec, err := sess.Upload(fh.Filename, data)
		if err != nil {
			apiErr := FromDomainError(err)
			if firstErr == nil {
				firstErr = apiErr
			}
			resp.Errors = append(resp.Errors, UploadError{
				Filename: fh.Filename,
				Code:     apiErr.Code,
				Message:  apiErr.Message,
			})
			h.log.Warn().Str("filename", fh.Filename).Err(err).Msg("upload rejected")
			continue
		}
		resp.Uploaded = append(resp.Uploaded, rec)
	}

	if len(resp.Uploaded) == 0 && firstErr != nil {
		return firstErr
	}
	return c.JSON(http.StatusOK, resp)
}

// Base64UploadRequest carries a single base64-encoded file
type Base64UploadRequest struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

// HandleUploadBase64 accepts a single base64-encoded file. A data URI
// prefix ("data:...;base64,") is tolerated and stripped.
// POST /api/files/upload/base64
func (h *FileHandler) HandleUploadBase64(c echo.Context) error {
	var req Base64UploadRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Filename == "" {
		return NewValidationError("filename")
	}
	if req.Data == "" {
		return NewValidationError("data")
	}

	payload := req.Data
	if idx := strings.Index(payload, ";base64,"); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return NewBadRequestError("data is not valid base64", err)
	}

	sess := h.sessions.Resolve(c)
	rec, err := sess.Upload(req.Filename, data)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// FileListResponse reports session files and storage usage
type FileListResponse struct {
	Files     []models.FileRecord `json:"files"`
	TotalSize int64               `json:"total_size"`
}

// HandleListFiles returns all files in the session with their states.
// GET /api/files
func (h *FileHandler) HandleListFiles(c echo.Context) error {
	sess, err := h.sessions.Require(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FileListResponse{
		Files:     sess.Files(),
		TotalSize: sess.TotalSize(),
	})
}

// HandleListFilesMsgpack returns the file list as msgpack for clients
// that poll frequently.
// GET /api/files/msgpack
func (h *FileHandler) HandleListFilesMsgpack(c echo.Context) error {
	sess, err := h.sessions.Require(c)
	if err != nil {
		return err
	}
	// Encode under the json struct tags so both listings expose the same
	// fields and record output text stays out of the wire payload.
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(FileListResponse{
		Files:     sess.Files(),
		TotalSize: sess.TotalSize(),
	}); err != nil {
		return NewInternalError("failed to encode file list", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", buf.Bytes())
}

// SetFormatRequest selects the output format for a file
type SetFormatRequest struct {
	Format string `json:"format"`
}

// HandleSetFormat overrides the output format of an uploaded file.
// POST /api/files/:id/format
func (h *FileHandler) HandleSetFormat(c echo.Context) error {
	var req SetFormatRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	format := models.OutputFormat(req.Format)
	if !format.Valid() {
		return NewValidationError("format")
	}

	sess, err := h.sessions.Require(c)
	if err != nil {
		return err
	}
	if err := sess.SetFormat(c.Param("id"), format); err != nil {
		return FromDomainError(err)
	}
	rec, err := sess.File(c.Param("id"))
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// HandleDeleteFile removes a single file from the session.
// DELETE /api/files/:id
func (h *FileHandler) HandleDeleteFile(c echo.Context) error {
	sess, err := h.sessions.Require(c)
	if err != nil {
		return err
	}
	if err := sess.DeleteFile(c.Param("id")); err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleClear removes every file from the session.
// DELETE /api/files
func (h *FileHandler) HandleClear(c echo.Context) error {
	sess, err := h.sessions.Require(c)
	if err != nil {
		return err
	}
	sess.Clear()
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}
