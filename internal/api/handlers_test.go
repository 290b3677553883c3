package api

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/convert"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/extract"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/session"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/testutil"
)

func newTestServer(limits session.Limits) *echo.Echo {
	log := zerolog.Nop()
	store := session.NewStore(limits, log)
	registry := extract.NewRegistry(&testutil.StubOCR{Text: "stub"}, nil)
	orchestrator := convert.NewOrchestrator(convert.NewDispatcher(registry), log)

	e := echo.New()
	SetupMiddleware(e)
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Store:        store,
		Orchestrator: orchestrator,
		SessionTTL:   15 * time.Minute,
		Version:      "test",
		Log:          log,
	}))
	return e
}

// doJSON performs a request with an optional JSON body and session cookie.
func doJSON(e *echo.Echo, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// doUpload posts one or more files as a multipart form.
func doUpload(t *testing.T, e *echo.Echo, cookie *http.Cookie, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doJSON(e, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, resp.SupportedExtensions, ".pdf")
}

func TestSessionCookieIssuedAndReused(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doJSON(e, http.MethodGet, "/api/session", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	var first SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, cookie.Value, first.SessionID)

	rec = doJSON(e, http.MethodGet, "/api/session", nil, cookie)
	var second SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestSessionHeaderFallback(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doJSON(e, http.MethodGet, "/api/session", nil, nil)
	cookie := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set(sessionHeaderName, cookie.Value)
	headerRec := httptest.NewRecorder()
	e.ServeHTTP(headerRec, req)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(headerRec.Body.Bytes(), &resp))
	assert.Equal(t, cookie.Value, resp.SessionID)
}

func TestUploadAndList(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doUpload(t, e, nil, map[string][]byte{
		"inventory.csv": []byte("a,b\n1,2\n"),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	require.Len(t, up.Uploaded, 1)
	assert.Equal(t, models.StateUploaded, up.Uploaded[0].State)
	assert.Equal(t, models.FormatJSON, up.Uploaded[0].Format)

	listRec := doJSON(e, http.MethodGet, "/api/files", nil, cookie)
	var list FileListResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	require.Len(t, list.Files, 1)
	assert.Equal(t, int64(8), list.TotalSize)
}

func TestUploadPartialRejection(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doUpload(t, e, nil, map[string][]byte{
		"good.csv":  []byte("a\n1\n"),
		"virus.exe": []byte("nope"),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Len(t, up.Uploaded, 1)
	require.Len(t, up.Errors, 1)
	assert.Equal(t, "UNSUPPORTED_FORMAT", up.Errors[0].Code)
}

func TestUploadOversizeFile(t *testing.T) {
	e := newTestServer(session.Limits{MaxFileSize: 10, MaxSessionSize: 100})

	rec := doUpload(t, e, nil, map[string][]byte{
		"big.csv": bytes.Repeat([]byte("x"), 11),
	})
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "FILE_TOO_LARGE", apiErr.Code)
}

func TestUploadSessionQuota(t *testing.T) {
	e := newTestServer(session.Limits{MaxFileSize: 50, MaxSessionSize: 60})

	rec := doUpload(t, e, nil, map[string][]byte{"a.csv": bytes.Repeat([]byte("x"), 40)})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = doUpload(t, e, cookie, map[string][]byte{"b.csv": bytes.Repeat([]byte("x"), 40)})
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "SESSION_QUOTA_EXCEEDED", apiErr.Code)
}

func TestBase64Upload(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	payload := base64.StdEncoding.EncodeToString([]byte("a,b\n1,2\n"))
	rec := doJSON(e, http.MethodPost, "/api/files/upload/base64", Base64UploadRequest{
		Filename: "data.csv",
		Data:     "data:text/csv;base64," + payload,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var up models.FileRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, "data.csv", up.Filename)
	assert.Equal(t, int64(8), up.Size)
}

func TestBase64UploadRejectsGarbage(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doJSON(e, http.MethodPost, "/api/files/upload/base64", Base64UploadRequest{
		Filename: "data.csv",
		Data:     "!!! not base64 !!!",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetFormatConvertPreviewDownload(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doUpload(t, e, nil, map[string][]byte{"inventory.csv": []byte("a,b\n1,2\n")})
	cookie := sessionCookie(t, rec)
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	fileID := up.Uploaded[0].ID

	rec = doJSON(e, http.MethodPost, "/api/files/"+fileID+"/format",
		SetFormatRequest{Format: "markdown"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// Preview before converting is a state conflict.
	rec = doJSON(e, http.MethodGet, "/api/files/"+fileID+"/preview", nil, cookie)
	require.Equal(t, http.StatusConflict, rec.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "INVALID_STATE", apiErr.Code)

	rec = doJSON(e, http.MethodPost, "/api/convert", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var conv ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, 1, conv.Converted)
	assert.Equal(t, 0, conv.Failed)

	rec = doJSON(e, http.MethodGet, "/api/files/"+fileID+"/preview", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, "inventory.md", preview.OutputName)
	assert.False(t, preview.Truncated)
	assert.Contains(t, preview.Preview, "| a | b |")

	rec = doJSON(e, http.MethodGet, "/api/files/"+fileID+"/download", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "inventory.md")
	assert.Contains(t, rec.Body.String(), "| a | b |")
}

func TestPreviewTruncatesLongOutput(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	var csv strings.Builder
	csv.WriteString("col\n")
	for i := 0; i < 500; i++ {
		csv.WriteString("some repeated value\n")
	}
	rec := doUpload(t, e, nil, map[string][]byte{"long.csv": []byte(csv.String())})
	cookie := sessionCookie(t, rec)
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	fileID := up.Uploaded[0].ID

	doJSON(e, http.MethodPost, "/api/convert", nil, cookie)

	previewRec := doJSON(e, http.MethodGet, "/api/files/"+fileID+"/preview", nil, cookie)
	var preview PreviewResponse
	require.NoError(t, json.Unmarshal(previewRec.Body.Bytes(), &preview))
	assert.True(t, preview.Truncated)
	assert.True(t, strings.HasSuffix(preview.Preview, "... [truncated]"))
	assert.Len(t, preview.Preview, previewLimit+len("... [truncated]"))
}

func TestTruncatePreviewKeepsRunesIntact(t *testing.T) {
	cut, truncated := truncateUTF8(strings.Repeat("日", 10), 10)
	require.True(t, truncated)
	// 10 bytes lands mid-rune; the cut backs up to the previous boundary.
	assert.Equal(t, strings.Repeat("日", 3), cut)
	assert.True(t, utf8.ValidString(cut))

	cut, truncated = truncateUTF8("short", 10)
	assert.False(t, truncated)
	assert.Equal(t, "short", cut)

	cut, truncated = truncateUTF8("abcdef", 4)
	assert.True(t, truncated)
	assert.Equal(t, "abcd", cut)
}

func TestPreviewTruncationMultibyteOutput(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	var csv strings.Builder
	csv.WriteString("col\n")
	for i := 0; i < 400; i++ {
		csv.WriteString("統計データ分析結果\n")
	}
	rec := doUpload(t, e, nil, map[string][]byte{"report.csv": []byte(csv.String())})
	cookie := sessionCookie(t, rec)
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))

	doJSON(e, http.MethodPost, "/api/convert", nil, cookie)

	previewRec := doJSON(e, http.MethodGet, "/api/files/"+up.Uploaded[0].ID+"/preview", nil, cookie)
	var preview PreviewResponse
	require.NoError(t, json.Unmarshal(previewRec.Body.Bytes(), &preview))
	assert.True(t, preview.Truncated)
	assert.True(t, strings.HasSuffix(preview.Preview, "... [truncated]"))
	// A mid-rune cut would surface as replacement characters here.
	assert.NotContains(t, preview.Preview, string(utf8.RuneError))
	assert.True(t, utf8.ValidString(preview.Preview))
}

func TestDeleteFileAndClear(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doUpload(t, e, nil, map[string][]byte{
		"a.csv": []byte("1\n"),
		"b.csv": []byte("2\n"),
	})
	cookie := sessionCookie(t, rec)
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))

	rec = doJSON(e, http.MethodDelete, "/api/files/"+up.Uploaded[0].ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/files/"+up.Uploaded[0].ID, nil, cookie)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/files", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	listRec := doJSON(e, http.MethodGet, "/api/files", nil, cookie)
	var list FileListResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	assert.Empty(t, list.Files)
}

func TestListFilesMsgpack(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doUpload(t, e, nil, map[string][]byte{"a.csv": []byte("1,2\n")})
	cookie := sessionCookie(t, rec)

	packRec := doJSON(e, http.MethodGet, "/api/files/msgpack", nil, cookie)
	require.Equal(t, http.StatusOK, packRec.Code)
	assert.Equal(t, "application/x-msgpack", packRec.Header().Get(echo.HeaderContentType))

	dec := msgpack.NewDecoder(bytes.NewReader(packRec.Body.Bytes()))
	dec.SetCustomStructTag("json")
	var list FileListResponse
	require.NoError(t, dec.Decode(&list))
	require.Len(t, list.Files, 1)
	assert.Equal(t, "a.csv", list.Files[0].Filename)
	assert.Equal(t, models.FormatJSON, list.Files[0].Format)
}

func TestListFilesMsgpackOmitsOutputAndRawBytes(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	// Marker values that only appear in the raw upload and its rendered
	// output, never in the record's listed fields.
	rec := doUpload(t, e, nil, map[string][]byte{
		"a.csv": []byte("col\nRAWCELLMARKER\n"),
	})
	cookie := sessionCookie(t, rec)

	doJSON(e, http.MethodPost, "/api/convert", nil, cookie)

	packRec := doJSON(e, http.MethodGet, "/api/files/msgpack", nil, cookie)
	require.Equal(t, http.StatusOK, packRec.Code)
	assert.NotContains(t, packRec.Body.String(), "RAWCELLMARKER")

	dec := msgpack.NewDecoder(bytes.NewReader(packRec.Body.Bytes()))
	dec.SetCustomStructTag("json")
	var list FileListResponse
	require.NoError(t, dec.Decode(&list))
	require.Len(t, list.Files, 1)
	assert.Equal(t, models.StateConverted, list.Files[0].State)
	assert.Equal(t, "a.json", list.Files[0].OutputName)
}

func TestDownloadAll(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doUpload(t, e, nil, map[string][]byte{
		"a.csv": []byte("x\n1\n"),
		"b.csv": []byte("y\n2\n"),
		"c.csv": []byte("z\n3\n"),
	})
	cookie := sessionCookie(t, rec)

	// Nothing converted yet: archiving has nothing to bundle.
	emptyRec := doJSON(e, http.MethodGet, "/api/download-all", nil, cookie)
	require.Equal(t, http.StatusBadRequest, emptyRec.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(emptyRec.Body.Bytes(), &apiErr))
	assert.Equal(t, "NOTHING_TO_ARCHIVE", apiErr.Code)

	doJSON(e, http.MethodPost, "/api/convert", nil, cookie)

	zipRec := doJSON(e, http.MethodGet, "/api/download-all", nil, cookie)
	require.Equal(t, http.StatusOK, zipRec.Code)
	assert.Equal(t, "application/zip", zipRec.Header().Get(echo.HeaderContentType))

	zr, err := zip.NewReader(bytes.NewReader(zipRec.Body.Bytes()), int64(zipRec.Body.Len()))
	require.NoError(t, err)
	assert.Len(t, zr.File, 3)
}

func TestRoutesRequireSession(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	// Only /api/session and the upload endpoints create sessions; the
	// rest answer 404 without a token, same as after expiry.
	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/files"},
		{http.MethodGet, "/api/files/msgpack"},
		{http.MethodPost, "/api/convert"},
		{http.MethodGet, "/api/files/xyz/preview"},
		{http.MethodGet, "/api/download-all"},
		{http.MethodDelete, "/api/files"},
	}
	for _, p := range paths {
		rec := doJSON(e, p.method, p.path, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, p.method+" "+p.path)
	}

	// An unknown token behaves the same as no token.
	rec := doJSON(e, http.MethodGet, "/api/files", nil,
		&http.Cookie{Name: sessionCookieName, Value: "long-gone"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetFormatRejectsUnknownFormat(t *testing.T) {
	e := newTestServer(session.DefaultLimits())

	rec := doUpload(t, e, nil, map[string][]byte{"a.csv": []byte("1\n")})
	cookie := sessionCookie(t, rec)
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))

	badRec := doJSON(e, http.MethodPost, "/api/files/"+up.Uploaded[0].ID+"/format",
		SetFormatRequest{Format: "yaml"}, cookie)
	assert.Equal(t, http.StatusBadRequest, badRec.Code)
}
