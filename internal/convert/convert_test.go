package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/extract"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/session"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/testutil"
)

func newTestOrchestrator(ocr extract.OCREngine) *Orchestrator {
	if ocr == nil {
		ocr = &testutil.StubOCR{Text: "stub text"}
	}
	return NewOrchestrator(NewDispatcher(extract.NewRegistry(ocr, nil)), zerolog.Nop())
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	store := session.NewStore(session.DefaultLimits(), zerolog.Nop())
	sess, created := store.GetOrCreate("")
	require.True(t, created)
	return sess
}

func TestOutputNameCollisions(t *testing.T) {
	taken := map[string]bool{}

	first := outputName("reports/summary.pdf", models.FormatMarkdown, taken)
	assert.Equal(t, "summary.md", first)
	taken[first] = true

	second := outputName("archive/summary.docx", models.FormatMarkdown, taken)
	assert.Equal(t, "summary (2).md", second)
	taken[second] = true

	third := outputName("summary.doc", models.FormatMarkdown, taken)
	assert.Equal(t, "summary (3).md", third)

	// A different format does not collide.
	asJSON := outputName("summary.xlsx", models.FormatJSON, taken)
	assert.Equal(t, "summary.json", asJSON)
}

func TestConvertAllMixedBatch(t *testing.T) {
	sess := newTestSession(t)
	orch := newTestOrchestrator(nil)

	csvRec, err := sess.Upload("inventory.csv", []byte("name,qty\nwidget,3\n"))
	require.NoError(t, err)
	docxRec, err := sess.Upload("memo.docx", testutil.DocxBytes(t,
		testutil.DocxParagraph{Text: "Memo", Style: "Heading1"},
		testutil.DocxParagraph{Text: "All hands on Friday."},
	))
	require.NoError(t, err)
	badRec, err := sess.Upload("broken.docx", []byte("this is not a zip"))
	require.NoError(t, err)

	results := orch.ConvertAll(sess)
	require.Len(t, results, 3)

	csvAfter, _ := sess.File(csvRec.ID)
	assert.Equal(t, models.StateConverted, csvAfter.State)
	assert.Equal(t, "inventory.json", csvAfter.OutputName)

	docxAfter, _ := sess.File(docxRec.ID)
	assert.Equal(t, models.StateConverted, docxAfter.State)
	assert.Equal(t, "memo.md", docxAfter.OutputName)

	badAfter, _ := sess.File(badRec.ID)
	assert.Equal(t, models.StateError, badAfter.State)
	assert.NotEmpty(t, badAfter.Error)

	// Converting again is a no-op: nothing is pending anymore.
	assert.Empty(t, orch.ConvertAll(sess))
}

func TestConvertUsesRequestedFormat(t *testing.T) {
	sess := newTestSession(t)
	orch := newTestOrchestrator(nil)

	rec, err := sess.Upload("inventory.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, sess.SetFormat(rec.ID, models.FormatMarkdown))

	orch.ConvertAll(sess)

	name, text, err := sess.Output(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "inventory.md", name)
	assert.Contains(t, text, "| a | b |")
}

func TestConvertImageIncludesOCRAndBase64(t *testing.T) {
	sess := newTestSession(t)
	orch := newTestOrchestrator(&testutil.StubOCR{Text: "PARKING LEVEL 3"})

	rec, err := sess.Upload("scan.png", testutil.PNGBytes(t))
	require.NoError(t, err)

	orch.ConvertAll(sess)

	name, text, err := sess.Output(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "scan.json", name)
	assert.Contains(t, text, `"ocr_text": "PARKING LEVEL 3"`)
	assert.Contains(t, text, `"base64_data"`)
}

func TestBuildArchiveRoundTrip(t *testing.T) {
	sess := newTestSession(t)
	orch := newTestOrchestrator(nil)

	files := map[string]string{
		"a.csv": "x,y\n1,2\n",
		"b.csv": "p,q\n3,4\n",
		"c.csv": "m,n\n5,6\n",
	}
	for name, body := range files {
		_, err := sess.Upload(name, []byte(body))
		require.NoError(t, err)
	}
	orch.ConvertAll(sess)

	archive, err := BuildArchive(sess)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
		assert.Equal(t, archiveEpoch.Unix(), f.Modified.Unix())

		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, body)
	}
	assert.True(t, names["a.json"] && names["b.json"] && names["c.json"])
}

func TestBuildArchiveDeterministic(t *testing.T) {
	sess := newTestSession(t)
	orch := newTestOrchestrator(nil)

	_, err := sess.Upload("first.csv", []byte("a\n1\n"))
	require.NoError(t, err)
	_, err = sess.Upload("second.csv", []byte("b\n2\n"))
	require.NoError(t, err)
	orch.ConvertAll(sess)

	one, err := BuildArchive(sess)
	require.NoError(t, err)
	two, err := BuildArchive(sess)
	require.NoError(t, err)
	assert.Equal(t, one, two)
}

func TestBuildArchiveSkipsUnconverted(t *testing.T) {
	sess := newTestSession(t)
	orch := newTestOrchestrator(nil)

	_, err := sess.Upload("good.csv", []byte("a\n1\n"))
	require.NoError(t, err)
	_, err = sess.Upload("bad.docx", []byte("not a zip"))
	require.NoError(t, err)
	orch.ConvertAll(sess)

	archive, err := BuildArchive(sess)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "good.json", zr.File[0].Name)
}

func TestBuildArchiveEmptySession(t *testing.T) {
	sess := newTestSession(t)
	_, err := BuildArchive(sess)
	assert.ErrorIs(t, err, models.ErrNothingToArchive)
}
