package convert

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/session"
)

// archiveEpoch is the fixed timestamp written into every zip entry so that
// repeated builds over an unchanged session are byte-identical.
var archiveEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// BuildArchive bundles every converted output of the session into one ZIP
// stream. Entries are written in ascending conversion-completion order,
// ties broken by file identifier.
func BuildArchive(sess *session.Session) ([]byte, error) {
	outputs := sess.ConvertedOutputs()
	if len(outputs) == 0 {
		return nil, models.ErrNothingToArchive
	}

	sort.Slice(outputs, func(i, j int) bool {
		if !outputs[i].ConvertedAt.Equal(outputs[j].ConvertedAt) {
			return outputs[i].ConvertedAt.Before(outputs[j].ConvertedAt)
		}
		return outputs[i].FileID < outputs[j].FileID
	})

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, out := range outputs {
		hdr := &zip.FileHeader{
			Name:     out.Name,
			Method:   zip.Deflate,
			Modified: archiveEpoch,
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("archive entry %s: %w", out.Name, err)
		}
		if _, err := w.Write([]byte(out.Text)); err != nil {
			zw.Close()
			return nil, fmt.Errorf("archive entry %s: %w", out.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
