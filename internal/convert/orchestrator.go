package convert

import (
	"github.com/rs/zerolog"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/session"
)

// Orchestrator drives a batch conversion over a session's pending files.
// Per-file failures are isolated: each record converts independently and a
// broken input marks only its own record.
type Orchestrator struct {
	dispatcher *Dispatcher
	log        zerolog.Logger
}

// NewOrchestrator creates an orchestrator over the given dispatcher.
func NewOrchestrator(d *Dispatcher, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{dispatcher: d, log: log}
}

// ConvertAll converts every uploaded file in the session and returns one
// result per processed file, in selection order. With nothing pending it
// returns an empty list.
func (o *Orchestrator) ConvertAll(sess *session.Session) []models.ConversionResult {
	results := sess.ConvertPending(o.dispatcher.Convert)

	converted, failed := 0, 0
	for _, res := range results {
		switch res.State {
		case models.StateConverted:
			converted++
		default:
			failed++
			o.log.Warn().
				Str("session", sess.ID).
				Str("file", res.FileID).
				Str("filename", res.Filename).
				Str("error", res.Error).
				Msg("file conversion failed")
		}
	}

	if len(results) > 0 {
		o.log.Info().
			Str("session", sess.ID).
			Int("converted", converted).
			Int("failed", failed).
			Msg("batch conversion finished")
	}
	return results
}
