// Package session implements the process-wide session registry: per-session
// file record lifecycle, size quotas, and TTL-based expiry.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// Limits are the size policies enforced at upload time.
type Limits struct {
	MaxFileSize    int64 // per-file cap in bytes
	MaxSessionSize int64 // cumulative per-session cap in bytes
}

// DefaultLimits returns the standard 10MB/50MB policy.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:    10 * 1024 * 1024,
		MaxSessionSize: 50 * 1024 * 1024,
	}
}

// Session is an isolated container of one client's uploaded and converted
// files. All mutating operations serialize on mu; read paths take it in
// shared mode and return snapshot copies, never live record pointers.
type Session struct {
	ID        string
	CreatedAt time.Time

	limits Limits

	mu           sync.RWMutex
	lastActivity time.Time
	files        []*models.FileRecord // insertion order, unique by ID
	totalSize    int64
	freed        bool
}

func newSession(limits Limits) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		lastActivity: now,
		limits:       limits,
	}
}

// Touch slides the session's activity window forward.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// LastActivity returns the time of the most recent session use.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// TotalSize returns the cumulative raw byte size of all file records.
func (s *Session) TotalSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalSize
}

// Upload validates and stores one file. Validation is atomic: on any error
// the session is left exactly as it was.
func (s *Session) Upload(filename string, data []byte) (models.FileRecord, error) {
	cat, ext, err := models.CategoryForFilename(filename)
	if err != nil {
		return models.FileRecord{}, err
	}
	size := int64(len(data))
	if size > s.limits.MaxFileSize {
		return models.FileRecord{}, models.ErrFileTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have been expired out of the registry while the
	// caller held a reference to it.
	if s.freed {
		return models.FileRecord{}, models.ErrNotFound
	}
	if s.totalSize+size > s.limits.MaxSessionSize {
		return models.FileRecord{}, models.ErrSessionQuotaExceeded
	}

	rec := &models.FileRecord{
		ID:        uuid.New().String(),
		Filename:  filename,
		Extension: ext,
		Category:  cat,
		Size:      size,
		Format:    models.DefaultFormat(cat),
		State:     models.StateUploaded,
		Data:      data,
	}
	s.files = append(s.files, rec)
	s.totalSize += size
	s.lastActivity = time.Now()

	return rec.Snapshot(), nil
}

// SetFormat changes the requested output format. Only legal while the file
// is still in the uploaded state.
func (s *Session) SetFormat(fileID string, format models.OutputFormat) error {
	if !format.Valid() {
		return models.ErrUnsupportedFormat
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.find(fileID)
	if rec == nil {
		return models.ErrNotFound
	}
	if rec.State != models.StateUploaded {
		return models.ErrInvalidStateTransition
	}
	rec.Format = format
	s.lastActivity = time.Now()
	return nil
}

// DeleteFile removes one record and frees its bytes.
func (s *Session) DeleteFile(fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.files {
		if rec.ID == fileID {
			s.totalSize -= rec.Size
			rec.Data = nil
			s.files = append(s.files[:i], s.files[i+1:]...)
			s.lastActivity = time.Now()
			return nil
		}
	}
	return models.ErrNotFound
}

// Clear removes every record atomically with respect to any in-flight
// batch conversion, which holds the same lock for its full duration.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropAllLocked()
	s.lastActivity = time.Now()
}

// File returns a snapshot of one record.
func (s *Session) File(fileID string) (models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := s.find(fileID)
	if rec == nil {
		return models.FileRecord{}, models.ErrNotFound
	}
	return rec.Snapshot(), nil
}

// Files returns snapshots of all records in insertion order.
func (s *Session) Files() []models.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FileRecord, 0, len(s.files))
	for _, rec := range s.files {
		out = append(out, rec.Snapshot())
	}
	return out
}

// Output returns the converted output filename and text for one record.
// Requesting output for a file that has not converted yet is a state error.
func (s *Session) Output(fileID string) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := s.find(fileID)
	if rec == nil {
		return "", "", models.ErrNotFound
	}
	if rec.State != models.StateConverted {
		return "", "", models.ErrInvalidStateTransition
	}
	return rec.OutputName, rec.Output, nil
}

// ConvertedOutput is one converted record's output, used by the archive
// assembler.
type ConvertedOutput struct {
	FileID      string
	Name        string
	Text        string
	ConvertedAt time.Time
}

// ConvertedOutputs returns every converted record's output under the
// session scope, so the caller sees a consistent snapshot.
func (s *Session) ConvertedOutputs() []ConvertedOutput {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ConvertedOutput
	for _, rec := range s.files {
		if rec.State != models.StateConverted {
			continue
		}
		out = append(out, ConvertedOutput{
			FileID:      rec.ID,
			Name:        rec.OutputName,
			Text:        rec.Output,
			ConvertedAt: rec.ConvertedAt,
		})
	}
	return out
}

// ConvertFunc converts one record's bytes. The raw bytes are passed
// separately because record snapshots never carry them. taken holds output
// filenames already claimed within the session; the callback must register
// the name it assigns. It returns the output filename and rendered text.
type ConvertFunc func(rec models.FileRecord, data []byte, taken map[string]bool) (string, string, error)

// ConvertPending runs one batch conversion under the session's mutating
// scope: every uploaded record transitions to converting and is converted
// independently, so one file's failure never aborts its siblings. A panic
// in the converter rolls that record back to uploaded.
func (s *Session) ConvertPending(convert ConvertFunc) []models.ConversionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[string]bool)
	var pending []*models.FileRecord
	for _, rec := range s.files {
		if rec.State == models.StateConverted {
			taken[rec.OutputName] = true
		}
		if rec.State == models.StateUploaded {
			rec.State = models.StateConverting
			pending = append(pending, rec)
		}
	}

	results := make([]models.ConversionResult, 0, len(pending))
	for _, rec := range pending {
		results = append(results, convertOne(rec, convert, taken))
	}

	s.lastActivity = time.Now()
	return results
}

func convertOne(rec *models.FileRecord, convert ConvertFunc, taken map[string]bool) (res models.ConversionResult) {
	res = models.ConversionResult{FileID: rec.ID, Filename: rec.Filename}

	defer func() {
		if r := recover(); r != nil {
			rec.State = models.StateUploaded
			res.State = models.StateUploaded
			res.Error = "conversion aborted unexpectedly"
		}
	}()

	name, text, err := convert(rec.Snapshot(), rec.Data, taken)
	if err != nil {
		rec.State = models.StateError
		rec.Error = err.Error()
		res.State = models.StateError
		res.Error = rec.Error
		return res
	}

	rec.State = models.StateConverted
	rec.OutputName = name
	rec.Output = text
	rec.Error = ""
	rec.ConvertedAt = time.Now()

	res.State = models.StateConverted
	res.OutputName = name
	res.ConvertedAt = rec.ConvertedAt
	return res
}

// find returns the live record for an ID. Callers must hold mu.
func (s *Session) find(fileID string) *models.FileRecord {
	for _, rec := range s.files {
		if rec.ID == fileID {
			return rec
		}
	}
	return nil
}

// dropAllLocked frees every record's bytes exactly once. Callers hold mu.
func (s *Session) dropAllLocked() {
	if s.freed {
		return
	}
	for _, rec := range s.files {
		rec.Data = nil
	}
	s.files = nil
	s.totalSize = 0
}

// free releases all storage after the session left the registry. The freed
// flag guards against a concurrent Clear racing a store delete.
func (s *Session) free() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropAllLocked()
	s.freed = true
}
