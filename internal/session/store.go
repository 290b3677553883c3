package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// Store is the process-wide session registry. Its own mutex covers only
// insert/lookup/delete of registry entries; per-session state serializes on
// the session's mutex, so sessions never block one another.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	limits   Limits
	log      zerolog.Logger
}

// NewStore creates an empty registry.
func NewStore(limits Limits, log zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		limits:   limits,
		log:      log,
	}
}

// GetOrCreate returns the session for token, creating a fresh one when the
// token is absent or unknown. The second return reports whether a new
// session was created. Successful lookups slide the TTL window.
func (st *Store) GetOrCreate(token string) (*Session, bool) {
	if token != "" {
		st.mu.RLock()
		sess, ok := st.sessions[token]
		st.mu.RUnlock()
		if ok {
			sess.Touch()
			return sess, false
		}
	}

	sess := newSession(st.limits)
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	st.log.Debug().Str("session", sess.ID).Msg("session created")
	return sess, true
}

// Get returns an existing session and slides its TTL window.
func (st *Store) Get(token string) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[token]
	st.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	sess.Touch()
	return sess, nil
}

// Delete removes the session from the registry and releases its file bytes.
// The release waits on the session's own scope, so an in-flight operation
// always completes before storage is freed.
func (st *Store) Delete(token string) error {
	st.mu.Lock()
	sess, ok := st.sessions[token]
	if ok {
		delete(st.sessions, token)
	}
	st.mu.Unlock()

	if !ok {
		return models.ErrNotFound
	}

	sess.free()
	st.log.Debug().Str("session", token).Msg("session deleted")
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Tokens snapshots the registered session tokens.
func (st *Store) Tokens() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	tokens := make([]string, 0, len(st.sessions))
	for token := range st.sessions {
		tokens = append(tokens, token)
	}
	return tokens
}

// Peek returns a session without sliding its TTL window. Only the expiry
// sweeper wants this; client lookups go through Get.
func (st *Store) Peek(token string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[token]
	return sess, ok
}

// DropAll releases every session, used at process shutdown.
func (st *Store) DropAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, sess := range sessions {
		sess.free()
	}
	if len(sessions) > 0 {
		st.log.Info().Int("count", len(sessions)).Msg("dropped all sessions")
	}
}
