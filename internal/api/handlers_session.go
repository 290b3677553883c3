// handlers_session.go - Session resolution and lifecycle
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/session"
)

const (
	sessionCookieName = "session_id"
	sessionHeaderName = "X-Session-ID"
)

// SessionHandler resolves the calling session from the cookie or
// header token and exposes the session info endpoint.
type SessionHandler struct {
	store *session.Store
	ttl   time.Duration
}

// SessionResponse describes the calling session
type SessionResponse struct {
	SessionID           string   `json:"session_id"`
	CreatedAt           string   `json:"created_at"`
	FileCount           int      `json:"file_count"`
	TotalSize           int64    `json:"total_size"`
	TTLSeconds          int      `json:"ttl_seconds"`
	SupportedExtensions []string `json:"supported_extensions"`
}

// token extracts the session token from the request, preferring the
// cookie and falling back to the X-Session-ID header.
func (h *SessionHandler) token(c echo.Context) string {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return c.Request().Header.Get(sessionHeaderName)
}

// Resolve returns the session for the request, creating one if the
// token is absent or no longer known. New sessions get a fresh cookie.
func (h *SessionHandler) Resolve(c echo.Context) *session.Session {
	sess, created := h.store.GetOrCreate(h.token(c))
	if created {
		h.setCookie(c, sess.ID)
	}
	return sess
}

// Require returns the session for the request's token. Unlike Resolve it
// never creates one: an absent or unknown token is a NOT_FOUND, which is
// also what an expired session looks like to the client.
func (h *SessionHandler) Require(c echo.Context) (*session.Session, error) {
	token := h.token(c)
	if token == "" {
		return nil, &APIError{
			Status:  http.StatusNotFound,
			Code:    "NOT_FOUND",
			Message: "no active session",
		}
	}
	sess, err := h.store.Get(token)
	if err != nil {
		return nil, FromDomainError(err)
	}
	return sess, nil
}

func (h *SessionHandler) setCookie(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// HandleSession returns info about the calling session, creating it
// on first contact.
// GET /api/session
func (h *SessionHandler) HandleSession(c echo.Context) error {
	sess := h.Resolve(c)
	return c.JSON(http.StatusOK, SessionResponse{
		SessionID:           sess.ID,
		CreatedAt:           sess.CreatedAt.UTC().Format(time.RFC3339),
		FileCount:           len(sess.Files()),
		TotalSize:           sess.TotalSize(),
		TTLSeconds:          int(h.ttl.Seconds()),
		SupportedExtensions: models.SupportedExtensions(),
	})
}
