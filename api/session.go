/*
session.go - Admin session handling

Sessions are opaque random tokens kept in memory and set as an HttpOnly
cookie. One shared admin password guards the administrative routes; there is
no per-user account model. Restarting the server logs the admin out, which
is acceptable for this deployment size.
*/
package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

const (
	sessionCookie = "leave_session"
	sessionTTL    = 12 * time.Hour
)

// Sessions is an in-memory admin session registry.
type Sessions struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
}

// NewSessions returns an empty registry.
func NewSessions() *Sessions {
	return &Sessions{tokens: make(map[string]time.Time)}
}

// Open mints a new session token.
func (s *Sessions) Open() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = time.Now().Add(sessionTTL)
	return token, nil
}

// Valid reports whether token is a live session, pruning it when expired.
func (s *Sessions) Valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Close revokes a session token.
func (s *Sessions) Close(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// checkPassword compares in constant time.
func checkPassword(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// RequireAdmin guards administrative routes behind a live session cookie.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || !h.Sessions.Valid(cookie.Value) {
			writeError(w, http.StatusUnauthorized, "Admin session required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login opens an admin session when the password matches.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !checkPassword(req.Password, h.AdminPassword) {
		writeError(w, http.StatusUnauthorized, "Invalid password", nil)
		return
	}

	token, err := h.Sessions.Open()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open session", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Logout revokes the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		h.Sessions.Close(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
