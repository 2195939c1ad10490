// Package auth identifies the commissioner who may set up and reset the
// draft.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const sessionCookie = "session_id"

// DefaultCommissionerGroups grant commissioner rights.
var DefaultCommissionerGroups = []string{"admins", "commissioner"}

// User represents an authenticated user
type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

// Session represents a user session
type Session struct {
	ID        string
	User      *User
	Token     *oauth2.Token
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Provider is a common interface for authentication providers
type Provider interface {
	LoginHandler(w http.ResponseWriter, r *http.Request)
	CallbackHandler(w http.ResponseWriter, r *http.Request)
	LogoutHandler(w http.ResponseWriter, r *http.Request)
	Middleware(next http.HandlerFunc) http.HandlerFunc
}

type contextKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// GetUser retrieves the authenticated user from the request context
func GetUser(r *http.Request) *User {
	user, _ := r.Context().Value(contextKey{}).(*User)
	return user
}

// IsCommissioner reports whether user belongs to any of groups. With no
// groups given the defaults apply.
func IsCommissioner(user *User, groups ...string) bool {
	if user == nil {
		return false
	}
	if len(groups) == 0 {
		groups = DefaultCommissionerGroups
	}
	for _, g := range user.Groups {
		if slices.Contains(groups, g) {
			return true
		}
	}
	return false
}

// RequireCommissioner wraps an authenticated handler and rejects users
// outside groups with 403.
func RequireCommissioner(groups []string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		if user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !IsCommissioner(user, groups...) {
			http.Error(w, "Forbidden: commissioner access required", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// sessionStore keeps sessions in memory.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*Session), now: time.Now}
}

func (s *sessionStore) create(user *User, token *oauth2.Token, expires time.Time) *Session {
	session := &Session{
		ID:        randomToken(),
		User:      user,
		Token:     token,
		CreatedAt: s.now(),
		ExpiresAt: expires,
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// lookup returns the live session for r's cookie. Expired sessions are
// dropped.
func (s *sessionStore) lookup(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	session, ok := s.sessions[cookie.Value]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(session.ExpiresAt) {
		s.delete(session.ID)
		return nil, false
	}
	return session, true
}

func (s *sessionStore) delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// middleware attaches the session user. Unauthenticated API calls get 401,
// pages are redirected to the login flow.
func (s *sessionStore) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.lookup(r)
		if !ok {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), session.User)))
	}
}

func (s *sessionStore) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func randomToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
