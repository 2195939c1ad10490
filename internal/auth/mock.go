package auth

import (
	"net/http"
	"time"
)

// MockAuth logs everyone in as a development commissioner.
type MockAuth struct {
	sessions *sessionStore
	user     User
}

// NewMockAuth creates a new mock authentication handler
func NewMockAuth() *MockAuth {
	return &MockAuth{
		sessions: newSessionStore(),
		user: User{
			ID:       "dev-user-123",
			Email:    "dev@fpl-draft.local",
			Name:     "Dev Commissioner",
			Username: "devuser",
			Groups:   []string{"users", "commissioner"},
		},
	}
}

// LoginHandler for mock auth - auto-creates a session
func (m *MockAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	user := m.user
	session := m.sessions.create(&user, nil, time.Now().Add(24*time.Hour))

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Expires:  session.ExpiresAt,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CallbackHandler is not needed for mock auth
func (m *MockAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (m *MockAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	m.sessions.logout(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (m *MockAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return m.sessions.middleware(next)
}
