package session

import "fmt"

// LoginRedirect is returned when a guarded view is reached without
// authentication. Target is the originally requested location, so the
// caller can come back after logging in.
type LoginRedirect struct {
	Target string
}

func (e *LoginRedirect) Error() string {
	return fmt.Sprintf("login required (return to %s)", e.Target)
}

// Guard gates access to protected views.
type Guard struct {
	sessions *Manager
}

func NewGuard(sessions *Manager) *Guard {
	return &Guard{sessions: sessions}
}

// Check permits access when either the in-memory session is authenticated
// or a persisted token exists. The double-check matters right after
// startup: the store may not have been rehydrated yet, and the guard must
// not bounce a user who does hold a token.
func (g *Guard) Check(target string) error {
	if g.sessions.Authenticated() {
		return nil
	}
	if g.sessions.PersistedToken() != "" {
		return nil
	}
	return &LoginRedirect{Target: target}
}
