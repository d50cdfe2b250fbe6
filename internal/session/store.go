// Package session owns authentication state: the persisted bearer token,
// the in-memory session, and the guard protecting authenticated views.
package session

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/neointegratech/portal-client/pkg/errors"
)

// Store persists the bearer token across process restarts. It is the only
// durable client state; everything else is rebuilt in memory. Writes go
// through the session manager exclusively, other components only read.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileStore keeps the token in a single file with owner-only permissions.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the persisted token, or "" when none is stored.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", apperrors.Wrap(err, "failed to read token file")
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return apperrors.Wrap(err, "failed to create token directory")
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		return apperrors.Wrap(err, "failed to write token file")
	}
	return nil
}

// Clear removes the persisted token. Clearing an absent token is a no-op.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(err, "failed to remove token file")
	}
	return nil
}

// Token implements api.TokenSource: every protected call attaches the
// persisted token, tolerating staleness by re-reading at the point of use.
func (s *FileStore) Token() string {
	token, err := s.Load()
	if err != nil {
		return ""
	}
	return token
}
