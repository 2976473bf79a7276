// Package auth provides the credential store consumed by the REST client
// and the realtime channel. The token itself is issued elsewhere; this core
// only reads it.
package auth

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store yields the bearer credential for outgoing requests. An empty string
// with nil error means no credential is available.
type Store interface {
	Token() (string, error)
}

// StaticStore returns a fixed token, used by tests and embedders that manage
// the credential themselves.
type StaticStore struct {
	mu    sync.RWMutex
	token string
}

func NewStaticStore(token string) *StaticStore {
	return &StaticStore{token: token}
}

func (s *StaticStore) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// SetToken replaces the stored credential.
func (s *StaticStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// FileStore reads the token from a file, the CLI's stand-in for the app's
// secure storage. The file is re-read on every call so an external refresh
// is picked up without restarting.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Token() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// TokenExpiry extracts the expiry claim without verifying the signature.
// The client cannot verify a server-signed token; this exists only to warn
// before attempting a connection with a stale credential. Returns false when
// the token is not a JWT or carries no expiry.
func TokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// TokenExpired reports whether the token is a JWT whose expiry has passed.
func TokenExpired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && exp.Before(now)
}
