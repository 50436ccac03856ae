// Package auth keeps the backend bearer token on disk so a restart while
// offline does not force a re-login.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore persists the backend bearer token in the application data
// directory and answers Token() for outgoing requests.
type TokenStore struct {
	mu   sync.RWMutex
	path string

	token string
}

type tokenFile struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"savedAt"`
}

// NewTokenStore opens (or initializes) the token store under dataDir.
// A corrupt or missing token file simply starts the store empty.
func NewTokenStore(dataDir string) (*TokenStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &TokenStore{path: filepath.Join(dataDir, "token.json")}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return s, nil
	}
	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return s, nil
	}
	s.token = f.Token
	return s, nil
}

// Token returns the stored bearer token, or "" when no valid token exists.
// Expired JWTs are treated as absent.
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || isExpired(s.token) {
		return ""
	}
	return s.token
}

// Set stores a new token and persists it to disk.
func (s *TokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token

	data, err := json.Marshal(tokenFile{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode token file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	return nil
}

// Clear drops the token in memory and on disk.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// isExpired parses the JWT without verifying its signature (the server is
// the authority; we only need the exp claim for local hygiene). Tokens that
// do not parse as JWTs are passed through untouched.
func isExpired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
