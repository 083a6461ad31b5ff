package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenFile holds a saved authentication token.
type TokenFile struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Server    string    `json:"server"`
}

// IsExpired returns true if the token has expired (with optional margin).
// A zero ExpiresAt never expires.
func (t *TokenFile) IsExpired(margin time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(margin).After(t.ExpiresAt)
}

// NewTokenFile builds a token file, taking the expiry from the token's exp
// claim when it is a JWT.
func NewTokenFile(token, server string) *TokenFile {
	tf := &TokenFile{Token: token, Server: server}
	if exp, ok := ExpiryFromJWT(token); ok {
		tf.ExpiresAt = exp
	}
	return tf
}

// ExpiryFromJWT reads the exp claim without verifying the signature. The
// server verifies tokens; the client only needs to know when to stop
// sending one.
func ExpiryFromJWT(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// DefaultTokenPath returns the default path for the token file.
func DefaultTokenPath() string {
	return filepath.Join(ConfigDir(), "token.json")
}

// ConfigDir returns the per-user FileFlow configuration directory.
func ConfigDir() string {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "FileFlow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fileflow")
}

// SaveToken writes tf to path with owner-only permissions.
func SaveToken(path string, tf *TokenFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadToken reads a token file.
func LoadToken(path string) (*TokenFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf TokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, err
	}
	return &tf, nil
}

// DeleteToken removes a token file. A missing file is not an error.
func DeleteToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// FileSource reads the token file on every call, so a token saved by a
// concurrent login is picked up immediately. Missing or expired tokens
// yield "".
type FileSource struct {
	Path   string
	Logger *zap.Logger
}

// Token implements client.TokenSource.
func (s *FileSource) Token(context.Context) (string, error) {
	tf, err := LoadToken(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if tf.IsExpired(0) {
		if s.Logger != nil {
			s.Logger.Warn("saved token has expired",
				zap.String("path", s.Path),
				zap.Time("expires_at", tf.ExpiresAt))
		}
		return "", nil
	}
	return tf.Token, nil
}
