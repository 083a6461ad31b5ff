// Package prefs persists user interface preferences across sessions.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fileflow/fileflow/internal/auth"
)

// View is the listing layout.
type View string

const (
	ViewList View = "list"
	ViewGrid View = "grid"
)

// ErrUnknownView is returned for a view other than list or grid.
var ErrUnknownView = errors.New("unknown view")

// ParseView validates s.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewList, ViewGrid:
		return v, nil
	default:
		return "", fmt.Errorf("%w %q (want list or grid)", ErrUnknownView, s)
	}
}

// Prefs is the on-disk preference file.
type Prefs struct {
	View View `json:"view"`
	// LastFolder is the folder the last listing showed, so breadcrumb
	// navigation can continue from it in a later session.
	LastFolder string `json:"lastFolder,omitempty"`
}

// Default returns the preferences used when nothing is saved.
func Default() Prefs {
	return Prefs{View: ViewList}
}

// DefaultPath returns the preference file location.
func DefaultPath() string {
	return filepath.Join(auth.ConfigDir(), "prefs.json")
}

// Load reads the preferences at path. A missing file yields Default.
// A stored view that is not recognised is replaced by the default.
func Load(path string) (Prefs, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), err
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := ParseView(string(p.View)); err != nil {
		p.View = ViewList
	}
	return p, nil
}

// Save writes p to path, creating the directory if needed.
func Save(path string, p Prefs) error {
	if _, err := ParseView(string(p.View)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
