package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsDefault(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)
	assert.Equal(t, ViewList, p.View)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	require.NoError(t, Save(path, Prefs{View: ViewGrid, LastFolder: "42"}))
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ViewGrid, p.View)
	assert.Equal(t, "42", p.LastFolder)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSave_RejectsUnknownView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	err := Save(path, Prefs{View: "tiles"})
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.NoFileExists(t, path)
}

func TestLoad_UnknownStoredViewFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"view":"tiles"}`), 0600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ViewList, p.View)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0600))

	p, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, ViewList, p.View)
}

func TestParseView(t *testing.T) {
	v, err := ParseView("grid")
	require.NoError(t, err)
	assert.Equal(t, ViewGrid, v)

	_, err = ParseView("GRID")
	assert.ErrorIs(t, err, ErrUnknownView)
}
