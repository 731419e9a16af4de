package redact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "first_names.txt")
	content := "# common first names\nJan\n\n  Anna  \nPiotr\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	names, err := LoadNameFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan", "Anna", "Piotr"}, names)
}

func TestLoadNameFileMissing(t *testing.T) {
	_, err := LoadNameFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDictionaryGatedAnonymization(t *testing.T) {
	dir := t.TempDir()
	firstPath := filepath.Join(dir, "first.txt")
	surPath := filepath.Join(dir, "sur.txt")
	require.NoError(t, os.WriteFile(firstPath, []byte("Jan\n"), 0o644))
	require.NoError(t, os.WriteFile(surPath, []byte("Kowalski\n"), 0o644))

	first, err := LoadNameFile(firstPath)
	require.NoError(t, err)
	sur, err := LoadNameFile(surPath)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.FirstNames = first
	cfg.Surnames = sur
	a := mustAnonymizer(t, cfg)

	res := a.Anonymize(context.Background(), "Umowę zawarli Jan Kowalski oraz Piotr Zieliński")
	assert.Equal(t, "Umowę zawarli [NAME] oraz Piotr Zieliński", res.Text)
}
