package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadGloveStyleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "the 0.418 0.24968 -0.41242\nof 0.70853 0.57088 -0.4716\ncat 0.45281 -0.50108 -0.53714\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, v.Len())
	require.Equal(t, "the", v.Word(0))
	require.Equal(t, "cat", v.Word(2))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.ErrorIs(t, err, ErrResourceUnavailable)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o644))
	_, err := Load(path)
	require.ErrorIs(t, err, ErrResourceUnavailable)
}

func TestFromWords(t *testing.T) {
	v, err := FromWords([]string{"alpha", "beta"})
	require.NoError(t, err)
	require.Equal(t, 2, v.Len())

	_, err = FromWords(nil)
	require.ErrorIs(t, err, ErrResourceUnavailable)
}
