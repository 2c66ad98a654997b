package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// ZipEntry is one member of a fixture archive.
type ZipEntry struct {
	Name    string
	Content string
}

// BuildZip writes a zip archive holding entries, in order, to a temporary directory and returns its path.
func BuildZip(t *testing.T, entries ...ZipEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	require.NoError(t, err, "Setup: could not create zip file")
	defer f.Close()

	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e.Name)
		require.NoError(t, err, "Setup: could not add zip member %q", e.Name)
		_, err = fw.Write([]byte(e.Content))
		require.NoError(t, err, "Setup: could not write zip member %q", e.Name)
	}
	require.NoError(t, w.Close(), "Setup: could not finalize zip file")
	return path
}

// Zip is a shorthand for BuildZip with a single member.
func Zip(t *testing.T, name, content string) string {
	t.Helper()
	return BuildZip(t, ZipEntry{Name: name, Content: content})
}
