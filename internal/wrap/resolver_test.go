package wrap

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyHashAcceptsMatchingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	sum := sha256.Sum256([]byte("hello"))
	require.NoError(t, verifyHash(path, hex.EncodeToString(sum[:])))
}

func TestVerifyHashRejectsMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	err := verifyHash(path, "0000000000000000000000000000000000000000000000000000000000000000")
	require.Error(t, err)
}

func TestExtractZipRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("pwned"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(dir, "dest")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	err = extractZip(archivePath, dest)
	require.Error(t, err)
}

func TestExtractZipExtractsRegularEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "ok.zip")
	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("pkg/file.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("contents"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(dir, "dest")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, extractZip(archivePath, dest))

	got, err := os.ReadFile(filepath.Join(dest, "pkg", "file.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(got))
}

func TestResolveVendoredDirectoryWinsWithoutWrap(t *testing.T) {
	subprojects := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(subprojects, "foo"), 0o755))

	r, err := NewResolver(subprojects, "", nil)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), "foo")
	require.NoError(t, err)
	require.Equal(t, "foo", got)
}

func TestResolveMissingWrapAndDirectory(t *testing.T) {
	subprojects := t.TempDir()
	r, err := NewResolver(subprojects, "", nil)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "nope")
	require.Error(t, err)
}

func TestNewResolverRejectsBadCABundle(t *testing.T) {
	subprojects := t.TempDir()
	_, err := NewResolver(subprojects, filepath.Join(subprojects, "missing-ca.pem"), nil)
	require.Error(t, err)
}
