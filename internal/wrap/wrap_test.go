package wrap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const validFileWrap = `[wrap-file]
directory = zlib-1.3
source_url = https://example.invalid/zlib-1.3.tar.gz
source_filename = zlib-1.3.tar.gz
source_hash = abc123
`

const validGitWrap = `[wrap-git]
directory = foo
url = https://example.invalid/foo.git
revision = v1.0
`

func TestParseFileWrap(t *testing.T) {
	pd, err := Parse(validFileWrap)
	require.NoError(t, err)
	require.Equal(t, KindFile, pd.Kind)
	require.Equal(t, "zlib-1.3", pd.Directory())

	v, ok := pd.Get("source_hash")
	require.True(t, ok)
	require.Equal(t, "abc123", v)
}

func TestParseGitWrap(t *testing.T) {
	pd, err := Parse(validGitWrap)
	require.NoError(t, err)
	require.Equal(t, KindGit, pd.Kind)
	require.Equal(t, "v1.0", pd.Keys["revision"])
}

func TestParseRejectsUnknownHeader(t *testing.T) {
	_, err := Parse("[wrap-nonsense]\ndirectory = x\n")
	require.Error(t, err)
}

func TestParseRejectsEmptyContent(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestParseRequiresAllKeysForKind(t *testing.T) {
	_, err := Parse("[wrap-file]\ndirectory = x\n")
	require.Error(t, err, "a wrap-file descriptor missing source_url/source_filename/source_hash must fail")
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	content := "[wrap-file]\n# a comment\n\ndirectory = x\nsource_url = https://example.invalid/x.tar.gz\nsource_filename = x.tar.gz\nsource_hash = deadbeef\n"
	pd, err := Parse(content)
	require.NoError(t, err)
	require.Equal(t, "x", pd.Directory())
}

func TestExpandWrapDBVersion(t *testing.T) {
	content := "[wrap-file]\ndirectory = zlib-1.3\nwrapdb_version = 1\nsource_filename = zlib-1.3.tar.gz\nsource_hash = deadbeef\n"
	pd, err := Parse(content)
	require.NoError(t, err)
	url, ok := pd.Get("source_url")
	require.True(t, ok)
	require.Contains(t, url, "wrapdb.mesonbuild.com")
	require.Contains(t, url, "zlib-1.3_1")
}

func TestLeadDirectoryMissing(t *testing.T) {
	pd := &PackageDefinition{Keys: map[string]string{"lead_directory_missing": "true"}}
	require.True(t, pd.LeadDirectoryMissing())

	pd2 := &PackageDefinition{Keys: map[string]string{}}
	require.False(t, pd2.LeadDirectoryMissing())
}
