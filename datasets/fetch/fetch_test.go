package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContent = "id,text,label\n1,hello,ham\n"

func newTestServer(hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(testContent))
	}))
}

func TestDownload(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(&hits)
	defer server.Close()

	filePath := filepath.Join(t.TempDir(), "sub", "corpus.csv")
	size, err := Download(server.URL, filePath, false)
	require.NoError(t, err)
	assert.Equal(t, int64(len(testContent)), size)

	content, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, testContent, string(content))

	// No temporary download file is left behind.
	entries, err := os.ReadDir(filepath.Dir(filePath))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestDownloadBadStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	filePath := filepath.Join(t.TempDir(), "corpus.csv")
	_, err := Download(server.URL, filePath, false)
	require.Error(t, err)
	assert.False(t, FileExists(filePath))
}

func TestDownloadIfMissing(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(&hits)
	defer server.Close()

	filePath := filepath.Join(t.TempDir(), "corpus.csv")
	require.NoError(t, DownloadIfMissing(server.URL, filePath, ""))
	assert.Equal(t, int32(1), hits.Load())

	// Second call finds the file and does not hit the server again.
	require.NoError(t, DownloadIfMissing(server.URL, filePath, ""))
	assert.Equal(t, int32(1), hits.Load())
}

func TestValidateChecksum(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "corpus.csv")
	require.NoError(t, os.WriteFile(filePath, []byte(testContent), 0644))

	digest := sha256.Sum256([]byte(testContent))
	require.NoError(t, ValidateChecksum(filePath, hex.EncodeToString(digest[:])))

	// A mismatch fails and removes the file.
	require.NoError(t, os.WriteFile(filePath, []byte("tampered"), 0644))
	err := ValidateChecksum(filePath, hex.EncodeToString(digest[:]))
	require.Error(t, err)
	assert.False(t, FileExists(filePath))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestReplaceTildeInDir(t *testing.T) {
	assert.Equal(t, "/tmp/x", ReplaceTildeInDir("/tmp/x"))
	replaced := ReplaceTildeInDir("~/x")
	assert.NotContains(t, replaced, "~")
}
