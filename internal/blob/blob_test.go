package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayyanintl/surgishop/config"
)

func TestObjectName(t *testing.T) {
	name := ObjectName("Scalpel Photo.JPG")
	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.Len(t, name, 36+4)
	assert.NotEqual(t, name, ObjectName("Scalpel Photo.JPG"))

	assert.Len(t, ObjectName("noext"), 36)
}

func TestLocalUploader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	u := NewLocalUploader(dir, "/uploads/")

	url, err := u.Upload(context.Background(), "a.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestLocalUploaderStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	u := NewLocalUploader(dir, "/uploads")
	url, err := u.Upload(context.Background(), "../../etc/x.png", []byte("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/x.png", url)
	assert.FileExists(t, filepath.Join(dir, "x.png"))
}

func TestNewBackendSelection(t *testing.T) {
	u, err := New(config.StorageConfig{Backend: "local", PublicBaseURL: "/u"}, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &LocalUploader{}, u)

	_, err = New(config.StorageConfig{Backend: "azure"}, "")
	assert.Error(t, err)

	_, err = New(config.StorageConfig{Backend: "sftp"}, "")
	assert.Error(t, err)

	u, err = New(config.StorageConfig{Backend: "sftp", SftpAddr: "files:22", SftpUser: "shop"}, "")
	require.NoError(t, err)
	assert.IsType(t, &SftpUploader{}, u)

	_, err = New(config.StorageConfig{Backend: "s3"}, "")
	assert.Error(t, err)
}
