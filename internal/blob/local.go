package blob

import (
	"context"
	"os"
	"path/filepath"
)

// LocalUploader writes objects into a directory served by the web server.
type LocalUploader struct {
	dir     string
	baseURL string
}

func NewLocalUploader(dir, baseURL string) *LocalUploader {
	return &LocalUploader{dir: dir, baseURL: baseURL}
}

// Dir is the directory objects are written to.
func (u *LocalUploader) Dir() string {
	return u.dir
}

func (u *LocalUploader) Upload(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(u.dir, filepath.Base(name)), data, 0o644); err != nil {
		return "", err
	}
	return joinURL(u.baseURL, filepath.Base(name)), nil
}
