package blob

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dayyanintl/surgishop/config"
)

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// ObjectName returns a unique object name keeping the extension of filename.
func ObjectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return uuid.NewString() + ext
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}

// New builds the uploader selected by cfg.Backend.
func New(cfg config.StorageConfig, localDir string) (Uploader, error) {
	switch cfg.Backend {
	case "azure":
		return NewAzureUploader(cfg.AzureConnectionString, cfg.AzureContainer)
	case "sftp":
		return NewSftpUploader(cfg)
	case "local", "":
		return NewLocalUploader(localDir, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
