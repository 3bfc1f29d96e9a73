package blob

import (
	"context"
	"errors"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// AzureUploader writes objects to an Azure Blob Storage container.
type AzureUploader struct {
	client    *azblob.Client
	container string

	ensureOnce sync.Once
	ensureErr  error
}

func NewAzureUploader(connectionString, container string) (*AzureUploader, error) {
	if connectionString == "" {
		return nil, errors.New("azure storage connection string not configured")
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, err
	}
	return &AzureUploader{client: client, container: container}, nil
}

// ensureContainer creates the container with public blob access on first use.
func (u *AzureUploader) ensureContainer(ctx context.Context) error {
	u.ensureOnce.Do(func() {
		access := azblob.PublicAccessTypeBlob
		_, err := u.client.CreateContainer(ctx, u.container, &azblob.CreateContainerOptions{Access: &access})
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			u.ensureErr = err
			return
		}
		zap.L().Info("azure container ready", zap.String("namespace", "blob"), zap.String("container", u.container))
	})
	return u.ensureErr
}

func (u *AzureUploader) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := u.ensureContainer(ctx); err != nil {
		return "", err
	}
	_, err := u.client.UploadBuffer(ctx, u.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", err
	}
	return joinURL(joinURL(u.client.URL(), u.container), name), nil
}
