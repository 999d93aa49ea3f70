package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Samir899/SpendVolt/internal/storage"
)

// BlobService stores cache slots in Azure Blob Storage.
type BlobService struct {
	client *azblob.Client

	mu      sync.Mutex
	ensured map[string]bool
}

var _ storage.BlobClient = (*BlobService)(nil)

// NewBlobService creates a BlobService for BLOB_SERVICE_URL.
func NewBlobService() (*BlobService, error) {
	blobURL := os.Getenv("BLOB_SERVICE_URL")
	if blobURL == "" {
		return nil, fmt.Errorf("BLOB_SERVICE_URL environment variable is required")
	}

	slog.Info("initializing blob service", "blob_url", blobURL)
	var client *azblob.Client

	if isLocal(blobURL) {
		slog.Info("using Azurite shared key credentials for blob service")
		name, key := azuriteCredentials()
		cred, err := azblob.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azblob.NewClient(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}

	slog.Info("blob service initialized successfully")
	return &BlobService{client: client, ensured: make(map[string]bool)}, nil
}

// ensureContainer creates the container on first use.
func (s *BlobService) ensureContainer(ctx context.Context, containerName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured[containerName] {
		return
	}
	_, err := s.client.CreateContainer(ctx, containerName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		slog.Warn("failed to create container", "container", containerName, "error", err)
		return
	}
	s.ensured[containerName] = true
}

// UploadText replaces the blob with text.
func (s *BlobService) UploadText(ctx context.Context, containerName, blobName, text string) error {
	s.ensureContainer(ctx, containerName)

	_, err := s.client.UploadBuffer(ctx, containerName, blobName, []byte(text), nil)
	if err != nil {
		slog.Error("failed to upload blob", "container", containerName, "blob_name", blobName, "error", err)
		return fmt.Errorf("failed to upload blob %s/%s: %w", containerName, blobName, err)
	}
	slog.Debug("uploaded blob", "container", containerName, "blob_name", blobName, "size_bytes", len(text))
	return nil
}

// DownloadText returns the blob's content. Missing blobs and containers
// yield storage.ErrNotFound.
func (s *BlobService) DownloadText(ctx context.Context, containerName, blobName string) (string, error) {
	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return "", fmt.Errorf("%s/%s: %w", containerName, blobName, storage.ErrNotFound)
		}
		slog.Error("failed to download blob", "container", containerName, "blob_name", blobName, "error", err)
		return "", fmt.Errorf("failed to download blob %s/%s: %w", containerName, blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read blob content: %w", err)
	}
	slog.Debug("downloaded blob", "container", containerName, "blob_name", blobName, "size_bytes", len(data))
	return string(data), nil
}
