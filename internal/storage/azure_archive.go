package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/pkg/models"
)

// ResultArchiver stores a JSON snapshot of every completed analysis for
// offline inspection. Archiving is best-effort and never blocks a response.
type ResultArchiver interface {
	Archive(ctx context.Context, userID string, result *models.AnalysisResult) error
}

type azureArchiver struct {
	client    *azblob.Client
	container string
}

// NewAzureArchiver creates an archiver backed by Azure Blob Storage.
func NewAzureArchiver(accountName, accountKey, container string) (ResultArchiver, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureArchiver{client: client, container: container}, nil
}

// Archive uploads the result as a timestamped JSON blob under the user's
// prefix.
func (a *azureArchiver) Archive(ctx context.Context, userID string, result *models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis snapshot: %w", err)
	}

	blobName := fmt.Sprintf("%s/%s.json", userID, time.Now().UTC().Format("20060102T150405.000"))
	if _, err := a.client.UploadBuffer(ctx, a.container, blobName, payload, nil); err != nil {
		return fmt.Errorf("upload analysis snapshot: %w", err)
	}

	logger.ForComponent("storage").WithField("blob", blobName).Debug("Analysis snapshot archived")
	return nil
}
