package attachments

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// Locator issues attachment URLs for todos backed by one blob container.
// The attachment of a todo is the blob named after the todo id, so the
// public URL is a deterministic function of the id. Upload URLs are
// short-lived write-only SAS credentials for the same blob.
type Locator struct {
	container *container.Client
	expiry    time.Duration
}

// New creates a Locator from the given connection string. The connection
// string must carry a shared key credential; SAS tokens are signed with it.
func New(connStr, containerName string, expiry time.Duration) (*Locator, error) {
	client, err := azblob.NewClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, err
	}
	return &Locator{
		container: client.ServiceClient().NewContainerClient(containerName),
		expiry:    expiry,
	}, nil
}

// AttachmentURL returns the stable public location of the todo's attachment.
// The same id always yields the same URL.
func (l *Locator) AttachmentURL(todoID string) string {
	return l.container.NewBlobClient(todoID).URL()
}

// UploadURL returns a signed URL permitting only the creation of the todo's
// attachment blob, valid for the configured expiry. Signing is local, so
// ctx is unused.
func (l *Locator) UploadURL(_ context.Context, todoID string) (string, error) {
	return l.container.NewBlobClient(todoID).GetSASURL(
		sas.BlobPermissions{Create: true, Write: true},
		time.Now().UTC().Add(l.expiry),
		nil,
	)
}
