package service

import "context"

// BlobUploader moves a locally staged file into durable storage.
type BlobUploader interface {
	// Upload stores the file under folder and returns its public URL.
	Upload(ctx context.Context, localPath, folder string) (string, error)
}
