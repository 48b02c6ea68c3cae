package domain

import (
	"context"
	"time"
)

// Upload is a file received from a client, already read into memory and
// bounded by the upload size limit.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// BlobStore keeps uploaded files outside the document store.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
