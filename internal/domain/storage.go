package domain

import (
	"context"
	"io"
)

// Хранилище медиа (S3/MinIO)
type BlobPutResult struct {
	StorageKey string `json:"key"`
	Size       int64  `json:"size"`
	MIME       string `json:"mime"`
	SHA256     []byte `json:"-"`
}

type BlobStorage interface {
	Put(ctx context.Context, r io.Reader, hintName string, mime string) (BlobPutResult, error)
	Delete(ctx context.Context, storageKey string) error
	Ping(ctx context.Context) error
}
