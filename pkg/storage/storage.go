// Package storage abstracts where original documents live: local disk by
// default, MinIO or S3 when configured.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kca-ai/document-parser/pkg/logger"
	"github.com/kca-ai/document-parser/pkg/storage/local"
	"github.com/kca-ai/document-parser/pkg/storage/minio"
	"github.com/kca-ai/document-parser/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage stores and retrieves original document files by key.
type Storage interface {
	Store(ctx context.Context, reader io.Reader, filename string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage creates the configured storage backend. localDir is only used
// by the local backend.
func NewStorage(storageType StorageType, localDir string, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeLocal:
		return local.NewLocalStorage(localDir, log)
	case StorageTypeS3:
		return s3.GetClient(log)
	case StorageTypeMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
