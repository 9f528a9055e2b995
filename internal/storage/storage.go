package storage

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by the no-op store when object storage is not configured.
var ErrDisabled = errors.New("object storage disabled")

// ObjectInfo represents metadata for a remote object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage captures the S3-compatible operations used for dataset
// downloads and export uploads.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Noop is used when object storage is not configured.
type Noop struct{}

func (Noop) ListObjects(context.Context, string) ([]ObjectInfo, error) { return nil, ErrDisabled }

func (Noop) GetObject(context.Context, string) ([]byte, error) { return nil, ErrDisabled }

func (Noop) DownloadObject(context.Context, string, string) error { return ErrDisabled }

func (Noop) UploadObject(context.Context, string, []byte, string) error { return ErrDisabled }

var _ ObjectStorage = Noop{}
