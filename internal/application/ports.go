package application

import "context"

// ObjectStore is the slice of object storage the service needs. The MinIO
// implementation lives in internal/infrastructure/objectstore; tests use an
// in-memory fake.
type ObjectStore interface {
	// Put uploads an object and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}
