package domain

import (
	"context"
	"io"
)

// Хранилище бинарного контента (S3/MinIO). Ключи задаёт вызывающий:
// чанки, сборка, оригиналы и варианты живут под разными префиксами.
type BlobStorage interface {
	// size=-1, если длина неизвестна (стриминг через pipe)
	Put(ctx context.Context, key string, r io.Reader, size int64, mime string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Server-side копия объекта
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, keys ...string) error
	// Ключи всех объектов под префиксом, порядок не гарантирован
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}
