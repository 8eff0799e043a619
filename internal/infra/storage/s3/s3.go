package s3

import (
	"context"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

type Storage struct {
	cl     *minio.Client
	bucket string
	logger *log.Logger
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Storage{cl: cl, bucket: cfg.Bucket, logger: logger}, nil
}

// Put записывает объект по явному ключу. size=-1 — стриминг без известной длины.
// Повторный Put по тому же ключу перезаписывает объект (ретрай чанка = overwrite).
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, mime string) error {
	info, err := s.cl.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: mime,
	})
	if err != nil {
		s.logger.Printf("PUT %q failed: %v", key, err)
		return err
	}
	s.logger.Printf("PUT %q ok (%d bytes)", key, info.Size)
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.cl.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		s.logger.Printf("GET %q failed: %v", key, err)
		return nil, err
	}
	return obj, nil
}

// Copy — server-side копия (оригинал и mock-варианты из собранного файла).
func (s *Storage) Copy(ctx context.Context, srcKey, dstKey string) error {
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey}
	dst := minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey}
	if _, err := s.cl.CopyObject(ctx, dst, src); err != nil {
		s.logger.Printf("COPY %q -> %q failed: %v", srcKey, dstKey, err)
		return err
	}
	s.logger.Printf("COPY %q -> %q ok", srcKey, dstKey)
	return nil
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := s.cl.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Printf("DEL %q failed: %v", key, err)
			return err
		}
	}
	s.logger.Printf("DEL %d objects ok", len(keys))
	return nil
}

// ListPrefix возвращает ключи объектов под префиксом. Порядок не гарантирован —
// сборщик сам сортирует чанки по числовому индексу.
func (s *Storage) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.cl.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			s.logger.Printf("LIST %q failed: %v", prefix, obj.Err)
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	s.logger.Printf("LIST %q: %d objects", prefix, len(keys))
	return keys, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		s.logger.Printf("PING failed: %v", err)
		return err
	}
	if !ok {
		s.logger.Printf("PING: bucket %q does not exist", s.bucket)
		return minio.ErrorResponse{Code: "NoSuchBucket", BucketName: s.bucket}
	}
	return nil
}
