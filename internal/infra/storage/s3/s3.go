package s3

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/EgorLis/eng-community/internal/domain"
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

// Storage — медиа к постам в S3/MinIO
type Storage struct {
	cl     *minio.Client
	bucket string
	log    *log.Logger
}

var _ domain.BlobStorage = (*Storage)(nil)

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
	s := &Storage{cl: cl, bucket: cfg.Bucket, log: logger}

	exists, err := cl.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket exists: %w", err)
	}
	if !exists {
		if err := cl.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
		logger.Printf("bucket %q created", cfg.Bucket)
	}
	return s, nil
}

// Put загружает поток и возвращает итоговый ключ вида "media/sha256/<hex>" и размер.
func (s *Storage) Put(ctx context.Context, r io.Reader, hintName string, mime string) (domain.BlobPutResult, error) {
	h := sha256.New()
	pr, pw := io.Pipe()
	mw := io.MultiWriter(h, pw)

	// копируем в пайп и считаем sha параллельно
	go func() {
		_, copyErr := io.Copy(mw, r)
		pw.CloseWithError(copyErr)
	}()

	tmpKey := "tmp/" + sanitize(hintName)
	info, err := s.cl.PutObject(ctx, s.bucket, tmpKey, pr, -1, minio.PutObjectOptions{
		ContentType: mime,
	})
	if err != nil {
		s.log.Printf("PUT %q failed: %v", tmpKey, err)
		return domain.BlobPutResult{}, err
	}

	sha := h.Sum(nil)
	finalKey := fmt.Sprintf("media/sha256/%x", sha)
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: tmpKey}
	dst := minio.CopyDestOptions{Bucket: s.bucket, Object: finalKey}
	if _, err := s.cl.CopyObject(ctx, dst, src); err != nil {
		_ = s.cl.RemoveObject(ctx, s.bucket, tmpKey, minio.RemoveObjectOptions{})
		s.log.Printf("COPY %q -> %q failed: %v", tmpKey, finalKey, err)
		return domain.BlobPutResult{}, err
	}
	_ = s.cl.RemoveObject(ctx, s.bucket, tmpKey, minio.RemoveObjectOptions{})

	s.log.Printf("PUT %q ok (%d bytes)", finalKey, info.Size)
	return domain.BlobPutResult{StorageKey: finalKey, Size: info.Size, MIME: mime, SHA256: sha}, nil
}

func (s *Storage) Delete(ctx context.Context, storageKey string) error {
	err := s.cl.RemoveObject(ctx, s.bucket, storageKey, minio.RemoveObjectOptions{})
	if err != nil {
		s.log.Printf("DELETE %q failed: %v", storageKey, err)
	}
	return err
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.cl.BucketExists(ctx, s.bucket)
	return err
}

func sanitize(name string) string {
	u := url.PathEscape(name)
	return strings.ReplaceAll(u, "%2F", "_")
}
