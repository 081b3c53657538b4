// Package storage is the upload collaborator: it stores a binary blob
// and returns an opaque URL the rest of the system never interprets.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/formfold/formfold/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

// New picks MinIO when an endpoint is configured, the local upload
// directory otherwise.
func New(cfg config.Config) (Store, error) {
	if cfg.MinioEndpoint != "" {
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioKey, cfg.MinioSecret, ""),
			Secure: cfg.MinioSecure,
		})
		if err != nil {
			return nil, fmt.Errorf("storage.minio: %w", err)
		}
		return &minioStore{client: client, cfg: cfg}, nil
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.local: %w", err)
	}
	return &localStore{dir: cfg.UploadDir, baseURL: cfg.BaseURL}, nil
}

// uniqueName keeps the original extension but makes collisions impossible.
func uniqueName(name string) string {
	ext := path.Ext(name)
	return uuid.NewString() + ext
}

type localStore struct {
	dir     string
	baseURL string
}

func (s *localStore) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	object := uniqueName(name)
	f, err := os.Create(filepath.Join(s.dir, object))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return strings.TrimSuffix(s.baseURL, "/") + "/uploads/" + url.PathEscape(object), nil
}

type minioStore struct {
	client *minio.Client
	cfg    config.Config
}

func (s *minioStore) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	object := uniqueName(name)
	_, err := s.client.PutObject(ctx, s.cfg.MinioBucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	scheme := "http"
	if s.cfg.MinioSecure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.MinioEndpoint, s.cfg.MinioBucket, url.PathEscape(object)), nil
}
