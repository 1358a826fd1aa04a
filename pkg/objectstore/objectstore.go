package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"certmap/pkg/config"
)

// ErrObjectNotFound is returned when the requested key does not exist in the store.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore reads raw object bytes by key. Implementations must be safe for
// concurrent use.
type ObjectStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// New builds an ObjectStore from configuration. STORAGE_MODE=gcs reads from a
// Cloud Storage bucket, anything else falls back to the local filesystem store.
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (ObjectStore, error) {
	switch strings.ToLower(cfg.Mode) {
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, logger)
	default:
		return NewFSStore(cfg.LocalDir, logger), nil
	}
}

// GCSStore reads objects from a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

func NewGCSStore(ctx context.Context, bucket string, logger *zap.Logger) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs object store requires a bucket name")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	logger.Info("Object storage initialized",
		zap.String("mode", "gcs"),
		zap.String("bucket", bucket),
	)

	return &GCSStore{
		client: client,
		bucket: bucket,
		logger: logger,
	}, nil
}

func (s *GCSStore) Read(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	return data, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// FSStore reads objects from a local directory. Used for development and tests.
type FSStore struct {
	root   string
	logger *zap.Logger
}

func NewFSStore(root string, logger *zap.Logger) *FSStore {
	return &FSStore{
		root:   root,
		logger: logger,
	}
}

func (s *FSStore) Read(_ context.Context, key string) ([]byte, error) {
	// Keep reads inside the root directory
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.root, clean)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	return data, nil
}
