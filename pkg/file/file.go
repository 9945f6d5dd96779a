package file

import (
	"context"
	"path"
	"strings"
)

// Object describes a stored file.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	URL         string
}

// Storage keeps generated documents such as receipts. Keys are slash
// separated and relative, e.g. "subscriptions/receipts/x.pdf".
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (Object, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Config selects the backend. Backend "s3" also works with S3 compatible
// services through S3Endpoint.
type Config struct {
	Backend  string `env:"STORAGE_BACKEND" envDefault:"local"`
	LocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"./media"`
	BaseURL  string `env:"STORAGE_BASE_URL" envDefault:"/media/"`

	S3Bucket         string `env:"S3_BUCKET"`
	S3Region         string `env:"S3_REGION" envDefault:"ap-south-1"`
	S3AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
}

// NewFromConfig builds the configured Storage.
func NewFromConfig(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Backend {
	case "", "local":
		st, err := NewLocalStorage(cfg.LocalDir, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "s3":
		st, err := NewS3Storage(ctx, S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			AccessKeyID:    cfg.S3AccessKeyID,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			BaseURL:        cfg.BaseURL,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, ErrInvalidConfig
	}
}

// cleanKey rejects absolute keys and any attempt to climb out of the root.
func cleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	if key == "" || strings.HasPrefix(key, "/") || strings.ContainsRune(key, 0) {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + key
}
