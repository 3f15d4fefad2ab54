package service

import (
	"bytes"
	"context"
	"fmt"
	neturl "net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Storage is a service to persist result payloads
type Storage interface {
	// Save persists the payload under the given name and returns its uri
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// NewStorage creates the Storage matching the uri scheme.
// Supported schemes: file:// (or a plain path), gs://, s3://
func NewStorage(ctx context.Context, storageURI string) (Storage, error) {
	url, err := neturl.Parse(storageURI)
	if err != nil {
		return nil, fmt.Errorf("NewStorage.Parse: %w", err)
	}
	switch url.Scheme {
	case "", "file":
		return fileStorage{dir: filepath.Join(url.Host, url.Path)}, nil
	case "gs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("NewStorage.GS: %w", err)
		}
		return gsStorage{client: client, bucket: url.Host, prefix: strings.TrimPrefix(url.Path, "/")}, nil
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("NewStorage.S3: %w", err)
		}
		uploader := manager.NewUploader(s3.NewFromConfig(cfg))
		return s3Storage{uploader: uploader, bucket: url.Host, prefix: strings.TrimPrefix(url.Path, "/")}, nil
	}
	return nil, fmt.Errorf("NewStorage: unsupported scheme: %s", url.Scheme)
}

type fileStorage struct {
	dir string
}

func (s fileStorage) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0766); err != nil {
		return "", fmt.Errorf("Save.MkdirAll: %w", err)
	}
	dst := filepath.Join(s.dir, name)
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("Save.WriteFile: %w", err)
	}
	return dst, nil
}

type gsStorage struct {
	client *gstorage.Client
	bucket string
	prefix string
}

func (s gsStorage) Save(ctx context.Context, name string, data []byte) (string, error) {
	object := path.Join(s.prefix, name)
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("Save.Write to gs://%s/%s: %w", s.bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Save.Close gs://%s/%s: %w", s.bucket, object, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

type s3Storage struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

func (s s3Storage) Save(ctx context.Context, name string, data []byte) (string, error) {
	object := path.Join(s.prefix, name)
	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(object),
		Body:   bytes.NewReader(data),
	}); err != nil {
		return "", fmt.Errorf("Save.Upload to s3://%s/%s: %w", s.bucket, object, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, object), nil
}
