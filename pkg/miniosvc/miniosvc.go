// Package miniosvc implements the object-storage capability for S3-compatible
// endpoints through the MinIO client.
package miniosvc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sgaunet/s3-nocheck-resource/pkg/config"
)

// Service is the MinIO flavour of the storage service.
type Service struct {
	client *minio.Client
	log    *slog.Logger
}

// NewMinioSvc creates a client for src.Endpoint in region.
// Static keys from the source are used when present, otherwise the standard
// AWS_* and MINIO_* environment variables.
func NewMinioSvc(src config.Source, region string) (*Service, error) {
	host, secure, err := parseEndpoint(src)
	if err != nil {
		return nil, err
	}

	var creds *credentials.Credentials
	if src.AccessKeyID != "" {
		creds = credentials.NewStaticV4(src.AccessKeyID, src.SecretAccessKey, src.SessionToken)
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
		})
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  creds,
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("NewMinioSvc: error creating client: %w", err)
	}
	return &Service{
		client: client,
		log:    slog.New(slog.DiscardHandler),
	}, nil
}

// SetLogger sets the logger
func (s *Service) SetLogger(log *slog.Logger) {
	s.log = log
}

// EndpointURL returns the URL the client talks to.
func (s *Service) EndpointURL() *url.URL {
	return s.client.EndpointURL()
}

func parseEndpoint(src config.Source) (host string, secure bool, err error) {
	if src.Endpoint == "" {
		return "", false, fmt.Errorf("NewMinioSvc: endpoint must be provided")
	}
	if !strings.Contains(src.Endpoint, "://") {
		return src.Endpoint, !src.DisableSSL, nil
	}
	u, err := url.Parse(src.Endpoint)
	if err != nil {
		return "", false, fmt.Errorf("NewMinioSvc: invalid endpoint %q: %w", src.Endpoint, err)
	}
	return u.Host, u.Scheme == "https", nil
}

// ListObjects returns every key under prefix, recursively.
func (s *Service) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	// Cancelling stops the listing goroutine when we return early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := []string{}
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("ListObjects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	s.log.Debug("ListObjects", slog.String("bucket", bucket), slog.String("prefix", prefix), slog.Int("count", len(keys)))
	return keys, nil
}

// GetObject returns the body of an object. The caller must close it.
func (s *Service) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("GetObject: %w", err)
	}
	// The request is lazy; Stat surfaces a missing object before any byte is written.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, fmt.Errorf("GetObject: %w", err)
	}
	s.log.Debug("GetObject", slog.String("key", key), slog.Int64("size", info.Size))
	return obj, nil
}

// PutObject streams body to bucket/key.
func (s *Service) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("PutObject: %w", err)
	}
	s.log.Debug("PutObject completed", slog.String("key", key), slog.Int64("size", size))
	return nil
}
