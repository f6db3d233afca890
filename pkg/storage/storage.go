// Package storage defines the object-storage capability used by the transfer
// engine and picks the driver that implements it.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sgaunet/s3-nocheck-resource/pkg/config"
	"github.com/sgaunet/s3-nocheck-resource/pkg/miniosvc"
	"github.com/sgaunet/s3-nocheck-resource/pkg/s3svc"
)

// ObjectStore is the minimal set of bucket operations the resource needs.
type ObjectStore interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
}

var (
	_ ObjectStore = (*s3svc.Service)(nil)
	_ ObjectStore = (*miniosvc.Service)(nil)
)

// Connector opens a store scoped to a region. Every call resolves
// credentials anew; nothing is cached between calls.
type Connector interface {
	Connect(ctx context.Context, region string) (ObjectStore, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, region string) (ObjectStore, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context, region string) (ObjectStore, error) {
	return f(ctx, region)
}

// sourceConnector builds stores from the resource source.
type sourceConnector struct {
	src config.Source
	log *slog.Logger
}

// NewConnector returns the connector matching src.Driver.
func NewConnector(src config.Source, log *slog.Logger) Connector {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &sourceConnector{src: src, log: log}
}

// Connect implements Connector.
func (c *sourceConnector) Connect(ctx context.Context, region string) (ObjectStore, error) {
	switch c.src.StorageDriver() {
	case config.DriverMinio:
		svc, err := miniosvc.NewMinioSvc(c.src, region)
		if err != nil {
			return nil, err
		}
		svc.SetLogger(c.log)
		return svc, nil
	case config.DriverAWS:
		cfg, err := s3svc.GetAwsConfig(ctx, c.src, region, c.log)
		if err != nil {
			return nil, err
		}
		svc := s3svc.NewS3Svc(s3svc.NewClient(cfg, c.src))
		svc.SetLogger(c.log)
		return svc, nil
	default:
		return nil, fmt.Errorf("Connect: unknown driver %q", c.src.Driver)
	}
}
