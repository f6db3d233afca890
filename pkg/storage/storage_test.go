package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3-nocheck-resource/pkg/config"
	"github.com/sgaunet/s3-nocheck-resource/pkg/miniosvc"
	"github.com/sgaunet/s3-nocheck-resource/pkg/s3svc"
	"github.com/sgaunet/s3-nocheck-resource/pkg/storage"
)

func TestNewConnector_AWS(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))

	src := config.Source{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}
	store, err := storage.NewConnector(src, nil).Connect(context.Background(), config.DefaultRegion)
	require.NoError(t, err)
	assert.IsType(t, &s3svc.Service{}, store)
}

func TestNewConnector_Minio(t *testing.T) {
	src := config.Source{Bucket: "b", Driver: config.DriverMinio, Endpoint: "localhost:9000"}
	store, err := storage.NewConnector(src, nil).Connect(context.Background(), config.DefaultRegion)
	require.NoError(t, err)
	assert.IsType(t, &miniosvc.Service{}, store)
}

func TestNewConnector_UnknownDriver(t *testing.T) {
	_, err := storage.NewConnector(config.Source{Driver: "ftp"}, nil).Connect(context.Background(), "r")
	assert.Error(t, err)
}

func TestConnectorFunc(t *testing.T) {
	var gotRegion string
	c := storage.ConnectorFunc(func(_ context.Context, region string) (storage.ObjectStore, error) {
		gotRegion = region
		return nil, nil
	})
	_, err := c.Connect(context.Background(), "ap-south-1")
	require.NoError(t, err)
	assert.Equal(t, "ap-south-1", gotRegion)
}
