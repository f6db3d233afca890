// Package s3svc_test tests the s3svc package functionality
package s3svc_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3-nocheck-resource/pkg/config"
	"github.com/sgaunet/s3-nocheck-resource/pkg/s3svc"
)

// mockAPI lets each test customise the S3 calls it needs.
type mockAPI struct {
	ListObjectsV2Func func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObjectFunc     func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObjectFunc     func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *mockAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, params, optFns...)
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (m *mockAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, params, optFns...)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(""))}, nil
}

func (m *mockAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

func TestNewS3Svc(t *testing.T) {
	service := s3svc.NewS3Svc(&mockAPI{})
	require.NotNil(t, service)
	service.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListObjects_AllPages(t *testing.T) {
	calls := 0
	api := &mockAPI{
		ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			calls++
			assert.Equal(t, "bucket", aws.ToString(in.Bucket))
			assert.Equal(t, "builds/42", aws.ToString(in.Prefix))
			if in.ContinuationToken == nil {
				return &s3.ListObjectsV2Output{
					Contents:              []types.Object{{Key: aws.String("builds/42/a.txt")}},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("next"),
				}, nil
			}
			assert.Equal(t, "next", aws.ToString(in.ContinuationToken))
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{{Key: aws.String("builds/42/sub/b.txt")}},
			}, nil
		},
	}

	keys, err := s3svc.NewS3Svc(api).ListObjects(context.Background(), "bucket", "builds/42")
	require.NoError(t, err)
	assert.Equal(t, []string{"builds/42/a.txt", "builds/42/sub/b.txt"}, keys)
	assert.Equal(t, 2, calls)
}

func TestListObjects_Empty(t *testing.T) {
	keys, err := s3svc.NewS3Svc(&mockAPI{}).ListObjects(context.Background(), "bucket", "nothing")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestListObjects_APIError(t *testing.T) {
	api := &mockAPI{
		ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "missing"}
		},
	}

	_, err := s3svc.NewS3Svc(api).ListObjects(context.Background(), "bucket", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchBucket")
	var apiErr smithy.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestGetObject(t *testing.T) {
	api := &mockAPI{
		GetObjectFunc: func(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "p/file.txt", aws.ToString(in.Key))
			return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("content"))}, nil
		},
	}

	body, err := s3svc.NewS3Svc(api).GetObject(context.Background(), "bucket", "p/file.txt")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestGetObject_Error(t *testing.T) {
	api := &mockAPI{
		GetObjectFunc: func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, errors.New("boom")
		},
	}

	_, err := s3svc.NewS3Svc(api).GetObject(context.Background(), "bucket", "k")
	assert.ErrorContains(t, err, "boom")
}

func TestPutObject(t *testing.T) {
	var got *s3.PutObjectInput
	api := &mockAPI{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			got = in
			return &s3.PutObjectOutput{}, nil
		},
	}

	err := s3svc.NewS3Svc(api).PutObject(context.Background(), "bucket", "p/a.txt", strings.NewReader("abc"), 3, "text/plain")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bucket", aws.ToString(got.Bucket))
	assert.Equal(t, "p/a.txt", aws.ToString(got.Key))
	assert.Equal(t, int64(3), aws.ToInt64(got.ContentLength))
	assert.Equal(t, "text/plain", aws.ToString(got.ContentType))
}

func TestPutObject_UnknownSize(t *testing.T) {
	var got *s3.PutObjectInput
	api := &mockAPI{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			got = in
			return nil, errors.New("denied")
		},
	}

	err := s3svc.NewS3Svc(api).PutObject(context.Background(), "bucket", "k", strings.NewReader(""), -1, "")
	require.Error(t, err)
	assert.Nil(t, got.ContentLength)
	assert.Nil(t, got.ContentType)
}

func isolateAwsEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
}

func TestGetAwsConfig_StaticCredentials(t *testing.T) {
	isolateAwsEnv(t)
	src := config.Source{Bucket: "b", AccessKeyID: "AKID", SecretAccessKey: "SECRET", SessionToken: "TOKEN"}

	cfg, err := s3svc.GetAwsConfig(context.Background(), src, "eu-west-3", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, "eu-west-3", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "SECRET", creds.SecretAccessKey)
	assert.Equal(t, "TOKEN", creds.SessionToken)
}

func TestGetAwsConfig_AssumeRole(t *testing.T) {
	isolateAwsEnv(t)
	src := config.Source{Bucket: "b", AccessKeyID: "AKID", SecretAccessKey: "SECRET", AwsRoleArn: "arn:aws:iam::123456789012:role/ci"}

	cfg, err := s3svc.GetAwsConfig(context.Background(), src, config.DefaultRegion, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	_, isCache := cfg.Credentials.(*aws.CredentialsCache)
	assert.True(t, isCache)
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name string
		src  config.Source
		want string
	}{
		{"Scheme kept", config.Source{Endpoint: "http://minio:9000"}, "http://minio:9000"},
		{"Default https", config.Source{Endpoint: "s3.example.com"}, "https://s3.example.com"},
		{"SSL disabled", config.Source{Endpoint: "minio:9000", DisableSSL: true}, "http://minio:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s3svc.EndpointURL(tt.src))
		})
	}
}

func TestNewClient_CustomEndpoint(t *testing.T) {
	src := config.Source{Endpoint: "minio:9000", DisableSSL: true}
	client := s3svc.NewClient(aws.Config{Region: "us-east-1"}, src)
	require.NotNil(t, client)
	opts := client.Options()
	assert.Equal(t, "http://minio:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}
