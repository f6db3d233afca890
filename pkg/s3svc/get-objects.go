package s3svc

import (
	"context"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ListObjects returns every key under prefix, across all pages, verbatim.
func (s *Service) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.awsS3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapAPIError("ListObjects: error of paginator.NextPage", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	s.log.Debug("ListObjects", slog.String("bucket", bucket), slog.String("prefix", prefix), slog.Int("count", len(keys)))
	return keys, nil
}

// GetObject returns the body of an object. The caller must close it.
func (s *Service) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	o, err := s.awsS3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapAPIError("GetObject: error when called GetObject", err)
	}
	s.log.Debug("GetObject", slog.String("key", key), slog.Int64("size", aws.ToInt64(o.ContentLength)))
	return o.Body, nil
}
