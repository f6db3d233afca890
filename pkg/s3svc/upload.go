package s3svc

import (
	"context"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObject uploads a single object to S3.
// Parameters:
//   - ctx: Context for the request
//   - bucket: destination bucket
//   - key: S3 object key (full path including filename)
//   - body: io.Reader containing the file data, streamed as is
//   - size: Size of the body in bytes, negative when unknown
//   - contentType: MIME type of the file, empty to let S3 decide
func (s *Service) PutObject(
	ctx context.Context,
	bucket string,
	key string,
	body io.Reader,
	size int64,
	contentType string,
) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, err := s.awsS3Client.PutObject(ctx, input)
	if err != nil {
		return wrapAPIError("PutObject: error uploading to S3", err)
	}

	s.log.Debug("PutObject completed",
		slog.String("key", key),
		slog.String("contentType", contentType),
		slog.Int64("size", size))

	return nil
}
