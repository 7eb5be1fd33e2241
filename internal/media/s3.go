// internal/media/s3.go
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store keeps files in an S3 bucket. It supports both AWS S3 and
// S3-compatible services like MinIO.
type S3Store struct {
	client *s3.Client // AWS S3 client
	bucket string     // S3 bucket name for media storage
}

// NewS3Store creates a store backed by bucket at endpoint.
func NewS3Store(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
	}
	// Static credentials when given, otherwise the default provider chain.
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
				}, nil
			})))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // Required for MinIO and other S3-compatible services
	})

	slog.Info("s3 upload storage initialized", "endpoint", endpoint, "bucket", bucket)
	return &S3Store{client: client, bucket: bucket}, nil
}

// Save uploads body as object name.
func (s *S3Store) Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) (int64, error) {
	if name == "" || name != SanitizeFilename(name) {
		return 0, fmt.Errorf("invalid file name %q", name)
	}

	// Payload signing needs a seekable body; multipart files are.
	if rs, ok := body.(io.ReadSeeker); ok && size < 0 {
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, fmt.Errorf("failed to size upload: %w", err)
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return 0, fmt.Errorf("failed to rewind upload: %w", err)
		}
		size = end
	}

	counter := &countingReader{r: body}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	} else {
		input.Body = counter
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, fmt.Errorf("failed to put object: %w", err)
	}
	if size >= 0 {
		return size, nil
	}
	return counter.n, nil
}

// Open streams object name.
func (s *S3Store) Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("failed to get object: %w", err)
	}

	info := ObjectInfo{
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ModTime:     aws.ToTime(out.LastModified),
	}
	return out.Body, info, nil
}

// Remove deletes object name. S3 treats deleting a missing key as success.
func (s *S3Store) Remove(ctx context.Context, name string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
