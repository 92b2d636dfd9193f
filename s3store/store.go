// Package s3store provides an S3 object store for lockbox built on the AWS SDK
// for Go v2. It works with AWS S3 and with S3-compatible services such as MinIO
// when an endpoint and path-style addressing are configured.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/lockbox-storage/lockbox"
)

// API is the subset of the S3 client used by Store.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config describes how to reach the bucket.
type Config struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint, e.g. "http://localhost:9000".
	Endpoint     string
	UsePathStyle bool
	// AccessKeyID and SecretAccessKey select static credentials. When empty
	// the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// Store implements lockbox.ObjectStore and lockbox.ObjectLister on one bucket.
type Store struct {
	api    API
	bucket string
}

// New builds an S3 client from cfg and returns a Store for cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new s3 store: bucket is required")
	}

	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient returns a Store using an existing client.
func NewWithClient(api API, bucket string) *Store {
	return &Store{api: api, bucket: bucket}
}

// Put uploads content to key with contentType as the object's Content-Type.
// Seekable content is sent as is; other readers are spooled to a temp file
// first so the request carries a known length.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, contentType string) (lockbox.PutResult, error) {
	if err := ctx.Err(); err != nil {
		return lockbox.PutResult{}, err
	}

	body, size, cleanup, err := seekableBody(content)
	if err != nil {
		return lockbox.PutResult{}, fmt.Errorf("put %s: %w", key, err)
	}
	defer cleanup()

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	out, err := s.api.PutObject(ctx, in)
	if err != nil {
		return lockbox.PutResult{}, fmt.Errorf("put %s: %w", key, err)
	}

	return lockbox.PutResult{BytesWritten: size, ETag: strings.Trim(aws.ToString(out.ETag), `"`)}, nil
}

// Get opens the object at key. Returns lockbox.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, key string) (lockbox.Object, error) {
	if err := ctx.Err(); err != nil {
		return lockbox.Object{}, err
	}

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return lockbox.Object{}, lockbox.ErrNotFound
		}
		return lockbox.Object{}, fmt.Errorf("get %s: %w", key, err)
	}

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}

	return lockbox.Object{
		Body:        out.Body,
		ContentType: aws.ToString(out.ContentType),
		Size:        size,
	}, nil
}

// Delete removes the object at key. S3 deletes are idempotent, so the object
// is looked up first to report lockbox.ErrNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return lockbox.ErrNotFound
		}
		return fmt.Errorf("delete %s: head: %w", key, err)
	}

	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

// List returns every object in the bucket.
func (s *Store) List(ctx context.Context) ([]lockbox.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos := []lockbox.ObjectInfo{}
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range page.Contents {
			infos = append(infos, lockbox.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return infos, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}

// seekableBody returns content as an io.ReadSeeker positioned at its start
// along with its remaining length.
func seekableBody(content io.Reader) (io.ReadSeeker, int64, func(), error) {
	if rs, ok := content.(io.ReadSeeker); ok {
		start, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("seek body: %w", err)
		}
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("seek body: %w", err)
		}
		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return nil, 0, nil, fmt.Errorf("seek body: %w", err)
		}
		return rs, end - start, func() {}, nil
	}

	f, err := os.CreateTemp("", "lockbox-upload-*")
	if err != nil {
		return nil, 0, nil, fmt.Errorf("spool body: %w", err)
	}
	cleanup := func() {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			slog.Warn("failed to close spool file", "err", err)
		}
		if err := os.Remove(f.Name()); err != nil {
			slog.Warn("failed to remove spool file", "file", f.Name(), "err", err)
		}
	}

	size, err := io.Copy(f, content)
	if err != nil {
		cleanup()
		return nil, 0, nil, fmt.Errorf("spool body: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, 0, nil, fmt.Errorf("spool body: %w", err)
	}

	return f, size, cleanup, nil
}
