// Package r2client provides a client for Cloudflare R2 object storage.
// It wraps the AWS S3 SDK to fetch and publish catalog snapshots, with
// transparent zstd handling for keys ending in ".zst".
package r2client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/klauspost/compress/zstd"

	domerrors "github.com/garyellow/triangulator-go/internal/errors"
)

// CompressedSuffix marks objects stored zstd-compressed.
const CompressedSuffix = ".zst"

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = fmt.Errorf("r2client: object %w", domerrors.ErrNotFound)

// Config holds R2 client configuration.
type Config struct {
	Endpoint    string // R2 endpoint URL (e.g., https://account-id.r2.cloudflarestorage.com)
	AccessKeyID string
	SecretKey   string
	BucketName  string
}

// Enabled reports whether any R2 setting was provided.
func (c Config) Enabled() bool {
	return c.Endpoint != "" || c.AccessKeyID != "" || c.SecretKey != "" || c.BucketName != ""
}

// Validate reports every missing field.
func (c Config) Validate() error {
	var errs []error
	if c.Endpoint == "" {
		errs = append(errs, errors.New("R2_ENDPOINT is required"))
	}
	if c.AccessKeyID == "" {
		errs = append(errs, errors.New("R2_ACCESS_KEY_ID is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("R2_SECRET_ACCESS_KEY is required"))
	}
	if c.BucketName == "" {
		errs = append(errs, errors.New("R2_BUCKET_NAME is required"))
	}
	return errors.Join(errs...)
}

// Client reads and writes catalog exports in one bucket.
type Client struct {
	s3     *s3.Client
	bucket *string
}

// New builds a path-style S3 client against the R2 endpoint.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("r2client: %w", err)
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithCredentialsProvider(creds), config.WithRegion("auto"))
	if err != nil {
		return nil, fmt.Errorf("r2client: aws config: %w", err)
	}

	return &Client{
		s3: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}),
		bucket: aws.String(cfg.BucketName),
	}, nil
}

// Upload stores body under key and returns the new ETag.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	in := &s3.PutObjectInput{Bucket: c.bucket, Key: aws.String(key), Body: body}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	out, err := c.s3.PutObject(ctx, in)
	if err != nil {
		return "", objectError("upload", key, err)
	}
	return etagOf(out.ETag), nil
}

// Download returns the raw object body and its ETag. The caller closes the body.
func (c *Client) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: c.bucket, Key: aws.String(key)})
	if err != nil {
		return nil, "", objectError("download", key, err)
	}
	return out.Body, etagOf(out.ETag), nil
}

// Open is Download with transparent zstd decoding for keys ending in
// CompressedSuffix.
func (c *Client) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	body, etag, err := c.Download(ctx, key)
	if err != nil || !strings.HasSuffix(key, CompressedSuffix) {
		return body, etag, err
	}
	rc, err := NewDecompressReader(body)
	if err != nil {
		_ = body.Close()
		return nil, "", err
	}
	return rc, etag, nil
}

// HeadObject returns the object's ETag without fetching the body.
func (c *Client) HeadObject(ctx context.Context, key string) (string, error) {
	out, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{Bucket: c.bucket, Key: aws.String(key)})
	if err != nil {
		return "", objectError("head", key, err)
	}
	return etagOf(out.ETag), nil
}

func objectError(op, key string, err error) error {
	if isNotFound(err) {
		return ErrNotFound
	}
	return fmt.Errorf("r2client: %s %q: %w", op, key, err)
}

func etagOf(etag *string) string {
	return strings.Trim(aws.ToString(etag), `"`)
}

func isNotFound(err error) bool {
	if _, ok := errors.AsType[*types.NoSuchKey](err); ok {
		return true
	}
	if _, ok := errors.AsType[*types.NotFound](err); ok {
		return true
	}
	if apiErr, ok := errors.AsType[smithy.APIError](err); ok {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	respErr, ok := errors.AsType[*smithyhttp.ResponseError](err)
	return ok && respErr.HTTPStatusCode() == http.StatusNotFound
}

// Compress writes src to dst as a zstd stream.
func Compress(dst io.Writer, src io.Reader) error {
	encoder, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("compress: create encoder: %w", err)
	}

	if _, err := io.Copy(encoder, src); err != nil {
		_ = encoder.Close()
		return fmt.Errorf("compress: copy: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("compress: close encoder: %w", err)
	}
	return nil
}

// decompressReader closes both the decoder and the underlying body.
type decompressReader struct {
	*zstd.Decoder
	body io.Closer
}

func (d *decompressReader) Close() error {
	d.Decoder.Close()
	return d.body.Close()
}

// NewDecompressReader streams the zstd-compressed body.
// Closing the result closes body.
func NewDecompressReader(body io.ReadCloser) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(body)
	if err != nil {
		return nil, fmt.Errorf("decompress: create decoder: %w", err)
	}
	return &decompressReader{Decoder: decoder, body: body}, nil
}
