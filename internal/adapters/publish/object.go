package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const csvContentType = "text/csv; charset=utf-8"

// ObjectWriter stores a blob under key.
type ObjectWriter interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Close() error
}

// Object uploads the dataset file to a bucket, once under a stable key and
// once under a dated history key.
type Object struct {
	name   string
	writer ObjectWriter
	prefix string
}

// NewObject wraps an ObjectWriter as a publisher.
func NewObject(name string, w ObjectWriter, prefix string) *Object {
	return &Object{name: name, writer: w, prefix: strings.Trim(prefix, "/")}
}

func (o *Object) Name() string { return o.name }

// Keys returns the stable and the dated key for n.
func (o *Object) Keys(n Notice) (latest, dated string) {
	base := filepath.Base(n.DatasetPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	latest = path.Join(o.prefix, base)
	dated = path.Join(o.prefix, "history", fmt.Sprintf("%s_%s%s", stem, n.UpdatedAt.Format(time.DateOnly), ext))
	return latest, dated
}

func (o *Object) Publish(ctx context.Context, n Notice) error {
	body, err := os.ReadFile(n.DatasetPath)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	latest, dated := o.Keys(n)
	for _, key := range []string{latest, dated} {
		if err := o.writer.Put(ctx, key, bytes.NewReader(body), csvContentType); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}
	return nil
}

// S3Writer uploads through the S3 transfer manager.
type S3Writer struct {
	uploader *manager.Uploader
	bucket   string
}

// NewS3Writer loads the default AWS credential chain for region.
func NewS3Writer(ctx context.Context, bucket, region string) (*S3Writer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithRetryMaxAttempts(3),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Writer{uploader: manager.NewUploader(s3.NewFromConfig(cfg)), bucket: bucket}, nil
}

func (w *S3Writer) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := w.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}

func (w *S3Writer) Close() error { return nil }

// GCSWriter writes objects with the Cloud Storage client.
type GCSWriter struct {
	client *storage.Client
	bucket string
}

// NewGCSWriter uses application default credentials.
func NewGCSWriter(ctx context.Context, bucket string) (*GCSWriter, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSWriter{client: client, bucket: bucket}, nil
}

func (w *GCSWriter) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	ow := w.client.Bucket(w.bucket).Object(key).NewWriter(ctx)
	ow.ContentType = contentType
	ow.CacheControl = "no-cache, max-age=0"
	if _, err := io.Copy(ow, body); err != nil {
		_ = ow.Close()
		return err
	}
	return ow.Close()
}

func (w *GCSWriter) Close() error { return w.client.Close() }
