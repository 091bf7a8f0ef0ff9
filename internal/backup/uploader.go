// Package backup snapshots the ledger as CSV into Cloud Storage.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// Bucket opens object writers in one bucket.
type Bucket interface {
	NewWriter(ctx context.Context, object string) io.WriteCloser
}

// Exporter produces the ledger CSV.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) error
}

// Uploader writes the CSV export to <prefix>/transactions-<UTC time>.csv.
type Uploader struct {
	bucket     Bucket
	bucketName string
	prefix     string
	source     Exporter
	now        func() time.Time
}

func NewUploader(bucket Bucket, bucketName, prefix string, source Exporter) *Uploader {
	return &Uploader{
		bucket:     bucket,
		bucketName: bucketName,
		prefix:     prefix,
		source:     source,
		now:        time.Now,
	}
}

// ObjectName returns the object a backup taken at t is stored under.
func (u *Uploader) ObjectName(t time.Time) string {
	name := "transactions-" + t.UTC().Format("20060102T150405Z") + ".csv"
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// Upload streams one snapshot and returns its gs:// URI.
func (u *Uploader) Upload(ctx context.Context) (string, error) {
	object := u.ObjectName(u.now())

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := u.bucket.NewWriter(ctx, object)
	if err := u.source.Export(ctx, w); err != nil {
		// Closing a cancelled writer discards the partial object.
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("export ledger: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	uri := fmt.Sprintf("gs://%s/%s", u.bucketName, object)
	slog.InfoContext(ctx, "Uploaded ledger backup", "uri", uri)
	return uri, nil
}

// GCSBucket adapts a Cloud Storage bucket handle to Bucket.
type GCSBucket struct {
	handle *storage.BucketHandle
}

func (b GCSBucket) NewWriter(ctx context.Context, object string) io.WriteCloser {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = "text/csv; charset=utf-8"
	return w
}

// NewGCSUploader connects with Application Default Credentials. The
// returned close function releases the storage client.
func NewGCSUploader(ctx context.Context, bucketName, prefix string, source Exporter) (*Uploader, func() error, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create storage client: %w", err)
	}
	u := NewUploader(GCSBucket{handle: client.Bucket(bucketName)}, bucketName, prefix, source)
	return u, client.Close, nil
}
