//go:build integration

package backup

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/storage"
)

// Run with: BACKUP_TEST_BUCKET=my-bucket go test -tags=integration ./internal/backup
// Credentials come from Application Default Credentials.
func TestIntegrationGCSUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	bucket := os.Getenv("BACKUP_TEST_BUCKET")
	if bucket == "" {
		t.Skip("BACKUP_TEST_BUCKET not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const csv = "id,amount,description,date,category\nt1,10000,Lunch,2024-01-05T00:00:00.000Z,Food\n"
	u, closeFn, err := NewGCSUploader(ctx, bucket, "dompet-integration", fakeExporter{body: csv})
	if err != nil {
		t.Fatalf("NewGCSUploader: %v", err)
	}
	defer closeFn()

	uri, err := u.Upload(ctx)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	prefix := "gs://" + bucket + "/"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("uri = %q, want prefix %q", uri, prefix)
	}
	object := strings.TrimPrefix(uri, prefix)

	client, err := storage.NewClient(ctx)
	if err != nil {
		t.Fatalf("storage.NewClient: %v", err)
	}
	defer client.Close()
	obj := client.Bucket(bucket).Object(object)
	defer func() {
		if err := obj.Delete(context.Background()); err != nil {
			t.Logf("cleanup %s: %v", uri, err)
		}
	}()

	t.Run("ObjectContent", func(t *testing.T) {
		r, err := obj.NewReader(ctx)
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		defer r.Close()
		body, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read object: %v", err)
		}
		if string(body) != csv {
			t.Errorf("object body = %q, want %q", body, csv)
		}
	})

	t.Run("ObjectAttrs", func(t *testing.T) {
		attrs, err := obj.Attrs(ctx)
		if err != nil {
			t.Fatalf("Attrs: %v", err)
		}
		if !strings.HasPrefix(attrs.ContentType, "text/csv") {
			t.Errorf("content type = %q", attrs.ContentType)
		}
	})
}
