package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

type memWriter struct {
	bytes.Buffer
	closed bool
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

type memBucket struct {
	mu      sync.Mutex
	objects map[string]*memWriter
}

func (b *memBucket) NewWriter(_ context.Context, object string) io.WriteCloser {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.objects == nil {
		b.objects = map[string]*memWriter{}
	}
	w := &memWriter{}
	b.objects[object] = w
	return w
}

type fakeExporter struct {
	body string
	err  error
}

func (e fakeExporter) Export(_ context.Context, w io.Writer) error {
	if _, err := io.WriteString(w, e.body); err != nil {
		return err
	}
	return e.err
}

func TestObjectName(t *testing.T) {
	at := time.Date(2024, 1, 5, 10, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	u := NewUploader(&memBucket{}, "b", "backups", fakeExporter{})
	if got := u.ObjectName(at); got != "backups/transactions-20240105T033000Z.csv" {
		t.Errorf("ObjectName = %q", got)
	}
	u.prefix = ""
	if got := u.ObjectName(at); got != "transactions-20240105T033000Z.csv" {
		t.Errorf("ObjectName without prefix = %q", got)
	}
}

func TestUpload(t *testing.T) {
	bucket := &memBucket{}
	u := NewUploader(bucket, "ledger-backups", "daily", fakeExporter{body: "id,amount\n"})
	u.now = func() time.Time { return time.Date(2024, 1, 5, 3, 0, 0, 0, time.UTC) }

	uri, err := u.Upload(context.Background())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if uri != "gs://ledger-backups/daily/transactions-20240105T030000Z.csv" {
		t.Errorf("uri = %q", uri)
	}
	w := bucket.objects["daily/transactions-20240105T030000Z.csv"]
	if w == nil || !w.closed || w.String() != "id,amount\n" {
		t.Errorf("object = %+v", w)
	}
}

func TestUploadExportFailure(t *testing.T) {
	boom := errors.New("store down")
	u := NewUploader(&memBucket{}, "b", "", fakeExporter{err: boom})
	if _, err := u.Upload(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestScheduler(t *testing.T) {
	u := NewUploader(&memBucket{}, "b", "", fakeExporter{})
	s := NewScheduler(context.Background(), u, time.UTC)

	if _, err := s.Schedule("not a spec"); err == nil || !strings.Contains(err.Error(), "invalid backup schedule") {
		t.Errorf("invalid spec err = %v", err)
	}
	id, err := s.Schedule("0 3 * * *")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	before := s.Next(id)
	if before.IsZero() || before.Hour() != 3 || before.Minute() != 0 {
		t.Errorf("next run before Start = %v", before)
	}
	if !before.After(time.Now()) {
		t.Errorf("next run %v is not in the future", before)
	}

	s.Start()
	defer s.Stop()

	if after := s.Next(id); after.IsZero() || after.Hour() != 3 {
		t.Errorf("next run right after Start = %v", after)
	}
	if got := s.Next(cron.EntryID(999)); !got.IsZero() {
		t.Errorf("unknown entry next = %v, want zero", got)
	}
}
