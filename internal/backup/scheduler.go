package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs uploads on a standard five-field cron spec.
type Scheduler struct {
	cron     *cron.Cron
	uploader *Uploader
	ctx      context.Context
	loc      *time.Location
}

func NewScheduler(ctx context.Context, uploader *Uploader, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		uploader: uploader,
		ctx:      ctx,
		loc:      loc,
	}
}

// Schedule registers the upload job for spec, for example "0 3 * * *".
func (s *Scheduler) Schedule(spec string) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return 0, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	return id, nil
}

// Next reports when the job registered as id runs next. It is computed
// from the schedule, so it is valid before Start and right after it, when
// cron has not filled in its own entry times yet. Unknown ids give the
// zero time.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	e := s.cron.Entry(id)
	if e.Schedule == nil {
		return time.Time{}
	}
	return e.Schedule.Next(time.Now().In(s.loc))
}

func (s *Scheduler) run() {
	if _, err := s.uploader.Upload(s.ctx); err != nil {
		slog.ErrorContext(s.ctx, "Scheduled backup failed", "error", err)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running upload to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
