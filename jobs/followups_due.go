package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/saree-crm/saree-crm/internal/jobs"
	"github.com/saree-crm/saree-crm/internal/sales"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// FollowUpSource is the slice of the sales service the due scan reads.
type FollowUpSource interface {
	DueFollowUps(ctx context.Context, before time.Time) ([]sales.FollowUp, error)
	CustomerNames(ctx context.Context) (map[int64]string, error)
}

// FollowUpsDueJob logs a reminder for every open follow-up inside the window.
type FollowUpsDueJob struct {
	Source  FollowUpSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewFollowUpsDueJob wires dependencies for the due-scan handler.
func NewFollowUpsDueJob(source FollowUpSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *FollowUpsDueJob {
	return &FollowUpsDueJob{
		Source:  source,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskFollowUpsDueScan tasks.
func (j *FollowUpsDueJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil {
		return errors.New("followups due scan: handler not configured")
	}
	var payload FollowUpsDueScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Scan(ctx, payload.Lookahead())
	return err
}

// Scan emits one reminder per due follow-up and returns how many it found.
func (j *FollowUpsDueJob) Scan(ctx context.Context, lookahead time.Duration) (count int, err error) {
	tracker := j.metrics().Track(TaskFollowUpsDueScan)
	defer func() {
		err = tracker.End(err)
	}()

	now := j.now()
	before := now.Add(lookahead)
	logger := j.logger().With(slog.Time("before", before))

	due, err := j.Source.DueFollowUps(ctx, before)
	if err != nil {
		logger.Error("load due follow-ups", slog.Any("error", err))
		return 0, err
	}
	if len(due) == 0 {
		logger.Debug("no follow-ups due")
		return 0, nil
	}
	names, err := j.Source.CustomerNames(ctx)
	if err != nil {
		logger.Error("load customer names", slog.Any("error", err))
		return 0, err
	}

	for _, f := range due {
		attrs := []any{
			slog.Int64("followup_id", f.ID),
			slog.String("customer", customerLabel(names, f.CustomerID)),
			slog.Time("follow_date", f.FollowDate),
			slog.Bool("overdue", f.FollowDate.Before(now)),
		}
		if f.OrderID != nil {
			attrs = append(attrs, slog.Int64("order_id", *f.OrderID))
		}
		if f.Notes != nil {
			attrs = append(attrs, slog.String("notes", *f.Notes))
		}
		logger.Info("follow-up due", attrs...)
	}
	j.metrics().AddDueFollowUps(len(due))
	return len(due), nil
}

func customerLabel(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(id, 10)
}

func (j *FollowUpsDueJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *FollowUpsDueJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *FollowUpsDueJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
