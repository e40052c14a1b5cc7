package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/pkg/jobs"
)

type activityLogger interface {
	Log(ctx context.Context, activity models.Activity) (*models.Activity, error)
}

// ActivityRecorder writes activities off the request path. A single worker
// keeps the log in call order; failures are logged and dropped.
type ActivityRecorder struct {
	repo    activityLogger
	queue   *jobs.Queue[models.Activity]
	metrics *MetricsService
	logger  *zap.Logger
}

// NewActivityRecorder wires the recorder to its queue.
func NewActivityRecorder(repo activityLogger, metrics *MetricsService, logger *zap.Logger, buffer int) *ActivityRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ActivityRecorder{repo: repo, metrics: metrics, logger: logger}
	r.queue = jobs.New("activity-log", r.RecordSync, jobs.Config{Workers: 1, Buffer: buffer, Logger: logger})
	return r
}

// Start launches the worker.
func (r *ActivityRecorder) Start(ctx context.Context) { r.queue.Start(ctx) }

// Stop drains queued activities and stops the worker.
func (r *ActivityRecorder) Stop() { r.queue.Stop() }

// Record enqueues an activity for the user. Teachers have no student node and
// are skipped. A full buffer drops the event with a warning; a stopped queue
// falls back to a synchronous write.
func (r *ActivityRecorder) Record(ctx context.Context, user models.User, activity models.Activity) {
	if user.IsTeacher() || strings.TrimSpace(user.StudentID) == "" {
		return
	}
	activity.StudentID = user.StudentID

	err := r.queue.TryEnqueue(activity)
	switch {
	case err == nil:
		return
	case errors.Is(err, jobs.ErrQueueFull):
		r.metrics.RecordActivity("dropped")
		r.logger.Warn("activity queue full; dropping event",
			zap.String("student_id", activity.StudentID),
			zap.String("activity_type", activity.ActivityType))
	case errors.Is(err, jobs.ErrStopped):
		_ = r.RecordSync(context.WithoutCancel(ctx), activity)
	}
}

// RecordSync writes the activity now and returns the store error for flows
// that must read their own writes.
func (r *ActivityRecorder) RecordSync(ctx context.Context, activity models.Activity) error {
	if _, err := r.repo.Log(ctx, activity); err != nil {
		r.metrics.RecordActivity("failed")
		r.logger.Warn("activity log failed",
			zap.String("student_id", activity.StudentID),
			zap.String("activity_type", activity.ActivityType),
			zap.Error(err))
		return err
	}
	r.metrics.RecordActivity("logged")
	return nil
}

// Pending reports how many activities wait in the buffer.
func (r *ActivityRecorder) Pending() int { return r.queue.Stats().Depth }
