package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/benvon/study-planner/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// errGenerationUnusable marks a job whose generation fell back for a reason
// a retry could fix.
var errGenerationUnusable = errors.New("generation fell back")

// PlannerWorker processes schedule and goal breakdown jobs
type PlannerWorker struct {
	planner  *planner.Service
	repos    *database.Repositories
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
	logger   *zap.Logger
	now      func() time.Time
}

// NewPlannerWorker creates a new planner worker. jobQueue may be nil, in
// which case delayed retries fall back to broker requeue.
func NewPlannerWorker(svc *planner.Service, repos *database.Repositories, jobQueue queue.JobQueue, log *zap.Logger) *PlannerWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &PlannerWorker{
		planner:  svc,
		repos:    repos,
		jobQueue: jobQueue,
		logger:   log,
		now:      time.Now,
	}
}

// ProcessScheduleJob synthesizes a schedule for the job's user and stores
// the resulting tasks. A fallback outcome stores nothing; it is an error
// only when the failure is worth retrying.
func (w *PlannerWorker) ProcessScheduleJob(ctx context.Context, job *queue.Job) (*planner.ScheduleOutcome, error) {
	pending, history, err := w.repos.LoadScheduleContext(ctx, job.UserID, job.Schedule.MoodEntryID)
	if err != nil {
		return nil, err
	}

	outcome := w.planner.SynthesizeSchedule(ctx, planner.ScheduleInput{
		MoodScore:    job.Schedule.MoodScore,
		EnergyLevel:  job.Schedule.EnergyLevel,
		Goals:        job.Schedule.Goals,
		GoalID:       job.Schedule.GoalID,
		PendingTasks: pending,
		MoodHistory:  mood.SamplesFromEntries(history),
	})

	if outcome.Source != planner.SourceAI {
		return outcome, retryableFallback(outcome.FailureKind, outcome.Failure)
	}

	assignOwner(outcome.Tasks, job.UserID)
	if err := w.repos.Tasks.CreateBatch(ctx, outcome.Tasks); err != nil {
		return outcome, fmt.Errorf("failed to store scheduled tasks: %w", err)
	}

	w.logger.Info("Stored generated schedule",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", logger.SanitizeUserID(job.UserID)),
		zap.Int("days", len(outcome.Days)),
		zap.Int("tasks", len(outcome.Tasks)))
	return outcome, nil
}

// ProcessGoalJob breaks the job's goal into tasks, stores them linked to the
// goal and marks a not-started goal as in progress.
func (w *PlannerWorker) ProcessGoalJob(ctx context.Context, job *queue.Job) (*planner.GoalBreakdown, error) {
	goal, err := w.repos.Goals.GetByID(ctx, job.UserID, job.Goal.GoalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	breakdown := w.planner.BreakdownGoal(ctx, goal.Title)
	if breakdown.Source != planner.SourceAI {
		return breakdown, retryableFallback(breakdown.FailureKind, nil)
	}

	tasks := w.planner.MaterializeGoalTasks(breakdown.Tasks, &goal.ID)
	assignOwner(tasks, job.UserID)
	if err := w.repos.Tasks.CreateBatch(ctx, tasks); err != nil {
		return breakdown, fmt.Errorf("failed to store goal tasks: %w", err)
	}

	if goal.Status == models.GoalStatusNotStarted {
		goal.Status = models.GoalStatusInProgress
		if err := w.repos.Goals.Update(ctx, goal); err != nil {
			// Tasks are already stored; a stale status is not worth a retry.
			w.logger.Warn("Failed to mark goal in progress",
				zap.String("goal_id", goal.ID.String()),
				zap.Error(err))
		}
	}

	w.logger.Info("Stored goal breakdown",
		zap.String("job_id", job.ID.String()),
		zap.String("goal_id", goal.ID.String()),
		zap.Int("tasks", len(tasks)),
		zap.Int("total_estimated_time", breakdown.TotalEstimatedTime))
	return breakdown, nil
}

// ProcessJob processes a job based on its type and settles its message.
func (w *PlannerWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if err := job.Validate(); err != nil {
		if nackErr := msg.Nack(false); nackErr != nil { // Malformed job, send to DLQ
			w.logger.Warn("Failed to nack invalid job", zap.Error(nackErr))
		}
		return fmt.Errorf("invalid job %s: %w", job.ID, err)
	}

	if !job.ShouldProcess() {
		if job.IsExpired() {
			w.logger.Info("Dropping expired job", zap.String("job_id", job.ID.String()))
			if nackErr := msg.Nack(false); nackErr != nil {
				w.logger.Warn("Failed to nack expired job", zap.Error(nackErr))
			}
			return nil
		}
		w.logger.Debug("Job not ready yet, requeueing",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_before", job.NotBefore))
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("Failed to requeue job for later processing", zap.Error(nackErr))
		}
		return nil
	}

	var err error
	switch job.Type {
	case queue.JobTypeSynthesizeSchedule:
		_, err = w.ProcessScheduleJob(ctx, job)
	case queue.JobTypeBreakdownGoal:
		_, err = w.ProcessGoalJob(ctx, job)
	}

	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// The goal was deleted after the job was queued.
			w.logger.Info("Job target no longer exists",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", string(job.Type)))
			if ackErr := msg.Ack(); ackErr != nil {
				return fmt.Errorf("failed to ack job: %w", ackErr)
			}
			return nil
		}
		return w.handleJobError(ctx, msg, job, err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError retries transient failures with a delay and sends
// everything else to the DLQ once retries are spent.
func (w *PlannerWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	kind := ai.KindOf(err)
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("failure_kind", string(kind)),
		zap.Int("attempt", job.RetryCount+1),
		zap.Int("max_retries", job.MaxRetries),
		zap.String("error", logger.SanitizeError(err)),
	}

	// Quota errors wait at least an hour regardless of the retry budget.
	if kind == ai.FailureQuota {
		w.logger.Warn("Quota exceeded for job", fields...)
		if w.reenqueue(ctx, msg, job, err) {
			return nil
		}
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("Failed to nack quota error job", zap.Error(nackErr))
		}
		return fmt.Errorf("quota exhausted (job %s): %w", job.ID, err)
	}

	if job.CanRetry() {
		w.logger.Warn("Job failed, will retry", fields...)
		if w.reenqueue(ctx, msg, job, err) {
			return nil
		}
		job.IncrementRetry()
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("Failed to nack job", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	w.logger.Error("Job failed after max retries, sending to DLQ", fields...)
	if nackErr := msg.Nack(false); nackErr != nil {
		w.logger.Warn("Failed to nack job to DLQ", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// reenqueue publishes a delayed copy of job and acks the current delivery.
// It reports false when there is no queue or publishing fails, leaving the
// message unsettled.
func (w *PlannerWorker) reenqueue(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) bool {
	if w.jobQueue == nil {
		return false
	}

	delay := ai.GetRetryDelay(err, job.RetryCount)
	delayed := job.Delayed(w.now().Add(delay))
	if enqueueErr := w.jobQueue.Enqueue(ctx, delayed); enqueueErr != nil {
		w.logger.Error("Failed to re-enqueue job",
			zap.String("job_id", job.ID.String()),
			zap.Error(enqueueErr))
		return false
	}
	if ackErr := msg.Ack(); ackErr != nil {
		w.logger.Warn("Failed to ack job after re-enqueue", zap.Error(ackErr))
	}

	w.logger.Info("Re-enqueued job",
		zap.String("job_id", job.ID.String()),
		zap.Duration("delay", delay),
		zap.Int("retry_count", delayed.RetryCount))
	return true
}

// Run consumes jobs until ctx is cancelled or the delivery channel closes.
func (w *PlannerWorker) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Error("Queue error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("Message channel closed")
				return
			}
			spanCtx, span := telemetry.StartSpan(ctx, "planner.job",
				attribute.String("job.id", msg.GetJob().ID.String()),
				attribute.String("job.type", string(msg.GetJob().Type)),
				attribute.Int("job.retry_count", msg.GetJob().RetryCount))
			err := w.ProcessJob(spanCtx, msg)
			telemetry.EndSpan(span, err)
			if err != nil {
				w.logger.Error("Failed to process job",
					zap.Error(err),
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)))
			}
		}
	}
}

// retryableFallback turns a fallback into an error when its failure kind is
// transient or quota related. Other fallbacks are final and return nil.
func retryableFallback(kind ai.FailureKind, cause error) error {
	if !kind.Transient() && kind != ai.FailureQuota {
		return nil
	}
	if cause == nil {
		cause = errGenerationUnusable
	}
	return &ai.ProviderError{Operation: "planner_job", Kind: kind, Err: cause}
}

func assignOwner(tasks []models.Task, userID string) {
	for i := range tasks {
		tasks[i].UserID = userID
	}
}
