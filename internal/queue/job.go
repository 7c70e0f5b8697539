package queue

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeSynthesizeSchedule builds a schedule for a user and stores its tasks
	JobTypeSynthesizeSchedule JobType = "synthesize_schedule"
	// JobTypeBreakdownGoal splits a goal into tasks and stores them
	JobTypeBreakdownGoal JobType = "breakdown_goal"
)

const defaultMaxRetries = 3

// SchedulePayload carries the request side of a schedule job. Pending tasks
// and mood history are loaded when the job runs.
type SchedulePayload struct {
	MoodScore   int        `json:"mood_score"`
	EnergyLevel int        `json:"energy_level"`
	Goals       []string   `json:"goals,omitempty"`
	GoalID      *uuid.UUID `json:"goal_id,omitempty"`
	// MoodEntryID is the logged entry MoodScore was taken from, if any. It is
	// left out of the history the score is compared against.
	MoodEntryID *uuid.UUID `json:"mood_entry_id,omitempty"`
}

// GoalPayload identifies the goal a breakdown job works on.
type GoalPayload struct {
	GoalID uuid.UUID `json:"goal_id"`
	Title  string    `json:"title"`
}

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID        `json:"id"`
	Type       JobType          `json:"type"`
	UserID     string           `json:"user_id"`
	Schedule   *SchedulePayload `json:"schedule,omitempty"`
	Goal       *GoalPayload     `json:"goal,omitempty"`
	NotBefore  *time.Time       `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time       `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	CreatedAt  time.Time        `json:"created_at"`
	RetryCount int              `json:"retry_count"`
	MaxRetries int              `json:"max_retries"`
}

func newJob(jobType JobType, userID string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		CreatedAt:  time.Now(),
		MaxRetries: defaultMaxRetries,
	}
}

// NewScheduleJob creates a schedule synthesis job
func NewScheduleJob(userID string, payload SchedulePayload) *Job {
	job := newJob(JobTypeSynthesizeSchedule, userID)
	job.Schedule = &payload
	return job
}

// NewGoalBreakdownJob creates a goal breakdown job
func NewGoalBreakdownJob(userID string, goalID uuid.UUID, title string) *Job {
	job := newJob(JobTypeBreakdownGoal, userID)
	job.Goal = &GoalPayload{GoalID: goalID, Title: title}
	return job
}

// Validate checks that the job carries the payload its type needs.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.UserID) == "" {
		return errors.New("job has no user_id")
	}
	switch j.Type {
	case JobTypeSynthesizeSchedule:
		if j.Schedule == nil {
			return errors.New("schedule job has no schedule payload")
		}
	case JobTypeBreakdownGoal:
		if j.Goal == nil || j.Goal.GoalID == uuid.Nil || strings.TrimSpace(j.Goal.Title) == "" {
			return errors.New("goal breakdown job needs goal_id and title")
		}
	default:
		return errors.New("unknown job type: " + string(j.Type))
	}
	return nil
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// Delayed returns a copy of the job scheduled to run no earlier than
// notBefore, with its retry count incremented.
func (j *Job) Delayed(notBefore time.Time) *Job {
	next := *j
	next.NotBefore = &notBefore
	next.RetryCount = j.RetryCount + 1
	return &next
}
