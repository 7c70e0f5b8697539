package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAcknowledger struct {
	acked   []uint64
	nacked  []uint64
	requeue []bool
	err     error
}

func (r *recordingAcknowledger) Ack(tag uint64, _ bool) error {
	r.acked = append(r.acked, tag)
	return r.err
}

func (r *recordingAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	r.nacked = append(r.nacked, tag)
	r.requeue = append(r.requeue, requeue)
	return r.err
}

func TestMessage_SettlesThroughChannel(t *testing.T) {
	t.Parallel()

	ack := &recordingAcknowledger{}
	job := NewScheduleJob("alice", SchedulePayload{MoodScore: 5})
	msg := &Message{Job: job, DeliveryTag: 42, Channel: ack}

	assert.Same(t, job, msg.GetJob())
	require.NoError(t, msg.Ack())
	require.NoError(t, msg.Nack(true))
	assert.Equal(t, []uint64{42}, ack.acked)
	assert.Equal(t, []uint64{42}, ack.nacked)
	assert.Equal(t, []bool{true}, ack.requeue)

	ack.err = errors.New("channel closed")
	assert.Error(t, msg.Ack())
}

func TestRabbitMQQueue_Publishing(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	q := &RabbitMQQueue{
		exchangeName:        DefaultExchangeName,
		delayedExchangeName: DefaultDelayedExchangeName,
		delayedAvailable:    true,
	}

	t.Run("immediate job uses main exchange", func(t *testing.T) {
		job := NewScheduleJob("alice", SchedulePayload{MoodScore: 5})
		exchange, msg, err := q.publishing(job, now)
		require.NoError(t, err)
		assert.Equal(t, DefaultExchangeName, exchange)
		assert.Equal(t, job.ID.String(), msg.MessageId)
		assert.Equal(t, string(JobTypeSynthesizeSchedule), msg.Type)
		assert.Empty(t, msg.Expiration)
		assert.Nil(t, msg.Headers)
	})

	t.Run("future job uses delayed exchange", func(t *testing.T) {
		job := NewScheduleJob("alice", SchedulePayload{}).Delayed(now.Add(90 * time.Second))
		exchange, msg, err := q.publishing(job, now)
		require.NoError(t, err)
		assert.Equal(t, DefaultDelayedExchangeName, exchange)
		assert.Equal(t, int64(90000), msg.Headers["x-delay"])
	})

	t.Run("not after becomes message ttl", func(t *testing.T) {
		job := NewGoalBreakdownJob("alice", uuid.New(), "Learn")
		job.NotAfter = timePtr(now.Add(2 * time.Second))
		_, msg, err := q.publishing(job, now)
		require.NoError(t, err)
		assert.Equal(t, "2000", msg.Expiration)
	})

	t.Run("without plugin delayed jobs use main exchange", func(t *testing.T) {
		plain := &RabbitMQQueue{exchangeName: DefaultExchangeName, delayedExchangeName: DefaultDelayedExchangeName}
		job := NewScheduleJob("alice", SchedulePayload{}).Delayed(now.Add(time.Minute))
		exchange, _, err := plain.publishing(job, now)
		require.NoError(t, err)
		assert.Equal(t, DefaultExchangeName, exchange)
	})
}
