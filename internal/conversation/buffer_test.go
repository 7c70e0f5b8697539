package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestBuffer_CapacityKeepsLastTenOldestFirst(t *testing.T) {
	t.Parallel()

	buf := NewBufferWithClock(fixedClock())
	for i := 1; i <= 15; i++ {
		buf.Append(fmt.Sprintf("cmd %d", i), fmt.Sprintf("resp %d", i))
	}

	entries := buf.Entries()
	require.Len(t, entries, Capacity)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("cmd %d", i+6), e.Command)
		assert.Equal(t, fmt.Sprintf("resp %d", i+6), e.Response)
	}
	assert.Equal(t, Capacity, buf.Len())
}

func TestBuffer_AppendStampsTimestamp(t *testing.T) {
	t.Parallel()

	buf := NewBufferWithClock(fixedClock())
	entry := buf.Append("plan my day", "Sure")

	assert.Equal(t, "2026-03-02T09:00:01Z", entry.Timestamp)
}

func TestBuffer_RecentIsNewestFirst(t *testing.T) {
	t.Parallel()

	buf := NewBufferWithClock(fixedClock())
	buf.Append("a", "1")
	buf.Append("b", "2")
	buf.Append("c", "3")

	recent := buf.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].Command)
	assert.Equal(t, "a", recent[2].Command)
}

func TestBuffer_ReadsAreCopies(t *testing.T) {
	t.Parallel()

	buf := NewBuffer()
	buf.Append("a", "1")

	entries := buf.Entries()
	entries[0].Command = "mutated"

	assert.Equal(t, "a", buf.Entries()[0].Command)
}

func TestBuffer_ClearIsIdempotent(t *testing.T) {
	t.Parallel()

	buf := NewBuffer()
	buf.Clear()
	assert.Equal(t, 0, buf.Len())

	buf.Append("a", "1")
	buf.Clear()
	buf.Clear()
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Entries())
	assert.Equal(t, "", buf.Prompt())
}

func TestBuffer_Prompt(t *testing.T) {
	t.Parallel()

	buf := NewBuffer()
	buf.Append("add a task", "Added.")
	buf.Append("how am I doing", "Great.")

	assert.Equal(t, "User: add a task\nAssistant: Added.\nUser: how am I doing\nAssistant: Great.", buf.Prompt())
}

func TestBuffer_Export(t *testing.T) {
	t.Parallel()

	buf := NewBufferWithClock(fixedClock())
	buf.Append("a", "1")
	buf.Append("b", "2")

	export := buf.Export()
	assert.Equal(t, "2026-03-02T09:00:03Z", export.Timestamp)
	require.Len(t, export.Conversation, 2)
	assert.Equal(t, "a", export.Conversation[0].Command)
}

func TestSession_TurnSupersedesInFlightTurn(t *testing.T) {
	t.Parallel()

	session := NewRegistry().GetOrCreate("user-1")

	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		session.Turn(context.Background(), func(ctx context.Context, buf *Buffer) {
			close(started)
			<-ctx.Done()
			if ctx.Err() == nil {
				buf.Append("slow", "should not be recorded")
			}
		})
	}()

	<-started
	session.Turn(context.Background(), func(ctx context.Context, buf *Buffer) {
		buf.Append("fast", "done")
	})
	wg.Wait()

	session.View(func(buf *Buffer) {
		entries := buf.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "fast", entries[0].Command)
	})
}

func TestRegistry_GetOrCreateEndAndSweep(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	a := reg.GetOrCreate("a")
	assert.Same(t, a, reg.GetOrCreate("a"))

	a.Turn(context.Background(), func(_ context.Context, buf *Buffer) {
		buf.Append("x", "y")
	})
	reg.End("a")
	assert.Equal(t, 0, reg.Len())
	a.View(func(buf *Buffer) { assert.Equal(t, 0, buf.Len()) })

	reg.GetOrCreate("b")
	assert.Equal(t, 0, reg.Sweep(time.Hour))
	assert.Equal(t, 1, reg.Sweep(-time.Second))
	assert.Equal(t, 0, reg.Len())
}
