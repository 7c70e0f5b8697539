// Package conversation keeps short-term assistant memory.
package conversation

import (
	"strings"
	"time"

	"github.com/benvon/study-planner/internal/models"
)

// Capacity is the fixed number of exchanges a Buffer retains.
const Capacity = 10

// Buffer is a bounded FIFO of command/response exchanges.
// A Buffer has a single owner; it does no locking of its own.
type Buffer struct {
	entries []models.ConversationEntry
	now     func() time.Time
}

// NewBuffer creates an empty buffer using the wall clock.
func NewBuffer() *Buffer {
	return NewBufferWithClock(time.Now)
}

// NewBufferWithClock creates an empty buffer that stamps entries with now.
func NewBufferWithClock(now func() time.Time) *Buffer {
	return &Buffer{
		entries: make([]models.ConversationEntry, 0, Capacity+1),
		now:     now,
	}
}

// Append records an exchange and evicts the oldest entries beyond Capacity.
func (b *Buffer) Append(command, response string) models.ConversationEntry {
	entry := models.ConversationEntry{
		Timestamp: b.now().UTC().Format(time.RFC3339Nano),
		Command:   command,
		Response:  response,
	}
	b.entries = append(b.entries, entry)
	if over := len(b.entries) - Capacity; over > 0 {
		b.entries = append(b.entries[:0], b.entries[over:]...)
	}
	return entry
}

// Entries returns a copy of the buffer, oldest first.
func (b *Buffer) Entries() []models.ConversationEntry {
	out := make([]models.ConversationEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Recent returns a copy of the buffer, newest first.
func (b *Buffer) Recent() []models.ConversationEntry {
	out := make([]models.ConversationEntry, len(b.entries))
	for i, e := range b.entries {
		out[len(b.entries)-1-i] = e
	}
	return out
}

// Len returns the number of retained exchanges.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Clear empties the buffer. Clearing an empty buffer is a no-op.
func (b *Buffer) Clear() {
	b.entries = b.entries[:0]
}

// Prompt renders the buffer oldest first as alternating User/Assistant lines.
func (b *Buffer) Prompt() string {
	var sb strings.Builder
	for i, e := range b.entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("User: ")
		sb.WriteString(e.Command)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(e.Response)
	}
	return sb.String()
}

// Export is the display/export form of a conversation.
type Export struct {
	Timestamp    string                     `json:"timestamp"`
	Conversation []models.ConversationEntry `json:"conversation"`
}

// Export snapshots the buffer, oldest first, stamped with the current time.
func (b *Buffer) Export() Export {
	return Export{
		Timestamp:    b.now().UTC().Format(time.RFC3339Nano),
		Conversation: b.Entries(),
	}
}
