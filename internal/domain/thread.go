package domain

import (
	"fmt"
	"time"
)

// EmbeddingDimensions is the fixed dimension shared by the embedding provider
// and the store schema (VECTOR(1536) columns).
const EmbeddingDimensions = 1536

// ThreadStatus represents the lifecycle status of a thread.
type ThreadStatus string

const (
	ThreadStatusActive   ThreadStatus = "active"
	ThreadStatusResolved ThreadStatus = "resolved"
	ThreadStatusArchived ThreadStatus = "archived"
)

// Thread represents an indexed Slack thread. It is keyed by
// (ChannelID, ThreadTS) where ThreadTS is the timestamp identifier of the
// thread's root message.
type Thread struct {
	ID               int64
	ChannelID        string
	ThreadTS         string
	RootUserID       string
	RootUsername     string
	RootMessage      string
	Summary          string
	Embedding        []float32 // nil means no embedding was available at capture time
	ReplyCount       int
	ParticipantCount int
	LastReplyAt      time.Time
	Category         string // one of classify.Categories, or empty when unclassified
	Status           ThreadStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasEmbedding reports whether the thread carries an embedding vector.
func (t *Thread) HasEmbedding() bool {
	return len(t.Embedding) > 0
}

// ValidateThread validates a Thread before it is written to the store.
func ValidateThread(t *Thread) error {
	if t == nil {
		return fmt.Errorf("thread cannot be nil")
	}

	if t.ChannelID == "" {
		return fmt.Errorf("thread ChannelID is required")
	}

	if t.ThreadTS == "" {
		return fmt.Errorf("thread ThreadTS is required")
	}

	if t.ReplyCount < 0 {
		return fmt.Errorf("thread ReplyCount cannot be negative")
	}

	if t.ParticipantCount < 0 {
		return fmt.Errorf("thread ParticipantCount cannot be negative")
	}

	if t.Status != "" && !isValidThreadStatus(t.Status) {
		return fmt.Errorf("thread Status is invalid: %s", t.Status)
	}

	if t.Embedding != nil && len(t.Embedding) != EmbeddingDimensions {
		return fmt.Errorf("thread embedding has %d dimensions, expected %d", len(t.Embedding), EmbeddingDimensions)
	}

	return nil
}

// isValidThreadStatus checks if a ThreadStatus is valid.
func isValidThreadStatus(s ThreadStatus) bool {
	switch s {
	case ThreadStatusActive, ThreadStatusResolved, ThreadStatusArchived:
		return true
	}
	return false
}
