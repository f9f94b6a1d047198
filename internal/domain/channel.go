package domain

import (
	"fmt"
	"time"
)

// Channel represents an indexed Slack channel with its derived summary and
// optional embedding. ChannelID is the external Slack identifier and the
// upsert key; the numeric ID is the store's row identifier.
type Channel struct {
	ID               int64
	ChannelID        string
	Name             string
	Topic            string
	Purpose          string
	IsPrivate        bool
	Summary          string
	Embedding        []float32 // nil means no embedding was available at capture time
	MessageCount     int
	ParticipantCount int
	LastActivityAt   time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasEmbedding reports whether the channel carries an embedding vector.
func (c *Channel) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// ValidateChannel validates a Channel before it is written to the store.
func ValidateChannel(c *Channel) error {
	if c == nil {
		return fmt.Errorf("channel cannot be nil")
	}

	if c.ChannelID == "" {
		return fmt.Errorf("channel ChannelID is required")
	}

	if c.MessageCount < 0 {
		return fmt.Errorf("channel MessageCount cannot be negative")
	}

	if c.ParticipantCount < 0 {
		return fmt.Errorf("channel ParticipantCount cannot be negative")
	}

	if c.Embedding != nil && len(c.Embedding) != EmbeddingDimensions {
		return fmt.Errorf("channel embedding has %d dimensions, expected %d", len(c.Embedding), EmbeddingDimensions)
	}

	return nil
}
