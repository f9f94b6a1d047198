package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChannel(t *testing.T) {
	valid := &Channel{
		ChannelID:        "C123456",
		Name:             "general",
		MessageCount:     10,
		ParticipantCount: 3,
	}
	assert.NoError(t, ValidateChannel(valid))
}

func TestValidateChannel_Nil(t *testing.T) {
	assert.Error(t, ValidateChannel(nil))
}

func TestValidateChannel_MissingChannelID(t *testing.T) {
	err := ValidateChannel(&Channel{Name: "general"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ChannelID")
}

func TestValidateChannel_NegativeCounts(t *testing.T) {
	assert.Error(t, ValidateChannel(&Channel{ChannelID: "C1", MessageCount: -1}))
	assert.Error(t, ValidateChannel(&Channel{ChannelID: "C1", ParticipantCount: -1}))
}

func TestValidateChannel_WrongEmbeddingDimensions(t *testing.T) {
	err := ValidateChannel(&Channel{ChannelID: "C1", Embedding: make([]float32, 3)})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestValidateChannel_FullDimensionEmbedding(t *testing.T) {
	c := &Channel{ChannelID: "C1", Embedding: make([]float32, EmbeddingDimensions)}
	assert.NoError(t, ValidateChannel(c))
	assert.True(t, c.HasEmbedding())
}

func TestChannel_HasEmbedding_Absent(t *testing.T) {
	c := &Channel{ChannelID: "C1"}
	assert.False(t, c.HasEmbedding())
}
