package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudlark/slackbase/internal/domain"
)

// reembedBatchSize bounds how many summaries go to the embedding provider in
// one poll, per entity type.
const reembedBatchSize = 20

// ChannelEmbeddingStore is the store surface re-embedding needs for channels.
type ChannelEmbeddingStore interface {
	ListMissingEmbedding(ctx context.Context, limit int) ([]*domain.Channel, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error
}

// ThreadEmbeddingStore is the store surface re-embedding needs for threads.
type ThreadEmbeddingStore interface {
	ListMissingEmbedding(ctx context.Context, limit int) ([]*domain.Thread, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error
}

// BatchEmbedder generates embeddings for several texts in one call. A nil
// vector in the result means no embedding was available for that text.
type BatchEmbedder interface {
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Reembedder backfills embeddings for rows that were captured while the
// embedding provider was unavailable or disabled. Rows whose vectors still
// come back nil are left alone for a later poll.
type Reembedder struct {
	channels ChannelEmbeddingStore
	threads  ThreadEmbeddingStore
	embedder BatchEmbedder
}

func NewReembedder(channels ChannelEmbeddingStore, threads ThreadEmbeddingStore, embedder BatchEmbedder) *Reembedder {
	return &Reembedder{
		channels: channels,
		threads:  threads,
		embedder: embedder,
	}
}

// Process implements the Processor interface.
func (r *Reembedder) Process(ctx context.Context) error {
	if err := r.processChannels(ctx); err != nil {
		return err
	}
	return r.processThreads(ctx)
}

func (r *Reembedder) processChannels(ctx context.Context) error {
	channels, err := r.channels.ListMissingEmbedding(ctx, reembedBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list channels missing embeddings: %w", err)
	}
	if len(channels) == 0 {
		return nil
	}

	log.Printf("re-embedding %d channels", len(channels))

	texts := make([]string, len(channels))
	for i, c := range channels {
		texts[i] = c.Summary
	}

	vectors, err := r.embedder.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed channel summaries: %w", err)
	}

	for i, c := range channels {
		if vectors[i] == nil {
			continue
		}
		if err := r.channels.UpdateEmbedding(ctx, c.ID, vectors[i]); err != nil {
			log.Printf("failed to store embedding for channel %s: %v", c.ChannelID, err)
		}
	}
	return nil
}

func (r *Reembedder) processThreads(ctx context.Context) error {
	threads, err := r.threads.ListMissingEmbedding(ctx, reembedBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list threads missing embeddings: %w", err)
	}
	if len(threads) == 0 {
		return nil
	}

	log.Printf("re-embedding %d threads", len(threads))

	texts := make([]string, len(threads))
	for i, t := range threads {
		texts[i] = t.Summary
	}

	vectors, err := r.embedder.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed thread summaries: %w", err)
	}

	for i, t := range threads {
		if vectors[i] == nil {
			continue
		}
		if err := r.threads.UpdateEmbedding(ctx, t.ID, vectors[i]); err != nil {
			log.Printf("failed to store embedding for thread %s/%s: %v", t.ChannelID, t.ThreadTS, err)
		}
	}
	return nil
}
