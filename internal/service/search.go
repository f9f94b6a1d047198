package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/cloudlark/slackbase/internal/domain"
	"github.com/cloudlark/slackbase/internal/telemetry"
)

// Search defaults. The combined search splits its limit 30/70 between
// channels and threads.
const (
	DefaultChannelLimit  = 5
	DefaultThreadLimit   = 10
	DefaultCombinedLimit = 15
	DefaultThreshold     = 0.3

	combinedChannelShare = 0.3
	combinedThreadShare  = 0.7
)

// ChannelSearcher serves similarity search over channel embeddings.
type ChannelSearcher interface {
	Search(ctx context.Context, queryVector []float32, limit int, threshold float64) ([]domain.SearchResult, error)
}

// ThreadSearcher serves similarity search over thread embeddings, optionally
// restricted to one channel.
type ThreadSearcher interface {
	Search(ctx context.Context, queryVector []float32, channelID string, limit int, threshold float64) ([]domain.SearchResult, error)
}

// SearchOptions tunes a search. Zero values select the defaults; ChannelID
// only applies to thread search.
type SearchOptions struct {
	Limit     int
	Threshold float64
	ChannelID string
}

// SearchService embeds the query text once and fans out to the channel and
// thread stores.
type SearchService struct {
	channels ChannelSearcher
	threads  ThreadSearcher
	embedder EmbeddingClient
}

func NewSearchService(channels ChannelSearcher, threads ThreadSearcher, embedder EmbeddingClient) *SearchService {
	return &SearchService{
		channels: channels,
		threads:  threads,
		embedder: embedder,
	}
}

// SearchChannels returns channels similar to the query, most similar first.
func (s *SearchService) SearchChannels(ctx context.Context, query string, opts SearchOptions) ([]domain.SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.SearchChannels", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultChannelLimit
	}
	return s.channels.Search(ctx, vec, limit, threshold(opts))
}

// SearchThreads returns threads similar to the query, most similar first.
func (s *SearchService) SearchThreads(ctx context.Context, query string, opts SearchOptions) ([]domain.SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.SearchThreads", telemetry.SpanAttributes{
		ChannelID: opts.ChannelID,
		Operation: "search",
	})
	defer span.End()

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultThreadLimit
	}
	return s.threads.Search(ctx, vec, opts.ChannelID, limit, threshold(opts))
}

// SearchAll runs the combined search: 30% of the limit goes to channels, 70%
// to threads (both rounded down), then the two lists are merged, re-sorted by
// descending similarity, and truncated to the limit. Because each list is
// capped before the merge, a type whose sub-limit is exhausted cannot fill
// the other type's unused share.
func (s *SearchService) SearchAll(ctx context.Context, query string, opts SearchOptions) ([]domain.SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.SearchAll", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultCombinedLimit
	}
	channelLimit := int(float64(limit) * combinedChannelShare)
	threadLimit := int(float64(limit) * combinedThreadShare)

	channelResults, err := s.channels.Search(ctx, vec, channelLimit, threshold(opts))
	if err != nil {
		return nil, fmt.Errorf("channel search failed: %w", err)
	}

	threadResults, err := s.threads.Search(ctx, vec, "", threadLimit, threshold(opts))
	if err != nil {
		return nil, fmt.Errorf("thread search failed: %w", err)
	}

	merged := make([]domain.SearchResult, 0, len(channelResults)+len(threadResults))
	merged = append(merged, channelResults...)
	merged = append(merged, threadResults...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// embedQuery turns the query text into a vector. A provider that yields no
// vector makes search unavailable rather than silently empty.
func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vec, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if vec == nil {
		return nil, domain.ErrNoQueryEmbedding
	}
	return vec, nil
}

func threshold(opts SearchOptions) float64 {
	if opts.Threshold > 0 {
		return opts.Threshold
	}
	return DefaultThreshold
}
