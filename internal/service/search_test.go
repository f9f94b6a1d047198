package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloudlark/slackbase/internal/domain"
)

func channelHit(id string, similarity float64) domain.SearchResult {
	return domain.SearchResult{
		Type:       domain.ResultTypeChannel,
		Similarity: similarity,
		Channel:    &domain.Channel{ChannelID: id},
	}
}

func threadHit(ts string, similarity float64) domain.SearchResult {
	return domain.SearchResult{
		Type:       domain.ResultTypeThread,
		Similarity: similarity,
		Thread:     &domain.Thread{ChannelID: "C1", ThreadTS: ts},
	}
}

func TestSearchAll_SplitsLimitAndMergesBySimilarity(t *testing.T) {
	channels := new(mockChannelSearcher)
	threads := new(mockThreadSearcher)
	embedder := new(mockEmbedder)

	vec := testVector()
	embedder.On("GenerateEmbedding", mock.Anything, "deploy help").Return(vec, nil).Once()

	// 30% and 70% of 15, rounded down.
	channels.On("Search", mock.Anything, vec, 4, 0.3).Return([]domain.SearchResult{
		channelHit("C1", 0.92),
		channelHit("C2", 0.41),
	}, nil).Once()
	threads.On("Search", mock.Anything, vec, "", 10, 0.3).Return([]domain.SearchResult{
		threadHit("1.1", 0.88),
		threadHit("2.2", 0.67),
		threadHit("3.3", 0.35),
	}, nil).Once()

	svc := NewSearchService(channels, threads, embedder)
	results, err := svc.SearchAll(context.Background(), "deploy help", SearchOptions{})
	require.NoError(t, err)

	require.Len(t, results, 5)
	assert.True(t, sort.SliceIsSorted(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	}))
	assert.Equal(t, domain.ResultTypeChannel, results[0].Type)
	assert.Equal(t, "C1", results[0].Channel.ChannelID)
	assert.Equal(t, domain.ResultTypeThread, results[1].Type)

	channels.AssertExpectations(t)
	threads.AssertExpectations(t)
}

func TestSearchAll_TruncatesToLimit(t *testing.T) {
	channels := new(mockChannelSearcher)
	threads := new(mockThreadSearcher)
	embedder := new(mockEmbedder)

	vec := testVector()
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(vec, nil).Once()

	channels.On("Search", mock.Anything, vec, 3, 0.3).Return([]domain.SearchResult{
		channelHit("C1", 0.9),
		channelHit("C2", 0.8),
		channelHit("C3", 0.7),
	}, nil).Once()
	threads.On("Search", mock.Anything, vec, "", 7, 0.3).Return([]domain.SearchResult{
		threadHit("1.1", 0.95),
		threadHit("2.2", 0.85),
		threadHit("3.3", 0.75),
		threadHit("4.4", 0.65),
		threadHit("5.5", 0.55),
		threadHit("6.6", 0.45),
		threadHit("7.7", 0.35),
	}, nil).Once()

	svc := NewSearchService(channels, threads, embedder)
	results, err := svc.SearchAll(context.Background(), "anything", SearchOptions{Limit: 10})
	require.NoError(t, err)

	assert.Len(t, results, 10)
	assert.InDelta(t, 0.95, results[0].Similarity, 1e-9)
	assert.InDelta(t, 0.35, results[9].Similarity, 1e-9)
}

func TestSearchAll_NoQueryEmbedding(t *testing.T) {
	channels := new(mockChannelSearcher)
	threads := new(mockThreadSearcher)
	embedder := new(mockEmbedder)

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, nil).Once()

	svc := NewSearchService(channels, threads, embedder)
	_, err := svc.SearchAll(context.Background(), "query", SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrNoQueryEmbedding)

	channels.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	threads.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchAll_EmbedError(t *testing.T) {
	channels := new(mockChannelSearcher)
	threads := new(mockThreadSearcher)
	embedder := new(mockEmbedder)

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, errors.New("provider down")).Once()

	svc := NewSearchService(channels, threads, embedder)
	_, err := svc.SearchAll(context.Background(), "query", SearchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestSearchChannels_Defaults(t *testing.T) {
	channels := new(mockChannelSearcher)
	threads := new(mockThreadSearcher)
	embedder := new(mockEmbedder)

	vec := testVector()
	embedder.On("GenerateEmbedding", mock.Anything, "onboarding").Return(vec, nil).Once()
	channels.On("Search", mock.Anything, vec, DefaultChannelLimit, DefaultThreshold).Return([]domain.SearchResult{
		channelHit("C1", 0.5),
	}, nil).Once()

	svc := NewSearchService(channels, threads, embedder)
	results, err := svc.SearchChannels(context.Background(), "onboarding", SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	channels.AssertExpectations(t)
}

func TestSearchThreads_ChannelFilterAndOverrides(t *testing.T) {
	channels := new(mockChannelSearcher)
	threads := new(mockThreadSearcher)
	embedder := new(mockEmbedder)

	vec := testVector()
	embedder.On("GenerateEmbedding", mock.Anything, "payroll").Return(vec, nil).Once()
	threads.On("Search", mock.Anything, vec, "C7", 25, 0.6).Return([]domain.SearchResult{}, nil).Once()

	svc := NewSearchService(channels, threads, embedder)
	_, err := svc.SearchThreads(context.Background(), "payroll", SearchOptions{
		Limit:     25,
		Threshold: 0.6,
		ChannelID: "C7",
	})
	require.NoError(t, err)
	threads.AssertExpectations(t)
}
