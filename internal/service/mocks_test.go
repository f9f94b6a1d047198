package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cloudlark/slackbase/internal/domain"
)

type mockChannelStore struct {
	mock.Mock
}

func (m *mockChannelStore) Upsert(ctx context.Context, c *domain.Channel) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockChannelStore) GetByChannelID(ctx context.Context, channelID string) (*domain.Channel, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Channel), args.Error(1)
}

func (m *mockChannelStore) HasEmbedding(ctx context.Context, channelID string) (bool, error) {
	args := m.Called(ctx, channelID)
	return args.Bool(0), args.Error(1)
}

type mockThreadStore struct {
	mock.Mock
}

func (m *mockThreadStore) Upsert(ctx context.Context, t *domain.Thread) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockThreadStore) Get(ctx context.Context, channelID, threadTS string) (*domain.Thread, error) {
	args := m.Called(ctx, channelID, threadTS)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Thread), args.Error(1)
}

func (m *mockThreadStore) HasEmbedding(ctx context.Context, channelID, threadTS string) (bool, error) {
	args := m.Called(ctx, channelID, threadTS)
	return args.Bool(0), args.Error(1)
}

type mockConversations struct {
	mock.Mock
}

func (m *mockConversations) ChannelInfo(ctx context.Context, channelID string) (*ChannelInfo, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChannelInfo), args.Error(1)
}

func (m *mockConversations) ChannelHistory(ctx context.Context, channelID string) ([]Message, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

func (m *mockConversations) ThreadReplies(ctx context.Context, channelID, threadTS string) ([]Message, error) {
	args := m.Called(ctx, channelID, threadTS)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, channelID, threadTS, text string) error {
	args := m.Called(ctx, channelID, threadTS, text)
	return args.Error(0)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) ArchiveTranscript(ctx context.Context, key string, messages []Message) error {
	args := m.Called(ctx, key, messages)
	return args.Error(0)
}

type mockChannelSearcher struct {
	mock.Mock
}

func (m *mockChannelSearcher) Search(ctx context.Context, queryVector []float32, limit int, threshold float64) ([]domain.SearchResult, error) {
	args := m.Called(ctx, queryVector, limit, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchResult), args.Error(1)
}

type mockThreadSearcher struct {
	mock.Mock
}

func (m *mockThreadSearcher) Search(ctx context.Context, queryVector []float32, channelID string, limit int, threshold float64) ([]domain.SearchResult, error) {
	args := m.Called(ctx, queryVector, channelID, limit, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchResult), args.Error(1)
}
