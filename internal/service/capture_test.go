package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloudlark/slackbase/internal/domain"
)

func testVector() []float32 {
	vec := make([]float32, domain.EmbeddingDimensions)
	vec[0] = 1
	return vec
}

func notifyWithPrefix(prefix string) any {
	return mock.MatchedBy(func(text string) bool {
		return strings.HasPrefix(text, prefix)
	})
}

func threadMessages() []Message {
	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	return []Message{
		{UserID: "U1", Username: "amara", Text: "Deploy to kubernetes keeps failing on the helm upgrade step", Timestamp: base},
		{UserID: "U2", Username: "jonas", Text: "Check the ci pipeline logs, the rollback fired", Timestamp: base.Add(time.Minute)},
		{UserID: "U1", Username: "amara", Text: "Found it, the release tag was wrong", Timestamp: base.Add(2 * time.Minute)},
	}
}

func TestCaptureThread_FullWorkflow(t *testing.T) {
	channels := new(mockChannelStore)
	threads := new(mockThreadStore)
	conv := new(mockConversations)
	embedder := new(mockEmbedder)
	notifier := new(mockNotifier)

	threads.On("HasEmbedding", mock.Anything, "C1", "111.222").Return(false, nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("🔄")).Return(nil).Once()
	conv.On("ThreadReplies", mock.Anything, "C1", "111.222").Return(threadMessages(), nil).Once()
	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).Return(testVector(), nil).Once()
	threads.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.Thread")).Return(int64(7), nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("✅")).Return(nil).Once()

	svc := NewCaptureService(channels, threads, conv, embedder, notifier)
	err := svc.CaptureThread(context.Background(), "C1", "111.222", "111.222")
	require.NoError(t, err)

	upserted := threads.Calls[1].Arguments.Get(1).(*domain.Thread)
	assert.Equal(t, "C1", upserted.ChannelID)
	assert.Equal(t, "111.222", upserted.ThreadTS)
	assert.Equal(t, "U1", upserted.RootUserID)
	assert.Equal(t, "amara", upserted.RootUsername)
	assert.Equal(t, 2, upserted.ReplyCount)
	assert.Equal(t, 2, upserted.ParticipantCount)
	assert.Equal(t, "DevOps/Release", upserted.Category)
	assert.Equal(t, domain.ThreadStatusActive, upserted.Status)
	assert.True(t, upserted.HasEmbedding())

	threads.AssertExpectations(t)
	conv.AssertExpectations(t)
	embedder.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCaptureThread_CacheHitSkipsCollection(t *testing.T) {
	channels := new(mockChannelStore)
	threads := new(mockThreadStore)
	conv := new(mockConversations)
	embedder := new(mockEmbedder)
	notifier := new(mockNotifier)

	threads.On("HasEmbedding", mock.Anything, "C1", "111.222").Return(true, nil).Once()
	threads.On("Get", mock.Anything, "C1", "111.222").Return(&domain.Thread{
		ChannelID:        "C1",
		ThreadTS:         "111.222",
		ReplyCount:       4,
		ParticipantCount: 3,
	}, nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", "✅ This thread is already indexed!\n📊 4 replies, 3 participants").Return(nil).Once()

	svc := NewCaptureService(channels, threads, conv, embedder, notifier)
	err := svc.CaptureThread(context.Background(), "C1", "111.222", "111.222")
	require.NoError(t, err)

	conv.AssertNotCalled(t, "ThreadReplies", mock.Anything, mock.Anything, mock.Anything)
	embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
	threads.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	notifier.AssertExpectations(t)
}

func TestCaptureThread_NoEmbeddingStillStores(t *testing.T) {
	channels := new(mockChannelStore)
	threads := new(mockThreadStore)
	conv := new(mockConversations)
	embedder := new(mockEmbedder)
	notifier := new(mockNotifier)

	threads.On("HasEmbedding", mock.Anything, "C1", "111.222").Return(false, nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("🔄")).Return(nil).Once()
	conv.On("ThreadReplies", mock.Anything, "C1", "111.222").Return(threadMessages(), nil).Once()
	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).Return(nil, nil).Once()
	threads.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.Thread")).Return(int64(7), nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("✅")).Return(nil).Once()

	svc := NewCaptureService(channels, threads, conv, embedder, notifier)
	err := svc.CaptureThread(context.Background(), "C1", "111.222", "111.222")
	require.NoError(t, err)

	upserted := threads.Calls[1].Arguments.Get(1).(*domain.Thread)
	assert.False(t, upserted.HasEmbedding())
	threads.AssertExpectations(t)
}

func TestCaptureThread_CollectFailureNotifiesAndStoresNothing(t *testing.T) {
	channels := new(mockChannelStore)
	threads := new(mockThreadStore)
	conv := new(mockConversations)
	embedder := new(mockEmbedder)
	notifier := new(mockNotifier)

	threads.On("HasEmbedding", mock.Anything, "C1", "111.222").Return(false, nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("🔄")).Return(nil).Once()
	conv.On("ThreadReplies", mock.Anything, "C1", "111.222").Return(nil, errors.New("rate limited")).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("❌")).Return(nil).Once()

	svc := NewCaptureService(channels, threads, conv, embedder, notifier)
	err := svc.CaptureThread(context.Background(), "C1", "111.222", "111.222")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	threads.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
	notifier.AssertExpectations(t)
}

func TestCaptureThread_EmbedFailureNotifiesAndStoresNothing(t *testing.T) {
	channels := new(mockChannelStore)
	threads := new(mockThreadStore)
	conv := new(mockConversations)
	embedder := new(mockEmbedder)
	notifier := new(mockNotifier)

	threads.On("HasEmbedding", mock.Anything, "C1", "111.222").Return(false, nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("🔄")).Return(nil).Once()
	conv.On("ThreadReplies", mock.Anything, "C1", "111.222").Return(threadMessages(), nil).Once()
	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).Return(nil, errors.New("provider down")).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("❌")).Return(nil).Once()

	svc := NewCaptureService(channels, threads, conv, embedder, notifier)
	err := svc.CaptureThread(context.Background(), "C1", "111.222", "111.222")
	require.Error(t, err)

	threads.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	notifier.AssertExpectations(t)
}

func TestCaptureChannel_FullWorkflow(t *testing.T) {
	channels := new(mockChannelStore)
	threads := new(mockThreadStore)
	conv := new(mockConversations)
	embedder := new(mockEmbedder)
	notifier := new(mockNotifier)

	newest := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)
	history := []Message{
		{UserID: "U3", Username: "pia", Text: "Latest update", Timestamp: newest},
		{UserID: "U1", Username: "amara", Text: "", Timestamp: newest.Add(-time.Hour)},
		{UserID: "U2", Username: "jonas", Text: "Older message", Timestamp: newest.Add(-2 * time.Hour)},
	}

	channels.On("HasEmbedding", mock.Anything, "C9").Return(false, nil).Once()
	notifier.On("Notify", mock.Anything, "C9", "500.100", notifyWithPrefix("🔄")).Return(nil).Once()
	conv.On("ChannelInfo", mock.Anything, "C9").Return(&ChannelInfo{
		ChannelID: "C9",
		Name:      "platform-help",
		Topic:     "Platform questions",
		Purpose:   "Ask the platform team",
	}, nil).Once()
	conv.On("ChannelHistory", mock.Anything, "C9").Return(history, nil).Once()
	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).Return(testVector(), nil).Once()
	channels.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.Channel")).Return(int64(3), nil).Once()
	notifier.On("Notify", mock.Anything, "C9", "500.100", notifyWithPrefix("✅")).Return(nil).Once()

	svc := NewCaptureService(channels, threads, conv, embedder, notifier)
	err := svc.CaptureChannel(context.Background(), "C9", "500.100")
	require.NoError(t, err)

	upserted := channels.Calls[1].Arguments.Get(1).(*domain.Channel)
	assert.Equal(t, "C9", upserted.ChannelID)
	assert.Equal(t, "platform-help", upserted.Name)
	assert.Equal(t, 3, upserted.MessageCount)
	assert.Equal(t, 3, upserted.ParticipantCount)
	assert.True(t, newest.Equal(upserted.LastActivityAt))
	assert.Contains(t, upserted.Summary, "platform-help")
	assert.Contains(t, upserted.Summary, "[attachment or non-text message]")

	channels.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCaptureChannel_CacheHitReportsStoredCounts(t *testing.T) {
	channels := new(mockChannelStore)
	threads := new(mockThreadStore)
	conv := new(mockConversations)
	embedder := new(mockEmbedder)
	notifier := new(mockNotifier)

	channels.On("HasEmbedding", mock.Anything, "C9").Return(true, nil).Once()
	channels.On("GetByChannelID", mock.Anything, "C9").Return(&domain.Channel{
		ChannelID:        "C9",
		Name:             "platform-help",
		MessageCount:     120,
		ParticipantCount: 14,
	}, nil).Once()
	notifier.On("Notify", mock.Anything, "C9", "500.100",
		"✅ This channel is already indexed!\n📋 Channel: platform-help\n📊 120 messages, 14 participants").Return(nil).Once()

	svc := NewCaptureService(channels, threads, conv, embedder, notifier)
	err := svc.CaptureChannel(context.Background(), "C9", "500.100")
	require.NoError(t, err)

	conv.AssertNotCalled(t, "ChannelInfo", mock.Anything, mock.Anything)
	conv.AssertNotCalled(t, "ChannelHistory", mock.Anything, mock.Anything)
	channels.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	notifier.AssertExpectations(t)
}

func TestCaptureThread_ArchiveFailureDoesNotFailCapture(t *testing.T) {
	channels := new(mockChannelStore)
	threads := new(mockThreadStore)
	conv := new(mockConversations)
	embedder := new(mockEmbedder)
	notifier := new(mockNotifier)
	archiver := new(mockArchiver)

	threads.On("HasEmbedding", mock.Anything, "C1", "111.222").Return(false, nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("🔄")).Return(nil).Once()
	conv.On("ThreadReplies", mock.Anything, "C1", "111.222").Return(threadMessages(), nil).Once()
	archiver.On("ArchiveTranscript", mock.Anything, "threads/C1-111.222.json", mock.Anything).Return(errors.New("bucket missing")).Once()
	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).Return(testVector(), nil).Once()
	threads.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.Thread")).Return(int64(7), nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("✅")).Return(nil).Once()

	svc := NewCaptureServiceWithArchiver(channels, threads, conv, embedder, notifier, archiver)
	err := svc.CaptureThread(context.Background(), "C1", "111.222", "111.222")
	require.NoError(t, err)

	archiver.AssertExpectations(t)
	threads.AssertExpectations(t)
}

func TestCapture_DispatchesOnThreadTS(t *testing.T) {
	channels := new(mockChannelStore)
	threads := new(mockThreadStore)
	conv := new(mockConversations)
	embedder := new(mockEmbedder)
	notifier := new(mockNotifier)

	threads.On("HasEmbedding", mock.Anything, "C1", "111.222").Return(true, nil).Once()
	threads.On("Get", mock.Anything, "C1", "111.222").Return(&domain.Thread{ChannelID: "C1", ThreadTS: "111.222"}, nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "111.222", notifyWithPrefix("✅")).Return(nil).Once()

	channels.On("HasEmbedding", mock.Anything, "C1").Return(true, nil).Once()
	channels.On("GetByChannelID", mock.Anything, "C1").Return(&domain.Channel{ChannelID: "C1", Name: "general"}, nil).Once()
	notifier.On("Notify", mock.Anything, "C1", "900.001", notifyWithPrefix("✅")).Return(nil).Once()

	svc := NewCaptureService(channels, threads, conv, embedder, notifier)

	err := svc.Capture(context.Background(), CaptureRequest{ChannelID: "C1", ThreadTS: "111.222", NotifyTS: "111.222"})
	require.NoError(t, err)

	err = svc.Capture(context.Background(), CaptureRequest{ChannelID: "C1", NotifyTS: "900.001"})
	require.NoError(t, err)

	threads.AssertExpectations(t)
	channels.AssertExpectations(t)
}
