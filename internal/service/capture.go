package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudlark/slackbase/internal/classify"
	"github.com/cloudlark/slackbase/internal/domain"
	"github.com/cloudlark/slackbase/internal/telemetry"
)

// summaryMessageLimit bounds how many raw messages go into the plain-text
// summary handed to the embedding provider.
const summaryMessageLimit = 10

// nonTextPlaceholder stands in for messages without a text body, e.g.
// attachment-only messages.
const nonTextPlaceholder = "[attachment or non-text message]"

// Message is one raw conversation message as returned by the chat transport.
type Message struct {
	UserID    string
	Username  string
	Text      string
	Timestamp time.Time
}

// ChannelInfo is channel metadata as returned by the chat transport.
type ChannelInfo struct {
	ChannelID string
	Name      string
	Topic     string
	Purpose   string
	IsPrivate bool
}

// Conversations is the chat transport consumed by capture. History is
// newest-first; thread replies are oldest-first with the root message first.
// Implementations paginate until the continuation token is exhausted.
type Conversations interface {
	ChannelInfo(ctx context.Context, channelID string) (*ChannelInfo, error)
	ChannelHistory(ctx context.Context, channelID string) ([]Message, error)
	ThreadReplies(ctx context.Context, channelID, threadTS string) ([]Message, error)
}

// Notifier posts progress and completion messages back to the requester.
type Notifier interface {
	Notify(ctx context.Context, channelID, threadTS, text string) error
}

// EmbeddingClient generates an embedding for a text. A (nil, nil) return
// means no embedding is available; it is not a failure.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChannelStore is the store surface capture needs for channels.
type ChannelStore interface {
	Upsert(ctx context.Context, c *domain.Channel) (int64, error)
	GetByChannelID(ctx context.Context, channelID string) (*domain.Channel, error)
	HasEmbedding(ctx context.Context, channelID string) (bool, error)
}

// ThreadStore is the store surface capture needs for threads.
type ThreadStore interface {
	Upsert(ctx context.Context, t *domain.Thread) (int64, error)
	Get(ctx context.Context, channelID, threadTS string) (*domain.Thread, error)
	HasEmbedding(ctx context.Context, channelID, threadTS string) (bool, error)
}

// TranscriptArchiver stores the raw collected messages of a capture. Optional;
// archive failures do not fail the capture.
type TranscriptArchiver interface {
	ArchiveTranscript(ctx context.Context, key string, messages []Message) error
}

// CaptureRequest identifies the entity to capture. A non-empty ThreadTS
// selects the thread workflow; otherwise the channel workflow runs. NotifyTS
// is the thread timestamp notifications are posted under.
type CaptureRequest struct {
	ChannelID string
	ThreadTS  string
	NotifyTS  string
}

// CaptureService drives the per-entity capture workflow: check the store for
// an existing embedding, collect raw conversation data, classify (threads
// only), embed, and upsert. Each terminal outcome produces exactly one
// notification. Nothing is persisted on failure, and nothing is retried; a
// re-issued request starts the workflow over.
//
// The existing-embedding check is read-then-act without isolation: two
// concurrent requests for the same uncaptured entity may both do the full
// capture. The store's upsert semantics make that converge (last writer wins)
// rather than error.
type CaptureService struct {
	channels ChannelStore
	threads  ThreadStore
	conv     Conversations
	embedder EmbeddingClient
	notifier Notifier
	archiver TranscriptArchiver
	classify func(text string) string
}

// NewCaptureService creates a CaptureService without transcript archiving.
func NewCaptureService(
	channels ChannelStore,
	threads ThreadStore,
	conv Conversations,
	embedder EmbeddingClient,
	notifier Notifier,
) *CaptureService {
	return NewCaptureServiceWithArchiver(channels, threads, conv, embedder, notifier, nil)
}

// NewCaptureServiceWithArchiver creates a CaptureService that also archives
// raw transcripts through the given archiver.
func NewCaptureServiceWithArchiver(
	channels ChannelStore,
	threads ThreadStore,
	conv Conversations,
	embedder EmbeddingClient,
	notifier Notifier,
	archiver TranscriptArchiver,
) *CaptureService {
	return &CaptureService{
		channels: channels,
		threads:  threads,
		conv:     conv,
		embedder: embedder,
		notifier: notifier,
		archiver: archiver,
		classify: classify.Classify,
	}
}

// Capture runs the workflow selected by the request.
func (s *CaptureService) Capture(ctx context.Context, req CaptureRequest) error {
	if req.ThreadTS != "" {
		return s.CaptureThread(ctx, req.ChannelID, req.ThreadTS, req.NotifyTS)
	}
	return s.CaptureChannel(ctx, req.ChannelID, req.NotifyTS)
}

// CaptureChannel captures one channel. If the store already holds an
// embedding for it, no collection or embedding happens and the cached summary
// fields are reported back.
func (s *CaptureService) CaptureChannel(ctx context.Context, channelID, notifyTS string) error {
	ctx, span := telemetry.StartSpan(ctx, "CaptureService.CaptureChannel", telemetry.SpanAttributes{
		ChannelID: channelID,
		Operation: "capture",
	})
	defer span.End()

	has, err := s.channels.HasEmbedding(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to check channel embedding: %w", err)
	}

	if has {
		existing, err := s.channels.GetByChannelID(ctx, channelID)
		if err != nil {
			return fmt.Errorf("failed to load indexed channel: %w", err)
		}
		text := fmt.Sprintf("✅ This channel is already indexed!\n📋 Channel: %s\n📊 %d messages, %d participants",
			displayName(existing.Name), existing.MessageCount, existing.ParticipantCount)
		return s.notifier.Notify(ctx, channelID, notifyTS, text)
	}

	if err := s.notifier.Notify(ctx, channelID, notifyTS, "🔄 Indexing this channel, hang tight..."); err != nil {
		return fmt.Errorf("failed to send progress notification: %w", err)
	}

	channel, messages, err := s.collectChannel(ctx, channelID)
	if err != nil {
		return s.fail(ctx, channelID, notifyTS, "channel", err)
	}

	s.archive(ctx, "channels/"+channelID+".json", messages)

	embedding, err := s.embedder.GenerateEmbedding(ctx, channel.Summary)
	if err != nil {
		return s.fail(ctx, channelID, notifyTS, "channel", fmt.Errorf("failed to generate embedding: %w", err))
	}
	channel.Embedding = embedding

	if _, err := s.channels.Upsert(ctx, channel); err != nil {
		return s.fail(ctx, channelID, notifyTS, "channel", fmt.Errorf("failed to store channel: %w", err))
	}

	text := fmt.Sprintf("✅ Channel indexed!\n📋 Channel: %s\n📊 %d messages, %d participants",
		displayName(channel.Name), channel.MessageCount, channel.ParticipantCount)
	return s.notifier.Notify(ctx, channelID, notifyTS, text)
}

// CaptureThread captures one thread, additionally classifying its summary.
func (s *CaptureService) CaptureThread(ctx context.Context, channelID, threadTS, notifyTS string) error {
	ctx, span := telemetry.StartSpan(ctx, "CaptureService.CaptureThread", telemetry.SpanAttributes{
		ChannelID: channelID,
		ThreadTS:  threadTS,
		Operation: "capture",
	})
	defer span.End()

	has, err := s.threads.HasEmbedding(ctx, channelID, threadTS)
	if err != nil {
		return fmt.Errorf("failed to check thread embedding: %w", err)
	}

	if has {
		existing, err := s.threads.Get(ctx, channelID, threadTS)
		if err != nil {
			return fmt.Errorf("failed to load indexed thread: %w", err)
		}
		text := fmt.Sprintf("✅ This thread is already indexed!\n📊 %d replies, %d participants",
			existing.ReplyCount, existing.ParticipantCount)
		return s.notifier.Notify(ctx, channelID, notifyTS, text)
	}

	if err := s.notifier.Notify(ctx, channelID, notifyTS, "🔄 Indexing this thread, hang tight..."); err != nil {
		return fmt.Errorf("failed to send progress notification: %w", err)
	}

	thread, messages, err := s.collectThread(ctx, channelID, threadTS)
	if err != nil {
		return s.fail(ctx, channelID, notifyTS, "thread", err)
	}

	s.archive(ctx, "threads/"+channelID+"-"+threadTS+".json", messages)

	embedding, err := s.embedder.GenerateEmbedding(ctx, thread.Summary)
	if err != nil {
		return s.fail(ctx, channelID, notifyTS, "thread", fmt.Errorf("failed to generate embedding: %w", err))
	}
	thread.Embedding = embedding

	if _, err := s.threads.Upsert(ctx, thread); err != nil {
		return s.fail(ctx, channelID, notifyTS, "thread", fmt.Errorf("failed to store thread: %w", err))
	}

	category := thread.Category
	if category == "" {
		category = "uncategorized"
	}
	text := fmt.Sprintf("✅ Thread indexed!\n📊 %d replies, %d participants\n🏷️ Category: %s",
		thread.ReplyCount, thread.ParticipantCount, category)
	return s.notifier.Notify(ctx, channelID, notifyTS, text)
}

// collectChannel gathers channel metadata and full history and derives the
// stored fields. History is newest-first.
func (s *CaptureService) collectChannel(ctx context.Context, channelID string) (*domain.Channel, []Message, error) {
	info, err := s.conv.ChannelInfo(ctx, channelID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch channel info: %w", err)
	}

	messages, err := s.conv.ChannelHistory(ctx, channelID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch channel history: %w", err)
	}

	lastActivityAt := time.Now().UTC()
	if len(messages) > 0 && !messages[0].Timestamp.IsZero() {
		lastActivityAt = messages[0].Timestamp
	}

	channel := &domain.Channel{
		ChannelID:        channelID,
		Name:             info.Name,
		Topic:            info.Topic,
		Purpose:          info.Purpose,
		IsPrivate:        info.IsPrivate,
		Summary:          buildChannelSummary(info, messages),
		MessageCount:     len(messages),
		ParticipantCount: countParticipants(messages),
		LastActivityAt:   lastActivityAt,
	}
	return channel, messages, nil
}

// collectThread gathers all replies of a thread and derives the stored
// fields. Replies are oldest-first with the root message first.
func (s *CaptureService) collectThread(ctx context.Context, channelID, threadTS string) (*domain.Thread, []Message, error) {
	messages, err := s.conv.ThreadReplies(ctx, channelID, threadTS)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch thread replies: %w", err)
	}

	var root Message
	if len(messages) > 0 {
		root = messages[0]
	}

	lastReplyAt := time.Now().UTC()
	if len(messages) > 0 && !messages[len(messages)-1].Timestamp.IsZero() {
		lastReplyAt = messages[len(messages)-1].Timestamp
	}

	replyCount := 0
	if len(messages) > 0 {
		replyCount = len(messages) - 1
	}

	summary := buildThreadSummary(messages)

	thread := &domain.Thread{
		ChannelID:        channelID,
		ThreadTS:         threadTS,
		RootUserID:       root.UserID,
		RootUsername:     root.Username,
		RootMessage:      root.Text,
		Summary:          summary,
		ReplyCount:       replyCount,
		ParticipantCount: countParticipants(messages),
		LastReplyAt:      lastReplyAt,
		Category:         s.classify(summary),
		Status:           domain.ThreadStatusActive,
	}
	return thread, messages, nil
}

// fail converts a collection/embedding/store error into the single
// user-facing failure notification. No partial row has been written at any
// call site.
func (s *CaptureService) fail(ctx context.Context, channelID, notifyTS, kind string, err error) error {
	log.Printf("capture failed (channel=%s %s): %v", channelID, kind, err)
	telemetry.CaptureError(ctx, err)
	text := fmt.Sprintf("❌ Failed to index this %s. Please try again.", kind)
	if notifyErr := s.notifier.Notify(ctx, channelID, notifyTS, text); notifyErr != nil {
		log.Printf("capture failure notification failed (channel=%s): %v", channelID, notifyErr)
	}
	return err
}

// archive writes the raw transcript when an archiver is configured. Failures
// are logged, not propagated: the archive supplements the capture.
func (s *CaptureService) archive(ctx context.Context, key string, messages []Message) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveTranscript(ctx, key, messages); err != nil {
		log.Printf("transcript archive failed (key=%s): %v", key, err)
	}
}

func buildChannelSummary(info *ChannelInfo, messages []Message) string {
	lines := []string{
		"Channel: " + displayName(info.Name),
	}
	if info.Topic != "" {
		lines = append(lines, "Topic: "+info.Topic)
	}
	if info.Purpose != "" {
		lines = append(lines, "Purpose: "+info.Purpose)
	}
	lines = append(lines,
		fmt.Sprintf("Messages: %d", len(messages)),
		fmt.Sprintf("Participants: %d", countParticipants(messages)),
		"Recent messages:",
	)
	for i, msg := range messages {
		if i >= summaryMessageLimit {
			break
		}
		lines = append(lines, "- "+messageText(msg))
	}
	return strings.Join(lines, "\n")
}

func buildThreadSummary(messages []Message) string {
	var root Message
	if len(messages) > 0 {
		root = messages[0]
	}

	replyCount := 0
	if len(messages) > 0 {
		replyCount = len(messages) - 1
	}

	lines := []string{
		"Root message: " + messageText(root),
		fmt.Sprintf("Replies: %d", replyCount),
		fmt.Sprintf("Participants: %d", countParticipants(messages)),
		"Thread messages:",
	}
	for i, msg := range messages {
		if i == 0 {
			continue
		}
		if i > summaryMessageLimit {
			break
		}
		lines = append(lines, "- "+messageText(msg))
	}
	return strings.Join(lines, "\n")
}

func messageText(msg Message) string {
	if strings.TrimSpace(msg.Text) == "" {
		return nonTextPlaceholder
	}
	return msg.Text
}

// countParticipants counts distinct user identifiers; bot and system messages
// without a user are skipped.
func countParticipants(messages []Message) int {
	seen := make(map[string]struct{})
	for _, msg := range messages {
		if msg.UserID == "" {
			continue
		}
		seen[msg.UserID] = struct{}{}
	}
	return len(seen)
}

func displayName(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
