package slackbot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/cloudlark/slackbase/internal/service"
)

const (
	// historyPageSize is the per-request message count for paginated reads.
	historyPageSize = 200

	// maxHistoryPages caps pagination so a runaway channel cannot hold a
	// capture open indefinitely. 20 pages of 200 is plenty for a summary.
	maxHistoryPages = 20
)

// Conversations adapts the Slack Web API to the capture service's transport
// interface. It handles cursor pagination internally.
type Conversations struct {
	api *slack.Client
}

func NewConversations(api *slack.Client) *Conversations {
	return &Conversations{api: api}
}

// ChannelInfo fetches channel metadata.
func (c *Conversations) ChannelInfo(ctx context.Context, channelID string) (*service.ChannelInfo, error) {
	info, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return nil, fmt.Errorf("conversations.info %s: %w", channelID, err)
	}
	return &service.ChannelInfo{
		ChannelID: channelID,
		Name:      info.Name,
		Topic:     info.Topic.Value,
		Purpose:   info.Purpose.Value,
		IsPrivate: info.IsPrivate,
	}, nil
}

// ChannelHistory fetches the channel's messages, newest first, following the
// cursor until exhausted or the page cap is hit.
func (c *Conversations) ChannelHistory(ctx context.Context, channelID string) ([]service.Message, error) {
	var messages []service.Message
	cursor := ""

	for page := 0; page < maxHistoryPages; page++ {
		resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Limit:     historyPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("conversations.history %s: %w", channelID, err)
		}

		for _, msg := range resp.Messages {
			messages = append(messages, convertMessage(msg))
		}

		cursor = resp.ResponseMetaData.NextCursor
		if !resp.HasMore || cursor == "" {
			break
		}
	}
	return messages, nil
}

// ThreadReplies fetches all messages of a thread, oldest first with the root
// message first, following the cursor until exhausted or the page cap is hit.
func (c *Conversations) ThreadReplies(ctx context.Context, channelID, threadTS string) ([]service.Message, error) {
	var messages []service.Message
	cursor := ""

	for page := 0; page < maxHistoryPages; page++ {
		msgs, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTS,
			Limit:     historyPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("conversations.replies %s/%s: %w", channelID, threadTS, err)
		}

		for _, msg := range msgs {
			messages = append(messages, convertMessage(msg))
		}

		cursor = nextCursor
		if !hasMore || cursor == "" {
			break
		}
	}
	return messages, nil
}

// Notify posts a message, threaded under threadTS when it is non-empty.
func (c *Conversations) Notify(ctx context.Context, channelID, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if _, _, err := c.api.PostMessageContext(ctx, channelID, opts...); err != nil {
		return fmt.Errorf("chat.postMessage %s: %w", channelID, err)
	}
	return nil
}

func convertMessage(msg slack.Message) service.Message {
	return service.Message{
		UserID:    msg.User,
		Username:  msg.Username,
		Text:      msg.Text,
		Timestamp: parseSlackTimestamp(msg.Timestamp),
	}
}

// parseSlackTimestamp converts a Slack "seconds.fraction" timestamp to a
// time.Time. Malformed timestamps yield the zero time.
func parseSlackTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}

	parts := strings.SplitN(ts, ".", 2)
	sec, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}
	}

	var nsec int64
	if len(parts) == 2 && parts[1] != "" {
		frac := parts[1]
		if len(frac) > 9 {
			frac = frac[:9]
		}
		for len(frac) < 9 {
			frac += "0"
		}
		if n, err := strconv.ParseInt(frac, 10, 64); err == nil {
			nsec = n
		}
	}
	return time.Unix(sec, nsec).UTC()
}
