package slackbot

import (
	"testing"
	"time"

	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
)

func TestParseSlackTimestamp(t *testing.T) {
	ts := parseSlackTimestamp("1714652400.123456")
	assert.Equal(t, time.Unix(1714652400, 123456000).UTC(), ts)

	assert.Equal(t, time.Unix(1714652400, 0).UTC(), parseSlackTimestamp("1714652400"))
	assert.True(t, parseSlackTimestamp("").IsZero())
	assert.True(t, parseSlackTimestamp("not-a-ts").IsZero())
}

func TestNotifyTS(t *testing.T) {
	threaded := &slackevents.AppMentionEvent{TimeStamp: "2.0", ThreadTimeStamp: "1.0"}
	assert.Equal(t, "1.0", notifyTS(threaded))

	topLevel := &slackevents.AppMentionEvent{TimeStamp: "2.0"}
	assert.Equal(t, "2.0", notifyTS(topLevel))
}

func TestShouldIgnore(t *testing.T) {
	b := &Bot{botUserID: "UBOT"}

	assert.True(t, b.shouldIgnore(&slackevents.AppMentionEvent{BotID: "B1", Text: "<@UBOT> index"}))
	assert.True(t, b.shouldIgnore(&slackevents.AppMentionEvent{User: "UBOT", Text: "<@UBOT> index"}))
	assert.True(t, b.shouldIgnore(&slackevents.AppMentionEvent{User: "U1", Text: "   "}))
	assert.False(t, b.shouldIgnore(&slackevents.AppMentionEvent{User: "U1", Text: "<@UBOT> index"}))
}
