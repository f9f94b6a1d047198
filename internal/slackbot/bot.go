package slackbot

import (
	"context"
	"log"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/cloudlark/slackbase/internal/service"
)

// Capturer runs the capture workflow for a mention.
type Capturer interface {
	Capture(ctx context.Context, req service.CaptureRequest) error
}

// Bot listens for app mentions over Socket Mode and dispatches each one to
// the capture service. A mention inside a thread captures that thread; a
// top-level mention captures the channel.
type Bot struct {
	api     *slack.Client
	socket  *socketmode.Client
	capture Capturer

	botUserID string
}

// New builds a Bot. The slack client must be constructed with an app-level
// token (xapp-) for Socket Mode.
func New(api *slack.Client, capture Capturer) *Bot {
	return &Bot{
		api:     api,
		socket:  socketmode.New(api),
		capture: capture,
	}
}

// Run connects and processes events until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	auth, err := b.api.AuthTestContext(ctx)
	if err != nil {
		return err
	}
	b.botUserID = auth.UserID
	log.Printf("slack bot connected as %s (%s)", auth.User, auth.UserID)

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.socket.RunContext(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case evt, ok := <-b.socket.Events:
			if !ok {
				return nil
			}
			b.handleEvent(ctx, evt)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		log.Println("slack bot connecting")
	case socketmode.EventTypeConnectionError:
		log.Printf("slack bot connection error: %v", evt.Data)
	case socketmode.EventTypeConnected:
		log.Println("slack bot connected to socket mode")
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			b.socket.Ack(*evt.Request)
		}
		b.handleEventsAPI(ctx, apiEvent)
	}
}

func (b *Bot) handleEventsAPI(ctx context.Context, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		if b.shouldIgnore(ev) {
			return
		}
		req := service.CaptureRequest{
			ChannelID: ev.Channel,
			ThreadTS:  ev.ThreadTimeStamp,
			NotifyTS:  notifyTS(ev),
		}
		// Captures collect full histories and call the embedding provider, so
		// each mention runs on its own goroutine to keep the event loop live.
		go func() {
			if err := b.capture.Capture(ctx, req); err != nil {
				log.Printf("capture for mention in %s failed: %v", req.ChannelID, err)
			}
		}()
	}
}

// shouldIgnore filters mentions produced by bots, including this one.
func (b *Bot) shouldIgnore(ev *slackevents.AppMentionEvent) bool {
	if ev.BotID != "" {
		return true
	}
	if b.botUserID != "" && ev.User == b.botUserID {
		return true
	}
	return strings.TrimSpace(ev.Text) == ""
}

// notifyTS picks where responses go: into the existing thread, or into a new
// thread rooted at the mention itself.
func notifyTS(ev *slackevents.AppMentionEvent) string {
	if ev.ThreadTimeStamp != "" {
		return ev.ThreadTimeStamp
	}
	return ev.TimeStamp
}
