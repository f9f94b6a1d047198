package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cloudlark/slackbase/internal/api"
	"github.com/cloudlark/slackbase/internal/domain"
	"github.com/cloudlark/slackbase/internal/service"
)

type SearchService interface {
	SearchAll(ctx context.Context, query string, opts service.SearchOptions) ([]domain.SearchResult, error)
	SearchChannels(ctx context.Context, query string, opts service.SearchOptions) ([]domain.SearchResult, error)
	SearchThreads(ctx context.Context, query string, opts service.SearchOptions) ([]domain.SearchResult, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query     string  `json:"query"`
	Type      string  `json:"type"`
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
	ChannelID string  `json:"channel_id"`
}

type SearchResultResponse struct {
	Type       string           `json:"type"`
	Similarity float64          `json:"similarity"`
	Channel    *ChannelResponse `json:"channel,omitempty"`
	Thread     *ThreadResponse  `json:"thread,omitempty"`
}

type ChannelResponse struct {
	ID               int64  `json:"id"`
	ChannelID        string `json:"channel_id"`
	Name             string `json:"name"`
	Topic            string `json:"topic,omitempty"`
	Purpose          string `json:"purpose,omitempty"`
	IsPrivate        bool   `json:"is_private"`
	Summary          string `json:"summary,omitempty"`
	MessageCount     int    `json:"message_count"`
	ParticipantCount int    `json:"participant_count"`
	LastActivityAt   string `json:"last_activity_at,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type ThreadResponse struct {
	ID               int64  `json:"id"`
	ChannelID        string `json:"channel_id"`
	ThreadTS         string `json:"thread_ts"`
	RootUserID       string `json:"root_user_id,omitempty"`
	RootUsername     string `json:"root_username,omitempty"`
	RootMessage      string `json:"root_message,omitempty"`
	Summary          string `json:"summary,omitempty"`
	ReplyCount       int    `json:"reply_count"`
	ParticipantCount int    `json:"participant_count"`
	LastReplyAt      string `json:"last_reply_at,omitempty"`
	Category         string `json:"category,omitempty"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func channelToResponse(c *domain.Channel) *ChannelResponse {
	return &ChannelResponse{
		ID:               c.ID,
		ChannelID:        c.ChannelID,
		Name:             c.Name,
		Topic:            c.Topic,
		Purpose:          c.Purpose,
		IsPrivate:        c.IsPrivate,
		Summary:          c.Summary,
		MessageCount:     c.MessageCount,
		ParticipantCount: c.ParticipantCount,
		LastActivityAt:   formatTime(c.LastActivityAt),
		CreatedAt:        formatTime(c.CreatedAt),
		UpdatedAt:        formatTime(c.UpdatedAt),
	}
}

func threadToResponse(t *domain.Thread) *ThreadResponse {
	return &ThreadResponse{
		ID:               t.ID,
		ChannelID:        t.ChannelID,
		ThreadTS:         t.ThreadTS,
		RootUserID:       t.RootUserID,
		RootUsername:     t.RootUsername,
		RootMessage:      t.RootMessage,
		Summary:          t.Summary,
		ReplyCount:       t.ReplyCount,
		ParticipantCount: t.ParticipantCount,
		LastReplyAt:      formatTime(t.LastReplyAt),
		Category:         t.Category,
		Status:           string(t.Status),
		CreatedAt:        formatTime(t.CreatedAt),
		UpdatedAt:        formatTime(t.UpdatedAt),
	}
}

func resultsToResponse(results []domain.SearchResult) []SearchResultResponse {
	out := make([]SearchResultResponse, 0, len(results))
	for _, res := range results {
		item := SearchResultResponse{
			Type:       string(res.Type),
			Similarity: res.Similarity,
		}
		if res.Channel != nil {
			item.Channel = channelToResponse(res.Channel)
		}
		if res.Thread != nil {
			item.Thread = threadToResponse(res.Thread)
		}
		out = append(out, item)
	}
	return out
}

// Search serves POST /search. Type selects the scope: "all" (default),
// "channels", or "threads".
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit < 0 {
		api.Error(w, http.StatusBadRequest, "limit cannot be negative")
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		api.Error(w, http.StatusBadRequest, "threshold must be between 0 and 1")
		return
	}

	opts := service.SearchOptions{
		Limit:     req.Limit,
		Threshold: req.Threshold,
		ChannelID: req.ChannelID,
	}

	var results []domain.SearchResult
	var err error
	switch req.Type {
	case "", "all":
		results, err = h.svc.SearchAll(r.Context(), req.Query, opts)
	case "channels":
		results, err = h.svc.SearchChannels(r.Context(), req.Query, opts)
	case "threads":
		results, err = h.svc.SearchThreads(r.Context(), req.Query, opts)
	default:
		api.Error(w, http.StatusBadRequest, "invalid search type")
		return
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, resultsToResponse(results))
}
