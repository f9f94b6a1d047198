package handlers

import (
	"context"
	"net/http"

	"github.com/cloudlark/slackbase/internal/api"
	"github.com/cloudlark/slackbase/internal/domain"
)

type StatsProvider interface {
	Stats(ctx context.Context) (*domain.Stats, error)
}

type StatsHandler struct {
	provider StatsProvider
}

func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

type StatsResponse struct {
	TotalChannels         int            `json:"total_channels"`
	ChannelsWithEmbedding int            `json:"channels_with_embedding"`
	TotalThreads          int            `json:"total_threads"`
	ThreadsWithEmbedding  int            `json:"threads_with_embedding"`
	ThreadsByCategory     map[string]int `json:"threads_by_category"`
}

// Get serves GET /stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.provider.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StatsResponse{
		TotalChannels:         stats.TotalChannels,
		ChannelsWithEmbedding: stats.ChannelsWithEmbedding,
		TotalThreads:          stats.TotalThreads,
		ThreadsWithEmbedding:  stats.ThreadsWithEmbedding,
		ThreadsByCategory:     stats.ThreadsByCategory,
	})
}
