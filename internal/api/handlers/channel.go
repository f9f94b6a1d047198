package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloudlark/slackbase/internal/api"
	"github.com/cloudlark/slackbase/internal/domain"
)

type ChannelGetter interface {
	GetByChannelID(ctx context.Context, channelID string) (*domain.Channel, error)
}

type ChannelHandler struct {
	getter ChannelGetter
}

func NewChannelHandler(getter ChannelGetter) *ChannelHandler {
	return &ChannelHandler{getter: getter}
}

// Get serves GET /channels/{channelID}, keyed by the external channel
// identifier.
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	if channelID == "" {
		api.Error(w, http.StatusBadRequest, "channelID is required")
		return
	}

	channel, err := h.getter.GetByChannelID(r.Context(), channelID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, channelToResponse(channel))
}
