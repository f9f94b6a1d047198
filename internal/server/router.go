package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloudlark/slackbase/internal/api"
	"github.com/cloudlark/slackbase/internal/api/handlers"
	"github.com/cloudlark/slackbase/internal/api/middleware"
)

type RouterConfig struct {
	SearchHandler  *handlers.SearchHandler
	StatsHandler   *handlers.StatsHandler
	ThreadHandler  *handlers.ThreadHandler
	ChannelHandler *handlers.ChannelHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/search", cfg.SearchHandler.Search)
	r.Get("/stats", cfg.StatsHandler.Get)
	r.Get("/threads", cfg.ThreadHandler.List)
	r.Get("/channels/{channelID}", cfg.ChannelHandler.Get)

	return r
}
