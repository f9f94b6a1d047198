package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cloudlark/slackbase/internal/api"
	"github.com/cloudlark/slackbase/internal/domain"
	"github.com/cloudlark/slackbase/internal/pagination"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type ThreadLister interface {
	ListByCategoryWithCursor(ctx context.Context, category string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Thread], error)
}

type ThreadHandler struct {
	lister ThreadLister
}

func NewThreadHandler(lister ThreadLister) *ThreadHandler {
	return &ThreadHandler{lister: lister}
}

type ThreadListResponse struct {
	Items   []*ThreadResponse `json:"items"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

// List serves GET /threads with optional category, cursor and limit query
// parameters. Threads come back newest first.
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if parsed > maxListLimit {
			parsed = maxListLimit
		}
		limit = parsed
	}

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			api.Error(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		api.HandleError(w, err)
		return
	}

	page, err := h.lister.ListByCategoryWithCursor(r.Context(), r.URL.Query().Get("category"), cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ThreadResponse, 0, len(page.Items))
	for _, t := range page.Items {
		items = append(items, threadToResponse(t))
	}

	api.Success(w, http.StatusOK, ThreadListResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}
