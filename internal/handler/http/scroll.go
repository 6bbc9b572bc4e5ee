package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"catchup-feed/internal/common/pagination"
	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/handler/http/respond"

	"github.com/google/uuid"
)

// PoolManager is the subset of *pool.Manager the scroll handlers need.
type PoolManager interface {
	GetBatch(ctx context.Context, key entity.SessionKey, filter entity.Filter, cursor *int64) (entity.Batch, []entity.Warning)
	Dismiss(ctx context.Context, userID string, itemIDs []string) (int, error)
}

// FilterResolver is the subset of *resolver.Resolver the scroll handler
// needs.
type FilterResolver interface {
	Resolve(expr string) entity.Filter
}

// ScrollHandler serves GET /feed/sessions/{id}/scroll. {id} is the session
// ID; the user is identified by the X-User-ID header until an
// authentication layer is wired in front of it.
//
// ResolverFor is called once per request because a Resolver's known source
// types, query names, and aliases are scoped to one user's loaded recipe
// and query configs.
type ScrollHandler struct {
	Pool          PoolManager
	ResolverFor   func(userID string) FilterResolver
	PaginationCfg pagination.Config
}

type scrollResponse struct {
	Items      []entity.FeedItem `json:"items"`
	NextCursor string            `json:"nextCursor"`
	HasMore    bool              `json:"hasMore"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// ServeHTTP resolves the filter expression, decodes the cursor, calls the
// Pool Manager, and re-encodes its offset cursor as an opaque token.
func (h *ScrollHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		respond.Error(w, http.StatusUnauthorized, errors.New("X-User-ID header is required"))
		return
	}
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respond.Error(w, http.StatusBadRequest, errors.New("session id is required"))
		return
	}

	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	var cursor *int64
	if params.Cursor != "" {
		offset, err := pagination.DecodeCursor(params.Cursor)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err)
			return
		}
		cursor = &offset
	}

	filter := entity.Filter{}
	if h.ResolverFor != nil {
		if resolver := h.ResolverFor(userID); resolver != nil {
			filter = resolver.Resolve(r.URL.Query().Get("filter"))
		}
	}

	key := entity.SessionKey{UserID: userID, SessionID: sessionID}
	batch, warnings := h.Pool.GetBatch(r.Context(), key, filter, cursor)

	meta := pagination.CursorStrategy{}.BuildMetadata(batch.NextCursor, batch.HasMore)
	resp := scrollResponse{
		Items:      batch.Items,
		NextCursor: meta.NextCursor,
		HasMore:    meta.HasMore,
	}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, warn.Kind+": "+warn.Message)
	}

	pagination.RecordDuration("handler", time.Since(start).Seconds())
	pagination.RecordRequest(http.StatusOK, batch.HasMore)
	respond.JSON(w, http.StatusOK, resp)
}

type dismissRequest struct {
	ItemIDs []string `json:"itemIds"`
}

// DismissHandler serves POST /feed/sessions/{id}/dismiss.
type DismissHandler struct {
	Pool PoolManager
}

func (h *DismissHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		respond.Error(w, http.StatusUnauthorized, errors.New("X-User-ID header is required"))
		return
	}

	var req dismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if len(req.ItemIDs) == 0 {
		respond.Error(w, http.StatusBadRequest, errors.New("itemIds must not be empty"))
		return
	}

	count, err := h.Pool.Dismiss(r.Context(), userID, req.ItemIDs)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]int{"dismissed": count})
}

// NewSessionID generates an opaque session identifier for clients that
// don't maintain their own, e.g. on first visit before any session cookie
// exists.
func NewSessionID() string {
	return uuid.NewString()
}
