package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

// Params represents scroll pagination query parameters from an HTTP request.
type Params struct {
	Cursor string // Opaque cursor from the previous response, empty for the first page
	Limit  int    // Items per batch
}

// ParseQueryParams parses scroll pagination parameters from an HTTP
// request's query string. Returns Params with defaults if parameters are
// missing, and an error if limit is out of range.
//
// Query parameters:
//   - cursor: opaque token from a previous response's nextCursor, omit for the first page
//   - limit: items per batch (must be between 1 and config.MaxLimit)
func ParseQueryParams(r *http.Request, config Config) (Params, error) {
	params := Params{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  config.DefaultLimit,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > config.MaxLimit {
			return params, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", config.MaxLimit)
		}
		params.Limit = limit
	}

	return params, nil
}
