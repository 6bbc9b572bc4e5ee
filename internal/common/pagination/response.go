package pagination

// Response is a generic scroll response wrapper.
// T is the type of data items (e.g., entity.FeedItem).
//
// Example usage:
//
//	response := pagination.NewResponse(items, metadata)
//	// response is of type pagination.Response[entity.FeedItem]
type Response[T any] struct {
	Data       []T      `json:"items"`      // Items in the current batch
	Pagination Metadata `json:"pagination"` // Scroll metadata (nextCursor, hasMore)
}

// NewResponse creates a new scroll response with data and metadata.
func NewResponse[T any](data []T, metadata Metadata) Response[T] {
	return Response[T]{
		Data:       data,
		Pagination: metadata,
	}
}
