package pagination

// Strategy calculates the next page of a cursor-based scroll and builds the
// metadata returned alongside it. The pool manager is the only query
// backend scroll pagination talks to, so CursorStrategy is the sole
// implementation.
type Strategy interface {
	// NextQuery decodes params into the offset the pool manager should
	// resume from.
	NextQuery(params Params) (offset int64, limit int, err error)

	// BuildMetadata encodes the pool's next offset into the opaque
	// cursor returned to the client.
	BuildMetadata(nextOffset int64, hasMore bool) Metadata
}

// CursorStrategy implements opaque-cursor pagination atop the pool
// manager's int64 offsets.
type CursorStrategy struct{}

// NextQuery decodes params.Cursor into the offset to resume from.
func (s CursorStrategy) NextQuery(params Params) (int64, int, error) {
	offset, err := DecodeCursor(params.Cursor)
	if err != nil {
		return 0, 0, err
	}
	return offset, params.Limit, nil
}

// BuildMetadata encodes nextOffset as an opaque cursor.
func (s CursorStrategy) BuildMetadata(nextOffset int64, hasMore bool) Metadata {
	return Metadata{
		NextCursor: EncodeCursor(nextOffset),
		HasMore:    hasMore,
	}
}
