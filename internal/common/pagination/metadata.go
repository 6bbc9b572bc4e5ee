package pagination

// Metadata contains scroll pagination metadata included in API responses.
type Metadata struct {
	NextCursor string `json:"nextCursor"` // Opaque cursor to request the next batch
	HasMore    bool   `json:"hasMore"`    // Whether more items remain in the pool
}
