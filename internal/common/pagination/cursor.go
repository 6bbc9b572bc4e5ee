package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// EncodeCursor wraps a pool offset as an opaque token. Callers outside this
// package must treat the result as opaque and round-trip it through
// DecodeCursor rather than parsing it.
func EncodeCursor(offset int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(offset, 10)))
}

// DecodeCursor recovers the pool offset from a token produced by
// EncodeCursor. An empty token decodes to offset 0 (start of the pool).
func DecodeCursor(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	offset, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	if offset < 0 {
		return 0, fmt.Errorf("invalid cursor: negative offset")
	}
	return offset, nil
}
