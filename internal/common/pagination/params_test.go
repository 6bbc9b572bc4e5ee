package pagination_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catchup-feed/internal/common/pagination"
)

func TestParseQueryParams(t *testing.T) {
	t.Parallel()

	config := pagination.Config{
		DefaultLimit: 20,
		MaxLimit:     100,
	}

	tests := []struct {
		name      string
		query     string
		want      pagination.Params
		wantError bool
	}{
		{
			name:  "valid cursor and limit",
			query: "cursor=abc123&limit=30",
			want: pagination.Params{
				Cursor: "abc123",
				Limit:  30,
			},
		},
		{
			name:  "no parameters (use defaults)",
			query: "",
			want: pagination.Params{
				Limit: 20,
			},
		},
		{
			name:  "only cursor parameter",
			query: "cursor=xyz",
			want: pagination.Params{
				Cursor: "xyz",
				Limit:  20,
			},
		},
		{
			name:  "only limit parameter",
			query: "limit=50",
			want: pagination.Params{
				Limit: 50,
			},
		},
		{
			name:      "invalid limit (negative)",
			query:     "limit=-10",
			wantError: true,
		},
		{
			name:      "invalid limit (zero)",
			query:     "limit=0",
			wantError: true,
		},
		{
			name:      "invalid limit (exceeds max)",
			query:     "limit=101",
			wantError: true,
		},
		{
			name:      "invalid limit (non-integer)",
			query:     "limit=xyz",
			wantError: true,
		},
		{
			name:  "limit=1 (minimum valid)",
			query: "limit=1",
			want: pagination.Params{
				Limit: 1,
			},
		},
		{
			name:  "limit=100 (maximum valid)",
			query: "limit=100",
			want: pagination.Params{
				Limit: 100,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := pagination.ParseQueryParams(req, config)

			if tt.wantError {
				if err == nil {
					t.Errorf("ParseQueryParams() error = nil, wantError = true")
				}
				return
			}

			if err != nil {
				t.Errorf("ParseQueryParams() error = %v, wantError = false", err)
				return
			}

			if got.Cursor != tt.want.Cursor {
				t.Errorf("ParseQueryParams() Cursor = %q, want %q", got.Cursor, tt.want.Cursor)
			}
			if got.Limit != tt.want.Limit {
				t.Errorf("ParseQueryParams() Limit = %d, want %d", got.Limit, tt.want.Limit)
			}
		})
	}
}

func TestParseQueryParams_ErrorMessages(t *testing.T) {
	t.Parallel()

	config := pagination.Config{
		DefaultLimit: 20,
		MaxLimit:     100,
	}

	req := httptest.NewRequest(http.MethodGet, "/?limit=200", nil)
	_, err := pagination.ParseQueryParams(req, config)
	if err == nil {
		t.Fatal("ParseQueryParams() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "limit must be between 1 and 100") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "limit must be between 1 and 100")
	}
}
