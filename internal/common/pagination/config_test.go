package pagination_test

import (
	"testing"

	"catchup-feed/internal/common/pagination"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := pagination.DefaultConfig()

	if config.DefaultLimit != 20 {
		t.Errorf("DefaultConfig() DefaultLimit = %d, want 20", config.DefaultLimit)
	}
	if config.MaxLimit != 100 {
		t.Errorf("DefaultConfig() MaxLimit = %d, want 100", config.MaxLimit)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("with all env vars set", func(t *testing.T) {
		t.Setenv("FEED_SCROLL_DEFAULT_LIMIT", "30")
		t.Setenv("FEED_SCROLL_MAX_LIMIT", "200")

		config := pagination.LoadFromEnv()

		if config.DefaultLimit != 30 {
			t.Errorf("LoadFromEnv() DefaultLimit = %d, want 30", config.DefaultLimit)
		}
		if config.MaxLimit != 200 {
			t.Errorf("LoadFromEnv() MaxLimit = %d, want 200", config.MaxLimit)
		}
	})

	t.Run("with no env vars (fallback to defaults)", func(t *testing.T) {
		t.Setenv("FEED_SCROLL_DEFAULT_LIMIT", "")
		t.Setenv("FEED_SCROLL_MAX_LIMIT", "")

		config := pagination.LoadFromEnv()

		if config.DefaultLimit != 20 {
			t.Errorf("LoadFromEnv() DefaultLimit = %d, want 20 (default)", config.DefaultLimit)
		}
		if config.MaxLimit != 100 {
			t.Errorf("LoadFromEnv() MaxLimit = %d, want 100 (default)", config.MaxLimit)
		}
	})

	t.Run("with invalid env vars (fallback to defaults)", func(t *testing.T) {
		t.Setenv("FEED_SCROLL_DEFAULT_LIMIT", "abc")
		t.Setenv("FEED_SCROLL_MAX_LIMIT", "xyz")

		config := pagination.LoadFromEnv()

		if config.DefaultLimit != 20 {
			t.Errorf("LoadFromEnv() DefaultLimit = %d, want 20 (default on invalid)", config.DefaultLimit)
		}
		if config.MaxLimit != 100 {
			t.Errorf("LoadFromEnv() MaxLimit = %d, want 100 (default on invalid)", config.MaxLimit)
		}
	})

	t.Run("with partial env vars", func(t *testing.T) {
		t.Setenv("FEED_SCROLL_DEFAULT_LIMIT", "40")
		t.Setenv("FEED_SCROLL_MAX_LIMIT", "")

		config := pagination.LoadFromEnv()

		if config.DefaultLimit != 40 {
			t.Errorf("LoadFromEnv() DefaultLimit = %d, want 40", config.DefaultLimit)
		}
		if config.MaxLimit != 100 {
			t.Errorf("LoadFromEnv() MaxLimit = %d, want 100 (default)", config.MaxLimit)
		}
	})
}
