// Package dismissed persists the set of item IDs a user has dismissed, with
// a 30-day TTL enforced on load. The file is a single JSON map keyed by item
// ID, atomically replaced on every write (write-to-temp + rename), and
// cross-process writes are coordinated with a flock sidecar.
package dismissed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/resilience/retry"

	"github.com/gofrs/flock"
)

// Store loads, prunes, and appends a user's dismissal record. One Store
// instance owns one file; concurrent Add calls from the same process
// serialize via mu, matching a different process's concurrent writer is not
// guaranteed (last-writer-wins is acceptable per the file's guarantees).
type Store struct {
	path string
	ttl  time.Duration
	mu   sync.Mutex

	warnOnce sync.Once
}

// New returns a Store backed by path, using entity.DismissedTTL unless ttl
// overrides it (ttl <= 0 keeps the default).
func New(path string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = entity.DismissedTTL
	}
	return &Store{path: path, ttl: ttl}
}

// Load reads the persisted record, drops entries older than the TTL, writes
// the pruned form back if anything was removed, and returns the resulting
// set. A missing or corrupt file is treated as empty and logged once per
// process, never returned as an error.
func (s *Store) Load(ctx context.Context) entity.DismissedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.readLocked()
	if !ok {
		return entity.DismissedRecord{}
	}

	pruned := record.Prune(time.Now(), s.ttl)
	if len(pruned) != len(record) {
		if err := s.writeLocked(ctx, pruned); err != nil {
			slog.Warn("dismissed store: failed writing pruned record", slog.Any("error", err))
		}
	}
	return pruned
}

// Add merges ids into the record with the current time as their dismissal
// timestamp and writes the result back atomically.
func (s *Store) Add(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, _ := s.readLocked()
	if record == nil {
		record = entity.DismissedRecord{}
	}
	now := time.Now().Unix()
	for _, id := range ids {
		record[id] = now
	}

	return s.writeLocked(ctx, record)
}

func (s *Store) readLocked() (entity.DismissedRecord, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.warnOnce.Do(func() {
				slog.Warn("dismissed store: file unreadable, treating as empty", slog.String("path", s.path), slog.Any("error", err))
			})
		}
		return entity.DismissedRecord{}, false
	}

	var record entity.DismissedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.warnOnce.Do(func() {
			slog.Warn("dismissed store: file corrupt, treating as empty", slog.String("path", s.path), slog.Any("error", err))
		})
		return entity.DismissedRecord{}, false
	}
	return record, true
}

// writeLocked atomically persists record: write to a temp file in the same
// directory, fsync, then rename over the target. A cross-process flock
// guards the rename window against a concurrent writer in another process.
func (s *Store) writeLocked(ctx context.Context, record entity.DismissedRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dismissed store directory: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling dismissed record: %w", err)
	}

	return retry.WithBackoff(ctx, retry.DismissedWriteConfig(), func() error {
		return s.atomicWrite(data)
	})
}

func (s *Store) atomicWrite(data []byte) error {
	fl := flock.New(s.path + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquiring dismissed store lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file into place: %w", err)
	}
	return nil
}
