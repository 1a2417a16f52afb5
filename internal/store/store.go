// Package store implements the durable push subscription set.
//
// Subscriptions are keyed by endpoint and persisted as a JSON array that is
// rewritten wholesale on every mutation. Loading tolerates a missing or
// corrupt file by starting empty - losing subscriptions is recoverable
// (browsers re-subscribe), crashing at startup is not.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"notifyd/internal/domain"
	"notifyd/internal/metrics"
)

// Store is a file-backed subscription set. All mutations are serialized
// behind a single mutex, including the file rewrite, so concurrent requests
// cannot interleave read-modify-write cycles.
type Store struct {
	mu            sync.Mutex
	path          string
	subscriptions map[string]domain.Subscription
}

// New creates a store backed by the JSON file at path and loads any existing
// subscriptions from it. A missing or unreadable file yields an empty store.
func New(path string) *Store {
	s := &Store{
		path:          path,
		subscriptions: make(map[string]domain.Subscription),
	}
	s.load()
	metrics.PushSubscribers.Set(float64(len(s.subscriptions)))
	return s
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to read subscriptions file, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var subs []domain.Subscription
	if err := json.Unmarshal(raw, &subs); err != nil {
		slog.Warn("Subscriptions file is corrupt, starting empty", "path", s.path, "error", err)
		return
	}

	for _, sub := range subs {
		if sub.Endpoint == "" {
			continue
		}
		s.subscriptions[sub.Endpoint] = sub
	}
	slog.Info("Loaded subscriptions", "path", s.path, "count", len(s.subscriptions))
}

// Add inserts or overwrites a subscription by endpoint and rewrites the
// backing file. Returns domain.ErrInvalidSubscription for an empty endpoint.
func (s *Store) Add(sub domain.Subscription) error {
	if sub.Endpoint == "" {
		return domain.ErrInvalidSubscription
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions[sub.Endpoint] = sub
	return s.persistLocked()
}

// Remove deletes a subscription if present. Removing an unknown endpoint is
// a no-op and does not touch the file.
func (s *Store) Remove(endpoint string) error {
	return s.RemoveBatch([]string{endpoint})
}

// RemoveBatch deletes every listed endpoint that is present. The backing
// file is rewritten at most once, no matter how many endpoints were removed.
func (s *Store) RemoveBatch(endpoints []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	for _, endpoint := range endpoints {
		if _, ok := s.subscriptions[endpoint]; ok {
			delete(s.subscriptions, endpoint)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	return s.persistLocked()
}

// All returns a snapshot of the current subscription set. The order is
// unspecified and the snapshot is not stable across concurrent mutation.
func (s *Store) All() []domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]domain.Subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		subs = append(subs, sub)
	}
	return subs
}

// Count returns the number of stored subscriptions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscriptions)
}

// persistLocked rewrites the whole file. Write-then-rename keeps a crashed
// write from truncating the previous state. Caller must hold s.mu.
func (s *Store) persistLocked() error {
	subs := make([]domain.Subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		subs = append(subs, sub)
	}

	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subscriptions: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create subscriptions directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".subscriptions-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp subscriptions file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write subscriptions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp subscriptions file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace subscriptions file: %w", err)
	}

	metrics.PushSubscribers.Set(float64(len(s.subscriptions)))
	return nil
}
