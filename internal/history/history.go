// Package history keeps the bounded, newest-first list of past image
// analyses and persists it through a kv.Store.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperengineering/foodlens/internal/kv"
	"github.com/hyperengineering/foodlens/internal/types"
	"github.com/oklog/ulid/v2"
)

const (
	// Capacity is the maximum number of retained entries.
	Capacity = 20

	// StorageKey is the kv key holding the persisted list.
	StorageKey = "history"

	// SchemaVersion tags the persisted envelope.
	SchemaVersion = 1
)

// ErrNotFound is returned when no entry has the requested ID.
var ErrNotFound = errors.New("history entry not found")

// envelope is the persisted layout.
type envelope struct {
	Version int                  `json:"version"`
	Entries []types.HistoryEntry `json:"entries"`
}

// Store is the history store. RecordSuccess is the only mutator.
type Store struct {
	kv kv.Store

	mu      sync.RWMutex
	entries []types.HistoryEntry
}

// NewStore returns an empty Store backed by kv. Call Load to read persisted entries.
func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// NewEntry builds a HistoryEntry with a fresh ULID.
func NewEntry(image string, record types.FoodRecord, now time.Time) types.HistoryEntry {
	return types.HistoryEntry{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Timestamp: now.UnixMilli(),
		Image:     image,
		Record:    record,
	}
}

// Load reads the persisted list. Missing or corrupt data yields an empty
// list; the failure is logged and never returned.
func (s *Store) Load(ctx context.Context) []types.HistoryEntry {
	entries := s.read(ctx)

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	slog.Info("history loaded",
		"component", "history",
		"action", "load",
		"count", len(entries),
	)
	return s.Get()
}

func (s *Store) read(ctx context.Context) []types.HistoryEntry {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		slog.Warn("history unreadable, starting empty",
			"component", "history",
			"action", "load_failed",
			"error", err,
		)
		return nil
	}
	if !ok {
		return nil
	}

	entries, err := decode(raw)
	if err != nil {
		slog.Warn("history corrupt, starting empty",
			"component", "history",
			"action", "load_corrupt",
			"error", err,
		)
		return nil
	}
	return entries
}

// decode accepts the versioned envelope and the older bare-array layout.
func decode(raw string) ([]types.HistoryEntry, error) {
	var doc json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}

	var entries []types.HistoryEntry
	if len(doc) > 0 && doc[0] == '[' {
		if err := json.Unmarshal(doc, &entries); err != nil {
			return nil, fmt.Errorf("parse legacy history: %w", err)
		}
	} else {
		var env envelope
		if err := json.Unmarshal(doc, &env); err != nil {
			return nil, fmt.Errorf("parse history envelope: %w", err)
		}
		if env.Version != SchemaVersion {
			return nil, fmt.Errorf("unsupported history version %d", env.Version)
		}
		entries = env.Entries
	}

	if len(entries) > Capacity {
		entries = entries[:Capacity]
	}
	return entries, nil
}

// RecordSuccess prepends entry, keeps the newest Capacity entries and
// persists the whole list in one write. On a persistence error the
// in-memory list is left unchanged.
func (s *Store) RecordSuccess(ctx context.Context, entry types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries) + 1
	if n > Capacity {
		n = Capacity
	}
	next := make([]types.HistoryEntry, 0, n)
	next = append(next, entry.Clone())
	next = append(next, s.entries[:n-1]...)

	data, err := json.Marshal(envelope{Version: SchemaVersion, Entries: next})
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}

	s.entries = next
	slog.Info("history entry recorded",
		"component", "history",
		"action", "record",
		"entry_id", entry.ID,
		"count", len(next),
	)
	return nil
}

// Get returns a deep copy of the current list, newest first.
func (s *Store) Get() []types.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.HistoryEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Find returns the entry with the given ID.
func (s *Store) Find(id string) (types.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e.Clone(), nil
		}
	}
	return types.HistoryEntry{}, ErrNotFound
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
