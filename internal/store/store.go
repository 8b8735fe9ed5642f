package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when no record with the requested id exists.
var ErrNotFound = errors.New("record not found")

// Record is the contract a model must satisfy to live in a Store. WithID
// returns a copy with the identifier set so the store can assign ids to
// value types without reflection.
type Record[T any] interface {
	RecordID() string
	WithID(id string) T
	SearchFields() []string
}

// Store owns one collection's in-memory ordered sequence and mirrors it to a
// single JSON file. The file holds one pretty-printed array and is rewritten
// in full after every mutation; the in-memory sequence stays authoritative
// for the process lifetime even if a write fails. Safe for concurrent use.
type Store[T Record[T]] struct {
	mu       sync.RWMutex
	path     string
	seedPath string
	items    []T
	logger   *logrus.Logger
}

// Option configures a Store.
type Option[T Record[T]] func(*Store[T])

// WithSeed sets a read-only seed file consulted when no persisted file
// exists yet. Seed entries get generated ids and are written back.
func WithSeed[T Record[T]](path string) Option[T] {
	return func(s *Store[T]) { s.seedPath = path }
}

// New creates a store backed by the JSON file at path. Call Load before use.
func New[T Record[T]](path string, logger *logrus.Logger, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		path:   path,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the backing file into memory. A missing or malformed file falls
// back to the seed file if one is configured, otherwise to an empty
// collection. Load never fails; problems are logged and degraded around.
func (s *Store[T]) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[T](s.path)
	if err == nil {
		s.items = items
		return
	}
	if !errors.Is(err, os.ErrNotExist) {
		s.logger.WithError(err).WithField("path", s.path).Warn("Could not read collection file, falling back")
	}

	// First run (or unreadable file): seed if a seed file is configured.
	if s.seedPath != "" {
		seeded, seedErr := readCollection[T](s.seedPath)
		if seedErr == nil {
			for i := range seeded {
				seeded[i] = seeded[i].WithID(NewID())
			}
			s.items = seeded
			s.persistLocked()
			s.logger.WithFields(logrus.Fields{
				"seed_path": s.seedPath,
				"count":     len(seeded),
			}).Info("Seeded collection from library file")
			return
		}
		if !errors.Is(seedErr, os.ErrNotExist) {
			s.logger.WithError(seedErr).WithField("seed_path", s.seedPath).Warn("Could not read seed file")
		}
	}

	s.items = nil
}

// Reload re-reads the backing file, replacing the in-memory sequence. Used
// when the file was modified outside the process. A read failure keeps the
// current in-memory state.
func (s *Store[T]) Reload() {
	items, err := readCollection[T](s.path)
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Reload failed, keeping in-memory state")
		return
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"path":  s.path,
		"count": len(items),
	}).Info("Collection reloaded from disk")
}

// All returns the full sequence in insertion order.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]T{}, s.items...)
}

// Len returns the number of records in the collection.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Path returns the backing file path.
func (s *Store[T]) Path() string {
	return s.path
}

// Get returns the first record whose id matches, or ErrNotFound.
func (s *Store[T]) Get(id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.RecordID() == id {
			return item, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

// Create assigns a fresh id, appends the record to the end of the sequence
// and persists the collection. The stored record is returned.
func (s *Store[T]) Create(rec T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec = rec.WithID(NewID())
	s.items = append(s.items, rec)
	s.persistLocked()
	return rec
}

// Delete removes the record with the given id, persists the collection and
// returns the removed record. Returns ErrNotFound for an unknown id.
func (s *Store[T]) Delete(id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.RecordID() == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistLocked()
			return item, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

// Search returns all records with a case-insensitive substring match of
// query in any of their search fields, in insertion order. An empty query
// returns an empty result, not the full collection.
func (s *Store[T]) Search(query string) []T {
	results := []T{}
	if query == "" {
		return results
	}
	needle := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		for _, field := range item.SearchFields() {
			if field != "" && strings.Contains(strings.ToLower(field), needle) {
				results = append(results, item)
				break
			}
		}
	}
	return results
}

// persistLocked rewrites the backing file from the in-memory sequence. The
// write is atomic (temp file + rename) so a crash mid-write keeps the
// previous snapshot intact. A failed write is logged and swallowed: the
// in-memory state remains authoritative and callers observe the mutation as
// successful. That mirrors the service's documented persistence policy.
func (s *Store[T]) persistLocked() {
	items := s.items
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Error("Failed to encode collection")
		return
	}

	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Error("Failed to persist collection")
	}
}

// readCollection parses one JSON array file into records.
func readCollection[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return items, nil
}
