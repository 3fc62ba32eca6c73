package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/stridestats/stridestats/internal/models"
)

// Store is a key-value artifact cache. Writes are whole-value overwrites;
// last write wins. Get returns (nil, nil) for an absent key; the read path
// treats absence as "show empty state", not as an error.
type Store interface {
	Exists(ctx context.Context, key Key) (bool, error)
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, data []byte) error

	// DeleteAll removes every cached artifact for the athlete and tier.
	DeleteAll(ctx context.Context, athleteID int64, tier models.Tier) error
}

// FSStore stores artifacts as files under a root directory, one file per key.
// Used in local/filesystem mode where artifacts survive process restarts and
// data is treated as always available.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at root.
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) path(key Key) string {
	return filepath.Join(s.root, fmt.Sprintf("%d", key.AthleteID), string(key.Tier), key.Name+".json")
}

// Exists reports whether the artifact is cached.
func (s *FSStore) Exists(ctx context.Context, key Key) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking artifact %s: %w", key, err)
}

// Get reads the cached artifact, or (nil, nil) when absent.
func (s *FSStore) Get(ctx context.Context, key Key) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading artifact %s: %w", key, err)
	}
	return data, nil
}

// Put writes the artifact, replacing any previous value.
func (s *FSStore) Put(ctx context.Context, key Key, data []byte) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", key, err)
	}
	return nil
}

// DeleteAll removes every artifact for the athlete and tier.
func (s *FSStore) DeleteAll(ctx context.Context, athleteID int64, tier models.Tier) error {
	dir := filepath.Join(s.root, fmt.Sprintf("%d", athleteID), string(tier))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting artifacts for athlete %d: %w", athleteID, err)
	}
	return nil
}

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Key][]byte)}
}

// Exists reports whether the artifact is cached.
func (s *MemoryStore) Exists(ctx context.Context, key Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

// Get reads the cached artifact, or (nil, nil) when absent.
func (s *MemoryStore) Get(ctx context.Context, key Key) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key], nil
}

// Put writes the artifact.
func (s *MemoryStore) Put(ctx context.Context, key Key, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

// DeleteAll removes every artifact for the athlete and tier.
func (s *MemoryStore) DeleteAll(ctx context.Context, athleteID int64, tier models.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.data {
		if key.AthleteID == athleteID && key.Tier == tier {
			delete(s.data, key)
		}
	}
	return nil
}

// Len returns the number of stored artifacts. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
