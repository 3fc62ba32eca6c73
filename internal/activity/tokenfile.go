package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/stridestats/stridestats/internal/models"
)

// FileTokenStore persists athlete OAuth tokens as JSON files under the data
// directory, used in filesystem storage mode where no database is available.
type FileTokenStore struct {
	mu      sync.Mutex
	dataDir string
}

// NewFileTokenStore creates a token store rooted at dataDir.
func NewFileTokenStore(dataDir string) *FileTokenStore {
	return &FileTokenStore{dataDir: dataDir}
}

func (s *FileTokenStore) path(athleteID int64) string {
	return filepath.Join(s.dataDir, strconv.FormatInt(athleteID, 10), "token.json")
}

// Get returns the athlete's token record, or nil when absent.
func (s *FileTokenStore) Get(ctx context.Context, athleteID int64) (*models.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(athleteID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var token models.TokenRecord
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decoding token file: %w", err)
	}
	return &token, nil
}

// Store saves the token record, replacing any previous one.
func (s *FileTokenStore) Store(ctx context.Context, token models.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(token.AthleteID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}
	return nil
}
