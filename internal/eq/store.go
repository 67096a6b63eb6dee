package eq

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the generic-mode band list as a JSON file. The list is
// read once at startup and rewritten on every mutation and on reset,
// mirroring the durable local storage of the original front-end.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted band list. A missing file is not an error: the
// factory defaults are returned (and not yet written).
func (s *Store) Load() ([]Band, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultBands(), nil
		}
		return nil, fmt.Errorf("read bands: %w", err)
	}

	var bands []Band
	if err := json.Unmarshal(data, &bands); err != nil {
		return nil, fmt.Errorf("parse bands: %w", err)
	}
	if len(bands) == 0 {
		return DefaultBands(), nil
	}
	for i, b := range bands {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("persisted band %d: %w", i, err)
		}
	}
	return bands, nil
}

// Save rewrites the persisted band list.
func (s *Store) Save(bands []Band) error {
	data, err := json.MarshalIndent(bands, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bands: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create bands dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write bands: %w", err)
	}
	return nil
}

// Reset rewrites the store with the factory defaults and returns them.
func (s *Store) Reset() ([]Band, error) {
	bands := DefaultBands()
	if err := s.Save(bands); err != nil {
		return nil, err
	}
	return bands, nil
}
