package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// FileStore keeps the metadata mapping in a local JSON file, for local runs
// and harvest dumps.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a store backed by the given file.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load returns the stored mapping, or an empty one when the file is missing
// or not valid JSON.
func (s *FileStore) Load(_ context.Context) Mapping {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("account metadata unavailable, continuing without it", "path", s.path, "error", err)
		return Mapping{}
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("parse account metadata", "path", s.path, "error", err)
		return Mapping{}
	}
	if m == nil {
		m = Mapping{}
	}

	return m
}

// Save writes the mapping as indented JSON.
func (s *FileStore) Save(_ context.Context, m Mapping) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal account metadata: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write account metadata file %s: %w", s.path, err)
	}

	return nil
}
