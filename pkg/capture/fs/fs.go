// Package fs stores each capture record as a JSON file in a directory.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/nfs4probe/pkg/capture"
)

const recordExt = ".json"

// Config configures the filesystem capture store.
type Config struct {
	Path string `mapstructure:"path" validate:"required"`
}

// Store writes one <id>.json file per record under a base directory.
type Store struct {
	basePath string
}

// New creates the base directory if needed and returns a store rooted at it.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, errors.New("filesystem capture path is required")
	}

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	return &Store{basePath: cfg.Path}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.basePath, id+recordExt)
}

// Save writes the record to a temporary file and renames it into place.
func (s *Store) Save(ctx context.Context, rec *capture.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := capture.ValidateRecord(rec); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal capture %s: %w", rec.ID, err)
	}

	tmp, err := os.CreateTemp(s.basePath, rec.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write capture %s: %w", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close capture %s: %w", rec.ID, err)
	}

	if err := os.Rename(tmpName, s.path(rec.ID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to store capture %s: %w", rec.ID, err)
	}
	return nil
}

// Get reads the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*capture.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := capture.ValidateID(id); err != nil {
		return nil, err
	}
	return s.read(s.path(id), id)
}

// List reads every record in the directory, oldest first.
func (s *Store) List(ctx context.Context) ([]*capture.Record, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture directory: %w", err)
	}

	var out []*capture.Record
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		id := strings.TrimSuffix(name, recordExt)
		if capture.ValidateID(id) != nil {
			continue
		}

		rec, err := s.read(filepath.Join(s.basePath, name), id)
		if err != nil {
			// Removed between ReadDir and open.
			if errors.Is(err, capture.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}

	capture.SortByTime(out)
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) read(path, id string) (*capture.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, capture.NotFound(id)
		}
		return nil, fmt.Errorf("failed to read capture %s: %w", id, err)
	}

	var rec capture.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode capture %s: %w", id, err)
	}
	return &rec, nil
}
