// Package memory provides an in-process capture store.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/nfs4probe/pkg/capture"
)

// Store keeps capture records in a map. Contents are lost on exit.
type Store struct {
	mu      sync.RWMutex
	records map[string]*capture.Record
}

// New returns an empty memory store.
func New() *Store {
	return &Store{records: make(map[string]*capture.Record)}
}

// Save stores a copy of the record.
func (s *Store) Save(ctx context.Context, rec *capture.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := capture.ValidateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = clone(rec)
	return nil
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*capture.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := capture.ValidateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, capture.NotFound(id)
	}
	return clone(rec), nil
}

// List returns copies of every record, oldest first.
func (s *Store) List(ctx context.Context) ([]*capture.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]*capture.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, clone(rec))
	}
	s.mu.RUnlock()

	capture.SortByTime(out)
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// clone makes sure callers never share byte slices with the store.
func clone(rec *capture.Record) *capture.Record {
	c := *rec
	c.Request = append([]byte(nil), rec.Request...)
	if rec.Response != nil {
		c.Response = append([]byte(nil), rec.Response...)
	}
	return &c
}
