// Package badger stores capture records in an embedded BadgerDB.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/nfs4probe/pkg/capture"
)

// Key layout
//
// Data Type   Prefix   Key Format    Value Type
// ==============================================
// Capture     "c:"     c:<uuid>      Record (JSON)
const prefixCapture = "c:"

func keyCapture(id string) []byte {
	return []byte(prefixCapture + id)
}

// Config configures the badger capture store.
type Config struct {
	DBPath string `mapstructure:"db_path" validate:"required"`

	// BadgerOptions overrides every other setting when non-nil.
	BadgerOptions *badger.Options
}

// Store persists capture records in BadgerDB.
type Store struct {
	db *badger.DB
}

// New opens (or creates) the database at cfg.DBPath.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.BadgerOptions != nil {
		opts = *cfg.BadgerOptions
	} else {
		if cfg.DBPath == "" {
			return nil, errors.New("badger capture db_path is required")
		}
		opts = badger.DefaultOptions(cfg.DBPath)
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None) // records are small
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	return &Store{db: db}, nil
}

// Save writes the record under its id.
func (s *Store) Save(ctx context.Context, rec *capture.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := capture.ValidateRecord(rec); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal capture %s: %w", rec.ID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyCapture(rec.ID), data)
	})
}

// Get loads the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*capture.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := capture.ValidateID(id); err != nil {
		return nil, err
	}

	var rec capture.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyCapture(id))
		if err == badger.ErrKeyNotFound {
			return capture.NotFound(id)
		}
		if err != nil {
			return fmt.Errorf("failed to get capture %s: %w", id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List scans every capture key and returns the records oldest first.
func (s *Store) List(ctx context.Context) ([]*capture.Record, error) {
	var out []*capture.Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(prefixCapture)

		it := txn.NewIterator(opts)
		defer it.Close()

		n := 0
		for it.Rewind(); it.Valid(); it.Next() {
			// Check context periodically
			if n%100 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			n++

			item := it.Item()
			var rec capture.Record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("failed to decode capture %s: %w", item.Key(), err)
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	capture.SortByTime(out)
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
