// Package capture persists request/response exchanges so probe rounds can be
// inspected or replayed after the fact.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Store types accepted by the capture.type setting.
const (
	TypeNone       = "none"
	TypeMemory     = "memory"
	TypeFilesystem = "filesystem"
	TypeBadger     = "badger"
	TypeS3         = "s3"
)

var (
	// ErrNotFound is returned when no capture exists for the requested id.
	ErrNotFound = errors.New("capture not found")

	// ErrInvalidID is returned when an id is not a valid UUID.
	ErrInvalidID = errors.New("invalid capture id")
)

// Record is one captured exchange with a server.
type Record struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Server    string        `json:"server"`
	XID       uint32        `json:"xid"`
	Operation string        `json:"operation"`
	Request   []byte        `json:"request"`
	Response  []byte        `json:"response,omitempty"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// NewRecord returns a record stamped with a fresh id and the current time.
func NewRecord(server string, xid uint32, operation string, request []byte) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Server:    server,
		XID:       xid,
		Operation: operation,
		Request:   request,
	}
}

// Complete fills in the outcome of the exchange.
func (r *Record) Complete(response []byte, duration time.Duration, err error) {
	r.Response = response
	r.Duration = duration
	if err != nil {
		r.Error = err.Error()
	}
}

// Failed reports whether the exchange ended in an error.
func (r *Record) Failed() bool {
	return r.Error != ""
}

// Store persists capture records.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores the record, replacing any record with the same id.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns every stored record ordered by timestamp, oldest first.
	List(ctx context.Context) ([]*Record, error)

	// Close releases resources held by the store.
	Close() error
}

// ValidateID checks that id is a canonical UUID.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidID, id, err)
	}
	return nil
}

// ValidateRecord checks the fields every store relies on.
func ValidateRecord(rec *Record) error {
	if rec == nil {
		return errors.New("capture record is nil")
	}
	return ValidateID(rec.ID)
}

// NotFound wraps ErrNotFound with the id that was requested.
func NotFound(id string) error {
	return fmt.Errorf("capture %s: %w", id, ErrNotFound)
}

// SortByTime orders records oldest first, breaking ties by id.
func SortByTime(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].ID < records[j].ID
		}
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
