package repository

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no row has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidID is returned for ids that cannot be used as a file name.
	ErrInvalidID = errors.New("invalid id")
)

// Record is a row as seen by the REST layer: column name to value.
type Record map[string]interface{}

// Repository is the storage contract behind one CRUD endpoint.
type Repository interface {
	FindAll(ctx context.Context) ([]Record, error)
	FindByID(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, body Record) (Record, error)
	Update(ctx context.Context, id string, body Record) (Record, error)
	Delete(ctx context.Context, id string) error
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the value at key as a string, or "" when absent or nil.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
