// Package kv is the persisted state layer behind the collab stores. Each
// logical store keeps one JSON array per key (see keys.go), read and
// rewritten whole on every mutation. Mutations go through Store.Update so
// that writers on different instances sharing a backend cannot lose each
// other's changes.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
)

var log = logger.Named("kv")

var (
	ErrNotFound = errors.New("kv: key not found")
	ErrCorrupt  = errors.New("kv: value is not valid JSON")
	ErrConflict = errors.New("kv: too many concurrent writers")
)

const maxUpdateAttempts = 50

// UpdateFunc maps the current value at a key to its replacement. current is
// nil when the key is missing. Returning a nil value leaves the key as it is.
// An UpdateFunc may run several times for one Update, so it must only
// communicate through its return values or through state it resets on entry.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a byte-oriented key/value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Update applies fn atomically with respect to every other Update on
	// the same key, including those issued by other processes.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// retryPause sleeps a little longer on each lost race, or returns ctx's error.
func retryPause(ctx context.Context, attempt int) error {
	d := time.Duration(attempt+1) * 2 * time.Millisecond
	if d > 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LoadJSON decodes the value at key into v. It returns ErrNotFound for a
// missing key and an error wrapping ErrCorrupt when the value cannot be parsed.
func LoadJSON(ctx context.Context, s Store, key string, v interface{}) error {
	b, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

// SaveJSON encodes v and stores it at key.
func SaveJSON(ctx context.Context, s Store, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, b)
}

// ReadList loads the JSON array stored at key. A missing key yields an empty
// list; an unparseable value yields an error wrapping ErrCorrupt.
func ReadList[T any](ctx context.Context, s Store, key string) ([]T, error) {
	var list []T
	err := LoadJSON(ctx, s, key, &list)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []T{}, nil
		}
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

// UpdateList runs fn over the JSON array at key inside s.Update and writes
// the result back when fn reports a change. A value that cannot be parsed is
// handed to onCorrupt and replaced by an empty list.
func UpdateList[T any](ctx context.Context, s Store, key string, onCorrupt func(error), fn func([]T) ([]T, bool, error)) error {
	return s.Update(ctx, key, func(current []byte) ([]byte, error) {
		list := []T{}
		if current != nil {
			if err := json.Unmarshal(current, &list); err != nil {
				if onCorrupt != nil {
					onCorrupt(fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err))
				}
				list = []T{}
			}
			if list == nil {
				list = []T{}
			}
		}
		next, changed, err := fn(list)
		if err != nil || !changed {
			return nil, err
		}
		b, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		return b, nil
	})
}
