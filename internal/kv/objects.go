package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/legalmind/legalmind/backend/go-services/internal/storage"
)

// ObjectStore keeps each key as a JSON object in a MinIO bucket. The bucket
// has no conditional write, so Update holds a lease from locks around the
// read-modify-write.
type ObjectStore struct {
	objects *storage.MinIOStorage
	prefix  string
	locks   Locker
}

// NewObjectStore creates a bucket-backed store. A nil locks serializes
// updates within this process only.
func NewObjectStore(objects *storage.MinIOStorage, prefix string, locks Locker) *ObjectStore {
	if prefix == "" {
		prefix = "collab"
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &ObjectStore{objects: objects, prefix: prefix, locks: locks}
}

func (o *ObjectStore) objectKey(key string) string {
	return path.Join(o.prefix, key+".json")
}

func (o *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := o.objects.DownloadFile(ctx, o.objectKey(key))
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (o *ObjectStore) Put(ctx context.Context, key string, value []byte) error {
	return o.objects.UploadFile(ctx, o.objectKey(key), bytes.NewReader(value), int64(len(value)), "application/json")
}

func (o *ObjectStore) Delete(ctx context.Context, key string) error {
	err := o.objects.RemoveFile(ctx, o.objectKey(key))
	if err != nil && storage.IsNotExist(err) {
		return nil
	}
	return err
}

func (o *ObjectStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	release, err := o.locks.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("lease %s: %w", key, err)
	}
	defer release()

	current, err := o.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		current = nil
	} else if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}
	return o.Put(ctx, key, next)
}
