package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"groupevents/internal/domain"
)

// maxConflictRetries bounds read-modify-write retries after badger.ErrConflict.
const maxConflictRetries = 5

type index[T any] struct {
	name string
	key  func(*T) string
}

// collection stores one record kind under prefix.
type collection[T any] struct {
	db      *badger.DB
	prefix  string
	indexes []index[T]
}

func newCollection[T any](db *badger.DB, prefix string) *collection[T] {
	return &collection[T]{db: db, prefix: prefix}
}

func (c *collection[T]) withIndex(name string, key func(*T) string) *collection[T] {
	c.indexes = append(c.indexes, index[T]{name: name, key: key})
	return c
}

func (c *collection[T]) recordKey(id string) []byte {
	return []byte(c.prefix + id)
}

func (c *collection[T]) indexKey(name, value string) []byte {
	return []byte(c.prefix + "idx:" + name + ":" + value)
}

// create inserts rec under id. check, when set, runs inside the same
// transaction before anything is written.
func (c *collection[T]) create(ctx context.Context, id string, rec *T, check func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		if check != nil {
			if err := check(txn); err != nil {
				return err
			}
		}
		if _, err := txn.Get(c.recordKey(id)); err == nil {
			return domain.ErrDuplicate
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		for _, idx := range c.indexes {
			_, err := txn.Get(c.indexKey(idx.name, idx.key(rec)))
			if err == nil {
				return domain.ErrDuplicate
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index %s: %w", idx.name, err)
			}
		}

		if err := txn.Set(c.recordKey(id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		for _, idx := range c.indexes {
			if err := txn.Set(c.indexKey(idx.name, idx.key(rec)), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index %s: %w", idx.name, err)
			}
		}
		return nil
	})
}

func (c *collection[T]) read(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(c.recordKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	var rec T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

func (c *collection[T]) get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *T
	err := c.db.View(func(txn *badger.Txn) (err error) {
		rec, err = c.read(txn, id)
		return err
	})
	return rec, err
}

func (c *collection[T]) getByIndex(ctx context.Context, name, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *T
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.indexKey(name, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err = c.read(txn, string(id))
		return err
	})
	return rec, err
}

// getMany returns the records for ids in order, skipping ids that do not resolve.
func (c *collection[T]) getMany(ctx context.Context, ids []string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(ids))
	err := c.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			rec, err := c.read(txn, id)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *collection[T]) list(ctx context.Context) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*T
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(c.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			if strings.HasPrefix(string(item.Key()[len(c.prefix):]), "idx:") {
				continue
			}
			var rec T
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			out = append(out, &rec)
		}
		return nil
	})
	return out, err
}

// update applies edit to the stored record and writes it back atomically.
// Indexed fields must not change.
func (c *collection[T]) update(ctx context.Context, id string, edit func(*T)) (*T, error) {
	var updated *T
	var err error
	for range maxConflictRetries {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		err = c.db.Update(func(txn *badger.Txn) error {
			rec, err := c.read(txn, id)
			if err != nil {
				return err
			}
			edit(rec)
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal record: %w", err)
			}
			if err := txn.Set(c.recordKey(id), data); err != nil {
				return err
			}
			updated = rec
			return nil
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}
